// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import "go.zparcel.dev/zparcel/lib/diskio"

// This file implements the free-space allocator (spec.md §4.3),
// carried over from original_source/zparcel/zparcel.cpp's
// _freeNodeFind/_freeNodeAlloc/_freeNodeAdd essentially unchanged:
// first-fit forward scan, split-or-consume-whole, append-at-tail free,
// optional tail-extend growth, no coalescing.

// countFreeNodes walks the whole free list once, used to establish a
// traversal bound so a later single-pass alloc can detect a corrupt
// (cyclic) free list instead of looping forever, per spec.md §4.3's
// "reject traversal lengths beyond the number of live free nodes."
func (p *Parcel) countFreeNodes() (uint64, error) {
	const op = "freelist.count"
	// An absolute sanity ceiling independent of freeCount (which we're
	// computing right now): the list can never hold more nodes than
	// fit in [HeaderSize, tailPtr).
	ceiling := uint64(1)
	if p.hdr.tailPtr > HeaderSize {
		ceiling = (p.hdr.tailPtr-HeaderSize)/FreeNodeSize + 1
	}

	var count uint64
	cur := p.hdr.freeHead
	for cur != offsetNone {
		if count > ceiling {
			return 0, newErr(op, CodeFreeList, nil)
		}
		fn, err := readFreeNode(p.dev, cur)
		if err != nil {
			return 0, err
		}
		count++
		cur = fn.next
	}
	return count, nil
}

// alloc grants an extent of at least requested bytes, per spec.md
// §4.3. It returns the offset of the granted extent and its actual
// size (which may exceed requested by at most FreeNodeSize-1 bytes of
// slack).
func (p *Parcel) alloc(requested uint64) (offset uint64, granted uint64, err error) {
	const op = "alloc"
	if requested == 0 {
		return 0, 0, newErr(op, CodeNoFree, nil)
	}

	var (
		predOffset uint64 = offsetNone
		pred       *freeNode
		cur                = p.hdr.freeHead
	)

	for i := uint64(0); cur != offsetNone; i++ {
		if i > p.freeCount {
			errorLogf(p.ctx, "zparcel: free list traversal exceeded known node count %d, list is likely cyclic/corrupt", p.freeCount)
			return 0, 0, newErr(op, CodeFreeList, nil)
		}
		victim, rerr := readFreeNode(p.dev, cur)
		if rerr != nil {
			return 0, 0, rerr
		}
		if victim.size >= requested {
			return p.allocFromVictim(predOffset, pred, cur, victim, requested)
		}
		predOffset = cur
		pred = victim
		cur = victim.next
	}

	if !p.hdr.tailExtendEnabled() {
		return 0, 0, newErr(op, CodeNoFree, nil)
	}
	return p.allocFromTail(requested)
}

func (p *Parcel) allocFromVictim(predOffset uint64, pred *freeNode, victimOffset uint64, victim *freeNode, requested uint64) (uint64, uint64, error) {
	const op = "alloc"

	if victim.size-requested >= FreeNodeSize {
		// Split: shrink the victim by requested from its front, leaving
		// a replacement free node immediately after the granted extent.
		replOffset := victimOffset + requested
		repl := &freeNode{next: victim.next, size: victim.size - requested}
		if err := repl.write(p.dev, replOffset); err != nil {
			return 0, 0, err
		}
		if err := p.relink(predOffset, pred, victimOffset, replOffset); err != nil {
			return 0, 0, err
		}
		if p.hdr.freeTail == victimOffset {
			p.hdr.freeTail = replOffset
			if err := p.hdr.write(p.dev); err != nil {
				return 0, 0, newErr(op, CodeWrite, err)
			}
		}
		return victimOffset, requested, nil
	}

	// Consume the whole victim.
	if err := p.relink(predOffset, pred, victimOffset, victim.next); err != nil {
		return 0, 0, err
	}
	if p.hdr.freeTail == victimOffset {
		p.hdr.freeTail = predOffset
		if err := p.hdr.write(p.dev); err != nil {
			return 0, 0, newErr(op, CodeWrite, err)
		}
	}
	p.freeCount--
	return victimOffset, victim.size, nil
}

// relink unlinks the node at removedOffset, rewriting freeHead (if it
// was the head) or the predecessor's next pointer to newNext.
func (p *Parcel) relink(predOffset uint64, pred *freeNode, removedOffset uint64, newNext uint64) error {
	if predOffset == offsetNone {
		p.hdr.freeHead = newNext
		return p.hdr.write(p.dev)
	}
	pred.next = newNext
	return pred.write(p.dev, predOffset)
}

func (p *Parcel) allocFromTail(requested uint64) (uint64, uint64, error) {
	const op = "alloc"
	offset := p.hdr.tailPtr

	zero := make([]byte, requested)
	if _, err := p.dev.Seek(int64(offset)); err != nil {
		return 0, 0, newErr(op, CodeSeek, err)
	}
	if err := diskio.WriteFull(p.dev, zero); err != nil {
		return 0, 0, newErr(op, CodeWrite, err)
	}

	p.hdr.tailPtr += requested
	if err := p.hdr.write(p.dev); err != nil {
		return 0, 0, newErr(op, CodeWrite, err)
	}
	return offset, requested, nil
}

// free releases an extent back to the free list by appending a new
// free node at its tail (spec.md §4.3's "append-at-tail" policy; no
// coalescing is performed, matching §9's explicit design note).
func (p *Parcel) free(offset uint64, size uint64) error {
	const op = "free"
	if size < FreeNodeSize {
		return newErr(op, CodeFreeList, nil)
	}

	n := &freeNode{next: offsetNone, size: size}
	if err := n.write(p.dev, offset); err != nil {
		return err
	}

	if p.hdr.freeHead == offsetNone {
		p.hdr.freeHead = offset
		p.hdr.freeTail = offset
	} else {
		tail, err := readFreeNode(p.dev, p.hdr.freeTail)
		if err != nil {
			return err
		}
		tail.next = offset
		if err := tail.write(p.dev, p.hdr.freeTail); err != nil {
			return err
		}
		p.hdr.freeTail = offset
	}
	p.freeCount++
	return p.hdr.write(p.dev)
}
