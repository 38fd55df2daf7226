// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import (
	"hash/crc32"

	"github.com/google/uuid"

	"go.zparcel.dev/zparcel/lib/diskio"
)

const (
	headerMagic   = "ZPARCEL"
	headerVersion = 1

	// HeaderSize is the fixed on-disk size of the superblock: 7 (magic)
	// + 1 (version) + 4 (flags) + 8*4 (tree_head, free_head, free_tail,
	// tail_ptr) + 16 (root_uuid) + 4 (crc32).
	HeaderSize = 64

	// offsetNone is the sentinel for an absent 64-bit offset.
	offsetNone uint64 = 0xFFFF_FFFF_FFFF_FFFF

	// flagTailExtend is bit 0 of the superblock's flags field.
	flagTailExtend uint32 = 1 << 0

	// initialTailPtr is where a freshly formatted parcel's tail
	// pointer starts, per spec.md §6 ("after formatting, the tail
	// pointer is 4096").
	initialTailPtr = 4096
)

// header is the in-memory form of the superblock.
type header struct {
	flags     uint32
	treeHead  uint64
	freeHead  uint64
	freeTail  uint64
	tailPtr   uint64
	rootUUID  uuid.UUID
}

func (h *header) tailExtendEnabled() bool { return h.flags&flagTailExtend != 0 }

// readHeader reads and validates the superblock at offset 0, following
// the read/verify/deserialize contract of spec.md §4.2: seek, read
// HeaderSize bytes, verify the magic signature, recompute the CRC-32
// over the buffer with the CRC field zeroed, and compare.
func readHeader(dev diskio.Device) (*header, error) {
	const op = "header.read"
	if _, err := dev.Seek(0); err != nil {
		return nil, newErr(op, CodeSeek, err)
	}
	buf := make([]byte, HeaderSize)
	if err := diskio.ReadFull(dev, buf); err != nil {
		return nil, newErr(op, CodeRead, err)
	}

	if string(buf[0:7]) != headerMagic {
		return nil, newErr(op, CodeSignature, nil)
	}
	if buf[7] != headerVersion {
		return nil, newErr(op, CodeVersion, nil)
	}

	gotCRC := beU32(buf[60:64])
	check := make([]byte, HeaderSize)
	copy(check, buf)
	check[60], check[61], check[62], check[63] = 0, 0, 0, 0
	if crc32.ChecksumIEEE(check) != gotCRC {
		return nil, newErr(op, CodeCrc, nil)
	}

	h := &header{
		flags:    beU32(buf[8:12]),
		treeHead: beU64(buf[12:20]),
		freeHead: beU64(buf[20:28]),
		freeTail: beU64(buf[28:36]),
		tailPtr:  beU64(buf[36:44]),
	}
	copy(h.rootUUID[:], buf[44:60])
	return h, nil
}

// write serializes and writes the superblock at offset 0, computing
// the CRC-32 over the buffer with the CRC field zeroed, per spec.md
// §4.2's write contract.
func (h *header) write(dev diskio.Device) error {
	const op = "header.write"
	buf := make([]byte, HeaderSize)
	copy(buf[0:7], headerMagic)
	buf[7] = headerVersion
	putBEU32(buf[8:12], h.flags)
	putBEU64(buf[12:20], h.treeHead)
	putBEU64(buf[20:28], h.freeHead)
	putBEU64(buf[28:36], h.freeTail)
	putBEU64(buf[36:44], h.tailPtr)
	copy(buf[44:60], h.rootUUID[:])

	crc := crc32.ChecksumIEEE(buf)
	putBEU32(buf[60:64], crc)

	if _, err := dev.Seek(0); err != nil {
		return newErr(op, CodeSeek, err)
	}
	if err := diskio.WriteFull(dev, buf); err != nil {
		return newErr(op, CodeWrite, err)
	}
	return nil
}
