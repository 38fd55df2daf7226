// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import (
	"bytes"

	"github.com/google/uuid"
)

// maxTreeDepth bounds tree-walk recursion (spec.md §4.4/§4.5); this is
// a deliberate simplicity trade-off the unbalanced tree accepts (§9).
const maxTreeDepth = 128

// treeExists walks the tree purely to detect a duplicate UUID
// (tombstoned or not — see Open Question 1 in SPEC_FULL.md §9),
// without writing anything. Store paths call this before allocating
// any extent, so a duplicate fails CodeExists with nothing orphaned:
// original_source/zparcel/zparcel.cpp's _storeObject does its leaf
// search/duplicate check before calling _freeNodeAlloc, for the same
// reason.
func (p *Parcel) treeExists(op string, id uuid.UUID) error {
	cur := p.hdr.treeHead
	for depth := 0; cur != offsetNone; depth++ {
		if depth >= maxTreeDepth {
			return newErr(op, CodeMaxDepth, nil)
		}
		node, err := readTreeNode(p.dev, cur)
		if err != nil {
			return err
		}
		switch bytes.Compare(id[:], node.uuid[:]) {
		case 0:
			return newErr(op, CodeExists, nil)
		case 1:
			cur = node.rnode
		default:
			cur = node.lnode
		}
	}
	return nil
}

// treeInsert links a tree node, already written to disk at
// nodeOffset with the given uuid, into the tree. It does not write
// the node's own fields — the caller (the object engine) has already
// allocated and written it; treeInsert only rewrites parent/child
// pointers and, for the empty-tree case, the superblock's tree_head.
//
// Matches spec.md §4.4: byte-wise unsigned UUID compare, right on
// greater, left on lesser, Exists on any equal UUID encountered
// (tombstoned or not — see Open Question 1 in SPEC_FULL.md §9), and a
// MaxDepth cap of 128.
func (p *Parcel) treeInsert(id uuid.UUID, nodeOffset uint64) error {
	const op = "tree.insert"

	if p.hdr.treeHead == offsetNone {
		p.hdr.treeHead = nodeOffset
		return p.hdr.write(p.dev)
	}

	cur := p.hdr.treeHead
	for depth := 0; ; depth++ {
		if depth >= maxTreeDepth {
			errorLogf(p.ctx, "zparcel: tree insert exceeded max depth %d looking for a slot for %v", maxTreeDepth, id)
			return newErr(op, CodeMaxDepth, nil)
		}
		node, err := readTreeNode(p.dev, cur)
		if err != nil {
			return err
		}
		switch bytes.Compare(id[:], node.uuid[:]) {
		case 0:
			return newErr(op, CodeExists, nil)
		case 1: // id > node.uuid: go right
			if node.rnode == offsetNone {
				node.rnode = nodeOffset
				return node.write(p.dev, cur)
			}
			cur = node.rnode
		default: // id < node.uuid: go left
			if node.lnode == offsetNone {
				node.lnode = nodeOffset
				return node.write(p.dev, cur)
			}
			cur = node.lnode
		}
	}
}

// treeLookup walks the tree from tree_head, returning the offset and
// decoded record of the node with the given UUID, or CodeNoExist.
func (p *Parcel) treeLookup(id uuid.UUID) (uint64, *treeNode, error) {
	const op = "tree.lookup"

	cur := p.hdr.treeHead
	for depth := 0; cur != offsetNone; depth++ {
		if depth >= maxTreeDepth {
			return 0, nil, newErr(op, CodeMaxDepth, nil)
		}
		node, err := readTreeNode(p.dev, cur)
		if err != nil {
			return 0, nil, err
		}
		switch bytes.Compare(id[:], node.uuid[:]) {
		case 0:
			return cur, node, nil
		case 1:
			cur = node.rnode
		default:
			cur = node.lnode
		}
	}
	return 0, nil, newErr(op, CodeNoExist, nil)
}

// treeTombstone retypes the node at offset to null, freeing its data
// extent (if it had one). The UUID slot and tree-shape pointers are
// left untouched, per spec.md §4.4.
func (p *Parcel) treeTombstone(offset uint64, node *treeNode) error {
	if node.typ.isExternal() {
		dataOffset, dataSize := decodeExternalPointer(node)
		if err := p.free(dataOffset, dataSize+uint64(node.extra)); err != nil {
			return err
		}
	}
	node.typ = TypeNull
	node.extra = 0
	node.inline = [16]byte{}
	return node.write(p.dev, offset)
}
