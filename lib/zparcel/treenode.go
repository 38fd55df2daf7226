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
	treeNodeMagic = "TREE"

	// TreeNodeSize is the fixed on-disk size of a tree node: 4 (magic)
	// + 16 (uuid) + 8 (lnode) + 8 (rnode) + 1 (type) + 1 (extra) + 4
	// (crc32) + 16 (inline payload).
	TreeNodeSize = 58
)

// treeNode is the in-memory form of a tree node record.
type treeNode struct {
	uuid    uuid.UUID
	lnode   uint64
	rnode   uint64
	typ     ObjType
	extra   uint8
	inline  [16]byte
}

func readTreeNode(dev diskio.Device, offset uint64) (*treeNode, error) {
	const op = "treenode.read"
	if _, err := dev.Seek(int64(offset)); err != nil {
		return nil, newErr(op, CodeSeek, err)
	}
	buf := make([]byte, TreeNodeSize)
	if err := diskio.ReadFull(dev, buf); err != nil {
		return nil, newErr(op, CodeRead, err)
	}

	if string(buf[0:4]) != treeNodeMagic {
		return nil, newErr(op, CodeMagic, nil)
	}

	gotCRC := beU32(buf[38:42])
	check := make([]byte, TreeNodeSize)
	copy(check, buf)
	check[38], check[39], check[40], check[41] = 0, 0, 0, 0
	if crc32.ChecksumIEEE(check) != gotCRC {
		return nil, newErr(op, CodeCrc, nil)
	}

	n := &treeNode{
		lnode: beU64(buf[20:28]),
		rnode: beU64(buf[28:36]),
		typ:   ObjType(buf[36]),
		extra: buf[37],
	}
	copy(n.uuid[:], buf[4:20])
	copy(n.inline[:], buf[42:58])
	return n, nil
}

func (n *treeNode) write(dev diskio.Device, offset uint64) error {
	const op = "treenode.write"
	buf := make([]byte, TreeNodeSize)
	copy(buf[0:4], treeNodeMagic)
	copy(buf[4:20], n.uuid[:])
	putBEU64(buf[20:28], n.lnode)
	putBEU64(buf[28:36], n.rnode)
	buf[36] = byte(n.typ)
	buf[37] = n.extra
	copy(buf[42:58], n.inline[:])

	crc := crc32.ChecksumIEEE(buf)
	putBEU32(buf[38:42], crc)

	if _, err := dev.Seek(int64(offset)); err != nil {
		return newErr(op, CodeSeek, err)
	}
	if err := diskio.WriteFull(dev, buf); err != nil {
		return newErr(op, CodeWrite, err)
	}
	return nil
}
