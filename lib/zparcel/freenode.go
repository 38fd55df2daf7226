// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import (
	"hash/crc32"

	"go.zparcel.dev/zparcel/lib/diskio"
)

const (
	freeNodeMagic = "free"

	// FreeNodeSize is the fixed on-disk size of a free node: 4 (magic)
	// + 8 (next) + 8 (size) + 4 (crc32).
	FreeNodeSize = 24
)

// freeNode is the in-memory form of a free-list entry. size covers
// the extent from this record's own start to the end of the free
// range, including the free-node header itself (spec.md §3).
type freeNode struct {
	next uint64
	size uint64
}

func readFreeNode(dev diskio.Device, offset uint64) (*freeNode, error) {
	const op = "freenode.read"
	if _, err := dev.Seek(int64(offset)); err != nil {
		return nil, newErr(op, CodeSeek, err)
	}
	buf := make([]byte, FreeNodeSize)
	if err := diskio.ReadFull(dev, buf); err != nil {
		return nil, newErr(op, CodeRead, err)
	}

	if string(buf[0:4]) != freeNodeMagic {
		return nil, newErr(op, CodeMagic, nil)
	}

	gotCRC := beU32(buf[20:24])
	check := make([]byte, FreeNodeSize)
	copy(check, buf)
	check[20], check[21], check[22], check[23] = 0, 0, 0, 0
	if crc32.ChecksumIEEE(check) != gotCRC {
		return nil, newErr(op, CodeCrc, nil)
	}

	return &freeNode{
		next: beU64(buf[4:12]),
		size: beU64(buf[12:20]),
	}, nil
}

func (n *freeNode) write(dev diskio.Device, offset uint64) error {
	const op = "freenode.write"
	buf := make([]byte, FreeNodeSize)
	copy(buf[0:4], freeNodeMagic)
	putBEU64(buf[4:12], n.next)
	putBEU64(buf[12:20], n.size)

	crc := crc32.ChecksumIEEE(buf)
	putBEU32(buf[20:24], crc)

	if _, err := dev.Seek(int64(offset)); err != nil {
		return newErr(op, CodeSeek, err)
	}
	if err := diskio.WriteFull(dev, buf); err != nil {
		return newErr(op, CodeWrite, err)
	}
	return nil
}
