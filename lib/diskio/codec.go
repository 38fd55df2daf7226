// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package diskio

import (
	"encoding/binary"
	"math"
)

// This file provides the big-endian typed codecs that the record
// layer builds on, one pair of Read/Write functions per width,
// following the per-width marshal/unmarshal shape of
// lib/binstruct/binint/builtins.go, narrowed to the big-endian subset
// the on-disk format uses and adapted to operate on a Device's cursor
// instead of a byte slice.

func ReadU8(dev Device) (uint8, error) {
	var buf [1]byte
	if err := ReadFull(dev, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func WriteU8(dev Device, v uint8) error {
	return WriteFull(dev, []byte{v})
}

func ReadU16BE(dev Device) (uint16, error) {
	var buf [2]byte
	if err := ReadFull(dev, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func WriteU16BE(dev Device, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return WriteFull(dev, buf[:])
}

func ReadU32BE(dev Device) (uint32, error) {
	var buf [4]byte
	if err := ReadFull(dev, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func WriteU32BE(dev Device, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return WriteFull(dev, buf[:])
}

func ReadU64BE(dev Device) (uint64, error) {
	var buf [8]byte
	if err := ReadFull(dev, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func WriteU64BE(dev Device, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return WriteFull(dev, buf[:])
}

func ReadI64BE(dev Device) (int64, error) {
	v, err := ReadU64BE(dev)
	return int64(v), err
}

func WriteI64BE(dev Device, v int64) error {
	return WriteU64BE(dev, uint64(v))
}

func ReadF64BE(dev Device) (float64, error) {
	v, err := ReadU64BE(dev)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func WriteF64BE(dev Device, v float64) error {
	return WriteU64BE(dev, math.Float64bits(v))
}
