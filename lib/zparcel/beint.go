// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import "encoding/binary"

// The record codecs read/verify/deserialize a whole fixed-size buffer
// at once (spec.md §4.2), rather than field-by-field through
// lib/diskio's Device-based codecs, so they get their own tiny
// buffer-oriented big-endian helpers here.

func beU16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func beU32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func beU64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

func putBEU16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func putBEU32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func putBEU64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }
