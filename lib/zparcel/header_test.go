// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.zparcel.dev/zparcel/lib/diskio"
)

// TestCreateInitialState covers spec.md §8 end-to-end scenario 1.
func TestCreateInitialState(t *testing.T) {
	dev := diskio.NewMemDevice(nil)
	p, err := Create(context.Background(), dev)
	require.NoError(t, err)

	assert.Equal(t, offsetNone, p.hdr.treeHead)
	assert.Equal(t, uint64(HeaderSize), p.hdr.freeHead)
	assert.Equal(t, uint64(HeaderSize), p.hdr.freeTail)
	assert.Equal(t, uint64(initialTailPtr), p.hdr.tailPtr)
	assert.True(t, p.hdr.rootUUID.String() == "00000000-0000-0000-0000-000000000000")

	reread, err := readHeader(dev)
	require.NoError(t, err)
	assert.Equal(t, p.hdr.treeHead, reread.treeHead)
	assert.Equal(t, p.hdr.freeHead, reread.freeHead)
	assert.Equal(t, p.hdr.tailPtr, reread.tailPtr)
}

// TestHeaderCrcDetectsCorruption covers spec.md §8 invariant 8.
func TestHeaderCrcDetectsCorruption(t *testing.T) {
	dev := diskio.NewMemDevice(nil)
	_, err := Create(context.Background(), dev)
	require.NoError(t, err)

	buf := dev.Bytes()
	buf[10] ^= 0xFF // flip a byte inside the flags field, well clear of the CRC field

	_, err = readHeader(dev)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, CodeCrc, zerr.Code)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dev := diskio.NewMemDevice(make([]byte, HeaderSize))
	_, err := readHeader(dev)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, CodeSignature, zerr.Code)
}
