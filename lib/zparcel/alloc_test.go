// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.zparcel.dev/zparcel/lib/diskio"
)

func newTestParcel(t *testing.T) *Parcel {
	t.Helper()
	dev := diskio.NewMemDevice(nil)
	p, err := Create(context.Background(), dev)
	require.NoError(t, err)
	return p
}

// TestAllocFreeReuse covers spec.md §8 end-to-end scenario 4: once
// the rest of the initial free extent is used up, a freed extent is
// the only free node large enough, so the very next same-size alloc
// returns it.
func TestAllocFreeReuse(t *testing.T) {
	p := newTestParcel(t)

	off1, granted1, err := p.alloc(100)
	require.NoError(t, err)

	// Consume the remainder of the initial free extent.
	_, _, err = p.alloc(initialTailPtr - HeaderSize - 100)
	require.NoError(t, err)

	require.NoError(t, p.free(off1, granted1))

	off2, granted2, err := p.alloc(100)
	require.NoError(t, err)
	assert.Equal(t, off1, off2)
	assert.Equal(t, granted1, granted2)
}

// TestAllocSplitsLargeFreeNode checks that a request much smaller than
// the initial tail-covering free node results in a split, not a
// whole-node consumption.
func TestAllocSplitsLargeFreeNode(t *testing.T) {
	p := newTestParcel(t)

	off, granted, err := p.alloc(64)
	require.NoError(t, err)
	assert.Equal(t, uint64(HeaderSize), off)
	assert.Equal(t, uint64(64), granted)

	// The remainder of the initial free node should still be on the
	// list, sized (initialTailPtr-HeaderSize)-64.
	fn, err := readFreeNode(p.dev, off+64)
	require.NoError(t, err)
	assert.Equal(t, uint64(initialTailPtr-HeaderSize-64), fn.size)
}

func TestAllocZeroRejected(t *testing.T) {
	p := newTestParcel(t)
	_, _, err := p.alloc(0)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, CodeNoFree, zerr.Code)
}

func TestFreeRejectsUndersizedExtent(t *testing.T) {
	p := newTestParcel(t)
	err := p.free(HeaderSize, FreeNodeSize-1)
	require.Error(t, err)
}

// TestAllocExtendsTail covers the tail-extend growth path once the
// free list is exhausted.
func TestAllocExtendsTail(t *testing.T) {
	p := newTestParcel(t)

	// Consume the entire initial free extent.
	_, _, err := p.alloc(initialTailPtr - HeaderSize)
	require.NoError(t, err)
	assert.Equal(t, offsetNone, p.hdr.freeHead)

	before := p.hdr.tailPtr
	off, granted, err := p.alloc(256)
	require.NoError(t, err)
	assert.Equal(t, before, off)
	assert.Equal(t, uint64(256), granted)
	assert.Equal(t, before+256, p.hdr.tailPtr)
}

// TestDuplicateInlineStoreOrphansNothing covers spec.md §3/§8 invariant
// 2: a store that fails CodeExists must never allocate an extent that
// ends up neither reachable from the tree nor on the free list.
func TestDuplicateInlineStoreOrphansNothing(t *testing.T) {
	p := newTestParcel(t)
	id := uuid.New()
	require.NoError(t, p.StoreUint(id, 1))

	tailBefore := p.hdr.tailPtr
	freeHeadBefore := p.hdr.freeHead
	freeCountBefore := p.freeCount

	err := p.StoreUint(id, 2)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, CodeExists, zerr.Code)

	assert.Equal(t, tailBefore, p.hdr.tailPtr, "rejected duplicate store must not grow the tail")
	assert.Equal(t, freeHeadBefore, p.hdr.freeHead, "rejected duplicate store must not touch the free list")
	assert.Equal(t, freeCountBefore, p.freeCount)
}

// TestDuplicateExternalStoreOrphansNothing is
// TestDuplicateInlineStoreOrphansNothing's counterpart for external
// (tag >= blob) types, which allocate both a tree-node extent and a
// data extent.
func TestDuplicateExternalStoreOrphansNothing(t *testing.T) {
	p := newTestParcel(t)
	id := uuid.New()
	require.NoError(t, p.StoreBlob(id, []byte("first")))

	tailBefore := p.hdr.tailPtr
	freeCountBefore := p.freeCount

	err := p.StoreBlob(id, []byte("second, much longer payload"))
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, CodeExists, zerr.Code)

	assert.Equal(t, tailBefore, p.hdr.tailPtr, "rejected duplicate store must not grow the tail")
	assert.Equal(t, freeCountBefore, p.freeCount)

	got, err := p.FetchBlob(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

// TestTombstonedDuplicateStoreOrphansNothing checks the same property
// on the Open-Question-1 path: re-storing over a tombstoned UUID.
func TestTombstonedDuplicateStoreOrphansNothing(t *testing.T) {
	p := newTestParcel(t)
	id := uuid.New()
	require.NoError(t, p.StoreUint(id, 1))
	require.NoError(t, p.Remove(id))

	tailBefore := p.hdr.tailPtr
	freeCountBefore := p.freeCount

	err := p.StoreUint(id, 2)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, CodeExists, zerr.Code)

	assert.Equal(t, tailBefore, p.hdr.tailPtr)
	assert.Equal(t, freeCountBefore, p.freeCount)
}
