// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.zparcel.dev/zparcel/lib/diskio"
	"go.zparcel.dev/zparcel/lib/zparcel"
)

func mustParcel(t *testing.T) (*zparcel.Parcel, *diskio.MemDevice) {
	t.Helper()
	dev := diskio.NewMemDevice(nil)
	p, err := zparcel.Create(context.Background(), dev)
	require.NoError(t, err)
	return p, dev
}

// TestStoreFetchUint covers spec.md §8 end-to-end scenario 2.
func TestStoreFetchUint(t *testing.T) {
	p, _ := mustParcel(t)
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	require.NoError(t, p.StoreUint(id, 42))

	got, err := p.FetchUint(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	typ, err := p.GetType(id)
	require.NoError(t, err)
	assert.Equal(t, zparcel.TypeUint, typ)
}

// TestStoreFetchAllInlineTypes covers spec.md §8 invariant 4.
func TestStoreFetchAllInlineTypes(t *testing.T) {
	p, _ := mustParcel(t)

	nullID := uuid.New()
	require.NoError(t, p.StoreNull(nullID))
	typ, err := p.GetType(nullID)
	require.NoError(t, err)
	assert.Equal(t, zparcel.TypeNull, typ)

	boolID := uuid.New()
	require.NoError(t, p.StoreBool(boolID, true))
	b, err := p.FetchBool(boolID)
	require.NoError(t, err)
	assert.True(t, b)

	sintID := uuid.New()
	require.NoError(t, p.StoreSint(sintID, -12345))
	s, err := p.FetchSint(sintID)
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), s)

	floatID := uuid.New()
	require.NoError(t, p.StoreFloat(floatID, 3.14159))
	f, err := p.FetchFloat(floatID)
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, f, 1e-12)

	uuidID := uuid.New()
	inner := uuid.New()
	require.NoError(t, p.StoreUUID(uuidID, inner))
	gotInner, err := p.FetchUUID(uuidID)
	require.NoError(t, err)
	assert.Equal(t, inner, gotInner)
}

// TestStoreFetchExternalTypes covers spec.md §8 invariant 5, including
// zero-size and large payloads.
func TestStoreFetchExternalTypes(t *testing.T) {
	p, _ := mustParcel(t)

	emptyID := uuid.New()
	require.NoError(t, p.StoreBlob(emptyID, nil))
	got, err := p.FetchBlob(emptyID)
	require.NoError(t, err)
	assert.Empty(t, got)

	bigID := uuid.New()
	big := bytes.Repeat([]byte{0xAB}, 1<<15)
	require.NoError(t, p.StoreBlob(bigID, big))
	got, err = p.FetchBlob(bigID)
	require.NoError(t, err)
	assert.Equal(t, big, got)

	strID := uuid.New()
	require.NoError(t, p.StoreString(strID, "hello, zparcel"))
	str, err := p.FetchString(strID)
	require.NoError(t, err)
	assert.Equal(t, "hello, zparcel", str)

	listID := uuid.New()
	items := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, p.StoreList(listID, items))
	gotItems, err := p.FetchList(listID)
	require.NoError(t, err)
	assert.Equal(t, items, gotItems)
}

// TestListPreOrder covers spec.md §8 end-to-end scenario 3.
func TestListPreOrder(t *testing.T) {
	p, _ := mustParcel(t)
	id1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	id2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	require.NoError(t, p.StoreUint(id1, 42))
	require.NoError(t, p.StoreString(id2, "hi"))

	entries, err := p.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id1, entries[0].UUID)
	assert.Equal(t, id2, entries[1].UUID)
}

// TestStoreDuplicateFailsExists covers spec.md §8 end-to-end scenario
// 5: a duplicate store fails without touching the original value.
func TestStoreDuplicateFailsExists(t *testing.T) {
	p, _ := mustParcel(t)
	id := uuid.New()

	require.NoError(t, p.StoreString(id, "abc"))
	err := p.StoreString(id, "xyz")
	require.Error(t, err)
	var zerr *zparcel.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, zparcel.CodeExists, zerr.Code)

	got, err := p.FetchString(id)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

// TestRemoveThenLookup covers spec.md §8 invariants 3 and 6: remove
// tombstones, and the freed extent goes back on the free list, after
// which a matching-size blob can still be stored and fetched.
func TestRemoveThenLookup(t *testing.T) {
	p, _ := mustParcel(t)
	id := uuid.New()
	payload := bytes.Repeat([]byte{0xAA}, 100)

	require.NoError(t, p.StoreBlob(id, payload))
	require.NoError(t, p.Remove(id))

	assert.False(t, p.Exists(id))
	_, err := p.FetchBlob(id)
	require.Error(t, err)
	var zerr *zparcel.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, zparcel.CodeNoExist, zerr.Code)

	id2 := uuid.New()
	payload2 := bytes.Repeat([]byte{0xBB}, 100)
	require.NoError(t, p.StoreBlob(id2, payload2))
	got, err := p.FetchBlob(id2)
	require.NoError(t, err)
	assert.Equal(t, payload2, got)
}

// TestTombstoneReuseFailsExists documents Open Question 1's
// resolution: a store against an already-tombstoned UUID fails
// Exists rather than resurrecting the slot.
func TestTombstoneReuseFailsExists(t *testing.T) {
	p, _ := mustParcel(t)
	id := uuid.New()

	require.NoError(t, p.StoreUint(id, 1))
	require.NoError(t, p.Remove(id))

	err := p.StoreUint(id, 2)
	require.Error(t, err)
	var zerr *zparcel.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, zparcel.CodeExists, zerr.Code)
}

// TestRootPersistsAcrossReopen covers spec.md §8 end-to-end scenario
// 6.
func TestRootPersistsAcrossReopen(t *testing.T) {
	p, dev := mustParcel(t)
	id := uuid.New()
	require.NoError(t, p.StoreUint(id, 7))
	require.NoError(t, p.SetRoot(id))
	require.NoError(t, p.Close())

	reopened, err := zparcel.Open(context.Background(), dev)
	require.NoError(t, err)
	got, err := reopened.GetRoot()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

// TestFetchTypeMismatch checks the typed-fetch/type-tag guard.
func TestFetchTypeMismatch(t *testing.T) {
	p, _ := mustParcel(t)
	id := uuid.New()
	require.NoError(t, p.StoreUint(id, 1))

	_, err := p.FetchString(id)
	require.Error(t, err)
	var zerr *zparcel.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, zparcel.CodeType, zerr.Code)
}

// TestOperationsFailWhenClosed covers the NotOpen state-machine
// requirement of spec.md §4.6.
func TestOperationsFailWhenClosed(t *testing.T) {
	p, _ := mustParcel(t)
	require.NoError(t, p.Close())

	_, err := p.GetRoot()
	require.Error(t, err)
	var zerr *zparcel.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, zparcel.CodeNotOpen, zerr.Code)
}
