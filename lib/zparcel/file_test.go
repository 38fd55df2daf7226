// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.zparcel.dev/zparcel/lib/diskio"
	"go.zparcel.dev/zparcel/lib/zparcel"
)

func TestStoreFetchFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "greeting.txt")
	content := []byte("hello from a stored file\n")
	require.NoError(t, os.WriteFile(srcPath, content, 0o644))

	dev := diskio.NewMemDevice(nil)
	p, err := zparcel.Create(context.Background(), dev)
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, p.StoreFile(id, srcPath))

	typ, err := p.GetType(id)
	require.NoError(t, err)
	assert.Equal(t, zparcel.TypeFile, typ)

	name, stream, err := p.FetchFile(id)
	require.NoError(t, err)
	assert.Equal(t, "greeting.txt", name)
	assert.Equal(t, uint64(len(content)), stream.Size())

	got := make([]byte, stream.Size())
	n, err := stream.Read(got)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stream.Available())
	assert.Equal(t, content, got[:n])
}
