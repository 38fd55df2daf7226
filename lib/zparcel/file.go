// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"go.zparcel.dev/zparcel/lib/diskio"
)

// StoreFile stores the file at path under id, per spec.md §4.5's
// "store (file object specifically)": a fresh random name UUID holds
// the base filename as a string object, a fresh random data UUID
// holds the content as a blob object (allocated before any content is
// written), and the file tree node itself carries both UUIDs. Content
// is then streamed directly from the source file, so a multi-gigabyte
// file is never buffered whole in memory.
//
// A failure partway through streaming leaves the data extent
// allocated but partially written, with no compensating free (Open
// Question 4 in SPEC_FULL.md §9) — there is no rollback.
func (p *Parcel) StoreFile(id uuid.UUID, path string) error {
	const op = "store.file"
	if err := p.requireOpen(op); err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return newErr(op, CodeOpen, err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return newErr(op, CodeOpen, err)
	}

	nameUUID, err := uuid.NewRandom()
	if err != nil {
		return newErr(op, CodeOpen, err)
	}
	if err := p.StoreString(nameUUID, filepath.Base(path)); err != nil {
		return err
	}

	dataUUID, err := uuid.NewRandom()
	if err != nil {
		return newErr(op, CodeOpen, err)
	}
	fsize := uint64(fi.Size())
	dataStream, err := p.allocExternalNode("store.file.data", dataUUID, TypeBlob, 8+fsize)
	if err != nil {
		return err
	}

	if err := p.storeExternal(op, id, TypeFile, 32, func(stream *Stream) error {
		if err := writeAll(stream, nameUUID[:]); err != nil {
			return err
		}
		return writeAll(stream, dataUUID[:])
	}); err != nil {
		return err
	}

	var hdr [8]byte
	putBEU64(hdr[:], fsize)
	if err := writeAll(dataStream, hdr[:]); err != nil {
		return newErr(op, CodeWrite, err)
	}
	if _, err := io.CopyBuffer(streamWriter{dataStream}, src, make([]byte, 64*1024)); err != nil {
		return newErr(op, CodeWrite, err)
	}
	return nil
}

// streamWriter adapts *Stream to io.Writer for io.CopyBuffer.
type streamWriter struct{ s *Stream }

func (w streamWriter) Write(p []byte) (int, error) { return w.s.Write(p) }

// FetchFile returns the stored base filename and a Stream over the
// file's content, following the name/data UUID pointers stored in the
// file tree node (spec.md §4.5).
func (p *Parcel) FetchFile(id uuid.UUID) (name string, content *Stream, err error) {
	const op = "fetch.file"
	stream, _, err := p.fetchExternal(op, id, TypeFile)
	if err != nil {
		return "", nil, err
	}
	var nameUUID, dataUUID uuid.UUID
	if err := readAll(stream, nameUUID[:]); err != nil {
		return "", nil, newErr(op, CodeRead, err)
	}
	if err := readAll(stream, dataUUID[:]); err != nil {
		return "", nil, newErr(op, CodeRead, err)
	}

	name, err = p.FetchString(nameUUID)
	if err != nil {
		return "", nil, err
	}

	_, dataNode, err := p.lookupLive(op, dataUUID)
	if err != nil {
		return "", nil, err
	}
	dataOffset, dataSize := decodeExternalPointer(dataNode)

	var hdr [8]byte
	if _, err := p.dev.Seek(int64(dataOffset)); err != nil {
		return "", nil, newErr(op, CodeSeek, err)
	}
	if err := diskio.ReadFull(p.dev, hdr[:]); err != nil {
		return "", nil, newErr(op, CodeRead, err)
	}
	contentLen := beU64(hdr[:])
	_ = dataSize // dataSize is the 8-byte-header-inclusive extent length; content starts right after it.

	return name, newStream(p.dev, dataOffset+8, contentLen), nil
}
