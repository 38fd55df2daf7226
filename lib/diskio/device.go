// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package diskio provides a small sequential-access byte-device
// abstraction, plus big-endian typed codecs layered on top of it.
package diskio

import (
	"fmt"
	"io"
)

// Device is a seekable, sequential byte device: a disk file and an
// in-memory buffer are interchangeable implementations.
//
// Short reads and short writes are reported as errors by the typed
// codecs in codec.go; callers that need raw partial-transfer semantics
// should use Read/Write directly.
type Device interface {
	io.Closer

	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)

	// Seek moves the cursor to an absolute offset from the start of
	// the device and returns the resulting position.
	Seek(pos int64) (int64, error)
	// Tell returns the current cursor position.
	Tell() int64
	// Available returns the number of bytes between the cursor and
	// the end of the device.
	Available() int64
	// AtEnd reports whether the cursor is at the end of the device.
	AtEnd() bool
}

// ReadFull reads exactly len(p) bytes from dev, or returns an error.
func ReadFull(dev Device, p []byte) error {
	n, err := dev.Read(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("diskio: short read: got %d bytes, expected %d", n, len(p))
	}
	return nil
}

// WriteFull writes exactly len(p) bytes to dev, or returns an error.
func WriteFull(dev Device, p []byte) error {
	n, err := dev.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("diskio: short write: wrote %d bytes, expected %d", n, len(p))
	}
	return nil
}
