// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package diskio

// MemDevice is a Device backed by a growable in-memory buffer. It
// exists so that tests (and embedders that don't want a real file) can
// use exactly the same Device contract as an on-disk parcel; per
// spec.md's purpose statement, "disk files and in-memory buffers are
// interchangeable".
type MemDevice struct {
	buf []byte
	pos int64
}

var _ Device = (*MemDevice)(nil)

// NewMemDevice wraps buf (or a fresh empty buffer, if buf is nil) as a
// Device. The buffer grows on Write past its current length.
func NewMemDevice(buf []byte) *MemDevice {
	return &MemDevice{buf: buf}
}

// Bytes returns the device's current backing buffer. The caller must
// not retain it past further writes to the device.
func (d *MemDevice) Bytes() []byte { return d.buf }

func (d *MemDevice) Read(p []byte) (int, error) {
	if d.pos >= int64(len(d.buf)) {
		return 0, nil
	}
	n := copy(p, d.buf[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *MemDevice) Write(p []byte) (int, error) {
	end := d.pos + int64(len(p))
	if end > int64(len(d.buf)) {
		grown := make([]byte, end)
		copy(grown, d.buf)
		d.buf = grown
	}
	n := copy(d.buf[d.pos:end], p)
	d.pos = end
	return n, nil
}

func (d *MemDevice) Seek(pos int64) (int64, error) {
	if pos < 0 {
		return d.pos, ErrNegativeSeek
	}
	d.pos = pos
	return d.pos, nil
}

func (d *MemDevice) Tell() int64 { return d.pos }

func (d *MemDevice) Available() int64 {
	if d.pos >= int64(len(d.buf)) {
		return 0
	}
	return int64(len(d.buf)) - d.pos
}

func (d *MemDevice) AtEnd() bool { return d.pos >= int64(len(d.buf)) }

func (d *MemDevice) Close() error { return nil }
