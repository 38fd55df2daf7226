// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package diskio

import (
	"errors"
	"io"
	"os"
)

// ErrNegativeSeek is returned when Seek is asked to move before the
// start of the device.
var ErrNegativeSeek = errors.New("diskio: negative seek")

// osDevice is a Device backed by an *os.File, tracking its own cursor
// the way the teacher's statefulFile wraps a random-access File[A].
type osDevice struct {
	f   *os.File
	pos int64
}

var _ Device = (*osDevice)(nil)

// NewOSDevice wraps an already-open file as a Device.
func NewOSDevice(f *os.File) Device {
	return &osDevice{f: f}
}

// OpenOSDevice opens (or creates) name with the given flag/perm and
// wraps it as a Device.
func OpenOSDevice(name string, flag int, perm os.FileMode) (Device, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return NewOSDevice(f), nil
}

func (d *osDevice) Read(p []byte) (int, error) {
	n, err := d.f.ReadAt(p, d.pos)
	d.pos += int64(n)
	return n, err
}

func (d *osDevice) Write(p []byte) (int, error) {
	n, err := d.f.WriteAt(p, d.pos)
	d.pos += int64(n)
	return n, err
}

func (d *osDevice) Seek(pos int64) (int64, error) {
	if pos < 0 {
		return d.pos, ErrNegativeSeek
	}
	d.pos = pos
	return d.pos, nil
}

func (d *osDevice) Tell() int64 { return d.pos }

func (d *osDevice) size() int64 {
	fi, err := d.f.Stat()
	if err != nil {
		return d.pos
	}
	return fi.Size()
}

func (d *osDevice) Available() int64 {
	size := d.size()
	if d.pos >= size {
		return 0
	}
	return size - d.pos
}

func (d *osDevice) AtEnd() bool { return d.pos >= d.size() }

func (d *osDevice) Close() error { return d.f.Close() }

var _ io.Closer = (*osDevice)(nil)
