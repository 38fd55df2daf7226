// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import "go.zparcel.dev/zparcel/lib/diskio"

// Stream is a bounded view over one object's data extent, grounded on
// original_source/zparcel/zparcel.h's ParcelObjectAccessor. It borrows
// the parcel's underlying device and owns its own cursor within
// [base, base+size); it does not own the device itself, so callers
// must not interleave other parcel operations that move the device's
// cursor without first finishing with (or re-seeking) the stream.
type Stream struct {
	dev    diskio.Device
	base   uint64
	size   uint64
	cursor uint64
}

func newStream(dev diskio.Device, base, size uint64) *Stream {
	return &Stream{dev: dev, base: base, size: size}
}

// Size returns the fixed size of the extent this stream covers.
func (s *Stream) Size() uint64 { return s.size }

// Available returns the number of bytes remaining before the cursor
// reaches the end of the window.
func (s *Stream) Available() uint64 { return s.size - s.cursor }

// Seek moves the stream's cursor to pos, clamping it to [0, size].
func (s *Stream) Seek(pos uint64) uint64 {
	if pos > s.size {
		pos = s.size
	}
	s.cursor = pos
	return s.cursor
}

// Read transfers min(len(p), Available()) bytes starting at the
// cursor, advancing it by the transfer count.
func (s *Stream) Read(p []byte) (int, error) {
	n := uint64(len(p))
	if rem := s.Available(); n > rem {
		n = rem
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := s.dev.Seek(int64(s.base + s.cursor)); err != nil {
		return 0, newErr("stream.read", CodeSeek, err)
	}
	got, err := s.dev.Read(p[:n])
	s.cursor += uint64(got)
	if err != nil {
		return got, newErr("stream.read", CodeRead, err)
	}
	return got, nil
}

// Write transfers min(len(p), Available()) bytes starting at the
// cursor, advancing it by the transfer count.
func (s *Stream) Write(p []byte) (int, error) {
	n := uint64(len(p))
	if rem := s.Available(); n > rem {
		n = rem
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := s.dev.Seek(int64(s.base + s.cursor)); err != nil {
		return 0, newErr("stream.write", CodeSeek, err)
	}
	got, err := s.dev.Write(p[:n])
	s.cursor += uint64(got)
	if err != nil {
		return got, newErr("stream.write", CodeWrite, err)
	}
	return got, nil
}
