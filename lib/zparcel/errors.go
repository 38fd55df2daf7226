// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import "fmt"

// Code is a closed taxonomy of failure kinds a Parcel operation can
// report. Callers should branch on Code (via errors.As to *Error),
// never on Error's message text.
type Code int

const (
	CodeOpen Code = iota
	CodeSeek
	CodeRead
	CodeWrite
	CodeSignature
	CodeVersion
	CodeMagic
	CodeCrc
	CodeTrunc
	CodeTree
	CodeFreeList
	CodeExists
	CodeNoExist
	CodeNoFree
	CodeMaxDepth
	CodeNotOpen
	CodeType
)

func (c Code) String() string {
	switch c {
	case CodeOpen:
		return "Open"
	case CodeSeek:
		return "Seek"
	case CodeRead:
		return "Read"
	case CodeWrite:
		return "Write"
	case CodeSignature:
		return "Signature"
	case CodeVersion:
		return "Version"
	case CodeMagic:
		return "Magic"
	case CodeCrc:
		return "Crc"
	case CodeTrunc:
		return "Trunc"
	case CodeTree:
		return "Tree"
	case CodeFreeList:
		return "FreeList"
	case CodeExists:
		return "Exists"
	case CodeNoExist:
		return "NoExist"
	case CodeNoFree:
		return "NoFree"
	case CodeMaxDepth:
		return "MaxDepth"
	case CodeNotOpen:
		return "NotOpen"
	case CodeType:
		return "Type"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the single error type every zparcel operation returns.
// Op names the operation (e.g. "store", "lookup", "header.read"); Code
// is the taxonomy entry; Err, if non-nil, wraps the underlying cause
// (an I/O error or a lower-level *Error).
type Error struct {
	Op   string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zparcel: %s: %v: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("zparcel: %s: %v", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(op string, code Code, err error) *Error {
	return &Error{Op: op, Code: code, Err: err}
}
