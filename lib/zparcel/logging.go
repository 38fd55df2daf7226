// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zparcel

import (
	"context"

	"github.com/datawire/dlib/dlog"
)

// debugLogf and errorLogf are the only places lib/zparcel touches
// dlog, so the engine, allocator and tree code (object.go, alloc.go,
// tree.go) can log diagnostic and corruption detail without importing
// dlib themselves.
// Grounded on the teacher's own dlog.Debugf call sites (e.g.
// lib/btrfsprogs/btrfsutil/open.go).
func debugLogf(ctx context.Context, format string, args ...interface{}) {
	dlog.Debugf(ctx, format, args...)
}

func errorLogf(ctx context.Context, format string, args ...interface{}) {
	dlog.Errorf(ctx, format, args...)
}
