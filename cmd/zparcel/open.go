// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"

	"go.zparcel.dev/zparcel/lib/diskio"
	"go.zparcel.dev/zparcel/lib/zparcel"
)

// openForSubcommand opens an existing parcel at path, or formats a
// fresh one there, per the "create" subcommand's special casing in
// spec.md §6.
func openForSubcommand(ctx context.Context, path string, create bool) (*zparcel.Parcel, error) {
	flag := os.O_RDWR
	if create {
		flag |= os.O_CREATE | os.O_EXCL
	}
	dev, err := diskio.OpenOSDevice(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	if create {
		return zparcel.Create(ctx, dev)
	}
	return zparcel.Open(ctx, dev)
}
