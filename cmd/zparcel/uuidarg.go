// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import "github.com/google/uuid"

// resolveUUID implements the <uuid|"time"|"random"> argument grammar
// of spec.md §6's store subcommand.
func resolveUUID(arg string) (uuid.UUID, error) {
	switch arg {
	case "time":
		return uuid.NewUUID()
	case "random":
		return uuid.NewRandom()
	default:
		return uuid.Parse(arg)
	}
}
