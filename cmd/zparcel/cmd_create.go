// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"go.zparcel.dev/zparcel/lib/zparcel"
)

func init() {
	cmd := subcommand{
		Command: cobra.Command{
			Use:   "create",
			Short: "Format a new parcel file",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		},
		creates: true,
		RunE: func(_ *zparcel.Parcel, cmd *cobra.Command, _ []string) error {
			cmd.Println("OK")
			return nil
		},
	}
	subcommands = append(subcommands, cmd)
}
