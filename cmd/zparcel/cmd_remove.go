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
			Use:   "remove <uuid>",
			Short: "Tombstone an object and reclaim its storage",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
		},
		RunE: func(p *zparcel.Parcel, cmd *cobra.Command, args []string) error {
			id, err := resolveUUID(args[0])
			if err != nil {
				return err
			}
			if err := p.Remove(id); err != nil {
				return err
			}
			cmd.Println("OK")
			return nil
		},
	}
	subcommands = append(subcommands, cmd)
}
