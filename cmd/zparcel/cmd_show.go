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
			Use:   "show <uuid>",
			Short: "Print human-readable metadata for an object",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
		},
		RunE: func(p *zparcel.Parcel, cmd *cobra.Command, args []string) error {
			id, err := resolveUUID(args[0])
			if err != nil {
				return err
			}
			d, err := p.Describe(id)
			if err != nil {
				return err
			}
			cmd.Printf("uuid:  %v\n", d.UUID)
			cmd.Printf("type:  %v\n", d.Type)
			cmd.Printf("size:  %d\n", d.Size)
			cmd.Printf("extra: %d\n", d.Extra)
			return nil
		},
	}
	subcommands = append(subcommands, cmd)
}
