// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"strings"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"go.zparcel.dev/zparcel/lib/zparcel"
)

func init() {
	cmd := subcommand{
		Command: cobra.Command{
			Use:   "list",
			Short: "Pre-order dump of the object tree",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		},
		RunE: func(p *zparcel.Parcel, cmd *cobra.Command, _ []string) error {
			entries, err := p.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				cmd.Printf("%s%v %v\n", strings.Repeat("  ", e.Depth), e.UUID, e.Type)
			}
			return nil
		},
	}
	subcommands = append(subcommands, cmd)
}
