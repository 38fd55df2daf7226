// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go.zparcel.dev/zparcel/lib/zparcel"
)

func init() {
	cmd := subcommand{
		Command: cobra.Command{
			Use:   "store <uuid|\"time\"|\"random\"> <type> <value>",
			Short: "Insert a typed object",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(4)),
		},
		RunE: func(p *zparcel.Parcel, cmd *cobra.Command, args []string) error {
			id, err := resolveUUID(args[0])
			if err != nil {
				return err
			}
			if err := storeTyped(p, id, args[1], args[2]); err != nil {
				return err
			}
			cmd.Printf("OK %v\n", id)
			return nil
		},
	}
	subcommands = append(subcommands, cmd)
}

// storeTyped implements the type-keyword table of spec.md §6's store
// subcommand.
func storeTyped(p *zparcel.Parcel, id uuid.UUID, typeKeyword, value string) error {
	switch typeKeyword {
	case "null":
		return p.StoreNull(id)
	case "uint":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		return p.StoreUint(id, v)
	case "int", "sint":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		return p.StoreSint(id, v)
	case "float", "double":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		return p.StoreFloat(id, v)
	case "uid", "uuid", "zuid":
		v, err := uuid.Parse(value)
		if err != nil {
			return err
		}
		return p.StoreUUID(id, v)
	case "bin", "blob", "binary":
		data, err := os.ReadFile(value)
		if err != nil {
			return err
		}
		return p.StoreBlob(id, data)
	case "str", "string":
		return p.StoreString(id, value)
	case "list":
		var items []uuid.UUID
		if value != "" {
			for _, s := range strings.Split(value, ",") {
				v, err := uuid.Parse(s)
				if err != nil {
					return err
				}
				items = append(items, v)
			}
		}
		return p.StoreList(id, items)
	case "file":
		return p.StoreFile(id, value)
	default:
		return fmt.Errorf("unknown type keyword %q", typeKeyword)
	}
}
