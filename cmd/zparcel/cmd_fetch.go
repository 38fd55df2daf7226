// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go.zparcel.dev/zparcel/lib/zparcel"
)

func init() {
	cmd := subcommand{
		Command: cobra.Command{
			Use:   "fetch <uuid>",
			Short: "Write a decoded object to stdout (or to disk, for files)",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
		},
		RunE: func(p *zparcel.Parcel, cmd *cobra.Command, args []string) error {
			id, err := resolveUUID(args[0])
			if err != nil {
				return err
			}
			return fetchTyped(p, cmd, id)
		},
	}
	subcommands = append(subcommands, cmd)
}

func fetchTyped(p *zparcel.Parcel, cmd *cobra.Command, id uuid.UUID) error {
	typ, err := p.GetType(id)
	if err != nil {
		return err
	}
	switch typ {
	case zparcel.TypeNull:
		cmd.Println("null")
	case zparcel.TypeBool:
		v, err := p.FetchBool(id)
		if err != nil {
			return err
		}
		cmd.Println(v)
	case zparcel.TypeUint:
		v, err := p.FetchUint(id)
		if err != nil {
			return err
		}
		cmd.Println(v)
	case zparcel.TypeSint:
		v, err := p.FetchSint(id)
		if err != nil {
			return err
		}
		cmd.Println(v)
	case zparcel.TypeFloat:
		v, err := p.FetchFloat(id)
		if err != nil {
			return err
		}
		cmd.Println(v)
	case zparcel.TypeUUID:
		v, err := p.FetchUUID(id)
		if err != nil {
			return err
		}
		cmd.Println(v)
	case zparcel.TypeBlob:
		v, err := p.FetchBlob(id)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(v)
		return err
	case zparcel.TypeString:
		v, err := p.FetchString(id)
		if err != nil {
			return err
		}
		cmd.Println(v)
	case zparcel.TypeList:
		v, err := p.FetchList(id)
		if err != nil {
			return err
		}
		strs := make([]string, len(v))
		for i, id := range v {
			strs[i] = id.String()
		}
		cmd.Println(strings.Join(strs, ","))
	case zparcel.TypeFile:
		name, stream, err := p.FetchFile(id)
		if err != nil {
			return err
		}
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("refusing to overwrite existing path %q", name)
		}
		out, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.CopyBuffer(out, streamReader{stream}, make([]byte, 64*1024))
		return err
	default:
		return fmt.Errorf("unhandled type %v", typ)
	}
	return nil
}

// streamReader adapts *zparcel.Stream to io.Reader for io.CopyBuffer.
type streamReader struct{ s *zparcel.Stream }

func (r streamReader) Read(p []byte) (int, error) {
	if r.s.Available() == 0 {
		return 0, io.EOF
	}
	return r.s.Read(p)
}
