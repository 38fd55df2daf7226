// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command zparcel is the reference CLI driver for the ZParcel object
// store: `zparcel <file> <subcommand> [args...]`.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.zparcel.dev/zparcel/lib/zparcel"
)

type logLevelFlag struct {
	logrus.Level
}

func (lvl *logLevelFlag) Type() string { return "loglevel" }
func (lvl *logLevelFlag) Set(str string) error {
	var err error
	lvl.Level, err = logrus.ParseLevel(str)
	return err
}

var _ pflag.Value = (*logLevelFlag)(nil)

// subcommand pairs a cobra.Command with a handler that receives the
// already-open (or freshly-created) parcel, following the teacher's
// cmd/btrfs-rec subcommand{cobra.Command; RunE} shape, generalized
// from an *btrfs.FS to a *zparcel.Parcel.
type subcommand struct {
	cobra.Command
	// creates is true for the "create" subcommand, which formats a
	// new file instead of opening an existing one.
	creates bool
	RunE    func(p *zparcel.Parcel, cmd *cobra.Command, args []string) error
}

var subcommands []subcommand

// zparcel's reference CLI puts the file path before the subcommand
// name (`zparcel <file> <subcommand> [args...]`), which doesn't match
// cobra's args[0]-is-the-subcommand-name dispatch. Rather than hand
// roll dispatch, swap the first two arguments before handing them to
// cobra, so `zparcel foo.parcel store ...` is parsed exactly as
// `zparcel store foo.parcel ...` would be; each subcommand's own Args
// validator counts the file path as its first positional argument,
// and the wrapper installed in main strips it off before calling the
// subcommand's handler with the remaining arguments.
func reorderArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}
	out := make([]string, len(argv))
	copy(out, argv)
	out[0], out[1] = out[1], out[0]
	return out
}

func main() {
	logLevel := logLevelFlag{Level: logrus.WarnLevel}

	argparser := &cobra.Command{
		Use:   "zparcel <file> <subcommand> [args...]",
		Short: "Read and write ZParcel single-file object stores",

		Args: cliutil.WrapPositionalArgs(cliutil.OnlySubcommands),
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true,
		SilenceUsage:  true,

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.PersistentFlags().Var(&logLevel, "verbosity", "set the verbosity")

	for i := range subcommands {
		child := subcommands[i]
		cmd := child.Command
		runE := child.RunE
		creates := child.creates
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetLevel(logLevel.Level)
			ctx := dlog.WithLogger(cmd.Context(), dlog.WrapLogrus(logger))
			cmd.SetContext(ctx)

			if len(args) < 1 {
				return fmt.Errorf("missing parcel file path")
			}
			path := args[0]
			rest := args[1:]

			p, err := openForSubcommand(ctx, path, creates)
			if err != nil {
				return err
			}
			defer p.Close()

			return runE(p, cmd, rest)
		}
		argparser.AddCommand(&cmd)
	}

	argparser.SetArgs(reorderArgs(os.Args[1:]))
	if err := argparser.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL - %v\n", err)
		os.Exit(1)
	}
}
