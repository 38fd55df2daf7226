// Copyright (C) 2024  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"math/rand"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go.zparcel.dev/zparcel/lib/zparcel"
)

const selfTestCount = 100

func init() {
	cmd := subcommand{
		Command: cobra.Command{
			Use:   "test",
			Short: "Store and fetch 100 random strings as a smoke test",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		},
		RunE: func(p *zparcel.Parcel, cmd *cobra.Command, args []string) error {
			return runSelfTest(p, cmd)
		},
	}
	subcommands = append(subcommands, cmd)
}

func runSelfTest(p *zparcel.Parcel, cmd *cobra.Command) error {
	rng := rand.New(rand.NewSource(1))
	want := make(map[uuid.UUID]string, selfTestCount)
	for i := 0; i < selfTestCount; i++ {
		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		str := randomString(rng, 1+rng.Intn(64))
		if err := p.StoreString(id, str); err != nil {
			return err
		}
		want[id] = str
	}
	for id, str := range want {
		got, err := p.FetchString(id)
		if err != nil {
			return err
		}
		if got != str {
			return fmt.Errorf("mismatch for %v: stored %q, fetched %q", id, str, got)
		}
	}
	cmd.Printf("OK %d objects round-tripped\n", len(want))
	return nil
}

func randomString(rng *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}
