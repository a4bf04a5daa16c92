// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	helloerrors "github.com/mar1xlatino/tlshello/errors"
	"github.com/mar1xlatino/tlshello/profiles"
)

func runBuild(e *env, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	configPath := fs.String("config", "", "TOML preferences file")
	profileID := fs.String("profile", "", "profile id (see hellotool profiles)")
	sni := fs.String("sni", "", "server name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := loadPrefs(*configPath)
	if err != nil {
		return err
	}
	if *profileID != "" {
		p.profile = *profileID
	}
	if *sni != "" {
		p.sni = *sni
	}

	profile, ok := profiles.Lookup(p.profile)
	if !ok {
		return helloerrors.New("unknown profile ", strconv.Quote(p.profile)).AtError()
	}
	cfg := profile.Config(p.sni)
	if cfg.Rand == nil {
		cfg.Rand = e.rand
	}
	ch, _, err := cfg.Build()
	if err != nil {
		return err
	}
	record, err := ch.ToRecord()
	if err != nil {
		return err
	}
	fp := ch.Fingerprint()
	e.log.Info().Str("profile", profile.ID).Str("ja3", fp.JA3).Str("ja4", fp.JA4).Int("length", len(ch.Raw())).Msg("built ClientHello")
	fmt.Fprintln(e.stdout, hex.EncodeToString(record))
	return nil
}

func runProfiles(e *env, args []string) error {
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBROWSER\tVERSION\tPLATFORM\tJA4")
	for _, id := range profiles.IDs() {
		p, _ := profiles.Lookup(id)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.ID, p.Browser, p.Version, p.Platform, p.Expected.JA4)
	}
	return w.Flush()
}
