// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"hash/fnv"

	"github.com/mar1xlatino/tlshello"
	helloerrors "github.com/mar1xlatino/tlshello/errors"
)

func runRespond(e *env, args []string) error {
	fs := flag.NewFlagSet("respond", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	configPath := fs.String("config", "", "TOML preferences file")
	in := fs.String("in", "", "ClientHello input file (default: stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := loadPrefs(*configPath)
	if err != nil {
		return err
	}
	data, err := readInput(e, *in)
	if err != nil {
		return err
	}
	ch, err := tlshello.ParseClientHello(data)
	if err != nil {
		return helloerrors.New("input is not a ClientHello").Base(err).AtError()
	}

	ctx := helloerrors.ContextWithID(context.Background(), exchangeID(ch))
	cfg := p.negotiation
	cfg.Rand = e.rand
	sh, priv, err := tlshello.ServerHelloFromClientHelloContext(ctx, ch, cfg)
	if errors.Is(err, tlshello.ErrNegotiationFailed) {
		// A well-formed ClientHello this server cannot answer.
		return helloerrors.New("no ServerHello for this ClientHello").Base(err).AtWarning()
	}
	if err != nil {
		return err
	}
	record, err := sh.ToRecord()
	if err != nil {
		return err
	}

	fmt.Fprintln(e.stdout, hex.EncodeToString(record))
	fmt.Fprintf(e.stdout, "hello_retry_request: %t\n", sh.IsHelloRetryRequest())
	fmt.Fprintf(e.stdout, "cipher_suite: 0x%04x\n", sh.CipherSuite())
	if sh.IsHelloRetryRequest() {
		group, err := sh.SelectedGroup()
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "requested_group: %s\n", group)
		e.log.Info().Stringer("group", group).Msg("sent HelloRetryRequest")
		return nil
	}
	fmt.Fprintf(e.stdout, "group: %s\n", priv.Group)
	e.log.Info().Stringer("group", priv.Group).Str("ja4s", sh.Fingerprint().JA4S).Msg("negotiated ServerHello")
	return nil
}

// exchangeID derives a log ID from the client random.
func exchangeID(ch *tlshello.ClientHello) helloerrors.ID {
	h := fnv.New32a()
	h.Write(ch.Random())
	return helloerrors.ID(binary.BigEndian.Uint32(h.Sum(nil)) | 1)
}
