// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

var errorKinds = []error{
	ErrTruncated,
	ErrLengthOutOfRange,
	ErrInvalidFixedValue,
	ErrDuplicateExtension,
	ErrExtensionDecode,
	ErrMissingExtension,
	ErrUnrecognizedFraming,
	ErrNegotiationFailed,
}

func matchingKinds(err error) []error {
	var kinds []error
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func TestErrorKinds(t *testing.T) {
	compressed := decodeHex(t, rfc8448ServerHello)
	compressed[37] = 1

	tests := []struct {
		name string
		want error
		run  func() error
	}{
		{"truncated ClientHello", ErrTruncated, func() error {
			_, err := ParseClientHello(decodeHex(t, rfc8448ClientHello)[:40])
			return err
		}},
		{"ServerHello compression", ErrInvalidFixedValue, func() error {
			_, err := ParseServerHello(compressed)
			return err
		}},
		{"extension payload", ErrExtensionDecode, func() error {
			_, err := DecodeExtension(ExtensionSupportedGroups, []byte{0, 1, 0}, ContextClientHello)
			return err
		}},
		{"binders without pre_shared_key", ErrMissingExtension, func() error {
			_, err := mustParseClientHello(t, rfc8448ClientHello).AddBinders([]byte{0, 33, 32})
			return err
		}},
		{"framing", ErrUnrecognizedFraming, func() error {
			_, err := Unwrap([]byte{0x17, 0x03, 0x03, 0x00, 0x01, 0x00})
			return err
		}},
		{"negotiation", ErrNegotiationFailed, func() error {
			cfg := DefaultNegotiationConfig()
			cfg.CipherSuites = []uint16{0x1304}
			_, _, err := ServerHelloFromClientHello(mustParseClientHello(t, rfc8448ClientHello), cfg)
			return err
		}},
		{"short random", ErrLengthOutOfRange, func() error {
			_, err := BuildClientHello(ClientHelloFields{
				Random:       make([]byte, 31),
				CipherSuites: []uint16{TLS_AES_128_GCM_SHA256},
				Extensions:   []ExtensionValue{&SupportedVersionsClientHello{Versions: []uint16{VersionTLS13}}},
			}, nil)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			kinds := matchingKinds(err)
			if len(kinds) != 1 || kinds[0] != tt.want {
				t.Errorf("%v matches %v, want only %v", err, kinds, tt.want)
			}
		})
	}
}

func TestErrorsOutsideKinds(t *testing.T) {
	_, err := BuildClientHello(ClientHelloFields{
		CipherSuites: []uint16{TLS_AES_128_GCM_SHA256},
		Extensions: []ExtensionValue{
			&SupportedGroups{Groups: []CurveID{X25519}},
			&SupportedVersionsClientHello{Versions: []uint16{VersionTLS13}},
		},
	}, bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected the random source error, got %v", err)
	}
	if kinds := matchingKinds(err); len(kinds) != 0 {
		t.Errorf("random source error matches %v", kinds)
	}

	cfg := DefaultClientHelloConfig()
	cfg.RecordSizeLimit = 1
	err = cfg.Validate()
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a ConfigError, got %v", err)
	}
	if kinds := matchingKinds(err); len(kinds) != 0 {
		t.Errorf("config error matches %v", kinds)
	}
}
