// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseServerHelloRFC8448(t *testing.T) {
	raw := decodeHex(t, rfc8448ServerHello)
	sh, err := ParseServerHello(raw)
	if err != nil {
		t.Fatal(err)
	}
	if sh.IsHelloRetryRequest() {
		t.Fatal("ServerHello detected as HelloRetryRequest")
	}
	if sh.Version() != VersionTLS12 {
		t.Errorf("legacy_version 0x%04x", sh.Version())
	}
	if !bytes.Equal(sh.Random(), raw[2:34]) {
		t.Errorf("random %x", sh.Random())
	}
	if len(sh.SessionID()) != 0 {
		t.Errorf("session id %x", sh.SessionID())
	}
	if sh.CipherSuite() != TLS_AES_128_GCM_SHA256 {
		t.Errorf("cipher suite 0x%04x", sh.CipherSuite())
	}
	v, err := sh.SelectedVersion()
	if err != nil || v != VersionTLS13 {
		t.Errorf("selected version 0x%04x, %v", v, err)
	}
	ks, err := sh.KeyShare()
	if err != nil || ks.Group != X25519 || len(ks.KeyExchange) != 32 || ks.KeyExchange[0] != 0xc9 {
		t.Errorf("key share %v, %v", ks, err)
	}
	group, err := sh.SelectedGroup()
	if err != nil || group != X25519 {
		t.Errorf("selected group %v, %v", group, err)
	}
	if _, err := sh.Cookie(); !errors.Is(err, ErrMissingExtension) {
		t.Errorf("Cookie: expected ErrMissingExtension, got %v", err)
	}
	if got := sh.Fingerprint().JA4S; got != "t130200_1301_234ea6891581" {
		t.Errorf("JA4S = %s", got)
	}
	if got := sh.Fingerprint().JA4Sr; got != "t130200_1301_0033,002b" {
		t.Errorf("JA4S_r = %s", got)
	}

	record, err := sh.ToRecord()
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x16, 0x03, 0x03, 0x00, 0x5a, 0x02, 0x00, 0x00, 0x56}; !bytes.Equal(record[:9], want) {
		t.Errorf("record header %x, want %x", record[:9], want)
	}
}

func TestServerHelloFieldsRoundTrip(t *testing.T) {
	sh, err := ParseServerHello(decodeHex(t, rfc8448ServerHello))
	if err != nil {
		t.Fatal(err)
	}
	fields, err := sh.Fields()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fields.Extensions[0].(*KeyShareServerHello); !ok {
		t.Fatalf("first extension decoded as %T", fields.Extensions[0])
	}
	rebuilt, err := BuildServerHello(fields, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rebuilt.Raw(), sh.Raw()) {
		t.Errorf("rebuilt message differs\n got %x\nwant %x", rebuilt.Raw(), sh.Raw())
	}
}

func buildHelloRetryRequest(t *testing.T) *ServerHello {
	t.Helper()
	hrr, err := BuildServerHello(ServerHelloFields{
		HelloRetryRequest: true,
		SessionID:         []byte{1, 2, 3},
		CipherSuite:       TLS_AES_128_GCM_SHA256,
		Extensions: []ExtensionValue{
			&KeyShareHelloRetryRequest{SelectedGroup: CurveP256},
			&Cookie{Cookie: []byte("state")},
			&SupportedVersionsServerHello{SelectedVersion: VersionTLS13},
		},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return hrr
}

func TestHelloRetryRequest(t *testing.T) {
	hrr := buildHelloRetryRequest(t)
	if !hrr.IsHelloRetryRequest() {
		t.Fatal("not flagged as HelloRetryRequest")
	}
	want := HelloRetryRequestRandom()
	if !bytes.Equal(hrr.Random(), want[:]) {
		t.Errorf("random %x", hrr.Random())
	}

	parsed, err := ParseServerHello(hrr.ToHandshake())
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.IsHelloRetryRequest() {
		t.Fatal("parsed message not flagged as HelloRetryRequest")
	}
	group, err := parsed.SelectedGroup()
	if err != nil || group != CurveP256 {
		t.Errorf("selected group %v, %v", group, err)
	}
	cookie, err := parsed.Cookie()
	if err != nil || string(cookie) != "state" {
		t.Errorf("cookie %q, %v", cookie, err)
	}
	if _, err := parsed.KeyShare(); !errors.Is(err, ErrExtensionDecode) {
		t.Errorf("KeyShare of a HelloRetryRequest: expected ErrExtensionDecode, got %v", err)
	}
	if got := parsed.Fingerprint().JA4S; got[:8] != "t130300_" {
		t.Errorf("JA4S = %s", got)
	}
}

// A single flipped bit in the random turns a HelloRetryRequest into a
// ServerHello, and the group-only key_share no longer decodes.
func TestHelloRetryRequestRandomBitFlip(t *testing.T) {
	raw := bytes.Clone(buildHelloRetryRequest(t).Raw())
	raw[versionEnd+randomLen-1] ^= 0x01

	sh, err := ParseServerHello(raw)
	if err != nil {
		t.Fatalf("structural parse failed: %v", err)
	}
	if sh.IsHelloRetryRequest() {
		t.Fatal("flipped random still flagged as HelloRetryRequest")
	}
	if _, err := sh.KeyShare(); !errors.Is(err, ErrExtensionDecode) {
		t.Errorf("expected ErrExtensionDecode, got %v", err)
	}
}

func TestParseServerHelloErrors(t *testing.T) {
	const tail = "0006 002b 0002 0304"
	tests := []struct {
		name    string
		hex     string
		wantErr error
	}{
		{"legacy version", "0304" + helloPrefix[4:] + "00 1301 00" + tail, ErrInvalidFixedValue},
		{"truncated cipher suite", helloPrefix + "00 13", ErrTruncated},
		{"compression method", helloPrefix + "00 1301 01" + tail, ErrInvalidFixedValue},
		{"session id too long", helloPrefix + "21" + "00", ErrLengthOutOfRange},
		{"missing extensions", helloPrefix + "00 1301 00", ErrTruncated},
		{"trailing bytes", helloPrefix + "00 1301 00" + tail + "ff", ErrLengthOutOfRange},
		{"duplicate extension", helloPrefix + "00 1301 00 000c 002b 0002 0304 002b 0002 0304", ErrDuplicateExtension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServerHello(decodeHex(t, tt.hex))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("expected a *ParseError, got %T", err)
			}
		})
	}

	sh, err := ParseServerHello(decodeHex(t, helloPrefix+"00 1301 00 0000"))
	if err != nil {
		t.Fatalf("empty extensions block rejected: %v", err)
	}
	if _, err := sh.SelectedVersion(); !errors.Is(err, ErrMissingExtension) {
		t.Errorf("expected ErrMissingExtension, got %v", err)
	}

	ch := mustParseClientHello(t, rfc8448ClientHello)
	if _, err := ParseServerHello(ch.ToHandshake()); !errors.Is(err, ErrInvalidFixedValue) {
		t.Errorf("ClientHello handshake: expected ErrInvalidFixedValue, got %v", err)
	}
}

func TestBuildServerHelloErrors(t *testing.T) {
	hrrRandom := HelloRetryRequestRandom()
	versions := &SupportedVersionsServerHello{SelectedVersion: VersionTLS13}
	share := &KeyShareServerHello{Share: KeyShareEntry{Group: X25519, KeyExchange: make([]byte, 32)}}
	tests := []struct {
		name    string
		fields  ServerHelloFields
		wantErr error
	}{
		{"hrr with other random", ServerHelloFields{
			HelloRetryRequest: true,
			Random:            make([]byte, 32),
			Extensions:        []ExtensionValue{&KeyShareHelloRetryRequest{SelectedGroup: X25519}, versions},
		}, ErrInvalidFixedValue},
		{"server hello with hrr random", ServerHelloFields{
			Random:     hrrRandom[:],
			Extensions: []ExtensionValue{share, versions},
		}, ErrInvalidFixedValue},
		{"missing supported_versions", ServerHelloFields{
			Extensions: []ExtensionValue{share},
		}, ErrMissingExtension},
		{"missing key_share", ServerHelloFields{
			Extensions: []ExtensionValue{versions},
		}, ErrMissingExtension},
		{"key in hrr", ServerHelloFields{
			HelloRetryRequest: true,
			Extensions:        []ExtensionValue{share, versions},
		}, ErrInvalidFixedValue},
		{"group-only key_share in server hello", ServerHelloFields{
			Extensions: []ExtensionValue{&KeyShareHelloRetryRequest{SelectedGroup: X25519}, versions},
		}, ErrInvalidFixedValue},
		{"client form of supported_versions", ServerHelloFields{
			Extensions: []ExtensionValue{share, &SupportedVersionsClientHello{Versions: []uint16{VersionTLS13}}},
		}, ErrInvalidFixedValue},
		{"session id too long", ServerHelloFields{
			SessionID:  make([]byte, 33),
			Extensions: []ExtensionValue{share, versions},
		}, ErrLengthOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildServerHello(tt.fields, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
