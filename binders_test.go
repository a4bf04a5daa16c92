// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"testing"
)

// The resumption ClientHello of RFC 8448, Section 4, handshake-framed and
// truncated before the binders list.
const rfc8448ResumptionPartial = `
01 00 01 fc 03 03 1b c3 ce b6 bb e3 9c ff 93 83 55 b5 a5 0a db 6d b2 1b 7a 6a
f6 49 d7 b4 bc 41 9d 78 76 48 7d 95 00 00 06 13 01 13 03 13 02 01 00 01 cd 00
00 00 0b 00 09 00 00 06 73 65 72 76 65 72 ff 01 00 01 00 00 0a 00 14 00 12 00
1d 00 17 00 18 00 19 01 00 01 01 01 02 01 03 01 04 00 33 00 26 00 24 00 1d 00
20 e4 ff b6 8a c0 5f 8d 96 c9 9d a2 66 98 34 6c 6b e1 64 82 ba dd da fe 05 1a
66 b4 f1 8d 66 8f 0b 00 2a 00 00 00 2b 00 03 02 03 04 00 0d 00 20 00 1e 04 03
05 03 06 03 02 03 08 04 08 05 08 06 04 01 05 01 06 01 02 01 04 02 05 02 06 02
02 02 00 2d 00 02 01 01 00 1c 00 02 40 01 00 15 00 57 00 00 00 00 00 00 00 00
00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00
00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00
00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00 00
00 00 29 00 dd 00 b8 00 b2 2c 03 5d 82 93 59 ee 5f f7 af 4e c9 00 00 00 00 26
2a 64 94 dc 48 6d 2c 8a 34 cb 33 fa 90 bf 1b 00 70 ad 3c 49 88 83 c9 36 7c 09
a2 be 78 5a bc 55 cd 22 60 97 a3 a9 82 11 72 83 f8 2a 03 a1 43 ef d3 ff 5d d3
6d 64 e8 61 be 7f d6 1d 28 27 db 27 9c ce 14 50 77 d4 54 a3 66 4d 4e 6d a4 d2
9e e0 37 25 a6 a4 da fc d0 fc 67 d2 ae a7 05 29 51 3e 3d a2 67 7f a5 90 6c 5b
3f 7d 8f 92 f2 28 bd a4 0d da 72 14 70 f9 fb f2 97 b5 ae a6 17 64 6f ac 5c 03
27 2e 97 07 27 c6 21 a7 91 41 ef 5f 7d e6 50 5e 5b fb c3 88 e9 33 43 69 40 93
93 4a e4 d3 57 fa d6 aa cb`

const (
	rfc8448Binder        = "3add4fb2d8fdf822a0ca3cf7678ef5e88dae990141c5924d57bb6fa31b9e5f9d"
	rfc8448ResumptionPSK = "4ecd0eb6ec3b4d87f5d6028f922ca4c5851a277fd41311c9e62d2c9492e1c4f3"
)

// rfc8448Resumption returns the complete handshake-framed resumption
// ClientHello and the same message without its binders.
func rfc8448Resumption(t *testing.T) (full []byte, unbound *ClientHello) {
	t.Helper()
	full = append(decodeHex(t, rfc8448ResumptionPartial), 0x00, 0x21, 0x20)
	full = append(full, decodeHex(t, rfc8448Binder)...)
	if len(full) != 512 {
		t.Fatalf("resumption ClientHello is %d bytes", len(full))
	}

	ch, err := ParseClientHello(full)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := ch.Fields()
	if err != nil {
		t.Fatal(err)
	}
	last := fields.Extensions[len(fields.Extensions)-1]
	psk, ok := last.(*PreSharedKey)
	if !ok {
		t.Fatalf("last extension decoded as %T", last)
	}
	psk.Binders = nil
	unbound, err = BuildClientHello(fields, nil)
	if err != nil {
		t.Fatal(err)
	}
	return full, unbound
}

func TestPSKBinderTranscriptRFC8448(t *testing.T) {
	full, unbound := rfc8448Resumption(t)

	offset, err := unbound.BinderInsertionOffset()
	if err != nil {
		t.Fatal(err)
	}
	if offset != len(unbound.Raw()) {
		t.Errorf("insertion offset %d, message is %d bytes", offset, len(unbound.Raw()))
	}

	transcript, err := unbound.PSKBinderTranscript(2 + 1 + 32)
	if err != nil {
		t.Fatal(err)
	}
	if want := decodeHex(t, rfc8448ResumptionPartial); !bytes.Equal(transcript, want) {
		t.Errorf("transcript mismatch\n got %x\nwant %x", transcript, want)
	}
	if !bytes.Equal(transcript, full[:len(transcript)]) {
		t.Error("transcript is not a prefix of the complete message")
	}
}

func TestSignPSKBindersRFC8448(t *testing.T) {
	full, unbound := rfc8448Resumption(t)
	psk := decodeHex(t, rfc8448ResumptionPSK)

	signed, err := SignPSKBinders(unbound, []PSKBinder{NewResumptionBinder(sha256.New, psk)})
	if err != nil {
		t.Fatal(err)
	}
	if got := signed.ToHandshake(); !bytes.Equal(got, full) {
		t.Errorf("signed ClientHello mismatch\n got %x\nwant %x", got, full)
	}
	ext, err := signed.PreSharedKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(ext.Binders) != 1 || !bytes.Equal(ext.Binders[0], decodeHex(t, rfc8448Binder)) {
		t.Errorf("binders %x", ext.Binders)
	}

	// An external PSK with the same secret uses a different label.
	external, err := SignPSKBinders(unbound, []PSKBinder{NewExternalBinder(sha256.New, psk)})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(external.Raw(), signed.Raw()) {
		t.Error("external binder equals resumption binder")
	}
}

// extensionsBlockLength reads the length field in front of the first
// extension.
func extensionsBlockLength(t *testing.T, ch *ClientHello) int {
	t.Helper()
	exts := ch.Extensions()
	if len(exts) == 0 {
		t.Fatal("no extensions")
	}
	raw := ch.Raw()
	at := exts[0].Offset - 2
	n := int(raw[at])<<8 | int(raw[at+1])
	if at+2+n != len(raw) {
		t.Fatalf("extensions block of %d bytes at %d does not end the %d-byte message", n, at, len(raw))
	}
	return n
}

func TestAddBinders(t *testing.T) {
	full, unbound := rfc8448Resumption(t)
	before := bytes.Clone(unbound.Raw())

	binders, err := EncodePSKBinders([][]byte{decodeHex(t, rfc8448Binder)})
	if err != nil {
		t.Fatal(err)
	}
	if len(binders) != 35 || binders[0] != 0 || binders[1] != 33 || binders[2] != 32 {
		t.Fatalf("encoded binders %x", binders)
	}
	offsetBefore, err := unbound.BinderInsertionOffset()
	if err != nil {
		t.Fatal(err)
	}
	bound, err := unbound.AddBinders(binders)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(unbound.Raw(), before) {
		t.Error("AddBinders modified the receiver")
	}
	if !bytes.Equal(bound.Raw(), full[4:]) {
		t.Errorf("bound message differs from RFC 8448\n got %x\nwant %x", bound.Raw(), full[4:])
	}

	// Both the pre_shared_key length and the extensions block length grow.
	if got, want := extensionsBlockLength(t, unbound), 426; got != want {
		t.Errorf("unbound extensions block %d, want %d", got, want)
	}
	if got, want := extensionsBlockLength(t, bound), 426+35; got != want {
		t.Errorf("bound extensions block %d, want %d", got, want)
	}
	ext, ok := bound.Extension(ExtensionPreSharedKey)
	if !ok {
		t.Fatal("pre_shared_key missing")
	}
	unboundExt, _ := unbound.Extension(ExtensionPreSharedKey)
	if len(unboundExt.Data) != 186 || len(ext.Data) != 186+35 {
		t.Errorf("pre_shared_key length %d -> %d, want 186 -> 221", len(unboundExt.Data), len(ext.Data))
	}

	// The insertion point does not move.
	offsetAfter, err := bound.BinderInsertionOffset()
	if err != nil {
		t.Fatal(err)
	}
	if offsetBefore != 473 || offsetAfter != offsetBefore || offsetBefore != len(before) {
		t.Errorf("binder offset %d before, %d after; want 473 and %d", offsetBefore, offsetAfter, len(before))
	}

	if _, err := bound.AddBinders(binders); !errors.Is(err, ErrInvalidFixedValue) {
		t.Errorf("second AddBinders: expected ErrInvalidFixedValue, got %v", err)
	}
}

func TestPSKBinderErrors(t *testing.T) {
	ch := mustParseClientHello(t, rfc8448ClientHello)
	if _, err := ch.BinderInsertionOffset(); !errors.Is(err, ErrMissingExtension) {
		t.Errorf("BinderInsertionOffset: expected ErrMissingExtension, got %v", err)
	}
	if _, err := ch.PSKBinderTranscript(35); !errors.Is(err, ErrMissingExtension) {
		t.Errorf("PSKBinderTranscript: expected ErrMissingExtension, got %v", err)
	}

	_, unbound := rfc8448Resumption(t)
	binder := NewResumptionBinder(sha256.New, make([]byte, 32))
	if _, err := SignPSKBinders(unbound, []PSKBinder{binder, binder}); !errors.Is(err, ErrLengthOutOfRange) {
		t.Errorf("two binders for one identity: expected ErrLengthOutOfRange, got %v", err)
	}
	short := PSKBinder{Size: 32, Compute: func([]byte) ([]byte, error) { return make([]byte, 16), nil }}
	if _, err := SignPSKBinders(unbound, []PSKBinder{short}); !errors.Is(err, ErrLengthOutOfRange) {
		t.Errorf("short binder: expected ErrLengthOutOfRange, got %v", err)
	}
	failed := errors.New("hsm unavailable")
	broken := PSKBinder{Size: 32, Compute: func([]byte) ([]byte, error) { return nil, failed }}
	if _, err := SignPSKBinders(unbound, []PSKBinder{broken}); !errors.Is(err, failed) {
		t.Errorf("expected the compute error, got %v", err)
	}

	if _, err := EncodePSKBinders(nil); !errors.Is(err, ErrLengthOutOfRange) {
		t.Errorf("no binders: expected ErrLengthOutOfRange, got %v", err)
	}
	if _, err := EncodePSKBinders([][]byte{make([]byte, 31)}); !errors.Is(err, ErrLengthOutOfRange) {
		t.Errorf("31-byte binder: expected ErrLengthOutOfRange, got %v", err)
	}
}

func TestConfigPreSharedKeyIsLast(t *testing.T) {
	cfg := DefaultClientHelloConfig()
	cfg.ServerNames = []string{"example.com"}
	cfg.PreSharedKey = []PSKIdentity{{Identity: []byte("ticket"), ObfuscatedTicketAge: 42}}
	cfg.PaddingStyle = BoringPaddingStyle
	ch, _, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	exts := ch.Extensions()
	if last := exts[len(exts)-1]; last.Type != ExtensionPreSharedKey {
		t.Fatalf("last extension is %s", last.Type)
	}
	signed, err := SignPSKBinders(ch, []PSKBinder{NewResumptionBinder(sha256.New, make([]byte, 32))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseClientHello(signed.Raw()); err != nil {
		t.Errorf("signed hello does not parse: %v", err)
	}
}
