// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/cryptobyte"
)

// Fixed offsets shared by both hellos.
const (
	versionEnd = 2
	randomEnd  = versionEnd + randomLen
)

// ClientHello is a parsed, read-only view of a ClientHello message
// (RFC 8446, Section 4.1.2).
//
// All byte slices returned by its methods are sub-slices of the bare
// message buffer, capacity-capped so that appending to them cannot touch the
// buffer. The caller must not modify the buffer while the view is in use.
type ClientHello struct {
	raw []byte

	// End offsets of the variable-length fields, computed once at parse.
	sessionIDEnd    int
	cipherSuitesEnd int
	compressionEnd  int

	exts []Extension
}

// ParseClientHello parses a ClientHello given bare, wrapped in a handshake
// header or wrapped in a handshake record (see Unwrap).
//
// The whole structure is validated eagerly: fixed values, every vector
// length, the extension block boundaries and extension uniqueness.
// Extension payloads are decoded on access.
func ParseClientHello(buf []byte) (*ClientHello, error) {
	msg, err := unwrapAs(buf, HandshakeTypeClientHello)
	if err != nil {
		return nil, err
	}
	return parseClientHello(msg)
}

func parseClientHello(raw []byte) (*ClientHello, error) {
	if err := checkHelloPrefix(raw); err != nil {
		return nil, err
	}
	ch := &ClientHello{raw: capped(raw)}

	n, _, err := sessionIDBounds.read(raw, randomEnd)
	if err != nil {
		return nil, parseError("legacy_session_id", randomEnd, err)
	}
	ch.sessionIDEnd = randomEnd + 1 + n

	n, _, err = cipherSuitesBounds.read(raw, ch.sessionIDEnd)
	if err != nil {
		return nil, parseError("cipher_suites", ch.sessionIDEnd, err)
	}
	if n%2 != 0 {
		return nil, parseError("cipher_suites", ch.sessionIDEnd, fmt.Errorf("%w: odd length %d", ErrLengthOutOfRange, n))
	}
	ch.cipherSuitesEnd = ch.sessionIDEnd + 2 + n

	n, methods, err := compressionBounds.read(raw, ch.cipherSuitesEnd)
	if err != nil {
		return nil, parseError("legacy_compression_methods", ch.cipherSuitesEnd, err)
	}
	if methods[0] != compressionNone {
		return nil, parseError("legacy_compression_methods", ch.cipherSuitesEnd+1, ErrInvalidFixedValue)
	}
	ch.compressionEnd = ch.cipherSuitesEnd + 1 + n

	ch.exts, err = parseExtensionBlock(raw, ch.compressionEnd, clientExtensionsBounds)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// checkHelloPrefix validates legacy_version and the presence of random.
func checkHelloPrefix(raw []byte) error {
	if len(raw) < versionEnd {
		return parseError("legacy_version", 0, ErrTruncated)
	}
	if v := uint16(raw[0])<<8 | uint16(raw[1]); v != legacyVersion {
		return parseError("legacy_version", 0, fmt.Errorf("%w: 0x%04x", ErrInvalidFixedValue, v))
	}
	if len(raw) < randomEnd {
		return parseError("random", versionEnd, ErrTruncated)
	}
	return nil
}

// parseExtensionBlock reads the extensions vector at offset, which must end
// exactly at the end of raw, and splits it into extensions.
func parseExtensionBlock(raw []byte, offset int, bounds vectorBounds) ([]Extension, error) {
	n, block, err := bounds.read(raw, offset)
	if err != nil {
		return nil, parseError("extensions", offset, err)
	}
	if end := offset + 2 + n; end != len(raw) {
		return nil, parseError("extensions", offset, fmt.Errorf("%w: %d bytes after extensions", ErrLengthOutOfRange, len(raw)-end))
	}

	var exts []Extension
	pos := offset + 2
	s := cryptobyte.String(block)
	for !s.Empty() {
		var typ uint16
		var data cryptobyte.String
		if !s.ReadUint16(&typ) || !s.ReadUint16LengthPrefixed(&data) {
			return nil, parseError("extension", pos, ErrTruncated)
		}
		for _, prev := range exts {
			if prev.Type == ExtensionType(typ) {
				return nil, parseError(ExtensionType(typ).String(), pos, ErrDuplicateExtension)
			}
		}
		exts = append(exts, Extension{Type: ExtensionType(typ), Data: capped(data), Offset: pos})
		pos += 4 + len(data)
	}
	return exts, nil
}

func findExtension(exts []Extension, typ ExtensionType) (Extension, bool) {
	for _, e := range exts {
		if e.Type == typ {
			return e, true
		}
	}
	return Extension{}, false
}

func decodeFrom(exts []Extension, typ ExtensionType, ctx HelloContext) (ExtensionValue, error) {
	e, ok := findExtension(exts, typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingExtension, typ)
	}
	return DecodeExtension(typ, e.Data, ctx)
}

// decodeAs decodes extension typ and asserts its variant.
func decodeAs[T ExtensionValue](exts []Extension, typ ExtensionType, ctx HelloContext) (T, error) {
	var zero T
	v, err := decodeFrom(exts, typ, ctx)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, decodeError(typ, "unexpected %T in %s", v, ctx)
	}
	return t, nil
}

// Raw returns the bare message.
func (ch *ClientHello) Raw() []byte { return ch.raw }

// Version returns legacy_version, always 0x0303 for a parsed message.
func (ch *ClientHello) Version() uint16 {
	return uint16(ch.raw[0])<<8 | uint16(ch.raw[1])
}

// Random returns the 32-byte random.
func (ch *ClientHello) Random() []byte { return ch.raw[versionEnd:randomEnd:randomEnd] }

// SessionID returns legacy_session_id.
func (ch *ClientHello) SessionID() []byte {
	return ch.raw[randomEnd+1 : ch.sessionIDEnd : ch.sessionIDEnd]
}

// CipherSuites returns the offered cipher suites in wire order, duplicates
// included.
func (ch *ClientHello) CipherSuites() []uint16 {
	s := cryptobyte.String(ch.raw[ch.sessionIDEnd+2 : ch.cipherSuitesEnd])
	suites := make([]uint16, 0, len(s)/2)
	for !s.Empty() {
		var suite uint16
		s.ReadUint16(&suite)
		suites = append(suites, suite)
	}
	return suites
}

// CompressionMethods returns legacy_compression_methods, always [0].
func (ch *ClientHello) CompressionMethods() []byte {
	return ch.raw[ch.cipherSuitesEnd+1 : ch.compressionEnd : ch.compressionEnd]
}

// Extensions returns the extensions in wire order.
func (ch *ClientHello) Extensions() []Extension {
	return append([]Extension(nil), ch.exts...)
}

// Extension returns the raw extension of type typ.
func (ch *ClientHello) Extension(typ ExtensionType) (Extension, bool) {
	return findExtension(ch.exts, typ)
}

// Decoded decodes the extension of type typ. It returns ErrMissingExtension
// when the extension is absent.
func (ch *ClientHello) Decoded(typ ExtensionType) (ExtensionValue, error) {
	return decodeFrom(ch.exts, typ, ContextClientHello)
}

// SupportedVersions returns the versions of the supported_versions extension.
func (ch *ClientHello) SupportedVersions() ([]uint16, error) {
	v, err := decodeAs[*SupportedVersionsClientHello](ch.exts, ExtensionSupportedVersions, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.Versions, nil
}

// SupportedGroups returns the groups of the supported_groups extension.
func (ch *ClientHello) SupportedGroups() ([]CurveID, error) {
	v, err := decodeAs[*SupportedGroups](ch.exts, ExtensionSupportedGroups, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.Groups, nil
}

// KeyShares returns the entries of the key_share extension.
func (ch *ClientHello) KeyShares() ([]KeyShareEntry, error) {
	v, err := decodeAs[*KeyShareClientHello](ch.exts, ExtensionKeyShare, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.Shares, nil
}

// SignatureAlgorithms returns the schemes of the signature_algorithms extension.
func (ch *ClientHello) SignatureAlgorithms() ([]SignatureScheme, error) {
	v, err := decodeAs[*SignatureAlgorithms](ch.exts, ExtensionSignatureAlgorithms, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.Schemes, nil
}

// ServerNames returns the host names of the server_name extension. An empty
// extension yields an empty list.
func (ch *ClientHello) ServerNames() ([]string, error) {
	v, err := decodeAs[*ServerNameList](ch.exts, ExtensionServerName, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.HostNames(), nil
}

// PSKModes returns the modes of the psk_key_exchange_modes extension.
func (ch *ClientHello) PSKModes() ([]uint8, error) {
	v, err := decodeAs[*PSKKeyExchangeModes](ch.exts, ExtensionPSKKeyExchangeModes, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.Modes, nil
}

// Cookie returns the contents of the cookie extension.
func (ch *ClientHello) Cookie() ([]byte, error) {
	v, err := decodeAs[*Cookie](ch.exts, ExtensionCookie, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.Cookie, nil
}

// RecordSizeLimit returns the value of the record_size_limit extension.
func (ch *ClientHello) RecordSizeLimit() (uint16, error) {
	v, err := decodeAs[*RecordSizeLimit](ch.exts, ExtensionRecordSizeLimit, ContextClientHello)
	if err != nil {
		return 0, err
	}
	return v.Limit, nil
}

// HasEarlyData reports whether the early_data extension is present.
func (ch *ClientHello) HasEarlyData() bool {
	_, ok := ch.Extension(ExtensionEarlyData)
	return ok
}

// PreSharedKey decodes the pre_shared_key extension.
func (ch *ClientHello) PreSharedKey() (*PreSharedKey, error) {
	return decodeAs[*PreSharedKey](ch.exts, ExtensionPreSharedKey, ContextClientHello)
}

// ALPNProtocols returns the protocols of the ALPN extension.
func (ch *ClientHello) ALPNProtocols() ([]string, error) {
	v, err := decodeAs[*ALPN](ch.exts, ExtensionALPN, ContextClientHello)
	if err != nil {
		return nil, err
	}
	return v.Protocols, nil
}

// ClientHelloFields are the logical contents of a ClientHello. The fixed
// legacy_version and compression methods are implied.
type ClientHelloFields struct {
	// Random is drawn from the random source when nil.
	Random       []byte
	SessionID    []byte
	CipherSuites []uint16
	// Extensions in wire order.
	Extensions []ExtensionValue
}

// Fields decodes every extension and returns the message contents.
func (ch *ClientHello) Fields() (ClientHelloFields, error) {
	f := ClientHelloFields{
		Random:       ch.Random(),
		SessionID:    ch.SessionID(),
		CipherSuites: ch.CipherSuites(),
	}
	exts, err := decodeAll(ch.exts, ContextClientHello)
	if err != nil {
		return ClientHelloFields{}, err
	}
	f.Extensions = exts
	return f, nil
}

func decodeAll(exts []Extension, ctx HelloContext) ([]ExtensionValue, error) {
	values := make([]ExtensionValue, 0, len(exts))
	for _, e := range exts {
		v, err := DecodeExtension(e.Type, e.Data, ctx)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// DefaultCipherSuites are the TLS 1.3 suites offered when none are given.
var DefaultCipherSuites = []uint16{
	TLS_AES_128_GCM_SHA256,
	TLS_AES_256_GCM_SHA384,
	TLS_CHACHA20_POLY1305_SHA256,
}

// BuildClientHello serializes fields into a new message buffer and returns
// the parsed view of it. rand supplies the random when fields.Random is nil;
// a nil rand means crypto/rand.
//
// A nil CipherSuites means DefaultCipherSuites. Invalid lengths and
// duplicate extension types are rejected before anything is written.
func BuildClientHello(fields ClientHelloFields, rand io.Reader) (*ClientHello, error) {
	random, err := helloRandom(fields.Random, rand)
	if err != nil {
		return nil, err
	}
	if err := sessionIDBounds.check("legacy_session_id", len(fields.SessionID)); err != nil {
		return nil, err
	}
	suites := fields.CipherSuites
	if suites == nil {
		suites = DefaultCipherSuites
	}
	if err := cipherSuitesBounds.check("cipher_suites", 2*len(suites)); err != nil {
		return nil, err
	}
	block, err := encodeExtensionBlock(fields.Extensions, clientExtensionsBounds)
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, randomEnd+1+len(fields.SessionID)+2+2*len(suites)+2+len(block)))
	b.AddUint16(legacyVersion)
	b.AddBytes(random)
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(fields.SessionID)
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, suite := range suites {
			b.AddUint16(suite)
		}
	})
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddUint8(compressionNone)
	})
	b.AddBytes(block)
	raw, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return parseClientHello(raw)
}

// helloRandom returns random, or 32 fresh bytes from r when random is nil.
func helloRandom(random []byte, r io.Reader) ([]byte, error) {
	if random != nil {
		if len(random) != randomLen {
			return nil, fmt.Errorf("%w: random of %d bytes", ErrLengthOutOfRange, len(random))
		}
		return random, nil
	}
	if r == nil {
		r = rand.Reader
	}
	random = make([]byte, randomLen)
	if _, err := io.ReadFull(r, random); err != nil {
		return nil, fmt.Errorf("tlshello: reading random: %w", err)
	}
	return random, nil
}

// encodeExtensionBlock encodes values as a length-prefixed extensions block.
func encodeExtensionBlock(values []ExtensionValue, bounds vectorBounds) ([]byte, error) {
	var encoded [][]byte
	seen := make(map[ExtensionType]bool, len(values))
	for _, v := range values {
		if v == nil {
			return nil, fmt.Errorf("%w: nil extension", ErrInvalidFixedValue)
		}
		typ := v.ExtensionType()
		if seen[typ] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateExtension, typ)
		}
		seen[typ] = true
		ext, err := EncodeExtension(v)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, ext)
	}
	return WriteVector(bounds.width, bounds.min, bounds.max, encoded...)
}

// ToHandshake returns the message with a handshake header.
func (ch *ClientHello) ToHandshake() []byte {
	return appendHandshake(make([]byte, 0, handshakeHeaderLen+len(ch.raw)), HandshakeTypeClientHello, ch.raw)
}

// ToRecord returns the message as a handshake record with the legacy record
// version 0x0301. It fails when the message does not fit a single record.
func (ch *ClientHello) ToRecord() ([]byte, error) {
	return ToRecord(ch.ToHandshake(), ContentTypeHandshake, VersionTLS10)
}
