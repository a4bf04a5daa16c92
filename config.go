// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"maps"
	"slices"

	helloerrors "github.com/mar1xlatino/tlshello/errors"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/curve25519"
)

// ClientHelloConfig describes a ClientHello to build. The zero value builds
// a minimal hello; DefaultClientHelloConfig returns the usual TLS 1.3
// offer.
//
// Extensions whose field is empty are left out. The ExtensionOrder field
// fixes the wire order and may also list extensions that carry no
// configuration of their own (extended_master_secret, session_ticket,
// renegotiation_info and the like); those get their conventional empty
// payloads, or the payload from RawExtensions.
type ClientHelloConfig struct {
	// Rand supplies the random, the session id and the key material.
	// Default: crypto/rand.
	Rand io.Reader
	// KeyShares generates the key shares. Default: DefaultKeyShareGenerator.
	KeyShares KeyShareGenerator

	// Random is drawn from Rand when nil.
	Random []byte
	// SessionID is sent as is. When nil, SessionIDLength random bytes are
	// sent instead.
	SessionID       []byte
	SessionIDLength int

	// CipherSuites in preference order. Default: DefaultCipherSuites.
	CipherSuites []uint16

	// ServerNames are normalized with NormalizeSNI and validated.
	ServerNames       []string
	SupportedGroups   []CurveID
	KeyShareGroups    []CurveID
	SignatureSchemes  []SignatureScheme
	SupportedVersions []uint16
	PSKModes          []uint8
	ALPNProtocols     []string
	// CertCompressionAlgos fills compress_certificate (RFC 8879).
	CertCompressionAlgos []uint16
	RecordSizeLimit      uint16
	EarlyData            bool
	Cookie               []byte
	// PreSharedKey offers these identities in a pre_shared_key extension
	// without binders. Attach them with SignPSKBinders.
	PreSharedKey []PSKIdentity

	// ExtensionOrder is the wire order of the extensions. When nil the
	// order is that of defaultExtensionOrder followed by RawExtensions in
	// ascending type order. pre_shared_key must come last.
	ExtensionOrder []ExtensionType
	// RawExtensions holds opaque payloads by type. A payload here replaces
	// the one built from the fields above.
	RawExtensions map[ExtensionType][]byte
	// PaddingStyle sizes the padding extension from the length of the
	// unpadded handshake message. It is used when ExtensionOrder lists
	// padding, and also appends padding when ExtensionOrder is nil.
	PaddingStyle func(unpaddedLen int) (int, bool)
}

// DefaultClientHelloConfig returns a config offering TLS 1.3 with the
// three mandatory AEAD suites, the X25519 and NIST groups plus X448, key
// shares for X25519 and P-256, and psk_dhe_ke.
func DefaultClientHelloConfig() *ClientHelloConfig {
	return &ClientHelloConfig{
		CipherSuites:    slices.Clone(DefaultCipherSuites),
		SupportedGroups: []CurveID{X25519, CurveP256, CurveP384, CurveP521, X448},
		KeyShareGroups:  []CurveID{X25519, CurveP256},
		SignatureSchemes: []SignatureScheme{
			ECDSAWithP256AndSHA256,
			ECDSAWithP384AndSHA384,
			PSSWithSHA256,
			PSSWithSHA384,
			Ed25519,
			Ed448,
			PSSPSSWithSHA256,
			PSSPSSWithSHA384,
		},
		SupportedVersions: []uint16{VersionTLS13},
		PSKModes:          []uint8{PSKModeDHE},
	}
}

var defaultExtensionOrder = []ExtensionType{
	ExtensionServerName,
	ExtensionSupportedGroups,
	ExtensionSignatureAlgorithms,
	ExtensionALPN,
	ExtensionRecordSizeLimit,
	ExtensionCompressCertificate,
	ExtensionSupportedVersions,
	ExtensionCookie,
	ExtensionPSKKeyExchangeModes,
	ExtensionKeyShare,
	ExtensionEarlyData,
}

// Clone returns a copy of c that shares no slices or maps with it.
func (c *ClientHelloConfig) Clone() *ClientHelloConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Random = slices.Clone(c.Random)
	clone.SessionID = slices.Clone(c.SessionID)
	clone.CipherSuites = slices.Clone(c.CipherSuites)
	clone.ServerNames = slices.Clone(c.ServerNames)
	clone.SupportedGroups = slices.Clone(c.SupportedGroups)
	clone.KeyShareGroups = slices.Clone(c.KeyShareGroups)
	clone.SignatureSchemes = slices.Clone(c.SignatureSchemes)
	clone.SupportedVersions = slices.Clone(c.SupportedVersions)
	clone.PSKModes = slices.Clone(c.PSKModes)
	clone.ALPNProtocols = slices.Clone(c.ALPNProtocols)
	clone.CertCompressionAlgos = slices.Clone(c.CertCompressionAlgos)
	clone.Cookie = slices.Clone(c.Cookie)
	clone.PreSharedKey = slices.Clone(c.PreSharedKey)
	clone.ExtensionOrder = slices.Clone(c.ExtensionOrder)
	clone.RawExtensions = maps.Clone(c.RawExtensions)
	return &clone
}

// ConfigError reports one invalid ClientHelloConfig field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "tlshello: invalid config " + e.Field + ": " + e.Reason
}

// Validate checks the config for values the wire format or RFC 8446 does
// not allow. Every problem is reported; match them with errors.As on
// *ConfigError.
func (c *ClientHelloConfig) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if c.Random != nil && len(c.Random) != randomLen {
		bad("Random", "must be %d bytes, got %d", randomLen, len(c.Random))
	}
	if len(c.SessionID) > sessionIDBounds.max {
		bad("SessionID", "longer than %d bytes", sessionIDBounds.max)
	}
	if c.SessionIDLength < 0 || c.SessionIDLength > sessionIDBounds.max {
		bad("SessionIDLength", "must be in [0, %d]", sessionIDBounds.max)
	}
	if c.SessionID != nil && c.SessionIDLength != 0 {
		bad("SessionIDLength", "set together with SessionID")
	}
	if c.CipherSuites != nil && len(c.CipherSuites) == 0 {
		bad("CipherSuites", "empty")
	}
	for _, name := range c.ServerNames {
		if err := ValidateSNI(NormalizeSNI(name)); err != nil {
			bad("ServerNames", "%v", err)
		}
	}
	for i, group := range c.KeyShareGroups {
		if slices.Contains(c.KeyShareGroups[:i], group) {
			bad("KeyShareGroups", "duplicate group %s", group)
		}
		if c.SupportedGroups != nil && !slices.Contains(c.SupportedGroups, group) {
			bad("KeyShareGroups", "%s is not in SupportedGroups", group)
		}
	}
	if c.RecordSizeLimit != 0 && c.RecordSizeLimit < minRecordSizeLimit {
		bad("RecordSizeLimit", "below %d", minRecordSizeLimit)
	}
	if c.EarlyData && len(c.PreSharedKey) == 0 {
		bad("EarlyData", "requires PreSharedKey")
	}
	if len(c.PreSharedKey) > 0 && len(c.PSKModes) == 0 {
		bad("PreSharedKey", "requires PSKModes")
	}
	for i, typ := range c.ExtensionOrder {
		if slices.Contains(c.ExtensionOrder[:i], typ) {
			bad("ExtensionOrder", "duplicate %s", typ)
		}
		if typ == ExtensionPreSharedKey && i != len(c.ExtensionOrder)-1 {
			bad("ExtensionOrder", "%s must be last", typ)
		}
		if _, ok := c.RawExtensions[typ]; !ok && !buildable(typ) {
			bad("ExtensionOrder", "no payload for %s", typ)
		}
	}
	if len(c.PreSharedKey) > 0 && c.ExtensionOrder != nil && !slices.Contains(c.ExtensionOrder, ExtensionPreSharedKey) {
		bad("ExtensionOrder", "PreSharedKey set but %s not listed", ExtensionPreSharedKey)
	}
	return helloerrors.Combine(errs...)
}

// buildable reports whether ClientHelloConfig can produce extension typ.
func buildable(typ ExtensionType) bool {
	if slices.Contains(defaultExtensionOrder, typ) {
		return true
	}
	switch typ {
	case ExtensionPreSharedKey, ExtensionPadding, ExtensionEncryptedClientHello:
		return true
	}
	_, ok := fixedExtensionData[typ]
	return ok
}

// fixedExtensionData are the payloads clients send for extensions that
// carry no negotiable content.
var fixedExtensionData = map[ExtensionType][]byte{
	ExtensionStatusRequest:        {1, 0, 0, 0, 0}, // ocsp, no responder ids or extensions
	ExtensionECPointFormats:       {1, 0},          // uncompressed
	ExtensionSCT:                  {},
	ExtensionExtendedMasterSecret: {},
	ExtensionSessionTicket:        {},
	ExtensionPostHandshakeAuth:    {},
	ExtensionRenegotiationInfo:    {0},
}

// Build validates the config, generates the key shares and builds the
// ClientHello. The private key shares are returned in KeyShareGroups order.
func (c *ClientHelloConfig) Build() (*ClientHello, []*PrivateKeyShare, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	r := c.Rand
	if r == nil {
		r = rand.Reader
	}
	gen := c.KeyShares
	if gen == nil {
		gen = DefaultKeyShareGenerator{}
	}

	privs := make([]*PrivateKeyShare, 0, len(c.KeyShareGroups))
	for _, group := range c.KeyShareGroups {
		priv, err := gen.GenerateKeyShare(group, r)
		if err != nil {
			return nil, nil, err
		}
		privs = append(privs, priv)
	}

	sessionID := c.SessionID
	if sessionID == nil && c.SessionIDLength > 0 {
		sessionID = make([]byte, c.SessionIDLength)
		if _, err := io.ReadFull(r, sessionID); err != nil {
			return nil, nil, fmt.Errorf("tlshello: reading session id: %w", err)
		}
	}
	random, err := helloRandom(c.Random, r)
	if err != nil {
		return nil, nil, err
	}

	values, err := c.extensions(privs, r)
	if err != nil {
		return nil, nil, err
	}
	fields := ClientHelloFields{
		Random:       random,
		SessionID:    sessionID,
		CipherSuites: c.CipherSuites,
		Extensions:   values,
	}
	ch, err := BuildClientHello(fields, r)
	if err != nil {
		return nil, nil, err
	}

	if i := slices.IndexFunc(values, isPadding); i >= 0 && c.PaddingStyle != nil {
		// The empty padding extension contributes its 4-byte header.
		n, ok := c.PaddingStyle(len(ch.ToHandshake()) - 4)
		if ok && n > 0 {
			values[i] = &Padding{Data: make([]byte, n)}
			if ch, err = BuildClientHello(fields, r); err != nil {
				return nil, nil, err
			}
		}
	}
	if helloerrors.DebugLoggingEnabled {
		helloerrors.LogDebug(context.Background(), "build: ClientHello of ", len(ch.Raw()), " bytes with ", len(values), " extensions")
	}
	return ch, privs, nil
}

func isPadding(v ExtensionValue) bool {
	return v.ExtensionType() == ExtensionPadding
}

func (c *ClientHelloConfig) extensions(privs []*PrivateKeyShare, r io.Reader) ([]ExtensionValue, error) {
	order := c.ExtensionOrder
	if order == nil {
		order = slices.Clone(defaultExtensionOrder)
		for _, typ := range slices.Sorted(maps.Keys(c.RawExtensions)) {
			if !slices.Contains(order, typ) {
				order = append(order, typ)
			}
		}
		if c.PaddingStyle != nil && !slices.Contains(order, ExtensionPadding) {
			order = append(order, ExtensionPadding)
		}
		if len(c.PreSharedKey) > 0 {
			order = append(order, ExtensionPreSharedKey)
		}
	}

	values := make([]ExtensionValue, 0, len(order))
	for _, typ := range order {
		if data, ok := c.RawExtensions[typ]; ok {
			values = append(values, &UnknownExtension{Type: typ, Data: data})
			continue
		}
		v, err := c.extension(typ, privs, r)
		if err != nil {
			return nil, err
		}
		if v != nil {
			values = append(values, v)
		}
	}
	return values, nil
}

// extension builds the extension typ from the config. It returns nil when
// the corresponding field is empty.
func (c *ClientHelloConfig) extension(typ ExtensionType, privs []*PrivateKeyShare, r io.Reader) (ExtensionValue, error) {
	switch typ {
	case ExtensionServerName:
		if len(c.ServerNames) == 0 {
			return nil, nil
		}
		list := &ServerNameList{}
		for _, name := range c.ServerNames {
			list.Names = append(list.Names, ServerName{NameType: nameTypeHostName, Name: []byte(NormalizeSNI(name))})
		}
		return list, nil
	case ExtensionSupportedGroups:
		if len(c.SupportedGroups) == 0 {
			return nil, nil
		}
		return &SupportedGroups{Groups: c.SupportedGroups}, nil
	case ExtensionSignatureAlgorithms:
		if len(c.SignatureSchemes) == 0 {
			return nil, nil
		}
		return &SignatureAlgorithms{Schemes: c.SignatureSchemes}, nil
	case ExtensionALPN:
		if len(c.ALPNProtocols) == 0 {
			return nil, nil
		}
		return &ALPN{Protocols: c.ALPNProtocols}, nil
	case ExtensionRecordSizeLimit:
		if c.RecordSizeLimit == 0 {
			return nil, nil
		}
		return &RecordSizeLimit{Limit: c.RecordSizeLimit}, nil
	case ExtensionCompressCertificate:
		if len(c.CertCompressionAlgos) == 0 {
			return nil, nil
		}
		b := cryptobyte.NewBuilder(nil)
		b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
			for _, algo := range c.CertCompressionAlgos {
				b.AddUint16(algo)
			}
		})
		data, err := b.Bytes()
		if err != nil {
			return nil, err
		}
		return &UnknownExtension{Type: typ, Data: data}, nil
	case ExtensionSupportedVersions:
		if len(c.SupportedVersions) == 0 {
			return nil, nil
		}
		return &SupportedVersionsClientHello{Versions: c.SupportedVersions}, nil
	case ExtensionCookie:
		if len(c.Cookie) == 0 {
			return nil, nil
		}
		return &Cookie{Cookie: c.Cookie}, nil
	case ExtensionPSKKeyExchangeModes:
		if len(c.PSKModes) == 0 {
			return nil, nil
		}
		return &PSKKeyExchangeModes{Modes: c.PSKModes}, nil
	case ExtensionKeyShare:
		if c.KeyShareGroups == nil {
			return nil, nil
		}
		ks := &KeyShareClientHello{Shares: make([]KeyShareEntry, len(privs))}
		for i, priv := range privs {
			ks.Shares[i] = priv.Entry()
		}
		return ks, nil
	case ExtensionEarlyData:
		if !c.EarlyData {
			return nil, nil
		}
		return &EarlyData{}, nil
	case ExtensionPreSharedKey:
		if len(c.PreSharedKey) == 0 {
			return nil, nil
		}
		return &PreSharedKey{Identities: c.PreSharedKey}, nil
	case ExtensionPadding:
		return &Padding{}, nil
	case ExtensionEncryptedClientHello:
		return greaseECH(r)
	}
	if data, ok := fixedExtensionData[typ]; ok {
		return &UnknownExtension{Type: typ, Data: data}, nil
	}
	return nil, fmt.Errorf("%w: no payload for %s", ErrMissingExtension, typ)
}

// GREASE ECH parameters: HKDF-SHA256 and AES-128-GCM, as BoringSSL sends.
const (
	echOuterType      = 0
	echKDFHKDFSHA256  = 0x0001
	echAEADAES128GCM  = 0x0001
	echAEADTagLen     = 16
	echPayloadBaseLen = 128
)

// greaseECH returns an encrypted_client_hello extension shaped like a real
// outer ECH offer (draft-ietf-tls-esni, Section 6.2) with random contents.
func greaseECH(r io.Reader) (ExtensionValue, error) {
	// config_id, a payload length selector and the X25519 scalar.
	var seed [2 + curve25519.ScalarSize]byte
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return nil, fmt.Errorf("tlshello: generating GREASE ECH: %w", err)
	}
	enc, err := curve25519.X25519(seed[2:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, echPayloadBaseLen+32*int(seed[1]%4)+echAEADTagLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("tlshello: generating GREASE ECH: %w", err)
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddUint8(echOuterType)
	b.AddUint16(echKDFHKDFSHA256)
	b.AddUint16(echAEADAES128GCM)
	b.AddUint8(seed[0])
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(enc)
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(payload)
	})
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return &UnknownExtension{Type: ExtensionEncryptedClientHello, Data: data}, nil
}

// BoringPaddingStyle pads hellos whose handshake message is between 256
// and 511 bytes to 512 bytes, working around middleboxes that hang on
// those lengths.
// https://github.com/google/boringssl/blob/7d7554b6b3c79e707e25521e61e066ce2b996e4c/ssl/t1_lib.c#L2803
func BoringPaddingStyle(unpaddedLen int) (int, bool) {
	if unpaddedLen > 0xff && unpaddedLen < 0x200 {
		paddingLen := 0x200 - unpaddedLen
		if paddingLen >= 4+1 {
			paddingLen -= 4
		} else {
			paddingLen = 1
		}
		return paddingLen, true
	}
	return 0, false
}
