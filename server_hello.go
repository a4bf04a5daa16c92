// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/crypto/cryptobyte"
)

// ServerHello is a parsed, read-only view of a ServerHello or
// HelloRetryRequest message (RFC 8446, Section 4.1.3 and 4.1.4).
type ServerHello struct {
	raw          []byte
	sessionIDEnd int
	hrr          bool
	exts         []Extension
}

// ParseServerHello parses a ServerHello given bare, wrapped in a handshake
// header or wrapped in a handshake record (see Unwrap).
func ParseServerHello(buf []byte) (*ServerHello, error) {
	msg, err := unwrapAs(buf, HandshakeTypeServerHello)
	if err != nil {
		return nil, err
	}
	return parseServerHello(msg)
}

func parseServerHello(raw []byte) (*ServerHello, error) {
	if err := checkHelloPrefix(raw); err != nil {
		return nil, err
	}
	sh := &ServerHello{raw: capped(raw)}

	n, _, err := sessionIDBounds.read(raw, randomEnd)
	if err != nil {
		return nil, parseError("legacy_session_id_echo", randomEnd, err)
	}
	sh.sessionIDEnd = randomEnd + 1 + n

	// cipher_suite(2) and legacy_compression_method(1).
	if len(raw) < sh.sessionIDEnd+3 {
		return nil, parseError("cipher_suite", sh.sessionIDEnd, ErrTruncated)
	}
	if m := raw[sh.sessionIDEnd+2]; m != compressionNone {
		return nil, parseError("legacy_compression_method", sh.sessionIDEnd+2, fmt.Errorf("%w: %d", ErrInvalidFixedValue, m))
	}

	// The HelloRetryRequest flag decides how extensions decode, so it is
	// settled before any of them is read.
	sh.hrr = [randomLen]byte(raw[versionEnd:randomEnd]) == helloRetryRequestRandom

	sh.exts, err = parseExtensionBlock(raw, sh.sessionIDEnd+3, serverExtensionsBounds)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (sh *ServerHello) context() HelloContext {
	if sh.hrr {
		return ContextHelloRetryRequest
	}
	return ContextServerHello
}

// Raw returns the bare message.
func (sh *ServerHello) Raw() []byte { return sh.raw }

// Version returns legacy_version, always 0x0303 for a parsed message.
func (sh *ServerHello) Version() uint16 {
	return uint16(sh.raw[0])<<8 | uint16(sh.raw[1])
}

// Random returns the 32-byte random.
func (sh *ServerHello) Random() []byte { return sh.raw[versionEnd:randomEnd:randomEnd] }

// SessionID returns legacy_session_id_echo.
func (sh *ServerHello) SessionID() []byte {
	return sh.raw[randomEnd+1 : sh.sessionIDEnd : sh.sessionIDEnd]
}

// CipherSuite returns the selected cipher suite.
func (sh *ServerHello) CipherSuite() uint16 {
	return uint16(sh.raw[sh.sessionIDEnd])<<8 | uint16(sh.raw[sh.sessionIDEnd+1])
}

// IsHelloRetryRequest reports whether the random is the HelloRetryRequest
// marker value.
func (sh *ServerHello) IsHelloRetryRequest() bool { return sh.hrr }

// Extensions returns the extensions in wire order.
func (sh *ServerHello) Extensions() []Extension {
	return append([]Extension(nil), sh.exts...)
}

// Extension returns the raw extension of type typ.
func (sh *ServerHello) Extension(typ ExtensionType) (Extension, bool) {
	return findExtension(sh.exts, typ)
}

// Decoded decodes the extension of type typ in the ServerHello or
// HelloRetryRequest context, as the random dictates.
func (sh *ServerHello) Decoded(typ ExtensionType) (ExtensionValue, error) {
	return decodeFrom(sh.exts, typ, sh.context())
}

// SelectedVersion returns the version of the supported_versions extension.
func (sh *ServerHello) SelectedVersion() (uint16, error) {
	v, err := decodeAs[*SupportedVersionsServerHello](sh.exts, ExtensionSupportedVersions, sh.context())
	if err != nil {
		return 0, err
	}
	return v.SelectedVersion, nil
}

// KeyShare returns the server's key share. A HelloRetryRequest carries no
// key share; use SelectedGroup.
func (sh *ServerHello) KeyShare() (KeyShareEntry, error) {
	v, err := decodeAs[*KeyShareServerHello](sh.exts, ExtensionKeyShare, sh.context())
	if err != nil {
		return KeyShareEntry{}, err
	}
	return v.Share, nil
}

// SelectedGroup returns the group of the key_share extension, for both a
// ServerHello and a HelloRetryRequest.
func (sh *ServerHello) SelectedGroup() (CurveID, error) {
	v, err := sh.Decoded(ExtensionKeyShare)
	if err != nil {
		return 0, err
	}
	switch ks := v.(type) {
	case *KeyShareServerHello:
		return ks.Share.Group, nil
	case *KeyShareHelloRetryRequest:
		return ks.SelectedGroup, nil
	}
	return 0, decodeError(ExtensionKeyShare, "unexpected %T", v)
}

// Cookie returns the contents of the cookie extension of a HelloRetryRequest.
func (sh *ServerHello) Cookie() ([]byte, error) {
	v, err := decodeAs[*Cookie](sh.exts, ExtensionCookie, sh.context())
	if err != nil {
		return nil, err
	}
	return v.Cookie, nil
}

// SelectedIdentity returns the index of the PSK accepted by the server.
func (sh *ServerHello) SelectedIdentity() (uint16, error) {
	v, err := decodeAs[*PreSharedKeyServerHello](sh.exts, ExtensionPreSharedKey, sh.context())
	if err != nil {
		return 0, err
	}
	return v.SelectedIdentity, nil
}

// ServerHelloFields are the logical contents of a ServerHello.
type ServerHelloFields struct {
	// HelloRetryRequest selects the fixed HelloRetryRequest random.
	HelloRetryRequest bool
	// Random is drawn from the random source when nil, unless
	// HelloRetryRequest is set.
	Random []byte
	// SessionID echoes the client's legacy_session_id verbatim.
	SessionID   []byte
	CipherSuite uint16
	// Extensions in wire order; supported_versions and key_share are required.
	Extensions []ExtensionValue
}

// Fields decodes every extension and returns the message contents.
func (sh *ServerHello) Fields() (ServerHelloFields, error) {
	exts, err := decodeAll(sh.exts, sh.context())
	if err != nil {
		return ServerHelloFields{}, err
	}
	return ServerHelloFields{
		HelloRetryRequest: sh.hrr,
		Random:            sh.Random(),
		SessionID:         sh.SessionID(),
		CipherSuite:       sh.CipherSuite(),
		Extensions:        exts,
	}, nil
}

// BuildServerHello serializes fields into a new message buffer and returns
// the parsed view of it. rand supplies the random when needed; a nil rand
// means crypto/rand.
//
// The key_share extension must have the shape matching the message kind:
// *KeyShareHelloRetryRequest for a HelloRetryRequest, *KeyShareServerHello
// otherwise.
func BuildServerHello(fields ServerHelloFields, rand io.Reader) (*ServerHello, error) {
	random := fields.Random
	if fields.HelloRetryRequest {
		if random != nil && !bytes.Equal(random, helloRetryRequestRandom[:]) {
			return nil, fmt.Errorf("%w: HelloRetryRequest with a non-marker random", ErrInvalidFixedValue)
		}
		random = helloRetryRequestRandom[:]
	}
	random, err := helloRandom(random, rand)
	if err != nil {
		return nil, err
	}
	if !fields.HelloRetryRequest && [randomLen]byte(random) == helloRetryRequestRandom {
		return nil, fmt.Errorf("%w: ServerHello random equals the HelloRetryRequest marker", ErrInvalidFixedValue)
	}
	if err := sessionIDBounds.check("legacy_session_id_echo", len(fields.SessionID)); err != nil {
		return nil, err
	}
	if err := checkServerExtensions(fields.Extensions, fields.HelloRetryRequest); err != nil {
		return nil, err
	}
	block, err := encodeExtensionBlock(fields.Extensions, serverExtensionsBounds)
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, randomEnd+1+len(fields.SessionID)+3+len(block)))
	b.AddUint16(legacyVersion)
	b.AddBytes(random)
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(fields.SessionID)
	})
	b.AddUint16(fields.CipherSuite)
	b.AddUint8(compressionNone)
	b.AddBytes(block)
	raw, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return parseServerHello(raw)
}

func checkServerExtensions(values []ExtensionValue, hrr bool) error {
	var haveVersions, haveKeyShare bool
	for _, v := range values {
		switch v := v.(type) {
		case *SupportedVersionsServerHello:
			haveVersions = true
		case *KeyShareServerHello:
			if hrr {
				return fmt.Errorf("%w: key_share with a key in a HelloRetryRequest", ErrInvalidFixedValue)
			}
			haveKeyShare = true
		case *KeyShareHelloRetryRequest:
			if !hrr {
				return fmt.Errorf("%w: group-only key_share in a ServerHello", ErrInvalidFixedValue)
			}
			haveKeyShare = true
		case *SupportedVersionsClientHello, *KeyShareClientHello, *PreSharedKey:
			return fmt.Errorf("%w: ClientHello form of %s", ErrInvalidFixedValue, v.ExtensionType())
		}
	}
	if !haveVersions {
		return fmt.Errorf("%w: %s", ErrMissingExtension, ExtensionSupportedVersions)
	}
	if !haveKeyShare {
		return fmt.Errorf("%w: %s", ErrMissingExtension, ExtensionKeyShare)
	}
	return nil
}

// ToHandshake returns the message with a handshake header.
func (sh *ServerHello) ToHandshake() []byte {
	return appendHandshake(make([]byte, 0, handshakeHeaderLen+len(sh.raw)), HandshakeTypeServerHello, sh.raw)
}

// ToRecord returns the message as a handshake record with record version
// 0x0303, as servers send it.
func (sh *ServerHello) ToRecord() ([]byte, error) {
	return ToRecord(sh.ToHandshake(), ContentTypeHandshake, VersionTLS12)
}
