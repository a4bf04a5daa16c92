// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tlshello encodes, decodes and negotiates TLS 1.3 ClientHello and
// ServerHello messages (RFC 8446, Section 4.1.2 and 4.1.3).
//
// Parsed messages are read-only views over the caller's buffer: field
// boundaries are validated once at parse time and accessors return
// sub-slices of that buffer. Building a message or patching its binders
// always produces a fresh buffer.
package tlshello

import "fmt"

const (
	VersionTLS10 = 0x0301
	VersionTLS11 = 0x0302
	VersionTLS12 = 0x0303
	VersionTLS13 = 0x0304
)

// VersionName returns the name for the provided TLS version number
// (e.g. "TLS 1.3"), or a fallback representation of the value.
func VersionName(version uint16) string {
	switch version {
	case VersionTLS10:
		return "TLS 1.0"
	case VersionTLS11:
		return "TLS 1.1"
	case VersionTLS12:
		return "TLS 1.2"
	case VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("0x%04X", version)
	}
}

const (
	legacyVersion       = VersionTLS12 // legacy_version of every TLS 1.3 hello
	randomLen           = 32
	recordHeaderLen     = 5     // record header length
	handshakeHeaderLen  = 4     // handshake header length
	maxPlaintext        = 16384 // maximum plaintext payload length
	maxHandshakeLen     = 1<<24 - 1
	compressionNone     = 0
	defaultRecordLegacy = VersionTLS10
)

// ContentType is a TLS record content type.
type ContentType uint8

const (
	ContentTypeChangeCipherSpec ContentType = 20
	ContentTypeAlert            ContentType = 21
	ContentTypeHandshake        ContentType = 22
	ContentTypeApplicationData  ContentType = 23
)

// HandshakeType is a TLS handshake message type.
type HandshakeType uint8

const (
	HandshakeTypeClientHello HandshakeType = 1
	HandshakeTypeServerHello HandshakeType = 2
	typeMessageHash          HandshakeType = 254 // synthetic message
)

func (t HandshakeType) String() string {
	switch t {
	case HandshakeTypeClientHello:
		return "client_hello"
	case HandshakeTypeServerHello:
		return "server_hello"
	case typeMessageHash:
		return "message_hash"
	}
	return fmt.Sprintf("handshake(%d)", uint8(t))
}

// TLS 1.3 cipher suites. See RFC 8446, Appendix B.4.
const (
	TLS_AES_128_GCM_SHA256       uint16 = 0x1301
	TLS_AES_256_GCM_SHA384       uint16 = 0x1302
	TLS_CHACHA20_POLY1305_SHA256 uint16 = 0x1303
	TLS_AES_128_CCM_SHA256       uint16 = 0x1304
	TLS_AES_128_CCM_8_SHA256     uint16 = 0x1305
)

// CurveID is the type of a TLS identifier for a key exchange mechanism.
// In TLS 1.3 this registry is called NamedGroup, see RFC 8446, Section 4.2.7.
type CurveID uint16

const (
	CurveP256      CurveID = 23
	CurveP384      CurveID = 24
	CurveP521      CurveID = 25
	X25519         CurveID = 29
	X448           CurveID = 30
	FFDHE2048      CurveID = 256
	FFDHE3072      CurveID = 257
	X25519MLKEM768 CurveID = 4588
)

func (c CurveID) String() string {
	switch c {
	case CurveP256:
		return "secp256r1"
	case CurveP384:
		return "secp384r1"
	case CurveP521:
		return "secp521r1"
	case X25519:
		return "x25519"
	case X448:
		return "x448"
	case FFDHE2048:
		return "ffdhe2048"
	case FFDHE3072:
		return "ffdhe3072"
	case X25519MLKEM768:
		return "X25519MLKEM768"
	}
	if isGREASEValue(uint16(c)) {
		return "GREASE"
	}
	return fmt.Sprintf("CurveID(%d)", uint16(c))
}

// SignatureScheme identifies a signature algorithm supported by TLS. See
// RFC 8446, Section 4.2.3.
type SignatureScheme uint16

const (
	// RSASSA-PKCS1-v1_5 algorithms.
	PKCS1WithSHA256 SignatureScheme = 0x0401
	PKCS1WithSHA384 SignatureScheme = 0x0501
	PKCS1WithSHA512 SignatureScheme = 0x0601

	// RSASSA-PSS algorithms with public key OID rsaEncryption.
	PSSWithSHA256 SignatureScheme = 0x0804
	PSSWithSHA384 SignatureScheme = 0x0805
	PSSWithSHA512 SignatureScheme = 0x0806

	// RSASSA-PSS algorithms with public key OID RSASSA-PSS.
	PSSPSSWithSHA256 SignatureScheme = 0x0809
	PSSPSSWithSHA384 SignatureScheme = 0x080a
	PSSPSSWithSHA512 SignatureScheme = 0x080b

	// ECDSA algorithms. Only constrained to a specific curve in TLS 1.3.
	ECDSAWithP256AndSHA256 SignatureScheme = 0x0403
	ECDSAWithP384AndSHA384 SignatureScheme = 0x0503
	ECDSAWithP521AndSHA512 SignatureScheme = 0x0603

	// EdDSA algorithms.
	Ed25519 SignatureScheme = 0x0807
	Ed448   SignatureScheme = 0x0808

	// Legacy signature and hash algorithms for TLS 1.2.
	PKCS1WithSHA1 SignatureScheme = 0x0201
	ECDSAWithSHA1 SignatureScheme = 0x0203
)

// PSK key exchange modes. See RFC 8446, Section 4.2.9.
const (
	PSKModePlain uint8 = 0
	PSKModeDHE   uint8 = 1
)

// helloRetryRequestRandom is set as the Random value of a ServerHello
// to signal that the message is actually a HelloRetryRequest.
var helloRetryRequestRandom = [randomLen]byte{ // See RFC 8446, Section 4.1.3.
	0xCF, 0x21, 0xAD, 0x74, 0xE5, 0x9A, 0x61, 0x11,
	0xBE, 0x1D, 0x8C, 0x02, 0x1E, 0x65, 0xB8, 0x91,
	0xC2, 0xA2, 0x11, 0x16, 0x7A, 0xBB, 0x8C, 0x5E,
	0x07, 0x9E, 0x09, 0xE2, 0xC8, 0xA8, 0x33, 0x9C,
}

// HelloRetryRequestRandom returns the fixed Random value that marks a
// ServerHello as a HelloRetryRequest.
func HelloRetryRequestRandom() [32]byte {
	return helloRetryRequestRandom
}

// isGREASEValue checks if a value is a GREASE placeholder (0x?a?a pattern).
// See RFC 8701.
func isGREASEValue(v uint16) bool {
	return (v&0x0f0f) == 0x0a0a && (v>>8) == (v&0xff)
}
