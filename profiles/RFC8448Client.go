// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profiles

import "github.com/mar1xlatino/tlshello"

// RFC8448Client is the client of the RFC 8448 "Simple 1-RTT Handshake"
// trace. Built with the trace's random and X25519 key it reproduces the
// trace's ClientHello byte for byte.
var RFC8448Client = &Profile{
	ID:          "rfc8448_client",
	Browser:     "reference",
	Version:     8448,
	Platform:    "rfc",
	Description: "Client of RFC 8448, Section 3",

	ClientHello: tlshello.ClientHelloConfig{
		CipherSuites: []uint16{
			tlshello.TLS_AES_128_GCM_SHA256,
			tlshello.TLS_CHACHA20_POLY1305_SHA256,
			tlshello.TLS_AES_256_GCM_SHA384,
		},

		ExtensionOrder: []tlshello.ExtensionType{
			tlshello.ExtensionServerName,
			tlshello.ExtensionRenegotiationInfo,
			tlshello.ExtensionSupportedGroups,
			tlshello.ExtensionSessionTicket,
			tlshello.ExtensionKeyShare,
			tlshello.ExtensionSupportedVersions,
			tlshello.ExtensionSignatureAlgorithms,
			tlshello.ExtensionPSKKeyExchangeModes,
			tlshello.ExtensionRecordSizeLimit,
		},

		ServerNames: []string{"server"},

		SupportedGroups: []tlshello.CurveID{
			tlshello.X25519, tlshello.CurveP256, tlshello.CurveP384, tlshello.CurveP521,
			tlshello.FFDHE2048, tlshello.FFDHE3072, 0x0102, 0x0103, 0x0104,
		},

		SignatureSchemes: []tlshello.SignatureScheme{
			0x0403, 0x0503, 0x0603, 0x0203, 0x0804, 0x0805, 0x0806, 0x0401,
			0x0501, 0x0601, 0x0201, 0x0402, 0x0502, 0x0602, 0x0202,
		},

		SupportedVersions: []uint16{tlshello.VersionTLS13},

		KeyShareGroups: []tlshello.CurveID{tlshello.X25519},

		PSKModes: []uint8{tlshello.PSKModeDHE},

		RecordSizeLimit: 0x4001,
	},

	Expected: Fingerprints{
		JA3: "da4dea34fe6d4ce5f0725df3f2682fa0",
		JA4: "t13d030900_55b375c5d22e_59cd3dafc54d",
	},
}
