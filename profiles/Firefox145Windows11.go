// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profiles

import "github.com/mar1xlatino/tlshello"

// Firefox145Windows11 captured from real Firefox 145 on Windows 11
// JA3: 6f7889b9fb1a62a9577e685c1fcfa919
// JA4: t13d1717h2_5b57614c22b0_3cbfd9057e0d
var Firefox145Windows11 = &Profile{
	ID:          "firefox_145_windows_11",
	Browser:     "firefox",
	Version:     145,
	Platform:    "windows_11",
	Description: "Captured from real Firefox 145",

	ClientHello: tlshello.ClientHelloConfig{
		CipherSuites: []uint16{
			0x1301, 0x1303, 0x1302, 0xc02b, 0xc02f, 0xcca9, 0xcca8, 0xc02c,
			0xc030, 0xc00a, 0xc009, 0xc013, 0xc014, 0x009c, 0x009d, 0x002f,
			0x0035,
		},

		ExtensionOrder: []tlshello.ExtensionType{
			0x0000, 0x0017, 0xff01, 0x000a, 0x000b, 0x0023, 0x0010, 0x0005,
			0x0022, 0x0012, 0x0033, 0x002b, 0x000d, 0x002d, 0x001c, 0x001b,
			0xfe0d,
		},

		SupportedGroups: []tlshello.CurveID{
			0x11ec, 0x001d, 0x0017, 0x0018, 0x0019, 0x0100, 0x0101,
		},

		SignatureSchemes: []tlshello.SignatureScheme{
			0x0403, 0x0503, 0x0603, 0x0804, 0x0805, 0x0806, 0x0401, 0x0501,
			0x0601, 0x0203, 0x0201,
		},

		ALPNProtocols: []string{"h2", "http/1.1"},

		SupportedVersions: []uint16{0x0304, 0x0303},

		KeyShareGroups: []tlshello.CurveID{0x11ec, 0x001d, 0x0017},

		PSKModes: []uint8{0x01},

		CertCompressionAlgos: []uint16{0x0001, 0x0002, 0x0003},

		RecordSizeLimit: 0x4001,

		SessionIDLength: 32,

		RawExtensions: map[tlshello.ExtensionType][]byte{
			// delegated_credentials: ecdsa_secp256r1_sha256,
			// ecdsa_secp384r1_sha384, ecdsa_secp521r1_sha512, ecdsa_sha1
			0x0022: {0x00, 0x08, 0x04, 0x03, 0x05, 0x03, 0x06, 0x03, 0x02, 0x03},
		},
	},

	Expected: Fingerprints{
		JA3: "6f7889b9fb1a62a9577e685c1fcfa919",
		JA4: "t13d1717h2_5b57614c22b0_3cbfd9057e0d",
	},
}
