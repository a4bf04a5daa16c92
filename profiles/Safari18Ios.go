// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profiles

import "github.com/mar1xlatino/tlshello"

// Safari18Ios captured from real Safari 18 on iOS
// JA3: 773906b0efdefa24a7f2b8eb6985bf37
// JA4: t13d2014h2_a09f3c656075_e42f34c56612
var Safari18Ios = &Profile{
	ID:          "safari_18_ios",
	Browser:     "safari",
	Version:     18,
	Platform:    "ios",
	Description: "Captured from real Safari 18",

	ClientHello: tlshello.ClientHelloConfig{
		CipherSuites: []uint16{
			0x1301, 0x1302, 0x1303, 0xc02c, 0xc02b, 0xcca9, 0xc030, 0xc02f,
			0xcca8, 0xc00a, 0xc009, 0xc014, 0xc013, 0x009d, 0x009c, 0x0035,
			0x002f, 0xc008, 0xc012, 0x000a,
		},

		ExtensionOrder: []tlshello.ExtensionType{
			0x0000, 0x0017, 0xff01, 0x000a, 0x000b, 0x0010, 0x0005, 0x000d,
			0x0012, 0x0033, 0x002d, 0x002b, 0x001b, 0x0015,
		},

		SupportedGroups: []tlshello.CurveID{
			0x001d, 0x0017, 0x0018, 0x0019,
		},

		// 0x0805 is listed twice in the capture.
		SignatureSchemes: []tlshello.SignatureScheme{
			0x0403, 0x0804, 0x0401, 0x0503, 0x0805, 0x0805, 0x0501, 0x0806,
			0x0601, 0x0201,
		},

		ALPNProtocols: []string{"h2", "http/1.1"},

		SupportedVersions: []uint16{0x0304, 0x0303, 0x0302, 0x0301},

		KeyShareGroups: []tlshello.CurveID{0x001d},

		PSKModes: []uint8{0x01},

		CertCompressionAlgos: []uint16{0x0001},

		SessionIDLength: 32,

		PaddingStyle: tlshello.BoringPaddingStyle,
	},

	Expected: Fingerprints{
		JA3: "773906b0efdefa24a7f2b8eb6985bf37",
		JA4: "t13d2014h2_a09f3c656075_e42f34c56612",
	},
}
