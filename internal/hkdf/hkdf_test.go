// Copyright 2024 The uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hkdf

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"testing"
)

// RFC 5869 Test Vectors
// https://www.rfc-editor.org/rfc/rfc5869#appendix-A

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// TestRFC5869Vectors tests all RFC 5869 SHA-256 test vectors in a single table-driven test.
// In -short mode, only the first two vectors are tested.
func TestRFC5869Vectors(t *testing.T) {
	t.Parallel()

	vectors := []struct {
		name        string
		ikm         string
		salt        string
		info        string
		prkExpected string
		okmExpected string
		okmLen      int
	}{
		{
			name:        "Case1_Basic",
			ikm:         "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b",
			salt:        "000102030405060708090a0b0c",
			info:        "f0f1f2f3f4f5f6f7f8f9",
			prkExpected: "077709362c2e32df0ddc3f0dc47bba6390b6c73bb50f9c3122ec844ad7c2b3e5",
			okmExpected: "3cb25f25faacd57a90434f64d0362f2a2d2d0a90cf1a5a4c5db02d56ecc4c5bf34007208d5b887185865",
			okmLen:      42,
		},
		{
			name:        "Case2_LongerInputs",
			ikm:         "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f404142434445464748494a4b4c4d4e4f",
			salt:        "606162636465666768696a6b6c6d6e6f707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f909192939495969798999a9b9c9d9e9fa0a1a2a3a4a5a6a7a8a9aaabacadaeaf",
			info:        "b0b1b2b3b4b5b6b7b8b9babbbcbdbebfc0c1c2c3c4c5c6c7c8c9cacbcccdcecfd0d1d2d3d4d5d6d7d8d9dadbdcdddedfe0e1e2e3e4e5e6e7e8e9eaebecedeeeff0f1f2f3f4f5f6f7f8f9fafbfcfdfeff",
			prkExpected: "06a6b88c5853361a06104c9ceb35b45cef760014904671014a193f40c15fc244",
			okmExpected: "b11e398dc80327a1c8e7f78c596a49344f012eda2d4efad8a050cc4c19afa97c59045a99cac7827271cb41c65e590e09da3275600c2f09b8367793a9aca3db71cc30c58179ec3e87c14c01d5c1f3434f1d87",
			okmLen:      82,
		},
		{
			name:        "Case3_ZeroLengthSaltInfo",
			ikm:         "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b",
			salt:        "", // Empty salt
			info:        "", // Empty info
			prkExpected: "19ef24a32c717b167f33a91d6f648bdf96596776afdb6377ac434c1c293ccb04",
			okmExpected: "8da4e775a563c18f715f802a063c5a31b8a11f5c5ee1879ec3454e5f3c738d2d9d201395faa4b61a96c8",
			okmLen:      42,
		},
	}

	// In short mode, only test first 2 vectors
	if testing.Short() {
		vectors = vectors[:2]
	}

	for _, tc := range vectors {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ikm := mustHex(tc.ikm)
			var salt []byte
			if tc.salt != "" {
				salt = mustHex(tc.salt)
			}
			expectedPRK := mustHex(tc.prkExpected)
			expectedOKM := mustHex(tc.okmExpected)

			// Test Extract
			prk, err := Extract(sha256.New, ikm, salt)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if !bytes.Equal(prk, expectedPRK) {
				t.Errorf("PRK mismatch:\n  got:  %x\n  want: %x", prk, expectedPRK)
			}

			// Test Expand
			info := ""
			if tc.info != "" {
				info = string(mustHex(tc.info))
			}
			okm, err := Expand(sha256.New, prk, info, tc.okmLen)
			if err != nil {
				t.Fatalf("Expand failed: %v", err)
			}
			if !bytes.Equal(okm, expectedOKM) {
				t.Errorf("OKM mismatch:\n  got:  %x\n  want: %x", okm, expectedOKM)
			}
		})
	}
}

// TestExpandTooLongOutput checks the 255*HashLen output bound.
func TestExpandTooLongOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hashFunc func() hash.Hash
		prk      string
		maxLen   int
	}{
		{
			name:     "SHA256",
			hashFunc: sha256.New,
			prk:      "077709362c2e32df0ddc3f0dc47bba6390b6c73bb50f9c3122ec844ad7c2b3e5",
			maxLen:   255 * 32, // 8160 bytes
		},
		{
			name:     "SHA512",
			hashFunc: sha512.New,
			prk:      "665799823737ded04a88e47e54a5890bb2c3d247c7a4254a8e61350723590a26c36238127d8661b88cf80ef802d57e2f7cebcf1e00e083848be19929c61b4237",
			maxLen:   255 * 64, // 16320 bytes
		},
		{
			name:     "SHA384",
			hashFunc: sha512.New384,
			prk:      "704b39990779ce1dc548052c7dc39f303570dd13fb39f7acc564680bef80e8dec70ee9a7e1f3e293ef68eceb072a5ade",
			maxLen:   255 * 48, // 12240 bytes
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			prk := mustHex(tc.prk)

			if _, err := Expand(tc.hashFunc, prk, "info", tc.maxLen); err != nil {
				t.Fatalf("Expand at the bound failed: %v", err)
			}
			if _, err := Expand(tc.hashFunc, prk, "info", tc.maxLen+1); !errors.Is(err, ErrInvalidLength) {
				t.Errorf("Expand past the bound: got %v, want ErrInvalidLength", err)
			}
			if _, err := Expand(tc.hashFunc, prk, "info", 0); !errors.Is(err, ErrInvalidLength) {
				t.Errorf("Expand of zero bytes: got %v, want ErrInvalidLength", err)
			}
		})
	}
}

