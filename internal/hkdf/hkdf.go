// Copyright 2024 The uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hkdf adapts golang.org/x/crypto/hkdf to the generic, error
// returning shape used by the TLS 1.3 key schedule.
package hkdf

import (
	"errors"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrInvalidLength is returned by Expand for a non-positive length or one
// longer than 255 hash blocks.
var ErrInvalidLength = errors.New("hkdf: invalid output length")

func plain[H hash.Hash](h func() H) func() hash.Hash {
	return func() hash.Hash { return h() }
}

// Extract computes the HKDF pseudorandom key for secret and salt.
// A nil salt is replaced by a string of hash-length zeros.
func Extract[H hash.Hash](h func() H, secret, salt []byte) ([]byte, error) {
	if h == nil {
		return nil, errors.New("hkdf: nil hash function")
	}
	return hkdf.Extract(plain(h), secret, salt), nil
}

// Expand derives keyLength bytes from pseudorandomKey and info.
func Expand[H hash.Hash](h func() H, pseudorandomKey []byte, info string, keyLength int) ([]byte, error) {
	if h == nil {
		return nil, errors.New("hkdf: nil hash function")
	}
	if keyLength <= 0 || keyLength > 255*h().Size() {
		return nil, ErrInvalidLength
	}
	out := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.Expand(plain(h), pseudorandomKey, []byte(info)), out); err != nil {
		return nil, err
	}
	return out, nil
}
