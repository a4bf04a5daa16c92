// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tls13 implements the early part of the TLS 1.3 Key Schedule
// (RFC 8446, Section 7.1) needed to compute PSK binders.
package tls13

import (
	"crypto/hmac"
	"errors"
	"hash"

	"github.com/mar1xlatino/tlshello/internal/hkdf"
	"golang.org/x/crypto/cryptobyte"
)

// ErrLabelTooLong is returned when the label or context passed to ExpandLabel
// exceeds the maximum allowed length (255 bytes for "tls13 "+label, 255 bytes for context).
var ErrLabelTooLong = errors.New("tls13: label or context too long")

// ExpandLabel implements HKDF-Expand-Label from RFC 8446, Section 7.1.
func ExpandLabel[H hash.Hash](h func() H, secret []byte, label string, context []byte, length int) ([]byte, error) {
	if len("tls13 ")+len(label) > 255 || len(context) > 255 {
		return nil, ErrLabelTooLong
	}
	var b cryptobyte.Builder
	b.AddUint16(uint16(length))
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes([]byte("tls13 "))
		b.AddBytes([]byte(label))
	})
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(context)
	})
	hkdfLabel, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return hkdf.Expand(h, secret, string(hkdfLabel), length)
}

func extract[H hash.Hash](h func() H, newSecret, currentSecret []byte) ([]byte, error) {
	if newSecret == nil {
		newSecret = make([]byte, h().Size())
	}
	return hkdf.Extract(h, newSecret, currentSecret)
}

func deriveSecret[H hash.Hash](h func() H, secret []byte, label string, transcript hash.Hash) ([]byte, error) {
	if transcript == nil {
		transcript = h()
	}
	return ExpandLabel(h, secret, label, transcript.Sum(nil), transcript.Size())
}

const (
	resumptionBinderLabel = "res binder"
	externalBinderLabel   = "ext binder"
	finishedLabel         = "finished"
)

// EarlySecret is the first secret of the key schedule, extracted from a PSK.
type EarlySecret struct {
	secret []byte
	hash   func() hash.Hash
}

// NewEarlySecret extracts the early secret from psk. A nil psk stands for
// a string of hash-length zeros, as used when no PSK is offered.
func NewEarlySecret[H hash.Hash](h func() H, psk []byte) (*EarlySecret, error) {
	secret, err := extract(h, psk, nil)
	if err != nil {
		return nil, err
	}
	return &EarlySecret{
		secret: secret,
		hash:   func() hash.Hash { return h() },
	}, nil
}

func (s *EarlySecret) Secret() []byte {
	if s != nil {
		return s.secret
	}
	return nil
}

// ResumptionBinderKey derives the binder_key for a resumption PSK.
func (s *EarlySecret) ResumptionBinderKey() ([]byte, error) {
	return deriveSecret(s.hash, s.secret, resumptionBinderLabel, nil)
}

// ExternalBinderKey derives the binder_key for an externally provisioned PSK.
func (s *EarlySecret) ExternalBinderKey() ([]byte, error) {
	return deriveSecret(s.hash, s.secret, externalBinderLabel, nil)
}

// Binder computes a PSK binder: the Finished MAC keyed from binderKey over
// the hash of the partial ClientHello transcript. See RFC 8446, Section 4.2.11.2.
func Binder[H hash.Hash](h func() H, binderKey, transcript []byte) ([]byte, error) {
	finishedKey, err := ExpandLabel(h, binderKey, finishedLabel, nil, h().Size())
	if err != nil {
		return nil, err
	}
	th := h()
	th.Write(transcript)
	mac := hmac.New(func() hash.Hash { return h() }, finishedKey)
	mac.Write(th.Sum(nil))
	return mac.Sum(nil), nil
}
