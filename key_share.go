// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"crypto/ecdh"
	"crypto/mlkem"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// PrivateKeyShare is the private half of a generated key share. The hello
// codecs only ever carry PublicKey; the private key stays with the caller.
type PrivateKeyShare struct {
	Group     CurveID
	PublicKey []byte
	// PrivateKey is a []byte scalar for X25519, an *ecdh.PrivateKey for
	// the NIST curves and a *HybridPrivateKey for X25519MLKEM768.
	PrivateKey any
}

// HybridPrivateKey is the client half of an X25519MLKEM768 key share
// (draft-ietf-tls-ecdhe-mlkem). Its public share is the ML-KEM-768
// encapsulation key followed by the X25519 public key.
type HybridPrivateKey struct {
	MLKEM  *mlkem.DecapsulationKey768
	X25519 []byte
}

// Entry returns the public key share for a hello.
func (k *PrivateKeyShare) Entry() KeyShareEntry {
	return KeyShareEntry{Group: k.Group, KeyExchange: k.PublicKey}
}

// SharedSecret computes the (EC)DHE shared secret with the peer's public
// key share.
func (k *PrivateKeyShare) SharedSecret(peer []byte) ([]byte, error) {
	switch priv := k.PrivateKey.(type) {
	case []byte:
		secret, err := curve25519.X25519(priv, peer)
		if err != nil {
			return nil, fmt.Errorf("tlshello: invalid %s key share: %w", k.Group, err)
		}
		return secret, nil
	case *ecdh.PrivateKey:
		pub, err := priv.Curve().NewPublicKey(peer)
		if err != nil {
			return nil, fmt.Errorf("tlshello: invalid %s key share: %w", k.Group, err)
		}
		return priv.ECDH(pub)
	case *HybridPrivateKey:
		// The server share is the ML-KEM ciphertext followed by an X25519 key.
		if len(peer) != mlkem.CiphertextSize768+curve25519.PointSize {
			return nil, fmt.Errorf("tlshello: invalid %s key share of %d bytes", k.Group, len(peer))
		}
		kemSecret, err := priv.MLKEM.Decapsulate(peer[:mlkem.CiphertextSize768])
		if err != nil {
			return nil, fmt.Errorf("tlshello: invalid %s key share: %w", k.Group, err)
		}
		ecdhSecret, err := curve25519.X25519(priv.X25519, peer[mlkem.CiphertextSize768:])
		if err != nil {
			return nil, fmt.Errorf("tlshello: invalid %s key share: %w", k.Group, err)
		}
		return append(kemSecret, ecdhSecret...), nil
	}
	return nil, fmt.Errorf("tlshello: no private key for %s", k.Group)
}

// KeyShareGenerator produces key pairs for named groups.
type KeyShareGenerator interface {
	GenerateKeyShare(group CurveID, rand io.Reader) (*PrivateKeyShare, error)
}

// DefaultKeyShareGenerator generates X25519, P-256, P-384 and P-521 shares,
// and client X25519MLKEM768 shares.
type DefaultKeyShareGenerator struct{}

// SupportsGroup reports whether GenerateKeyShare can produce a server share
// for group. Hybrid groups are excluded: their server share is an
// encapsulation against the client's key.
func (DefaultKeyShareGenerator) SupportsGroup(group CurveID) bool {
	switch group {
	case X25519, CurveP256, CurveP384, CurveP521:
		return true
	}
	return false
}

// GenerateKeyShare implements KeyShareGenerator. A nil rand means crypto/rand.
func (DefaultKeyShareGenerator) GenerateKeyShare(group CurveID, r io.Reader) (*PrivateKeyShare, error) {
	if r == nil {
		r = rand.Reader
	}
	switch group {
	case X25519:
		priv, pub, err := generateX25519(r)
		if err != nil {
			return nil, fmt.Errorf("tlshello: generating %s key: %w", group, err)
		}
		return &PrivateKeyShare{Group: group, PublicKey: pub, PrivateKey: priv}, nil
	case X25519MLKEM768:
		// ML-KEM key generation always draws from crypto/rand.
		dk, err := mlkem.GenerateKey768()
		if err != nil {
			return nil, fmt.Errorf("tlshello: generating %s key: %w", group, err)
		}
		priv, pub, err := generateX25519(r)
		if err != nil {
			return nil, fmt.Errorf("tlshello: generating %s key: %w", group, err)
		}
		return &PrivateKeyShare{
			Group:      group,
			PublicKey:  append(dk.EncapsulationKey().Bytes(), pub...),
			PrivateKey: &HybridPrivateKey{MLKEM: dk, X25519: priv},
		}, nil
	case CurveP256, CurveP384, CurveP521:
		curve := nistCurve(group)
		priv, err := curve.GenerateKey(r)
		if err != nil {
			return nil, fmt.Errorf("tlshello: generating %s key: %w", group, err)
		}
		return &PrivateKeyShare{Group: group, PublicKey: priv.PublicKey().Bytes(), PrivateKey: priv}, nil
	}
	return nil, fmt.Errorf("%w: no key share generator for %s", ErrNegotiationFailed, group)
}

func generateX25519(r io.Reader) (priv, pub []byte, err error) {
	priv = make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(r, priv); err != nil {
		return nil, nil, err
	}
	pub, err = curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

func nistCurve(group CurveID) ecdh.Curve {
	switch group {
	case CurveP384:
		return ecdh.P384()
	case CurveP521:
		return ecdh.P521()
	}
	return ecdh.P256()
}
