// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	helloerrors "github.com/mar1xlatino/tlshello/errors"
)

// SelectCipher returns the first suite of preference that the peer offered.
// The server's preference order decides, not the order of the offer.
func SelectCipher(offered, preference []uint16) (uint16, bool) {
	for _, suite := range preference {
		if slices.Contains(offered, suite) {
			return suite, true
		}
	}
	return 0, false
}

// SelectGroup returns the offered key share for the first group of
// preference that has one.
func SelectGroup(offered []KeyShareEntry, preference []CurveID) (KeyShareEntry, bool) {
	for _, group := range preference {
		for _, ks := range offered {
			if ks.Group == group {
				return ks, true
			}
		}
	}
	return KeyShareEntry{}, false
}

// groupSupporter is implemented by generators that only cover some groups.
// Groups they cannot generate are dropped from the preference list.
type groupSupporter interface {
	SupportsGroup(group CurveID) bool
}

// NegotiationConfig holds the server side of a negotiation.
type NegotiationConfig struct {
	// CipherSuites in preference order. Default: 0x1301, 0x1303, 0x1302.
	CipherSuites []uint16
	// Groups in preference order. Default: X25519, P-256, P-384, P-521, X448.
	Groups []CurveID
	// KeyShares generates the server key share. Default: DefaultKeyShareGenerator.
	KeyShares KeyShareGenerator
	// Rand supplies the ServerHello random and key material. Default: crypto/rand.
	Rand io.Reader
	// HelloRetryCookie, when set, is sent in the cookie extension of a
	// HelloRetryRequest.
	HelloRetryCookie []byte
}

// DefaultNegotiationConfig returns the default server preferences.
func DefaultNegotiationConfig() NegotiationConfig {
	return NegotiationConfig{
		CipherSuites: []uint16{TLS_AES_128_GCM_SHA256, TLS_CHACHA20_POLY1305_SHA256, TLS_AES_256_GCM_SHA384},
		Groups:       []CurveID{X25519, CurveP256, CurveP384, CurveP521, X448},
		KeyShares:    DefaultKeyShareGenerator{},
	}
}

func (c NegotiationConfig) withDefaults() NegotiationConfig {
	def := DefaultNegotiationConfig()
	if c.CipherSuites == nil {
		c.CipherSuites = def.CipherSuites
	}
	if c.Groups == nil {
		c.Groups = def.Groups
	}
	if c.KeyShares == nil {
		c.KeyShares = def.KeyShares
	}
	return c
}

// ServerHelloFromClientHello negotiates a TLS 1.3 ServerHello for ch.
//
// The session id is echoed, the cipher suite and key share are chosen in
// the server's preference order, and supported_versions is fixed to TLS 1.3.
// When none of the client's key shares is acceptable the result is a
// HelloRetryRequest asking for the first preferred group the client lists in
// supported_groups, and the returned private key share is nil.
//
// It fails with ErrNegotiationFailed when the client does not offer TLS 1.3
// or no cipher suite or group can be agreed. In particular there is no
// HelloRetryRequest when the client's supported_groups shares no group with
// the server's preference, since the retried ClientHello could not succeed
// either (RFC 8446, Section 4.1.1).
func ServerHelloFromClientHello(ch *ClientHello, cfg NegotiationConfig) (*ServerHello, *PrivateKeyShare, error) {
	return ServerHelloFromClientHelloContext(context.Background(), ch, cfg)
}

// ServerHelloFromClientHelloContext is ServerHelloFromClientHello with a
// context carrying the log exchange ID.
func ServerHelloFromClientHelloContext(ctx context.Context, ch *ClientHello, cfg NegotiationConfig) (*ServerHello, *PrivateKeyShare, error) {
	cfg = cfg.withDefaults()

	versions, err := ch.SupportedVersions()
	if err != nil {
		if errors.Is(err, ErrMissingExtension) {
			return nil, nil, fmt.Errorf("%w: client does not offer TLS 1.3", ErrNegotiationFailed)
		}
		return nil, nil, err
	}
	if !slices.Contains(versions, VersionTLS13) {
		return nil, nil, fmt.Errorf("%w: client does not offer TLS 1.3", ErrNegotiationFailed)
	}

	suite, ok := SelectCipher(ch.CipherSuites(), cfg.CipherSuites)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no cipher suite supported by both client and server", ErrNegotiationFailed)
	}
	if helloerrors.DebugLoggingEnabled {
		helloerrors.LogDebug(ctx, "selected cipher suite ", fmt.Sprintf("0x%04x", suite))
	}

	shares, err := ch.KeyShares()
	if err != nil && !errors.Is(err, ErrMissingExtension) {
		return nil, nil, err
	}
	fields := ServerHelloFields{
		SessionID:   ch.SessionID(),
		CipherSuite: suite,
	}
	selectedVersion := &SupportedVersionsServerHello{SelectedVersion: VersionTLS13}

	groups := cfg.Groups
	if g, ok := cfg.KeyShares.(groupSupporter); ok {
		groups = slices.DeleteFunc(slices.Clone(groups), func(group CurveID) bool {
			return !g.SupportsGroup(group)
		})
	}

	entry, ok := SelectGroup(shares, groups)
	if !ok {
		group, err := helloRetryGroup(ch, groups)
		if err != nil {
			return nil, nil, err
		}
		helloerrors.LogInfo(ctx, "no acceptable key share, sending HelloRetryRequest for ", group)
		fields.HelloRetryRequest = true
		fields.Extensions = []ExtensionValue{&KeyShareHelloRetryRequest{SelectedGroup: group}}
		if len(cfg.HelloRetryCookie) > 0 {
			fields.Extensions = append(fields.Extensions, &Cookie{Cookie: cfg.HelloRetryCookie})
		}
		fields.Extensions = append(fields.Extensions, selectedVersion)
		sh, err := BuildServerHello(fields, cfg.Rand)
		return sh, nil, err
	}

	warnUnlistedShares(ctx, ch, shares)

	priv, err := cfg.KeyShares.GenerateKeyShare(entry.Group, cfg.Rand)
	if err != nil {
		return nil, nil, err
	}
	if helloerrors.DebugLoggingEnabled {
		helloerrors.LogDebug(ctx, "selected key share ", entry.Group)
	}
	fields.Extensions = []ExtensionValue{&KeyShareServerHello{Share: priv.Entry()}, selectedVersion}
	sh, err := BuildServerHello(fields, cfg.Rand)
	if err != nil {
		return nil, nil, err
	}
	return sh, priv, nil
}

// helloRetryGroup picks the group to request in a HelloRetryRequest: the
// first preferred group the client lists in supported_groups, or the first
// preferred group when the client sent no supported_groups.
func helloRetryGroup(ch *ClientHello, preference []CurveID) (CurveID, error) {
	if len(preference) == 0 {
		return 0, fmt.Errorf("%w: no groups configured", ErrNegotiationFailed)
	}
	supported, err := ch.SupportedGroups()
	if errors.Is(err, ErrMissingExtension) {
		return preference[0], nil
	}
	if err != nil {
		return 0, err
	}
	for _, group := range preference {
		if slices.Contains(supported, group) {
			return group, nil
		}
	}
	return 0, fmt.Errorf("%w: no key exchanges supported by both client and server", ErrNegotiationFailed)
}

// warnUnlistedShares logs key shares for groups missing from the client's
// supported_groups. RFC 8446, Section 4.2.8 forbids them but lets the server
// choose whether to abort; negotiation goes on.
func warnUnlistedShares(ctx context.Context, ch *ClientHello, shares []KeyShareEntry) {
	if !helloerrors.ShouldLog(helloerrors.SeverityWarning) {
		return
	}
	supported, err := ch.SupportedGroups()
	if err != nil {
		return
	}
	for _, ks := range shares {
		if !slices.Contains(supported, ks.Group) {
			helloerrors.LogWarning(ctx, "client key share for ", ks.Group, " not listed in supported_groups")
		}
	}
}
