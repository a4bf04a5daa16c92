// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mar1xlatino/tlshello"
)

// fileConfig is the TOML preferences file shared by build and respond:
//
//	profile            = "chrome_142_windows_11"
//	sni                = "example.com"
//	cipher_suites      = ["TLS_AES_128_GCM_SHA256", "0x1303"]
//	groups             = ["x25519", "secp256r1"]
//	hello_retry_cookie = "c00c1e"
type fileConfig struct {
	Profile          string   `toml:"profile"`
	SNI              string   `toml:"sni"`
	CipherSuites     []string `toml:"cipher_suites"`
	Groups           []string `toml:"groups"`
	HelloRetryCookie string   `toml:"hello_retry_cookie"`
}

// prefs are the resolved preferences.
type prefs struct {
	profile     string
	sni         string
	negotiation tlshello.NegotiationConfig
}

func defaultPrefs() prefs {
	return prefs{
		profile:     "chrome_142_windows_11",
		negotiation: tlshello.DefaultNegotiationConfig(),
	}
}

// loadPrefs returns the defaults overridden by the keys defined in path.
// An empty path yields the defaults.
func loadPrefs(path string) (prefs, error) {
	p := defaultPrefs()
	if path == "" {
		return p, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return prefs{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return prefs{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("profile") {
		p.profile = strings.TrimSpace(raw.Profile)
	}
	if meta.IsDefined("sni") {
		p.sni = strings.TrimSpace(raw.SNI)
	}
	if meta.IsDefined("cipher_suites") {
		suites := make([]uint16, 0, len(raw.CipherSuites))
		for _, name := range raw.CipherSuites {
			suite, err := parseCipherSuite(name)
			if err != nil {
				return prefs{}, fmt.Errorf("parse cipher_suites: %w", err)
			}
			suites = append(suites, suite)
		}
		p.negotiation.CipherSuites = suites
	}
	if meta.IsDefined("groups") {
		groups := make([]tlshello.CurveID, 0, len(raw.Groups))
		for _, name := range raw.Groups {
			group, err := parseGroup(name)
			if err != nil {
				return prefs{}, fmt.Errorf("parse groups: %w", err)
			}
			groups = append(groups, group)
		}
		p.negotiation.Groups = groups
	}
	if meta.IsDefined("hello_retry_cookie") {
		cookie, err := hex.DecodeString(strings.TrimSpace(raw.HelloRetryCookie))
		if err != nil {
			return prefs{}, fmt.Errorf("parse hello_retry_cookie: %w", err)
		}
		p.negotiation.HelloRetryCookie = cookie
	}
	return p, nil
}

var cipherSuiteNames = map[string]uint16{
	"TLS_AES_128_GCM_SHA256":       tlshello.TLS_AES_128_GCM_SHA256,
	"TLS_AES_256_GCM_SHA384":       tlshello.TLS_AES_256_GCM_SHA384,
	"TLS_CHACHA20_POLY1305_SHA256": tlshello.TLS_CHACHA20_POLY1305_SHA256,
	"TLS_AES_128_CCM_SHA256":       tlshello.TLS_AES_128_CCM_SHA256,
	"TLS_AES_128_CCM_8_SHA256":     tlshello.TLS_AES_128_CCM_8_SHA256,
}

func parseCipherSuite(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	if suite, ok := cipherSuiteNames[strings.ToUpper(s)]; ok {
		return suite, nil
	}
	return parseCodePoint(s)
}

var groupNames = map[string]tlshello.CurveID{
	"x25519":         tlshello.X25519,
	"x448":           tlshello.X448,
	"secp256r1":      tlshello.CurveP256,
	"p256":           tlshello.CurveP256,
	"secp384r1":      tlshello.CurveP384,
	"p384":           tlshello.CurveP384,
	"secp521r1":      tlshello.CurveP521,
	"p521":           tlshello.CurveP521,
	"ffdhe2048":      tlshello.FFDHE2048,
	"ffdhe3072":      tlshello.FFDHE3072,
	"x25519mlkem768": tlshello.X25519MLKEM768,
}

func parseGroup(s string) (tlshello.CurveID, error) {
	s = strings.TrimSpace(s)
	if group, ok := groupNames[strings.ToLower(strings.ReplaceAll(s, "-", ""))]; ok {
		return group, nil
	}
	v, err := parseCodePoint(s)
	return tlshello.CurveID(v), err
}

// parseCodePoint parses a decimal or 0x-prefixed 16-bit value.
func parseCodePoint(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown code point %q", s)
	}
	return uint16(v), nil
}
