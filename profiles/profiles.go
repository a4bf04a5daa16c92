// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profiles contains ClientHello configurations captured from real
// browsers, plus the RFC 8448 reference client.
package profiles

import (
	"slices"

	"github.com/mar1xlatino/tlshello"
)

// Profile is a named ClientHello configuration.
type Profile struct {
	ID          string
	Browser     string
	Version     int
	Platform    string
	Description string

	ClientHello tlshello.ClientHelloConfig

	// Expected fingerprints of a hello built from ClientHello with a
	// server name set.
	Expected Fingerprints
}

// Fingerprints are the expected JA3 and JA4 of a profile. GREASE values do
// not enter either, so they hold whatever the browser randomizes.
type Fingerprints struct {
	JA3 string
	JA4 string
}

// Config returns a copy of the profile's ClientHello configuration with
// serverName as the only server name. An empty serverName keeps the
// profile's own.
func (p *Profile) Config(serverName string) *tlshello.ClientHelloConfig {
	cfg := p.ClientHello.Clone()
	if serverName != "" {
		cfg.ServerNames = []string{serverName}
	}
	return cfg
}

// All returns every profile.
func All() []*Profile {
	return []*Profile{
		Chrome138Android,
		Chrome142Windows11,
		Firefox145Windows11,
		Safari18Ios,
		RFC8448Client,
	}
}

// Chrome profiles
func Chrome() []*Profile {
	return byBrowser("chrome")
}

// Firefox profiles
func Firefox() []*Profile {
	return byBrowser("firefox")
}

// Safari profiles
func Safari() []*Profile {
	return byBrowser("safari")
}

func byBrowser(browser string) []*Profile {
	var out []*Profile
	for _, p := range All() {
		if p.Browser == browser {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns the ids of all profiles, sorted.
func IDs() []string {
	ids := make([]string, 0, len(All()))
	for _, p := range All() {
		ids = append(ids, p.ID)
	}
	slices.Sort(ids)
	return ids
}

// Lookup returns the profile with the given id.
func Lookup(id string) (*Profile, bool) {
	for _, p := range All() {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}
