// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profiles

import (
	"slices"
	"testing"
)

// TestAllProfilesValid verifies all profiles pass validation
func TestAllProfilesValid(t *testing.T) {
	for _, p := range All() {
		t.Run(p.ID, func(t *testing.T) {
			if err := p.Config("example.com").Validate(); err != nil {
				t.Errorf("validation error: %v", err)
			}
		})
	}
}

// TestAllProfilesHaveRequiredFields verifies required fields are set
func TestAllProfilesHaveRequiredFields(t *testing.T) {
	for _, p := range All() {
		t.Run(p.ID, func(t *testing.T) {
			if p.ID == "" {
				t.Error("missing ID")
			}
			if p.Browser == "" {
				t.Error("missing Browser")
			}
			if p.Version == 0 {
				t.Error("missing Version")
			}
			if p.Platform == "" {
				t.Error("missing Platform")
			}
			if len(p.ClientHello.CipherSuites) == 0 {
				t.Error("missing CipherSuites")
			}
			if len(p.ClientHello.ExtensionOrder) == 0 {
				t.Error("missing ExtensionOrder")
			}
			if len(p.ClientHello.SupportedGroups) == 0 {
				t.Error("missing SupportedGroups")
			}
			if len(p.ClientHello.SignatureSchemes) == 0 {
				t.Error("missing SignatureSchemes")
			}
			if p.Expected.JA3 == "" || p.Expected.JA4 == "" {
				t.Error("missing expected fingerprints")
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, id := range IDs() {
		p, ok := Lookup(id)
		if !ok {
			t.Fatalf("Lookup(%q) failed", id)
		}
		if p.ID != id {
			t.Errorf("Lookup(%q) returned %q", id, p.ID)
		}
	}
	if _, ok := Lookup("netscape_4"); ok {
		t.Error("Lookup of an unknown id succeeded")
	}
}

func TestIDsUniqueAndSorted(t *testing.T) {
	ids := IDs()
	if !slices.IsSorted(ids) {
		t.Errorf("IDs not sorted: %v", ids)
	}
	if len(slices.Compact(slices.Clone(ids))) != len(ids) {
		t.Errorf("duplicate ids: %v", ids)
	}
}

func TestBrowserGroups(t *testing.T) {
	tests := []struct {
		name     string
		profiles []*Profile
		browser  string
	}{
		{"chrome", Chrome(), "chrome"},
		{"firefox", Firefox(), "firefox"},
		{"safari", Safari(), "safari"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.profiles) == 0 {
				t.Fatal("no profiles")
			}
			for _, p := range tt.profiles {
				if p.Browser != tt.browser {
					t.Errorf("%s in %s group", p.ID, tt.browser)
				}
			}
		})
	}
}

// TestConfigDoesNotAliasProfile verifies Config hands out independent copies.
func TestConfigDoesNotAliasProfile(t *testing.T) {
	cfg := Chrome142Windows11.Config("example.com")
	cfg.CipherSuites[0] = 0xffff
	cfg.RawExtensions[0x44cd] = nil
	if Chrome142Windows11.ClientHello.CipherSuites[0] == 0xffff {
		t.Error("CipherSuites shared with the profile")
	}
	if Chrome142Windows11.ClientHello.RawExtensions[0x44cd] == nil {
		t.Error("RawExtensions shared with the profile")
	}
	if len(Chrome142Windows11.ClientHello.ServerNames) != 0 {
		t.Error("Config set the profile's server names")
	}
}

func TestConfigKeepsOwnServerName(t *testing.T) {
	cfg := RFC8448Client.Config("")
	if !slices.Equal(cfg.ServerNames, []string{"server"}) {
		t.Errorf("ServerNames = %v, want [server]", cfg.ServerNames)
	}
}
