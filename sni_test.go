// Copyright 2017 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSNI(t *testing.T) {
	tests := []struct {
		hostname string
		ok       bool
		label    string
	}{
		{"example.com", true, ""},
		{"a.b-c.d9", true, ""},
		{"example.com.", true, ""},
		{"localhost", true, ""},
		{strings.Repeat("a", 63) + ".com", true, ""},
		{strings.Repeat("a", 64) + ".com", false, strings.Repeat("a", 64)},
		{strings.Repeat("abcdefg.", 32) + "com", false, ""},
		{"", false, ""},
		{"a..b", false, ""},
		{"-a.com", false, "-a"},
		{"a-.com", false, "a-"},
		{"under_score.com", false, "under_score"},
		{"192.168.0.1", false, ""},
		{"::1", false, ""},
		{"[::1]", false, ""},
		{"fe80::1%eth0", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			err := ValidateSNI(tt.hostname)
			if tt.ok {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var serr *SNIValidationError
			if !errors.As(err, &serr) {
				t.Fatalf("expected an SNIValidationError, got %v", err)
			}
			if tt.label != "" && serr.Label != tt.label {
				t.Errorf("label %q, want %q", serr.Label, tt.label)
			}
		})
	}
}

func TestNormalizeSNI(t *testing.T) {
	tests := map[string]string{
		"Example.COM":     "example.com",
		"example.com.":    "example.com",
		"bücher.example":  "xn--bcher-kva.example",
		"BÜCHER.example.": "xn--bcher-kva.example",
		"":                "",
		"Under_Score.com": "under_score.com",
	}
	for in, want := range tests {
		if got := NormalizeSNI(in); got != want {
			t.Errorf("NormalizeSNI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateAndNormalizeSNI(t *testing.T) {
	got, err := ValidateAndNormalizeSNI("WWW.Bücher.Example")
	if err != nil {
		t.Fatal(err)
	}
	if got != "www.xn--bcher-kva.example" {
		t.Errorf("got %q", got)
	}
	if _, err := ValidateAndNormalizeSNI("10.0.0.1"); err == nil {
		t.Error("IP address accepted")
	}
}

func TestConfigServerNames(t *testing.T) {
	cfg := DefaultClientHelloConfig()
	cfg.ServerNames = []string{"Bücher.Example."}
	ch, _, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	names, err := ch.ServerNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "xn--bcher-kva.example" {
		t.Errorf("server names %q", names)
	}

	cfg.ServerNames = []string{"127.0.0.1"}
	_, _, err = cfg.Build()
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "ServerNames" {
		t.Errorf("expected a ServerNames ConfigError, got %v", err)
	}
}
