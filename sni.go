// Copyright 2017 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// Host name limits of RFC 1035, Section 2.3.4.
const (
	MaxSNIHostnameLength = 253
	MaxSNILabelLength    = 63
)

// SNIValidationError describes why a host name cannot be sent in the
// server_name extension.
type SNIValidationError struct {
	Hostname string
	Reason   string
	Label    string // the offending label, if any
}

func (e *SNIValidationError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("tlshello: invalid SNI host name %q: %s (label %q)", e.Hostname, e.Reason, e.Label)
	}
	return fmt.Sprintf("tlshello: invalid SNI host name %q: %s", e.Hostname, e.Reason)
}

// ValidateSNI reports whether hostname is a DNS host name acceptable for
// the server_name extension (RFC 6066, Section 3): LDH labels of at most 63
// bytes, at most 253 bytes in total, and not an IP address literal. A
// single trailing dot is ignored.
func ValidateSNI(hostname string) error {
	if hostname == "" {
		return &SNIValidationError{Hostname: hostname, Reason: "host name is empty"}
	}
	hostname = strings.TrimSuffix(hostname, ".")
	if len(hostname) > MaxSNIHostnameLength {
		return &SNIValidationError{
			Hostname: hostname,
			Reason:   fmt.Sprintf("longer than %d bytes (%d)", MaxSNIHostnameLength, len(hostname)),
		}
	}
	if isIPAddress(hostname) {
		return &SNIValidationError{Hostname: hostname, Reason: "IP address literals are not allowed"}
	}
	for _, label := range strings.Split(hostname, ".") {
		if err := validateSNILabel(label); err != nil {
			return &SNIValidationError{Hostname: hostname, Reason: err.Error(), Label: label}
		}
	}
	return nil
}

func validateSNILabel(label string) error {
	if label == "" {
		return errors.New("empty label")
	}
	if len(label) > MaxSNILabelLength {
		return fmt.Errorf("label longer than %d bytes (%d)", MaxSNILabelLength, len(label))
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return errors.New("label starts or ends with a hyphen")
	}
	for i := 0; i < len(label); i++ {
		if !isLDH(label[i]) {
			return fmt.Errorf("invalid character %q at position %d", label[i], i)
		}
	}
	return nil
}

func isLDH(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

func isIPAddress(s string) bool {
	if len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']' {
		s = s[1 : len(s)-1]
	}
	if i := strings.LastIndexByte(s, '%'); i > 0 {
		s = s[:i]
	}
	return net.ParseIP(s) != nil
}

// NormalizeSNI lowercases hostname, strips a trailing dot and converts
// internationalized labels to their A-label (Punycode) form. A name IDNA
// rejects is returned lowercased and otherwise unchanged, for ValidateSNI to
// report.
func NormalizeSNI(hostname string) string {
	if hostname == "" {
		return hostname
	}
	hostname = strings.TrimSuffix(strings.ToLower(hostname), ".")
	ascii, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return hostname
	}
	return ascii
}

// ValidateAndNormalizeSNI returns the normalized form of hostname if it is
// valid.
func ValidateAndNormalizeSNI(hostname string) (string, error) {
	normalized := NormalizeSNI(hostname)
	if err := ValidateSNI(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
