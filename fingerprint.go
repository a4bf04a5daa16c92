// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/crypto/cryptobyte"
)

// Fingerprint holds the JA3 and JA4 fingerprints of a ClientHello.
type Fingerprint struct {
	JA3   string // MD5 of JA3r
	JA3r  string // "version,ciphers,extensions,curves,points", wire order
	JA3n  string // MD5 of JA3rn
	JA3rn string // JA3r with sorted extensions

	JA4   string // sorted, SNI and ALPN excluded from the extension list, hashed
	JA4r  string // sorted, raw
	JA4o  string // wire order, hashed
	JA4ro string // wire order, raw
}

// ServerFingerprint holds the JA4S fingerprints of a ServerHello.
type ServerFingerprint struct {
	JA4S  string // t130200_1301_a56c5b993250
	JA4Sr string // t130200_1301_002b,0033
}

// helloSummary is what the fingerprints of a ClientHello are computed
// from. GREASE values are dropped everywhere except in signature schemes.
type helloSummary struct {
	version           uint16
	supportedVersions []uint16
	cipherSuites      []uint16
	extensions        []uint16
	curves            []uint16
	pointFormats      []uint8
	signatureSchemes  []uint16
	hasSNI            bool
	alpnFirst         string
}

// summarize reads the fingerprint inputs from the parsed view. Extension
// payloads are read leniently: a malformed payload contributes nothing
// rather than failing the fingerprint.
func (ch *ClientHello) summarize() *helloSummary {
	d := &helloSummary{version: ch.Version()}
	for _, suite := range ch.CipherSuites() {
		if !isGREASEValue(suite) {
			d.cipherSuites = append(d.cipherSuites, suite)
		}
	}
	for _, ext := range ch.exts {
		if isGREASEValue(uint16(ext.Type)) {
			continue
		}
		d.extensions = append(d.extensions, uint16(ext.Type))
		s := cryptobyte.String(ext.Data)
		switch ext.Type {
		case ExtensionServerName:
			d.hasSNI = true
		case ExtensionSupportedGroups:
			d.curves = readUint16s(s, true)
		case ExtensionECPointFormats:
			var formats cryptobyte.String
			if s.ReadUint8LengthPrefixed(&formats) {
				d.pointFormats = append(d.pointFormats, formats...)
			}
		case ExtensionSignatureAlgorithms:
			d.signatureSchemes = readUint16s(s, false)
		case ExtensionALPN:
			var list, proto cryptobyte.String
			if s.ReadUint16LengthPrefixed(&list) && list.ReadUint8LengthPrefixed(&proto) {
				d.alpnFirst = string(proto)
			}
		case ExtensionSupportedVersions:
			var versions cryptobyte.String
			if s.ReadUint8LengthPrefixed(&versions) {
				for !versions.Empty() {
					var v uint16
					if versions.ReadUint16(&v) && !isGREASEValue(v) {
						d.supportedVersions = append(d.supportedVersions, v)
					}
				}
			}
		}
	}
	return d
}

// readUint16s reads a uint16-prefixed list of uint16 values.
func readUint16s(s cryptobyte.String, dropGREASE bool) []uint16 {
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) {
		return nil
	}
	var out []uint16
	for !list.Empty() {
		var v uint16
		if !list.ReadUint16(&v) {
			break
		}
		if dropGREASE && isGREASEValue(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Fingerprint computes the JA3 and JA4 fingerprints of the ClientHello.
func (ch *ClientHello) Fingerprint() *Fingerprint {
	d := ch.summarize()
	fp := &Fingerprint{
		JA3r:  ja3String(d, false),
		JA3rn: ja3String(d, true),
	}
	sum := md5.Sum([]byte(fp.JA3r))
	fp.JA3 = hex.EncodeToString(sum[:])
	sum = md5.Sum([]byte(fp.JA3rn))
	fp.JA3n = hex.EncodeToString(sum[:])

	a := ja4a(d)
	fp.JA4 = ja4(a, d, true, true)
	fp.JA4r = ja4(a, d, true, false)
	fp.JA4o = ja4(a, d, false, true)
	fp.JA4ro = ja4(a, d, false, false)
	return fp
}

func ja3String(d *helloSummary, sortExtensions bool) string {
	exts := slices.Clone(d.extensions)
	if sortExtensions {
		slices.Sort(exts)
	}
	points := make([]string, len(d.pointFormats))
	for i, p := range d.pointFormats {
		points[i] = strconv.Itoa(int(p))
	}
	return strings.Join([]string{
		strconv.Itoa(int(d.version)),
		joinDecimal(d.cipherSuites),
		joinDecimal(exts),
		joinDecimal(d.curves),
		strings.Join(points, "-"),
	}, ",")
}

// ja4a is the first JA4 section: protocol, version, SNI flag, cipher and
// extension counts, and the ALPN marker.
func ja4a(d *helloSummary) string {
	version := d.version
	if len(d.supportedVersions) > 0 {
		version = slices.Max(d.supportedVersions)
	}
	sni := "i"
	if d.hasSNI {
		sni = "d"
	}
	return fmt.Sprintf("t%s%s%02d%02d%s", ja4Version(version), sni,
		min(len(d.cipherSuites), 99), min(len(d.extensions), 99), alpnMarker(d.alpnFirst))
}

func ja4(a string, d *helloSummary, sorted, hashed bool) string {
	ciphers := slices.Clone(d.cipherSuites)
	var exts []uint16
	for _, ext := range d.extensions {
		if sorted && (ext == uint16(ExtensionServerName) || ext == uint16(ExtensionALPN)) {
			continue
		}
		exts = append(exts, ext)
	}
	if sorted {
		slices.Sort(ciphers)
		slices.Sort(exts)
	}

	b := joinHex(ciphers)
	c := joinHex(exts)
	if sigs := joinHex(d.signatureSchemes); sigs != "" {
		c += "_" + sigs
	}
	if hashed {
		b, c = truncatedHash(b), truncatedHash(c)
	}
	return a + "_" + b + "_" + c
}

// Fingerprint computes the JA4S fingerprints of the ServerHello. The
// extension list keeps wire order.
func (sh *ServerHello) Fingerprint() *ServerFingerprint {
	version := sh.Version()
	if v, err := sh.SelectedVersion(); err == nil {
		version = v
	}
	var exts []uint16
	var alpn string
	for _, ext := range sh.exts {
		if isGREASEValue(uint16(ext.Type)) {
			continue
		}
		exts = append(exts, uint16(ext.Type))
		if ext.Type == ExtensionALPN {
			s := cryptobyte.String(ext.Data)
			var list, proto cryptobyte.String
			if s.ReadUint16LengthPrefixed(&list) && list.ReadUint8LengthPrefixed(&proto) {
				alpn = string(proto)
			}
		}
	}
	a := fmt.Sprintf("t%s%02d%s", ja4Version(version), min(len(exts), 99), alpnMarker(alpn))
	b := fmt.Sprintf("%04x", sh.CipherSuite())
	c := joinHex(exts)
	return &ServerFingerprint{
		JA4S:  a + "_" + b + "_" + truncatedHash(c),
		JA4Sr: a + "_" + b + "_" + c,
	}
}

func ja4Version(v uint16) string {
	switch {
	case v == VersionTLS13, v >= 0x7f01 && v <= 0x7f1c:
		return "13"
	case v == VersionTLS12:
		return "12"
	case v == VersionTLS11:
		return "11"
	case v == VersionTLS10:
		return "10"
	case v == 0x0300:
		return "s3"
	}
	return "00"
}

// alpnMarker returns the first and last characters of proto, or the outer
// hex digits of its first and last bytes when either is not alphanumeric.
func alpnMarker(proto string) string {
	if proto == "" {
		return "00"
	}
	first, last := proto[0], proto[len(proto)-1]
	if isAlphanumeric(first) && isAlphanumeric(last) {
		return string([]byte{first, last})
	}
	return fmt.Sprintf("%02x", first)[:1] + fmt.Sprintf("%02x", last)[1:]
}

func isAlphanumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func truncatedHash(s string) string {
	if s == "" {
		return "000000000000"
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func joinDecimal(vals []uint16) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, "-")
}

func joinHex(vals []uint16) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%04x", v)
	}
	return strings.Join(parts, ",")
}
