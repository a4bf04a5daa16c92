// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mar1xlatino/tlshello"
	helloerrors "github.com/mar1xlatino/tlshello/errors"
)

// maxInput bounds what is read from a file or stdin: a single record,
// hex-encoded, with room for whitespace.
const maxInput = 1 << 17

// readInput reads path, or stdin when path is "" or "-", and decodes hex
// when the input looks like hex.
func readInput(e *env, path string) ([]byte, error) {
	var r io.Reader = e.stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInput+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInput {
		return nil, fmt.Errorf("input longer than %d bytes", maxInput)
	}
	return decodeInput(data)
}

// decodeInput returns data hex-decoded if it consists of hex digits,
// separators and an optional 0x prefix, and as is otherwise.
func decodeInput(data []byte) ([]byte, error) {
	text := strings.TrimSpace(string(data))
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	var digits strings.Builder
	for _, c := range text {
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ':':
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			digits.WriteRune(c)
		default:
			return data, nil
		}
	}
	if digits.Len() == 0 {
		return nil, errors.New("empty input")
	}
	out, err := hex.DecodeString(digits.String())
	if err != nil {
		return nil, fmt.Errorf("decode hex input: %w", err)
	}
	return out, nil
}

// helloReport is the JSON form of a decoded hello.
type helloReport struct {
	Message            string                      `json:"message"`
	Framing            string                      `json:"framing"`
	RecordVersion      string                      `json:"record_version,omitempty"`
	Length             int                         `json:"length"`
	Version            string                      `json:"version"`
	Random             string                      `json:"random"`
	SessionID          string                      `json:"session_id"`
	HelloRetryRequest  bool                        `json:"hello_retry_request,omitempty"`
	CipherSuites       []string                    `json:"cipher_suites,omitempty"`
	CipherSuite        string                      `json:"cipher_suite,omitempty"`
	CompressionMethods []uint8                     `json:"compression_methods,omitempty"`
	Extensions         []extensionReport           `json:"extensions"`
	ServerNames        []string                    `json:"server_names,omitempty"`
	ALPNProtocols      []string                    `json:"alpn_protocols,omitempty"`
	SupportedVersions  []string                    `json:"supported_versions,omitempty"`
	SupportedGroups    []string                    `json:"supported_groups,omitempty"`
	KeyShares          []keyShareReport            `json:"key_shares,omitempty"`
	SelectedGroup      string                      `json:"selected_group,omitempty"`
	PSKIdentities      int                         `json:"psk_identities,omitempty"`
	PSKBinders         int                         `json:"psk_binders,omitempty"`
	Fingerprint        *tlshello.Fingerprint       `json:"fingerprint,omitempty"`
	ServerFingerprint  *tlshello.ServerFingerprint `json:"server_fingerprint,omitempty"`
}

type extensionReport struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Length int    `json:"length"`
	Offset int    `json:"offset"`
}

type keyShareReport struct {
	Group  string `json:"group"`
	Length int    `json:"length"`
}

func runParse(e *env, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	in := fs.String("in", "", "input file (default: stdin)")
	kind := fs.String("type", "auto", "message type: auto, client or server")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := readInput(e, *in)
	if err != nil {
		return err
	}
	report, err := parseHello(data, *kind)
	if err != nil {
		return helloerrors.New("cannot decode input").Base(err).AtError()
	}
	e.log.Debug().Str("message", report.Message).Str("framing", report.Framing).Int("length", report.Length).Msg("parsed")

	if *asJSON {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(e.stdout, report)
	return nil
}

// parseHello decodes data as the given kind of hello. With kind "auto" the
// handshake type decides for framed input, and a bare message is tried as
// a ClientHello first.
func parseHello(data []byte, kind string) (*helloReport, error) {
	framed, err := tlshello.Unwrap(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "client":
		return clientReport(data, framed)
	case "server":
		return serverReport(data, framed)
	case "auto":
	default:
		return nil, fmt.Errorf("unknown message type %q", kind)
	}

	switch {
	case framed.Layer != tlshello.LayerBare && framed.HandshakeType == tlshello.HandshakeTypeServerHello:
		return serverReport(data, framed)
	case framed.Layer != tlshello.LayerBare:
		return clientReport(data, framed)
	}
	report, clientErr := clientReport(data, framed)
	if clientErr == nil {
		return report, nil
	}
	report, err = serverReport(data, framed)
	if err != nil {
		return nil, fmt.Errorf("neither a ClientHello (%v) nor a ServerHello (%w)", clientErr, err)
	}
	return report, nil
}

func newReport(message string, framed tlshello.Framed) *helloReport {
	r := &helloReport{
		Message: message,
		Framing: framed.Layer.String(),
		Length:  len(framed.Message),
	}
	if framed.Layer == tlshello.LayerRecord {
		r.RecordVersion = fmt.Sprintf("0x%04x", framed.RecordVersion)
	}
	return r
}

func clientReport(data []byte, framed tlshello.Framed) (*helloReport, error) {
	ch, err := tlshello.ParseClientHello(data)
	if err != nil {
		return nil, err
	}
	r := newReport("ClientHello", framed)
	r.Version = tlshello.VersionName(ch.Version())
	r.Random = hex.EncodeToString(ch.Random())
	r.SessionID = hex.EncodeToString(ch.SessionID())
	for _, suite := range ch.CipherSuites() {
		r.CipherSuites = append(r.CipherSuites, fmt.Sprintf("0x%04x", suite))
	}
	r.CompressionMethods = ch.CompressionMethods()
	r.Extensions = extensionReports(ch.Extensions())

	// Typed accessors fail on absent or malformed payloads; the raw
	// extension list above still shows those.
	r.ServerNames, _ = ch.ServerNames()
	r.ALPNProtocols, _ = ch.ALPNProtocols()
	if versions, err := ch.SupportedVersions(); err == nil {
		for _, v := range versions {
			r.SupportedVersions = append(r.SupportedVersions, tlshello.VersionName(v))
		}
	}
	if groups, err := ch.SupportedGroups(); err == nil {
		for _, g := range groups {
			r.SupportedGroups = append(r.SupportedGroups, g.String())
		}
	}
	if shares, err := ch.KeyShares(); err == nil {
		for _, ks := range shares {
			r.KeyShares = append(r.KeyShares, keyShareReport{Group: ks.Group.String(), Length: len(ks.KeyExchange)})
		}
	}
	if psk, err := ch.PreSharedKey(); err == nil {
		r.PSKIdentities = len(psk.Identities)
		r.PSKBinders = len(psk.Binders)
	}
	r.Fingerprint = ch.Fingerprint()
	return r, nil
}

func serverReport(data []byte, framed tlshello.Framed) (*helloReport, error) {
	sh, err := tlshello.ParseServerHello(data)
	if err != nil {
		return nil, err
	}
	r := newReport("ServerHello", framed)
	if sh.IsHelloRetryRequest() {
		r.Message = "HelloRetryRequest"
	}
	r.HelloRetryRequest = sh.IsHelloRetryRequest()
	r.Version = tlshello.VersionName(sh.Version())
	r.Random = hex.EncodeToString(sh.Random())
	r.SessionID = hex.EncodeToString(sh.SessionID())
	r.CipherSuite = fmt.Sprintf("0x%04x", sh.CipherSuite())
	r.Extensions = extensionReports(sh.Extensions())
	if v, err := sh.SelectedVersion(); err == nil {
		r.SupportedVersions = []string{tlshello.VersionName(v)}
	}
	if sh.IsHelloRetryRequest() {
		if g, err := sh.SelectedGroup(); err == nil {
			r.SelectedGroup = g.String()
		}
	} else if ks, err := sh.KeyShare(); err == nil {
		r.KeyShares = []keyShareReport{{Group: ks.Group.String(), Length: len(ks.KeyExchange)}}
	}
	r.ServerFingerprint = sh.Fingerprint()
	return r, nil
}

func extensionReports(exts []tlshello.Extension) []extensionReport {
	out := make([]extensionReport, len(exts))
	for i, ext := range exts {
		out[i] = extensionReport{
			Type:   ext.Type.String(),
			ID:     fmt.Sprintf("0x%04x", uint16(ext.Type)),
			Length: len(ext.Data),
			Offset: ext.Offset,
		}
	}
	return out
}

func printReport(w io.Writer, r *helloReport) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s (%s framing, %d bytes)\n", r.Message, r.Framing, r.Length)
	if r.RecordVersion != "" {
		fmt.Fprintf(&b, "  record version:  %s\n", r.RecordVersion)
	}
	fmt.Fprintf(&b, "  version:         %s\n", r.Version)
	fmt.Fprintf(&b, "  random:          %s\n", r.Random)
	fmt.Fprintf(&b, "  session id:      %s\n", r.SessionID)
	if r.CipherSuite != "" {
		fmt.Fprintf(&b, "  cipher suite:    %s\n", r.CipherSuite)
	} else {
		fmt.Fprintf(&b, "  cipher suites:   %s\n", strings.Join(r.CipherSuites, " "))
	}
	fmt.Fprintf(&b, "  extensions:      %d\n", len(r.Extensions))
	for _, ext := range r.Extensions {
		fmt.Fprintf(&b, "    %s %-28s %5d bytes at %d\n", ext.ID, ext.Type, ext.Length, ext.Offset)
	}
	if len(r.ServerNames) > 0 {
		fmt.Fprintf(&b, "  server names:    %s\n", strings.Join(r.ServerNames, " "))
	}
	if len(r.ALPNProtocols) > 0 {
		fmt.Fprintf(&b, "  alpn:            %s\n", strings.Join(r.ALPNProtocols, " "))
	}
	if len(r.SupportedVersions) > 0 {
		fmt.Fprintf(&b, "  versions:        %s\n", strings.Join(r.SupportedVersions, " "))
	}
	if len(r.SupportedGroups) > 0 {
		fmt.Fprintf(&b, "  groups:          %s\n", strings.Join(r.SupportedGroups, " "))
	}
	for _, ks := range r.KeyShares {
		fmt.Fprintf(&b, "  key share:       %s (%d bytes)\n", ks.Group, ks.Length)
	}
	if r.SelectedGroup != "" {
		fmt.Fprintf(&b, "  selected group:  %s\n", r.SelectedGroup)
	}
	if r.PSKIdentities > 0 {
		fmt.Fprintf(&b, "  psk:             %d identities, %d binders\n", r.PSKIdentities, r.PSKBinders)
	}
	if fp := r.Fingerprint; fp != nil {
		fmt.Fprintf(&b, "  ja3:             %s\n", fp.JA3)
		fmt.Fprintf(&b, "  ja3n:            %s\n", fp.JA3n)
		fmt.Fprintf(&b, "  ja4:             %s\n", fp.JA4)
		fmt.Fprintf(&b, "  ja4o:            %s\n", fp.JA4o)
	}
	if fp := r.ServerFingerprint; fp != nil {
		fmt.Fprintf(&b, "  ja4s:            %s\n", fp.JA4S)
		fmt.Fprintf(&b, "  ja4s_r:          %s\n", fp.JA4Sr)
	}
	w.Write(b.Bytes())
}
