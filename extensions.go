// Copyright 2017 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// ExtensionType is a TLS extension code point.
type ExtensionType uint16

// TLS extension numbers
const (
	ExtensionServerName              ExtensionType = 0
	ExtensionStatusRequest           ExtensionType = 5
	ExtensionSupportedGroups         ExtensionType = 10 // supported_curves before TLS 1.3
	ExtensionECPointFormats          ExtensionType = 11
	ExtensionSignatureAlgorithms     ExtensionType = 13
	ExtensionALPN                    ExtensionType = 16
	ExtensionSCT                     ExtensionType = 18
	ExtensionPadding                 ExtensionType = 21 // RFC 7685
	ExtensionExtendedMasterSecret    ExtensionType = 23
	ExtensionCompressCertificate     ExtensionType = 27 // RFC 8879
	ExtensionRecordSizeLimit         ExtensionType = 28 // RFC 8449
	ExtensionSessionTicket           ExtensionType = 35
	ExtensionPreSharedKey            ExtensionType = 41
	ExtensionEarlyData               ExtensionType = 42
	ExtensionSupportedVersions       ExtensionType = 43
	ExtensionCookie                  ExtensionType = 44
	ExtensionPSKKeyExchangeModes     ExtensionType = 45
	ExtensionCertificateAuthorities  ExtensionType = 47
	ExtensionPostHandshakeAuth       ExtensionType = 49
	ExtensionSignatureAlgorithmsCert ExtensionType = 50
	ExtensionKeyShare                ExtensionType = 51
	ExtensionEncryptedClientHello    ExtensionType = 0xfe0d
	ExtensionRenegotiationInfo       ExtensionType = 0xff01
)

var extensionNames = map[ExtensionType]string{
	ExtensionServerName:              "server_name",
	ExtensionStatusRequest:           "status_request",
	ExtensionSupportedGroups:         "supported_groups",
	ExtensionECPointFormats:          "ec_point_formats",
	ExtensionSignatureAlgorithms:     "signature_algorithms",
	ExtensionALPN:                    "application_layer_protocol_negotiation",
	ExtensionSCT:                     "signed_certificate_timestamp",
	ExtensionPadding:                 "padding",
	ExtensionExtendedMasterSecret:    "extended_master_secret",
	ExtensionCompressCertificate:     "compress_certificate",
	ExtensionRecordSizeLimit:         "record_size_limit",
	ExtensionSessionTicket:           "session_ticket",
	ExtensionPreSharedKey:            "pre_shared_key",
	ExtensionEarlyData:               "early_data",
	ExtensionSupportedVersions:       "supported_versions",
	ExtensionCookie:                  "cookie",
	ExtensionPSKKeyExchangeModes:     "psk_key_exchange_modes",
	ExtensionCertificateAuthorities:  "certificate_authorities",
	ExtensionPostHandshakeAuth:       "post_handshake_auth",
	ExtensionSignatureAlgorithmsCert: "signature_algorithms_cert",
	ExtensionKeyShare:                "key_share",
	ExtensionEncryptedClientHello:    "encrypted_client_hello",
	ExtensionRenegotiationInfo:       "renegotiation_info",
}

func (t ExtensionType) String() string {
	if name, ok := extensionNames[t]; ok {
		return name
	}
	if isGREASEValue(uint16(t)) {
		return "GREASE"
	}
	return fmt.Sprintf("extension(%d)", uint16(t))
}

// HelloContext selects how context-dependent extensions are decoded.
// key_share, supported_versions and pre_shared_key have different shapes
// in a ClientHello, a ServerHello and a HelloRetryRequest.
type HelloContext uint8

const (
	ContextClientHello HelloContext = iota + 1
	ContextServerHello
	ContextHelloRetryRequest
)

func (c HelloContext) String() string {
	switch c {
	case ContextClientHello:
		return "ClientHello"
	case ContextServerHello:
		return "ServerHello"
	case ContextHelloRetryRequest:
		return "HelloRetryRequest"
	}
	return fmt.Sprintf("HelloContext(%d)", uint8(c))
}

// Extension is one raw extension of a parsed hello.
type Extension struct {
	Type ExtensionType
	// Data is the extension payload, a sub-slice of the message buffer.
	Data []byte
	// Offset is the position of the extension's type field in the bare
	// message.
	Offset int
}

// ExtensionValue is a decoded extension payload. The set of implementations
// is closed: one struct per recognized extension shape plus
// UnknownExtension for everything else.
type ExtensionValue interface {
	ExtensionType() ExtensionType
	marshal(b *cryptobyte.Builder) error
}

// Bounds of the vectors inside extension payloads.
var (
	namedGroupListBounds   = vectorBounds{2, 2, 1<<16 - 2}
	keyExchangeBounds      = vectorBounds{2, 1, 1<<16 - 1}
	clientSharesBounds     = vectorBounds{2, 0, 1<<16 - 1}
	versionListBounds      = vectorBounds{1, 2, 254}
	schemeListBounds       = vectorBounds{2, 2, 1<<16 - 2}
	serverNameListBounds   = vectorBounds{2, 1, 1<<16 - 1}
	hostNameBounds         = vectorBounds{2, 1, 1<<16 - 1}
	pskModesBounds         = vectorBounds{1, 1, 255}
	cookieBounds           = vectorBounds{2, 1, 1<<16 - 1}
	protocolNameListBounds = vectorBounds{2, 2, 1<<16 - 1}
	protocolNameBounds     = vectorBounds{1, 1, 255}
	pskIdentityBounds      = vectorBounds{2, 1, 1<<16 - 1}
)

// minRecordSizeLimit is the smallest record_size_limit allowed by RFC 8449.
const minRecordSizeLimit = 64

// SupportedGroups is the supported_groups extension (RFC 8446, Section 4.2.7).
type SupportedGroups struct {
	Groups []CurveID
}

func (*SupportedGroups) ExtensionType() ExtensionType { return ExtensionSupportedGroups }

func (e *SupportedGroups) marshal(b *cryptobyte.Builder) error {
	if err := namedGroupListBounds.check("named_group_list", 2*len(e.Groups)); err != nil {
		return err
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, g := range e.Groups {
			b.AddUint16(uint16(g))
		}
	})
	return nil
}

// KeyShareEntry is one (group, key_exchange) pair (RFC 8446, Section 4.2.8).
type KeyShareEntry struct {
	Group       CurveID
	KeyExchange []byte
}

func (e KeyShareEntry) check() error {
	return keyExchangeBounds.check("key_exchange", len(e.KeyExchange))
}

func (e KeyShareEntry) add(b *cryptobyte.Builder) {
	b.AddUint16(uint16(e.Group))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(e.KeyExchange)
	})
}

func readKeyShareEntry(s *cryptobyte.String) (KeyShareEntry, bool) {
	var group uint16
	var key cryptobyte.String
	if !s.ReadUint16(&group) || !s.ReadUint16LengthPrefixed(&key) || key.Empty() {
		return KeyShareEntry{}, false
	}
	return KeyShareEntry{Group: CurveID(group), KeyExchange: capped(key)}, true
}

// KeyShareClientHello is the key_share extension of a ClientHello.
type KeyShareClientHello struct {
	Shares []KeyShareEntry
}

func (*KeyShareClientHello) ExtensionType() ExtensionType { return ExtensionKeyShare }

func (e *KeyShareClientHello) marshal(b *cryptobyte.Builder) error {
	total := 0
	seen := make(map[CurveID]bool, len(e.Shares))
	for _, ks := range e.Shares {
		if err := ks.check(); err != nil {
			return err
		}
		if seen[ks.Group] {
			return fmt.Errorf("%w: key share for %s offered twice", ErrInvalidFixedValue, ks.Group)
		}
		seen[ks.Group] = true
		total += 4 + len(ks.KeyExchange)
	}
	if err := clientSharesBounds.check("client_shares", total); err != nil {
		return err
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, ks := range e.Shares {
			ks.add(b)
		}
	})
	return nil
}

// KeyShareServerHello is the key_share extension of a ServerHello.
type KeyShareServerHello struct {
	Share KeyShareEntry
}

func (*KeyShareServerHello) ExtensionType() ExtensionType { return ExtensionKeyShare }

func (e *KeyShareServerHello) marshal(b *cryptobyte.Builder) error {
	if err := e.Share.check(); err != nil {
		return err
	}
	e.Share.add(b)
	return nil
}

// KeyShareHelloRetryRequest is the key_share extension of a
// HelloRetryRequest: the group the client must retry with, and no key.
type KeyShareHelloRetryRequest struct {
	SelectedGroup CurveID
}

func (*KeyShareHelloRetryRequest) ExtensionType() ExtensionType { return ExtensionKeyShare }

func (e *KeyShareHelloRetryRequest) marshal(b *cryptobyte.Builder) error {
	b.AddUint16(uint16(e.SelectedGroup))
	return nil
}

// SupportedVersionsClientHello lists the versions a client offers.
type SupportedVersionsClientHello struct {
	Versions []uint16
}

func (*SupportedVersionsClientHello) ExtensionType() ExtensionType {
	return ExtensionSupportedVersions
}

func (e *SupportedVersionsClientHello) marshal(b *cryptobyte.Builder) error {
	if err := versionListBounds.check("versions", 2*len(e.Versions)); err != nil {
		return err
	}
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, v := range e.Versions {
			b.AddUint16(v)
		}
	})
	return nil
}

// SupportedVersionsServerHello carries the version selected by a server.
type SupportedVersionsServerHello struct {
	SelectedVersion uint16
}

func (*SupportedVersionsServerHello) ExtensionType() ExtensionType {
	return ExtensionSupportedVersions
}

func (e *SupportedVersionsServerHello) marshal(b *cryptobyte.Builder) error {
	b.AddUint16(e.SelectedVersion)
	return nil
}

// SignatureAlgorithms is the signature_algorithms extension.
type SignatureAlgorithms struct {
	Schemes []SignatureScheme
}

func (*SignatureAlgorithms) ExtensionType() ExtensionType { return ExtensionSignatureAlgorithms }

func (e *SignatureAlgorithms) marshal(b *cryptobyte.Builder) error {
	return marshalSchemes(b, e.Schemes)
}

// SignatureAlgorithmsCert is the signature_algorithms_cert extension.
type SignatureAlgorithmsCert struct {
	Schemes []SignatureScheme
}

func (*SignatureAlgorithmsCert) ExtensionType() ExtensionType {
	return ExtensionSignatureAlgorithmsCert
}

func (e *SignatureAlgorithmsCert) marshal(b *cryptobyte.Builder) error {
	return marshalSchemes(b, e.Schemes)
}

func marshalSchemes(b *cryptobyte.Builder, schemes []SignatureScheme) error {
	if err := schemeListBounds.check("supported_signature_algorithms", 2*len(schemes)); err != nil {
		return err
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, s := range schemes {
			b.AddUint16(uint16(s))
		}
	})
	return nil
}

// Server name types. See RFC 6066, Section 3.
const nameTypeHostName uint8 = 0

// ServerName is one entry of the server_name extension.
type ServerName struct {
	NameType uint8
	Name     []byte
}

// ServerNameList is the server_name extension (RFC 6066, Section 3). An
// empty list encodes to empty extension data, as servers acknowledge it.
type ServerNameList struct {
	Names []ServerName
}

func (*ServerNameList) ExtensionType() ExtensionType { return ExtensionServerName }

func (e *ServerNameList) marshal(b *cryptobyte.Builder) error {
	if len(e.Names) == 0 {
		return nil
	}
	total := 0
	for _, n := range e.Names {
		if err := hostNameBounds.check("server_name", len(n.Name)); err != nil {
			return err
		}
		total += 3 + len(n.Name)
	}
	if err := serverNameListBounds.check("server_name_list", total); err != nil {
		return err
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, n := range e.Names {
			b.AddUint8(n.NameType)
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(n.Name)
			})
		}
	})
	return nil
}

// HostNames returns the host_name entries as strings.
func (e *ServerNameList) HostNames() []string {
	var names []string
	for _, n := range e.Names {
		if n.NameType == nameTypeHostName {
			names = append(names, string(n.Name))
		}
	}
	return names
}

// PSKKeyExchangeModes is the psk_key_exchange_modes extension.
type PSKKeyExchangeModes struct {
	Modes []uint8
}

func (*PSKKeyExchangeModes) ExtensionType() ExtensionType { return ExtensionPSKKeyExchangeModes }

func (e *PSKKeyExchangeModes) marshal(b *cryptobyte.Builder) error {
	if err := pskModesBounds.check("ke_modes", len(e.Modes)); err != nil {
		return err
	}
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(e.Modes)
	})
	return nil
}

// Cookie is the cookie extension (RFC 8446, Section 4.2.2).
type Cookie struct {
	Cookie []byte
}

func (*Cookie) ExtensionType() ExtensionType { return ExtensionCookie }

func (e *Cookie) marshal(b *cryptobyte.Builder) error {
	if err := cookieBounds.check("cookie", len(e.Cookie)); err != nil {
		return err
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(e.Cookie)
	})
	return nil
}

// RecordSizeLimit is the record_size_limit extension (RFC 8449).
type RecordSizeLimit struct {
	Limit uint16
}

func (*RecordSizeLimit) ExtensionType() ExtensionType { return ExtensionRecordSizeLimit }

func (e *RecordSizeLimit) marshal(b *cryptobyte.Builder) error {
	if e.Limit < minRecordSizeLimit {
		return fmt.Errorf("%w: record_size_limit %d below %d", ErrLengthOutOfRange, e.Limit, minRecordSizeLimit)
	}
	b.AddUint16(e.Limit)
	return nil
}

// EarlyData is the empty early_data extension of a ClientHello.
type EarlyData struct{}

func (*EarlyData) ExtensionType() ExtensionType { return ExtensionEarlyData }

func (*EarlyData) marshal(*cryptobyte.Builder) error { return nil }

// Padding is the padding extension (RFC 7685). Its contents carry no meaning.
type Padding struct {
	Data []byte
}

func (*Padding) ExtensionType() ExtensionType { return ExtensionPadding }

func (e *Padding) marshal(b *cryptobyte.Builder) error {
	b.AddBytes(e.Data)
	return nil
}

// PSKIdentity is one offered PSK (RFC 8446, Section 4.2.11).
type PSKIdentity struct {
	Identity            []byte
	ObfuscatedTicketAge uint32
}

// PreSharedKey is the pre_shared_key extension of a ClientHello. Binders is
// empty while the message is being prepared for binder computation; the
// binders list is then omitted from the encoding entirely.
type PreSharedKey struct {
	Identities []PSKIdentity
	Binders    [][]byte
}

func (*PreSharedKey) ExtensionType() ExtensionType { return ExtensionPreSharedKey }

func (e *PreSharedKey) marshal(b *cryptobyte.Builder) error {
	total := 0
	for _, id := range e.Identities {
		if err := pskIdentityBounds.check("identity", len(id.Identity)); err != nil {
			return err
		}
		total += 2 + len(id.Identity) + 4
	}
	if err := pskIdentitiesBounds.check("identities", total); err != nil {
		return err
	}
	var binders []byte
	if len(e.Binders) > 0 {
		if len(e.Binders) != len(e.Identities) {
			return fmt.Errorf("%w: %d binders for %d identities", ErrLengthOutOfRange, len(e.Binders), len(e.Identities))
		}
		var err error
		if binders, err = EncodePSKBinders(e.Binders); err != nil {
			return err
		}
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, id := range e.Identities {
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(id.Identity)
			})
			b.AddUint32(id.ObfuscatedTicketAge)
		}
	})
	b.AddBytes(binders)
	return nil
}

// PreSharedKeyServerHello is the pre_shared_key extension of a ServerHello.
type PreSharedKeyServerHello struct {
	SelectedIdentity uint16
}

func (*PreSharedKeyServerHello) ExtensionType() ExtensionType { return ExtensionPreSharedKey }

func (e *PreSharedKeyServerHello) marshal(b *cryptobyte.Builder) error {
	b.AddUint16(e.SelectedIdentity)
	return nil
}

// ALPN is the application_layer_protocol_negotiation extension (RFC 7301).
type ALPN struct {
	Protocols []string
}

func (*ALPN) ExtensionType() ExtensionType { return ExtensionALPN }

func (e *ALPN) marshal(b *cryptobyte.Builder) error {
	total := 0
	for _, p := range e.Protocols {
		if err := protocolNameBounds.check("protocol_name", len(p)); err != nil {
			return err
		}
		total += 1 + len(p)
	}
	if err := protocolNameListBounds.check("protocol_name_list", total); err != nil {
		return err
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, p := range e.Protocols {
			b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes([]byte(p))
			})
		}
	})
	return nil
}

// UnknownExtension carries the opaque payload of an extension this package
// does not interpret. It is also how callers emit arbitrary raw extensions.
type UnknownExtension struct {
	Type ExtensionType
	Data []byte
}

func (e *UnknownExtension) ExtensionType() ExtensionType { return e.Type }

func (e *UnknownExtension) marshal(b *cryptobyte.Builder) error {
	b.AddBytes(e.Data)
	return nil
}

// MarshalExtensionData returns the payload of v, without the type and
// length header.
func MarshalExtensionData(v ExtensionValue) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil extension", ErrInvalidFixedValue)
	}
	b := cryptobyte.NewBuilder(nil)
	if err := v.marshal(b); err != nil {
		return nil, err
	}
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	if err := extensionDataBounds.check(v.ExtensionType().String(), len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// EncodeExtension returns v as a complete extension: type(2) | length(2) | data.
func EncodeExtension(v ExtensionValue) ([]byte, error) {
	data, err := MarshalExtensionData(v)
	if err != nil {
		return nil, err
	}
	b := cryptobyte.NewBuilder(make([]byte, 0, 4+len(data)))
	b.AddUint16(uint16(v.ExtensionType()))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(data)
	})
	return b.Bytes()
}

// DecodeExtension decodes the payload of an extension of type typ found in
// a message of the given context. Unrecognized types decode to
// *UnknownExtension. Byte fields of the result alias data.
//
// A payload that violates the structure of its type yields an
// *ExtensionDecodeError.
func DecodeExtension(typ ExtensionType, data []byte, ctx HelloContext) (ExtensionValue, error) {
	if ctx < ContextClientHello || ctx > ContextHelloRetryRequest {
		return nil, decodeError(typ, "unknown hello context %d", uint8(ctx))
	}
	s := cryptobyte.String(data)
	var v ExtensionValue
	var err error
	switch typ {
	case ExtensionSupportedGroups:
		v, err = decodeSupportedGroups(&s)
	case ExtensionKeyShare:
		v, err = decodeKeyShare(&s, ctx)
	case ExtensionSupportedVersions:
		v, err = decodeSupportedVersions(&s, ctx)
	case ExtensionSignatureAlgorithms:
		var schemes []SignatureScheme
		schemes, err = decodeSchemes(&s, typ)
		v = &SignatureAlgorithms{Schemes: schemes}
	case ExtensionSignatureAlgorithmsCert:
		var schemes []SignatureScheme
		schemes, err = decodeSchemes(&s, typ)
		v = &SignatureAlgorithmsCert{Schemes: schemes}
	case ExtensionServerName:
		v, err = decodeServerName(&s)
	case ExtensionPSKKeyExchangeModes:
		var modes cryptobyte.String
		if !s.ReadUint8LengthPrefixed(&modes) || modes.Empty() {
			return nil, decodeError(typ, "malformed ke_modes list")
		}
		v = &PSKKeyExchangeModes{Modes: capped(modes)}
	case ExtensionCookie:
		var cookie cryptobyte.String
		if !s.ReadUint16LengthPrefixed(&cookie) || cookie.Empty() {
			return nil, decodeError(typ, "malformed cookie")
		}
		v = &Cookie{Cookie: capped(cookie)}
	case ExtensionRecordSizeLimit:
		var limit uint16
		if !s.ReadUint16(&limit) {
			return nil, decodeError(typ, "want 2 bytes, have %d", len(data))
		}
		if limit < minRecordSizeLimit {
			return nil, decodeError(typ, "limit %d below %d", limit, minRecordSizeLimit)
		}
		v = &RecordSizeLimit{Limit: limit}
	case ExtensionEarlyData:
		v = &EarlyData{}
	case ExtensionPadding:
		v = &Padding{Data: capped(data)}
		s = nil
	case ExtensionPreSharedKey:
		v, err = decodePreSharedKey(&s, ctx)
	case ExtensionALPN:
		v, err = decodeALPN(&s)
	default:
		v = &UnknownExtension{Type: typ, Data: capped(data)}
		s = nil
	}
	if err != nil {
		return nil, err
	}
	if !s.Empty() {
		return nil, decodeError(typ, "%d bytes of trailing data", len(s))
	}
	return v, nil
}

func decodeSupportedGroups(s *cryptobyte.String) (ExtensionValue, error) {
	list, ok := readUint16List(s, namedGroupListBounds.min, namedGroupListBounds.max)
	if !ok {
		return nil, decodeError(ExtensionSupportedGroups, "malformed named_group_list")
	}
	groups := make([]CurveID, len(list))
	for i, g := range list {
		groups[i] = CurveID(g)
	}
	return &SupportedGroups{Groups: groups}, nil
}

func decodeKeyShare(s *cryptobyte.String, ctx HelloContext) (ExtensionValue, error) {
	switch ctx {
	case ContextHelloRetryRequest:
		var group uint16
		if !s.ReadUint16(&group) {
			return nil, decodeError(ExtensionKeyShare, "missing selected_group")
		}
		return &KeyShareHelloRetryRequest{SelectedGroup: CurveID(group)}, nil
	case ContextServerHello:
		ks, ok := readKeyShareEntry(s)
		if !ok {
			return nil, decodeError(ExtensionKeyShare, "malformed server_share")
		}
		return &KeyShareServerHello{Share: ks}, nil
	}
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) {
		return nil, decodeError(ExtensionKeyShare, "malformed client_shares")
	}
	var shares []KeyShareEntry
	for !list.Empty() {
		ks, ok := readKeyShareEntry(&list)
		if !ok {
			return nil, decodeError(ExtensionKeyShare, "malformed client_shares entry")
		}
		for _, prev := range shares {
			if prev.Group == ks.Group {
				return nil, decodeError(ExtensionKeyShare, "two shares for %s", ks.Group)
			}
		}
		shares = append(shares, ks)
	}
	return &KeyShareClientHello{Shares: shares}, nil
}

func decodeSupportedVersions(s *cryptobyte.String, ctx HelloContext) (ExtensionValue, error) {
	if ctx != ContextClientHello {
		var v uint16
		if !s.ReadUint16(&v) {
			return nil, decodeError(ExtensionSupportedVersions, "missing selected_version")
		}
		return &SupportedVersionsServerHello{SelectedVersion: v}, nil
	}
	var list cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&list) || len(list) < versionListBounds.min || len(list)%2 != 0 {
		return nil, decodeError(ExtensionSupportedVersions, "malformed versions list")
	}
	versions := make([]uint16, 0, len(list)/2)
	for !list.Empty() {
		var v uint16
		list.ReadUint16(&v)
		versions = append(versions, v)
	}
	return &SupportedVersionsClientHello{Versions: versions}, nil
}

func decodeSchemes(s *cryptobyte.String, typ ExtensionType) ([]SignatureScheme, error) {
	list, ok := readUint16List(s, schemeListBounds.min, schemeListBounds.max)
	if !ok {
		return nil, decodeError(typ, "malformed supported_signature_algorithms")
	}
	schemes := make([]SignatureScheme, len(list))
	for i, v := range list {
		schemes[i] = SignatureScheme(v)
	}
	return schemes, nil
}

func decodeServerName(s *cryptobyte.String) (ExtensionValue, error) {
	if s.Empty() {
		return &ServerNameList{}, nil
	}
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) || list.Empty() {
		return nil, decodeError(ExtensionServerName, "malformed server_name_list")
	}
	var names []ServerName
	for !list.Empty() {
		var nameType uint8
		var name cryptobyte.String
		if !list.ReadUint8(&nameType) || !list.ReadUint16LengthPrefixed(&name) || name.Empty() {
			return nil, decodeError(ExtensionServerName, "malformed server name entry")
		}
		for _, prev := range names {
			if prev.NameType == nameType {
				return nil, decodeError(ExtensionServerName, "multiple names of type %d", nameType)
			}
		}
		names = append(names, ServerName{NameType: nameType, Name: capped(name)})
	}
	return &ServerNameList{Names: names}, nil
}

func decodePreSharedKey(s *cryptobyte.String, ctx HelloContext) (ExtensionValue, error) {
	switch ctx {
	case ContextHelloRetryRequest:
		return nil, decodeError(ExtensionPreSharedKey, "not permitted in a HelloRetryRequest")
	case ContextServerHello:
		var selected uint16
		if !s.ReadUint16(&selected) {
			return nil, decodeError(ExtensionPreSharedKey, "missing selected_identity")
		}
		return &PreSharedKeyServerHello{SelectedIdentity: selected}, nil
	}
	var identities cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&identities) || len(identities) < pskIdentitiesBounds.min {
		return nil, decodeError(ExtensionPreSharedKey, "malformed identities list")
	}
	psk := &PreSharedKey{}
	for !identities.Empty() {
		var id PSKIdentity
		var label cryptobyte.String
		if !identities.ReadUint16LengthPrefixed(&label) || label.Empty() ||
			!identities.ReadUint32(&id.ObfuscatedTicketAge) {
			return nil, decodeError(ExtensionPreSharedKey, "malformed identity")
		}
		id.Identity = capped(label)
		psk.Identities = append(psk.Identities, id)
	}
	if s.Empty() {
		// Binders not yet attached.
		return psk, nil
	}
	var binders cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&binders) || len(binders) < pskBindersBounds.min {
		return nil, decodeError(ExtensionPreSharedKey, "malformed binders list")
	}
	for !binders.Empty() {
		var binder cryptobyte.String
		if !binders.ReadUint8LengthPrefixed(&binder) || len(binder) < pskBinderBounds.min {
			return nil, decodeError(ExtensionPreSharedKey, "malformed binder")
		}
		psk.Binders = append(psk.Binders, capped(binder))
	}
	if len(psk.Binders) != len(psk.Identities) {
		return nil, decodeError(ExtensionPreSharedKey, "%d binders for %d identities", len(psk.Binders), len(psk.Identities))
	}
	return psk, nil
}

func decodeALPN(s *cryptobyte.String) (ExtensionValue, error) {
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) || list.Empty() {
		return nil, decodeError(ExtensionALPN, "malformed protocol_name_list")
	}
	var protocols []string
	for !list.Empty() {
		var proto cryptobyte.String
		if !list.ReadUint8LengthPrefixed(&proto) || proto.Empty() {
			return nil, decodeError(ExtensionALPN, "malformed protocol name")
		}
		protocols = append(protocols, string(proto))
	}
	return &ALPN{Protocols: protocols}, nil
}
