// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// FramingLayer is the outermost header found around a hello message.
type FramingLayer uint8

const (
	LayerBare FramingLayer = iota
	LayerHandshake
	LayerRecord
)

func (l FramingLayer) String() string {
	switch l {
	case LayerBare:
		return "bare"
	case LayerHandshake:
		return "handshake"
	case LayerRecord:
		return "record"
	}
	return fmt.Sprintf("FramingLayer(%d)", uint8(l))
}

// Framed is the result of Unwrap.
type Framed struct {
	Layer FramingLayer
	// HandshakeType is set for handshake and record framing.
	HandshakeType HandshakeType
	// RecordVersion is the legacy record version of record framing.
	RecordVersion uint16
	// Message is the bare hello, a sub-slice of the input.
	Message []byte
}

// ToHandshake prepends a handshake header (type and 24-bit length) to msg.
func ToHandshake(msg []byte, typ HandshakeType) ([]byte, error) {
	if len(msg) > maxHandshakeLen {
		return nil, fmt.Errorf("%w: handshake body of %d bytes", ErrLengthOutOfRange, len(msg))
	}
	return appendHandshake(make([]byte, 0, handshakeHeaderLen+len(msg)), typ, msg), nil
}

func appendHandshake(dst []byte, typ HandshakeType, msg []byte) []byte {
	b := cryptobyte.NewBuilder(dst)
	b.AddUint8(uint8(typ))
	b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(msg)
	})
	return b.BytesOrPanic()
}

// ToRecord prepends a plaintext record header to a handshake message. A zero
// version stands for the legacy record version 0x0301 sent by clients.
func ToRecord(handshake []byte, contentType ContentType, version uint16) ([]byte, error) {
	if len(handshake) > maxPlaintext {
		return nil, fmt.Errorf("%w: record payload of %d bytes", ErrLengthOutOfRange, len(handshake))
	}
	if version == 0 {
		version = defaultRecordLegacy
	}
	b := cryptobyte.NewBuilder(make([]byte, 0, recordHeaderLen+len(handshake)))
	b.AddUint8(uint8(contentType))
	b.AddUint16(version)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(handshake)
	})
	return b.Bytes()
}

// Unwrap strips handshake or record framing from buf. The interpretations
// are tried in this order, and the first that fits wins:
//
//  1. bare: buf starts with a TLS major version byte (0x03), as every
//     hello's legacy_version does.
//  2. handshake: a client_hello or server_hello type byte followed by a
//     24-bit length equal to the rest of buf.
//  3. record: the handshake content type, a record version 0x0301-0x0303
//     and a 16-bit length equal to the rest of buf, at most 2^14, whose
//     payload is itself a handshake message as in 2.
//
// Anything else fails with ErrUnrecognizedFraming. A hello split over
// several records is not reassembled.
func Unwrap(buf []byte) (Framed, error) {
	if len(buf) >= 2 && buf[0] == 0x03 {
		return Framed{Layer: LayerBare, Message: capped(buf)}, nil
	}
	if typ, msg, ok := unwrapHandshake(buf); ok {
		return Framed{Layer: LayerHandshake, HandshakeType: typ, Message: msg}, nil
	}
	s := cryptobyte.String(buf)
	var contentType uint8
	var version uint16
	var payload cryptobyte.String
	if s.ReadUint8(&contentType) && ContentType(contentType) == ContentTypeHandshake &&
		s.ReadUint16(&version) && version >= VersionTLS10 && version <= VersionTLS12 &&
		s.ReadUint16LengthPrefixed(&payload) && s.Empty() && len(payload) <= maxPlaintext {
		if typ, msg, ok := unwrapHandshake(payload); ok {
			return Framed{Layer: LayerRecord, HandshakeType: typ, RecordVersion: version, Message: msg}, nil
		}
	}
	return Framed{}, ErrUnrecognizedFraming
}

func unwrapHandshake(buf []byte) (HandshakeType, []byte, bool) {
	s := cryptobyte.String(buf)
	var typ uint8
	var msg cryptobyte.String
	if !s.ReadUint8(&typ) || !s.ReadUint24LengthPrefixed(&msg) || !s.Empty() {
		return 0, nil, false
	}
	switch HandshakeType(typ) {
	case HandshakeTypeClientHello, HandshakeTypeServerHello:
		return HandshakeType(typ), capped(msg), true
	}
	return 0, nil, false
}

// unwrapAs unwraps buf and checks that a framed message has the wanted type.
func unwrapAs(buf []byte, want HandshakeType) ([]byte, error) {
	f, err := Unwrap(buf)
	if err != nil {
		return nil, err
	}
	if f.Layer != LayerBare && f.HandshakeType != want {
		return nil, parseError("handshake_type", 0, fmt.Errorf("%w: got %s, want %s", ErrInvalidFixedValue, f.HandshakeType, want))
	}
	return f.Message, nil
}
