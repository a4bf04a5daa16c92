// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// vectorBounds describes a TLS vector<min..max> with a width-byte length prefix.
type vectorBounds struct {
	width    int
	min, max int
}

// Field bounds from RFC 8446, Section 4.1.2, 4.1.3 and 4.2.
var (
	sessionIDBounds        = vectorBounds{1, 0, 32}
	cipherSuitesBounds     = vectorBounds{2, 2, 1<<16 - 2}
	compressionBounds      = vectorBounds{1, 1, 1}
	clientExtensionsBounds = vectorBounds{2, 8, 1<<16 - 2}
	serverExtensionsBounds = vectorBounds{2, 0, 1<<16 - 1}
	extensionDataBounds    = vectorBounds{2, 0, 1<<16 - 1}
	pskIdentitiesBounds    = vectorBounds{2, 7, 1<<16 - 1}
	pskBindersBounds       = vectorBounds{2, 33, 1<<16 - 1}
	pskBinderBounds        = vectorBounds{1, 32, 255}
)

// ReadVector reads a vector with a width-byte big-endian length prefix
// (width is 1, 2 or 3) starting at offset in buf.
//
// It returns the declared length and the vector contents as a sub-slice of
// buf whose capacity is capped at its length. ErrLengthOutOfRange is
// returned when the length is outside [min, max]; ErrTruncated when the
// prefix or the contents run past the end of buf.
func ReadVector(buf []byte, offset, width, min, max int) (int, []byte, error) {
	if offset < 0 || offset > len(buf) {
		return 0, nil, ErrTruncated
	}
	s := cryptobyte.String(buf[offset:])
	var length int
	switch width {
	case 1:
		var v uint8
		if !s.ReadUint8(&v) {
			return 0, nil, ErrTruncated
		}
		length = int(v)
	case 2:
		var v uint16
		if !s.ReadUint16(&v) {
			return 0, nil, ErrTruncated
		}
		length = int(v)
	case 3:
		var v uint32
		if !s.ReadUint24(&v) {
			return 0, nil, ErrTruncated
		}
		length = int(v)
	default:
		return 0, nil, fmt.Errorf("%w: vector prefix width %d", ErrLengthOutOfRange, width)
	}
	if length < min || length > max {
		return length, nil, ErrLengthOutOfRange
	}
	start := offset + width
	end := start + length
	if end > len(buf) {
		return length, nil, ErrTruncated
	}
	return length, buf[start:end:end], nil
}

func (v vectorBounds) read(buf []byte, offset int) (int, []byte, error) {
	return ReadVector(buf, offset, v.width, v.min, v.max)
}

// WriteVector concatenates items and prepends their total length as a
// width-byte big-endian prefix. Nothing is written when the total is outside
// [min, max].
func WriteVector(width, min, max int, items ...[]byte) ([]byte, error) {
	total := 0
	for _, item := range items {
		total += len(item)
	}
	if width < 1 || width > 3 {
		return nil, fmt.Errorf("%w: vector prefix width %d", ErrLengthOutOfRange, width)
	}
	if total < min || total > max || total >= 1<<(8*width) {
		return nil, ErrLengthOutOfRange
	}
	b := cryptobyte.NewBuilder(make([]byte, 0, width+total))
	addVector(b, width, func(b *cryptobyte.Builder) {
		for _, item := range items {
			b.AddBytes(item)
		}
	})
	return b.Bytes()
}

// check reports whether n fits the bounds, naming field on failure.
func (v vectorBounds) check(field string, n int) error {
	if n < v.min || n > v.max {
		return fmt.Errorf("%w: %s length %d not in [%d, %d]", ErrLengthOutOfRange, field, n, v.min, v.max)
	}
	return nil
}

func addVector(b *cryptobyte.Builder, width int, f cryptobyte.BuilderContinuation) {
	switch width {
	case 1:
		b.AddUint8LengthPrefixed(f)
	case 2:
		b.AddUint16LengthPrefixed(f)
	case 3:
		b.AddUint24LengthPrefixed(f)
	default:
		panic("tlshello: invalid vector prefix width")
	}
}

// readUint16List reads a vector of 16-bit values, rejecting odd lengths.
func readUint16List(s *cryptobyte.String, min, max int) ([]uint16, bool) {
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) || len(list)%2 != 0 || len(list) < min || len(list) > max {
		return nil, false
	}
	out := make([]uint16, 0, len(list)/2)
	for !list.Empty() {
		var v uint16
		if !list.ReadUint16(&v) {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// capped limits the capacity of b to its length, so appends by the caller
// never write into the message buffer.
func capped(b []byte) []byte {
	return b[:len(b):len(b)]
}
