// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"errors"
	"fmt"
)

// Error kinds. Failures of parsing, encoding, binder patching and
// negotiation match one of these through errors.Is. Failures of the
// injected random source and key share generator wrap their own cause,
// and ClientHelloConfig and SNI checks report *ConfigError and
// *SNIValidationError instead.
var (
	// ErrTruncated reports that a length prefix or fixed field extends past
	// the end of the buffer.
	ErrTruncated = errors.New("tlshello: truncated input")
	// ErrLengthOutOfRange reports a length outside the bounds of its field.
	ErrLengthOutOfRange = errors.New("tlshello: length out of range")
	// ErrInvalidFixedValue reports a field with a mandated value that was not met.
	ErrInvalidFixedValue = errors.New("tlshello: invalid fixed value")
	// ErrDuplicateExtension reports an extension type occurring twice.
	ErrDuplicateExtension = errors.New("tlshello: duplicate extension")
	// ErrExtensionDecode reports an extension payload that does not match
	// the structure of its type. Returned wrapped in *ExtensionDecodeError.
	ErrExtensionDecode = errors.New("tlshello: extension decode error")
	// ErrMissingExtension reports that an operation needed an extension that
	// is absent.
	ErrMissingExtension = errors.New("tlshello: missing extension")
	// ErrUnrecognizedFraming reports input that is neither a bare hello, a
	// handshake message nor a handshake record.
	ErrUnrecognizedFraming = errors.New("tlshello: unrecognized framing")
	// ErrNegotiationFailed reports that no acceptable version, cipher suite
	// or group is shared with the peer.
	ErrNegotiationFailed = errors.New("tlshello: negotiation failed")
)

// ParseError locates a structural failure inside a hello message.
type ParseError struct {
	Field  string // field being read, e.g. "cipher_suites"
	Offset int    // offset of the field in the bare message
	Err    error  // one of the error kinds above
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s at offset %d", e.Err, e.Field, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseError(field string, offset int, err error) error {
	return &ParseError{Field: field, Offset: offset, Err: err}
}

// ExtensionDecodeError is returned when an extension payload cannot be
// decoded for its type.
type ExtensionDecodeError struct {
	Type   ExtensionType
	Reason string
}

func (e *ExtensionDecodeError) Error() string {
	return fmt.Sprintf("tlshello: cannot decode %s extension: %s", e.Type, e.Reason)
}

func (e *ExtensionDecodeError) Unwrap() error { return ErrExtensionDecode }

func decodeError(typ ExtensionType, format string, args ...any) error {
	return &ExtensionDecodeError{Type: typ, Reason: fmt.Sprintf(format, args...)}
}
