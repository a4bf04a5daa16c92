// Copyright 2024 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlshello

import (
	"fmt"
	"hash"

	"github.com/mar1xlatino/tlshello/internal/tls13"
	"golang.org/x/crypto/cryptobyte"
)

// pskExtension returns the pre_shared_key extension and the offset right
// after its identities list.
func (ch *ClientHello) pskExtension() (Extension, int, error) {
	ext, ok := ch.Extension(ExtensionPreSharedKey)
	if !ok {
		return Extension{}, 0, fmt.Errorf("%w: %s", ErrMissingExtension, ExtensionPreSharedKey)
	}
	dataStart := ext.Offset + 4
	n, _, err := pskIdentitiesBounds.read(ch.raw, dataStart)
	if err != nil || dataStart+2+n > dataStart+len(ext.Data) {
		return Extension{}, 0, decodeError(ExtensionPreSharedKey, "malformed identities list")
	}
	return ext, dataStart + 2 + n, nil
}

// BinderInsertionOffset returns the offset in the bare message right after
// the PSK identities list, where the binders list starts. The bytes before
// it are what a binder MAC covers (after the handshake header).
func (ch *ClientHello) BinderInsertionOffset() (int, error) {
	_, offset, err := ch.pskExtension()
	return offset, err
}

// AddBinders returns a new ClientHello with binders, an encoded binders
// list including its own 2-byte length prefix, inserted after the PSK
// identities. Both the pre_shared_key extension length and the extensions
// block length are grown by len(binders). The receiver is not modified.
//
// The pre_shared_key extension must not carry binders yet.
func (ch *ClientHello) AddBinders(binders []byte) (*ClientHello, error) {
	ext, insert, err := ch.pskExtension()
	if err != nil {
		return nil, err
	}
	if insert != ext.Offset+4+len(ext.Data) {
		return nil, parseError("pre_shared_key.binders", insert, fmt.Errorf("%w: binders already present", ErrInvalidFixedValue))
	}
	extLen := len(ext.Data) + len(binders)
	if err := extensionDataBounds.check("pre_shared_key", extLen); err != nil {
		return nil, err
	}
	blockLen := len(ch.raw) - ch.compressionEnd - 2 + len(binders)
	if err := clientExtensionsBounds.check("extensions", blockLen); err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, len(ch.raw)+len(binders)))
	b.AddBytes(ch.raw[:ch.compressionEnd])
	b.AddUint16(uint16(blockLen))
	b.AddBytes(ch.raw[ch.compressionEnd+2 : ext.Offset+2])
	b.AddUint16(uint16(extLen))
	b.AddBytes(ch.raw[ext.Offset+4 : insert])
	b.AddBytes(binders)
	b.AddBytes(ch.raw[insert:])
	raw, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return parseClientHello(raw)
}

// EncodePSKBinders encodes binder values as a binders list, the input of
// AddBinders.
func EncodePSKBinders(binders [][]byte) ([]byte, error) {
	total := 0
	for _, binder := range binders {
		if err := pskBinderBounds.check("binder", len(binder)); err != nil {
			return nil, err
		}
		total += 1 + len(binder)
	}
	if err := pskBindersBounds.check("binders", total); err != nil {
		return nil, err
	}
	b := cryptobyte.NewBuilder(make([]byte, 0, 2+total))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, binder := range binders {
			b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(binder)
			})
		}
	})
	return b.Bytes()
}

// PSKBinderTranscript returns the partial ClientHello that binders are
// computed over (RFC 8446, Section 4.2.11.2): the handshake-framed message
// up to the binders list, with every length field already counting a
// binders list of bindersLen bytes.
func (ch *ClientHello) PSKBinderTranscript(bindersLen int) ([]byte, error) {
	offset, err := ch.BinderInsertionOffset()
	if err != nil {
		return nil, err
	}
	full, err := ch.AddBinders(make([]byte, bindersLen))
	if err != nil {
		return nil, err
	}
	return full.ToHandshake()[:handshakeHeaderLen+offset], nil
}

// BinderFunc computes one binder from the partial ClientHello transcript.
type BinderFunc func(transcript []byte) ([]byte, error)

// PSKBinder describes the binder of one offered PSK: its size, the hash
// length of the PSK's cipher suite, and how to compute it.
type PSKBinder struct {
	Size    int
	Compute BinderFunc
}

// SignPSKBinders computes a binder for every PSK identity of ch over the
// partial transcript and returns the ClientHello with the binders attached.
func SignPSKBinders(ch *ClientHello, binders []PSKBinder) (*ClientHello, error) {
	psk, err := ch.PreSharedKey()
	if err != nil {
		return nil, err
	}
	if len(binders) != len(psk.Identities) {
		return nil, fmt.Errorf("%w: %d binders for %d identities", ErrLengthOutOfRange, len(binders), len(psk.Identities))
	}
	listLen := 2
	for _, binder := range binders {
		listLen += 1 + binder.Size
	}
	transcript, err := ch.PSKBinderTranscript(listLen)
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(binders))
	for i, binder := range binders {
		v, err := binder.Compute(transcript)
		if err != nil {
			return nil, err
		}
		if len(v) != binder.Size {
			return nil, fmt.Errorf("%w: binder %d is %d bytes, want %d", ErrLengthOutOfRange, i, len(v), binder.Size)
		}
		values[i] = v
	}
	encoded, err := EncodePSKBinders(values)
	if err != nil {
		return nil, err
	}
	return ch.AddBinders(encoded)
}

// NewResumptionBinder returns the binder of a resumption PSK for the
// cipher suite hash h.
func NewResumptionBinder[H hash.Hash](h func() H, psk []byte) PSKBinder {
	return PSKBinder{
		Size: h().Size(),
		Compute: func(transcript []byte) ([]byte, error) {
			early, err := tls13.NewEarlySecret(h, psk)
			if err != nil {
				return nil, err
			}
			binderKey, err := early.ResumptionBinderKey()
			if err != nil {
				return nil, err
			}
			return tls13.Binder(h, binderKey, transcript)
		},
	}
}

// NewExternalBinder returns the binder of an externally provisioned PSK for
// the cipher suite hash h.
func NewExternalBinder[H hash.Hash](h func() H, psk []byte) PSKBinder {
	return PSKBinder{
		Size: h().Size(),
		Compute: func(transcript []byte) ([]byte, error) {
			early, err := tls13.NewEarlySecret(h, psk)
			if err != nil {
				return nil, err
			}
			binderKey, err := early.ExternalBinderKey()
			if err != nil {
				return nil, err
			}
			return tls13.Binder(h, binderKey, transcript)
		},
	}
}
