// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single place where Parley configures CBOR.
// Both endpoints of the wire protocol (the server and the console
// client) import this package rather than fxamacker/cbor directly, so
// the encoder and decoder options can never drift between them.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. The same message always
// produces identical frame bytes, which keeps frame-level tests and
// on-wire debugging sane.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are ignored, so an older client can talk to a newer
// server without a protocol version dance.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Types implementing encoding.TextMarshaler (wire.Color) serialize
	// as CBOR text strings via MarshalText. Without this a Color field
	// would serialize as its numeric representation and lose the
	// readable form the protocol specifies.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// The protocol only ever uses text map keys. When the decode
		// target is any, pick map[string]any rather than the CBOR
		// default map[interface{}]interface{} so decoded values are
		// usable by ordinary Go code.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Mirror of TextMarshaler above for round-trip correctness.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. Used by error paths to log the payload of an undecodable
// frame in readable form.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
