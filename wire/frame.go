// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/parley-foundation/parley/lib/codec"
)

// frameHeaderLength is the fixed size of a frame header: 2 bytes of
// big-endian payload length.
const frameHeaderLength = 2

// MaxFramePayload is the largest payload the 2-byte header can
// express. This is a protocol limit, not a tunable: a message whose
// CBOR encoding exceeds it cannot be represented on the wire and
// encoding must fail rather than truncate.
const MaxFramePayload = 65535

// ErrIncompleteFrame signals that the buffer does not yet hold a
// complete frame. The caller reads more bytes and retries; nothing
// has been consumed.
var ErrIncompleteFrame = errors.New("wire: incomplete frame")

// ErrFrameTooLarge is returned by the encoder when a message's CBOR
// encoding exceeds MaxFramePayload.
var ErrFrameTooLarge = errors.New("wire: frame payload exceeds 65535 bytes")

// AppendFrame encodes msg as CBOR, length-prefixes it, and appends
// the frame to dst. The encode-then-append path is deliberate: the
// payload is serialized to its own buffer first so its size is known
// before any header byte is written.
func AppendFrame[T any](dst []byte, msg T) ([]byte, error) {
	payload, err := codec.Marshal(msg)
	if err != nil {
		return dst, fmt.Errorf("encode frame payload: %w", err)
	}
	if len(payload) > MaxFramePayload {
		return dst, fmt.Errorf("%w: %d", ErrFrameTooLarge, len(payload))
	}
	var header [frameHeaderLength]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(payload)))
	dst = append(dst, header[:]...)
	return append(dst, payload...), nil
}

// EncodeFrame encodes msg into a single standalone frame.
func EncodeFrame[T any](msg T) ([]byte, error) {
	return AppendFrame[T](nil, msg)
}

// DecodeFrame decodes the first complete frame in buf. It returns the
// message and the number of bytes consumed (header plus payload).
// While buf holds less than one complete frame it returns
// ErrIncompleteFrame with zero consumed — the check is idempotent, so
// the caller simply appends more bytes and calls again.
//
// A CBOR failure on a complete frame is a hard error: the stream
// offset is still frame-aligned but the payload contents cannot be
// trusted, so the connection carrying it must be torn down rather
// than resynchronized.
func DecodeFrame[T any](buf []byte) (msg T, consumed int, err error) {
	if len(buf) < frameHeaderLength {
		return msg, 0, ErrIncompleteFrame
	}
	payloadLength := int(binary.BigEndian.Uint16(buf))
	if len(buf) < frameHeaderLength+payloadLength {
		return msg, 0, ErrIncompleteFrame
	}
	payload := buf[frameHeaderLength : frameHeaderLength+payloadLength]
	if err := codec.Unmarshal(payload, &msg); err != nil {
		if diag, diagErr := codec.Diagnose(payload); diagErr == nil {
			return msg, 0, fmt.Errorf("decode frame payload %s: %w", diag, err)
		}
		return msg, 0, fmt.Errorf("decode frame payload: %w", err)
	}
	return msg, frameHeaderLength + payloadLength, nil
}
