// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"
	"io"
)

// readChunkSize is how many bytes one stream read pulls into the
// accumulation buffer. Most frames are far smaller than this, so a
// single read usually completes a frame.
const readChunkSize = 4096

// Conn is a framed transport over a duplex byte stream. The two type
// parameters make the codec direction explicit: the server reads
// ClientMessages and sends ServerMessages, the client the reverse —
// see ServerConn and ClientConn.
//
// Read and Send may run concurrently with each other (they touch
// independent buffers and stream directions), but neither is safe for
// concurrent use with itself. In the server this never arises: a
// session is owned by exactly one goroutine at a time, and ownership
// moves with the session.
type Conn[In, Out any] struct {
	stream  io.ReadWriteCloser
	readBuf []byte
	scratch [readChunkSize]byte
}

// ServerConn reads ClientMessages and sends ServerMessages.
type ServerConn = Conn[ClientMessage, ServerMessage]

// ClientConn reads ServerMessages and sends ClientMessages.
type ClientConn = Conn[ServerMessage, ClientMessage]

// NewServerConn wraps stream with the server-side codec direction.
func NewServerConn(stream io.ReadWriteCloser) *ServerConn {
	return &ServerConn{stream: stream}
}

// NewClientConn wraps stream with the client-side codec direction.
func NewClientConn(stream io.ReadWriteCloser) *ClientConn {
	return &ClientConn{stream: stream}
}

// Read blocks until one complete message is available and returns it.
// Bytes beyond the first frame stay buffered for the next call.
//
// On clean end-of-stream with an empty buffer Read returns io.EOF; if
// the stream ends mid-frame it returns io.ErrUnexpectedEOF. A decode
// failure on a complete frame is returned as-is — the stream is
// desynchronized and the caller must close the connection.
func (c *Conn[In, Out]) Read() (In, error) {
	var zero In
	for {
		if len(c.readBuf) > 0 {
			msg, consumed, err := DecodeFrame[In](c.readBuf)
			if err == nil {
				// Shift the leftover bytes to the front so the
				// buffer never grows without bound.
				c.readBuf = c.readBuf[:copy(c.readBuf, c.readBuf[consumed:])]
				return msg, nil
			}
			if !errors.Is(err, ErrIncompleteFrame) {
				return zero, err
			}
		}

		n, err := c.stream.Read(c.scratch[:])
		if n > 0 {
			c.readBuf = append(c.readBuf, c.scratch[:n]...)
			// Loop to attempt a decode even when err != nil: a read
			// can return the final bytes of a frame together with
			// EOF.
			continue
		}
		if err == nil {
			// A zero-byte read with no error; retry.
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(c.readBuf) == 0 {
				return zero, io.EOF
			}
			return zero, fmt.Errorf("stream ended mid-frame with %d bytes buffered: %w", len(c.readBuf), io.ErrUnexpectedEOF)
		}
		return zero, err
	}
}

// Send encodes every message into the write buffer first, then
// performs one combined write. Batching amortizes the write syscall
// when emitting several messages (the room's admission error path and
// the sign-in response+broadcast pairs); the single assembled write
// also means the io.Writer contract — full write or error — covers
// every encoded byte, with no partial-write bookkeeping here.
func (c *Conn[In, Out]) Send(messages ...Out) error {
	var buf []byte
	for _, message := range messages {
		var err error
		buf, err = AppendFrame(buf, message)
		if err != nil {
			return err
		}
	}
	if len(buf) == 0 {
		return nil
	}
	if _, err := c.stream.Write(buf); err != nil {
		return fmt.Errorf("write %d framed bytes: %w", len(buf), err)
	}
	return nil
}

// Close closes the underlying stream. Any blocked Read or Send on the
// connection fails; this is the only cancellation signal a session
// has.
func (c *Conn[In, Out]) Close() error {
	return c.stream.Close()
}
