// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the Parley chat protocol: the message
// vocabulary exchanged between the console client and the server, the
// frame codec that turns one message into a length-prefixed byte
// frame, and the framed transport that reads and writes those frames
// over a stream connection.
//
// Both endpoints import this package so the wire types are defined
// once rather than mirrored. The frame format in both directions is
//
//	[u16 big-endian payload length][payload bytes]
//
// where the payload is the CBOR encoding (lib/codec) of exactly one
// ClientMessage or ServerMessage. The two-byte header caps payloads at
// 65535 bytes; encoding fails loudly rather than truncating when a
// message exceeds the cap.
package wire
