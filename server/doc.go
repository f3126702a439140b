// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the Parley chat server core: the account
// store, the per-connection session handshake, the room event loops,
// and the registry that routes sessions between rooms.
//
// The concurrency model is ownership transfer, never shared mutation.
// A session is owned by exactly one of: the accept/handshake
// goroutine, a registry channel in transit, or one room's member map.
// Rooms therefore need no locks of their own — each room goroutine is
// the sole reader and writer of its member map, and the only shared
// structure in the process is the registry's room map behind a
// reader/writer lock.
//
// Inside a room the multiplexing invariant is: at most one
// outstanding read per member. The room arms a single read goroutine
// per member and a member only leaves the map while its own event is
// being processed (or when a broadcast write to it fails, in which
// case its in-flight read completes against a closed connection and
// is discarded by pointer identity). That invariant is what makes
// transferring a session to another room safe: at the moment of
// transfer the old room provably has no read in flight for it.
package server
