// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"sync"

	"github.com/parley-foundation/parley/wire"
)

// roomHandle is what the registry holds per room: the admission
// channel's send side and the room's done channel. The channel's own
// synchronization serializes concurrent routes to the same room; no
// per-entry lock is needed.
type roomHandle struct {
	inbound chan *Session
	done    chan struct{}
}

// Registry is the process-wide directory from room name to that
// room's admission channel. Lookups and snapshots take the read lock;
// create and remove take the write lock. The registry knows rooms
// only through their channels — room goroutines are started here and
// never touched again.
type Registry struct {
	server *Server

	mu    sync.RWMutex
	rooms map[wire.RoomName]*roomHandle
}

func newRegistry(server *Server) *Registry {
	return &Registry{
		server: server,
		rooms:  make(map[wire.RoomName]*roomHandle),
	}
}

// Create allocates a bounded admission channel, starts the room
// goroutine owning its receive side, and publishes the send side.
// Atomic with respect to concurrent Create calls for the same name:
// the map insert happens under the write lock, so exactly one wins
// and the rest fail with wire.ErrorRoomExists.
func (r *Registry) Create(name wire.RoomName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[name]; exists {
		return &RegistryError{Code: wire.ErrorRoomExists, Room: name}
	}

	handle := &roomHandle{
		inbound: make(chan *Session, r.server.config.AdmissionQueueSize),
		done:    make(chan struct{}),
	}
	r.rooms[name] = handle

	room := newRoom(r.server, name, handle)
	go room.run()

	r.server.logger.Info("room created", "room", name)
	return nil
}

// Remove deletes the entry for name. Current members are not
// notified; removal only prevents future routing. Fails with
// wire.ErrorNoSuchRoom if the name is absent.
//
// The write lock waits out every in-flight Route (routes hold the
// read lock across their channel send), so when Remove returns no
// routed session can still be entering the removed channel. The
// room's shutdown path relies on this to drain stragglers exactly
// once.
func (r *Registry) Remove(name wire.RoomName) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[name]; !exists {
		return &RegistryError{Code: wire.ErrorNoSuchRoom, Room: name}
	}
	delete(r.rooms, name)
	return nil
}

// Route transfers ownership of session to the room named name by
// sending it on the room's admission channel. Fails with
// wire.ErrorNoSuchRoom for an unknown name and wire.ErrorRoomClosed
// when the room's goroutine has shut down. A route racing a Remove is
// not an error at lookup time — the send-side failure is the
// detection mechanism, not a precondition check.
//
// The read lock is held across the send (see Remove). Blocking on a
// full admission channel therefore also blocks removal of that room,
// which is the ordering the room shutdown drain depends on.
func (r *Registry) Route(session *Session, name wire.RoomName) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, exists := r.rooms[name]
	if !exists {
		return &RegistryError{Code: wire.ErrorNoSuchRoom, Room: name}
	}

	select {
	case handle.inbound <- session:
		return nil
	case <-handle.done:
		return &RegistryError{Code: wire.ErrorRoomClosed, Room: name}
	}
}

// List returns a snapshot of all current room names. No ordering is
// guaranteed.
func (r *Registry) List() []wire.RoomName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]wire.RoomName, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	return names
}
