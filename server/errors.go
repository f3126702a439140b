// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"

	"github.com/parley-foundation/parley/wire"
)

// RegistryError is a structured routing failure. Callers use
// errors.As to extract the code and convert it into a user-visible
// response:
//
//	var registryErr *RegistryError
//	if errors.As(err, &registryErr) {
//	    if registryErr.Code == wire.ErrorNoSuchRoom { ... }
//	}
//
// The codes are the wire-level ErrorCode values so the conversion to
// a Response is a field copy, not a translation table.
type RegistryError struct {
	// Code is wire.ErrorRoomExists, wire.ErrorNoSuchRoom, or
	// wire.ErrorRoomClosed.
	Code wire.ErrorCode

	// Room is the name the failed operation targeted.
	Room wire.RoomName
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry: %s: room %q", e.Code, e.Room)
}

// IsRegistryError checks whether err is a *RegistryError with the
// given code.
func IsRegistryError(err error, code wire.ErrorCode) bool {
	var registryErr *RegistryError
	if errors.As(err, &registryErr) {
		return registryErr.Code == code
	}
	return false
}
