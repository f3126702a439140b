// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/parley-foundation/parley/lib/netutil"
	"github.com/parley-foundation/parley/wire"
)

// Outcome is what command dispatch tells the owning room to do with
// the session afterward. A single exhaustive switch over command
// kinds produces one of these three, rather than each command variant
// carrying its own handler type.
type Outcome int

const (
	// OutcomeKeep reinserts the session into the room's member map.
	OutcomeKeep Outcome = iota

	// OutcomeTransfer means ownership has already moved elsewhere —
	// onto another room's admission channel, or to a fresh handshake
	// goroutine after log-out. The room must not touch the session
	// again.
	OutcomeTransfer

	// OutcomeTerminate means the session is finished; the room closes
	// the connection and forgets it.
	OutcomeTerminate
)

// Session is one authenticated client connection: the framed
// transport plus the account signed in on it. A Session is never
// shared — it is owned by exactly one goroutine or channel at a time,
// and every field access happens under that ownership.
type Session struct {
	conn    *wire.ServerConn
	account wire.Account
	remote  string
	server  *Server
	logger  *slog.Logger
}

func newSession(server *Server, conn *wire.ServerConn, remote string) *Session {
	return &Session{
		conn:   conn,
		remote: remote,
		server: server,
		logger: server.logger.With("component", "session", "remote", remote),
	}
}

// Account returns the signed-in account.
func (s *Session) Account() wire.Account { return s.account }

// Username returns the signed-in account's username.
func (s *Session) Username() wire.Username { return s.account.Username }

// Close closes the session's transport. Safe to call from whichever
// goroutine currently owns the session; a concurrent blocked read
// fails, which is the session's only cancellation signal.
func (s *Session) Close() {
	if err := s.conn.Close(); err != nil && !netutil.IsExpectedCloseError(err) {
		s.logger.Debug("closing session transport", "error", err)
	}
}

// respond sends one response message. A send failure here means the
// client is gone; callers convert it into session termination.
func (s *Session) respond(response wire.Response) error {
	return s.conn.Send(wire.NewResponseMessage(response))
}

// authenticate runs the sign-in handshake: read client messages,
// ignore anything that is not a command, and answer every log-in or
// sign-up attempt with a sign-in response. Failed attempts loop until
// MaxSignInAttempts is exhausted. Returns false with a nil error when
// the client sent exit — a silent, non-error termination.
//
// A read error, a malformed message, or an exhausted attempt budget
// is returned as an error; the caller closes the connection.
func (s *Session) authenticate() (bool, error) {
	attempts := 0
	for {
		message, err := s.conn.Read()
		if err != nil {
			return false, fmt.Errorf("reading during handshake: %w", err)
		}
		if err := message.Validate(); err != nil {
			return false, fmt.Errorf("malformed message during handshake: %w", err)
		}
		if message.Command == nil {
			s.logger.Debug("discarding chat text during handshake")
			continue
		}
		command := *message.Command

		switch command.Action {
		case wire.ActionExit:
			return false, nil
		case wire.ActionLogIn, wire.ActionSignUp:
			// Handled below.
		default:
			s.logger.Warn("command ignored during handshake", "action", command.Action)
			continue
		}

		account, signInErr := s.signIn(command)
		if signInErr == "" {
			if err := s.respond(wire.NewSignInOK()); err != nil {
				return false, fmt.Errorf("sending sign-in response: %w", err)
			}
			s.account = account
			s.logger = s.logger.With("username", account.Username)
			s.logger.Info("signed in", "action", command.Action)
			return true, nil
		}

		if err := s.respond(wire.NewSignInError(signInErr)); err != nil {
			return false, fmt.Errorf("sending sign-in response: %w", err)
		}
		attempts++
		s.logger.Warn("sign-in attempt failed",
			"action", command.Action,
			"username", command.Username,
			"code", signInErr,
			"attempt", attempts,
		)
		if attempts >= s.server.config.MaxSignInAttempts {
			return false, fmt.Errorf("sign-in attempt budget exhausted after %d failures", attempts)
		}
	}
}

// signIn performs one log-in or sign-up attempt against the account
// store. Returns the account on success, or the wire-level error code
// on failure.
func (s *Session) signIn(command wire.Command) (wire.Account, wire.SignInErrorCode) {
	switch command.Action {
	case wire.ActionLogIn:
		account, err := s.server.store.LogIn(command.Username, command.Password)
		if err != nil {
			return wire.Account{}, wire.SignInInvalidCredentials
		}
		return account, ""
	default: // wire.ActionSignUp
		account, err := s.server.store.SignUp(command.Username, command.Password)
		if err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				return wire.Account{}, wire.SignInUsernameTaken
			}
			s.logger.Error("account store sign-up failed", "error", err)
			return wire.Account{}, wire.SignInInvalidCredentials
		}
		return account, ""
	}
}

// handleCommand dispatches one in-room command. The room has already
// taken the session out of its member map, so the session is
// exclusively owned here; the returned Outcome tells the room whether
// to put it back.
func (s *Session) handleCommand(command wire.Command, room *Room) Outcome {
	registry := s.server.registry

	switch command.Action {
	case wire.ActionCreateRoom:
		// Success keeps the session where it is — creating a room
		// does not auto-join it.
		if err := registry.Create(command.Room); err != nil {
			return s.respondRegistryError(err)
		}
		return OutcomeKeep

	case wire.ActionSelectRoom:
		if command.Room == room.name {
			return s.respondOutcome(wire.NewCommandError(wire.ErrorNotHere, "already in room %q", command.Room))
		}
		if err := registry.Route(s, command.Room); err != nil {
			return s.respondRegistryError(err)
		}
		return OutcomeTransfer

	case wire.ActionExitRoom:
		if room.isLobby() {
			return s.respondOutcome(wire.NewCommandError(wire.ErrorNotHere, "already in the lobby"))
		}
		if err := registry.Route(s, s.server.config.LobbyName); err != nil {
			return s.respondRegistryError(err)
		}
		return OutcomeTransfer

	case wire.ActionRoomsList:
		return s.respondOutcome(wire.NewRoomsListResponse(registry.List()))

	case wire.ActionAccountsList:
		return s.respondOutcome(wire.NewAccountsListResponse(room.memberAccounts(s)))

	case wire.ActionSelectColor:
		s.account.Color = *command.Color
		if err := s.server.store.SetColor(s.account.Username, s.account.Color); err != nil {
			s.logger.Warn("persisting color change", "error", err)
		}
		return OutcomeKeep

	case wire.ActionDeleteAccount:
		if err := s.server.store.Delete(s.account.Username); err != nil {
			s.logger.Warn("deleting account", "error", err)
		}
		s.logger.Info("account deleted, terminating session")
		return OutcomeTerminate

	case wire.ActionLogOut:
		// The session leaves the room and re-enters the handshake on
		// the same connection. Ownership moves to a fresh goroutine.
		s.logger.Info("logging out")
		s.account = wire.Account{}
		go s.server.runSession(s)
		return OutcomeTransfer

	case wire.ActionExit:
		s.logger.Info("session exited")
		return OutcomeTerminate

	default:
		// log-in and sign-up are handshake commands; anything else
		// was rejected by Validate before dispatch.
		s.logger.Warn("command ignored in room", "action", command.Action)
		return OutcomeKeep
	}
}

// respondOutcome sends a response and keeps the session, terminating
// it instead if the client is unreachable.
func (s *Session) respondOutcome(response wire.Response) Outcome {
	if err := s.respond(response); err != nil {
		if !netutil.IsExpectedCloseError(err) {
			s.logger.Warn("sending response", "error", err)
		}
		return OutcomeTerminate
	}
	return OutcomeKeep
}

// respondRegistryError converts a routing failure into a user-visible
// error response, per the error taxonomy: routing errors are reported
// to the caller and never fatal to the room or registry.
func (s *Session) respondRegistryError(err error) Outcome {
	var registryErr *RegistryError
	if errors.As(err, &registryErr) {
		return s.respondOutcome(wire.NewCommandError(registryErr.Code, "room %q: %s", registryErr.Room, registryErr.Code))
	}
	s.logger.Error("unexpected routing failure", "error", err)
	return s.respondOutcome(wire.NewCommandError(wire.ErrorNotHere, "internal routing failure"))
}
