// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"time"

	"github.com/parley-foundation/parley/lib/netutil"
	"github.com/parley-foundation/parley/wire"
)

// member is a room's record of one owned session. armed tracks
// whether a read goroutine is currently outstanding for it.
type member struct {
	session *Session
	armed   bool
}

// memberEvent is the completion of one member read: a message or the
// read error that ends that member's tenure.
type memberEvent struct {
	session *Session
	message wire.ClientMessage
	err     error
}

// Room is one independent chat room: a single goroutine owning a
// member map, multiplexing reads across all members, broadcasting
// chat text, and dispatching commands that can move a session out.
type Room struct {
	server *Server
	name   wire.RoomName

	// inbound is the receive side of the admission channel published
	// in the registry.
	inbound chan *Session

	// done is closed when the room shuts down. The registry's Route
	// selects on it so a route racing the shutdown fails with
	// room-closed instead of blocking forever.
	done chan struct{}

	// events carries member read completions. Unbuffered: a read
	// goroutine parks until the room loop is ready, and the loop is
	// always ready again after one event.
	events chan memberEvent

	// members maps username to owned session. Invariant: every key
	// equals its session's account username, and at most one read
	// goroutine is outstanding per entry.
	members map[wire.Username]*member

	// outstanding counts armed read goroutines, including those whose
	// member has already been dropped (their completions arrive late
	// and are discarded). The shutdown path drains events until this
	// reaches zero so no goroutine is left blocked.
	outstanding int

	logger *slog.Logger
}

func newRoom(server *Server, name wire.RoomName, handle *roomHandle) *Room {
	return &Room{
		server:  server,
		name:    name,
		inbound: handle.inbound,
		done:    handle.done,
		events:  make(chan memberEvent),
		members: make(map[wire.Username]*member),
		logger:  server.logger.With("component", "room", "room", name),
	}
}

// isLobby reports whether this room is the designated lobby. The
// lobby is created at startup, is the destination of every freshly
// authenticated session and every exit-room command, and never idles
// out.
func (r *Room) isLobby() bool {
	return r.name == r.server.config.LobbyName
}

// run is the room's event loop. Each iteration arms a read for any
// member without one, then blocks on admissions, read completions,
// and (when empty) the idle timer. Broadcast of one message completes
// before the next event is taken, so two broadcasts from the same
// room never interleave.
func (r *Room) run() {
	r.logger.Info("room running")

	var idleSince <-chan time.Time
	for {
		for _, m := range r.members {
			if !m.armed {
				m.armed = true
				r.outstanding++
				go r.readMember(m.session)
			}
		}

		// An empty non-lobby room arms its idle timer; any membership
		// disarms it. A room with no members must not spin — all three
		// select arms block.
		if len(r.members) == 0 && !r.isLobby() {
			if idleSince == nil {
				idleSince = r.server.clock.After(r.server.config.RoomIdleTimeout)
			}
		} else {
			idleSince = nil
		}

		select {
		case session := <-r.inbound:
			r.admit(session)
		case event := <-r.events:
			r.outstanding--
			r.handleEvent(event)
		case <-idleSince:
			r.shutdown()
			return
		}
	}
}

// readMember performs exactly one blocking read for session and
// reports the completion. The room arms at most one of these per
// member, which is what makes removal and transfer race-free.
func (r *Room) readMember(session *Session) {
	message, err := session.conn.Read()
	r.events <- memberEvent{session: session, message: message, err: err}
}

// admit inserts a session arriving on the admission channel. A
// username already present is rejected rather than overwritten — the
// incoming session is told why and returned to the lobby, or closed
// if it has nowhere to go.
func (r *Room) admit(session *Session) {
	username := session.Username()
	if _, taken := r.members[username]; taken {
		r.logger.Warn("rejecting admission, username already present", "username", username)
		if err := session.respond(wire.NewCommandError(wire.ErrorNameTaken, "username %q is already in room %q", username, r.name)); err != nil {
			session.Close()
			return
		}
		if r.isLobby() {
			// Nowhere left to send it: the same account is already in
			// the lobby on another connection.
			session.Close()
			return
		}
		if err := r.server.registry.Route(session, r.server.config.LobbyName); err != nil {
			r.logger.Error("returning rejected session to lobby", "username", username, "error", err)
			session.Close()
		}
		return
	}

	r.members[username] = &member{session: session}
	r.logger.Info("admitted member", "username", username, "members", len(r.members))
}

// handleEvent processes one member read completion.
func (r *Room) handleEvent(event memberEvent) {
	username := event.session.Username()
	m, owned := r.members[username]
	if !owned || m.session != event.session {
		// A completion from a member dropped mid-broadcast, matched by
		// pointer so it can never be confused with a newer session
		// that reused the username. The connection is already closed.
		r.logger.Debug("discarding read completion from dropped member", "username", username)
		return
	}
	m.armed = false

	if event.err != nil {
		// Fatal only to this member; roommates are unaffected and the
		// departure is not broadcast.
		if netutil.IsExpectedCloseError(event.err) {
			r.logger.Info("member disconnected", "username", username)
		} else {
			r.logger.Error("member read failed", "username", username, "error", event.err)
		}
		r.drop(username, m)
		return
	}

	message := event.message
	if err := message.Validate(); err != nil {
		// Malformed input from a complete frame: protocol error,
		// fatal to this connection.
		r.logger.Error("malformed message from member", "username", username, "error", err)
		r.drop(username, m)
		return
	}

	if message.Text != nil {
		r.broadcast(m.session, *message.Text)
		return
	}

	// Command dispatch: take the session out of the member map first
	// so it cannot be selected again mid-dispatch, then reinsert only
	// on a keep outcome.
	delete(r.members, username)
	switch m.session.handleCommand(*message.Command, r) {
	case OutcomeKeep:
		r.members[username] = m
	case OutcomeTransfer:
		r.logger.Info("member transferred out", "username", username, "members", len(r.members))
	case OutcomeTerminate:
		m.session.Close()
		r.logger.Info("member terminated", "username", username, "members", len(r.members))
	}
}

// drop removes a member and closes its connection.
func (r *Room) drop(username wire.Username, m *member) {
	delete(r.members, username)
	m.session.Close()
	r.logger.Info("dropped member", "username", username, "members", len(r.members))
}

// broadcast wraps text in an AccountMessage and sends it to every
// member except the sender, sequentially in map order. A send failure
// drops only that recipient; the loop continues to the rest.
func (r *Room) broadcast(from *Session, text wire.UserMessage) {
	message := wire.AccountMessage{
		Text:   text,
		Sender: from.Account(),
		SentAt: r.server.clock.Now().UTC(),
	}
	r.server.messageLog.Info("broadcast",
		"room", r.name,
		"from", message.Sender.Username,
		"text", string(text),
	)

	framed := wire.NewBroadcastMessage(message)
	for username, m := range r.members {
		if m.session == from {
			continue
		}
		if err := m.session.conn.Send(framed); err != nil {
			if netutil.IsExpectedCloseError(err) {
				r.logger.Info("member unreachable during broadcast", "username", username)
			} else {
				r.logger.Warn("broadcast send failed", "username", username, "error", err)
			}
			r.drop(username, m)
		}
	}
}

// memberAccounts snapshots the accounts in the room for the
// accounts-list response. The requesting session is mid-dispatch and
// therefore temporarily absent from the map; it is counted back in.
func (r *Room) memberAccounts(requester *Session) []wire.Account {
	accounts := make([]wire.Account, 0, len(r.members)+1)
	accounts = append(accounts, requester.Account())
	for _, m := range r.members {
		accounts = append(accounts, m.session.Account())
	}
	return accounts
}

// shutdown deregisters the room exactly once and unwinds its
// goroutines. Order matters:
//
//  1. Closing done wakes any router blocked on the admission channel
//     (it fails with room-closed and releases the registry read lock).
//  2. Registry removal then waits out the remaining in-flight routes,
//     so afterwards nothing new can enter the channel.
//  3. Draining the channel rescues sessions that won a buffer slot
//     during the race; they are re-routed to the lobby.
//  4. Draining events until outstanding reaches zero guarantees no
//     read goroutine stays parked forever.
func (r *Room) shutdown() {
	r.logger.Info("room idle, shutting down")
	close(r.done)

	if err := r.server.registry.Remove(r.name); err != nil {
		// Only reachable if something else removed the name, which
		// nothing does; deregistration stays exactly-once regardless.
		r.logger.Error("deregistering room", "error", err)
	}

	for {
		select {
		case session := <-r.inbound:
			if err := r.server.registry.Route(session, r.server.config.LobbyName); err != nil {
				r.logger.Error("rescuing admitted session to lobby", "username", session.Username(), "error", err)
				session.Close()
			}
			continue
		default:
		}
		break
	}

	for r.outstanding > 0 {
		<-r.events
		r.outstanding--
	}
	r.logger.Info("room stopped")
}
