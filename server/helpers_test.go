// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/parley-foundation/parley/client"
	"github.com/parley-foundation/parley/lib/clock"
	"github.com/parley-foundation/parley/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestServer builds a Server on a fake clock with test-friendly
// defaults. The account store is fresh and empty.
func newTestServer(t *testing.T, config Config) (*Server, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	logger := testLogger()
	return New(config, NewMemoryStore(), fake, logger, logger), fake
}

// startTestServer runs a Server on an ephemeral localhost port and
// returns its address. Serve stops when the test finishes.
func startTestServer(t *testing.T, config Config) (string, *clock.FakeClock) {
	t.Helper()
	srv, fake := newTestServer(t, config)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("binding test listener: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-serveDone; err != nil {
			t.Errorf("serve returned: %v", err)
		}
	})

	return listener.Addr().String(), fake
}

// dialTestServer opens a client connection to the test server.
func dialTestServer(t *testing.T, address string) *client.Client {
	t.Helper()
	conn, err := client.Dial(testLogger(), []string{address})
	if err != nil {
		t.Fatalf("dialing test server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// signedUpClient dials and registers a fresh account.
func signedUpClient(t *testing.T, address string, username wire.Username) *client.Client {
	t.Helper()
	conn := dialTestServer(t, address)
	if err := conn.SignUp(username, "hunter2"); err != nil {
		t.Fatalf("signing up %q: %v", username, err)
	}
	return conn
}

// sendCommand transmits one command from a test client.
func sendCommand(t *testing.T, conn *client.Client, command wire.Command) {
	t.Helper()
	if err := conn.Send(wire.NewCommandMessage(command)); err != nil {
		t.Fatalf("sending %s: %v", command.Action, err)
	}
}

// readResponse reads one server message and requires it to be a
// command response.
func readResponse(t *testing.T, conn *client.Client) wire.Response {
	t.Helper()
	message, err := conn.Read()
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if message.Response == nil {
		t.Fatalf("expected a response, got broadcast %+v", message.Broadcast)
	}
	return *message.Response
}

// readBroadcast reads one server message and requires it to be a chat
// broadcast.
func readBroadcast(t *testing.T, conn *client.Client) wire.AccountMessage {
	t.Helper()
	message, err := conn.Read()
	if err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if message.Broadcast == nil {
		t.Fatalf("expected a broadcast, got response %+v", message.Response)
	}
	return *message.Broadcast
}

// accountsIn asks for the requester's room roster and returns the
// usernames in it.
func accountsIn(t *testing.T, conn *client.Client) map[wire.Username]bool {
	t.Helper()
	sendCommand(t, conn, wire.Command{Action: wire.ActionAccountsList})
	response := readResponse(t, conn)
	if response.Kind != wire.ResponseAccountsList {
		t.Fatalf("response kind = %q, want accounts-list", response.Kind)
	}
	usernames := make(map[wire.Username]bool, len(response.Accounts))
	for _, account := range response.Accounts {
		usernames[account.Username] = true
	}
	return usernames
}

// roomsOf asks for the registry snapshot and returns the room names.
func roomsOf(t *testing.T, conn *client.Client) map[wire.RoomName]bool {
	t.Helper()
	sendCommand(t, conn, wire.Command{Action: wire.ActionRoomsList})
	response := readResponse(t, conn)
	if response.Kind != wire.ResponseRoomsList {
		t.Fatalf("response kind = %q, want rooms-list", response.Kind)
	}
	rooms := make(map[wire.RoomName]bool, len(response.Rooms))
	for _, room := range response.Rooms {
		rooms[room] = true
	}
	return rooms
}
