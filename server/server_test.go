// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"testing"
	"time"

	"github.com/parley-foundation/parley/client"
	"github.com/parley-foundation/parley/wire"
)

func TestSignUpAndLogIn(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	alice := dialTestServer(t, address)
	if err := alice.SignUp("alice", "hunter2"); err != nil {
		t.Fatalf("signing up: %v", err)
	}

	// The username is now registered; a second connection can log in,
	// a third cannot re-register it.
	second := dialTestServer(t, address)
	if err := second.LogIn("alice", "hunter2"); err != nil {
		t.Fatalf("logging in on second connection: %v", err)
	}

	third := dialTestServer(t, address)
	var signInErr *client.SignInError
	if err := third.SignUp("alice", "other"); !errors.As(err, &signInErr) || signInErr.Code != wire.SignInUsernameTaken {
		t.Fatalf("duplicate sign-up: error = %v, want username-taken", err)
	}
	if err := third.LogIn("alice", "wrong"); !errors.As(err, &signInErr) || signInErr.Code != wire.SignInInvalidCredentials {
		t.Fatalf("wrong password: error = %v, want invalid-username-password", err)
	}
	// The connection survives failed attempts under the budget.
	if err := third.LogIn("alice", "hunter2"); err != nil {
		t.Fatalf("logging in after failed attempts: %v", err)
	}
}

// The full conversation flow: create a room, move into it, chat, and
// check that broadcasts reach everyone in the room except the sender.
func TestChatScenario(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	alice := signedUpClient(t, address, "alice")
	sendCommand(t, alice, wire.Command{Action: wire.ActionCreateRoom, Room: "go"})
	sendCommand(t, alice, wire.Command{Action: wire.ActionSelectRoom, Room: "go"})
	// The roster response proves alice's admission completed.
	if roster := accountsIn(t, alice); len(roster) != 1 || !roster["alice"] {
		t.Fatalf("alice's roster = %v, want just alice", roster)
	}

	bob := signedUpClient(t, address, "bob")
	if rooms := roomsOf(t, bob); !rooms["go"] || !rooms[DefaultLobbyName] {
		t.Fatalf("bob sees rooms %v, want lobby and go", rooms)
	}
	sendCommand(t, bob, wire.Command{Action: wire.ActionSelectRoom, Room: "go"})
	if roster := accountsIn(t, bob); len(roster) != 2 || !roster["alice"] || !roster["bob"] {
		t.Fatalf("bob's roster = %v, want alice and bob", roster)
	}

	// Bob speaks; alice hears it, attributed to bob.
	if err := bob.Send(wire.NewTextMessage("hi alice")); err != nil {
		t.Fatalf("bob sending text: %v", err)
	}
	broadcast := readBroadcast(t, alice)
	if broadcast.Sender.Username != "bob" || broadcast.Text != "hi alice" {
		t.Fatalf("alice received %+v", broadcast)
	}

	// Alice replies. Bob's next message is alice's text — not an echo
	// of his own, which the room never sends back to the speaker.
	if err := alice.Send(wire.NewTextMessage("hi bob")); err != nil {
		t.Fatalf("alice sending text: %v", err)
	}
	broadcast = readBroadcast(t, bob)
	if broadcast.Sender.Username != "alice" || broadcast.Text != "hi bob" {
		t.Fatalf("bob received %+v", broadcast)
	}

	// Selecting the room you are already in is refused.
	sendCommand(t, bob, wire.Command{Action: wire.ActionSelectRoom, Room: "go"})
	response := readResponse(t, bob)
	if response.Kind != wire.ResponseError || response.Error.Code != wire.ErrorNotHere {
		t.Fatalf("re-select response = %+v, want not-available", response)
	}

	// Bob returns to the lobby; leaving the lobby itself is refused.
	sendCommand(t, bob, wire.Command{Action: wire.ActionExitRoom})
	if roster := accountsIn(t, bob); len(roster) != 1 || !roster["bob"] {
		t.Fatalf("bob's lobby roster = %v, want just bob", roster)
	}
	sendCommand(t, bob, wire.Command{Action: wire.ActionExitRoom})
	response = readResponse(t, bob)
	if response.Kind != wire.ResponseError || response.Error.Code != wire.ErrorNotHere {
		t.Fatalf("lobby exit response = %+v, want not-available", response)
	}
}

func TestCreateRoomDuplicateReported(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	alice := signedUpClient(t, address, "alice")
	sendCommand(t, alice, wire.Command{Action: wire.ActionCreateRoom, Room: "go"})
	sendCommand(t, alice, wire.Command{Action: wire.ActionCreateRoom, Room: "go"})
	response := readResponse(t, alice)
	if response.Kind != wire.ResponseError || response.Error.Code != wire.ErrorRoomExists {
		t.Fatalf("duplicate create response = %+v, want room-exists", response)
	}
	// Creating under the lobby's name is likewise a duplicate.
	sendCommand(t, alice, wire.Command{Action: wire.ActionCreateRoom, Room: DefaultLobbyName})
	response = readResponse(t, alice)
	if response.Kind != wire.ResponseError || response.Error.Code != wire.ErrorRoomExists {
		t.Fatalf("lobby create response = %+v, want room-exists", response)
	}
}

// Two sessions on the same account may coexist, but not in the same
// room: the second admission is refused and the session lands back in
// the lobby.
func TestDuplicateUsernameAdmissionRejected(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	first := signedUpClient(t, address, "alice")
	sendCommand(t, first, wire.Command{Action: wire.ActionCreateRoom, Room: "dup"})
	sendCommand(t, first, wire.Command{Action: wire.ActionSelectRoom, Room: "dup"})
	if roster := accountsIn(t, first); !roster["alice"] {
		t.Fatalf("first session's roster = %v", roster)
	}

	second := dialTestServer(t, address)
	if err := second.LogIn("alice", "hunter2"); err != nil {
		t.Fatalf("second session logging in: %v", err)
	}
	sendCommand(t, second, wire.Command{Action: wire.ActionSelectRoom, Room: "dup"})
	response := readResponse(t, second)
	if response.Kind != wire.ResponseError || response.Error.Code != wire.ErrorNameTaken {
		t.Fatalf("duplicate admission response = %+v, want name-taken", response)
	}

	// The refused session is back in the lobby, not stranded: leaving
	// the lobby is refused, and the first session is undisturbed.
	sendCommand(t, second, wire.Command{Action: wire.ActionExitRoom})
	response = readResponse(t, second)
	if response.Kind != wire.ResponseError || response.Error.Code != wire.ErrorNotHere {
		t.Fatalf("post-rejection exit response = %+v, want not-available", response)
	}
	if roster := accountsIn(t, first); !roster["alice"] {
		t.Fatalf("first session's roster after rejection = %v", roster)
	}
}

// A connection burning through its sign-in attempt budget is closed.
func TestSignInAttemptBudget(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{MaxSignInAttempts: 3})

	conn := dialTestServer(t, address)
	var signInErr *client.SignInError
	for attempt := 1; attempt <= 3; attempt++ {
		if err := conn.LogIn("alice", "wrong"); !errors.As(err, &signInErr) {
			t.Fatalf("attempt %d: error = %v, want a sign-in rejection", attempt, err)
		}
	}
	if _, err := conn.Read(); err == nil {
		t.Fatal("connection still alive after exhausting the attempt budget")
	}
}

func TestExitDuringHandshake(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	conn := dialTestServer(t, address)
	sendCommand(t, conn, wire.Command{Action: wire.ActionExit})
	if _, err := conn.Read(); err == nil {
		t.Fatal("connection still alive after handshake exit")
	}
}

// Log-out returns the connection to the handshake; the same transport
// then signs in again, with stored account state intact.
func TestLogOutReentersHandshake(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	conn := signedUpClient(t, address, "alice")
	color := wire.ColorCyan
	sendCommand(t, conn, wire.Command{Action: wire.ActionSelectColor, Color: &color})
	sendCommand(t, conn, wire.Command{Action: wire.ActionLogOut})

	if err := conn.LogIn("alice", "hunter2"); err != nil {
		t.Fatalf("logging back in after log-out: %v", err)
	}
	sendCommand(t, conn, wire.Command{Action: wire.ActionAccountsList})
	response := readResponse(t, conn)
	if response.Kind != wire.ResponseAccountsList || len(response.Accounts) != 1 {
		t.Fatalf("roster response = %+v", response)
	}
	if account := response.Accounts[0]; account.Username != "alice" || account.Color != wire.ColorCyan {
		t.Fatalf("account after relogin = %+v, want alice in cyan", account)
	}
}

func TestDeleteAccountClosesAndFrees(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	conn := signedUpClient(t, address, "alice")
	sendCommand(t, conn, wire.Command{Action: wire.ActionDeleteAccount})
	if _, err := conn.Read(); err == nil {
		t.Fatal("connection still alive after delete-account")
	}

	// The username is free for a fresh registration.
	signedUpClient(t, address, "alice")
}

// An empty room is eventually deregistered; the lobby never is.
func TestIdleRoomDeregisters(t *testing.T) {
	t.Parallel()
	address, fake := startTestServer(t, Config{RoomIdleTimeout: time.Minute})

	conn := signedUpClient(t, address, "alice")
	sendCommand(t, conn, wire.Command{Action: wire.ActionCreateRoom, Room: "ghost"})
	if rooms := roomsOf(t, conn); !rooms["ghost"] {
		t.Fatalf("rooms = %v, want ghost present", rooms)
	}

	// The empty room arms its idle timer from its own goroutine, so
	// advance-and-check until the deregistration lands.
	deadline := time.Now().Add(5 * time.Second)
	for {
		fake.Advance(time.Minute)
		if rooms := roomsOf(t, conn); !rooms["ghost"] {
			if !rooms[DefaultLobbyName] {
				t.Fatalf("lobby missing from %v", rooms)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("idle room was never deregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A stale name routes nowhere; recreating it works.
	sendCommand(t, conn, wire.Command{Action: wire.ActionSelectRoom, Room: "ghost"})
	response := readResponse(t, conn)
	if response.Kind != wire.ResponseError || response.Error.Code != wire.ErrorNoSuchRoom {
		t.Fatalf("routing to removed room = %+v, want no-such-room", response)
	}
	sendCommand(t, conn, wire.Command{Action: wire.ActionCreateRoom, Room: "ghost"})
	if rooms := roomsOf(t, conn); !rooms["ghost"] {
		t.Fatalf("rooms after recreate = %v, want ghost present", rooms)
	}
}

// A member whose connection dies is dropped without disturbing the
// rest of the room.
func TestMemberFailureIsolated(t *testing.T) {
	t.Parallel()
	address, _ := startTestServer(t, Config{})

	alice := signedUpClient(t, address, "alice")
	sendCommand(t, alice, wire.Command{Action: wire.ActionCreateRoom, Room: "go"})
	sendCommand(t, alice, wire.Command{Action: wire.ActionSelectRoom, Room: "go"})
	accountsIn(t, alice)

	bob := signedUpClient(t, address, "bob")
	sendCommand(t, bob, wire.Command{Action: wire.ActionSelectRoom, Room: "go"})
	accountsIn(t, bob)

	bob.Close()

	// Alice's session keeps working; bob eventually disappears from
	// the roster.
	deadline := time.Now().Add(5 * time.Second)
	for {
		roster := accountsIn(t, alice)
		if !roster["alice"] {
			t.Fatalf("alice missing from her own roster %v", roster)
		}
		if !roster["bob"] {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("bob never dropped from the roster")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
