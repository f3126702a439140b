// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"strings"
	"testing"

	"github.com/parley-foundation/parley/wire"
)

func TestParseLineText(t *testing.T) {
	t.Parallel()

	message, err := ParseLine("hello there")
	if err != nil {
		t.Fatalf("parsing text line: %v", err)
	}
	if message.Text == nil || *message.Text != "hello there" {
		t.Fatalf("parsed %+v, want text", message)
	}

	// Oversized text is refused locally, before it reaches the wire.
	if _, err := ParseLine(strings.Repeat("x", wire.MaxTextBytes+1)); err == nil {
		t.Fatal("expected error for oversized text")
	}
}

func TestParseLineCommands(t *testing.T) {
	t.Parallel()

	red := wire.ColorRed
	cases := []struct {
		line string
		want wire.Command
	}{
		{":c go", wire.Command{Action: wire.ActionCreateRoom, Room: "go"}},
		{"::CreateRoom go", wire.Command{Action: wire.ActionCreateRoom, Room: "go"}},
		{":s go", wire.Command{Action: wire.ActionSelectRoom, Room: "go"}},
		{"::SelectRoom go", wire.Command{Action: wire.ActionSelectRoom, Room: "go"}},
		{":e", wire.Command{Action: wire.ActionExitRoom}},
		{"::ExitRoom", wire.Command{Action: wire.ActionExitRoom}},
		{":l", wire.Command{Action: wire.ActionRoomsList}},
		{":a", wire.Command{Action: wire.ActionAccountsList}},
		{"::AccountsList", wire.Command{Action: wire.ActionAccountsList}},
		{"::SelectColor red", wire.Command{Action: wire.ActionSelectColor, Color: &red}},
		{":d", wire.Command{Action: wire.ActionDeleteAccount}},
		{"::LogOut", wire.Command{Action: wire.ActionLogOut}},
		{":q", wire.Command{Action: wire.ActionExit}},
		{"::Quit", wire.Command{Action: wire.ActionExit}},
		{"::LogIn alice hunter2", wire.Command{Action: wire.ActionLogIn, Username: "alice", Password: "hunter2"}},
		{"::SignUp bob s3cret", wire.Command{Action: wire.ActionSignUp, Username: "bob", Password: "s3cret"}},
	}

	for _, tc := range cases {
		message, err := ParseLine(tc.line)
		if err != nil {
			t.Errorf("%q: %v", tc.line, err)
			continue
		}
		if message.Command == nil {
			t.Errorf("%q: parsed as text", tc.line)
			continue
		}
		got := *message.Command
		if got.Action != tc.want.Action || got.Username != tc.want.Username ||
			got.Password != tc.want.Password || got.Room != tc.want.Room {
			t.Errorf("%q: parsed %+v, want %+v", tc.line, got, tc.want)
		}
		if (got.Color == nil) != (tc.want.Color == nil) ||
			(got.Color != nil && *got.Color != *tc.want.Color) {
			t.Errorf("%q: color = %v, want %v", tc.line, got.Color, tc.want.Color)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		":c",                // missing room
		":c go extra",       // too many args
		":e now",            // bare command with args
		"::SelectColor",     // missing color
		"::SelectColor pink", // unknown color
		"::LogIn alice",     // missing password
		":z",                // unknown short name
		"::Teleport",        // unknown full name
		":c " + strings.Repeat("r", wire.MaxNameBytes+1),
	} {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("%q: expected parse error", line)
		}
	}

	if _, err := ParseLine(":nope"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("error = %v, want ErrUnknownCommand", err)
	}
}
