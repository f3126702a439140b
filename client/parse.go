// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/parley-foundation/parley/wire"
)

// ErrUnknownCommand is returned by ParseLine for a `:` line whose
// command name is not in the table.
var ErrUnknownCommand = errors.New("unknown command name")

// ParseLine turns one console line into a client message:
//
//	:<short> [ARG..]     command by one-letter short name
//	::<FullName> [ARG..] command by full name
//	anything else        chat text
//
// Short names cover the common commands; every command has a full
// name. A line starting with a literal `:` can therefore never be
// sent as text.
func ParseLine(line string) (wire.ClientMessage, error) {
	if !strings.HasPrefix(line, ":") {
		text, err := wire.ParseUserMessage(line)
		if err != nil {
			return wire.ClientMessage{}, err
		}
		return wire.NewTextMessage(text), nil
	}

	command, err := parseCommand(line[1:])
	if err != nil {
		return wire.ClientMessage{}, err
	}
	return wire.NewCommandMessage(command), nil
}

// parseCommand parses the line after its leading `:`. Full names keep
// their own leading `:` here, so "::Quit" arrives as ":Quit".
func parseCommand(input string) (wire.Command, error) {
	name := input
	rest := ""
	if pos := strings.IndexByte(input, ' '); pos >= 0 {
		name, rest = input[:pos], input[pos+1:]
	}
	args := strings.Fields(rest)

	switch name {
	case ":LogIn":
		return signInCommand(wire.ActionLogIn, args)
	case ":SignUp":
		return signInCommand(wire.ActionSignUp, args)

	case "c", ":CreateRoom":
		return roomCommand(wire.ActionCreateRoom, args)
	case "s", ":SelectRoom":
		return roomCommand(wire.ActionSelectRoom, args)

	case "e", ":ExitRoom":
		return bareCommand(wire.ActionExitRoom, args)
	case "l", ":RoomsList":
		return bareCommand(wire.ActionRoomsList, args)
	case "a", ":AccountsList":
		return bareCommand(wire.ActionAccountsList, args)

	case ":SelectColor":
		if err := wantArgs(args, 1); err != nil {
			return wire.Command{}, err
		}
		color, err := wire.ParseColor(args[0])
		if err != nil {
			return wire.Command{}, err
		}
		return wire.Command{Action: wire.ActionSelectColor, Color: &color}, nil

	case "d", ":DeleteAccount":
		return bareCommand(wire.ActionDeleteAccount, args)
	case ":LogOut":
		return bareCommand(wire.ActionLogOut, args)
	case "q", ":Quit":
		return bareCommand(wire.ActionExit, args)

	default:
		return wire.Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

func wantArgs(args []string, expected int) error {
	if len(args) != expected {
		return fmt.Errorf("command takes %d argument(s), got %d", expected, len(args))
	}
	return nil
}

func bareCommand(action wire.Action, args []string) (wire.Command, error) {
	if err := wantArgs(args, 0); err != nil {
		return wire.Command{}, err
	}
	return wire.Command{Action: action}, nil
}

func roomCommand(action wire.Action, args []string) (wire.Command, error) {
	if err := wantArgs(args, 1); err != nil {
		return wire.Command{}, err
	}
	room, err := wire.ParseRoomName(args[0])
	if err != nil {
		return wire.Command{}, err
	}
	return wire.Command{Action: action, Room: room}, nil
}

func signInCommand(action wire.Action, args []string) (wire.Command, error) {
	if err := wantArgs(args, 2); err != nil {
		return wire.Command{}, err
	}
	username, err := wire.ParseUsername(args[0])
	if err != nil {
		return wire.Command{}, err
	}
	password, err := wire.ParsePassword(args[1])
	if err != nil {
		return wire.Command{}, err
	}
	return wire.Command{Action: action, Username: username, Password: password}, nil
}
