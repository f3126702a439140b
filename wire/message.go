// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"
	"time"
)

// Action is the command discriminator carried on the wire.
type Action string

// The command vocabulary. LogIn, SignUp, and Exit are meaningful
// during the sign-in handshake; the rest are dispatched while the
// session is in a room.
const (
	ActionLogIn         Action = "log-in"
	ActionSignUp        Action = "sign-up"
	ActionCreateRoom    Action = "create-room"
	ActionSelectRoom    Action = "select-room"
	ActionExitRoom      Action = "exit-room"
	ActionRoomsList     Action = "rooms-list"
	ActionAccountsList  Action = "accounts-list"
	ActionSelectColor   Action = "select-color"
	ActionDeleteAccount Action = "delete-account"
	ActionLogOut        Action = "log-out"
	ActionExit          Action = "exit"
)

// Command is a client-to-server control message: a flat action-tagged
// struct rather than one type per variant, so the dispatch switch
// stays exhaustive and the CBOR schema stays in one place. Only the
// fields the action requires are set.
type Command struct {
	Action   Action   `cbor:"action"`
	Username Username `cbor:"username,omitempty"`
	Password Password `cbor:"password,omitempty"`
	Room     RoomName `cbor:"room,omitempty"`
	Color    *Color   `cbor:"color,omitempty"`
}

// Validate checks the action is known and its required arguments are
// present and within bounds. Called by the server on every decoded
// inbound command: the bytes came off the network and the bounded
// string types cannot enforce themselves through CBOR decoding.
func (c Command) Validate() error {
	switch c.Action {
	case ActionLogIn, ActionSignUp:
		if err := c.Username.Validate(); err != nil {
			return fmt.Errorf("%s: %w", c.Action, err)
		}
		if err := c.Password.Validate(); err != nil {
			return fmt.Errorf("%s: %w", c.Action, err)
		}
	case ActionCreateRoom, ActionSelectRoom:
		if err := c.Room.Validate(); err != nil {
			return fmt.Errorf("%s: %w", c.Action, err)
		}
	case ActionSelectColor:
		if c.Color == nil {
			return fmt.Errorf("%s: missing color", c.Action)
		}
		if int(*c.Color) >= len(colorNames) {
			return fmt.Errorf("%s: invalid color %d", c.Action, uint8(*c.Color))
		}
	case ActionExitRoom, ActionRoomsList, ActionAccountsList, ActionDeleteAccount, ActionLogOut, ActionExit:
		// No arguments.
	default:
		return fmt.Errorf("unknown action %q", c.Action)
	}
	return nil
}

// ClientMessage is the client-to-server union: chat text or a
// command. Exactly one side is set.
type ClientMessage struct {
	Text    *UserMessage `cbor:"text,omitempty"`
	Command *Command     `cbor:"command,omitempty"`
}

// NewTextMessage wraps chat text in a ClientMessage.
func NewTextMessage(text UserMessage) ClientMessage {
	return ClientMessage{Text: &text}
}

// NewCommandMessage wraps a command in a ClientMessage.
func NewCommandMessage(command Command) ClientMessage {
	return ClientMessage{Command: &command}
}

// Validate checks the union invariant and the payload bounds.
func (m ClientMessage) Validate() error {
	switch {
	case m.Text != nil && m.Command != nil:
		return fmt.Errorf("client message carries both text and command")
	case m.Text != nil:
		return m.Text.Validate()
	case m.Command != nil:
		return m.Command.Validate()
	default:
		return fmt.Errorf("client message carries neither text nor command")
	}
}

// AccountMessage is what the room actually broadcasts: the text plus
// who sent it and when, so recipients can attribute and order it.
type AccountMessage struct {
	Text   UserMessage `cbor:"text"`
	Sender Account     `cbor:"sender"`
	SentAt time.Time   `cbor:"sent_at"`
}

// ServerMessage is the server-to-client union: a broadcast chat
// message or a response to a command. Exactly one side is set.
type ServerMessage struct {
	Broadcast *AccountMessage `cbor:"broadcast,omitempty"`
	Response  *Response       `cbor:"response,omitempty"`
}

// NewBroadcastMessage wraps an AccountMessage in a ServerMessage.
func NewBroadcastMessage(message AccountMessage) ServerMessage {
	return ServerMessage{Broadcast: &message}
}

// NewResponseMessage wraps a Response in a ServerMessage.
func NewResponseMessage(response Response) ServerMessage {
	return ServerMessage{Response: &response}
}

// Validate checks the union invariant.
func (m ServerMessage) Validate() error {
	switch {
	case m.Broadcast != nil && m.Response != nil:
		return fmt.Errorf("server message carries both broadcast and response")
	case m.Broadcast == nil && m.Response == nil:
		return fmt.Errorf("server message carries neither broadcast nor response")
	}
	return nil
}

// ResponseKind discriminates the Response union.
type ResponseKind string

// The response vocabulary.
const (
	ResponseRoomsList    ResponseKind = "rooms-list"
	ResponseAccountsList ResponseKind = "accounts-list"
	ResponseSignIn       ResponseKind = "sign-in"
	ResponseError        ResponseKind = "error"
)

// Response answers a client command. Only the field selected by Kind
// is populated.
type Response struct {
	Kind ResponseKind `cbor:"kind"`

	// Rooms is the registry snapshot for rooms-list. No ordering is
	// guaranteed.
	Rooms []RoomName `cbor:"rooms,omitempty"`

	// Accounts lists the current room's members for accounts-list.
	Accounts []Account `cbor:"accounts,omitempty"`

	// SignIn reports the outcome of a log-in or sign-up attempt.
	SignIn *SignInResult `cbor:"sign_in,omitempty"`

	// Error reports a failed command (routing conflicts, unknown
	// rooms, rejected admissions).
	Error *CommandError `cbor:"error,omitempty"`
}

// SignInResult reports a log-in or sign-up outcome. Code is empty
// when OK is true.
type SignInResult struct {
	OK   bool            `cbor:"ok"`
	Code SignInErrorCode `cbor:"code,omitempty"`
}

// SignInErrorCode identifies why a sign-in attempt failed.
type SignInErrorCode string

// Sign-in failure codes. Log-in never distinguishes a missing
// account from a wrong password.
const (
	SignInInvalidCredentials SignInErrorCode = "invalid-username-password"
	SignInUsernameTaken      SignInErrorCode = "username-taken"
)

// ErrorCode identifies why a command failed.
type ErrorCode string

// Command failure codes.
const (
	ErrorRoomExists ErrorCode = "room-exists"
	ErrorNoSuchRoom ErrorCode = "no-such-room"
	ErrorRoomClosed ErrorCode = "room-closed"
	ErrorNameTaken  ErrorCode = "name-taken"
	ErrorNotHere    ErrorCode = "not-available"
)

// CommandError is the user-visible description of a failed command.
type CommandError struct {
	Code    ErrorCode `cbor:"code"`
	Message string    `cbor:"message"`
}

// NewRoomsListResponse builds a rooms-list response.
func NewRoomsListResponse(rooms []RoomName) Response {
	return Response{Kind: ResponseRoomsList, Rooms: rooms}
}

// NewAccountsListResponse builds an accounts-list response.
func NewAccountsListResponse(accounts []Account) Response {
	return Response{Kind: ResponseAccountsList, Accounts: accounts}
}

// NewSignInOK builds a successful sign-in response.
func NewSignInOK() Response {
	return Response{Kind: ResponseSignIn, SignIn: &SignInResult{OK: true}}
}

// NewSignInError builds a failed sign-in response.
func NewSignInError(code SignInErrorCode) Response {
	return Response{Kind: ResponseSignIn, SignIn: &SignInResult{Code: code}}
}

// NewCommandError builds an error response.
func NewCommandError(code ErrorCode, format string, args ...any) Response {
	return Response{Kind: ResponseError, Error: &CommandError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}}
}
