// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxNameBytes bounds usernames, passwords, and room names. Equality
// and map-key hashing are byte-exact.
const MaxNameBytes = 32

// MaxTextBytes bounds the text of a single user message.
const MaxTextBytes = 1024

// Username identifies an account. Non-empty, at most MaxNameBytes
// bytes, no whitespace (the console grammar splits command arguments
// on whitespace, so a username containing spaces could never be typed
// back).
type Username string

// ParseUsername validates raw as a Username.
func ParseUsername(raw string) (Username, error) {
	if err := validateName("username", raw); err != nil {
		return "", err
	}
	return Username(raw), nil
}

// Validate reports whether the Username satisfies the parse rules.
// Used on decoded inbound commands, which arrive from the network and
// bypass ParseUsername.
func (u Username) Validate() error { return validateName("username", string(u)) }

// Password is a sign-in password. Same bounds as Username.
type Password string

// ParsePassword validates raw as a Password.
func ParsePassword(raw string) (Password, error) {
	if err := validateName("password", raw); err != nil {
		return "", err
	}
	return Password(raw), nil
}

// Validate reports whether the Password satisfies the parse rules.
func (p Password) Validate() error { return validateName("password", string(p)) }

// RoomName is the unique key for a room. Same bounds as Username.
type RoomName string

// ParseRoomName validates raw as a RoomName.
func ParseRoomName(raw string) (RoomName, error) {
	if err := validateName("room name", raw); err != nil {
		return "", err
	}
	return RoomName(raw), nil
}

// Validate reports whether the RoomName satisfies the parse rules.
func (n RoomName) Validate() error { return validateName("room name", string(n)) }

func validateName(kind, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is empty", kind)
	}
	if len(raw) > MaxNameBytes {
		return fmt.Errorf("%s exceeds %d bytes: %d", kind, MaxNameBytes, len(raw))
	}
	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%s contains whitespace", kind)
	}
	return nil
}

// UserMessage is the text of one chat message. At most MaxTextBytes
// bytes; a value type with no identity.
type UserMessage string

// ParseUserMessage validates raw as a UserMessage.
func ParseUserMessage(raw string) (UserMessage, error) {
	if err := UserMessage(raw).Validate(); err != nil {
		return "", err
	}
	return UserMessage(raw), nil
}

// Validate reports whether the UserMessage satisfies the bounds.
func (m UserMessage) Validate() error {
	if len(m) > MaxTextBytes {
		return fmt.Errorf("message exceeds %d bytes: %d", MaxTextBytes, len(m))
	}
	return nil
}

// Color is an account's display color. It serializes as a CBOR text
// string via MarshalText (lib/codec configures the encoder for this),
// so the wire carries "red", not an enum ordinal that would silently
// renumber if a variant were inserted.
type Color uint8

// The eight display colors. New accounts start white.
const (
	ColorBlack Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

var colorNames = [...]string{
	ColorBlack:   "black",
	ColorRed:     "red",
	ColorGreen:   "green",
	ColorYellow:  "yellow",
	ColorBlue:    "blue",
	ColorMagenta: "magenta",
	ColorCyan:    "cyan",
	ColorWhite:   "white",
}

// String returns the lowercase color name.
func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// ParseColor parses a color name. Matching is case-insensitive.
func ParseColor(raw string) (Color, error) {
	for color, name := range colorNames {
		if strings.EqualFold(raw, name) {
			return Color(color), nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	if int(c) >= len(colorNames) {
		return nil, fmt.Errorf("cannot marshal invalid color %d", uint8(c))
	}
	return []byte(colorNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(data []byte) error {
	parsed, err := ParseColor(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Account is a signed-in identity: the username is the identity key,
// the color is mutable display metadata. Accounts live for the
// session's lifetime and are not persisted.
type Account struct {
	Username Username `cbor:"username"`
	Color    Color    `cbor:"color"`
}

// NewAccount creates an Account with the default white color.
func NewAccount(username Username) Account {
	return Account{Username: username, Color: ColorWhite}
}
