// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/parley-foundation/parley/wire"
)

// renderer turns server messages into console lines. Styling is
// keyed by each account's chosen color and disabled on non-terminal
// stdout.
type renderer struct {
	styled bool
	styles map[wire.Color]lipgloss.Style
}

func newRenderer(styled bool) *renderer {
	// The eight wire colors map onto the eight basic ANSI colors in
	// declaration order.
	styles := make(map[wire.Color]lipgloss.Style, wire.ColorWhite+1)
	for c := wire.ColorBlack; c <= wire.ColorWhite; c++ {
		styles[c] = lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("%d", uint8(c))))
	}
	return &renderer{styled: styled, styles: styles}
}

func (r *renderer) username(account wire.Account) string {
	name := string(account.Username)
	if !r.styled {
		return name
	}
	return r.styles[account.Color].Render(name)
}

func (r *renderer) render(message wire.ServerMessage) string {
	if message.Broadcast != nil {
		b := message.Broadcast
		return fmt.Sprintf("[%s] %s: %s",
			b.SentAt.Local().Format("15:04:05"), r.username(b.Sender), b.Text)
	}
	return r.renderResponse(*message.Response)
}

func (r *renderer) renderResponse(response wire.Response) string {
	switch response.Kind {
	case wire.ResponseSignIn:
		if response.SignIn.OK {
			return "signed in"
		}
		return fmt.Sprintf("sign-in failed: %s", response.SignIn.Code)

	case wire.ResponseRoomsList:
		if len(response.Rooms) == 0 {
			return "no rooms"
		}
		names := make([]string, len(response.Rooms))
		for i, room := range response.Rooms {
			names[i] = string(room)
		}
		return "rooms: " + strings.Join(names, ", ")

	case wire.ResponseAccountsList:
		names := make([]string, len(response.Accounts))
		for i, account := range response.Accounts {
			names[i] = r.username(account)
		}
		return "here: " + strings.Join(names, ", ")

	case wire.ResponseError:
		return fmt.Sprintf("error (%s): %s", response.Error.Code, response.Error.Message)

	default:
		return fmt.Sprintf("unrecognized response kind %q", response.Kind)
	}
}
