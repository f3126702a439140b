// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the client side of the chat protocol: dialing,
// the sign-in handshake, and the console line grammar.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/parley-foundation/parley/wire"
)

// SignInError is a sign-in attempt the server rejected. The
// connection stays open; the caller may retry with other credentials.
type SignInError struct {
	Code wire.SignInErrorCode
}

func (e *SignInError) Error() string {
	return fmt.Sprintf("sign-in rejected: %s", e.Code)
}

// Client is one framed connection to a chat server.
type Client struct {
	conn   *wire.ClientConn
	remote string
}

// Dial connects to the first reachable of the candidate addresses,
// in order. Unreachable candidates are logged and skipped; the
// returned error joins every failure when none is reachable.
func Dial(logger *slog.Logger, addresses []string) (*Client, error) {
	var errs []error
	for _, address := range addresses {
		netConn, err := net.Dial("tcp", address)
		if err != nil {
			logger.Warn("server address unreachable", "address", address, "error", err)
			errs = append(errs, fmt.Errorf("dial %q: %w", address, err))
			continue
		}
		logger.Info("connected", "address", address)
		return &Client{
			conn:   wire.NewClientConn(netConn),
			remote: address,
		}, nil
	}
	return nil, fmt.Errorf("no reachable server among %d addresses: %w", len(addresses), errors.Join(errs...))
}

// NewClient wraps an already-open transport, for tests and custom
// dialers.
func NewClient(conn *wire.ClientConn, remote string) *Client {
	return &Client{conn: conn, remote: remote}
}

// Remote returns the address the client connected to.
func (c *Client) Remote() string { return c.remote }

// Close closes the transport.
func (c *Client) Close() error { return c.conn.Close() }

// Send transmits one client message.
func (c *Client) Send(message wire.ClientMessage) error {
	return c.conn.Send(message)
}

// Read blocks for the next server message and validates its union
// shape.
func (c *Client) Read() (wire.ServerMessage, error) {
	message, err := c.conn.Read()
	if err != nil {
		return wire.ServerMessage{}, err
	}
	if err := message.Validate(); err != nil {
		return wire.ServerMessage{}, fmt.Errorf("malformed server message: %w", err)
	}
	return message, nil
}

// LogIn authenticates against an existing account. A server rejection
// is returned as *SignInError; any other error is fatal to the
// connection.
func (c *Client) LogIn(username wire.Username, password wire.Password) error {
	return c.signIn(wire.Command{
		Action:   wire.ActionLogIn,
		Username: username,
		Password: password,
	})
}

// SignUp creates an account and signs in on it.
func (c *Client) SignUp(username wire.Username, password wire.Password) error {
	return c.signIn(wire.Command{
		Action:   wire.ActionSignUp,
		Username: username,
		Password: password,
	})
}

func (c *Client) signIn(command wire.Command) error {
	if err := c.Send(wire.NewCommandMessage(command)); err != nil {
		return fmt.Errorf("sending %s: %w", command.Action, err)
	}

	message, err := c.Read()
	if err != nil {
		return fmt.Errorf("awaiting %s response: %w", command.Action, err)
	}
	response := message.Response
	if response == nil || response.Kind != wire.ResponseSignIn || response.SignIn == nil {
		return fmt.Errorf("server answered %s with an unexpected message", command.Action)
	}
	if !response.SignIn.OK {
		return &SignInError{Code: response.SignIn.Code}
	}
	return nil
}
