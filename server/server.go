// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/parley-foundation/parley/lib/clock"
	"github.com/parley-foundation/parley/lib/netutil"
	"github.com/parley-foundation/parley/wire"
)

// Config carries the server's tunables. The zero value is not usable;
// call (*Config).applyDefaults or construct through New, which does.
type Config struct {
	// Addresses are the candidate listen addresses, tried in order;
	// the first that binds wins.
	Addresses []string `yaml:"addresses"`

	// LobbyName is the room every authenticated session starts in and
	// returns to on exit-room. The lobby is created at startup and
	// never idles out.
	LobbyName wire.RoomName `yaml:"lobby"`

	// MaxSignInAttempts bounds failed log-in/sign-up attempts per
	// connection before the handshake gives up.
	MaxSignInAttempts int `yaml:"maxSignInAttempts"`

	// RoomIdleTimeout is how long a non-lobby room may sit empty
	// before it deregisters itself and stops.
	RoomIdleTimeout time.Duration `yaml:"roomIdleTimeout"`

	// AdmissionQueueSize is the buffer of each room's admission
	// channel: how many sessions may be in transit to a room before
	// routing blocks.
	AdmissionQueueSize int `yaml:"admissionQueueSize"`
}

// Defaults for the zero fields of Config.
const (
	DefaultLobbyName          = wire.RoomName("lobby")
	DefaultMaxSignInAttempts  = 5
	DefaultRoomIdleTimeout    = 5 * time.Minute
	DefaultAdmissionQueueSize = 64
)

func (c *Config) applyDefaults() {
	if len(c.Addresses) == 0 {
		c.Addresses = []string{"127.0.0.1:2727"}
	}
	if c.LobbyName == "" {
		c.LobbyName = DefaultLobbyName
	}
	if c.MaxSignInAttempts == 0 {
		c.MaxSignInAttempts = DefaultMaxSignInAttempts
	}
	if c.RoomIdleTimeout == 0 {
		c.RoomIdleTimeout = DefaultRoomIdleTimeout
	}
	if c.AdmissionQueueSize == 0 {
		c.AdmissionQueueSize = DefaultAdmissionQueueSize
	}
}

// Server ties the pieces together: one account store, one registry,
// one clock, shared by every connection the accept loop spawns.
type Server struct {
	config   Config
	store    AccountStore
	registry *Registry
	clock    clock.Clock

	logger *slog.Logger

	// messageLog receives one record per broadcast chat message, kept
	// separate from the operational logger so the chat transcript can
	// be routed to its own sink.
	messageLog *slog.Logger
}

// New builds a Server. messageLog may equal logger when no separate
// transcript sink is configured.
func New(config Config, store AccountStore, clk clock.Clock, logger, messageLog *slog.Logger) *Server {
	config.applyDefaults()
	server := &Server{
		config:     config,
		store:      store,
		clock:      clk,
		logger:     logger,
		messageLog: messageLog,
	}
	server.registry = newRegistry(server)
	return server
}

// Listen binds the first usable address from the configuration.
func (s *Server) Listen() (net.Listener, error) {
	return netutil.ListenFirst(s.logger, s.config.Addresses)
}

// Serve creates the lobby and accepts connections on listener until
// ctx is cancelled. Each accepted connection gets its own goroutine
// running the handshake; in-flight sessions are not torn down on
// cancellation — the process is expected to exit.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if err := s.registry.Create(s.config.LobbyName); err != nil {
		return fmt.Errorf("creating lobby %q: %w", s.config.LobbyName, err)
	}
	s.logger.Info("serving", "address", listener.Addr(), "lobby", s.config.LobbyName)

	// Cancellation unblocks Accept by closing the listener.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		netConn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("listener closed, shutting down")
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		session := newSession(s, wire.NewServerConn(netConn), netConn.RemoteAddr().String())
		session.logger.Info("connection accepted")
		go s.runSession(session)
	}
}

// runSession drives one session from handshake to room entry: run the
// sign-in loop, then hand ownership to the lobby. Also re-entered on
// log-out, when a session leaves its room and returns to the
// handshake on the same connection.
func (s *Server) runSession(session *Session) {
	ok, err := session.authenticate()
	if err != nil {
		if netutil.IsExpectedCloseError(err) {
			session.logger.Info("connection closed during handshake")
		} else {
			session.logger.Warn("handshake failed", "error", err)
		}
		session.Close()
		return
	}
	if !ok {
		session.logger.Info("client exited during handshake")
		session.Close()
		return
	}

	if err := s.registry.Route(session, s.config.LobbyName); err != nil {
		session.logger.Error("routing session to lobby", "error", err)
		session.Close()
	}
}
