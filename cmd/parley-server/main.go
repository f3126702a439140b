// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// parley-server is the chat server binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/parley-foundation/parley/lib/clock"
	"github.com/parley-foundation/parley/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("parley-server", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file (optional)")
	addresses := flags.StringArrayP("address", "a", nil,
		"candidate listen address, repeatable; the first that binds wins")
	lobby := flags.String("lobby", "", "name of the lobby room")
	idleTimeout := flags.Duration("room-idle-timeout", 0,
		"how long an empty room lives before it is removed")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	messageLogPath := flags.String("message-log", "",
		"file receiving the chat transcript; empty logs it with everything else")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	fileConfig, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// Flags override the file where set.
	if flags.Changed("address") {
		fileConfig.Server.Addresses = *addresses
	}
	if flags.Changed("lobby") {
		if fileConfig.Server.LobbyName, err = parseLobbyName(*lobby); err != nil {
			return err
		}
	}
	if flags.Changed("room-idle-timeout") {
		fileConfig.Server.RoomIdleTimeout = *idleTimeout
	}
	if flags.Changed("log-level") {
		fileConfig.Logging.Level = *logLevel
	}
	if flags.Changed("message-log") {
		fileConfig.Logging.MessageLog = *messageLogPath
	}

	logger, messageLogger, closeLogs, err := buildLoggers(fileConfig.Logging)
	if err != nil {
		return err
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(fileConfig.Server, server.NewMemoryStore(), clock.Real(), logger, messageLogger)
	listener, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("binding listen address: %w", err)
	}

	start := time.Now()
	err = srv.Serve(ctx, listener)
	logger.Info("server stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}
