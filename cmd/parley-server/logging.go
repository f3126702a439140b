// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
)

// buildLoggers constructs the operational logger and the chat
// transcript logger. With no messageLog path configured, both are the
// same logger; otherwise transcript records go only to the configured
// file, append-only, so a restart continues the transcript.
func buildLoggers(cfg loggingConfig) (logger, messageLogger *slog.Logger, closeLogs func(), err error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.MessageLog == "" {
		return logger, logger, func() {}, nil
	}

	file, err := os.OpenFile(cfg.MessageLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening message log: %w", err)
	}
	messageLogger = slog.New(slog.NewTextHandler(file, nil))
	return logger, messageLogger, func() { file.Close() }, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch raw {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}
