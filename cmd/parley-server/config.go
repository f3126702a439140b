// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parley-foundation/parley/server"
	"github.com/parley-foundation/parley/wire"
)

// config is the YAML file schema:
//
//	server:
//	  addresses: ["127.0.0.1:2727", ":2727"]
//	  lobby: lobby
//	  maxSignInAttempts: 5
//	  roomIdleTimeout: 5m
//	  admissionQueueSize: 64
//	logging:
//	  level: info
//	  messageLog: /var/log/parley/messages.log
//
// Every field is optional; flags override, and server.Config applies
// its own defaults to whatever remains zero.
type config struct {
	Server  server.Config `yaml:"server"`
	Logging loggingConfig `yaml:"logging"`
}

type loggingConfig struct {
	// Level is the minimum level of the operational log: debug, info,
	// warn, or error. Defaults to info.
	Level string `yaml:"level"`

	// MessageLog is the path of the chat transcript sink. Empty routes
	// transcript records to the operational log.
	MessageLog string `yaml:"messageLog"`
}

// loadConfig reads and strictly decodes the YAML file at path. An
// empty path yields a zero config.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// parseLobbyName validates the --lobby flag value.
func parseLobbyName(raw string) (wire.RoomName, error) {
	name, err := wire.ParseRoomName(raw)
	if err != nil {
		return "", fmt.Errorf("--lobby: %w", err)
	}
	return name, nil
}
