// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// parley-client is the console chat client: one line of input per
// message, `:` commands per the client package grammar, server
// traffic rendered to stdout as it arrives.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/parley-foundation/parley/client"
	"github.com/parley-foundation/parley/lib/netutil"
	"github.com/parley-foundation/parley/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("parley-client", pflag.ContinueOnError)
	addresses := flags.StringArrayP("address", "a", []string{"127.0.0.1:2727"},
		"candidate server address, repeatable; the first reachable wins")
	noColor := flags.Bool("no-color", false, "disable styled output")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	conn, err := client.Dial(logger, *addresses)
	if err != nil {
		return err
	}
	defer conn.Close()

	renderer := newRenderer(!*noColor && term.IsTerminal(int(os.Stdout.Fd())))
	fmt.Println("sign in with ::LogIn <username> <password> or ::SignUp <username> <password>; ::Quit leaves")

	// Server traffic renders as it arrives, independent of the input
	// loop below.
	received := make(chan error, 1)
	go func() {
		for {
			message, err := conn.Read()
			if err != nil {
				received <- err
				return
			}
			fmt.Println(renderer.render(message))
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		message, err := client.ParseLine(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "input: %v\n", err)
			continue
		}
		if err := conn.Send(message); err != nil {
			var readErr error
			select {
			case readErr = <-received:
			default:
			}
			return disconnectError(readErr, err)
		}
		if message.Command != nil && message.Command.Action == wire.ActionExit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	// Stdin closed; leave cleanly.
	return conn.Send(wire.NewCommandMessage(wire.Command{Action: wire.ActionExit}))
}

// disconnectError prefers the read-side error, which names why the
// server went away; the send failure is just its symptom.
func disconnectError(readErr, sendErr error) error {
	if readErr != nil && !netutil.IsExpectedCloseError(readErr) {
		return fmt.Errorf("connection lost: %w", readErr)
	}
	if netutil.IsExpectedCloseError(sendErr) {
		return fmt.Errorf("server closed the connection")
	}
	return fmt.Errorf("sending message: %w", sendErr)
}
