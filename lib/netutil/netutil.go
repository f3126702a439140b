// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds the networking helpers shared by the server's
// accept loop and the per-connection error paths.
package netutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection
// reset. A client closing its console produces one of these on the
// server's in-flight read or write; none of them should be logged at
// error level.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

// ListenFirst binds a TCP listener to the first usable address in
// candidates, in order. Addresses that fail to bind are logged at
// warn level and skipped. Returns an error only when every candidate
// fails — for the server that is the one client-independent fatal
// startup condition.
func ListenFirst(logger *slog.Logger, candidates []string) (net.Listener, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no listen addresses configured")
	}
	var errs []error
	for _, address := range candidates {
		listener, err := net.Listen("tcp", address)
		if err != nil {
			logger.Warn("failed to bind address", "address", address, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", address, err))
			continue
		}
		return listener, nil
	}
	return nil, fmt.Errorf("no bindable address among %d candidates: %w", len(candidates), errors.Join(errs...))
}
