// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/parley-foundation/parley/wire"
)

// Account store errors. The handshake maps them onto the two
// wire-level sign-in codes; everything else is an internal failure.
var (
	// ErrInvalidCredentials covers both an unknown username and a
	// wrong password — the handshake never tells a client which.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken is returned by SignUp when the username exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrNoSuchAccount is returned by SetColor and Delete for an
	// unknown username.
	ErrNoSuchAccount = errors.New("no such account")
)

// AccountStore is the credential and profile backend. It is an
// interface so the credential check stays pluggable; the in-process
// MemoryStore is the only implementation shipped, since account
// persistence is explicitly out of scope.
//
// Implementations must be safe for concurrent use: the handshake
// goroutines of many connections call it at once.
type AccountStore interface {
	// SignUp creates a new account with the default color. Fails with
	// ErrUsernameTaken if the username exists.
	SignUp(username wire.Username, password wire.Password) (wire.Account, error)

	// LogIn returns the stored account if the credentials match.
	// Fails with ErrInvalidCredentials otherwise.
	LogIn(username wire.Username, password wire.Password) (wire.Account, error)

	// SetColor updates the stored display color so it survives a
	// log-out/log-in cycle on the same process.
	SetColor(username wire.Username, color wire.Color) error

	// Delete removes the account.
	Delete(username wire.Username) error
}

// MemoryStore is the in-memory AccountStore. Passwords are stored as
// bcrypt hashes; accounts vanish when the process exits.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[wire.Username]*storedAccount
}

type storedAccount struct {
	passwordHash []byte
	color        wire.Color
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[wire.Username]*storedAccount)}
}

// SignUp implements AccountStore.
func (s *MemoryStore) SignUp(username wire.Username, password wire.Password) (wire.Account, error) {
	// Hash outside the lock: bcrypt is deliberately slow.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return wire.Account{}, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[username]; exists {
		return wire.Account{}, ErrUsernameTaken
	}
	account := wire.NewAccount(username)
	s.accounts[username] = &storedAccount{
		passwordHash: hash,
		color:        account.Color,
	}
	return account, nil
}

// LogIn implements AccountStore.
func (s *MemoryStore) LogIn(username wire.Username, password wire.Password) (wire.Account, error) {
	s.mu.Lock()
	stored, exists := s.accounts[username]
	var hash []byte
	var color wire.Color
	if exists {
		hash = stored.passwordHash
		color = stored.color
	}
	s.mu.Unlock()

	if !exists {
		return wire.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return wire.Account{}, ErrInvalidCredentials
	}
	return wire.Account{Username: username, Color: color}, nil
}

// SetColor implements AccountStore.
func (s *MemoryStore) SetColor(username wire.Username, color wire.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.accounts[username]
	if !exists {
		return ErrNoSuchAccount
	}
	stored.color = color
	return nil
}

// Delete implements AccountStore.
func (s *MemoryStore) Delete(username wire.Username) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[username]; !exists {
		return ErrNoSuchAccount
	}
	delete(s.accounts, username)
	return nil
}
