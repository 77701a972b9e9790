// Package session keeps short lived OIDC state tokens in a fiber storage.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/idsync/idsync/internal/auth"
)

const (
	keyPrefix = "oidc:state:"

	// DefaultExpiry is the lifetime of a state token.
	DefaultExpiry = 5 * time.Minute
)

// ErrStorageNil is returned when no storage is given.
var ErrStorageNil = errors.New("storage is nil")

// StateStore issues state tokens and consumes each of them once.
type StateStore struct {
	storage fiber.Storage
	expiry  time.Duration
}

// NewStateStore creates a StateStore. A zero expiry selects DefaultExpiry.
func NewStateStore(storage fiber.Storage, expiry time.Duration) (*StateStore, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &StateStore{storage: storage, expiry: expiry}, nil
}

// Issue creates and remembers a new state token.
func (s *StateStore) Issue() (string, error) {
	state, err := auth.GenerateStateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	deadline := time.Now().Add(s.expiry).UTC().Format(time.RFC3339Nano)

	if err = s.storage.Set(keyPrefix+state, []byte(deadline), s.expiry); err != nil {
		return "", fmt.Errorf("failed to store state token: %w", err)
	}

	return state, nil
}

// Consume reports whether state was issued and has not expired. A state
// can be consumed once.
func (s *StateStore) Consume(state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	raw, err := s.storage.Get(keyPrefix + state)
	if err != nil {
		return false, fmt.Errorf("failed to read state token: %w", err)
	}

	if len(raw) == 0 {
		return false, nil
	}

	if err = s.storage.Delete(keyPrefix + state); err != nil {
		return false, fmt.Errorf("failed to delete state token: %w", err)
	}

	// storages without native expiry keep the key; the deadline decides
	deadline, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return false, nil //nolint:nilerr
	}

	return time.Now().Before(deadline), nil
}
