// Package kvstore persists identities in a key-value storage such as the
// gofiber postgres or mysql storage.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/idsync/idsync/internal/identity"
)

const (
	userKeyPrefix    = "user:id:"
	loginKeyPrefix   = "user:login:"
	authorityCatalog = "authorities"
)

var (
	// ErrStorageNil is returned when no storage is given.
	ErrStorageNil = errors.New("storage is nil")
	// ErrKeyEmpty is returned when saving an identity without id or login.
	ErrKeyEmpty = errors.New("id and login cannot be empty")
)

// Store implements identity.Store on a fiber.Storage.
//
// Identities are stored as JSON under their id, with a second key mapping
// the login to the id. The authority catalog is one JSON list; updates to
// it are serialized per process only.
type Store struct {
	storage fiber.Storage
	mu      sync.Mutex
}

var _ identity.Store = (*Store)(nil)

// New creates a Store.
func New(storage fiber.Storage) (*Store, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	return &Store{storage: storage}, nil
}

// FindByLogin loads an identity by login.
func (s *Store) FindByLogin(ctx context.Context, login string) (identity.Identity, error) {
	id, err := s.storage.Get(loginKeyPrefix + login)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to read login index: %w", err)
	}

	if len(id) == 0 {
		return identity.Identity{}, identity.ErrIdentityNotFound
	}

	return s.FindByID(ctx, string(id))
}

// FindByID loads an identity by id.
func (s *Store) FindByID(_ context.Context, id string) (identity.Identity, error) {
	raw, err := s.storage.Get(userKeyPrefix + id)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to read user: %w", err)
	}

	if len(raw) == 0 {
		return identity.Identity{}, identity.ErrIdentityNotFound
	}

	var out identity.Identity
	if err = json.Unmarshal(raw, &out); err != nil {
		return identity.Identity{}, fmt.Errorf("failed to decode user %s: %w", id, err)
	}

	return out, nil
}

// Save writes the identity and its login index.
func (s *Store) Save(_ context.Context, id identity.Identity) error {
	if id.ID == "" || id.Login == "" {
		return ErrKeyEmpty
	}

	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err = s.storage.Set(userKeyPrefix+id.ID, raw, 0); err != nil {
		return fmt.Errorf("failed to write user: %w", err)
	}

	if err = s.storage.Set(loginKeyPrefix+id.Login, []byte(id.ID), 0); err != nil {
		return fmt.Errorf("failed to write login index: %w", err)
	}

	return nil
}

func (s *Store) catalog() ([]string, error) {
	raw, err := s.storage.Get(authorityCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to read authorities: %w", err)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var names []string
	if err = json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("failed to decode authorities: %w", err)
	}

	return names, nil
}

// ListAuthorities returns the authority catalog ordered by name.
func (s *Store) ListAuthorities(_ context.Context) ([]identity.Authority, error) {
	names, err := s.catalog()
	if err != nil {
		return nil, err
	}

	out := make([]identity.Authority, 0, len(names))
	for _, name := range names {
		out = append(out, identity.Authority{Name: name})
	}

	return out, nil
}

// SaveAuthority adds an authority to the catalog. Existing names are kept.
func (s *Store) SaveAuthority(_ context.Context, authority identity.Authority) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.catalog()
	if err != nil {
		return err
	}

	i := sort.SearchStrings(names, authority.Name)
	if i < len(names) && names[i] == authority.Name {
		return nil
	}

	names = append(names, "")
	copy(names[i+1:], names[i:])
	names[i] = authority.Name

	raw, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode authorities: %w", err)
	}

	if err = s.storage.Set(authorityCatalog, raw, 0); err != nil {
		return fmt.Errorf("failed to write authorities: %w", err)
	}

	return nil
}
