package identitytest

import (
	"context"
	"slices"
	"sync"

	"github.com/idsync/idsync/internal/identity"
)

// Store is an in-memory identity.Store counting its writes.
type Store struct {
	mu          sync.Mutex
	byLogin     map[string]identity.Identity
	authorities []identity.Authority
	saves       int
	authSaves   int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byLogin: map[string]identity.Identity{}}
}

// Put stores an identity without counting a write.
func (s *Store) Put(id identity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byLogin[id.Login] = id
}

// Saves returns the number of Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saves
}

// AuthoritySaves returns the number of SaveAuthority calls.
func (s *Store) AuthoritySaves() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.authSaves
}

// AuthorityNames lists the catalog in insertion order.
func (s *Store) AuthorityNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.authorities))
	for _, a := range s.authorities {
		names = append(names, a.Name)
	}

	return names
}

// FindByLogin implements identity.Store.
func (s *Store) FindByLogin(_ context.Context, login string) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byLogin[login]
	if !ok {
		return identity.Identity{}, identity.ErrIdentityNotFound
	}

	return id, nil
}

// FindByID implements identity.Store.
func (s *Store) FindByID(_ context.Context, id string) (identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stored := range s.byLogin {
		if stored.ID == id {
			return stored, nil
		}
	}

	return identity.Identity{}, identity.ErrIdentityNotFound
}

// Save implements identity.Store.
func (s *Store) Save(_ context.Context, id identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	s.byLogin[id.Login] = id

	return nil
}

// ListAuthorities implements identity.Store.
func (s *Store) ListAuthorities(_ context.Context) ([]identity.Authority, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.authorities), nil
}

// SaveAuthority implements identity.Store. Known names are kept once.
func (s *Store) SaveAuthority(_ context.Context, authority identity.Authority) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authSaves++

	if slices.ContainsFunc(s.authorities, func(a identity.Authority) bool { return a.Name == authority.Name }) {
		return nil
	}

	s.authorities = append(s.authorities, authority)

	return nil
}
