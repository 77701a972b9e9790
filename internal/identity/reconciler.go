package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Reconciler merges provider identities into the local store.
//
// Two reconciliations of the same login are not serialized: the last
// write wins.
type Reconciler struct {
	store      Store
	normalizer Normalizer
	rolesClaim string
	now        func() time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithClock replaces the wall clock used to stamp local writes.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.now = now
	}
}

// WithRolesClaim sets the claim that carries group or role names next to realm_access.roles.
func WithRolesClaim(name string) ReconcilerOption {
	return func(r *Reconciler) {
		r.rolesClaim = name
	}
}

// NewReconciler creates a Reconciler over the given store.
func NewReconciler(store Store, normalizer Normalizer, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:      store,
		normalizer: normalizer,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reconcile merges an incoming identity with its local record.
//
// The authority catalog is completed before the identity is touched. A new
// login is stored verbatim. For a known login the profile fields are
// overwritten when updatedAt is nil, or only when updatedAt is after the
// local LastModified. ID and Login of an existing record never change.
//
// A skipped update writes nothing: the returned identity carries the incoming
// Authorities, Activated and EmailVerified while the stored record keeps its own.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	incoming Identity,
	authorities []string,
	updatedAt *time.Time,
) (Identity, error) {
	if err := r.syncAuthorities(ctx, authorities); err != nil {
		return Identity{}, err
	}

	incoming.Login = strings.ToLower(incoming.Login)
	incoming.Authorities = authorities

	local, err := r.store.FindByLogin(ctx, incoming.Login)
	if errors.Is(err, ErrIdentityNotFound) {
		incoming.LastModified = r.now()

		if err = r.store.Save(ctx, incoming); err != nil {
			return Identity{}, fmt.Errorf("failed to save identity: %w", err)
		}

		log.Debug().Str("login", incoming.Login).Msg("saving user in local database")

		return incoming, nil
	}

	if err != nil {
		return Identity{}, fmt.Errorf("failed to load identity: %w", err)
	}

	merged := local
	merged.Authorities = authorities
	merged.Activated = incoming.Activated
	merged.EmailVerified = incoming.EmailVerified

	if updatedAt != nil && !updatedAt.After(local.LastModified) {
		log.Debug().
			Str("login", local.Login).
			Time("updated_at", *updatedAt).
			Time("last_modified", local.LastModified).
			Msg("local user is newer, skipping profile update")

		return merged, nil
	}

	merged.FirstName = incoming.FirstName
	merged.LastName = incoming.LastName
	merged.Email = strings.ToLower(incoming.Email)
	merged.LangKey = incoming.LangKey
	merged.ImageURL = incoming.ImageURL
	merged.LastModified = r.now()

	if err = r.store.Save(ctx, merged); err != nil {
		return Identity{}, fmt.Errorf("failed to update identity: %w", err)
	}

	log.Debug().Str("login", merged.Login).Msg("updating user in local database")

	return merged, nil
}

func (r *Reconciler) syncAuthorities(ctx context.Context, authorities []string) error {
	if len(authorities) == 0 {
		return nil
	}

	catalog, err := r.store.ListAuthorities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list authorities: %w", err)
	}

	known := make(map[string]struct{}, len(catalog))
	for _, a := range catalog {
		known[a.Name] = struct{}{}
	}

	for _, name := range authorities {
		if _, ok := known[name]; ok {
			continue
		}

		if err = r.store.SaveAuthority(ctx, Authority{Name: name}); err != nil {
			return fmt.Errorf("failed to save authority %s: %w", name, err)
		}

		known[name] = struct{}{}
	}

	return nil
}

// GetUserFromAuthentication normalizes a claim set and reconciles the result.
// Authorities are read from the claims when none are given.
func (r *Reconciler) GetUserFromAuthentication(ctx context.Context, claims ClaimSet, authorities []string) (Identity, error) {
	incoming, err := r.normalizer.Normalize(claims)
	if err != nil {
		return Identity{}, err
	}

	if authorities == nil {
		authorities = claims.Authorities(r.rolesClaim)
	}

	var updatedAt *time.Time
	if t, ok := claims.UpdatedAt(); ok {
		updatedAt = &t
	}

	return r.Reconcile(ctx, incoming, authorities, updatedAt)
}

// UpdateCurrentProfile changes the local profile of the given login.
func (r *Reconciler) UpdateCurrentProfile(ctx context.Context, login string, update ProfileUpdate) (Identity, error) {
	if login == "" {
		return Identity{}, ErrNotAuthenticated
	}

	local, err := r.store.FindByLogin(ctx, strings.ToLower(login))
	if err != nil {
		return Identity{}, err
	}

	local.FirstName = update.FirstName
	local.LastName = update.LastName

	if update.Email != "" {
		local.Email = strings.ToLower(update.Email)
	}

	if update.LangKey != "" {
		local.LangKey = update.LangKey
	}

	local.ImageURL = update.ImageURL
	local.LastModified = r.now()

	if err = r.store.Save(ctx, local); err != nil {
		return Identity{}, fmt.Errorf("failed to update identity: %w", err)
	}

	log.Debug().Str("login", local.Login).Msg("changed information for user")

	return local, nil
}

// GetAuthorities returns the names of the authority catalog.
func (r *Reconciler) GetAuthorities(ctx context.Context) ([]string, error) {
	catalog, err := r.store.ListAuthorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorities: %w", err)
	}

	names := make([]string, 0, len(catalog))
	for _, a := range catalog {
		names = append(names, a.Name)
	}

	return names, nil
}

// GetUserWithAuthoritiesByLogin loads a local identity with its authorities.
func (r *Reconciler) GetUserWithAuthoritiesByLogin(ctx context.Context, login string) (Identity, error) {
	return r.store.FindByLogin(ctx, strings.ToLower(login))
}
