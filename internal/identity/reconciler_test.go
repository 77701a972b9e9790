package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/identity/identitytest"
)

var (
	t0 = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seededStore() *identitytest.Store {
	store := identitytest.NewStore()
	store.Put(identity.Identity{
		ID:           "id-1",
		Login:        "jdoe",
		FirstName:    "Old",
		LastName:     "Name",
		Email:        "old@example.com",
		LangKey:      "en",
		Activated:    true,
		Authorities:  []string{"ROLE_USER"},
		LastModified: t0,
	})

	return store
}

func TestReconcileCreatesUnknownLogin(t *testing.T) {
	store := identitytest.NewStore()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	r := identity.NewReconciler(store, identity.Normalizer{DefaultLangKey: "en"}, identity.WithClock(fixedClock(now)))

	incoming := identity.Identity{ID: "id-9", Login: "NewUser", Email: "n@example.com", Activated: true}

	got, err := r.Reconcile(context.Background(), incoming, []string{"ROLE_USER"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "newuser", got.Login)
	assert.Equal(t, now, got.LastModified)
	assert.Equal(t, []string{"ROLE_USER"}, got.Authorities)

	stored, err := store.FindByLogin(context.Background(), "newuser")
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestReconcileTimestampRule(t *testing.T) {
	testCases := []struct {
		name          string
		updatedAt     *time.Time
		expectUpdated bool
	}{
		{name: "incoming newer", updatedAt: &t1, expectUpdated: true},
		{name: "incoming equal", updatedAt: &t0, expectUpdated: false},
		{name: "incoming older", updatedAt: ptr(t0.Add(-time.Minute)), expectUpdated: false},
		{name: "no timestamp", updatedAt: nil, expectUpdated: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := seededStore()
			now := t1.Add(time.Hour)
			r := identity.NewReconciler(store, identity.Normalizer{}, identity.WithClock(fixedClock(now)))

			incoming := identity.Identity{
				ID:        "other-id",
				Login:     "jdoe",
				FirstName: "New",
				LastName:  "Person",
				Email:     "New@Example.com",
				LangKey:   "fr",
				Activated: true,
			}

			got, err := r.Reconcile(context.Background(), incoming, nil, tc.updatedAt)
			require.NoError(t, err)

			stored, err := store.FindByLogin(context.Background(), "jdoe")
			require.NoError(t, err)

			assert.Equal(t, "id-1", got.ID, "id of an existing record never changes")
			assert.Equal(t, "id-1", stored.ID)

			if tc.expectUpdated {
				assert.Equal(t, "New", stored.FirstName)
				assert.Equal(t, "Person", stored.LastName)
				assert.Equal(t, "new@example.com", stored.Email)
				assert.Equal(t, "fr", stored.LangKey)
				assert.Equal(t, now, stored.LastModified)
				assert.Equal(t, 1, store.Saves())

				return
			}

			assert.Equal(t, "Old", stored.FirstName)
			assert.Equal(t, "old@example.com", stored.Email)
			assert.Equal(t, t0, stored.LastModified)
			assert.Equal(t, "Old", got.FirstName)
			assert.Equal(t, 0, store.Saves())
		})
	}
}

func TestReconcileSkippedUpdateKeepsStoredFlags(t *testing.T) {
	store := seededStore()
	r := identity.NewReconciler(store, identity.Normalizer{}, identity.WithClock(fixedClock(t1)))

	incoming := identity.Identity{
		Login:         "jdoe",
		FirstName:     "New",
		Activated:     false,
		EmailVerified: true,
	}

	got, err := r.Reconcile(context.Background(), incoming, []string{"ROLE_ADMIN"}, ptr(t0.Add(-time.Minute)))
	require.NoError(t, err)

	assert.Equal(t, []string{"ROLE_ADMIN"}, got.Authorities)
	assert.False(t, got.Activated)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, "Old", got.FirstName)

	assert.Equal(t, 0, store.Saves())
	assert.Equal(t, []string{"ROLE_ADMIN"}, store.AuthorityNames(), "the catalog is still completed")

	stored, err := r.GetUserWithAuthoritiesByLogin(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, stored.Authorities)
	assert.True(t, stored.Activated)
	assert.False(t, stored.EmailVerified)
	assert.Equal(t, t0, stored.LastModified)
}

func TestReconcileAuthorityCatalog(t *testing.T) {
	store := identitytest.NewStore()
	require.NoError(t, store.SaveAuthority(context.Background(), identity.Authority{Name: "ROLE_USER"}))

	r := identity.NewReconciler(store, identity.Normalizer{})
	authorities := []string{"ROLE_USER", "ROLE_ADMIN", "sales"}

	for i := 0; i < 2; i++ {
		_, err := r.Reconcile(context.Background(), identity.Identity{ID: "1", Login: "a"}, authorities, nil)
		require.NoError(t, err)

		assert.ElementsMatch(t, authorities, store.AuthorityNames())
	}

	assert.Equal(t, 3, store.AuthoritySaves(), "known authorities are not written again")
}

func TestGetUserFromAuthentication(t *testing.T) {
	store := seededStore()
	r := identity.NewReconciler(store, identity.Normalizer{DefaultLangKey: "en"}, identity.WithRolesClaim("groups"), identity.WithClock(fixedClock(t1)))

	claims := identity.JWTClaims(map[string]any{
		"sub":                "id-1",
		"preferred_username": "jdoe",
		"given_name":         "Jane",
		"email":              "jane@example.com",
		"updated_at":         float64(t0.Add(-time.Hour).Unix()),
		"realm_access":       map[string]any{"roles": []any{"ROLE_USER"}},
		"groups":             []any{"/sales_team"},
	})

	got, err := r.GetUserFromAuthentication(context.Background(), claims, nil)
	require.NoError(t, err)

	assert.Equal(t, "Old", got.FirstName, "stale provider copy does not overwrite")
	assert.Equal(t, []string{"ROLE_USER", "sales_team"}, got.Authorities)
	assert.ElementsMatch(t, []string{"ROLE_USER", "sales_team"}, store.AuthorityNames())

	_, err = r.GetUserFromAuthentication(context.Background(), identity.JWTClaims(map[string]any{}), nil)
	require.ErrorIs(t, err, identity.ErrSubjectMissing)
}

func TestUpdateCurrentProfile(t *testing.T) {
	store := seededStore()
	r := identity.NewReconciler(store, identity.Normalizer{}, identity.WithClock(fixedClock(t1)))

	_, err := r.UpdateCurrentProfile(context.Background(), "", identity.ProfileUpdate{})
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)

	_, err = r.UpdateCurrentProfile(context.Background(), "ghost", identity.ProfileUpdate{})
	require.ErrorIs(t, err, identity.ErrIdentityNotFound)

	got, err := r.UpdateCurrentProfile(context.Background(), "JDOE", identity.ProfileUpdate{
		FirstName: "Janet",
		Email:     "JANET@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Janet", got.FirstName)
	assert.Equal(t, "janet@example.com", got.Email)
	assert.Equal(t, "en", got.LangKey)
	assert.Equal(t, t1, got.LastModified)

	names, err := r.GetAuthorities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)

	loaded, err := r.GetUserWithAuthoritiesByLogin(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, got, loaded)
}

func ptr[T any](v T) *T {
	return &v
}
