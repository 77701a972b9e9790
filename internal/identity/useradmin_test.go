package identity_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/identity/identitytest"
)

func TestCreateUser(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "existing", Username: "known@example.com", Email: "known@example.com"})
	p.AddUser(identity.ProviderUser{ID: "near", Username: "unknown@example.com", Email: "unknown@example.com"})
	p.FailCreate["broken@example.com"] = &identity.ProviderError{Status: http.StatusBadRequest, Detail: "invalid attribute"}
	p.FailCreate["race@example.com"] = identity.ErrProviderConflict

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})

	testCases := []struct {
		name       string
		user       identity.NewUser
		expectedID string
		expectNew  bool
		expectErr  bool
	}{
		{
			name:       "existing user keeps its id",
			user:       identity.NewUser{Email: "Known@Example.com", Password: "x"},
			expectedID: "existing",
		},
		{
			name:      "new user",
			user:      identity.NewUser{Email: "new@example.com", PhoneNumber: "+33 1", Roles: []string{"sales_team"}},
			expectNew: true,
		},
		{
			name:      "provider failure",
			user:      identity.NewUser{Email: "broken@example.com", Password: "x"},
			expectErr: true,
		},
		{
			name:      "conflict without match",
			user:      identity.NewUser{Email: "race@example.com", Password: "x"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := admin.CreateUser(context.Background(), tc.user)

			if tc.expectErr {
				var ce *identity.CreationError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tc.user.Email, ce.Login)
				assert.NotEmpty(t, ce.Detail)

				return
			}

			require.NoError(t, err)

			if !tc.expectNew {
				assert.Equal(t, tc.expectedID, id)
				return
			}

			created, ok := p.User(id)
			require.True(t, ok)
			assert.Equal(t, "new@example.com", created.Username)
			assert.Equal(t, []string{"+33 1"}, created.Attributes[identity.PhoneNumberAttribute])
			assert.Equal(t, []string{"sales_team"}, created.Groups)
			require.NotNil(t, created.Credential)
			assert.False(t, created.Credential.Hashed)
			assert.Len(t, created.Credential.Value, 16, "a random password is generated")
		})
	}
}

func TestCreateUsersWithHashedPasswordIsolatesFailures(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u-known", Username: "known", Email: "u2@example.com"})
	p.FailCreate["u4@example.com"] = &identity.ProviderError{Status: http.StatusBadRequest, Detail: "Password policy not met"}

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})

	users := []identity.NewUser{
		{Email: "u1@example.com", Password: "$2a$10$hash1"},
		{Email: "u2@example.com", Password: "$2a$10$hash2", FirstName: "Two"},
		{Email: "u3@example.com", Password: "$2a$10$hash3"},
		{Email: "u4@example.com", Password: "$2a$10$hash4"},
		{Email: "u5@example.com", Password: "$2a$10$hash5"},
	}

	logs := admin.CreateUsersWithHashedPassword(context.Background(), users)
	require.Len(t, logs, 5)

	failures := 0

	for i, l := range logs {
		assert.Equal(t, users[i].Email, l.Email)

		if l.Failed() {
			failures++

			assert.Equal(t, "u4@example.com", l.Email)
			assert.Equal(t, http.StatusBadRequest, l.Status)
			assert.NotEmpty(t, l.Details)

			_, err := uuid.Parse(l.ID)
			require.NoError(t, err, "a failed record gets a surrogate id")

			continue
		}

		assert.NotEmpty(t, l.ID)
		assert.Empty(t, l.Details)
	}

	assert.Equal(t, 1, failures)
	assert.Equal(t, http.StatusOK, logs[1].Status)
	assert.Equal(t, "u-known", logs[1].ID)
	assert.Equal(t, http.StatusCreated, logs[0].Status)

	known, ok := p.User("u-known")
	require.True(t, ok)
	assert.Equal(t, "Two", known.FirstName)
	assert.Equal(t, "known", known.Username, "an update keeps the provider username")
	assert.True(t, known.Credential.Hashed)
}

func TestCreateUserWithHashedPasswordMatchesWholeEmail(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u-mojo", Username: "mojo", Email: "mojo@x.com"})

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})

	l := admin.CreateUserWithHashedPassword(context.Background(), identity.NewUser{Email: "jo@x.com", Password: "$2a$10$jo"})
	require.False(t, l.Failed(), l.Details)
	assert.Equal(t, http.StatusCreated, l.Status)
	assert.NotEqual(t, "u-mojo", l.ID)

	mojo, ok := p.User("u-mojo")
	require.True(t, ok)
	assert.Nil(t, mojo.Credential, "the near-miss user is left alone")

	jo, ok := p.User(l.ID)
	require.True(t, ok)
	assert.Equal(t, "jo@x.com", jo.Email)

	id, err := admin.CreateUser(context.Background(), identity.NewUser{Email: "o@x.com"})
	require.NoError(t, err)
	assert.NotEqual(t, "u-mojo", id)
	assert.NotEqual(t, l.ID, id)
}

func TestCreateUserWithHashedPasswordAmbiguousEmail(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "a", Email: "dup@example.com"})
	p.AddUser(identity.ProviderUser{ID: "u2", Username: "b", Email: "dup@example.com"})

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})

	l := admin.CreateUserWithHashedPassword(context.Background(), identity.NewUser{Email: "dup@example.com", Password: "$2a$10$x"})
	assert.True(t, l.Failed())
	assert.Contains(t, l.Details, identity.ErrAmbiguousUser.Error())

	for _, id := range []string{"u1", "u2"} {
		u, ok := p.User(id)
		require.True(t, ok)
		assert.Nil(t, u.Credential)
	}
}

func TestCreateUserWithHashedPasswordEncoderFailure(t *testing.T) {
	admin := identity.NewUserAdmin(identitytest.NewProvider(), identitytest.Encoder{Err: errors.New("empty password")})

	l := admin.CreateUserWithHashedPassword(context.Background(), identity.NewUser{Email: "a@example.com"})
	assert.True(t, l.Failed())
	assert.Contains(t, l.Details, "empty password")
	assert.NotEmpty(t, l.ID)
}

func TestCreateUsers(t *testing.T) {
	p := identitytest.NewProvider()
	p.FailCreate["bad@example.com"] = &identity.ProviderError{Status: http.StatusInternalServerError, Detail: "oops"}

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})

	created := admin.CreateUsers(context.Background(), []identity.NewUser{
		{Email: "a@example.com"},
		{Email: "bad@example.com"},
		{Email: "b@example.com"},
	})

	assert.Equal(t, 2, created)
}

func TestPasswordOperations(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "jdoe", Email: "jdoe@example.com"})
	p.AddUser(identity.ProviderUser{ID: "u2", Username: "jdoe2", Email: "jdoe2@example.com"})

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})
	ctx := context.Background()

	require.ErrorIs(t, admin.ChangePassword(ctx, "", "x"), identity.ErrNotAuthenticated)
	require.ErrorIs(t, admin.ChangePassword(ctx, "ghost", "x"), identity.ErrIdentityNotFound)
	require.NoError(t, admin.ChangePassword(ctx, "jdoe2", "n3w"))
	assert.Equal(t, "n3w", p.Passwords["u2"])

	require.NoError(t, admin.ChangePassword(ctx, "jdoe", "0ld"), "a longer login containing jdoe does not hide it")
	assert.Equal(t, "0ld", p.Passwords["u1"])
	assert.Equal(t, "n3w", p.Passwords["u2"])

	require.ErrorIs(t, admin.ResetPassword(ctx, "jdoe", "x"), identity.ErrInvalidUser, "partial email")
	require.ErrorIs(t, admin.ResetPassword(ctx, "nobody@example.com", "x"), identity.ErrInvalidUser)
	require.NoError(t, admin.ResetPassword(ctx, "JDOE@example.com", "r3set"))
	assert.Equal(t, "r3set", p.Passwords["u1"])
	assert.Equal(t, "n3w", p.Passwords["u2"])
}

func TestPasswordOperationsAmbiguousEmail(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "a", Email: "dup@example.com"})
	p.AddUser(identity.ProviderUser{ID: "u2", Username: "b", Email: "dup@example.com"})

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})

	require.ErrorIs(t, admin.ResetPassword(context.Background(), "dup@example.com", "x"), identity.ErrInvalidUser)
	assert.Empty(t, p.Passwords)
}

func TestUpdateProviderProfile(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u0", Username: "jdoe.admin", Email: "admin@example.com"})
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "jdoe", Email: "jdoe@example.com"})

	admin := identity.NewUserAdmin(p, identitytest.Encoder{})
	ctx := context.Background()

	require.ErrorIs(t, admin.UpdateProviderProfile(ctx, "", identity.NewUser{}), identity.ErrNotAuthenticated)
	require.ErrorIs(t, admin.UpdateProviderProfile(ctx, "ghost", identity.NewUser{}), identity.ErrIdentityNotFound)

	require.NoError(t, admin.UpdateProviderProfile(ctx, "jdoe", identity.NewUser{
		FirstName:   "John",
		PhoneNumber: "+1 555",
		Password:    "pw",
	}))

	updated, ok := p.User("u1")
	require.True(t, ok)
	assert.Equal(t, "John", updated.FirstName)
	assert.Equal(t, "jdoe@example.com", updated.Email)
	assert.Equal(t, []string{"+1 555"}, updated.Attributes[identity.PhoneNumberAttribute])
	assert.Equal(t, "pw", p.Passwords["u1"])

	other, ok := p.User("u0")
	require.True(t, ok)
	assert.Empty(t, other.FirstName)
	assert.NotContains(t, p.Passwords, "u0")
}
