package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/identity/identitytest"
)

func TestHasPermission(t *testing.T) {
	testCases := []struct {
		name       string
		roles      []string
		permission string
		expected   bool
	}{
		{name: "exact", roles: []string{"ROLE_admin_billing"}, permission: "admin_billing", expected: true},
		{name: "case insensitive", roles: []string{"ROLE_ADMIN_BILLING"}, permission: "admin_billing", expected: true},
		{name: "single segment", roles: []string{"ROLE"}, permission: "ROLE", expected: false},
		{name: "trailing separator", roles: []string{"ROLE_"}, permission: "", expected: false},
		{name: "prefix is ignored", roles: []string{"APP_admin"}, permission: "admin", expected: true},
		{name: "partial suffix", roles: []string{"ROLE_admin_billing"}, permission: "billing", expected: false},
		{name: "any role", roles: []string{"ROLE_user", "ROLE_admin"}, permission: "admin", expected: true},
		{name: "no roles", roles: nil, permission: "admin", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, identity.HasPermission(tc.roles, tc.permission))
		})
	}
}

func TestCheckUserPermission(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "jdoe", Email: "jdoe@example.com"}, "default-roles", "ROLE_admin_groups")

	checker := identity.NewPermissionChecker(p)

	ok, err := checker.CheckUserPermission(context.Background(), "jdoe", "ADMIN_GROUPS")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.CheckUserPermission(context.Background(), "JDoe", "admin_groups")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.CheckUserPermission(context.Background(), "jdoe", "admin_billing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = checker.CheckUserPermission(context.Background(), "", "admin_groups")
	require.ErrorIs(t, err, identity.ErrNotAuthenticated)

	_, err = checker.CheckUserPermission(context.Background(), "ghost", "admin_groups")
	require.ErrorIs(t, err, identity.ErrIdentityNotFound)
}

func TestCheckUserPermissionIgnoresLongerLogins(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "bobby", Email: "bobby@example.com"}, "ROLE_admin_billing")
	p.AddUser(identity.ProviderUser{ID: "u2", Username: "bob", Email: "bob@example.com"}, "ROLE_user")

	checker := identity.NewPermissionChecker(p)

	ok, err := checker.CheckUserPermission(context.Background(), "bob", "admin_billing")
	require.NoError(t, err)
	assert.False(t, ok, "roles of bobby are not granted to bob")

	ok, err = checker.CheckUserPermission(context.Background(), "bobby", "admin_billing")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = checker.CheckUserPermission(context.Background(), "bo", "admin_billing")
	require.ErrorIs(t, err, identity.ErrIdentityNotFound)
}
