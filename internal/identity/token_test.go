package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/identity/identitytest"
)

func newTestExchange(issuer *identitytest.Issuer, provider *identitytest.Provider) *identity.TokenExchange {
	return identity.NewTokenExchange(issuer, provider, map[identity.Audience]identity.Client{
		identity.AudienceWeb:    {ID: "web-app", Secret: "s1"},
		identity.AudienceMobile: {ID: "mobile-app", Secret: "s2"},
	})
}

func TestSignIn(t *testing.T) {
	issuer := identitytest.NewIssuer(map[string]string{"jdoe": "secret"})
	ex := newTestExchange(issuer, identitytest.NewProvider())

	resp, err := ex.SignIn(context.Background(), identity.AudienceWeb, "jdoe", "secret")
	require.NoError(t, err)
	assert.Equal(t, "access-jdoe-1", resp.AccessToken)

	_, err = ex.SignIn(context.Background(), identity.AudienceMobile, "jdoe", "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"web-app", "mobile-app"}, issuer.ClientIDs)

	_, err = ex.SignIn(context.Background(), identity.AudienceWeb, "jdoe", "wrong")
	require.ErrorIs(t, err, identity.ErrBadCredentials)

	_, err = ex.SignIn(context.Background(), identity.Audience("tv"), "jdoe", "secret")
	require.ErrorIs(t, err, identity.ErrUnknownAudience)
}

func TestRefreshCookie(t *testing.T) {
	issuer := identitytest.NewIssuer(map[string]string{"jdoe": "secret"})
	ex := newTestExchange(issuer, identitytest.NewProvider())

	first, err := ex.SignIn(context.Background(), identity.AudienceWeb, "jdoe", "secret")
	require.NoError(t, err)

	resp, err := ex.Refresh(context.Background(), identity.AudienceWeb, first.RefreshToken)
	require.NoError(t, err)

	cookie := identity.RefreshCookie(resp, identity.CookieConfig{Domain: "example.com"})

	assert.Equal(t, identity.DefaultRefreshCookieName, cookie.Name)
	assert.Equal(t, "refresh-jdoe-2", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, "example.com", cookie.Domain)
	assert.Equal(t, 1800, cookie.MaxAge)
	assert.True(t, cookie.HTTPOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, fiber.CookieSameSiteNoneMode, cookie.SameSite)

	view := resp.AccessView()
	assert.Equal(t, "access-jdoe-2", view.AccessToken)
	assert.NotEqual(t, cookie.Value, view.AccessToken)

	_, err = ex.Refresh(context.Background(), identity.AudienceWeb, "")
	require.ErrorIs(t, err, identity.ErrBadCredentials)

	_, err = ex.Refresh(context.Background(), identity.AudienceWeb, first.RefreshToken)
	require.ErrorIs(t, err, identity.ErrBadCredentials, "refresh tokens are single use")

	expired := identity.ExpiredRefreshCookie(identity.CookieConfig{Name: "rt"})
	assert.Equal(t, "rt", expired.Name)
	assert.Equal(t, -1, expired.MaxAge)
	assert.True(t, expired.Expires.Before(time.Now()))
	assert.Empty(t, expired.Value)
}

func TestLogout(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "jdoe"})
	ex := newTestExchange(identitytest.NewIssuer(nil), p)

	require.ErrorIs(t, ex.Logout(context.Background(), ""), identity.ErrNotAuthenticated)
	require.ErrorIs(t, ex.Logout(context.Background(), "ghost"), identity.ErrIdentityNotFound)
	require.NoError(t, ex.Logout(context.Background(), "jdoe"))
	assert.Equal(t, []string{"u1"}, p.LoggedOut)
}

func TestLogoutEndsOnlyThePrincipalSessions(t *testing.T) {
	p := identitytest.NewProvider()
	p.AddUser(identity.ProviderUser{ID: "u1", Username: "bobby", Email: "bobby@example.com"})
	p.AddUser(identity.ProviderUser{ID: "u2", Username: "bob", Email: "bob@example.com"})
	ex := newTestExchange(identitytest.NewIssuer(nil), p)

	require.NoError(t, ex.Logout(context.Background(), "bob"))
	assert.Equal(t, []string{"u2"}, p.LoggedOut)

	require.ErrorIs(t, ex.Logout(context.Background(), "bo"), identity.ErrIdentityNotFound)
	assert.Equal(t, []string{"u2"}, p.LoggedOut)
}
