package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/db/controller/kvstore"
	"github.com/idsync/idsync/internal/identity"
)

const testIssuer = "https://sso.example.com/realms/test"

func TestMiddleware(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	storage := memory.New()
	t.Cleanup(func() { _ = storage.Close() })

	store, err := kvstore.New(storage)
	require.NoError(t, err)

	authService, err := auth.NewService(
		auth.NewKeySetVerifier(testIssuer, &key.PublicKey),
		identity.NewReconciler(store, identity.Normalizer{DefaultLangKey: "en"}),
		nil,
		auth.SourceToken,
	)
	require.NoError(t, err)

	valid, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":                testIssuer,
		"sub":                "kc-1",
		"preferred_username": "jdoe",
		"exp":                time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(Middleware(authService))
	app.Use(func(c *fiber.Ctx) error {
		principal, err := auth.Principal(c)
		if err != nil {
			return c.SendString("anonymous")
		}

		return c.SendString(principal.Login)
	})

	testCases := []struct {
		name     string
		path     string
		token    string
		expected string
	}{
		{name: "valid token", path: "/api/account", token: valid, expected: "jdoe"},
		{name: "no token", path: "/api/account", expected: "anonymous"},
		{name: "invalid token", path: "/api/account", token: "garbage", expected: "anonymous"},
		{name: "public path", path: "/api/signin", token: valid, expected: "anonymous"},
		{name: "self registration", path: "/api/register", token: valid, expected: "anonymous"},
		{name: "trailing slash", path: "/api/signin/", token: valid, expected: "anonymous"},
		{name: "hashed registration", path: "/api/register-user", token: valid, expected: "jdoe"},
		{name: "registration import", path: "/api/register-users", token: valid, expected: "jdoe"},
		{name: "registration batch", path: "/api/register-batch", token: valid, expected: "jdoe"},
		{name: "public path suffix", path: "/api/signin-admin", token: valid, expected: "jdoe"},
		{name: "reset password", path: "/api/account/reset-password", token: valid, expected: "anonymous"},
		{name: "outside api", path: "/checkalive", token: valid, expected: "anonymous"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tc.token)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(body))
		})
	}
}
