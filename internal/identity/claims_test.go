package identity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := Normalizer{DefaultLangKey: DefaultLangKey}

	testCases := []struct {
		name          string
		claims        ClaimSet
		expected      Identity
		expectedError error
	}{
		{
			name:          "no uid and no sub",
			claims:        JWTClaims(map[string]any{"email": "a@b.c"}),
			expectedError: ErrSubjectMissing,
		},
		{
			name:          "empty sub",
			claims:        UserInfoClaims(map[string]any{"sub": ""}),
			expectedError: ErrSubjectMissing,
		},
		{
			name: "sub only",
			claims: JWTClaims(map[string]any{
				"sub": "F3A1-ID",
			}),
			expected: Identity{
				ID:        "F3A1-ID",
				Login:     "f3a1-id",
				Email:     "f3a1-id",
				LangKey:   "en",
				Activated: true,
			},
		},
		{
			name: "uid with sub as login",
			claims: UserInfoClaims(map[string]any{
				"uid": "42",
				"sub": "John",
			}),
			expected: Identity{
				ID:        "42",
				Login:     "john",
				Email:     "john",
				LangKey:   "en",
				Activated: true,
			},
		},
		{
			name: "full keycloak token",
			claims: JWTClaims(map[string]any{
				"sub":                "8c1e",
				"preferred_username": "JDoe",
				"given_name":         "John",
				"family_name":        "Doe",
				"email":              "John.Doe@Example.COM",
				"email_verified":     true,
				"locale":             "fr_CA",
				"picture":            "https://img/j.png",
			}),
			expected: Identity{
				ID:            "8c1e",
				Login:         "jdoe",
				FirstName:     "John",
				LastName:      "Doe",
				Email:         "john.doe@example.com",
				ImageURL:      "https://img/j.png",
				LangKey:       "fr",
				Activated:     true,
				EmailVerified: true,
			},
		},
		{
			name: "langKey wins over locale",
			claims: JWTClaims(map[string]any{
				"sub":     "x",
				"langKey": "de",
				"locale":  "fr-CA",
			}),
			expected: Identity{ID: "x", Login: "x", Email: "x", LangKey: "de", Activated: true},
		},
		{
			name: "unverified email stays activated",
			claims: JWTClaims(map[string]any{
				"sub":            "x",
				"email_verified": "false",
			}),
			expected: Identity{ID: "x", Login: "x", Email: "x", LangKey: "en", Activated: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := n.Normalize(tc.claims)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}
}

func TestNormalizeLocale(t *testing.T) {
	n := Normalizer{DefaultLangKey: "en"}

	for _, locale := range []string{"fr_CA", "fr-CA", "FR", "fr"} {
		t.Run(locale, func(t *testing.T) {
			id, err := n.Normalize(UserInfoClaims(map[string]any{"sub": "s", "locale": locale}))
			require.NoError(t, err)
			assert.Equal(t, "fr", id.LangKey)
		})
	}
}

func TestClaimSetUpdatedAt(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		value any
		ok    bool
	}{
		{name: "rfc3339", value: "2024-03-01T12:00:00Z", ok: true},
		{name: "unix float", value: float64(want.Unix()), ok: true},
		{name: "unix int64", value: want.Unix(), ok: true},
		{name: "json number", value: json.Number("1709294400"), ok: true},
		{name: "time", value: want, ok: true},
		{name: "garbage", value: "yesterday", ok: false},
		{name: "missing", value: nil, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims := map[string]any{"sub": "s"}
			if tc.value != nil {
				claims["updated_at"] = tc.value
			}

			got, ok := JWTClaims(claims).UpdatedAt()
			assert.Equal(t, tc.ok, ok)

			if tc.ok {
				assert.True(t, want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestClaimSetAuthorities(t *testing.T) {
	claims := JWTClaims(map[string]any{
		"realm_access": map[string]any{
			"roles": []any{"ROLE_USER", "ROLE_admin_billing"},
		},
		"groups": []any{"/OLD_sales_team", "ROLE_USER", "support"},
	})

	assert.Equal(t,
		[]string{"ROLE_USER", "ROLE_admin_billing", "OLD_sales_team", "support"},
		claims.Authorities("groups"),
	)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_admin_billing"}, claims.Authorities(""))
	assert.Empty(t, UserInfoClaims(map[string]any{"sub": "s"}).Authorities("groups"))
}
