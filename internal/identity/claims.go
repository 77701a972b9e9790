package identity

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// ClaimSource names where a claim set came from.
type ClaimSource int

const (
	// SourceUserInfo is an OAuth2 userinfo response.
	SourceUserInfo ClaimSource = iota + 1
	// SourceJWT is a verified JWT.
	SourceJWT
)

// String implements fmt.Stringer.
func (s ClaimSource) String() string {
	switch s {
	case SourceUserInfo:
		return "userinfo"
	case SourceJWT:
		return "jwt"
	default:
		return "unknown"
	}
}

// ClaimSet is a provider claim map tagged with its source.
type ClaimSet struct {
	Source ClaimSource
	Claims map[string]any
}

// UserInfoClaims wraps an OAuth2 userinfo claim map.
func UserInfoClaims(claims map[string]any) ClaimSet {
	return ClaimSet{Source: SourceUserInfo, Claims: claims}
}

// JWTClaims wraps the claims of a verified JWT.
func JWTClaims(claims map[string]any) ClaimSet {
	return ClaimSet{Source: SourceJWT, Claims: claims}
}

// Str returns the claim as a string. Empty and non-string values count as absent.
func (c ClaimSet) Str(key string) (string, bool) {
	v, ok := c.Claims[key].(string)
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

// Bool returns a boolean claim. The string forms "true" and "false" are accepted.
func (c ClaimSet) Bool(key string) (bool, bool) {
	switch v := c.Claims[key].(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}

	return false, false
}

// UpdatedAt returns the updated_at claim as a timestamp.
func (c ClaimSet) UpdatedAt() (time.Time, bool) {
	switch v := c.Claims["updated_at"].(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	case float64:
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))), true
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return time.Unix(i, 0), true
		}

		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}

		sec, frac := math.Modf(f)

		return time.Unix(int64(sec), int64(frac*float64(time.Second))), true
	}

	return time.Time{}, false
}

// Authorities collects realm_access.roles and the named roles claim.
// Group paths lose their leading slash. Duplicates are dropped.
func (c ClaimSet) Authorities(claimName string) []string {
	var (
		out  []string
		seen = map[string]struct{}{}
	)

	add := func(values []string) {
		for _, v := range values {
			v = strings.TrimPrefix(v, "/")
			if v == "" {
				continue
			}

			if _, ok := seen[v]; ok {
				continue
			}

			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	if realm, ok := c.Claims["realm_access"].(map[string]any); ok {
		add(stringList(realm["roles"]))
	}

	if claimName != "" {
		add(stringList(c.Claims[claimName]))
	}

	return out
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))

		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	case string:
		return []string{list}
	}

	return nil
}

// Normalizer maps claim sets onto identities.
type Normalizer struct {
	// DefaultLangKey is used when neither langKey nor locale is present.
	DefaultLangKey string
}

// Normalize builds an Identity from a claim set. The first rule that
// matches a field wins.
func (n Normalizer) Normalize(c ClaimSet) (Identity, error) {
	var id Identity

	if uid, ok := c.Str("uid"); ok {
		id.ID = uid

		if sub, okSub := c.Str("sub"); okSub {
			id.Login = strings.ToLower(sub)
		}
	} else if sub, okSub := c.Str("sub"); okSub {
		id.ID = sub
	} else {
		return Identity{}, ErrSubjectMissing
	}

	if username, ok := c.Str("preferred_username"); ok {
		id.Login = strings.ToLower(username)
	} else if id.Login == "" {
		id.Login = strings.ToLower(id.ID)
	}

	if v, ok := c.Str("given_name"); ok {
		id.FirstName = v
	}

	if v, ok := c.Str("family_name"); ok {
		id.LastName = v
	}

	if v, ok := c.Bool("email_verified"); ok {
		id.EmailVerified = v
	}

	if v, ok := c.Str("email"); ok {
		id.Email = strings.ToLower(v)
	} else if v, ok = c.Str("sub"); ok {
		id.Email = strings.ToLower(v)
	}

	switch {
	case hasString(c, "langKey"):
		id.LangKey, _ = c.Str("langKey")
	case hasString(c, "locale"):
		locale, _ := c.Str("locale")
		if i := strings.IndexAny(locale, "_-"); i >= 0 {
			locale = locale[:i]
		}

		id.LangKey = strings.ToLower(locale)
	default:
		id.LangKey = n.DefaultLangKey
	}

	if v, ok := c.Str("picture"); ok {
		id.ImageURL = v
	}

	id.Activated = true

	return id, nil
}

func hasString(c ClaimSet, key string) bool {
	_, ok := c.Str(key)
	return ok
}
