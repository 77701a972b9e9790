package identity

import (
	"context"
	"slices"
	"strings"
)

// ByUsername queries the provider user with the given login.
func ByUsername(login string) UserQuery {
	return UserQuery{Username: strings.ToLower(login)}
}

// ByEmail queries the provider users registered with email.
func ByEmail(email string) UserQuery {
	return UserQuery{Email: strings.ToLower(email)}
}

// Matches reports whether u equals every set field of q, ignoring case.
// An empty query matches nothing.
func (q UserQuery) Matches(u ProviderUser) bool {
	if q.Username == "" && q.Email == "" {
		return false
	}

	if q.Username != "" && !strings.EqualFold(u.Username, q.Username) {
		return false
	}

	if q.Email != "" && !strings.EqualFold(u.Email, q.Email) {
		return false
	}

	return true
}

// findUsers asks the provider for query and keeps exact matches only.
func findUsers(ctx context.Context, provider Provider, query UserQuery) ([]ProviderUser, error) {
	users, err := provider.FindUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(users, func(u ProviderUser) bool { return !query.Matches(u) }), nil
}

// findUser resolves query to a single provider user.
func findUser(ctx context.Context, provider Provider, query UserQuery) (ProviderUser, error) {
	users, err := findUsers(ctx, provider, query)
	if err != nil {
		return ProviderUser{}, err
	}

	switch len(users) {
	case 0:
		return ProviderUser{}, ErrIdentityNotFound
	case 1:
		return users[0], nil
	default:
		return ProviderUser{}, ErrAmbiguousUser
	}
}
