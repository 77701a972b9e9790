package identity

import (
	"context"
	"fmt"
	"strings"
)

// HasPermission reports whether any role grants the permission.
//
// A role grants a permission when the part after its first "_" equals the
// permission, ignoring case: ROLE_admin_billing grants admin_billing. A role
// without "_" grants nothing.
func HasPermission(roles []string, permission string) bool {
	for _, role := range roles {
		if matchRole(role, permission) {
			return true
		}
	}

	return false
}

func matchRole(role, permission string) bool {
	_, rest, found := strings.Cut(role, "_")
	if !found {
		return false
	}

	rest = strings.TrimRight(rest, "_")
	if rest == "" {
		return false
	}

	return strings.EqualFold(rest, permission)
}

// PermissionChecker answers permission questions with provider realm roles.
type PermissionChecker struct {
	provider Provider
}

// NewPermissionChecker creates a PermissionChecker.
func NewPermissionChecker(provider Provider) *PermissionChecker {
	return &PermissionChecker{provider: provider}
}

// CheckUserPermission reports whether the provider user behind login holds
// a realm role granting permission.
func (p *PermissionChecker) CheckUserPermission(ctx context.Context, login, permission string) (bool, error) {
	if login == "" {
		return false, ErrNotAuthenticated
	}

	user, err := findUser(ctx, p.provider, ByUsername(login))
	if err != nil {
		return false, fmt.Errorf("failed to find user %s: %w", login, err)
	}

	roles, err := p.provider.RealmRoles(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read realm roles of %s: %w", login, err)
	}

	return HasPermission(roles, permission), nil
}
