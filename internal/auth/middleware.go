package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/identity"
)

const (
	principalKey = "principal"
	bearerPrefix = "Bearer "
)

// BearerToken returns the token of the Authorization header.
func BearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Authenticate creates Fiber middleware that resolves the bearer token into
// a reconciled principal stored in the request locals. A principal resolved
// earlier in the chain is kept.
func Authenticate(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := Principal(c); err == nil {
			return c.Next()
		}

		principal, err := authService.Authenticate(c.UserContext(), BearerToken(c))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		SetPrincipal(c, principal)

		return c.Next()
	}
}

// SetPrincipal attaches an authenticated principal to the request.
func SetPrincipal(c *fiber.Ctx, principal identity.Identity) {
	c.Locals(principalKey, principal)
}

// Principal returns the authenticated principal of the request.
func Principal(c *fiber.Ctx) (identity.Identity, error) {
	principal, ok := c.Locals(principalKey).(identity.Identity)
	if !ok || principal.Login == "" {
		return identity.Identity{}, ErrNoPrincipal
	}

	return principal, nil
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return RequireAnyPermission(authService, permission)
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := Principal(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		hasPermission, err := authService.HasAnyPermission(c.UserContext(), principal, permissions)

		switch {
		case errors.Is(err, identity.ErrIdentityNotFound), errors.Is(err, identity.ErrNotAuthenticated):
			hasPermission = false
		case err != nil:
			log.Error().Err(err).Str("login", principal.Login).Strs("permissions", permissions).
				Msg("Failed to check permissions")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !hasPermission {
			log.Warn().Str("login", principal.Login).Strs("permissions", permissions).
				Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// RequireAuthenticated rejects requests without a principal. Authenticate
// must run first.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := Principal(c); err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		return c.Next()
	}
}
