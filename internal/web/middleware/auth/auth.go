package auth

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/web/handler"
)

// publicPaths never need a principal; their bearer header is ignored.
var publicPaths = []string{
	handler.APIPath + "/signin",
	handler.APIPath + "/mobile/signin",
	handler.APIPath + "/refresh",
	handler.APIPath + "/mobile/refresh",
	handler.APIPath + "/register",
	handler.APIPath + "/account/reset-password",
}

// Middleware resolves the bearer principal of API requests ahead of the
// route guards. Requests without a valid token continue anonymously; the
// route decides whether it needs a principal.
func Middleware(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAPIPath(c) || IsPublicPath(c) {
			return c.Next()
		}

		raw := auth.BearerToken(c)
		if raw == "" {
			return c.Next()
		}

		principal, err := authService.Authenticate(c.UserContext(), raw)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Ignoring invalid bearer token")
			return c.Next()
		}

		auth.SetPrincipal(c, principal)

		return c.Next()
	}
}

// IsAPIPath checks if the current request is for the JSON API.
func IsAPIPath(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), handler.APIPath+"/")
}

// IsPublicPath checks if the current request is for an endpoint that works
// without a principal. Paths match exactly, ignoring case and a trailing slash.
func IsPublicPath(c *fiber.Ctx) bool {
	p := strings.TrimSuffix(strings.ToLower(c.Path()), "/")

	return slices.Contains(publicPaths, p)
}
