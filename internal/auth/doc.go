// Package auth authenticates API requests against the identity provider.
//
// Bearer access tokens are verified with go-oidc, either through the
// provider's discovery document (OIDCProvider) or a static key set
// (KeySetVerifier). The verified claims are reconciled into the local
// identity store and the resulting principal is attached to the request.
//
// # Permissions
//
// A principal has a permission when one of its roles matches it, see
// identity.HasPermission. Roles are read from the token by default
// (SourceToken) or fetched from the provider's realm roles on each check
// (SourceProvider).
//
// # Middleware
//
//   - Authenticate: verify the bearer token and store the principal
//   - RequireAuthenticated: reject requests without principal
//   - RequirePermission: protect routes requiring a specific permission
//   - RequireAnyPermission: protect routes requiring any of several permissions
//
// Example usage:
//
//	authService, err := auth.NewService(verifier, engine.Reconciler, engine.Permissions, auth.SourceToken)
//
//	api := app.Group("/api", auth.Authenticate(authService))
//	api.Get("/admin/groups",
//	    auth.RequirePermission(authService, auth.PermAdminGroups),
//	    handler,
//	)
package auth
