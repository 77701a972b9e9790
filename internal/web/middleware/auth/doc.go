// Package auth provides the authentication middleware of the API.
//
// The middleware verifies the bearer token once per request and stores the
// reconciled principal in fiber.Locals, where the route guards of the auth
// package and the access logger pick it up. Sign in, refresh and
// registration paths skip token verification.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware(authService))
package auth
