// Package oidc provides the OpenID Connect authorization code flow.
//
// The callback reads the userinfo claims of the principal, reconciles them
// into the local store and hands the provider refresh token out as a cookie.
// State tokens are single use and expire after the configured state expiry.
//
//	GET /auth/oidc/login    - redirect to the provider
//	GET /auth/oidc/callback - exchange the code, reconcile the principal
//	GET /auth/oidc/logout   - drop the cookie, end the provider session
package oidc
