package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrMissingBearer is returned when a request carries no bearer token.
	ErrMissingBearer = errors.New("missing bearer token")

	// ErrNoPrincipal is returned when no authenticated principal is attached to the request.
	ErrNoPrincipal = errors.New("no authenticated principal")

	// ErrUnknownPermissionSource is returned for an unsupported permission source.
	ErrUnknownPermissionSource = errors.New("unknown permission source")
)
