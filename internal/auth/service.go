package auth

import (
	"context"
	"crypto"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/idsync/idsync/internal/identity"
)

// Permission sources.
const (
	// SourceToken checks permissions against the roles of the access token.
	SourceToken = "token"
	// SourceProvider asks the identity provider for the principal's realm roles.
	SourceProvider = "provider"
)

// TokenVerifier verifies a raw bearer token and returns its claims.
type TokenVerifier interface {
	VerifyClaims(ctx context.Context, rawToken string) (map[string]any, error)
}

// KeySetVerifier verifies tokens against a fixed set of public keys.
type KeySetVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewKeySetVerifier creates a verifier for tokens of issuer signed by one of keys.
func NewKeySetVerifier(issuer string, keys ...crypto.PublicKey) *KeySetVerifier {
	return &KeySetVerifier{
		verifier: oidc.NewVerifier(issuer, &oidc.StaticKeySet{PublicKeys: keys}, &oidc.Config{
			SkipClientIDCheck: true,
		}),
	}
}

// VerifyClaims implements TokenVerifier.
func (v *KeySetVerifier) VerifyClaims(ctx context.Context, rawToken string) (map[string]any, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify access token: %w", err)
	}

	var claims map[string]any
	if err = token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token claims: %w", err)
	}

	return claims, nil
}

// NewIssuerVerifier creates a verifier for the keys published by the
// discovery document of issuer.
func NewIssuerVerifier(ctx context.Context, issuer string) (*KeySetVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover issuer %s: %w", issuer, err)
	}

	return &KeySetVerifier{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

// Service authenticates bearer tokens and checks permissions of the principal.
type Service struct {
	verifier    TokenVerifier
	reconciler  *identity.Reconciler
	permissions *identity.PermissionChecker
	source      string
}

// NewService creates a new auth service. An empty source defaults to SourceToken.
func NewService(
	verifier TokenVerifier,
	reconciler *identity.Reconciler,
	permissions *identity.PermissionChecker,
	source string,
) (*Service, error) {
	switch source {
	case "":
		source = SourceToken
	case SourceToken, SourceProvider:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPermissionSource, source)
	}

	return &Service{
		verifier:    verifier,
		reconciler:  reconciler,
		permissions: permissions,
		source:      source,
	}, nil
}

// Authenticate verifies the bearer token and reconciles the principal into
// the local store.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (identity.Identity, error) {
	if rawToken == "" {
		return identity.Identity{}, ErrMissingBearer
	}

	claims, err := s.verifier.VerifyClaims(ctx, rawToken)
	if err != nil {
		return identity.Identity{}, err
	}

	return s.reconciler.GetUserFromAuthentication(ctx, identity.JWTClaims(claims), nil)
}

// HasPermission checks if the principal has a specific permission.
func (s *Service) HasPermission(ctx context.Context, principal identity.Identity, permission string) (bool, error) {
	if s.source == SourceProvider {
		return s.permissions.CheckUserPermission(ctx, principal.Login, permission)
	}

	if principal.Login == "" {
		return false, identity.ErrNotAuthenticated
	}

	return identity.HasPermission(principal.Authorities, permission), nil
}

// HasAnyPermission checks if the principal has at least one of the given permissions.
func (s *Service) HasAnyPermission(ctx context.Context, principal identity.Identity, permissions []string) (bool, error) {
	for _, perm := range permissions {
		has, err := s.HasPermission(ctx, principal, perm)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}
