package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/idsync/idsync/internal/identity"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

// OIDCConfig holds OpenID Connect (OIDC) configuration for authentication.
type OIDCConfig struct {
	// Enabled indicates if OIDC authentication is enabled.
	Enabled bool
	// ProviderURL is the issuer URL, e.g. "https://sso.example.com/realms/main".
	ProviderURL string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string
	// RedirectURL is the OAuth2 callback URL where the provider redirects after authentication.
	RedirectURL string
	// Scopes are the OAuth2 scopes to request (default: ["openid", "profile", "email"]).
	Scopes []string
	// GroupsClaim is the token claim holding group or role names next to realm_access.roles.
	GroupsClaim string
}

// OIDCProvider handles OIDC authentication.
type OIDCProvider struct {
	config         *OIDCConfig
	provider       *oidc.Provider
	verifier       *oidc.IDTokenVerifier
	accessVerifier *oidc.IDTokenVerifier
	oauth2         oauth2.Config
}

// NewOIDCProvider creates a new OIDC provider from the issuer's discovery document.
func NewOIDCProvider(ctx context.Context, config *OIDCConfig) (*OIDCProvider, error) {
	if !config.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, config.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCProvider{
		config:   config,
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{
			ClientID: config.ClientID,
		}),
		// access tokens are issued for other audiences, e.g. "account"
		accessVerifier: provider.Verifier(&oidc.Config{
			SkipClientIDCheck: true,
		}),
		oauth2: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// GetAuthURL returns the OIDC authorization URL with state token.
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// GroupsClaim returns the configured groups claim.
func (p *OIDCProvider) GroupsClaim() string {
	return p.config.GroupsClaim
}

// HandleCallback exchanges the authorization code and returns the userinfo
// claims of the principal together with the provider tokens. Roles and
// groups missing from userinfo are taken from the ID token.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (identity.ClaimSet, identity.TokenResponse, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return identity.ClaimSet{}, identity.TokenResponse{}, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return identity.ClaimSet{}, identity.TokenResponse{}, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return identity.ClaimSet{}, identity.TokenResponse{}, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var idClaims map[string]any
	if err = idToken.Claims(&idClaims); err != nil {
		return identity.ClaimSet{}, identity.TokenResponse{}, fmt.Errorf("failed to parse claims: %w", err)
	}

	claims, err := p.GetUserInfo(ctx, oauth2Token.AccessToken)
	if err != nil {
		return identity.ClaimSet{}, identity.TokenResponse{}, err
	}

	for _, key := range []string{"realm_access", p.config.GroupsClaim} {
		if _, present := claims[key]; !present && key != "" && idClaims[key] != nil {
			claims[key] = idClaims[key]
		}
	}

	return identity.UserInfoClaims(claims), tokenResponse(oauth2Token, rawIDToken), nil
}

// tokenResponse reads the provider specific expiry fields of the token response.
func tokenResponse(t *oauth2.Token, rawIDToken string) identity.TokenResponse {
	resp := identity.TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		IDToken:      rawIDToken,
	}

	if v, ok := t.Extra("expires_in").(float64); ok {
		resp.ExpiresIn = int(v)
	}

	if v, ok := t.Extra("refresh_expires_in").(float64); ok {
		resp.RefreshExpiresIn = int(v)
	}

	if v, ok := t.Extra("scope").(string); ok {
		resp.Scope = v
	}

	if v, ok := t.Extra("session_state").(string); ok {
		resp.SessionState = v
	}

	return resp
}

// VerifyClaims verifies a bearer access token and returns its claims.
func (p *OIDCProvider) VerifyClaims(ctx context.Context, rawToken string) (map[string]any, error) {
	token, err := p.accessVerifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify access token: %w", err)
	}

	var claims map[string]any
	if err = token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token claims: %w", err)
	}

	return claims, nil
}

// GetLogoutURL constructs the OIDC provider's logout URL if supported.
// Returns an empty string if the provider doesn't support logout endpoints.
func (p *OIDCProvider) GetLogoutURL(idToken, postLogoutRedirectURI string) string {
	var claims struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}

	if err := p.provider.Claims(&claims); err != nil || claims.EndSessionEndpoint == "" {
		return ""
	}

	q := url.Values{}
	q.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	q.Set("client_id", p.config.ClientID)

	if idToken != "" {
		q.Set("id_token_hint", idToken)
	}

	return claims.EndSessionEndpoint + "?" + q.Encode()
}

// GetUserInfo fetches the claims of the OIDC UserInfo endpoint.
func (p *OIDCProvider) GetUserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	userInfo, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	var claims map[string]any
	if err = userInfo.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse user info claims: %w", err)
	}

	return claims, nil
}
