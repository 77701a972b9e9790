package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// DefaultRefreshCookieName is the cookie that carries the refresh token.
const DefaultRefreshCookieName = "refresh_token"

// Audience selects the client credentials used against the token endpoint.
type Audience string

const (
	// AudienceWeb is the browser client.
	AudienceWeb Audience = "web"
	// AudienceMobile is the mobile client with its own credentials.
	AudienceMobile Audience = "mobile"
)

// CookieConfig describes the refresh cookie.
type CookieConfig struct {
	Name   string
	Domain string
}

// TokenExchange signs principals in and refreshes their tokens at the provider.
type TokenExchange struct {
	issuer   TokenIssuer
	provider Provider
	clients  map[Audience]Client
}

// NewTokenExchange creates a TokenExchange with one client per audience.
func NewTokenExchange(issuer TokenIssuer, provider Provider, clients map[Audience]Client) *TokenExchange {
	return &TokenExchange{
		issuer:   issuer,
		provider: provider,
		clients:  clients,
	}
}

func (t *TokenExchange) client(audience Audience) (Client, error) {
	c, ok := t.clients[audience]
	if !ok || c.ID == "" {
		return Client{}, fmt.Errorf("%w: %s", ErrUnknownAudience, audience)
	}

	return c, nil
}

// SignIn runs a password grant for the audience's client.
func (t *TokenExchange) SignIn(ctx context.Context, audience Audience, login, password string) (TokenResponse, error) {
	c, err := t.client(audience)
	if err != nil {
		return TokenResponse{}, err
	}

	resp, err := t.issuer.PasswordGrant(ctx, c, login, password)
	if err != nil {
		log.Info().Err(err).Str("login", login).Str("audience", string(audience)).Msg("sign in failed")
		return TokenResponse{}, err
	}

	return resp, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (t *TokenExchange) Refresh(ctx context.Context, audience Audience, refreshToken string) (TokenResponse, error) {
	if refreshToken == "" {
		return TokenResponse{}, ErrBadCredentials
	}

	c, err := t.client(audience)
	if err != nil {
		return TokenResponse{}, err
	}

	return t.issuer.RefreshGrant(ctx, c, refreshToken)
}

// Logout ends every provider session of the principal.
func (t *TokenExchange) Logout(ctx context.Context, login string) error {
	if login == "" {
		return ErrNotAuthenticated
	}

	user, err := findUser(ctx, t.provider, ByUsername(login))
	if err != nil {
		return fmt.Errorf("failed to find user %s: %w", login, err)
	}

	if err = t.provider.Logout(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to logout %s: %w", login, err)
	}

	log.Info().Str("login", login).Msg("user logged out")

	return nil
}

// RefreshCookie builds the cookie that hands the refresh token to the client.
func RefreshCookie(resp TokenResponse, cfg CookieConfig) *fiber.Cookie {
	name := cfg.Name
	if name == "" {
		name = DefaultRefreshCookieName
	}

	return &fiber.Cookie{
		Name:     name,
		Value:    resp.RefreshToken,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   resp.RefreshExpiresIn,
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}

// ExpiredRefreshCookie builds a cookie that removes the refresh token.
func ExpiredRefreshCookie(cfg CookieConfig) *fiber.Cookie {
	c := RefreshCookie(TokenResponse{}, cfg)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()

	return c
}
