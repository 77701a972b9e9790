package keycloak

import (
	"context"
	"time"

	"github.com/Nerzal/gocloak/v13"

	"github.com/idsync/idsync/internal/identity"
)

func toTokenResponse(jwt *gocloak.JWT) identity.TokenResponse {
	if jwt == nil {
		return identity.TokenResponse{}
	}

	return identity.TokenResponse{
		AccessToken:      jwt.AccessToken,
		RefreshToken:     jwt.RefreshToken,
		ExpiresIn:        jwt.ExpiresIn,
		RefreshExpiresIn: jwt.RefreshExpiresIn,
		TokenType:        jwt.TokenType,
		IDToken:          jwt.IDToken,
		Scope:            jwt.Scope,
		SessionState:     jwt.SessionState,
	}
}

// PasswordGrant signs a user in with the resource owner password grant.
func (s *Service) PasswordGrant(
	ctx context.Context,
	client identity.Client,
	login, password string,
) (identity.TokenResponse, error) {
	start := time.Now()

	jwt, err := s.gocloak.Login(ctx, client.ID, client.Secret, s.cfg.Realm, login, password)
	if err != nil {
		err = mapGrantError(err)
	}

	observe("password_grant", start, err)

	if err != nil {
		return identity.TokenResponse{}, err
	}

	return toTokenResponse(jwt), nil
}

// RefreshGrant exchanges a refresh token for a new token pair.
func (s *Service) RefreshGrant(
	ctx context.Context,
	client identity.Client,
	refreshToken string,
) (identity.TokenResponse, error) {
	start := time.Now()

	jwt, err := s.gocloak.RefreshToken(ctx, refreshToken, client.ID, client.Secret, s.cfg.Realm)
	if err != nil {
		err = mapGrantError(err)
	}

	observe("refresh_grant", start, err)

	if err != nil {
		return identity.TokenResponse{}, err
	}

	return toTokenResponse(jwt), nil
}
