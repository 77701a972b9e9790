package identitytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/idsync/idsync/internal/identity"
)

// Issuer answers password grants from a fixed credential table and mints
// a new token pair for every known refresh token.
type Issuer struct {
	mu        sync.Mutex
	passwords map[string]string
	refresh   map[string]string
	seq       int

	// ClientIDs lists the clients of every grant in order.
	ClientIDs []string
}

// NewIssuer creates an Issuer accepting login/password pairs.
func NewIssuer(credentials map[string]string) *Issuer {
	return &Issuer{
		passwords: credentials,
		refresh:   map[string]string{},
	}
}

func (i *Issuer) mint(login string) identity.TokenResponse {
	i.seq++

	resp := identity.TokenResponse{
		AccessToken:      fmt.Sprintf("access-%s-%d", login, i.seq),
		RefreshToken:     fmt.Sprintf("refresh-%s-%d", login, i.seq),
		ExpiresIn:        300,
		RefreshExpiresIn: 1800,
		TokenType:        "Bearer",
	}

	i.refresh[resp.RefreshToken] = login

	return resp
}

// PasswordGrant implements identity.TokenIssuer.
func (i *Issuer) PasswordGrant(_ context.Context, client identity.Client, login, password string) (identity.TokenResponse, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.ClientIDs = append(i.ClientIDs, client.ID)

	if pw, ok := i.passwords[login]; !ok || pw != password {
		return identity.TokenResponse{}, identity.ErrBadCredentials
	}

	return i.mint(login), nil
}

// RefreshGrant implements identity.TokenIssuer. Refresh tokens are single use.
func (i *Issuer) RefreshGrant(_ context.Context, client identity.Client, refreshToken string) (identity.TokenResponse, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.ClientIDs = append(i.ClientIDs, client.ID)

	login, ok := i.refresh[refreshToken]
	if !ok {
		return identity.TokenResponse{}, identity.ErrBadCredentials
	}

	delete(i.refresh, refreshToken)

	return i.mint(login), nil
}

// Encoder marks passwords as bcrypt hashed without hashing them.
type Encoder struct {
	Err error
}

// Encode implements identity.PasswordEncoder.
func (e Encoder) Encode(password string) (identity.Credential, error) {
	if e.Err != nil {
		return identity.Credential{}, e.Err
	}

	return identity.Credential{Value: password, Hashed: true, Algorithm: "bcrypt", Iterations: 10}, nil
}
