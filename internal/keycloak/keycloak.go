// Package keycloak implements the identity provider ports on top of the
// Keycloak admin REST API and token endpoint.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/identity"
)

// tokenSlack renews the admin token before the provider expires it.
const tokenSlack = 30 * time.Second

// pageSize bounds list calls against the admin API.
const pageSize = 500

var (
	// ErrURLEmpty is returned if no Keycloak base URL is configured.
	ErrURLEmpty = errors.New("keycloak url can not be empty")

	// ErrRealmEmpty is returned if no realm is configured.
	ErrRealmEmpty = errors.New("keycloak realm can not be empty")
)

var (
	_ identity.Provider    = (*Service)(nil)
	_ identity.TokenIssuer = (*Service)(nil)
)

// Client holds OAuth2 client credentials.
type Client struct {
	ID     string
	Secret string
}

// Config holds the Keycloak settings.
type Config struct {
	URL   string // base url, e.g. https://sso.example.com
	Realm string // realm of the managed users
	// AdminRealm is the realm of the admin client. Defaults to Realm.
	AdminRealm   string
	AdminClient  Client // service account with realm-management roles
	WebClient    Client // browser client for password and refresh grants
	MobileClient Client // mobile client for password and refresh grants
	// Timeout bounds every request against Keycloak. Zero disables it.
	Timeout time.Duration
}

// Clients returns the token clients per audience.
func (c Config) Clients() map[identity.Audience]identity.Client {
	return map[identity.Audience]identity.Client{
		identity.AudienceWeb:    {ID: c.WebClient.ID, Secret: c.WebClient.Secret},
		identity.AudienceMobile: {ID: c.MobileClient.ID, Secret: c.MobileClient.Secret},
	}
}

// Issuer returns the token issuer of the managed realm.
func (c Config) Issuer() string {
	return strings.TrimRight(c.URL, "/") + "/realms/" + c.Realm
}

// Service talks to one Keycloak realm.
type Service struct {
	cfg     Config
	gocloak *gocloak.GoCloak

	tokenLock    sync.Mutex
	token        string
	tokenExpires time.Time
}

// New creates a Service for the configured realm.
func New(cfg Config) (*Service, error) {
	if cfg.URL == "" {
		return nil, ErrURLEmpty
	}

	if cfg.Realm == "" {
		return nil, ErrRealmEmpty
	}

	if cfg.AdminRealm == "" {
		cfg.AdminRealm = cfg.Realm
	}

	client := gocloak.NewClient(strings.TrimRight(cfg.URL, "/"))
	if cfg.Timeout > 0 {
		client.RestyClient().SetTimeout(cfg.Timeout)
	}

	return &Service{
		cfg:     cfg,
		gocloak: client,
	}, nil
}

// adminToken returns a cached service account token.
func (s *Service) adminToken(ctx context.Context) (string, error) {
	s.tokenLock.Lock()
	defer s.tokenLock.Unlock()

	if s.token != "" && time.Now().Before(s.tokenExpires) {
		return s.token, nil
	}

	jwt, err := s.gocloak.LoginClient(ctx, s.cfg.AdminClient.ID, s.cfg.AdminClient.Secret, s.cfg.AdminRealm)
	if err != nil {
		log.Error().Err(err).Str("client_id", s.cfg.AdminClient.ID).Msg("failed to acquire keycloak admin token")
		return "", fmt.Errorf("failed to acquire admin token: %w", mapError(err))
	}

	s.token = jwt.AccessToken
	s.tokenExpires = time.Now().Add(time.Duration(jwt.ExpiresIn)*time.Second - tokenSlack)

	return s.token, nil
}

// call runs fn with an admin token and records its metrics.
func (s *Service) call(ctx context.Context, op string, fn func(token string) error) error {
	start := time.Now()

	token, err := s.adminToken(ctx)
	if err == nil {
		err = mapError(fn(token))
	}

	observe(op, start, err)

	return err
}

// mapError turns gocloak API errors into identity errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *gocloak.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", identity.ErrIdentityNotFound, apiErr.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", identity.ErrProviderConflict, apiErr.Message)
	default:
		return &identity.ProviderError{Status: apiErr.Code, Detail: apiErr.Message}
	}
}

// mapGrantError turns token endpoint rejections into ErrBadCredentials.
func mapGrantError(err error) error {
	var apiErr *gocloak.APIError
	if errors.As(err, &apiErr) &&
		(apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %s", identity.ErrBadCredentials, apiErr.Message)
	}

	return mapError(err)
}
