package oidc

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/web/handler"
	"github.com/idsync/idsync/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	// LogoutPath is the path for OIDC logout.
	LogoutPath = handler.RootPath + "auth/oidc/logout"
)

// Provider is the authorization code flow of an OIDC provider.
type Provider interface {
	GetAuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (identity.ClaimSet, identity.TokenResponse, error)
	GetLogoutURL(idToken, postLogoutRedirectURI string) string
	GroupsClaim() string
}

var _ Provider = (*auth.OIDCProvider)(nil)

// CallbackResponse is the answer of a successful callback.
type CallbackResponse struct {
	User  identity.Identity        `json:"user"`
	Token identity.AccessTokenView `json:"token"`
}

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg        *config.Config
	provider   Provider
	reconciler *identity.Reconciler
	states     *session.StateStore
	storage    fiber.Storage
}

// Handler is the OIDC handler.
var Handler = Service{}

// UseStorage selects the storage of state tokens. Without one, states are
// kept in process memory.
func (s *Service) UseStorage(storage fiber.Storage) {
	s.storage = storage
}

// Init initializes the OIDC handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *identity.Engine, _ *auth.Service) {
	if app == nil || cfg == nil || engine == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.reconciler = engine.Reconciler

	if !cfg.OIDC.Enabled {
		log.Info().Msg("OIDC authentication is disabled by configuration")
		return
	}

	provider, err := auth.NewOIDCProvider(context.Background(), &cfg.OIDC)
	if err != nil {
		if errors.Is(err, auth.ErrOIDCDisabled) {
			log.Info().Msg("OIDC authentication is disabled by configuration")
		} else {
			log.Warn().Err(err).Msg("Failed to initialize OIDC provider - OIDC authentication will be disabled")
		}

		return
	}

	if s.storage == nil {
		s.storage = memory.New()
	}

	states, err := session.NewStateStore(s.storage, cfg.Webserver.StateExpiry)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create OIDC state store - OIDC authentication will be disabled")
		return
	}

	s.provider = provider
	s.states = states

	log.Info().Msg("OIDC authentication provider initialized")

	s.register(app)
}

func (s *Service) register(app *fiber.App) {
	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)
	app.Get(LogoutPath, s.Logout)
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	state, err := s.states.Issue()
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue state token")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	return c.Redirect(s.provider.GetAuthURL(state))
}

// Callback handles the OIDC callback: the userinfo claims of the principal
// are reconciled into the local store and the refresh token is handed out
// as a cookie.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		log.Error().Msg("Missing code or state in OIDC callback")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	valid, err := s.states.Consume(state)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read state token")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	if !valid {
		log.Error().Str("state", state).Msg("Invalid or expired state token")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state token")
	}

	claims, token, err := s.provider.HandleCallback(c.UserContext(), code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	var authorities []string
	if groupsClaim := s.provider.GroupsClaim(); groupsClaim != "" {
		authorities = claims.Authorities(groupsClaim)
	}

	user, err := s.reconciler.GetUserFromAuthentication(c.UserContext(), claims, authorities)
	if err != nil {
		return handler.Error(c, err)
	}

	if token.RefreshToken != "" {
		c.Cookie(identity.RefreshCookie(token, s.cfg.Cookie))
	}

	log.Info().Str("login", user.Login).Msg("User logged in successfully via OIDC")

	return c.JSON(CallbackResponse{User: user, Token: token.AccessView()})
}

// Logout removes the refresh cookie and redirects to the end session
// endpoint of the provider when it has one.
func (s *Service) Logout(c *fiber.Ctx) error {
	c.Cookie(identity.ExpiredRefreshCookie(s.cfg.Cookie))

	if s.provider != nil {
		if logoutURL := s.provider.GetLogoutURL(c.Query("id_token_hint"), s.cfg.Webserver.URL); logoutURL != "" {
			return c.Redirect(logoutURL)
		}
	}

	return c.Redirect(s.cfg.Webserver.URL)
}
