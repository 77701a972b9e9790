// Package token provides the sign in, refresh and logout endpoints.
//
// The refresh token is only ever handed out as an HTTP-only cookie; the
// JSON body carries the access token.
package token

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/web/handler"
)

const (
	// SignInPath signs in with the web client.
	SignInPath = handler.APIPath + "/signin"
	// MobileSignInPath signs in with the mobile client.
	MobileSignInPath = handler.APIPath + "/mobile/signin"
	// RefreshPath refreshes with the web client.
	RefreshPath = handler.APIPath + "/refresh"
	// MobileRefreshPath refreshes with the mobile client.
	MobileRefreshPath = handler.APIPath + "/mobile/refresh"
	// LogoutPath ends the provider sessions of the principal.
	LogoutPath = handler.APIPath + "/logout"
)

// SignInRequest is the body of a sign in.
type SignInRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the optional body of a refresh for clients without cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Service provides the token endpoints.
type Service struct {
	handler.Service
	cookie    identity.CookieConfig
	tokens    *identity.TokenExchange
	validator handler.XValidator
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *identity.Engine, authService *auth.Service) {
	if app == nil || cfg == nil || engine == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cookie = cfg.Cookie
	s.tokens = engine.Tokens
	s.validator = handler.NewValidator()

	app.Post(SignInPath, s.signIn(identity.AudienceWeb))
	app.Post(MobileSignInPath, s.signIn(identity.AudienceMobile))
	app.Post(RefreshPath, s.refresh(identity.AudienceWeb))
	app.Post(MobileRefreshPath, s.refresh(identity.AudienceMobile))
	app.Get(LogoutPath, auth.Authenticate(authService), s.Logout)
}

// respond sets the refresh cookie and returns the access token payload.
func (s *Service) respond(c *fiber.Ctx, resp identity.TokenResponse) error {
	if resp.RefreshToken != "" {
		c.Cookie(identity.RefreshCookie(resp, s.cookie))
	}

	return c.JSON(resp.AccessView())
}

func (s *Service) signIn(audience identity.Audience) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SignInRequest
		if err := s.validator.Bind(c, &req); err != nil {
			return handler.Error(c, err)
		}

		resp, err := s.tokens.SignIn(c.UserContext(), audience, req.Login, req.Password)
		if errors.Is(err, identity.ErrBadCredentials) {
			return c.Status(fiber.StatusUnauthorized).SendString(handler.MsgBadCredentials)
		}

		if err != nil {
			return handler.Error(c, err)
		}

		return s.respond(c, resp)
	}
}

func (s *Service) refresh(audience identity.Audience) fiber.Handler {
	return func(c *fiber.Ctx) error {
		refreshToken := c.Cookies(s.cookieName())

		if refreshToken == "" && len(c.Body()) > 0 {
			var req RefreshRequest
			if err := c.BodyParser(&req); err != nil {
				return handler.Error(c, &handler.ValidationError{Message: "invalid request body"})
			}

			refreshToken = req.RefreshToken
		}

		resp, err := s.tokens.Refresh(c.UserContext(), audience, refreshToken)
		if errors.Is(err, identity.ErrBadCredentials) {
			c.Cookie(identity.ExpiredRefreshCookie(s.cookie))
			return c.Status(fiber.StatusUnauthorized).SendString(handler.MsgBadCredentials)
		}

		if err != nil {
			return handler.Error(c, err)
		}

		return s.respond(c, resp)
	}
}

func (s *Service) cookieName() string {
	if s.cookie.Name == "" {
		return identity.DefaultRefreshCookieName
	}

	return s.cookie.Name
}

// Logout ends the provider sessions of the principal and removes the cookie.
func (s *Service) Logout(c *fiber.Ctx) error {
	principal, err := auth.Principal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	if err = s.tokens.Logout(c.UserContext(), principal.Login); err != nil {
		return handler.Error(c, err)
	}

	c.Cookie(identity.ExpiredRefreshCookie(s.cookie))

	return c.SendStatus(fiber.StatusOK)
}
