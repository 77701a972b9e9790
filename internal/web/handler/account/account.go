// Package account provides the endpoints of the authenticated principal:
// profile, passwords, authorities and permission checks.
package account

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/web/handler"
)

const (
	// Path is the account of the principal.
	Path = handler.APIPath + "/account"
	// ChangePasswordPath sets a new password for the principal.
	ChangePasswordPath = Path + "/change-password"
	// ResetPasswordPath sets a new password for a user found by email.
	ResetPasswordPath = Path + "/reset-password"
	// AuthoritiesPath lists the authority catalog.
	AuthoritiesPath = handler.APIPath + "/authorities"
	// PermissionPath checks a permission of the principal at the provider.
	PermissionPath = handler.APIPath + "/permissions/:permission"
)

// UpdateRequest is the body of a profile change. The local profile and the
// provider profile are both updated.
type UpdateRequest struct {
	FirstName   string `json:"firstName"   validate:"max=50"`
	LastName    string `json:"lastName"    validate:"max=50"`
	Email       string `json:"email"       validate:"omitempty,email"`
	LangKey     string `json:"langKey"     validate:"max=10"`
	ImageURL    string `json:"imageUrl"    validate:"max=256"`
	PhoneNumber string `json:"phoneNumber" validate:"max=32"`
	Password    string `json:"password"`
}

// PasswordChangeRequest is the body of a password change.
type PasswordChangeRequest struct {
	OldPassword     string `json:"oldPassword"     validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// PasswordResetRequest is the body of a password reset.
type PasswordResetRequest struct {
	Email           string `json:"email"           validate:"required,email"`
	NewPassword     string `json:"newPassword"     validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// PermissionResponse is the answer of a permission check.
type PermissionResponse struct {
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}

// Service provides the account endpoints.
type Service struct {
	handler.Service
	engine    *identity.Engine
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

	s.engine = engine
	s.validator = handler.NewValidator()

	authenticated := auth.Authenticate(authService)

	app.Get(Path, authenticated, s.Get)
	app.Post(Path, authenticated, s.Update)
	app.Post(ChangePasswordPath, authenticated, s.ChangePassword)
	app.Post(ResetPasswordPath, s.ResetPassword)
	app.Get(AuthoritiesPath, s.Authorities)
	app.Get(PermissionPath, authenticated, s.Permission)
}

// Get returns the reconciled identity of the principal.
func (s *Service) Get(c *fiber.Ctx) error {
	principal, err := auth.Principal(c)
	if err != nil {
		return handler.Error(c, identity.ErrNotAuthenticated)
	}

	return c.JSON(principal)
}

// Update changes the provider profile and then the local profile of the principal.
func (s *Service) Update(c *fiber.Ctx) error {
	principal, err := auth.Principal(c)
	if err != nil {
		return handler.Error(c, identity.ErrNotAuthenticated)
	}

	var req UpdateRequest
	if err = s.validator.Bind(c, &req); err != nil {
		return handler.Error(c, err)
	}

	ctx := c.UserContext()

	err = s.engine.Users.UpdateProviderProfile(ctx, principal.Login, identity.NewUser{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	updated, err := s.engine.Reconciler.UpdateCurrentProfile(ctx, principal.Login, identity.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		LangKey:   req.LangKey,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(updated)
}

// ChangePassword sets a new password for the principal.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	principal, err := auth.Principal(c)
	if err != nil {
		return handler.Error(c, identity.ErrNotAuthenticated)
	}

	var req PasswordChangeRequest
	if err = s.validator.Bind(c, &req); err != nil {
		return handler.Error(c, err)
	}

	if err = s.engine.Users.ChangePassword(c.UserContext(), principal.Login, req.NewPassword); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// ResetPassword sets a new password for the single user registered with the email.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	var req PasswordResetRequest
	if err := s.validator.Bind(c, &req); err != nil {
		return handler.Error(c, err)
	}

	if err := s.engine.Users.ResetPassword(c.UserContext(), req.Email, req.NewPassword); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// Authorities returns the authority catalog.
func (s *Service) Authorities(c *fiber.Ctx) error {
	names, err := s.engine.Reconciler.GetAuthorities(c.UserContext())
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(names)
}

// Permission checks the realm roles of the principal at the provider.
func (s *Service) Permission(c *fiber.Ctx) error {
	principal, err := auth.Principal(c)
	if err != nil {
		return handler.Error(c, identity.ErrNotAuthenticated)
	}

	permission := c.Params("permission")

	granted, err := s.engine.Permissions.CheckUserPermission(c.UserContext(), principal.Login, permission)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(PermissionResponse{Permission: permission, Granted: granted})
}
