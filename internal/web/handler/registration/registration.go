// Package registration provides the user registration endpoints.
package registration

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/web/handler"
)

const (
	// RegisterPath creates one user with a plain password.
	RegisterPath = handler.APIPath + "/register"
	// RegisterUserPath creates one user with a hashed password.
	RegisterUserPath = handler.APIPath + "/register-user"
	// RegisterUsersPath creates users with hashed passwords.
	RegisterUsersPath = handler.APIPath + "/register-users"
	// RegisterBatchPath creates users with plain passwords.
	RegisterBatchPath = handler.APIPath + "/register-batch"

	// MaxBatchSize limits the number of users of one batch request.
	MaxBatchSize = 1000
)

// BatchResult is the answer of a plain password batch.
type BatchResult struct {
	Created int `json:"created"`
	Total   int `json:"total"`
}

// Service provides the registration endpoints.
type Service struct {
	handler.Service
	users     *identity.UserAdmin
	validator handler.XValidator
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Only the plain self registration is public, the
// hashed and batch imports need the admin_users permission.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *identity.Engine, authService *auth.Service) {
	if app == nil || cfg == nil || engine == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.users = engine.Users
	s.validator = handler.NewValidator()

	authenticated := auth.Authenticate(authService)
	admin := auth.RequirePermission(authService, auth.PermAdminUsers)

	app.Post(RegisterPath, s.Register)
	app.Post(RegisterUserPath, authenticated, admin, s.RegisterUser)
	app.Post(RegisterUsersPath, authenticated, admin, s.RegisterUsers)
	app.Post(RegisterBatchPath, authenticated, admin, s.RegisterBatch)
}

// Register creates a user and returns its provider id. An already
// registered email returns the existing id.
func (s *Service) Register(c *fiber.Ctx) error {
	var req identity.NewUser
	if err := s.validator.Bind(c, &req); err != nil {
		return handler.Error(c, err)
	}

	id, err := s.users.CreateUser(c.UserContext(), req)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.SendString(id)
}

// RegisterUser creates or updates a user with a hashed password. The
// response status is the status of the registration record.
func (s *Service) RegisterUser(c *fiber.Ctx) error {
	var req identity.NewUser
	if err := s.validator.Bind(c, &req); err != nil {
		return handler.Error(c, err)
	}

	result := s.users.CreateUserWithHashedPassword(c.UserContext(), req)

	return c.Status(result.Status).JSON(result)
}

// RegisterUsers creates or updates users with hashed passwords. Failures
// of single users are reported in their record.
func (s *Service) RegisterUsers(c *fiber.Ctx) error {
	users, err := s.bindBatch(c)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(s.users.CreateUsersWithHashedPassword(c.UserContext(), users))
}

// RegisterBatch creates users with plain passwords and returns the number
// of created users.
func (s *Service) RegisterBatch(c *fiber.Ctx) error {
	users, err := s.bindBatch(c)
	if err != nil {
		return handler.Error(c, err)
	}

	created := s.users.CreateUsers(c.UserContext(), users)

	return c.JSON(BatchResult{Created: created, Total: len(users)})
}

func (s *Service) bindBatch(c *fiber.Ctx) ([]identity.NewUser, error) {
	var users []identity.NewUser
	if err := c.BodyParser(&users); err != nil {
		return nil, &handler.ValidationError{Message: "invalid request body"}
	}

	if len(users) == 0 || len(users) > MaxBatchSize {
		return nil, &handler.ValidationError{Message: "batch must hold between 1 and 1000 users"}
	}

	return users, nil
}
