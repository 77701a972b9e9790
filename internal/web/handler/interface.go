package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/identity"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, engine *identity.Engine, authService *auth.Service)
}
