package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/identity"
)

// GlobalErrorHandlerResp represents a global error response structure.
type GlobalErrorHandlerResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusOf maps engine errors to an HTTP status.
func StatusOf(err error) int {
	var (
		fiberErr    *fiber.Error
		providerErr *identity.ProviderError
		creationErr *identity.CreationError
		validErr    *ValidationError
	)

	switch {
	case errors.As(err, &validErr):
		return fiber.StatusBadRequest
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, identity.ErrBadCredentials),
		errors.Is(err, identity.ErrNotAuthenticated),
		errors.Is(err, identity.ErrSubjectMissing):
		return fiber.StatusUnauthorized
	case errors.Is(err, identity.ErrIdentityNotFound),
		errors.Is(err, identity.ErrGroupNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, identity.ErrProviderConflict),
		errors.Is(err, identity.ErrAmbiguousUser):
		return fiber.StatusConflict
	case errors.Is(err, identity.ErrInvalidUser),
		errors.Is(err, identity.ErrUnknownAudience):
		return fiber.StatusBadRequest
	case errors.As(err, &creationErr) && creationErr.Status >= fiber.StatusBadRequest:
		return creationErr.Status
	case errors.As(err, &providerErr) && providerErr.Status >= fiber.StatusBadRequest:
		return providerErr.Status
	default:
		return fiber.StatusInternalServerError
	}
}

// Error writes err as JSON with the mapped status.
func Error(c *fiber.Ctx, err error) error {
	var validErr *ValidationError
	if errors.As(err, &validErr) {
		return c.Status(fiber.StatusBadRequest).JSON(validErr)
	}

	status := StatusOf(err)

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		msg = "Internal Server Error"
	}

	return c.Status(status).JSON(GlobalErrorHandlerResp{Message: msg})
}

// ErrorHandler is the fiber error handler of the API.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Error(c, err)
}
