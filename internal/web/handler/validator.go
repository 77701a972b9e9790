package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	// ErrorResponse represents a validation error response.
	ErrorResponse struct {
		Error       bool   `json:"error"`
		FailedField string `json:"failedField"`
		Tag         string `json:"tag"`
		Value       any    `json:"value"`
	}

	// XValidator is a custom validator struct.
	XValidator struct {
		validator *validator.Validate
	}

	// ValidationError is returned for a request body that failed to parse or validate.
	ValidationError struct {
		Message string          `json:"message"`
		Errors  []ErrorResponse `json:"errors,omitempty"`
	}
)

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidator creates a validator.
func NewValidator() XValidator {
	return XValidator{validator: validator.New()}
}

// Validate performs validation on the provided data and returns a slice of ErrorResponse.
func (v XValidator) Validate(data any) []ErrorResponse {
	var (
		validationErrors []ErrorResponse
		errs             validator.ValidationErrors
	)

	if err := v.validator.Struct(data); !errors.As(err, &errs) {
		return nil
	}

	for _, err := range errs {
		validationErrors = append(validationErrors, ErrorResponse{
			Error:       true,
			FailedField: err.Field(),
			Tag:         err.Tag(),
			Value:       err.Value(),
		})
	}

	return validationErrors
}

// Bind parses the JSON body into out and validates it.
func (v XValidator) Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &ValidationError{Message: "invalid request body"}
	}

	if errs := v.Validate(out); len(errs) > 0 {
		return &ValidationError{Message: "validation failed", Errors: errs}
	}

	return nil
}
