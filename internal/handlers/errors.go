package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"planai/internal/apperr"
)

// ErrorHandler translates service-layer errors into the JSON error envelope.
// It is installed as the app-wide fiber error handler so individual handlers
// just return the error they got.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	label := "Internal Server Error"
	message := "An unexpected error occurred"
	var fieldErrors []apperr.FieldError

	var (
		validationErr *apperr.ValidationError
		aiErr         *apperr.AIGenerationError
		fiberErr      *fiber.Error
	)
	switch {
	case errors.As(err, &validationErr):
		status = fiber.StatusBadRequest
		label = "Bad Request"
		message = "Validation failed"
		fieldErrors = validationErr.Fields
	case errors.As(err, &aiErr):
		status = fiber.StatusServiceUnavailable
		label = "Service Unavailable"
		message = "AI generation failed. Please try again later."
		log.Printf("❌ [AI] %s %s: %v", c.Method(), c.Path(), aiErr.Cause)
	case errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
		label = "Not Found"
		message = err.Error()
	case errors.Is(err, apperr.ErrConflict):
		status = fiber.StatusConflict
		label = "Conflict"
		message = err.Error()
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		label = utils.StatusMessage(status)
		message = fiberErr.Message
	default:
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(apperr.ErrorResponse{
		Timestamp:   time.Now().UTC(),
		Status:      status,
		Error:       label,
		Message:     message,
		Path:        c.Path(),
		FieldErrors: fieldErrors,
	})
}
