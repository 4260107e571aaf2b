// Package apperr defines the typed error taxonomy raised by the service
// layer and the JSON envelope every non-2xx response is rendered as.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors used for errors.Is checks across store implementations.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// NotFoundError signals that a referenced entity id resolved to nothing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s does not exist", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a NotFoundError for the given entity type and id.
func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError signals a uniqueness violation (duplicate project name).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflict builds a ConflictError with the given message.
func NewConflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// FieldError names a single violated request constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the per-field violations of a request payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d field errors)", len(e.Fields))
}

// AIGenerationError wraps the terminal failure of the AI orchestration:
// either the completion endpoint exhausted its retries or its reply was not
// parseable as the expected JSON shape. Cause is logged server-side only.
type AIGenerationError struct {
	Cause error
}

func (e *AIGenerationError) Error() string {
	return fmt.Sprintf("AI generation failed: %v", e.Cause)
}

func (e *AIGenerationError) Unwrap() error { return e.Cause }

// ErrorResponse is the envelope for all non-2xx JSON responses.
type ErrorResponse struct {
	Timestamp   time.Time    `json:"timestamp"`
	Status      int          `json:"status"`
	Error       string       `json:"error"`
	Message     string       `json:"message"`
	Path        string       `json:"path"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
}
