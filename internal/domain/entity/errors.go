package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidState indicates a status transition that the notification
	// state machine does not permit (e.g. cancelling a SENT notification).
	ErrInvalidState = errors.New("invalid state transition")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// InvalidStateError reports a rejected status transition. It unwraps to
// ErrInvalidState so callers can test with errors.Is.
type InvalidStateError struct {
	ID   uuid.UUID
	From Status
	To   Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("notification %s: cannot transition %s -> %s", e.ID, e.From, e.To)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// RenderError reports a template rendering failure for one channel attempt.
// Rendering failures are non-retryable for the attempt but never abort
// sibling channels.
type RenderError struct {
	TemplateRef string
	Err         error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render template %q: %v", e.TemplateRef, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
