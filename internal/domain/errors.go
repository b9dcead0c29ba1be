// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when a request carries no valid
	// authenticated identity.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrForbidden is returned when the acting user is not permitted to
	// perform the requested operation on the resource.
	ErrForbidden = errors.New("operation not permitted")

	// ErrInvalidInterval is returned when a booking window is malformed:
	// the end does not come after the start, or the start is not in the
	// future for a new booking.
	ErrInvalidInterval = errors.New("invalid booking interval")

	// ErrInvalidTransition is returned when a requested booking status
	// change is not allowed from the booking's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBookingStarted is returned when a booking can no longer be
	// deleted because its start time has already passed.
	ErrBookingStarted = errors.New("booking already started")
)

// ValidationError describes a failed validation of a single field. It
// optionally wraps an underlying sentinel so callers can still use
// errors.Is on the chain.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
