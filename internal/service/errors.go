// Package service provides application-level services for bookings, the
// service catalog, reviews, and users.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with fmt.Errorf("%w") so the chain stays inspectable
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrBookingConflict indicates the requested time window overlaps an
	// existing pending or confirmed booking for the same service.
	// API layer should map this to HTTP 409 Conflict.
	ErrBookingConflict = errors.New("booking window conflicts with an existing booking")

	// ErrInvalidCredentials indicates a login attempt with an unknown email,
	// a wrong password, or a deactivated account. The three cases are
	// deliberately indistinguishable to the caller.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBookingNotCompleted indicates an attempt to review a booking that
	// has not reached the completed status.
	// API layer should map this to HTTP 400 Bad Request.
	ErrBookingNotCompleted = errors.New("booking is not completed")
)
