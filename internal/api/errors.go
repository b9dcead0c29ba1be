package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/esther-anierobi/bookIT/internal/api/shared"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/service"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	// Field-level validation failures are client errors no matter what
	// sentinel they wrap.
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden

	// Not found errors. The specific store sentinels all wrap
	// store.ErrNotFound, so one check covers users, services, bookings
	// and reviews.
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrBookingConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrBookingStarted),
		errors.Is(err, service.ErrBookingNotCompleted),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrCommentTooLong),
		errors.Is(err, domain.ErrEmptyServiceTitle),
		errors.Is(err, domain.ErrNegativeServicePrice),
		errors.Is(err, domain.ErrInvalidServiceDuration),
		errors.Is(err, domain.ErrMalformedEmail),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrInvalidBookingStatus),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	// Field-level validation errors carry a user-facing field and message.
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Field != "" {
			return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
		}
		return validationErr.Message
	}

	// Map specific error types to user-friendly messages
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrTokenRevoked):
		return "Token revoked"

	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	// Authorization errors
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to perform this action"

	// Not found errors. Specific sentinels before the generic one so the
	// message names the missing resource.
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrServiceNotFound):
		return "Service not found"

	case errors.Is(err, store.ErrBookingNotFound):
		return "Booking not found"

	case errors.Is(err, store.ErrReviewNotFound):
		return "Review not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, service.ErrBookingConflict):
		return "The requested time window is no longer available"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrReviewExists):
		return "This booking has already been reviewed"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidInterval):
		return "Invalid booking interval"

	case errors.Is(err, domain.ErrInvalidTransition):
		return "Invalid status transition"

	case errors.Is(err, domain.ErrBookingStarted):
		return "The booking has already started"

	case errors.Is(err, service.ErrBookingNotCompleted):
		return "Only completed bookings can be reviewed"

	case errors.Is(err, domain.ErrInvalidRating):
		return "Rating must be between 1 and 5"

	case errors.Is(err, domain.ErrCommentTooLong):
		return "Comment is too long"

	case errors.Is(err, domain.ErrEmptyServiceTitle):
		return "Service title cannot be empty"

	case errors.Is(err, domain.ErrNegativeServicePrice):
		return "Service price cannot be negative"

	case errors.Is(err, domain.ErrInvalidServiceDuration):
		return "Service duration must be positive"

	case errors.Is(err, domain.ErrMalformedEmail):
		return "Invalid email format"

	case errors.Is(err, domain.ErrPasswordTooShort):
		return "Password must be at least 8 characters long"

	case errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be at most 72 characters long"

	case errors.Is(err, domain.ErrInvalidBookingStatus):
		return "Invalid booking status"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation failed"

	// Default case for unknown errors
	default:
		// Store failures surface their short description, never the
		// underlying driver error.
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			return "Operation failed: " + storeErr.Message
		}
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes a consistent error response for err. The status
// comes from MapErrorToStatusCode and the body from GetSafeErrorMessage,
// except that unknown errors respond with defaultMessage so callers can
// name the failed operation without leaking internal details. The original
// error is logged alongside the response.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMessage string) {
	statusCode := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if statusCode == http.StatusInternalServerError && defaultMessage != "" {
		message = defaultMessage
	}

	shared.RespondWithErrorAndLog(w, r, statusCode, message, err)
}

// HandleValidationError writes a 400 response for request validation
// failures, with the message sanitized by SanitizeValidationError.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(
		w,
		r,
		http.StatusBadRequest,
		SanitizeValidationError(err),
		err,
	)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	// Field-level validation errors already carry a clean field and message.
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Field != "" {
			return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
		}
		return validationErr.Message
	}

	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			// Further split to get just the field validation part
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				// Create a cleaner error message
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt":
		return "must be greater than zero"
	default:
		return "validation failed"
	}
}
