package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/service"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "nil error",
			err:            nil,
			expectedStatus: http.StatusInternalServerError, // Default to 500 for nil error
		},
		{
			name:           "authentication error",
			err:            auth.ErrInvalidToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrapped authentication error",
			err:            fmt.Errorf("failed to authenticate: %w", auth.ErrInvalidToken),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "revoked token",
			err:            auth.ErrTokenRevoked,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad credentials",
			err:            service.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "authorization error",
			err:            domain.ErrForbidden,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not found error",
			err:            store.ErrBookingNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "booking conflict",
			err:            service.ErrBookingConflict,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "duplicate email",
			err:            store.ErrEmailExists,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "duplicate review",
			err:            store.ErrReviewExists,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid interval",
			err:            domain.ErrInvalidInterval,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid transition",
			err:            domain.ErrInvalidTransition,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "booking already started",
			err:            domain.ErrBookingStarted,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "review before completion",
			err:            service.ErrBookingNotCompleted,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request error",
			err:            store.ErrInvalidEntity,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown error",
			err:            errors.New("unknown error"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := MapErrorToStatusCode(tt.err)
			assert.Equal(t, tt.expectedStatus, status)
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedMessage string
	}{
		{
			name:            "nil error",
			err:             nil,
			expectedMessage: "An unexpected error occurred",
		},
		{
			name:            "authentication error",
			err:             auth.ErrInvalidToken,
			expectedMessage: "Invalid token",
		},
		{
			name:            "wrapped authentication error",
			err:             fmt.Errorf("failed due to: %w", auth.ErrInvalidToken),
			expectedMessage: "Invalid token",
		},
		{
			name:            "expired token wins over the generic message",
			err:             auth.ErrExpiredToken,
			expectedMessage: "Token expired",
		},
		{
			name:            "forbidden error",
			err:             domain.ErrForbidden,
			expectedMessage: "You are not allowed to perform this action",
		},
		{
			name:            "booking conflict",
			err:             fmt.Errorf("failed to create booking: %w", service.ErrBookingConflict),
			expectedMessage: "The requested time window is no longer available",
		},
		{
			name:            "specific not found beats the generic one",
			err:             store.ErrServiceNotFound,
			expectedMessage: "Service not found",
		},
		{
			name:            "unknown error",
			err:             errors.New("database error: connection refused"),
			expectedMessage: "An unexpected error occurred", // Database error details are hidden
		},
		{
			name: "wrapped database error with SQL details",
			err: fmt.Errorf(
				"SQL error: %w",
				errors.New("syntax error at line 42 in SELECT * FROM users"),
			),
			expectedMessage: "An unexpected error occurred", // SQL details are hidden
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := GetSafeErrorMessage(tt.err)
			assert.Equal(t, tt.expectedMessage, message)

			// Verify no sensitive details are leaked
			if tt.err != nil {
				if tt.expectedMessage == "An unexpected error occurred" {
					assert.NotContains(
						t,
						message,
						tt.err.Error(),
						"Error message should not contain the actual error",
					)
				}
			}
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	testError := errors.New(
		"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag",
	)
	safeMessage := SanitizeValidationError(testError)

	// The sanitized message should not contain the full error details
	assert.NotEqual(t, testError.Error(), safeMessage)

	// It should contain a user-friendly reference to the field
	assert.Contains(t, safeMessage, "Email")

	// Verify that the specific field and tag are present in a user-friendly format
	assert.Equal(t, "Invalid Email: required field", safeMessage)

	// Test with a different format error
	otherError := errors.New("Some other kind of error")
	genericMessage := SanitizeValidationError(otherError)
	assert.Equal(t, "Validation error", genericMessage)
}

// TestMapErrorToStatusCodeWithCustomErrorTypes tests how error mapping handles custom error types
func TestMapErrorToStatusCodeWithCustomErrorTypes(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "domain validation error",
			err:            domain.NewValidationError("email", "must be valid format", nil),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "domain validation error wrapped",
			err: fmt.Errorf(
				"validation failed: %w",
				domain.NewValidationError("password", "too short", nil),
			),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "store error wrapping validation",
			err: store.NewStoreError(
				"user",
				"create",
				"validation failed",
				domain.ErrValidation,
			),
			expectedStatus: http.StatusBadRequest, // Should check the wrapped domain.ErrValidation
		},
		{
			name:           "store error wrapping not found",
			err:            store.NewStoreError("booking", "get", "not found", store.ErrBookingNotFound),
			expectedStatus: http.StatusNotFound, // Should check the wrapped store.ErrBookingNotFound
		},
		{
			name: "store error wrapping duplicate",
			err: store.NewStoreError(
				"user",
				"create",
				"already exists",
				store.ErrEmailExists,
			),
			expectedStatus: http.StatusConflict, // Should check the wrapped store.ErrEmailExists
		},
		{
			name: "store error with no specific wrapped error",
			err: store.NewStoreError(
				"review",
				"update",
				"database error",
				errors.New("connection refused"),
			),
			expectedStatus: http.StatusInternalServerError, // Generic error
		},
		{
			name: "deeply nested error",
			err: fmt.Errorf(
				"outer: %w",
				fmt.Errorf(
					"middle: %w",
					store.NewStoreError("user", "get", "lookup failed", store.ErrUserNotFound),
				),
			),
			expectedStatus: http.StatusNotFound, // Should unwrap to the store.ErrUserNotFound
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := MapErrorToStatusCode(tt.err)
			assert.Equal(t, tt.expectedStatus, status)
		})
	}
}

// TestGetSafeErrorMessageWithCustomErrorTypes tests error messages for custom error types
func TestGetSafeErrorMessageWithCustomErrorTypes(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedMessage string
	}{
		{
			name:            "domain validation error with field",
			err:             domain.NewValidationError("email", "must be valid format", nil),
			expectedMessage: "Invalid email: must be valid format",
		},
		{
			name: "domain validation error without field",
			err: domain.NewValidationError(
				"",
				"validation failed",
				domain.ErrValidation,
			),
			expectedMessage: "validation failed", // Matches the ValidationError.Message directly
		},
		{
			name: "domain validation error wrapped",
			err: fmt.Errorf(
				"validation failed: %w",
				domain.NewValidationError("password", "too short", nil),
			),
			expectedMessage: "Invalid password: too short",
		},
		{
			name: "store error wrapping validation",
			err: store.NewStoreError(
				"user",
				"create",
				"validation failed",
				domain.ErrValidation,
			),
			expectedMessage: "Validation failed", // Should check the wrapped domain.ErrValidation
		},
		{
			name:            "store error wrapping not found",
			err:             store.NewStoreError("booking", "get", "not found", store.ErrBookingNotFound),
			expectedMessage: "Booking not found", // Should check the wrapped store.ErrBookingNotFound
		},
		{
			name: "store error wrapping email exists",
			err: store.NewStoreError(
				"user",
				"create",
				"already exists",
				store.ErrEmailExists,
			),
			expectedMessage: "Email already exists", // Should check the wrapped store.ErrEmailExists
		},
		{
			name: "store error with generic error",
			err: store.NewStoreError(
				"review",
				"update",
				"database error",
				errors.New("connection refused"),
			),
			expectedMessage: "Operation failed: database error", // StoreError message, not the driver error
		},
		{
			name: "deeply nested error",
			err: fmt.Errorf(
				"outer: %w",
				fmt.Errorf(
					"middle: %w",
					store.NewStoreError("user", "get", "lookup failed", store.ErrUserNotFound),
				),
			),
			expectedMessage: "User not found", // Should unwrap to the store.ErrUserNotFound
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := GetSafeErrorMessage(tt.err)
			assert.Equal(t, tt.expectedMessage, message)

			// For errors that should return a generic message, ensure no sensitive details are leaked
			if tt.expectedMessage == "An unexpected error occurred" {
				assert.NotContains(
					t,
					message,
					tt.err.Error(),
					"Error message should not contain the actual error",
				)
			}
		})
	}
}

// TestSanitizeValidationErrorWithCustomTypes tests validation error sanitization with custom types
func TestSanitizeValidationErrorWithCustomTypes(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedMessage string
	}{
		{
			name:            "domain validation error with field",
			err:             domain.NewValidationError("email", "must be valid format", nil),
			expectedMessage: "Invalid email: must be valid format",
		},
		{
			name:            "domain validation error without field",
			err:             domain.NewValidationError("", "validation failed", nil),
			expectedMessage: "validation failed",
		},
		{
			name: "domain validation error with specific wrapped error",
			err: domain.NewValidationError(
				"email",
				"must be unique",
				store.ErrDuplicate,
			),
			expectedMessage: "Invalid email: must be unique",
		},
		{
			name: "wrapped domain validation error",
			err: fmt.Errorf(
				"failed to create user: %w",
				domain.NewValidationError("email", "already exists", store.ErrEmailExists),
			),
			expectedMessage: "Invalid email: already exists",
		},
		{
			name:            "non-validation error",
			err:             errors.New("some other error"),
			expectedMessage: "Validation error", // Generic message for non-validation errors
		},
		{
			name: "validator library error format",
			err: errors.New(
				"Key: 'UpdateUserRequest.Password' Error:Field validation for 'Password' failed on the 'min' tag",
			),
			expectedMessage: "Invalid Password: too short",
		},
		{
			name:            "malformed validator error",
			err:             errors.New("Field validation for Email failed"),
			expectedMessage: "Validation error", // Fallback for malformed validator error
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := SanitizeValidationError(tt.err)
			assert.Equal(t, tt.expectedMessage, message)

			// Verify no sensitive error details are leaked
			if !errors.As(tt.err, new(*domain.ValidationError)) {
				assert.NotContains(
					t,
					message,
					tt.err.Error(),
					"Sanitized message should not contain raw error details",
				)
			}
		})
	}
}
