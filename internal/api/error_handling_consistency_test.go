package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/api/shared"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/service"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// TestErrorHandlingConsistency verifies that all handlers handle errors consistently
// by using the centralized error handling functions.
func TestErrorHandlingConsistency(t *testing.T) {
	// Table-driven test for different error scenarios
	tests := []struct {
		name             string
		err              error
		defaultMsg       string
		expectedStatus   int
		expectedMessage  string
		expectDefaultMsg bool
	}{
		// Authentication errors
		{
			name:            "invalid token",
			err:             auth.ErrInvalidToken,
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "expired token",
			err:             auth.ErrExpiredToken,
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Token expired",
		},
		// Not found errors
		{
			name:            "user not found",
			err:             store.ErrUserNotFound,
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "User not found",
		},
		{
			name:            "booking not found",
			err:             store.ErrBookingNotFound,
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "Booking not found",
		},
		// Conflict errors
		{
			name:            "booking conflict",
			err:             service.ErrBookingConflict,
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusConflict,
			expectedMessage: "The requested time window is no longer available",
		},
		// Validation errors
		{
			name:            "invalid ID",
			err:             domain.ErrInvalidID,
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid ID",
		},
		{
			name:            "validation error",
			err:             domain.ErrValidation,
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation failed",
		},
		{
			name: "field validation error",
			err: domain.NewValidationError(
				"email",
				"must be a valid format",
				nil,
			),
			defaultMsg:      "Custom default message",
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid email: must be a valid format",
		},
		// Server errors
		{
			name:             "unexpected error",
			err:              errors.New("database connection error"),
			defaultMsg:       "Friendly server error message",
			expectedStatus:   http.StatusInternalServerError,
			expectedMessage:  "Friendly server error message",
			expectDefaultMsg: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Create a response recorder
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)

			// Test HandleAPIError
			HandleAPIError(rr, req, tc.err, tc.defaultMsg)

			// Verify status code
			assert.Equal(t, tc.expectedStatus, rr.Code, "Wrong status code for HandleAPIError")

			// Parse response
			var response map[string]interface{}
			err := json.NewDecoder(rr.Body).Decode(&response)
			require.NoError(t, err, "Failed to decode response")

			// Verify expected message
			errorMsg, ok := response["error"].(string)
			require.True(t, ok, "Error field missing in response")

			if tc.expectDefaultMsg {
				assert.Equal(t, tc.defaultMsg, errorMsg, "Wrong error message for HandleAPIError")
			} else {
				assert.Equal(t, tc.expectedMessage, errorMsg, "Wrong error message for HandleAPIError")
			}
		})
	}
}

// TestValidationErrorConsistency verifies that validation errors are handled
// consistently across handlers.
func TestValidationErrorConsistency(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "domain validation error",
			err: domain.NewValidationError(
				"full_name",
				"must be at least 3 characters",
				nil,
			),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid full_name: must be at least 3 characters",
		},
		{
			name: "generic validation error",
			err: errors.New(
				"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag",
			),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid Email: required field",
		},
		{
			name:            "generic validation without field",
			err:             errors.New("validation error"),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Validation error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Create a response recorder
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)

			// Test HandleValidationError
			HandleValidationError(rr, req, tc.err)

			// Verify status code
			assert.Equal(t, tc.expectedStatus, rr.Code, "Wrong status code for HandleValidationError")

			// Parse response
			var response map[string]interface{}
			err := json.NewDecoder(rr.Body).Decode(&response)
			require.NoError(t, err, "Failed to decode response")

			// Verify expected message
			errorMsg, ok := response["error"].(string)
			require.True(t, ok, "Error field missing in response")
			assert.Equal(t, tc.expectedMessage, errorMsg, "Wrong error message for HandleValidationError")
		})
	}
}

// TestMapErrorToStatusCode verifies the consistent status code mapping
func TestMapErrorToStatusCode_Consistency(t *testing.T) {
	// Map of error types to expected status codes
	errorMap := map[error]int{
		// Authentication errors
		auth.ErrInvalidToken:          http.StatusUnauthorized,
		auth.ErrExpiredToken:          http.StatusUnauthorized,
		auth.ErrTokenRevoked:          http.StatusUnauthorized,
		auth.ErrInvalidRefreshToken:   http.StatusUnauthorized,
		auth.ErrExpiredRefreshToken:   http.StatusUnauthorized,
		auth.ErrWrongTokenType:        http.StatusUnauthorized,
		service.ErrInvalidCredentials: http.StatusUnauthorized,
		domain.ErrUnauthorized:        http.StatusUnauthorized,

		// Authorization errors
		domain.ErrForbidden: http.StatusForbidden,

		// Not found errors
		store.ErrUserNotFound:    http.StatusNotFound,
		store.ErrServiceNotFound: http.StatusNotFound,
		store.ErrBookingNotFound: http.StatusNotFound,
		store.ErrReviewNotFound:  http.StatusNotFound,
		store.ErrNotFound:        http.StatusNotFound,

		// Conflict errors
		service.ErrBookingConflict: http.StatusConflict,
		store.ErrEmailExists:       http.StatusConflict,
		store.ErrReviewExists:      http.StatusConflict,
		store.ErrDuplicate:         http.StatusConflict,

		// Validation errors
		domain.ErrValidation:             http.StatusBadRequest,
		domain.ErrInvalidID:              http.StatusBadRequest,
		domain.ErrInvalidInterval:        http.StatusBadRequest,
		domain.ErrInvalidTransition:      http.StatusBadRequest,
		domain.ErrBookingStarted:         http.StatusBadRequest,
		service.ErrBookingNotCompleted:   http.StatusBadRequest,
		domain.ErrInvalidRating:          http.StatusBadRequest,
		domain.ErrCommentTooLong:         http.StatusBadRequest,
		domain.ErrEmptyServiceTitle:      http.StatusBadRequest,
		domain.ErrNegativeServicePrice:   http.StatusBadRequest,
		domain.ErrInvalidServiceDuration: http.StatusBadRequest,
		domain.ErrMalformedEmail:         http.StatusBadRequest,
		domain.ErrPasswordTooShort:       http.StatusBadRequest,
		domain.ErrPasswordTooLong:        http.StatusBadRequest,
		domain.ErrInvalidBookingStatus:   http.StatusBadRequest,
		store.ErrInvalidEntity:           http.StatusBadRequest,

		// Default case
		errors.New("unknown error"): http.StatusInternalServerError,
	}

	// Verify each error maps to the expected status code
	for err, expectedStatus := range errorMap {
		t.Run(err.Error(), func(t *testing.T) {
			actualStatus := MapErrorToStatusCode(err)
			assert.Equal(t, expectedStatus, actualStatus, "Error %v should map to status %d", err, expectedStatus)
		})
	}

	// Test wrapped errors
	wrappedAuth := errors.New("wrapped: auth error")
	wrappedAuth = errors.New(wrappedAuth.Error() + ": " + auth.ErrInvalidToken.Error())
	assert.Equal(
		t,
		http.StatusInternalServerError,
		MapErrorToStatusCode(wrappedAuth),
		"Wrapped errors should map to 500 unless using errors.Wrap",
	)

	// Test a properly wrapped error using fmt.Errorf with %w
	properWrapped := fmt.Errorf("wrapper: %w", auth.ErrInvalidToken)
	assert.Equal(
		t,
		http.StatusUnauthorized,
		MapErrorToStatusCode(properWrapped),
		"Properly wrapped error should keep original status code",
	)

	// Test nested properly wrapped errors
	nestedWrapped := fmt.Errorf("outer wrapper: %w", fmt.Errorf("inner wrapper: %w", service.ErrBookingConflict))
	assert.Equal(
		t,
		http.StatusConflict,
		MapErrorToStatusCode(nestedWrapped),
		"Nested wrapped errors should keep original status code",
	)

	// Test domain.ValidationError
	validationErr := domain.NewValidationError("email", "must be valid", nil)
	assert.Equal(
		t,
		http.StatusBadRequest,
		MapErrorToStatusCode(validationErr),
		"ValidationError should map to 400 Bad Request",
	)

	// Test wrapped domain.ValidationError
	wrappedValidationErr := fmt.Errorf("validation failed: %w", validationErr)
	assert.Equal(
		t,
		http.StatusBadRequest,
		MapErrorToStatusCode(wrappedValidationErr),
		"Wrapped ValidationError should map to 400 Bad Request",
	)

	// Test store.StoreError wrapping a known error
	storeErr := store.NewStoreError("user", "create", "failed to create user", store.ErrEmailExists)
	assert.Equal(
		t,
		http.StatusConflict,
		MapErrorToStatusCode(storeErr),
		"StoreError wrapping a known error should use the wrapped error's status code",
	)
}

// TestGetSafeErrorMessage_Consistency verifies the consistent error message generation
func TestGetSafeErrorMessage_Consistency(t *testing.T) {
	// Map of error types to expected messages
	errorMap := map[error]string{
		// Authentication errors
		auth.ErrInvalidToken:          "Invalid token",
		auth.ErrExpiredToken:          "Token expired",
		auth.ErrTokenRevoked:          "Token revoked",
		auth.ErrInvalidRefreshToken:   "Invalid refresh token",
		auth.ErrExpiredRefreshToken:   "Invalid refresh token",
		auth.ErrWrongTokenType:        "Invalid refresh token",
		service.ErrInvalidCredentials: "Invalid email or password",
		domain.ErrUnauthorized:        "Authentication required",

		// Authorization errors
		domain.ErrForbidden: "You are not allowed to perform this action",

		// Not found errors
		store.ErrUserNotFound:    "User not found",
		store.ErrServiceNotFound: "Service not found",
		store.ErrBookingNotFound: "Booking not found",
		store.ErrReviewNotFound:  "Review not found",
		store.ErrNotFound:        "Resource not found",

		// Conflict errors
		service.ErrBookingConflict: "The requested time window is no longer available",
		store.ErrEmailExists:       "Email already exists",
		store.ErrReviewExists:      "This booking has already been reviewed",
		store.ErrDuplicate:         "Resource already exists",

		// Validation errors
		domain.ErrValidation:             "Validation failed",
		domain.ErrInvalidID:              "Invalid ID",
		domain.ErrInvalidInterval:        "Invalid booking interval",
		domain.ErrInvalidTransition:      "Invalid status transition",
		domain.ErrBookingStarted:         "The booking has already started",
		service.ErrBookingNotCompleted:   "Only completed bookings can be reviewed",
		domain.ErrInvalidRating:          "Rating must be between 1 and 5",
		domain.ErrCommentTooLong:         "Comment is too long",
		domain.ErrEmptyServiceTitle:      "Service title cannot be empty",
		domain.ErrNegativeServicePrice:   "Service price cannot be negative",
		domain.ErrInvalidServiceDuration: "Service duration must be positive",
		domain.ErrMalformedEmail:         "Invalid email format",
		domain.ErrPasswordTooShort:       "Password must be at least 8 characters long",
		domain.ErrPasswordTooLong:        "Password must be at most 72 characters long",
		domain.ErrInvalidBookingStatus:   "Invalid booking status",
		store.ErrInvalidEntity:           "Validation failed",

		// Default case
		errors.New("unknown error"): "An unexpected error occurred",
	}

	// Verify each error maps to the expected message
	for err, expectedMessage := range errorMap {
		t.Run(err.Error(), func(t *testing.T) {
			actualMessage := GetSafeErrorMessage(err)
			assert.Equal(t, expectedMessage, actualMessage, "Error %v should map to message '%s'", err, expectedMessage)
		})
	}

	// Test domain.ValidationError with field
	validationErr := domain.NewValidationError("email", "must be valid", nil)
	assert.Equal(t, "Invalid email: must be valid", GetSafeErrorMessage(validationErr))

	// Test wrapped validationErr
	wrappedValidationErr := fmt.Errorf("validation failed: %w", validationErr)
	assert.Equal(t, "Invalid email: must be valid", GetSafeErrorMessage(wrappedValidationErr))

	// Test store.StoreError with wrapped error
	storeErr := store.NewStoreError("user", "get", "failed to get user", store.ErrUserNotFound)
	assert.Equal(t, "User not found", GetSafeErrorMessage(storeErr))

	// Test store.StoreError without known wrapped error
	storeErrUnknown := store.NewStoreError("booking", "update", "database error", errors.New("SQL error"))
	assert.Equal(t, "Operation failed: database error", GetSafeErrorMessage(storeErrUnknown))

	// Test a wrapped service error keeps its specific message
	wrappedConflict := fmt.Errorf("create booking: %w", service.ErrBookingConflict)
	assert.Equal(t, "The requested time window is no longer available", GetSafeErrorMessage(wrappedConflict))
}

// TestResponseFormat verifies that error responses follow a consistent format
func TestResponseFormat(t *testing.T) {
	// Test cases for different errors but with the same expected format
	testCases := []struct {
		name           string
		err            error
		defaultMsg     string
		expectedStatus int
	}{
		{
			name:           "validation error",
			err:            domain.ErrValidation,
			defaultMsg:     "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found error",
			err:            store.ErrBookingNotFound,
			defaultMsg:     "",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "server error with default message",
			err:            errors.New("database error"),
			defaultMsg:     "An error occurred while processing your request",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Create a test request and response recorder
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			// Add a context with a trace ID
			ctx := r.Context()
			traceID := "test-trace-id"
			ctx = context.WithValue(ctx, shared.TraceIDKey, traceID)
			r = r.WithContext(ctx)

			// Call HandleAPIError
			HandleAPIError(w, r, tc.err, tc.defaultMsg)

			// Check Content-Type header
			assert.Equal(
				t,
				"application/json",
				w.Header().Get("Content-Type"),
				"Content-Type should be application/json",
			)

			// Decode response
			var response map[string]interface{}
			err := json.NewDecoder(w.Body).Decode(&response)
			require.NoError(t, err, "Failed to decode response")

			// Check response format has expected fields
			assert.Contains(t, response, "error", "Response should contain 'error' field")
			assert.Contains(t, response, "trace_id", "Response should contain 'trace_id' field")
			assert.Equal(t, traceID, response["trace_id"], "trace_id should match expected value")
		})
	}
}

// TestConsistentErrorHandling tests that different error types produce consistent responses
func TestConsistentErrorHandling(t *testing.T) {
	// Create a common request and different errors
	commonErrors := []struct {
		name           string
		err            error
		defaultMsg     string
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "validation error",
			err:            domain.NewValidationError("email", "invalid format", nil),
			defaultMsg:     "",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid email: invalid format",
		},
		{
			name:           "not found error",
			err:            store.ErrUserNotFound,
			defaultMsg:     "",
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "User not found",
		},
		{
			name:           "unauthorized error",
			err:            auth.ErrInvalidToken,
			defaultMsg:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid token",
		},
		{
			name:           "conflict error",
			err:            service.ErrBookingConflict,
			defaultMsg:     "",
			expectedStatus: http.StatusConflict,
			expectedMsg:    "The requested time window is no longer available",
		},
		{
			name:           "server error with default message",
			err:            errors.New("database error"),
			defaultMsg:     "Something went wrong",
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Something went wrong",
		},
	}

	for _, ce := range commonErrors {
		t.Run(ce.name, func(t *testing.T) {
			// Create a test trace ID
			traceID := "test-trace-id-" + ce.name

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			// Add trace ID to context
			ctx := r.Context()
			ctx = context.WithValue(ctx, shared.TraceIDKey, traceID)
			r = r.WithContext(ctx)

			HandleAPIError(w, r, ce.err, ce.defaultMsg)

			assert.Equal(t, ce.expectedStatus, w.Code, "Status code mismatch for HandleAPIError")

			var resp map[string]interface{}
			err := json.NewDecoder(w.Body).Decode(&resp)
			require.NoError(t, err, "Failed to decode response")

			assert.Equal(t, ce.expectedMsg, resp["error"], "Error message mismatch for HandleAPIError")
			assert.Equal(t, traceID, resp["trace_id"], "trace_id mismatch in HandleAPIError response")
		})
	}
}
