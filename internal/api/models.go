package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,max=255"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the short-lived JWT used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the JWT used to obtain new access tokens
	RefreshToken string `json:"refresh_token"`

	// AccessExpiresAt is when the access token expires
	AccessExpiresAt time.Time `json:"access_expires_at"`

	// RefreshExpiresAt is when the refresh token expires
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	// RefreshToken is the JWT refresh token to be exchanged for a new token pair
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	// AccessToken is the new JWT used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the new JWT used to obtain future access tokens
	RefreshToken string `json:"refresh_token"`

	// AccessExpiresAt is when the new access token expires
	AccessExpiresAt time.Time `json:"access_expires_at"`

	// RefreshExpiresAt is when the new refresh token expires
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// LogoutRequest defines the payload for the logout endpoint. The access
// token comes from the Authorization header; the refresh token travels in
// the body so both halves of the session can be revoked together.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
