package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/esther-anierobi/bookIT/internal/api/shared"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/redact"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// SessionVerifier resolves a bearer token to its active user. Implemented by
// the auth session service.
type SessionVerifier interface {
	VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, error)
}

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	sessions SessionVerifier
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(sessions SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

// Authenticate validates JWT tokens from the Authorization header, resolves
// the token subject to an active user, and adds that user to the request
// context for authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		m.verifyAndServe(w, r, next, authHeader)
	})
}

// AuthenticateOptional resolves the bearer token when one is presented but
// lets anonymous requests through without a context user. A presented token
// must still be valid. Used on public routes whose responses vary for
// authenticated admins.
func (m *AuthMiddleware) AuthenticateOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		m.verifyAndServe(w, r, next, authHeader)
	})
}

// verifyAndServe checks the Authorization header value, resolves the token
// subject to an active user, and runs next with that user on the context.
func (m *AuthMiddleware) verifyAndServe(
	w http.ResponseWriter,
	r *http.Request,
	next http.Handler,
	authHeader string,
) {
	// Check Bearer prefix
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
		return
	}

	token := parts[1]

	// Validate token and resolve the subject
	user, err := m.sessions.VerifyAccessToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
		case errors.Is(err, auth.ErrTokenRevoked):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Token revoked")
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrWrongTokenType):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
		case errors.Is(err, store.ErrUserNotFound):
			// The subject no longer resolves to an active account.
			// Reported like any other bad token.
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
		default:
			slog.Error("failed to verify token", "error", redact.Error(err))
			shared.RespondWithError(
				w,
				r,
				http.StatusInternalServerError,
				"Authentication error",
			)
		}
		return
	}

	// Add the resolved user to context
	ctx := shared.WithUser(r.Context(), user)

	// Continue with the authenticated request
	next.ServeHTTP(w, r.WithContext(ctx))
}

// GetUser extracts the authenticated user from the request context.
// Returns the user and a boolean indicating if one was found.
func GetUser(r *http.Request) (*domain.User, bool) {
	return shared.UserFromContext(r.Context())
}
