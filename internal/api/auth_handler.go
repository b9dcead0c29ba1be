package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/api/shared"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/redact"
	"github.com/esther-anierobi/bookIT/internal/service"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService    service.UserService
	sessionService auth.SessionService
	logger         *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	sessionService auth.SessionService,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}

	return &AuthHandler{
		userService:    userService,
		sessionService: sessionService,
		logger:         logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register requests.
// It creates the account and signs the new user in with a fresh token pair.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		HandleValidationError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to register user")
		return
	}

	pair, err := h.sessionService.IssueSessionPair(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to issue session tokens")
		return
	}

	log.Debug("user registered", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, toAuthResponse(user.ID, pair))
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		HandleValidationError(w, r, err)
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	pair, err := h.sessionService.IssueSessionPair(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to issue session tokens")
		return
	}

	log.Debug("user logged in", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, toAuthResponse(user.ID, pair))
}

// RefreshToken handles POST /auth/refresh requests.
// It exchanges a valid refresh token for a new token pair, revoking the
// presented token in the same transaction.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		HandleValidationError(w, r, err)
		return
	}

	pair, err := h.sessionService.RotateSession(r.Context(), req.RefreshToken)
	if err != nil {
		// A subject that no longer resolves reads like any other bad token.
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid refresh token", err)
			return
		}
		HandleAPIError(w, r, err, "Failed to refresh session")
		return
	}

	log.Debug("session rotated")
	shared.RespondWithJSON(w, r, http.StatusOK, toRefreshResponse(pair))
}

// Logout handles POST /auth/logout requests.
// The access token comes from the Authorization header and the refresh token
// from the body; both are revoked before the user is marked logged out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req LogoutRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		HandleValidationError(w, r, err)
		return
	}

	accessToken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	if err := h.userService.Logout(r.Context(), actor.ID, accessToken, req.RefreshToken); err != nil {
		HandleAPIError(w, r, err, "Failed to log out")
		return
	}

	log.Debug("user logged out", slog.String("user_id", actor.ID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// toAuthResponse converts an issued token pair into an AuthResponse.
func toAuthResponse(userID uuid.UUID, pair *auth.TokenPair) AuthResponse {
	return AuthResponse{
		UserID:           userID,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// toRefreshResponse converts a rotated token pair into a RefreshTokenResponse.
func toRefreshResponse(pair *auth.TokenPair) RefreshTokenResponse {
	return RefreshTokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
