package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
)

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		rotateFn    func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
		wantStatus  int
		wantMessage string
		wantTokens  bool
	}{
		{
			name: "valid refresh token rotates the session",
			body: `{"refresh_token":"valid-refresh-token"}`,
			rotateFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
				if refreshToken != "valid-refresh-token" {
					return nil, auth.ErrInvalidRefreshToken
				}
				return testTokenPair(), nil
			},
			wantStatus: http.StatusOK,
			wantTokens: true,
		},
		{
			name:        "missing refresh token",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid RefreshToken: required field",
		},
		{
			name: "invalid refresh token",
			body: `{"refresh_token":"garbage"}`,
			rotateFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
				return nil, auth.ErrInvalidRefreshToken
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid refresh token",
		},
		{
			name: "expired refresh token",
			body: `{"refresh_token":"expired-refresh-token"}`,
			rotateFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
				return nil, auth.ErrExpiredRefreshToken
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid refresh token",
		},
		{
			name: "access token presented as refresh token",
			body: `{"refresh_token":"an-access-token"}`,
			rotateFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
				return nil, auth.ErrWrongTokenType
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid refresh token",
		},
		{
			name: "revoked refresh token is forbidden",
			body: `{"refresh_token":"logged-out-refresh-token"}`,
			rotateFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
				return nil, domain.ErrForbidden
			},
			wantStatus:  http.StatusForbidden,
			wantMessage: "You are not allowed to perform this action",
		},
		{
			name: "subject no longer exists reads like a bad token",
			body: `{"refresh_token":"orphaned-refresh-token"}`,
			rotateFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
				return nil, fmt.Errorf("resolving session subject: %w", store.ErrUserNotFound)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid refresh token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &stubSessionService{rotateFn: tt.rotateFn}
			handler := NewAuthHandler(&stubUserService{}, sessions, newTestLogger())

			req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()

			handler.RefreshToken(recorder, req)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			if tt.wantTokens {
				var resp RefreshTokenResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
				assert.Equal(t, "access-token-value", resp.AccessToken)
				assert.Equal(t, "refresh-token-value", resp.RefreshToken)
				assert.False(t, resp.AccessExpiresAt.IsZero(), "AccessExpiresAt should be populated")
				assert.False(t, resp.RefreshExpiresAt.IsZero(), "RefreshExpiresAt should be populated")
				return
			}

			assert.Contains(t, recorder.Body.String(), tt.wantMessage)
		})
	}
}

// TestRefreshTokenRotationIsSingleUse exercises the rotate-then-reuse
// sequence a client replaying an old refresh token would produce.
func TestRefreshTokenRotationIsSingleUse(t *testing.T) {
	t.Parallel()

	rotated := make(map[string]bool)
	sessions := &stubSessionService{
		rotateFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
			if rotated[refreshToken] {
				return nil, domain.ErrForbidden
			}
			rotated[refreshToken] = true
			return testTokenPair(), nil
		},
	}
	handler := NewAuthHandler(&stubUserService{}, sessions, newTestLogger())

	send := func() *httptest.ResponseRecorder {
		body := bytes.NewBufferString(`{"refresh_token":"one-shot-token"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", body)
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		handler.RefreshToken(recorder, req)
		return recorder
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)

	second := send()
	assert.Equal(t, http.StatusForbidden, second.Code)
	assert.Contains(t, second.Body.String(), "You are not allowed to perform this action")
}
