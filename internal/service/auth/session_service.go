package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// TokenPair bundles the two tokens issued for an authenticated session,
// together with their expiry instants as stamped into the tokens.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SessionService manages the lifecycle of authenticated sessions: issuing
// token pairs, verifying presented tokens against the revocation ledger,
// rotating refresh tokens, and revoking sessions on logout.
type SessionService interface {
	// IssueSessionPair creates a fresh access/refresh token pair for the user.
	IssueSessionPair(ctx context.Context, userID uuid.UUID) (*TokenPair, error)

	// VerifyAccessToken validates an access token, checks the revocation
	// ledger, and resolves the subject to a live user. Returns ErrTokenRevoked
	// if the token's jti has been revoked, or store.ErrUserNotFound if the
	// subject no longer resolves to an active user.
	VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, error)

	// VerifyRefreshToken validates a refresh token under the same contract as
	// VerifyAccessToken.
	VerifyRefreshToken(ctx context.Context, tokenString string) (*domain.User, error)

	// RotateSession exchanges a valid refresh token for a new token pair.
	// The presented token is revoked in the same transaction that issues the
	// replacement pair, so each refresh token mints at most one successor.
	// Returns domain.ErrForbidden if the user has logged out since the token
	// was issued.
	RotateSession(ctx context.Context, refreshToken string) (*TokenPair, error)

	// RevokeSession writes the presented tokens to the revocation ledger.
	// Either argument may be empty. Revoking a token that is already revoked
	// or expired succeeds without effect.
	RevokeSession(ctx context.Context, accessToken, refreshToken string) error

	// PurgeExpired removes ledger entries whose tokens have expired on their
	// own, returning the number removed.
	PurgeExpired(ctx context.Context) (int64, error)
}

// sessionService implements SessionService on top of the JWT service, the
// user store and the revocation ledger.
type sessionService struct {
	jwtService   JWTService
	userStore    store.UserStore
	revokedStore store.RevokedTokenStore
	db           *sql.DB
	logger       *slog.Logger
	timeFunc     func() time.Time // Injectable for testing
}

// Ensure sessionService implements SessionService interface
var _ SessionService = (*sessionService)(nil)

// NewSessionService creates a new SessionService.
func NewSessionService(
	jwtService JWTService,
	userStore store.UserStore,
	revokedStore store.RevokedTokenStore,
	db *sql.DB,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		jwtService:   jwtService,
		userStore:    userStore,
		revokedStore: revokedStore,
		db:           db,
		logger:       logger.With("component", "session_service"),
		timeFunc:     time.Now,
	}
}

// IssueSessionPair creates a fresh access/refresh token pair for the user.
func (s *sessionService) IssueSessionPair(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	pair, err := s.issuePair(ctx, userID)
	if err != nil {
		s.logger.Error("failed to issue session pair",
			"error", err,
			"user_id", userID)
		return nil, err
	}

	s.logger.Debug("issued session pair", "user_id", userID)

	return pair, nil
}

// VerifyAccessToken validates an access token, checks the revocation ledger
// and resolves the subject to a live user.
func (s *sessionService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.jwtService.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	if err := s.checkRevocation(ctx, claims); err != nil {
		return nil, err
	}

	return s.resolveActiveUser(ctx, claims)
}

// VerifyRefreshToken validates a refresh token under the same contract as
// VerifyAccessToken.
func (s *sessionService) VerifyRefreshToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.jwtService.ValidateRefreshToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	if err := s.checkRevocation(ctx, claims); err != nil {
		return nil, err
	}

	return s.resolveActiveUser(ctx, claims)
}

// RotateSession exchanges a valid refresh token for a new token pair.
// The presented token is revoked before the new pair is issued, inside a
// single transaction: if issuing fails the revocation rolls back and the
// old token stays valid, and if revoking fails no new pair exists. Either
// way there is never a moment with two live refresh tokens for the exchange.
func (s *sessionService) RotateSession(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.checkRevocation(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.resolveActiveUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	// A user who logged out must authenticate with credentials again; their
	// leftover refresh token cannot restart the session.
	if user.Status == domain.UserStatusInactive {
		s.logger.Debug("rotation rejected: user is logged out",
			"user_id", user.ID,
			"token_id", claims.ID)
		return nil, fmt.Errorf("%w: session has been logged out", domain.ErrForbidden)
	}

	var pair *TokenPair
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.revokedStore.WithTx(tx)

		entry, err := domain.NewRevokedToken(claims.ID, claims.UserID, refreshToken, claims.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to build revocation entry: %w", err)
		}
		if err := txStore.Insert(ctx, entry); err != nil {
			return fmt.Errorf("failed to revoke rotated refresh token: %w", err)
		}

		// Signing is pure computation; a failure here rolls the revocation back.
		newPair, err := s.issuePair(ctx, claims.UserID)
		if err != nil {
			return err
		}
		pair = newPair

		return nil
	})
	if err != nil {
		s.logger.Error("session rotation failed",
			"error", err,
			"user_id", claims.UserID,
			"token_id", claims.ID)
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	s.logger.Info("session rotated",
		"user_id", claims.UserID,
		"rotated_token_id", claims.ID)

	return pair, nil
}

// RevokeSession writes the presented tokens to the revocation ledger in one
// transaction. Expired tokens are skipped silently: they are already dead,
// and recording them would only grow the ledger. A token whose signature
// does not verify is rejected with ErrInvalidToken.
func (s *sessionService) RevokeSession(ctx context.Context, accessToken, refreshToken string) error {
	now := s.timeFunc()

	var entries []*domain.RevokedToken
	for _, tokenString := range []string{accessToken, refreshToken} {
		if tokenString == "" {
			continue
		}

		claims, err := s.jwtService.ExtractClaims(ctx, tokenString)
		if err != nil {
			return err
		}
		if !claims.ExpiresAt.After(now) {
			continue
		}

		entry, err := domain.NewRevokedToken(claims.ID, claims.UserID, tokenString, claims.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to build revocation entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.revokedStore.WithTx(tx)
		for _, entry := range entries {
			if err := txStore.Insert(ctx, entry); err != nil {
				return fmt.Errorf("failed to insert revocation entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to revoke session", "error", err)
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info("session revoked",
		"user_id", entries[0].UserID,
		"revoked_tokens", len(entries))

	return nil
}

// PurgeExpired removes ledger entries whose tokens have expired on their own.
func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := s.revokedStore.DeleteExpired(ctx, s.timeFunc())
	if err != nil {
		s.logger.Error("failed to purge expired revocation entries", "error", err)
		return 0, fmt.Errorf("failed to purge expired revocation entries: %w", err)
	}

	if removed > 0 {
		s.logger.Info("purged expired revocation entries", "removed", removed)
	}

	return removed, nil
}

// issuePair generates both tokens of a session pair. The expiry instants are
// read back out of the minted tokens so the pair always reports the true
// wire-format expiries.
func (s *sessionService) issuePair(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	accessClaims, err := s.jwtService.ExtractClaims(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read back access token claims: %w", err)
	}
	refreshClaims, err := s.jwtService.ExtractClaims(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read back refresh token claims: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// checkRevocation consults the ledger for the claim's jti.
func (s *sessionService) checkRevocation(ctx context.Context, claims *Claims) error {
	revoked, err := s.revokedStore.IsRevoked(ctx, claims.ID, s.timeFunc())
	if err != nil {
		s.logger.Error("failed to check revocation ledger",
			"error", err,
			"token_id", claims.ID)
		return fmt.Errorf("failed to check revocation ledger: %w", err)
	}
	if revoked {
		s.logger.Debug("token rejected: revoked",
			"token_id", claims.ID,
			"user_id", claims.UserID)
		return ErrTokenRevoked
	}

	return nil
}

// resolveActiveUser maps the token subject to a user row. Soft-deleted users
// are invisible to authentication: their otherwise-valid tokens stop working
// the moment the account is deactivated.
func (s *sessionService) resolveActiveUser(ctx context.Context, claims *Claims) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("token subject no longer exists",
				"user_id", claims.UserID,
				"token_id", claims.ID)
			return nil, err
		}
		s.logger.Error("failed to resolve token subject",
			"error", err,
			"user_id", claims.UserID)
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}

	if !user.IsActive {
		s.logger.Debug("token rejected: user deactivated",
			"user_id", claims.UserID,
			"token_id", claims.ID)
		return nil, store.ErrUserNotFound
	}

	return user, nil
}
