package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// PostgresRevokedTokenStore implements the store.RevokedTokenStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRevokedTokenStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRevokedTokenStore creates a new PostgreSQL implementation of
// the RevokedTokenStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller. If
// logger is nil, a default logger will be used.
func NewPostgresRevokedTokenStore(db store.DBTX, logger *slog.Logger) *PostgresRevokedTokenStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRevokedTokenStore{
		db:     db,
		logger: logger.With(slog.String("component", "revoked_token_store")),
	}
}

// Ensure PostgresRevokedTokenStore implements store.RevokedTokenStore interface
var _ store.RevokedTokenStore = (*PostgresRevokedTokenStore)(nil)

// Insert implements store.RevokedTokenStore.Insert
// It adds a ledger entry. ON CONFLICT DO NOTHING makes inserting an
// already-revoked jti a no-op, so revocation stays idempotent without a
// read-before-write.
func (s *PostgresRevokedTokenStore) Insert(ctx context.Context, entry *domain.RevokedToken) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("revoked token validation failed during insert",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO revoked_tokens (jti, user_id, token, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (jti) DO NOTHING
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.JTI,
		entry.UserID,
		entry.Token,
		entry.ExpiresAt,
		entry.RevokedAt,
	)

	if err != nil {
		log.Error("failed to insert revoked token",
			slog.String("error", err.Error()),
			slog.String("jti", entry.JTI))
		return err
	}

	log.Debug("token revoked",
		slog.String("jti", entry.JTI),
		slog.String("user_id", entry.UserID.String()),
		slog.Time("expires_at", entry.ExpiresAt))
	return nil
}

// IsRevoked implements store.RevokedTokenStore.IsRevoked
// It reports whether the jti has a ledger entry whose expiry is after now.
// Expired entries never count; the token they describe is already dead.
func (s *PostgresRevokedTokenStore) IsRevoked(ctx context.Context, jti string, now time.Time) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE jti = $1 AND expires_at > $2
		)
	`

	var revoked bool
	err := s.db.QueryRowContext(ctx, query, jti, now).Scan(&revoked)
	if err != nil {
		log.Error("failed to check token revocation",
			slog.String("error", err.Error()),
			slog.String("jti", jti))
		return false, err
	}

	return revoked, nil
}

// DeleteExpired implements store.RevokedTokenStore.DeleteExpired
// It removes ledger entries whose expiry is at or before now and returns
// the number removed.
func (s *PostgresRevokedTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM revoked_tokens WHERE expires_at <= $1`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		log.Error("failed to delete expired revoked tokens",
			slog.String("error", err.Error()))
		return 0, err
	}

	removed, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected for token purge",
			slog.String("error", err.Error()))
		return 0, err
	}

	if removed > 0 {
		log.Debug("purged expired revoked tokens", slog.Int64("removed", removed))
	}
	return removed, nil
}

// WithTx implements store.RevokedTokenStore.WithTx
// It returns a new store instance that runs against the provided transaction.
func (s *PostgresRevokedTokenStore) WithTx(tx *sql.Tx) store.RevokedTokenStore {
	return &PostgresRevokedTokenStore{
		db:     tx,
		logger: s.logger,
	}
}
