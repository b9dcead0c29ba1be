package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

// RevokedTokenStore defines the interface for the token revocation ledger.
// The ledger is keyed by jti; a jti with an unexpired entry can never
// authenticate again.
type RevokedTokenStore interface {
	// Insert adds a ledger entry. Inserting a jti that is already present
	// is a no-op, making revocation idempotent.
	Insert(ctx context.Context, entry *domain.RevokedToken) error

	// IsRevoked reports whether the jti has a ledger entry whose expiry is
	// after now. Expired entries are inert and never count.
	IsRevoked(ctx context.Context, jti string, now time.Time) (bool, error)

	// DeleteExpired removes ledger entries whose expiry is at or before
	// now, returning the number removed. Safe to run concurrently with
	// Insert and IsRevoked.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// WithTx returns a new RevokedTokenStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RevokedTokenStore
}
