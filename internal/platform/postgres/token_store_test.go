package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

func revokedEntry() *domain.RevokedToken {
	return &domain.RevokedToken{
		JTI:       uuid.NewString(),
		UserID:    uuid.New(),
		Token:     "header.payload.signature",
		ExpiresAt: testStamp.Add(168 * time.Hour),
		RevokedAt: testStamp,
	}
}

func TestRevokedTokenStoreInsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("records the revocation", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())
		entry := revokedEntry()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
			WithArgs(entry.JTI, entry.UserID, entry.Token, entry.ExpiresAt, entry.RevokedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Insert(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("is a no-op for an already revoked jti", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		// ON CONFLICT DO NOTHING reports zero rows affected.
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, s.Insert(ctx, revokedEntry()))
	})

	t.Run("rejects an entry without a jti", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		entry := revokedEntry()
		entry.JTI = ""

		assert.ErrorIs(t, s.Insert(ctx, entry), domain.ErrEmptyTokenID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		dbErr := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).WillReturnError(dbErr)

		assert.ErrorIs(t, s.Insert(ctx, revokedEntry()), dbErr)
	})
}

func TestRevokedTokenStoreIsRevoked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := testStamp.Add(time.Hour)

	existsQuery := "SELECT EXISTS ( SELECT 1 FROM revoked_tokens WHERE jti = $1 AND expires_at > $2 )"

	t.Run("reports a live ledger entry", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())
		jti := uuid.NewString()

		mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).
			WithArgs(jti, now).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		revoked, err := s.IsRevoked(ctx, jti, now)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("treats an absent or expired entry as not revoked", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		mock.ExpectQuery(regexp.QuoteMeta(existsQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		revoked, err := s.IsRevoked(ctx, uuid.NewString(), now)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("propagates query errors", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		dbErr := errors.New("connection reset")
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WillReturnError(dbErr)

		revoked, err := s.IsRevoked(ctx, uuid.NewString(), now)
		assert.False(t, revoked)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestRevokedTokenStoreDeleteExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := testStamp.Add(200 * time.Hour)

	t.Run("purges dead entries and reports the count", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens WHERE expires_at <= $1")).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		removed, err := s.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports zero when nothing is expired", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		removed, err := s.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("propagates database errors", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := NewPostgresRevokedTokenStore(db, newTestLogger())

		dbErr := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens")).WillReturnError(dbErr)

		removed, err := s.DeleteExpired(ctx, now)
		assert.Zero(t, removed)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestRevokedTokenStoreWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, mock := newMockDB(t)
	s := NewPostgresRevokedTokenStore(db, newTestLogger())
	entry := revokedEntry()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	txStore, ok := s.WithTx(tx).(*PostgresRevokedTokenStore)
	require.True(t, ok)
	assert.Same(t, tx, txStore.db)

	require.NoError(t, txStore.Insert(ctx, entry))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
