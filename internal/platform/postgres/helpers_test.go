package postgres

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

// newMockDB returns a sqlmock-backed database handle. The connection is
// closed automatically when the test finishes.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pgError builds the minimal pgconn error the stores inspect when mapping
// constraint violations.
func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

// testStamp is the fixed creation time used by the row fixtures.
var testStamp = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// storedUser returns a user as it would look after loading from the
// database: hashed password only, no plaintext.
func storedUser() *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Email:          "pat@example.com",
		FullName:       "Pat Doe",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
		Role:           domain.RoleUser,
		Status:         domain.UserStatusActive,
		IsActive:       true,
		CreatedAt:      testStamp,
		UpdatedAt:      testStamp,
	}
}

func storedService() *domain.Service {
	return &domain.Service{
		ID:              uuid.New(),
		OwnerID:         uuid.New(),
		Title:           "Deep Tissue Massage",
		Description:     "60 minute session",
		PriceCents:      8500,
		DurationMinutes: 60,
		IsActive:        true,
		CreatedAt:       testStamp,
		UpdatedAt:       testStamp,
	}
}

func storedBooking() *domain.Booking {
	return &domain.Booking{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ServiceID: uuid.New(),
		StartsAt:  testStamp.Add(24 * time.Hour),
		EndsAt:    testStamp.Add(25 * time.Hour),
		Status:    domain.BookingStatusPending,
		CreatedAt: testStamp,
		UpdatedAt: testStamp,
	}
}

func storedReview() *domain.Review {
	return &domain.Review{
		ID:        uuid.New(),
		BookingID: uuid.New(),
		UserID:    uuid.New(),
		ServiceID: uuid.New(),
		Rating:    5,
		Comment:   "great session",
		CreatedAt: testStamp,
		UpdatedAt: testStamp,
	}
}
