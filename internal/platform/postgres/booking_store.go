package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// PostgresBookingStore implements the store.BookingStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBookingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBookingStore creates a new PostgreSQL implementation of the
// BookingStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresBookingStore(db store.DBTX, logger *slog.Logger) *PostgresBookingStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBookingStore{
		db:     db,
		logger: logger.With(slog.String("component", "booking_store")),
	}
}

// Ensure PostgresBookingStore implements store.BookingStore interface
var _ store.BookingStore = (*PostgresBookingStore)(nil)

// Create implements store.BookingStore.Create
// It saves a new booking to the database.
// Returns store.ErrInvalidEntity if the user or service does not exist.
func (s *PostgresBookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := booking.Validate(); err != nil {
		log.Warn("booking validation failed during create",
			slog.String("error", err.Error()),
			slog.String("booking_id", booking.ID.String()))
		return err
	}

	query := `
		INSERT INTO bookings (id, user_id, service_id, starts_at, ends_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		booking.ID,
		booking.UserID,
		booking.ServiceID,
		booking.StartsAt,
		booking.EndsAt,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during booking creation",
				slog.String("error", err.Error()),
				slog.String("booking_id", booking.ID.String()),
				slog.String("user_id", booking.UserID.String()),
				slog.String("service_id", booking.ServiceID.String()))
			return fmt.Errorf("%w: referenced user or service not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create booking",
			slog.String("error", err.Error()),
			slog.String("booking_id", booking.ID.String()))
		return err
	}

	log.Info("booking created successfully",
		slog.String("booking_id", booking.ID.String()),
		slog.String("service_id", booking.ServiceID.String()),
		slog.String("status", string(booking.Status)))
	return nil
}

// GetByID implements store.BookingStore.GetByID
// It retrieves a booking by its unique ID.
// Returns store.ErrBookingNotFound if the booking does not exist.
func (s *PostgresBookingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, service_id, starts_at, ends_at, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	booking, err := scanBooking(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("booking not found", slog.String("booking_id", id.String()))
			return nil, store.ErrBookingNotFound
		}
		log.Error("failed to get booking by ID",
			slog.String("error", err.Error()),
			slog.String("booking_id", id.String()))
		return nil, err
	}

	return booking, nil
}

// Update implements store.BookingStore.Update
// It modifies an existing booking's window and status.
// Returns store.ErrBookingNotFound if the booking does not exist.
func (s *PostgresBookingStore) Update(ctx context.Context, booking *domain.Booking) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := booking.Validate(); err != nil {
		log.Warn("booking validation failed during update",
			slog.String("error", err.Error()),
			slog.String("booking_id", booking.ID.String()))
		return err
	}

	booking.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE bookings
		SET starts_at = $1, ends_at = $2, status = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		booking.StartsAt,
		booking.EndsAt,
		booking.Status,
		booking.UpdatedAt,
		booking.ID,
	)

	if err != nil {
		log.Error("failed to update booking",
			slog.String("error", err.Error()),
			slog.String("booking_id", booking.ID.String()))
		return err
	}

	if err := CheckRowsAffected(result, "booking"); err != nil {
		log.Debug("booking not found for update",
			slog.String("booking_id", booking.ID.String()))
		return store.ErrBookingNotFound
	}

	log.Info("booking updated successfully",
		slog.String("booking_id", booking.ID.String()),
		slog.String("status", string(booking.Status)))
	return nil
}

// Delete implements store.BookingStore.Delete
// It removes a booking permanently.
// Returns store.ErrBookingNotFound if the booking does not exist.
func (s *PostgresBookingStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM bookings WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete booking",
			slog.String("error", err.Error()),
			slog.String("booking_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, "booking"); err != nil {
		log.Debug("booking not found for delete",
			slog.String("booking_id", id.String()))
		return store.ErrBookingNotFound
	}

	log.Info("booking deleted",
		slog.String("booking_id", id.String()))
	return nil
}

// List implements store.BookingStore.List
// It returns bookings matching the filters, ordered by start time descending.
func (s *PostgresBookingStore) List(ctx context.Context, filters store.BookingFilters) ([]*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit := filters.Limit
	if limit <= 0 {
		limit = 20 // Default limit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	var conditions []string
	var args []interface{}

	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filters.ServiceID != nil {
		args = append(args, *filters.ServiceID)
		conditions = append(conditions, fmt.Sprintf("service_id = $%d", len(args)))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		conditions = append(conditions, fmt.Sprintf("starts_at >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		conditions = append(conditions, fmt.Sprintf("starts_at < $%d", len(args)))
	}

	query := `
		SELECT id, user_id, service_id, starts_at, ends_at, status, created_at, updated_at
		FROM bookings
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY starts_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list bookings",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			log.Error("failed to scan booking row",
				slog.String("error", err.Error()))
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no bookings found
	if bookings == nil {
		bookings = []*domain.Booking{}
	}

	log.Debug("listed bookings", slog.Int("count", len(bookings)))
	return bookings, nil
}

// CountOverlapping implements store.BookingStore.CountOverlapping
// It counts bookings for the service whose half-open window intersects
// [start, end) and whose status blocks the slot. Two windows overlap when
// each starts before the other ends; back-to-back bookings do not conflict.
//
// The advisory lock serializes all writers for one service within their
// enclosing transactions, closing the race where two concurrent requests
// both count zero conflicts and both insert. It is a transaction-scoped
// lock, so callers must run this inside a transaction for it to matter.
func (s *PostgresBookingStore) CountOverlapping(
	ctx context.Context,
	serviceID uuid.UUID,
	start, end time.Time,
	excludeID uuid.UUID,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text))`, serviceID); err != nil {
		log.Error("failed to take advisory lock for service",
			slog.String("error", err.Error()),
			slog.String("service_id", serviceID.String()))
		return 0, err
	}

	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE service_id = $1
		  AND status IN ($2, $3)
		  AND starts_at < $4
		  AND $5 < ends_at
		  AND id <> $6
	`

	var count int
	err := s.db.QueryRowContext(
		ctx,
		query,
		serviceID,
		domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
		end,
		start,
		excludeID,
	).Scan(&count)
	if err != nil {
		log.Error("failed to count overlapping bookings",
			slog.String("error", err.Error()),
			slog.String("service_id", serviceID.String()))
		return 0, err
	}

	log.Debug("counted overlapping bookings",
		slog.String("service_id", serviceID.String()),
		slog.Int("count", count))
	return count, nil
}

// WithTx implements store.BookingStore.WithTx
// It returns a new store instance that runs against the provided transaction.
func (s *PostgresBookingStore) WithTx(tx *sql.Tx) store.BookingStore {
	return &PostgresBookingStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanBooking reads one booking row.
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var status string

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ServiceID,
		&booking.StartsAt,
		&booking.EndsAt,
		&status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatus(status)
	return &booking, nil
}
