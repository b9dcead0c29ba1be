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

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the
// ReviewStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// Create implements store.ReviewStore.Create
// It saves a new review to the database.
// Returns store.ErrReviewExists if the booking already carries a review.
// Returns store.ErrInvalidEntity if the booking, user or service does not exist.
func (s *PostgresReviewStore) Create(ctx context.Context, review *domain.Review) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := review.Validate(); err != nil {
		log.Warn("review validation failed during create",
			slog.String("error", err.Error()),
			slog.String("review_id", review.ID.String()))
		return err
	}

	query := `
		INSERT INTO reviews (id, booking_id, user_id, service_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.BookingID,
		review.UserID,
		review.ServiceID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("booking already has a review",
				slog.String("booking_id", review.BookingID.String()))
			return store.ErrReviewExists
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during review creation",
				slog.String("error", err.Error()),
				slog.String("review_id", review.ID.String()),
				slog.String("booking_id", review.BookingID.String()))
			return fmt.Errorf("%w: referenced booking, user or service not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create review",
			slog.String("error", err.Error()),
			slog.String("review_id", review.ID.String()))
		return err
	}

	log.Info("review created successfully",
		slog.String("review_id", review.ID.String()),
		slog.String("service_id", review.ServiceID.String()),
		slog.Int("rating", review.Rating))
	return nil
}

// GetByID implements store.ReviewStore.GetByID
// It retrieves a review by its unique ID.
// Returns store.ErrReviewNotFound if the review does not exist.
func (s *PostgresReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, booking_id, user_id, service_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	review, err := scanReview(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review not found", slog.String("review_id", id.String()))
			return nil, store.ErrReviewNotFound
		}
		log.Error("failed to get review by ID",
			slog.String("error", err.Error()),
			slog.String("review_id", id.String()))
		return nil, err
	}

	return review, nil
}

// GetByBookingID implements store.ReviewStore.GetByBookingID
// It retrieves the review attached to a booking.
// Returns store.ErrReviewNotFound if the booking has no review.
func (s *PostgresReviewStore) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, booking_id, user_id, service_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE booking_id = $1
	`

	review, err := scanReview(s.db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no review for booking",
				slog.String("booking_id", bookingID.String()))
			return nil, store.ErrReviewNotFound
		}
		log.Error("failed to get review by booking ID",
			slog.String("error", err.Error()),
			slog.String("booking_id", bookingID.String()))
		return nil, err
	}

	return review, nil
}

// Update implements store.ReviewStore.Update
// It modifies an existing review's rating and comment.
// Returns store.ErrReviewNotFound if the review does not exist.
func (s *PostgresReviewStore) Update(ctx context.Context, review *domain.Review) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := review.Validate(); err != nil {
		log.Warn("review validation failed during update",
			slog.String("error", err.Error()),
			slog.String("review_id", review.ID.String()))
		return err
	}

	review.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		review.Rating,
		review.Comment,
		review.UpdatedAt,
		review.ID,
	)

	if err != nil {
		log.Error("failed to update review",
			slog.String("error", err.Error()),
			slog.String("review_id", review.ID.String()))
		return err
	}

	if err := CheckRowsAffected(result, "review"); err != nil {
		log.Debug("review not found for update",
			slog.String("review_id", review.ID.String()))
		return store.ErrReviewNotFound
	}

	log.Info("review updated successfully",
		slog.String("review_id", review.ID.String()),
		slog.Int("rating", review.Rating))
	return nil
}

// Delete implements store.ReviewStore.Delete
// It removes a review permanently.
// Returns store.ErrReviewNotFound if the review does not exist.
func (s *PostgresReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM reviews WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete review",
			slog.String("error", err.Error()),
			slog.String("review_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, "review"); err != nil {
		log.Debug("review not found for delete",
			slog.String("review_id", id.String()))
		return store.ErrReviewNotFound
	}

	log.Info("review deleted",
		slog.String("review_id", id.String()))
	return nil
}

// List implements store.ReviewStore.List
// It returns reviews matching the filters, newest first.
func (s *PostgresReviewStore) List(ctx context.Context, filters store.ReviewFilters) ([]*domain.Review, error) {
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

	if filters.ServiceID != nil {
		args = append(args, *filters.ServiceID)
		conditions = append(conditions, fmt.Sprintf("service_id = $%d", len(args)))
	}
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filters.MinRating != nil {
		args = append(args, *filters.MinRating)
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", len(args)))
	}
	if filters.MaxRating != nil {
		args = append(args, *filters.MaxRating)
		conditions = append(conditions, fmt.Sprintf("rating <= $%d", len(args)))
	}

	query := `
		SELECT id, booking_id, user_id, service_id, rating, comment, created_at, updated_at
		FROM reviews
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list reviews",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var reviews []*domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			log.Error("failed to scan review row",
				slog.String("error", err.Error()))
			return nil, err
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no reviews found
	if reviews == nil {
		reviews = []*domain.Review{}
	}

	log.Debug("listed reviews", slog.Int("count", len(reviews)))
	return reviews, nil
}

// GetServiceStats implements store.ReviewStore.GetServiceStats
// It aggregates rating statistics over a service's reviews. A service with
// no reviews yields a zero-valued ReviewStats rather than an error.
func (s *PostgresReviewStore) GetServiceStats(ctx context.Context, serviceID uuid.UUID) (*store.ReviewStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// COALESCE keeps the aggregates scannable when the service has no
	// reviews; COUNT alone would return a row with NULL avg/min/max.
	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(rating), 0),
		       COALESCE(MIN(rating), 0),
		       COALESCE(MAX(rating), 0)
		FROM reviews
		WHERE service_id = $1
	`

	var stats store.ReviewStats
	err := s.db.QueryRowContext(ctx, query, serviceID).Scan(
		&stats.Count,
		&stats.Average,
		&stats.Min,
		&stats.Max,
	)
	if err != nil {
		log.Error("failed to get review stats",
			slog.String("error", err.Error()),
			slog.String("service_id", serviceID.String()))
		return nil, err
	}

	log.Debug("fetched review stats",
		slog.String("service_id", serviceID.String()),
		slog.Int("count", stats.Count))
	return &stats, nil
}

// WithTx implements store.ReviewStore.WithTx
// It returns a new store instance that runs against the provided transaction.
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanReview reads one review row.
func scanReview(row rowScanner) (*domain.Review, error) {
	var review domain.Review

	err := row.Scan(
		&review.ID,
		&review.BookingID,
		&review.UserID,
		&review.ServiceID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &review, nil
}
