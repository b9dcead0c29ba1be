package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

// ReviewFilters narrows a review listing. Nil fields mean "no filter".
type ReviewFilters struct {
	ServiceID *uuid.UUID
	UserID    *uuid.UUID
	MinRating *int
	MaxRating *int
	Limit     int
	Offset    int
}

// ReviewStats aggregates the ratings of a service's reviews.
type ReviewStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
}

// ReviewStore defines the interface for review persistence.
type ReviewStore interface {
	// Create saves a new review.
	// Returns ErrReviewExists if the booking already carries a review.
	// Returns validation errors from the domain Review if data is invalid.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique ID.
	// Returns ErrReviewNotFound if the review does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)

	// GetByBookingID retrieves the review attached to a booking.
	// Returns ErrReviewNotFound if the booking has no review.
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error)

	// Update modifies an existing review's rating and comment.
	// Returns ErrReviewNotFound if the review does not exist.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review permanently.
	// Returns ErrReviewNotFound if the review does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns reviews matching the filters, newest first.
	List(ctx context.Context, filters ReviewFilters) ([]*domain.Review, error)

	// GetServiceStats aggregates rating statistics over a service's
	// reviews. A service with no reviews yields a zero-valued ReviewStats.
	GetServiceStats(ctx context.Context, serviceID uuid.UUID) (*ReviewStats, error)

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewStore
}
