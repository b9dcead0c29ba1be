package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

// BookingFilters narrows a booking listing. Nil fields mean "no filter".
// From and To bound the booking start time.
type BookingFilters struct {
	UserID    *uuid.UUID
	ServiceID *uuid.UUID
	Status    *domain.BookingStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// BookingStore defines the interface for booking persistence.
type BookingStore interface {
	// Create saves a new booking to the store.
	// Returns validation errors from the domain Booking if data is invalid.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by its unique ID.
	// Returns ErrBookingNotFound if the booking does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)

	// Update modifies an existing booking (window and status).
	// Returns ErrBookingNotFound if the booking does not exist.
	Update(ctx context.Context, booking *domain.Booking) error

	// Delete removes a booking permanently.
	// Returns ErrBookingNotFound if the booking does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns bookings matching the filters, ordered by start time
	// descending.
	List(ctx context.Context, filters BookingFilters) ([]*domain.Booking, error)

	// CountOverlapping counts bookings for the service whose half-open
	// window intersects [start, end) and whose status blocks the slot
	// (pending or confirmed). excludeID, when not uuid.Nil, leaves one
	// booking out of the count so a booking can be rescheduled over itself.
	//
	// Callers that need check-then-insert atomicity must run this and the
	// subsequent write inside one transaction; the Postgres implementation
	// serializes same-service writers with a transaction-scoped advisory
	// lock taken here.
	CountOverlapping(ctx context.Context, serviceID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (int, error)

	// WithTx returns a new BookingStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) BookingStore
}
