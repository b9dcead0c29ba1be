package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

// Possible booking status values
const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Common validation errors for Booking
var (
	ErrEmptyBookingID        = errors.New("booking ID cannot be empty")
	ErrEmptyBookingUserID    = errors.New("booking user ID cannot be empty")
	ErrEmptyBookingServiceID = errors.New("booking service ID cannot be empty")
	ErrZeroBookingTime       = errors.New("booking start and end times are required")
	ErrInvalidBookingStatus  = errors.New("invalid booking status")
)

// Booking represents a reservation of a service for a half-open time
// window [StartsAt, EndsAt). Two bookings for the same service conflict
// when their windows overlap and both hold a blocking status (pending or
// confirmed). Back-to-back windows sharing an endpoint do not conflict.
type Booking struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	ServiceID uuid.UUID     `json:"service_id"`
	StartsAt  time.Time     `json:"starts_at"`
	EndsAt    time.Time     `json:"ends_at"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewBooking creates a new Booking for the given user, service and time
// window. It generates a new UUID for the booking ID, sets the status to
// pending, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewBooking(userID, serviceID uuid.UUID, startsAt, endsAt time.Time) (*Booking, error) {
	now := time.Now().UTC()
	booking := &Booking{
		ID:        uuid.New(),
		UserID:    userID,
		ServiceID: serviceID,
		StartsAt:  startsAt.UTC(),
		EndsAt:    endsAt.UTC(),
		Status:    BookingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := booking.Validate(); err != nil {
		return nil, err
	}

	return booking, nil
}

// Validate checks if the Booking has valid data.
// Returns an error if any field fails validation.
func (b *Booking) Validate() error {
	if b.ID == uuid.Nil {
		return ErrEmptyBookingID
	}

	if b.UserID == uuid.Nil {
		return ErrEmptyBookingUserID
	}

	if b.ServiceID == uuid.Nil {
		return ErrEmptyBookingServiceID
	}

	if b.StartsAt.IsZero() || b.EndsAt.IsZero() {
		return ErrZeroBookingTime
	}

	if !b.EndsAt.After(b.StartsAt) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidInterval)
	}

	if !isValidBookingStatus(b.Status) {
		return ErrInvalidBookingStatus
	}

	return nil
}

// Overlaps reports whether the booking's window intersects the half-open
// window [start, end). Windows that merely touch at an endpoint do not
// overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartsAt.Before(end) && start.Before(b.EndsAt)
}

// Blocks reports whether the booking occupies its window for conflict
// purposes. Cancelled and completed bookings free their slot.
func (b *Booking) Blocks() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// CanTransitionTo reports whether the booking may move from its current
// status to the given one:
//
//	pending   -> confirmed, cancelled
//	confirmed -> cancelled, completed
//	cancelled, completed -> (terminal)
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	switch b.Status {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCancelled || next == BookingStatusCompleted
	default:
		return false
	}
}

// UpdateStatus updates the booking's status and the UpdatedAt timestamp.
// Returns an error if the new status is not a valid BookingStatus. It does
// not enforce the transition table; callers decide whether the transition
// is permitted for the acting user.
func (b *Booking) UpdateStatus(status BookingStatus) error {
	if !isValidBookingStatus(status) {
		return ErrInvalidBookingStatus
	}

	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// ParseBookingStatus converts a string into a BookingStatus.
// Returns an error if the string is not a recognized status.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !isValidBookingStatus(status) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBookingStatus, s)
	}
	return status, nil
}

// isValidBookingStatus checks if the given status is a valid BookingStatus.
func isValidBookingStatus(status BookingStatus) bool {
	switch status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	default:
		return false
	}
}
