package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxReviewCommentLength is the upper bound on review comment length.
const MaxReviewCommentLength = 1000

// Common validation errors for Review
var (
	ErrEmptyReviewID        = errors.New("review ID cannot be empty")
	ErrEmptyReviewBookingID = errors.New("review booking ID cannot be empty")
	ErrEmptyReviewUserID    = errors.New("review user ID cannot be empty")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong       = errors.New("comment exceeds maximum length")
)

// Review represents a user's rating of a completed booking. Each booking
// carries at most one review, and only the booking's owner may write it.
type Review struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewReview creates a new Review for the given booking. It generates a new
// UUID for the review ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewReview(bookingID, userID, serviceID uuid.UUID, rating int, comment string) (*Review, error) {
	now := time.Now().UTC()
	review := &Review{
		ID:        uuid.New(),
		BookingID: bookingID,
		UserID:    userID,
		ServiceID: serviceID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := review.Validate(); err != nil {
		return nil, err
	}

	return review, nil
}

// Validate checks if the Review has valid data.
// Returns an error if any field fails validation.
func (r *Review) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReviewID
	}

	if r.BookingID == uuid.Nil {
		return ErrEmptyReviewBookingID
	}

	if r.UserID == uuid.Nil {
		return ErrEmptyReviewUserID
	}

	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}

	if len(r.Comment) > MaxReviewCommentLength {
		return ErrCommentTooLong
	}

	return nil
}
