package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Service
var (
	ErrEmptyServiceID         = errors.New("service ID cannot be empty")
	ErrEmptyServiceOwnerID    = errors.New("service owner ID cannot be empty")
	ErrEmptyServiceTitle      = errors.New("service title cannot be empty")
	ErrNegativeServicePrice   = errors.New("service price cannot be negative")
	ErrInvalidServiceDuration = errors.New("service duration must be positive")
)

// Service represents a bookable offering in the catalog. Services are
// soft-deleted via the IsActive flag: an inactive service accepts no new
// bookings but existing bookings against it remain valid.
type Service struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewService creates a new active Service owned by the given admin user.
// It generates a new UUID for the service ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewService(ownerID uuid.UUID, title, description string, priceCents int64, durationMinutes int) (*Service, error) {
	now := time.Now().UTC()
	service := &Service{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Title:           title,
		Description:     description,
		PriceCents:      priceCents,
		DurationMinutes: durationMinutes,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := service.Validate(); err != nil {
		return nil, err
	}

	return service, nil
}

// Validate checks if the Service has valid data.
// Returns an error if any field fails validation.
func (s *Service) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptyServiceID
	}

	if s.OwnerID == uuid.Nil {
		return ErrEmptyServiceOwnerID
	}

	if s.Title == "" {
		return ErrEmptyServiceTitle
	}

	if s.PriceCents < 0 {
		return ErrNegativeServicePrice
	}

	if s.DurationMinutes <= 0 {
		return ErrInvalidServiceDuration
	}

	return nil
}
