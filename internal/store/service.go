package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

// ServiceFilters narrows a service catalog listing. Zero values mean
// "no filter". Query matches title or description case-insensitively.
type ServiceFilters struct {
	Query           string
	MinPriceCents   *int64
	MaxPriceCents   *int64
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ServiceStore defines the interface for service catalog persistence.
type ServiceStore interface {
	// Create saves a new service to the store.
	// Returns validation errors from the domain Service if data is invalid.
	Create(ctx context.Context, service *domain.Service) error

	// GetByID retrieves a service by ID, regardless of the is_active flag.
	// Callers decide whether an inactive service should be visible.
	// Returns ErrServiceNotFound if the service does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)

	// Update modifies an existing service.
	// Returns ErrServiceNotFound if the service does not exist.
	Update(ctx context.Context, service *domain.Service) error

	// Deactivate soft-deletes a service by clearing the is_active flag.
	// Existing bookings against the service remain valid.
	// Returns ErrServiceNotFound if the service does not exist.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// List returns services matching the filters, newest first. Unless
	// IncludeInactive is set, only active services are returned.
	List(ctx context.Context, filters ServiceFilters) ([]*domain.Service, error)

	// WithTx returns a new ServiceStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ServiceStore
}
