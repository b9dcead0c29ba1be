package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/authz"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// ServicePatch carries the fields of a catalog update request. Nil fields
// are left unchanged.
type ServicePatch struct {
	Title           *string
	Description     *string
	PriceCents      *int64
	DurationMinutes *int
	IsActive        *bool
}

// CatalogService manages the catalog of bookable services. Catalog writes
// are admin-only; reads are public and see active services unless the
// caller is an admin asking for more.
type CatalogService interface {
	// CreateService adds a new active service to the catalog, owned by the
	// acting admin. Returns domain.ErrForbidden for non-admin actors.
	CreateService(ctx context.Context, actor *domain.User, title, description string, priceCents int64, durationMinutes int) (*domain.Service, error)

	// GetService retrieves an active service by ID. Inactive services are
	// reported as store.ErrServiceNotFound.
	GetService(ctx context.Context, serviceID uuid.UUID) (*domain.Service, error)

	// UpdateService modifies a service's catalog entry.
	// Returns domain.ErrForbidden for non-admin actors and
	// store.ErrServiceNotFound for unknown services.
	UpdateService(ctx context.Context, actor *domain.User, serviceID uuid.UUID, patch ServicePatch) (*domain.Service, error)

	// DeactivateService soft-deletes a service. Existing bookings remain on
	// record; new bookings are rejected.
	// Returns domain.ErrForbidden for non-admin actors.
	DeactivateService(ctx context.Context, actor *domain.User, serviceID uuid.UUID) error

	// ListServices returns catalog entries matching the filters, newest
	// first. Inactive services are only included for admin actors that ask
	// for them; actor may be nil for public listings.
	ListServices(ctx context.Context, actor *domain.User, filters store.ServiceFilters) ([]*domain.Service, error)

	// ListAllServices returns catalog entries matching the filters including
	// inactive ones. Returns domain.ErrForbidden for non-admin actors.
	ListAllServices(ctx context.Context, actor *domain.User, filters store.ServiceFilters) ([]*domain.Service, error)
}

// catalogService implements the CatalogService interface.
type catalogService struct {
	serviceStore store.ServiceStore
	db           *sql.DB
	logger       *slog.Logger
}

// NewCatalogService creates a new CatalogService.
// It returns an error if any of the required dependencies are nil.
func NewCatalogService(
	serviceStore store.ServiceStore,
	db *sql.DB,
	logger *slog.Logger,
) (CatalogService, error) {
	if serviceStore == nil {
		return nil, domain.NewValidationError("serviceStore", "cannot be nil", domain.ErrValidation)
	}
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &catalogService{
		serviceStore: serviceStore,
		db:           db,
		logger:       logger.With(slog.String("component", "catalog_service")),
	}, nil
}

// CreateService implements CatalogService.CreateService.
func (s *catalogService) CreateService(
	ctx context.Context,
	actor *domain.User,
	title, description string,
	priceCents int64,
	durationMinutes int,
) (*domain.Service, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionManageServices) {
		log.Debug("service creation denied", "actor_id", actor.ID)
		return nil, fmt.Errorf("cannot manage services: %w", domain.ErrForbidden)
	}

	service, err := domain.NewService(actor.ID, title, description, priceCents, durationMinutes)
	if err != nil {
		log.Debug("invalid service data",
			"error", err,
			"title", title)
		return nil, fmt.Errorf("invalid service: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.serviceStore.WithTx(tx).Create(ctx, service)
	})
	if err != nil {
		log.Error("failed to create service",
			"error", err,
			"title", title)
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	log.Info("service created",
		"service_id", service.ID,
		"owner_id", actor.ID,
		"title", service.Title)

	return service, nil
}

// GetService implements CatalogService.GetService.
func (s *catalogService) GetService(ctx context.Context, serviceID uuid.UUID) (*domain.Service, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	service, err := s.serviceStore.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, store.ErrServiceNotFound) {
			log.Debug("service not found", "service_id", serviceID)
		} else {
			log.Error("failed to retrieve service",
				"error", err,
				"service_id", serviceID)
		}
		return nil, fmt.Errorf("failed to retrieve service: %w", err)
	}

	// Deactivated services disappear from the public catalog.
	if !service.IsActive {
		log.Debug("service is inactive", "service_id", serviceID)
		return nil, fmt.Errorf("service is inactive: %w", store.ErrServiceNotFound)
	}

	return service, nil
}

// UpdateService implements CatalogService.UpdateService.
func (s *catalogService) UpdateService(
	ctx context.Context,
	actor *domain.User,
	serviceID uuid.UUID,
	patch ServicePatch,
) (*domain.Service, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionManageServices) {
		log.Debug("service update denied",
			"actor_id", actor.ID,
			"service_id", serviceID)
		return nil, fmt.Errorf("cannot manage services: %w", domain.ErrForbidden)
	}

	var updated *domain.Service

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txServices := s.serviceStore.WithTx(tx)

		service, err := txServices.GetByID(ctx, serviceID)
		if err != nil {
			if errors.Is(err, store.ErrServiceNotFound) {
				log.Debug("service not found for update", "service_id", serviceID)
			} else {
				log.Error("failed to retrieve service for update",
					"error", err,
					"service_id", serviceID)
			}
			return fmt.Errorf("failed to retrieve service: %w", err)
		}

		if patch.Title != nil {
			service.Title = *patch.Title
		}
		if patch.Description != nil {
			service.Description = *patch.Description
		}
		if patch.PriceCents != nil {
			service.PriceCents = *patch.PriceCents
		}
		if patch.DurationMinutes != nil {
			service.DurationMinutes = *patch.DurationMinutes
		}
		if patch.IsActive != nil {
			service.IsActive = *patch.IsActive
		}

		if err := service.Validate(); err != nil {
			log.Debug("invalid service update",
				"error", err,
				"service_id", serviceID)
			return fmt.Errorf("invalid service: %w", err)
		}

		if err := txServices.Update(ctx, service); err != nil {
			log.Error("failed to update service",
				"error", err,
				"service_id", serviceID)
			return fmt.Errorf("failed to update service: %w", err)
		}

		updated = service
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	log.Info("service updated",
		"service_id", updated.ID,
		"title", updated.Title,
		"is_active", updated.IsActive)

	return updated, nil
}

// DeactivateService implements CatalogService.DeactivateService.
func (s *catalogService) DeactivateService(
	ctx context.Context,
	actor *domain.User,
	serviceID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionManageServices) {
		log.Debug("service deactivation denied",
			"actor_id", actor.ID,
			"service_id", serviceID)
		return fmt.Errorf("cannot manage services: %w", domain.ErrForbidden)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.serviceStore.WithTx(tx).Deactivate(ctx, serviceID)
	})
	if err != nil {
		if errors.Is(err, store.ErrServiceNotFound) {
			log.Debug("service not found for deactivation", "service_id", serviceID)
		} else {
			log.Error("failed to deactivate service",
				"error", err,
				"service_id", serviceID)
		}
		return fmt.Errorf("failed to deactivate service: %w", err)
	}

	log.Info("service deactivated", "service_id", serviceID)

	return nil
}

// ListServices implements CatalogService.ListServices.
func (s *catalogService) ListServices(
	ctx context.Context,
	actor *domain.User,
	filters store.ServiceFilters,
) ([]*domain.Service, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Public and non-admin listings never see inactive services.
	if actor == nil || !actor.IsAdmin() {
		filters.IncludeInactive = false
	}

	services, err := s.serviceStore.List(ctx, filters)
	if err != nil {
		log.Error("failed to list services", "error", err)
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	return services, nil
}

// ListAllServices implements CatalogService.ListAllServices.
func (s *catalogService) ListAllServices(
	ctx context.Context,
	actor *domain.User,
	filters store.ServiceFilters,
) ([]*domain.Service, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if actor == nil || !actor.IsAdmin() {
		log.Debug("unscoped service listing denied")
		return nil, fmt.Errorf("cannot list all services: %w", domain.ErrForbidden)
	}

	filters.IncludeInactive = true

	services, err := s.serviceStore.List(ctx, filters)
	if err != nil {
		log.Error("failed to list services", "error", err)
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	return services, nil
}
