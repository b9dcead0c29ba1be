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

// PostgresServiceStore implements the store.ServiceStore interface
// using a PostgreSQL database as the storage backend.
type PostgresServiceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresServiceStore creates a new PostgreSQL implementation of the
// ServiceStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresServiceStore(db store.DBTX, logger *slog.Logger) *PostgresServiceStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresServiceStore{
		db:     db,
		logger: logger.With(slog.String("component", "service_store")),
	}
}

// Ensure PostgresServiceStore implements store.ServiceStore interface
var _ store.ServiceStore = (*PostgresServiceStore)(nil)

// Create implements store.ServiceStore.Create
// It saves a new catalog service to the database.
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *PostgresServiceStore) Create(ctx context.Context, service *domain.Service) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := service.Validate(); err != nil {
		log.Warn("service validation failed during create",
			slog.String("error", err.Error()),
			slog.String("service_id", service.ID.String()))
		return err
	}

	query := `
		INSERT INTO services (id, owner_id, title, description, price_cents, duration_minutes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		service.ID,
		service.OwnerID,
		service.Title,
		service.Description,
		service.PriceCents,
		service.DurationMinutes,
		service.IsActive,
		service.CreatedAt,
		service.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during service creation",
				slog.String("error", err.Error()),
				slog.String("service_id", service.ID.String()),
				slog.String("owner_id", service.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, service.OwnerID)
		}

		log.Error("failed to create service",
			slog.String("error", err.Error()),
			slog.String("service_id", service.ID.String()))
		return err
	}

	log.Info("service created successfully",
		slog.String("service_id", service.ID.String()),
		slog.String("owner_id", service.OwnerID.String()))
	return nil
}

// GetByID implements store.ServiceStore.GetByID
// It retrieves a service by ID, regardless of the is_active flag. Callers
// decide whether an inactive service should be visible.
// Returns store.ErrServiceNotFound if the service does not exist.
func (s *PostgresServiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, title, description, price_cents, duration_minutes, is_active, created_at, updated_at
		FROM services
		WHERE id = $1
	`

	service, err := scanService(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("service not found", slog.String("service_id", id.String()))
			return nil, store.ErrServiceNotFound
		}
		log.Error("failed to get service by ID",
			slog.String("error", err.Error()),
			slog.String("service_id", id.String()))
		return nil, err
	}

	return service, nil
}

// Update implements store.ServiceStore.Update
// It modifies an existing service.
// Returns store.ErrServiceNotFound if the service does not exist.
func (s *PostgresServiceStore) Update(ctx context.Context, service *domain.Service) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := service.Validate(); err != nil {
		log.Warn("service validation failed during update",
			slog.String("error", err.Error()),
			slog.String("service_id", service.ID.String()))
		return err
	}

	service.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE services
		SET title = $1, description = $2, price_cents = $3, duration_minutes = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		service.Title,
		service.Description,
		service.PriceCents,
		service.DurationMinutes,
		service.IsActive,
		service.UpdatedAt,
		service.ID,
	)

	if err != nil {
		log.Error("failed to update service",
			slog.String("error", err.Error()),
			slog.String("service_id", service.ID.String()))
		return err
	}

	if err := CheckRowsAffected(result, "service"); err != nil {
		log.Debug("service not found for update",
			slog.String("service_id", service.ID.String()))
		return store.ErrServiceNotFound
	}

	log.Info("service updated successfully",
		slog.String("service_id", service.ID.String()))
	return nil
}

// Deactivate implements store.ServiceStore.Deactivate
// It soft-deletes a service by clearing the is_active flag. Existing bookings
// against the service remain valid.
// Returns store.ErrServiceNotFound if the service does not exist.
func (s *PostgresServiceStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE services
		SET is_active = FALSE, updated_at = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to deactivate service",
			slog.String("error", err.Error()),
			slog.String("service_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, "service"); err != nil {
		log.Debug("service not found for deactivation",
			slog.String("service_id", id.String()))
		return store.ErrServiceNotFound
	}

	log.Info("service deactivated",
		slog.String("service_id", id.String()))
	return nil
}

// List implements store.ServiceStore.List
// It returns services matching the filters, newest first. Unless
// IncludeInactive is set, only active services are returned.
func (s *PostgresServiceStore) List(ctx context.Context, filters store.ServiceFilters) ([]*domain.Service, error) {
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

	if !filters.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filters.Query != "" {
		args = append(args, "%"+filters.Query+"%")
		n := len(args)
		conditions = append(conditions,
			fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if filters.MinPriceCents != nil {
		args = append(args, *filters.MinPriceCents)
		conditions = append(conditions, fmt.Sprintf("price_cents >= $%d", len(args)))
	}
	if filters.MaxPriceCents != nil {
		args = append(args, *filters.MaxPriceCents)
		conditions = append(conditions, fmt.Sprintf("price_cents <= $%d", len(args)))
	}

	query := `
		SELECT id, owner_id, title, description, price_cents, duration_minutes, is_active, created_at, updated_at
		FROM services
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
		log.Error("failed to list services",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var services []*domain.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			log.Error("failed to scan service row",
				slog.String("error", err.Error()))
			return nil, err
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no services found
	if services == nil {
		services = []*domain.Service{}
	}

	log.Debug("listed services", slog.Int("count", len(services)))
	return services, nil
}

// WithTx implements store.ServiceStore.WithTx
// It returns a new store instance that runs against the provided transaction.
func (s *PostgresServiceStore) WithTx(tx *sql.Tx) store.ServiceStore {
	return &PostgresServiceStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanService reads one service row.
func scanService(row rowScanner) (*domain.Service, error) {
	var service domain.Service

	err := row.Scan(
		&service.ID,
		&service.OwnerID,
		&service.Title,
		&service.Description,
		&service.PriceCents,
		&service.DurationMinutes,
		&service.IsActive,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &service, nil
}
