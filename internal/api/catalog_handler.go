package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/esther-anierobi/bookIT/internal/api/shared"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/redact"
	"github.com/esther-anierobi/bookIT/internal/service"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// ServiceResponse represents the response data for a catalog service
type ServiceResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateServiceRequest represents the request body for creating a catalog service
type CreateServiceRequest struct {
	Title           string `json:"title"            validate:"required,max=255"`
	Description     string `json:"description"      validate:"max=4000"`
	PriceCents      int64  `json:"price_cents"      validate:"min=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
}

// UpdateServiceRequest represents the request body for updating a catalog
// service. All fields are optional; omitted fields are left unchanged.
type UpdateServiceRequest struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	PriceCents      *int64  `json:"price_cents,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

// CatalogHandler handles catalog-related HTTP requests
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(
	catalogService service.CatalogService,
	logger *slog.Logger,
) *CatalogHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CatalogHandler")
	}

	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger.With(slog.String("component", "catalog_handler")),
	}
}

// CreateService handles POST /services requests. Admin only.
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateServiceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		HandleValidationError(w, r, err)
		return
	}

	svc, err := h.catalogService.CreateService(
		r.Context(),
		actor,
		req.Title,
		req.Description,
		req.PriceCents,
		req.DurationMinutes,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create service")
		return
	}

	log.Debug("service created",
		slog.String("service_id", svc.ID.String()),
		slog.String("owner_id", actor.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, serviceToResponse(svc))
}

// GetService handles GET /services/{id} requests. Public; inactive services
// read like they do not exist.
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	serviceID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid service ID in URL path")
		HandleAPIError(w, r, err, "")
		return
	}

	svc, err := h.catalogService.GetService(r.Context(), serviceID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get service")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, serviceToResponse(svc))
}

// UpdateService handles PATCH /services/{id} requests. Admin only.
func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, serviceID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("service_id", serviceID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	patch := service.ServicePatch{
		Title:           req.Title,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		DurationMinutes: req.DurationMinutes,
		IsActive:        req.IsActive,
	}

	svc, err := h.catalogService.UpdateService(r.Context(), actor, serviceID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update service")
		return
	}

	log.Debug("service updated", slog.String("service_id", svc.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, serviceToResponse(svc))
}

// DeactivateService handles DELETE /services/{id} requests. Admin only.
// The service is soft-deleted: existing bookings stay on record.
func (h *CatalogHandler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, serviceID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.catalogService.DeactivateService(r.Context(), actor, serviceID); err != nil {
		HandleAPIError(w, r, err, "Failed to deactivate service")
		return
	}

	log.Debug("service deactivated", slog.String("service_id", serviceID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListServices handles GET /services requests. Public. Anonymous callers and
// non-admins only see active services; admins may ask for inactive ones with
// include_inactive=true.
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	// Actor is optional here. Anonymous listings pass a nil actor and the
	// service trims the filters accordingly.
	actor, _ := getActorFromContext(r)

	filters, err := parseServiceFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}

	services, err := h.catalogService.ListServices(r.Context(), actor, filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list services")
		return
	}

	responses := make([]ServiceResponse, 0, len(services))
	for _, svc := range services {
		responses = append(responses, serviceToResponse(svc))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListAllServices handles GET /admin/services requests. Admin only.
// Lists every catalog entry including deactivated ones.
func (h *CatalogHandler) ListAllServices(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filters, err := parseServiceFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}

	services, err := h.catalogService.ListAllServices(r.Context(), actor, filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list services")
		return
	}

	responses := make([]ServiceResponse, 0, len(services))
	for _, svc := range services {
		responses = append(responses, serviceToResponse(svc))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// parseServiceFilters extracts the catalog list filters from the query string.
func parseServiceFilters(r *http.Request) (store.ServiceFilters, error) {
	var filters store.ServiceFilters
	q := r.URL.Query()

	filters.Query = q.Get("q")

	if v := q.Get("min_price_cents"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filters, domain.NewValidationError("min_price_cents", "must be a non-negative integer", domain.ErrValidation)
		}
		filters.MinPriceCents = &n
	}

	if v := q.Get("max_price_cents"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filters, domain.NewValidationError("max_price_cents", "must be a non-negative integer", domain.ErrValidation)
		}
		filters.MaxPriceCents = &n
	}

	if v := q.Get("include_inactive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filters, domain.NewValidationError("include_inactive", "must be a boolean", domain.ErrValidation)
		}
		filters.IncludeInactive = b
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filters, domain.NewValidationError("limit", "must be a non-negative integer", domain.ErrValidation)
		}
		filters.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filters, domain.NewValidationError("offset", "must be a non-negative integer", domain.ErrValidation)
		}
		filters.Offset = n
	}

	return filters, nil
}

// serviceToResponse converts a domain.Service to a ServiceResponse
func serviceToResponse(svc *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:              svc.ID.String(),
		OwnerID:         svc.OwnerID.String(),
		Title:           svc.Title,
		Description:     svc.Description,
		PriceCents:      svc.PriceCents,
		DurationMinutes: svc.DurationMinutes,
		IsActive:        svc.IsActive,
		CreatedAt:       svc.CreatedAt,
		UpdatedAt:       svc.UpdatedAt,
	}
}
