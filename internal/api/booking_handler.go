package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/api/shared"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/redact"
	"github.com/esther-anierobi/bookIT/internal/service"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// BookingResponse represents the response data for a booking
type BookingResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ServiceID string    `json:"service_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateBookingRequest represents the request body for creating a booking
type CreateBookingRequest struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	StartsAt  time.Time `json:"starts_at"  validate:"required"`
	EndsAt    time.Time `json:"ends_at"    validate:"required"`
}

// UpdateBookingRequest represents the request body for updating a booking.
// All fields are optional; omitted fields are left unchanged.
type UpdateBookingRequest struct {
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Status   *string    `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled completed"`
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	bookingService service.BookingService
	logger         *slog.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	bookingService service.BookingService,
	logger *slog.Logger,
) *BookingHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for BookingHandler")
	}

	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger.With(slog.String("component", "booking_handler")),
	}
}

// CreateBooking handles POST /bookings requests.
// It books the requested service for the authenticated user over the given
// half-open time window.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateBookingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", actor.ID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", actor.ID.String()))
		HandleValidationError(w, r, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), actor.ID, req.ServiceID, req.StartsAt, req.EndsAt)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create booking")
		return
	}

	log.Debug("booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.String("user_id", actor.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, bookingToResponse(booking))
}

// GetBooking handles GET /bookings/{id} requests.
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, bookingID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), actor, bookingID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get booking")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, bookingToResponse(booking))
}

// UpdateBooking handles PATCH /bookings/{id} requests.
// It reschedules the booking and/or moves it through the status machine.
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, bookingID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("booking_id", bookingID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("booking_id", bookingID.String()))
		HandleValidationError(w, r, err)
		return
	}

	patch := service.BookingPatch{
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	}
	if req.Status != nil {
		status := domain.BookingStatus(*req.Status)
		patch.Status = &status
	}

	booking, err := h.bookingService.UpdateBooking(r.Context(), actor, bookingID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update booking")
		return
	}

	log.Debug("booking updated",
		slog.String("booking_id", booking.ID.String()),
		slog.String("status", string(booking.Status)))
	shared.RespondWithJSON(w, r, http.StatusOK, bookingToResponse(booking))
}

// DeleteBooking handles DELETE /bookings/{id} requests.
func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, bookingID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if _, err := h.bookingService.DeleteBooking(r.Context(), actor, bookingID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete booking")
		return
	}

	log.Debug("booking deleted", slog.String("booking_id", bookingID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListBookings handles GET /bookings requests.
// Non-admin callers only ever see their own bookings; the user_id filter is
// honored for admins.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filters, err := parseBookingFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}

	bookings, err := h.bookingService.ListBookings(r.Context(), actor, filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list bookings")
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		responses = append(responses, bookingToResponse(booking))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListAllBookings handles GET /admin/bookings requests. Admin only.
func (h *BookingHandler) ListAllBookings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filters, err := parseBookingFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}

	bookings, err := h.bookingService.ListAllBookings(r.Context(), actor, filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list bookings")
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		responses = append(responses, bookingToResponse(booking))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListServiceBookings handles GET /services/{id}/bookings requests.
// Admin only: lists every booking of one catalog service.
func (h *BookingHandler) ListServiceBookings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, serviceID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	filters, err := parseBookingFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}
	filters.ServiceID = &serviceID

	bookings, err := h.bookingService.ListAllBookings(r.Context(), actor, filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list bookings")
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		responses = append(responses, bookingToResponse(booking))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// parseBookingFilters extracts the list filters from the query string.
func parseBookingFilters(r *http.Request) (store.BookingFilters, error) {
	var filters store.BookingFilters
	q := r.URL.Query()

	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, domain.NewValidationError("user_id", "has invalid format", domain.ErrInvalidID)
		}
		filters.UserID = &id
	}

	if v := q.Get("service_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, domain.NewValidationError("service_id", "has invalid format", domain.ErrInvalidID)
		}
		filters.ServiceID = &id
	}

	if v := q.Get("status"); v != "" {
		status, err := domain.ParseBookingStatus(v)
		if err != nil {
			return filters, err
		}
		filters.Status = &status
	}

	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, domain.NewValidationError("from", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filters.From = &ts
	}

	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, domain.NewValidationError("to", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filters.To = &ts
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

// bookingToResponse converts a domain.Booking to a BookingResponse
func bookingToResponse(booking *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:        booking.ID.String(),
		UserID:    booking.UserID.String(),
		ServiceID: booking.ServiceID.String(),
		StartsAt:  booking.StartsAt,
		EndsAt:    booking.EndsAt,
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt,
		UpdatedAt: booking.UpdatedAt,
	}
}
