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

// ReviewResponse represents the response data for a review
type ReviewResponse struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	ServiceID string    `json:"service_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceStatsResponse represents the aggregated rating statistics of a service
type ServiceStatsResponse struct {
	ServiceID string  `json:"service_id"`
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
	Min       int     `json:"min"`
	Max       int     `json:"max"`
}

// CreateReviewRequest represents the request body for reviewing a booking
type CreateReviewRequest struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
	Rating    int       `json:"rating"     validate:"required,min=1,max=5"`
	Comment   string    `json:"comment"    validate:"max=1000"`
}

// UpdateReviewRequest represents the request body for updating a review.
// All fields are optional; omitted fields are left unchanged.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"  validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

// ReviewHandler handles review-related HTTP requests. It also holds the
// catalog service so public review listings can respect catalog visibility.
type ReviewHandler struct {
	reviewService  service.ReviewService
	catalogService service.CatalogService
	logger         *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(
	reviewService service.ReviewService,
	catalogService service.CatalogService,
	logger *slog.Logger,
) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService:  reviewService,
		catalogService: catalogService,
		logger:         logger.With(slog.String("component", "review_handler")),
	}
}

// CreateReview handles POST /reviews requests.
// The actor reviews their own completed booking, named in the request body.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateReviewRequest
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

	review, err := h.reviewService.CreateReview(r.Context(), actor, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create review")
		return
	}

	log.Debug("review created",
		slog.String("review_id", review.ID.String()),
		slog.String("booking_id", req.BookingID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, reviewToResponse(review))
}

// GetReview handles GET /reviews/{id} requests.
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, reviewID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(r.Context(), reviewID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(review))
}

// GetBookingReview handles GET /bookings/{id}/review requests.
// Visible to the booking's owner and admins.
func (h *ReviewHandler) GetBookingReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, bookingID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	review, err := h.reviewService.GetBookingReview(r.Context(), actor, bookingID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(review))
}

// UpdateReview handles PATCH /reviews/{id} requests.
// Only the review's author or an admin may update it.
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, reviewID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("review_id", reviewID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("review_id", reviewID.String()))
		HandleValidationError(w, r, err)
		return
	}

	review, err := h.reviewService.UpdateReview(r.Context(), actor, reviewID, service.ReviewPatch{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update review")
		return
	}

	log.Debug("review updated", slog.String("review_id", review.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(review))
}

// DeleteReview handles DELETE /reviews/{id} requests.
// Only the review's author or an admin may delete it.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, reviewID, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(r.Context(), actor, reviewID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete review")
		return
	}

	log.Debug("review deleted", slog.String("review_id", reviewID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListServiceReviews handles GET /services/{id}/reviews requests. Public.
// The service must be visible in the catalog; reviews of inactive services
// read like the service does not exist.
func (h *ReviewHandler) ListServiceReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	serviceID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid service ID in URL path")
		HandleAPIError(w, r, err, "")
		return
	}

	// Resolve the service first so hidden catalog entries 404.
	if _, err := h.catalogService.GetService(r.Context(), serviceID); err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}

	filters, err := parseReviewFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}
	filters.ServiceID = &serviceID

	reviews, err := h.reviewService.ListReviews(r.Context(), filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, reviewToResponse(review))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListMyReviews handles GET /users/me/reviews requests.
// Lists the reviews written by the authenticated user, newest first.
func (h *ReviewHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filters, err := parseReviewFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}
	filters.UserID = &actor.ID

	reviews, err := h.reviewService.ListReviews(r.Context(), filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, reviewToResponse(review))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// ListAllReviews handles GET /admin/reviews requests. Admin only.
func (h *ReviewHandler) ListAllReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getActorFromContext(r)
	if !ok {
		log.Warn("no authenticated user in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filters, err := parseReviewFilters(r)
	if err != nil {
		log.Warn("invalid list filters", slog.String("error", redact.Error(err)))
		HandleAPIError(w, r, err, "Invalid list filters")
		return
	}

	reviews, err := h.reviewService.ListAllReviews(r.Context(), actor, filters)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, reviewToResponse(review))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetServiceStats handles GET /services/{id}/reviews/stats requests. Public.
func (h *ReviewHandler) GetServiceStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	serviceID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid service ID in URL path")
		HandleAPIError(w, r, err, "")
		return
	}

	stats, err := h.reviewService.GetServiceStats(r.Context(), serviceID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get service statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ServiceStatsResponse{
		ServiceID: serviceID.String(),
		Count:     stats.Count,
		Average:   stats.Average,
		Min:       stats.Min,
		Max:       stats.Max,
	})
}

// parseReviewFilters extracts the review list filters from the query string.
func parseReviewFilters(r *http.Request) (store.ReviewFilters, error) {
	var filters store.ReviewFilters
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

	if v := q.Get("min_rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 5 {
			return filters, domain.NewValidationError("min_rating", "must be between 1 and 5", domain.ErrValidation)
		}
		filters.MinRating = &n
	}

	if v := q.Get("max_rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 5 {
			return filters, domain.NewValidationError("max_rating", "must be between 1 and 5", domain.ErrValidation)
		}
		filters.MaxRating = &n
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

// reviewToResponse converts a domain.Review to a ReviewResponse
func reviewToResponse(review *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:        review.ID.String(),
		BookingID: review.BookingID.String(),
		UserID:    review.UserID.String(),
		ServiceID: review.ServiceID.String(),
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}
