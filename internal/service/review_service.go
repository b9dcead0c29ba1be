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

// ReviewPatch carries the fields of a review update request. Nil fields are
// left unchanged.
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

// ReviewService manages reviews of completed bookings. A booking carries at
// most one review, written by the booking's owner after completion.
type ReviewService interface {
	// CreateReview attaches a review to the actor's completed booking.
	// Returns store.ErrBookingNotFound for unknown bookings,
	// domain.ErrForbidden when the actor does not own the booking,
	// ErrBookingNotCompleted when the booking has not completed, and
	// store.ErrReviewExists when the booking already carries a review.
	CreateReview(ctx context.Context, actor *domain.User, bookingID uuid.UUID, rating int, comment string) (*domain.Review, error)

	// GetReview retrieves a review by ID.
	// Returns store.ErrReviewNotFound if the review does not exist.
	GetReview(ctx context.Context, reviewID uuid.UUID) (*domain.Review, error)

	// GetBookingReview retrieves the review attached to a booking visible to
	// the actor: the booking's owner or an admin.
	// Returns store.ErrBookingNotFound, domain.ErrForbidden or
	// store.ErrReviewNotFound.
	GetBookingReview(ctx context.Context, actor *domain.User, bookingID uuid.UUID) (*domain.Review, error)

	// UpdateReview modifies a review's rating and comment. Only the review's
	// author or an admin may update it.
	// Returns store.ErrReviewNotFound or domain.ErrForbidden.
	UpdateReview(ctx context.Context, actor *domain.User, reviewID uuid.UUID, patch ReviewPatch) (*domain.Review, error)

	// DeleteReview removes a review permanently. Only the review's author or
	// an admin may delete it.
	// Returns store.ErrReviewNotFound or domain.ErrForbidden.
	DeleteReview(ctx context.Context, actor *domain.User, reviewID uuid.UUID) error

	// ListReviews returns reviews matching the filters, newest first.
	ListReviews(ctx context.Context, filters store.ReviewFilters) ([]*domain.Review, error)

	// ListAllReviews returns reviews across all users and services matching
	// the filters, newest first. Returns domain.ErrForbidden for non-admin
	// actors.
	ListAllReviews(ctx context.Context, actor *domain.User, filters store.ReviewFilters) ([]*domain.Review, error)

	// GetServiceStats aggregates rating statistics for an active service.
	// Returns store.ErrServiceNotFound for unknown or inactive services.
	GetServiceStats(ctx context.Context, serviceID uuid.UUID) (*store.ReviewStats, error)
}

// reviewService implements the ReviewService interface.
type reviewService struct {
	reviewStore  store.ReviewStore
	bookingStore store.BookingStore
	serviceStore store.ServiceStore
	db           *sql.DB
	logger       *slog.Logger
}

// NewReviewService creates a new ReviewService.
// It returns an error if any of the required dependencies are nil.
func NewReviewService(
	reviewStore store.ReviewStore,
	bookingStore store.BookingStore,
	serviceStore store.ServiceStore,
	db *sql.DB,
	logger *slog.Logger,
) (ReviewService, error) {
	if reviewStore == nil {
		return nil, domain.NewValidationError("reviewStore", "cannot be nil", domain.ErrValidation)
	}
	if bookingStore == nil {
		return nil, domain.NewValidationError("bookingStore", "cannot be nil", domain.ErrValidation)
	}
	if serviceStore == nil {
		return nil, domain.NewValidationError("serviceStore", "cannot be nil", domain.ErrValidation)
	}
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &reviewService{
		reviewStore:  reviewStore,
		bookingStore: bookingStore,
		serviceStore: serviceStore,
		db:           db,
		logger:       logger.With(slog.String("component", "review_service")),
	}, nil
}

// CreateReview implements ReviewService.CreateReview.
func (s *reviewService) CreateReview(
	ctx context.Context,
	actor *domain.User,
	bookingID uuid.UUID,
	rating int,
	comment string,
) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var review *domain.Review

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		booking, err := s.bookingStore.WithTx(tx).GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, store.ErrBookingNotFound) {
				log.Debug("booking not found for review", "booking_id", bookingID)
			} else {
				log.Error("failed to retrieve booking for review",
					"error", err,
					"booking_id", bookingID)
			}
			return fmt.Errorf("failed to retrieve booking: %w", err)
		}

		// Reviews record the customer's own experience. Not even admins
		// write them on someone else's behalf.
		if booking.UserID != actor.ID {
			log.Debug("review denied: actor does not own booking",
				"booking_id", bookingID,
				"actor_id", actor.ID)
			return fmt.Errorf("cannot review booking: %w", domain.ErrForbidden)
		}

		if booking.Status != domain.BookingStatusCompleted {
			log.Debug("review rejected: booking not completed",
				"booking_id", bookingID,
				"status", booking.Status)
			return fmt.Errorf("booking is %s: %w", booking.Status, ErrBookingNotCompleted)
		}

		review, err = domain.NewReview(bookingID, actor.ID, booking.ServiceID, rating, comment)
		if err != nil {
			log.Debug("invalid review data",
				"error", err,
				"booking_id", bookingID)
			return fmt.Errorf("invalid review: %w", err)
		}

		if err := s.reviewStore.WithTx(tx).Create(ctx, review); err != nil {
			if errors.Is(err, store.ErrReviewExists) {
				log.Debug("booking already reviewed", "booking_id", bookingID)
			} else {
				log.Error("failed to create review",
					"error", err,
					"booking_id", bookingID)
			}
			return fmt.Errorf("failed to create review: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	log.Info("review created",
		"review_id", review.ID,
		"booking_id", bookingID,
		"service_id", review.ServiceID,
		"rating", review.Rating)

	return review, nil
}

// GetReview implements ReviewService.GetReview.
func (s *reviewService) GetReview(ctx context.Context, reviewID uuid.UUID) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	review, err := s.reviewStore.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			log.Debug("review not found", "review_id", reviewID)
		} else {
			log.Error("failed to retrieve review",
				"error", err,
				"review_id", reviewID)
		}
		return nil, fmt.Errorf("failed to retrieve review: %w", err)
	}

	return review, nil
}

// GetBookingReview implements ReviewService.GetBookingReview.
func (s *reviewService) GetBookingReview(
	ctx context.Context,
	actor *domain.User,
	bookingID uuid.UUID,
) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	booking, err := s.bookingStore.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			log.Debug("booking not found for review lookup", "booking_id", bookingID)
		} else {
			log.Error("failed to retrieve booking for review lookup",
				"error", err,
				"booking_id", bookingID)
		}
		return nil, fmt.Errorf("failed to retrieve booking: %w", err)
	}

	if !authz.Allow(actor.Role, actor.ID, booking.UserID, authz.ActionReadBooking) {
		log.Debug("booking review read denied",
			"booking_id", bookingID,
			"actor_id", actor.ID)
		return nil, fmt.Errorf("cannot read booking review: %w", domain.ErrForbidden)
	}

	review, err := s.reviewStore.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			log.Debug("booking has no review", "booking_id", bookingID)
		} else {
			log.Error("failed to retrieve booking review",
				"error", err,
				"booking_id", bookingID)
		}
		return nil, fmt.Errorf("failed to retrieve booking review: %w", err)
	}

	return review, nil
}

// UpdateReview implements ReviewService.UpdateReview.
func (s *reviewService) UpdateReview(
	ctx context.Context,
	actor *domain.User,
	reviewID uuid.UUID,
	patch ReviewPatch,
) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Review

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txReviews := s.reviewStore.WithTx(tx)

		review, err := txReviews.GetByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, store.ErrReviewNotFound) {
				log.Debug("review not found for update", "review_id", reviewID)
			} else {
				log.Error("failed to retrieve review for update",
					"error", err,
					"review_id", reviewID)
			}
			return fmt.Errorf("failed to retrieve review: %w", err)
		}

		if !authz.Allow(actor.Role, actor.ID, review.UserID, authz.ActionUpdateReview) {
			log.Debug("review update denied",
				"review_id", reviewID,
				"actor_id", actor.ID)
			return fmt.Errorf("cannot update review: %w", domain.ErrForbidden)
		}

		if patch.Rating != nil {
			review.Rating = *patch.Rating
		}
		if patch.Comment != nil {
			review.Comment = *patch.Comment
		}

		if err := review.Validate(); err != nil {
			log.Debug("invalid review update",
				"error", err,
				"review_id", reviewID)
			return fmt.Errorf("invalid review: %w", err)
		}

		if err := txReviews.Update(ctx, review); err != nil {
			log.Error("failed to update review",
				"error", err,
				"review_id", reviewID)
			return fmt.Errorf("failed to update review: %w", err)
		}

		updated = review
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	log.Info("review updated",
		"review_id", updated.ID,
		"rating", updated.Rating)

	return updated, nil
}

// DeleteReview implements ReviewService.DeleteReview.
func (s *reviewService) DeleteReview(
	ctx context.Context,
	actor *domain.User,
	reviewID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txReviews := s.reviewStore.WithTx(tx)

		review, err := txReviews.GetByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, store.ErrReviewNotFound) {
				log.Debug("review not found for delete", "review_id", reviewID)
			} else {
				log.Error("failed to retrieve review for delete",
					"error", err,
					"review_id", reviewID)
			}
			return fmt.Errorf("failed to retrieve review: %w", err)
		}

		if !authz.Allow(actor.Role, actor.ID, review.UserID, authz.ActionDeleteReview) {
			log.Debug("review delete denied",
				"review_id", reviewID,
				"actor_id", actor.ID)
			return fmt.Errorf("cannot delete review: %w", domain.ErrForbidden)
		}

		if err := txReviews.Delete(ctx, reviewID); err != nil {
			log.Error("failed to delete review",
				"error", err,
				"review_id", reviewID)
			return fmt.Errorf("failed to delete review: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	log.Info("review deleted", "review_id", reviewID)

	return nil
}

// ListReviews implements ReviewService.ListReviews.
func (s *reviewService) ListReviews(
	ctx context.Context,
	filters store.ReviewFilters,
) ([]*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	reviews, err := s.reviewStore.List(ctx, filters)
	if err != nil {
		log.Error("failed to list reviews", "error", err)
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// ListAllReviews implements ReviewService.ListAllReviews.
func (s *reviewService) ListAllReviews(
	ctx context.Context,
	actor *domain.User,
	filters store.ReviewFilters,
) ([]*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionListAll) {
		log.Debug("unscoped review listing denied", "actor_id", actor.ID)
		return nil, fmt.Errorf("cannot list all reviews: %w", domain.ErrForbidden)
	}

	reviews, err := s.reviewStore.List(ctx, filters)
	if err != nil {
		log.Error("failed to list reviews", "error", err)
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// GetServiceStats implements ReviewService.GetServiceStats.
func (s *reviewService) GetServiceStats(
	ctx context.Context,
	serviceID uuid.UUID,
) (*store.ReviewStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	service, err := s.serviceStore.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, store.ErrServiceNotFound) {
			log.Debug("service not found for stats", "service_id", serviceID)
		} else {
			log.Error("failed to retrieve service for stats",
				"error", err,
				"service_id", serviceID)
		}
		return nil, fmt.Errorf("failed to retrieve service: %w", err)
	}
	if !service.IsActive {
		log.Debug("service is inactive", "service_id", serviceID)
		return nil, fmt.Errorf("service is inactive: %w", store.ErrServiceNotFound)
	}

	stats, err := s.reviewStore.GetServiceStats(ctx, serviceID)
	if err != nil {
		log.Error("failed to aggregate review stats",
			"error", err,
			"service_id", serviceID)
		return nil, fmt.Errorf("failed to aggregate review stats: %w", err)
	}

	return stats, nil
}
