package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/authz"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/events"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// BookingPatch carries the fields of a booking update request. Nil fields
// are left unchanged.
type BookingPatch struct {
	StartsAt *time.Time
	EndsAt   *time.Time
	Status   *domain.BookingStatus
}

// BookingService schedules bookings against the service catalog. All
// mutations run inside a single transaction so the conflict check and the
// write it protects cannot be separated.
type BookingService interface {
	// CreateBooking books the given service for the actor over the half-open
	// window [startsAt, endsAt). The service must exist and be active, the
	// start must lie strictly in the future, and the window must not overlap
	// any pending or confirmed booking of the same service.
	// Returns store.ErrServiceNotFound, domain.ErrInvalidInterval or
	// ErrBookingConflict on the corresponding failures.
	CreateBooking(ctx context.Context, actorID, serviceID uuid.UUID, startsAt, endsAt time.Time) (*domain.Booking, error)

	// GetBooking retrieves a booking visible to the actor: its owner or an
	// admin. Returns store.ErrBookingNotFound or domain.ErrForbidden.
	GetBooking(ctx context.Context, actor *domain.User, bookingID uuid.UUID) (*domain.Booking, error)

	// UpdateBooking reschedules a booking and/or moves it through the status
	// machine. Non-admins may only touch their own bookings, may only do so
	// while the booking is pending or confirmed, and may only request the
	// cancelled status. Admins may set any status on any booking. A window
	// change re-runs the conflict check against the merged window, excluding
	// the booking itself.
	// Returns store.ErrBookingNotFound, domain.ErrForbidden,
	// domain.ErrInvalidTransition, domain.ErrInvalidInterval or
	// ErrBookingConflict.
	UpdateBooking(ctx context.Context, actor *domain.User, bookingID uuid.UUID, patch BookingPatch) (*domain.Booking, error)

	// DeleteBooking removes a booking permanently. Non-admins may only
	// delete their own bookings and only strictly before the start time.
	// Returns store.ErrBookingNotFound, domain.ErrForbidden or
	// domain.ErrBookingStarted.
	DeleteBooking(ctx context.Context, actor *domain.User, bookingID uuid.UUID) (*domain.Booking, error)

	// ListBookings returns bookings matching the filters, newest start time
	// first. Non-admin actors are restricted to their own bookings no matter
	// what the filters say.
	ListBookings(ctx context.Context, actor *domain.User, filters store.BookingFilters) ([]*domain.Booking, error)

	// ListAllBookings returns bookings across all users matching the
	// filters, newest start time first. Returns domain.ErrForbidden for
	// non-admin actors.
	ListAllBookings(ctx context.Context, actor *domain.User, filters store.BookingFilters) ([]*domain.Booking, error)
}

// bookingService implements the BookingService interface.
type bookingService struct {
	bookingStore store.BookingStore
	serviceStore store.ServiceStore
	db           *sql.DB
	eventEmitter events.EventEmitter
	logger       *slog.Logger
	timeFunc     func() time.Time
}

// NewBookingService creates a new BookingService.
// It returns an error if any of the required dependencies are nil.
func NewBookingService(
	bookingStore store.BookingStore,
	serviceStore store.ServiceStore,
	db *sql.DB,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (BookingService, error) {
	if bookingStore == nil {
		return nil, domain.NewValidationError("bookingStore", "cannot be nil", domain.ErrValidation)
	}
	if serviceStore == nil {
		return nil, domain.NewValidationError("serviceStore", "cannot be nil", domain.ErrValidation)
	}
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if eventEmitter == nil {
		return nil, domain.NewValidationError("eventEmitter", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &bookingService{
		bookingStore: bookingStore,
		serviceStore: serviceStore,
		db:           db,
		eventEmitter: eventEmitter,
		logger:       logger.With(slog.String("component", "booking_service")),
		timeFunc:     time.Now,
	}, nil
}

// CreateBooking implements BookingService.CreateBooking.
func (s *bookingService) CreateBooking(
	ctx context.Context,
	actorID, serviceID uuid.UUID,
	startsAt, endsAt time.Time,
) (*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.timeFunc().UTC()
	if !startsAt.After(now) {
		log.Debug("rejected booking with non-future start",
			"service_id", serviceID,
			"starts_at", startsAt)
		return nil, fmt.Errorf("%w: start must be in the future", domain.ErrInvalidInterval)
	}

	svc, err := s.serviceStore.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, store.ErrServiceNotFound) {
			log.Debug("booking requested for unknown service", "service_id", serviceID)
		} else {
			log.Error("failed to retrieve service for booking",
				"error", err,
				"service_id", serviceID)
		}
		return nil, fmt.Errorf("failed to retrieve service: %w", err)
	}
	// An inactive service accepts no new bookings and is indistinguishable
	// from a missing one.
	if !svc.IsActive {
		log.Debug("booking requested for inactive service", "service_id", serviceID)
		return nil, fmt.Errorf("service is not bookable: %w", store.ErrServiceNotFound)
	}

	booking, err := domain.NewBooking(actorID, serviceID, startsAt, endsAt)
	if err != nil {
		log.Debug("invalid booking data",
			"error", err,
			"service_id", serviceID)
		return nil, fmt.Errorf("invalid booking: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txBookings := s.bookingStore.WithTx(tx)

		overlapping, err := txBookings.CountOverlapping(
			ctx, serviceID, booking.StartsAt, booking.EndsAt, uuid.Nil)
		if err != nil {
			log.Error("failed to count overlapping bookings",
				"error", err,
				"service_id", serviceID)
			return fmt.Errorf("failed to check for conflicts: %w", err)
		}
		if overlapping > 0 {
			log.Debug("booking window conflicts",
				"service_id", serviceID,
				"starts_at", booking.StartsAt,
				"ends_at", booking.EndsAt,
				"overlapping", overlapping)
			return ErrBookingConflict
		}

		return txBookings.Create(ctx, booking)
	})
	if err != nil {
		if !errors.Is(err, ErrBookingConflict) {
			log.Error("failed to create booking",
				"error", err,
				"user_id", actorID,
				"service_id", serviceID)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	log.Info("booking created",
		"booking_id", booking.ID,
		"user_id", actorID,
		"service_id", serviceID,
		"starts_at", booking.StartsAt,
		"ends_at", booking.EndsAt)

	s.emitBookingEvent(ctx, events.EventTypeBookingCreated, booking, "")

	return booking, nil
}

// GetBooking implements BookingService.GetBooking.
func (s *bookingService) GetBooking(
	ctx context.Context,
	actor *domain.User,
	bookingID uuid.UUID,
) (*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	booking, err := s.bookingStore.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrBookingNotFound) {
			log.Debug("booking not found", "booking_id", bookingID)
		} else {
			log.Error("failed to retrieve booking",
				"error", err,
				"booking_id", bookingID)
		}
		return nil, fmt.Errorf("failed to retrieve booking: %w", err)
	}

	if !authz.Allow(actor.Role, actor.ID, booking.UserID, authz.ActionReadBooking) {
		log.Debug("booking read denied",
			"booking_id", bookingID,
			"actor_id", actor.ID)
		return nil, fmt.Errorf("cannot read booking: %w", domain.ErrForbidden)
	}

	return booking, nil
}

// UpdateBooking implements BookingService.UpdateBooking.
func (s *bookingService) UpdateBooking(
	ctx context.Context,
	actor *domain.User,
	bookingID uuid.UUID,
	patch BookingPatch,
) (*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Booking
	var oldStatus domain.BookingStatus

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txBookings := s.bookingStore.WithTx(tx)

		booking, err := txBookings.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, store.ErrBookingNotFound) {
				log.Debug("booking not found for update", "booking_id", bookingID)
			} else {
				log.Error("failed to retrieve booking for update",
					"error", err,
					"booking_id", bookingID)
			}
			return fmt.Errorf("failed to retrieve booking: %w", err)
		}

		if !authz.Allow(actor.Role, actor.ID, booking.UserID, authz.ActionUpdateBooking) {
			log.Debug("booking update denied",
				"booking_id", bookingID,
				"actor_id", actor.ID)
			return fmt.Errorf("cannot update booking: %w", domain.ErrForbidden)
		}

		oldStatus = booking.Status
		windowChanged := patch.StartsAt != nil || patch.EndsAt != nil
		statusChanged := patch.Status != nil && *patch.Status != booking.Status

		// Non-admins may reschedule or cancel, and only while the booking
		// is still pending or confirmed. Everything else is reserved for
		// admins, who may force any status.
		if !actor.IsAdmin() {
			if (windowChanged || statusChanged) && !booking.Blocks() {
				log.Debug("update rejected: booking in terminal status",
					"booking_id", bookingID,
					"status", booking.Status)
				return fmt.Errorf("booking is %s: %w", booking.Status, domain.ErrInvalidTransition)
			}
			if statusChanged && *patch.Status != domain.BookingStatusCancelled {
				log.Debug("update rejected: status not reachable by owner",
					"booking_id", bookingID,
					"requested_status", *patch.Status)
				return fmt.Errorf(
					"owners may only cancel, requested %q: %w",
					*patch.Status, domain.ErrInvalidTransition)
			}
		}

		if patch.StartsAt != nil {
			booking.StartsAt = patch.StartsAt.UTC()
		}
		if patch.EndsAt != nil {
			booking.EndsAt = patch.EndsAt.UTC()
		}
		if windowChanged && !booking.EndsAt.After(booking.StartsAt) {
			log.Debug("update rejected: merged window is empty",
				"booking_id", bookingID,
				"starts_at", booking.StartsAt,
				"ends_at", booking.EndsAt)
			return fmt.Errorf("%w: end must be after start", domain.ErrInvalidInterval)
		}

		if statusChanged {
			if err := booking.UpdateStatus(*patch.Status); err != nil {
				return fmt.Errorf("invalid status: %w", err)
			}
		} else {
			booking.UpdatedAt = s.timeFunc().UTC()
		}

		// A rescheduled booking needs its new slot only while it still
		// blocks one. The booking itself is excluded from the count so it
		// can move within or over its own window.
		if windowChanged && booking.Blocks() {
			overlapping, err := txBookings.CountOverlapping(
				ctx, booking.ServiceID, booking.StartsAt, booking.EndsAt, booking.ID)
			if err != nil {
				log.Error("failed to count overlapping bookings for update",
					"error", err,
					"booking_id", bookingID)
				return fmt.Errorf("failed to check for conflicts: %w", err)
			}
			if overlapping > 0 {
				log.Debug("rescheduled window conflicts",
					"booking_id", bookingID,
					"starts_at", booking.StartsAt,
					"ends_at", booking.EndsAt,
					"overlapping", overlapping)
				return ErrBookingConflict
			}
		}

		if err := txBookings.Update(ctx, booking); err != nil {
			log.Error("failed to update booking",
				"error", err,
				"booking_id", bookingID)
			return fmt.Errorf("failed to update booking: %w", err)
		}

		updated = booking
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	log.Info("booking updated",
		"booking_id", updated.ID,
		"status", updated.Status,
		"starts_at", updated.StartsAt,
		"ends_at", updated.EndsAt)

	if updated.Status != oldStatus {
		s.emitBookingEvent(ctx, events.EventTypeBookingStatusChanged, updated, oldStatus)
	}

	return updated, nil
}

// DeleteBooking implements BookingService.DeleteBooking.
func (s *bookingService) DeleteBooking(
	ctx context.Context,
	actor *domain.User,
	bookingID uuid.UUID,
) (*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted *domain.Booking

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txBookings := s.bookingStore.WithTx(tx)

		booking, err := txBookings.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, store.ErrBookingNotFound) {
				log.Debug("booking not found for delete", "booking_id", bookingID)
			} else {
				log.Error("failed to retrieve booking for delete",
					"error", err,
					"booking_id", bookingID)
			}
			return fmt.Errorf("failed to retrieve booking: %w", err)
		}

		if !authz.Allow(actor.Role, actor.ID, booking.UserID, authz.ActionDeleteBooking) {
			log.Debug("booking delete denied",
				"booking_id", bookingID,
				"actor_id", actor.ID)
			return fmt.Errorf("cannot delete booking: %w", domain.ErrForbidden)
		}

		// Owners can only walk away from a booking that has not started.
		// Admins delete unconditionally.
		if !actor.IsAdmin() && !booking.StartsAt.After(s.timeFunc().UTC()) {
			log.Debug("booking delete rejected: already started",
				"booking_id", bookingID,
				"starts_at", booking.StartsAt)
			return fmt.Errorf("cannot delete booking: %w", domain.ErrBookingStarted)
		}

		if err := txBookings.Delete(ctx, bookingID); err != nil {
			log.Error("failed to delete booking",
				"error", err,
				"booking_id", bookingID)
			return fmt.Errorf("failed to delete booking: %w", err)
		}

		deleted = booking
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}

	log.Info("booking deleted",
		"booking_id", deleted.ID,
		"user_id", deleted.UserID,
		"service_id", deleted.ServiceID)

	s.emitBookingEvent(ctx, events.EventTypeBookingDeleted, deleted, "")

	return deleted, nil
}

// ListBookings implements BookingService.ListBookings.
func (s *bookingService) ListBookings(
	ctx context.Context,
	actor *domain.User,
	filters store.BookingFilters,
) ([]*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Only admins see beyond their own bookings.
	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionListAll) {
		filters.UserID = &actor.ID
	}

	bookings, err := s.bookingStore.List(ctx, filters)
	if err != nil {
		log.Error("failed to list bookings",
			"error", err,
			"actor_id", actor.ID)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// ListAllBookings implements BookingService.ListAllBookings.
func (s *bookingService) ListAllBookings(
	ctx context.Context,
	actor *domain.User,
	filters store.BookingFilters,
) ([]*domain.Booking, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionListAll) {
		log.Debug("unscoped booking listing denied", "actor_id", actor.ID)
		return nil, fmt.Errorf("cannot list all bookings: %w", domain.ErrForbidden)
	}

	bookings, err := s.bookingStore.List(ctx, filters)
	if err != nil {
		log.Error("failed to list bookings",
			"error", err,
			"actor_id", actor.ID)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// emitBookingEvent hands a booking lifecycle event to the emitter. The write
// that triggered the event has already committed, so a failure here only
// loses the notification; it is logged and swallowed.
func (s *bookingService) emitBookingEvent(
	ctx context.Context,
	eventType string,
	booking *domain.Booking,
	oldStatus domain.BookingStatus,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewBookingRequestEvent(eventType, booking, oldStatus)
	if err != nil {
		log.Error("failed to build booking event",
			"error", err,
			"event_type", eventType,
			"booking_id", booking.ID)
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit booking event",
			"error", err,
			"event_type", eventType,
			"booking_id", booking.ID)
	}
}
