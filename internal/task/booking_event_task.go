package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/esther-anierobi/bookIT/internal/events"
	"github.com/google/uuid"
)

// Common task errors
var (
	// ErrNilPublisher is returned when a nil publisher is provided
	ErrNilPublisher = errors.New("publisher cannot be nil")

	// ErrNilLogger is returned when a nil logger is provided
	ErrNilLogger = errors.New("logger cannot be nil")

	// ErrNilEvent is returned when a nil event is provided
	ErrNilEvent = errors.New("event cannot be nil")
)

// BookingEventPublisher defines the capability to publish a booking event to
// an external system. The Kafka publisher satisfies this interface.
type BookingEventPublisher interface {
	PublishBookingEvent(ctx context.Context, event *events.BookingEvent) error
}

// BookingEventTask delivers one booking lifecycle event to the configured
// publisher. Delivery runs in the background so API requests never wait on
// the broker.
type BookingEventTask struct {
	id        uuid.UUID
	event     *events.BookingEvent
	publisher BookingEventPublisher
	logger    *slog.Logger
	status    TaskStatus
}

// NewBookingEventTask creates a new task that publishes the given event.
func NewBookingEventTask(
	event *events.BookingEvent,
	publisher BookingEventPublisher,
	logger *slog.Logger,
) (*BookingEventTask, error) {
	if event == nil {
		return nil, ErrNilEvent
	}
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &BookingEventTask{
		id:        uuid.New(),
		event:     event,
		publisher: publisher,
		logger:    logger.With("component", "booking_event_task"),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *BookingEventTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *BookingEventTask) Type() string {
	return TaskTypeBookingEvent
}

// Payload returns the serialized event data
func (t *BookingEventTask) Payload() []byte {
	payload, err := json.Marshal(t.event)
	if err != nil {
		t.logger.Error("failed to marshal booking event payload",
			"task_id", t.id,
			"error", err)
		return []byte{}
	}
	return payload
}

// Status returns the current task status
func (t *BookingEventTask) Status() TaskStatus {
	return t.status
}

// Execute publishes the booking event.
func (t *BookingEventTask) Execute(ctx context.Context) error {
	log := t.logger.With(
		"task_id", t.id,
		"event_type", t.event.Event,
		"booking_id", t.event.BookingID,
	)
	log.Debug("publishing booking event")

	t.status = TaskStatusProcessing

	// Check for context cancellation before doing work
	if ctx.Err() != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("context cancelled before publishing: %w", ctx.Err())
	}

	if err := t.publisher.PublishBookingEvent(ctx, t.event); err != nil {
		t.status = TaskStatusFailed
		log.Error("failed to publish booking event", "error", err)
		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	t.status = TaskStatusCompleted
	log.Info("booking event published")
	return nil
}
