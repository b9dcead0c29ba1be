package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/esther-anierobi/bookIT/internal/events"
	"github.com/google/uuid"
)

// BookingEventTaskFactory creates BookingEventTask instances. The same
// factory serves two paths: fresh tasks built from live events, and tasks
// restored from their stored payloads during recovery.
type BookingEventTaskFactory struct {
	publisher BookingEventPublisher
	logger    *slog.Logger
}

// NewBookingEventTaskFactory creates a new factory for booking event tasks.
func NewBookingEventTaskFactory(
	publisher BookingEventPublisher,
	logger *slog.Logger,
) (*BookingEventTaskFactory, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &BookingEventTaskFactory{
		publisher: publisher,
		logger:    logger.With("component", "booking_event_task_factory"),
	}, nil
}

// CreateTask builds a task that will publish the given event.
func (f *BookingEventTaskFactory) CreateTask(event *events.BookingEvent) (Task, error) {
	task, err := NewBookingEventTask(event, f.publisher, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking event task: %w", err)
	}

	f.logger.Debug("created booking event task",
		"task_id", task.ID(),
		"event_type", event.Event,
		"booking_id", event.BookingID)

	return task, nil
}

// Restore rebuilds a task from its stored payload, keeping the original task
// ID so status updates land on the existing database row. It has the
// FactoryFunc signature and is registered with the runner under
// TaskTypeBookingEvent.
func (f *BookingEventTaskFactory) Restore(id uuid.UUID, payload []byte) (Task, error) {
	var event events.BookingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking event payload: %w", err)
	}

	task, err := NewBookingEventTask(&event, f.publisher, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to restore booking event task: %w", err)
	}
	task.id = id

	return task, nil
}
