package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/esther-anierobi/bookIT/internal/events"
)

// taskFactory creates an executable task from a booking event.
type taskFactory interface {
	CreateTask(event *events.BookingEvent) (Task, error)
}

// taskSubmitter accepts tasks for background execution.
type taskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface. It
// turns booking request events into tasks and hands them to the runner.
type TaskFactoryEventHandler struct {
	taskFactory taskFactory
	taskRunner  taskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given
// task factory to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	factory taskFactory,
	runner taskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: factory,
		taskRunner:  runner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent processes events by creating and submitting tasks.
// It extracts the payload from the event, creates the appropriate task,
// and submits it to the runner for execution.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != events.TaskTypeBookingEvent {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var bookingEvent events.BookingEvent
	if err := event.UnmarshalPayload(&bookingEvent); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	task, err := h.taskFactory.CreateTask(&bookingEvent)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"booking_id", bookingEvent.BookingID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"booking_id", bookingEvent.BookingID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"booking_id", bookingEvent.BookingID,
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
