package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

// Booking lifecycle event types carried in BookingEvent.Event.
const (
	EventTypeBookingCreated       = "booking.created"
	EventTypeBookingStatusChanged = "booking.status_changed"
	EventTypeBookingDeleted       = "booking.deleted"
)

// TaskTypeBookingEvent is the envelope type for booking lifecycle events.
// The task runner matches on it to pick the publishing task factory.
const TaskTypeBookingEvent = "booking_event"

// TaskRequestEvent represents a request to create a background task.
// It contains the necessary information for task creation without
// direct dependencies on the task package.
type TaskRequestEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates the task type that should be created
	Type string `json:"type"`

	// Payload contains the task-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent creates a new TaskRequestEvent with the specified type and payload.
func NewTaskRequestEvent(eventType string, payload interface{}) (*TaskRequestEvent, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// BookingEvent describes one booking lifecycle change for downstream
// consumers. It is the payload of a booking_event task and, ultimately,
// the message body published to Kafka keyed by BookingID.
type BookingEvent struct {
	Event      string               `json:"event"`
	BookingID  uuid.UUID            `json:"booking_id"`
	UserID     uuid.UUID            `json:"user_id"`
	ServiceID  uuid.UUID            `json:"service_id"`
	StartsAt   time.Time            `json:"starts_at"`
	EndsAt     time.Time            `json:"ends_at"`
	Status     domain.BookingStatus `json:"status"`
	OldStatus  domain.BookingStatus `json:"old_status,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// NewBookingEvent builds a BookingEvent snapshot of the given booking.
// oldStatus is only meaningful for status_changed events; pass the zero
// value otherwise.
func NewBookingEvent(eventType string, booking *domain.Booking, oldStatus domain.BookingStatus) *BookingEvent {
	return &BookingEvent{
		Event:      eventType,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		ServiceID:  booking.ServiceID,
		StartsAt:   booking.StartsAt,
		EndsAt:     booking.EndsAt,
		Status:     booking.Status,
		OldStatus:  oldStatus,
		OccurredAt: time.Now().UTC(),
	}
}

// NewBookingRequestEvent wraps a BookingEvent in the task request envelope
// the emitter dispatches.
func NewBookingRequestEvent(eventType string, booking *domain.Booking, oldStatus domain.BookingStatus) (*TaskRequestEvent, error) {
	return NewTaskRequestEvent(TaskTypeBookingEvent, NewBookingEvent(eventType, booking, oldStatus))
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
