package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/esther-anierobi/bookIT/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher implements BookingEventPublisher for testing
type fakePublisher struct {
	PublishFn func(ctx context.Context, event *events.BookingEvent) error
	Called    bool
	LastEvent *events.BookingEvent
}

func (p *fakePublisher) PublishBookingEvent(ctx context.Context, event *events.BookingEvent) error {
	p.Called = true
	p.LastEvent = event
	if p.PublishFn != nil {
		return p.PublishFn(ctx, event)
	}
	return nil
}

func newTestBookingEvent() *events.BookingEvent {
	return &events.BookingEvent{
		Event:      events.EventTypeBookingCreated,
		BookingID:  uuid.New(),
		UserID:     uuid.New(),
		ServiceID:  uuid.New(),
		StartsAt:   time.Now().UTC().Add(time.Hour),
		EndsAt:     time.Now().UTC().Add(2 * time.Hour),
		Status:     "pending",
		OccurredAt: time.Now().UTC(),
	}
}

func TestNewBookingEventTask(t *testing.T) {
	logger := newTestLogger()
	publisher := &fakePublisher{}
	event := newTestBookingEvent()

	tests := []struct {
		name      string
		event     *events.BookingEvent
		publisher BookingEventPublisher
		wantErr   error
	}{
		{name: "nil event", event: nil, wantErr: ErrNilEvent},
		{name: "nil publisher", event: event, publisher: nil, wantErr: ErrNilPublisher},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBookingEventTask(tc.event, tc.publisher, logger)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewBookingEventTask(event, publisher, nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("valid task", func(t *testing.T) {
		task, err := NewBookingEventTask(event, publisher, logger)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID())
		assert.Equal(t, TaskTypeBookingEvent, task.Type())
		assert.Equal(t, TaskStatusPending, task.Status())
	})
}

func TestBookingEventTaskPayload(t *testing.T) {
	event := newTestBookingEvent()
	task, err := NewBookingEventTask(event, &fakePublisher{}, newTestLogger())
	require.NoError(t, err)

	var decoded events.BookingEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))

	assert.Equal(t, event.Event, decoded.Event)
	assert.Equal(t, event.BookingID, decoded.BookingID)
	assert.Equal(t, event.Status, decoded.Status)
}

func TestBookingEventTaskExecute(t *testing.T) {
	logger := newTestLogger()

	t.Run("successful publish", func(t *testing.T) {
		event := newTestBookingEvent()
		publisher := &fakePublisher{}

		task, err := NewBookingEventTask(event, publisher, logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.NoError(t, err)
		assert.True(t, publisher.Called)
		assert.Equal(t, event, publisher.LastEvent)
		assert.Equal(t, TaskStatusCompleted, task.Status())
	})

	t.Run("publish failure", func(t *testing.T) {
		publisher := &fakePublisher{
			PublishFn: func(ctx context.Context, event *events.BookingEvent) error {
				return errors.New("broker unreachable")
			},
		}

		task, err := NewBookingEventTask(newTestBookingEvent(), publisher, logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish booking event")
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("cancelled context", func(t *testing.T) {
		publisher := &fakePublisher{}

		task, err := NewBookingEventTask(newTestBookingEvent(), publisher, logger)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = task.Execute(ctx)
		assert.Error(t, err)
		assert.False(t, publisher.Called, "publisher should not be called after cancellation")
		assert.Equal(t, TaskStatusFailed, task.Status())
	})
}

func TestBookingEventTaskFactory(t *testing.T) {
	logger := newTestLogger()

	t.Run("constructor validation", func(t *testing.T) {
		_, err := NewBookingEventTaskFactory(nil, logger)
		assert.ErrorIs(t, err, ErrNilPublisher)

		_, err = NewBookingEventTaskFactory(&fakePublisher{}, nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("create task", func(t *testing.T) {
		factory, err := NewBookingEventTaskFactory(&fakePublisher{}, logger)
		require.NoError(t, err)

		event := newTestBookingEvent()
		task, err := factory.CreateTask(event)
		require.NoError(t, err)

		assert.Equal(t, TaskTypeBookingEvent, task.Type())
		assert.Equal(t, TaskStatusPending, task.Status())
	})

	t.Run("restore keeps the stored ID", func(t *testing.T) {
		publisher := &fakePublisher{}
		factory, err := NewBookingEventTaskFactory(publisher, logger)
		require.NoError(t, err)

		event := newTestBookingEvent()
		original, err := factory.CreateTask(event)
		require.NoError(t, err)

		restored, err := factory.Restore(original.ID(), original.Payload())
		require.NoError(t, err)

		assert.Equal(t, original.ID(), restored.ID())

		// The restored task publishes the same event
		require.NoError(t, restored.Execute(context.Background()))
		require.NotNil(t, publisher.LastEvent)
		assert.Equal(t, event.BookingID, publisher.LastEvent.BookingID)
	})

	t.Run("restore rejects malformed payload", func(t *testing.T) {
		factory, err := NewBookingEventTaskFactory(&fakePublisher{}, logger)
		require.NoError(t, err)

		_, err = factory.Restore(uuid.New(), []byte(`{not json`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal booking event payload")
	})
}
