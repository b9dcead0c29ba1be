package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/config"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPublisherValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.KafkaConfig
		wantErr error
	}{
		{
			name:    "no brokers",
			cfg:     config.KafkaConfig{Topic: "bookit.bookings"},
			wantErr: ErrNoBrokers,
		},
		{
			name:    "empty topic",
			cfg:     config.KafkaConfig{Brokers: []string{"localhost:9092"}},
			wantErr: ErrEmptyTopic,
		},
		{
			name: "valid",
			cfg: config.KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "bookit.bookings",
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pub, err := NewPublisher(tc.cfg, testLogger())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, pub)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, pub)
			// No messages were written, so closing is purely local.
			assert.NoError(t, pub.Close())
		})
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	booking := &domain.Booking{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ServiceID: uuid.New(),
		StartsAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		EndsAt:    time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		Status:    domain.BookingStatusPending,
	}
	event := events.NewBookingEvent(events.EventTypeBookingCreated, booking, "")

	msg, err := buildMessage(event)
	require.NoError(t, err)

	assert.Equal(t, booking.ID.String(), string(msg.Key))
	assert.True(t, msg.Time.Equal(event.OccurredAt))

	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, events.EventTypeBookingCreated, string(msg.Headers[0].Value))

	var decoded events.BookingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, booking.ID, decoded.BookingID)
	assert.Equal(t, domain.BookingStatusPending, decoded.Status)
}
