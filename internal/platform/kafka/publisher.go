package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/esther-anierobi/bookIT/internal/config"
	"github.com/esther-anierobi/bookIT/internal/events"
)

// Common errors returned by the publisher
var (
	ErrNoBrokers  = errors.New("at least one broker is required")
	ErrEmptyTopic = errors.New("topic cannot be empty")
)

// Publisher writes booking lifecycle events to a Kafka topic. Messages are
// keyed by booking ID and the writer hashes keys to partitions, so events
// for one booking are always delivered in order.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka publisher for the configured brokers and
// topic. Returns an error when the configuration names no brokers; callers
// use that to run without event publishing.
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Topic == "" {
		return nil, ErrEmptyTopic
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "kafka_publisher"))

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // hash by key for per-booking ordering
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...))
		}),
	}

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishBookingEvent writes one booking lifecycle event to the topic.
func (p *Publisher) PublishBookingEvent(ctx context.Context, event *events.BookingEvent) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish booking event",
			slog.String("error", err.Error()),
			slog.String("event", event.Event),
			slog.String("booking_id", event.BookingID.String()))
		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	p.logger.Debug("published booking event",
		slog.String("event", event.Event),
		slog.String("booking_id", event.BookingID.String()))
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// buildMessage converts a booking event into a Kafka message keyed by the
// booking ID, with the lifecycle type exposed as a header so consumers can
// route without decoding the body.
func buildMessage(event *events.BookingEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal booking event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.BookingID.String()),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Event)},
		},
	}, nil
}
