package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

// Publisher produces duplicate-detected events to a Kafka topic.
// It implements drafts.Notifier.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the duplicate events topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger}
}

// DuplicateDetected publishes one event keyed by draft ID, so every event for
// a draft lands on the same partition in order.
func (p *Publisher) DuplicateDetected(ctx context.Context, evt domain.DuplicateDetected) error {
	msg, err := serializeToMessage(evt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish duplicate event for draft %s: %w", evt.DraftID, err)
	}
	p.logger.Debug("duplicate event published",
		"draft_id", evt.DraftID,
		"project_id", evt.ProjectID,
		"level", evt.Level,
	)
	return nil
}

// Close flushes pending messages and closes the producer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a DuplicateDetected event into a Kafka message.
func serializeToMessage(evt domain.DuplicateDetected) (kafkago.Message, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize duplicate event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(evt.DraftID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "level", Value: []byte(evt.Level)},
			{Key: "detected_at", Value: []byte(evt.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
