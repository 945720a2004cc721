// Package kafka publishes outbox events to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	skafka "github.com/segmentio/kafka-go"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

var _ application.EventPublisher = (*Publisher)(nil)

// Publisher keys every message by invoice number so events of one invoice stay ordered.
type Publisher struct {
	writer Writer
	logger *slog.Logger
}

func NewPublisher(brokers []string, topic string, writeTimeout time.Duration, logger *slog.Logger) *Publisher {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireAll,
		WriteTimeout: writeTimeout,
	}
	return NewPublisherWithWriter(w, logger)
}

// NewPublisherWithWriter allows injecting a test writer.
func NewPublisherWithWriter(w Writer, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event *application.OutboxEvent) error {
	msg := skafka.Message{
		Key:   []byte(event.Key),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []skafka.Header{
			{Key: HeaderEventID, Value: []byte(event.ID)},
			{Key: HeaderEventType, Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka write failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
		return fmt.Errorf("write event %s: %w", event.ID, err)
	}

	p.logger.Debug("event published", "event_id", event.ID, "key", event.Key)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
