// Package messaging holds the transports behind application.EventPublisher.
// The Kafka transport lives in the kafka subpackage.
package messaging

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

var _ application.EventPublisher = (*LogPublisher)(nil)

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *application.OutboxEvent) error {
	p.logger.Info("event",
		"event_id", event.ID,
		"event_type", event.Type,
		"key", event.Key,
		"payload", string(event.Payload),
	)
	return nil
}
