// Package notification holds the transports behind application.Notifier.
// Email and queue transports live in the smtp and amqp subpackages.
package notification

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

var _ application.Notifier = (*LogNotifier)(nil)

// LogNotifier only records notifications. Used in development.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, notification domain.Notification) error {
	n.logger.Info("notification",
		"channel", notification.Channel,
		"event", notification.Event,
		"recipient", notification.Recipient,
		"invoice_number", notification.InvoiceNumber,
		"properties", notification.Properties,
	)
	return nil
}
