// Package amqp hands notifications to a delivery service over a durable RabbitMQ queue.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// Channel is the subset of *amqp.Channel the notifier uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ application.Notifier = (*Notifier)(nil)

type Notifier struct {
	conn   *amqp.Connection
	ch     Channel
	queue  string
	logger *slog.Logger
}

// Dial connects to the broker and declares the notification queue.
func Dial(url, queue string, logger *slog.Logger) (*Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	n, err := NewNotifierWithChannel(ch, queue, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// NewNotifierWithChannel declares queue on ch. Used directly by tests.
func NewNotifierWithChannel(ch Channel, queue string, logger *slog.Logger) (*Notifier, error) {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &Notifier{ch: ch, queue: queue, logger: logger}, nil
}

func (n *Notifier) Send(ctx context.Context, notification domain.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = n.ch.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         string(notification.Event),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification for invoice %s: %w", notification.InvoiceNumber, err)
	}

	n.logger.Debug("notification queued",
		"invoice_number", notification.InvoiceNumber,
		"event", notification.Event,
	)
	return nil
}

func (n *Notifier) Close() error {
	if err := n.ch.Close(); err != nil {
		return err
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
