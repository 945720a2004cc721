package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

const propertyPaymentURL = "paymentUrl"

// Dispatcher triggers notifications and domain events once reconciliation has committed.
// Failures here never roll back financial state; they surface as DISPATCH_FAILED.
type Dispatcher struct {
	uow       application.UnitOfWork
	notifier  application.Notifier
	publisher application.EventPublisher
	uris      *PaymentURIBuilder
	logger    *slog.Logger
}

func NewDispatcher(
	uow application.UnitOfWork,
	notifier application.Notifier,
	publisher application.EventPublisher,
	uris *PaymentURIBuilder,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		uow:       uow,
		notifier:  notifier,
		publisher: publisher,
		uris:      uris,
		logger:    logger,
	}
}

// RecordInvoicePaid writes the paid event to the outbox of the running unit of work.
func (d *Dispatcher) RecordInvoicePaid(ctx context.Context, outbox application.OutboxRepository, inv *domain.Invoice, p *domain.Payment) (*application.OutboxEvent, error) {
	payload, err := json.Marshal(domain.NewInvoiceHasPaid(inv, p))
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", domain.EventTypeInvoiceHasPaid, err)
	}

	event := &application.OutboxEvent{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeInvoiceHasPaid,
		Key:       inv.Number,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := outbox.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("record %s event: %w", event.Type, err)
	}
	return event, nil
}

// InvoiceAccepted sends the payment link to the consumer when an email is known.
func (d *Dispatcher) InvoiceAccepted(ctx context.Context, inv *domain.Invoice) error {
	if !inv.HasConsumerEmail() {
		return nil
	}

	uri, err := d.uris.Build(inv)
	if err != nil {
		return err
	}

	n, err := domain.NewInvoiceNotification(domain.EventPaymentLink, inv, map[string]string{
		propertyPaymentURL: uri.String(),
	})
	if err != nil {
		return application.NewInternalError(err)
	}

	if err := d.notifier.Send(ctx, n); err != nil {
		d.logger.Error("payment link notification failed",
			"invoice_number", inv.Number,
			"error", err,
		)
		return application.NewDispatchError(err)
	}

	d.logger.Debug("payment link notification sent", "invoice_number", inv.Number)
	return nil
}

// InvoicePaid notifies the consumer and publishes the recorded event.
// Both are attempted even when the first fails.
func (d *Dispatcher) InvoicePaid(ctx context.Context, inv *domain.Invoice, event *application.OutboxEvent) error {
	var errs []error

	if inv.HasConsumerEmail() {
		n, err := domain.NewInvoiceNotification(domain.EventPaymentSuccess, inv, nil)
		if err == nil {
			err = d.notifier.Send(ctx, n)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("send payment success notification: %w", err))
		}
	}

	if event != nil {
		if err := d.publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		d.logger.Error("side effect dispatch failed",
			"invoice_number", inv.Number,
			"error", err,
		)
		return application.NewDispatchError(err)
	}
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, event *application.OutboxEvent) error {
	if err := d.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}

	// Left unpublished, the relay publishes it again.
	err := d.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		return repos.Outbox.MarkPublished(ctx, event.ID, time.Now().UTC())
	})
	if err != nil {
		d.logger.Warn("failed to mark event published",
			"event_id", event.ID,
			"error", err,
		)
	}
	return nil
}
