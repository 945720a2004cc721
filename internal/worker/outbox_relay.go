// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

// OutboxRelay republishes events whose immediate publish after reconciliation failed.
// Delivery is at least once; consumers dedupe by event ID.
type OutboxRelay struct {
	uow       application.UnitOfWork
	publisher application.EventPublisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewOutboxRelay(
	uow application.UnitOfWork,
	publisher application.EventPublisher,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		uow:       uow,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("outbox relay cycle failed", "error", err)
			}
		}
	}
}

// RunOnce publishes one batch and returns how many events were delivered.
// A failed event stays unpublished and the rest of the batch is still attempted.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	var pending []*application.OutboxEvent
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		pending, err = repos.Outbox.FindUnpublished(ctx, r.batchSize)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("load unpublished events: %w", err)
	}

	var published int
	for _, event := range pending {
		if ctx.Err() != nil {
			break
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warn("event publish failed",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err)
			continue
		}

		err := r.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
			return repos.Outbox.MarkPublished(ctx, event.ID, time.Now().UTC())
		})
		if err != nil {
			r.logger.Error("mark published failed", "event_id", event.ID, "error", err)
			continue
		}
		published++
	}

	if published > 0 {
		r.logger.Info("relayed outbox events", "count", published)
	}
	return published, nil
}
