package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
)

type OutboxRepository struct {
	q Executor
}

func NewOutboxRepository(q Executor) *OutboxRepository {
	return &OutboxRepository{q: q}
}

func (r *OutboxRepository) Save(ctx context.Context, event *application.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, type, key, payload, created_at, published_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
	`
	_, err := r.q.Exec(ctx, query, event.ID, event.Type, event.Key, event.Payload, event.CreatedAt, event.PublishedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event %s: %w", event.ID, err)
	}
	return nil
}

// FindUnpublished returns the oldest pending events first.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*application.OutboxEvent, error) {
	query := `
		SELECT id::text, type, key, payload, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished events: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*application.OutboxEvent, error) {
		var m OutboxModel
		err := row.Scan(&m.ID, &m.Type, &m.Key, &m.Payload, &m.CreatedAt, &m.PublishedAt)
		return toOutboxEvent(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan unpublished events: %w", err)
	}
	return results, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE outbox_events SET published_at = $1 WHERE id = $2::uuid AND published_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("mark outbox event %s published: %w", id, err)
	}
	return nil
}
