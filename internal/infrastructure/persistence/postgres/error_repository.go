package postgres

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

type ErrorRepository struct {
	q Executor
}

func NewErrorRepository(q Executor) *ErrorRepository {
	return &ErrorRepository{q: q}
}

func (r *ErrorRepository) Save(ctx context.Context, e *domain.QazkomError) error {
	query := `
		INSERT INTO qazkom_errors (id, order_number, code, type, message, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
	`

	m := ErrorModel{
		ID:          e.ID,
		OrderNumber: e.OrderNumber,
		Code:        e.Code,
		Type:        e.Type,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt,
	}
	if _, err := r.q.Exec(ctx, query, m.ID, m.OrderNumber, m.Code, m.Type, m.Message, m.CreatedAt); err != nil {
		return fmt.Errorf("insert gateway error %s: %w", e.ID, err)
	}
	return nil
}
