package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

const orderColumns = `number, invoice_number, order_doc, cart_doc, payment_id::text, error_id::text, created_at`

type OrderRepository struct {
	q Executor
}

func NewOrderRepository(q Executor) *OrderRepository {
	return &OrderRepository{q: q}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.QazkomOrder) error {
	query := `
		INSERT INTO qazkom_orders (number, invoice_number, order_doc, cart_doc, payment_id, error_id, created_at)
		VALUES ($1, $2, $3, $4, $5::uuid, $6::uuid, $7)
	`

	m := toOrderModel(order)
	_, err := r.q.Exec(ctx, query, m.Number, m.InvoiceNumber, m.OrderDoc, m.CartDoc, m.PaymentID, m.ErrorID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.Number, err)
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.QazkomOrder) error {
	query := `UPDATE qazkom_orders SET payment_id = $1::uuid, error_id = $2::uuid WHERE number = $3`

	m := toOrderModel(order)
	tag, err := r.q.Exec(ctx, query, m.PaymentID, m.ErrorID, m.Number)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.Number, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("order", order.Number)
	}
	return nil
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*domain.QazkomOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM qazkom_orders WHERE number = $1`

	order, err := scanOrder(r.q.QueryRow(ctx, query, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("order", number)
	}
	return order, err
}

func (r *OrderRepository) FindLatestForInvoice(ctx context.Context, invoiceNumber string) (*domain.QazkomOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM qazkom_orders WHERE invoice_number = $1 ORDER BY seq DESC LIMIT 1`

	order, err := scanOrder(r.q.QueryRow(ctx, query, invoiceNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return order, err
}

func (r *OrderRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM qazkom_orders WHERE number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order %s: %w", number, err)
	}
	return exists, nil
}

// scanOrder passes pgx.ErrNoRows through unwrapped so callers decide what absence means.
func scanOrder(row pgx.Row) (*domain.QazkomOrder, error) {
	var m OrderModel
	err := row.Scan(&m.Number, &m.InvoiceNumber, &m.OrderDoc, &m.CartDoc, &m.PaymentID, &m.ErrorID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return toOrder(m), nil
}
