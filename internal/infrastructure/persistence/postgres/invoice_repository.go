package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

const invoiceColumns = `number, external_id, amount::text, currency, product_name,
	consumer_name, consumer_email, consumer_language, status, payment_id::text, paid_at, created_at`

type InvoiceRepository struct {
	q Executor
}

func NewInvoiceRepository(q Executor) *InvoiceRepository {
	return &InvoiceRepository{q: q}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `
		INSERT INTO invoices (
			number, external_id, amount, currency, product_name,
			consumer_name, consumer_email, consumer_language, status, payment_id, paid_at, created_at
		) VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10::uuid, $11, $12)
	`

	m := toInvoiceModel(inv)
	_, err := r.q.Exec(ctx, query,
		m.Number,
		m.ExternalID,
		m.Amount,
		m.Currency,
		m.ProductName,
		m.ConsumerName,
		m.ConsumerEmail,
		m.ConsumerLanguage,
		m.Status,
		m.PaymentID,
		m.PaidAt,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice %s: %w", inv.Number, err)
	}
	return nil
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	query := `
		UPDATE invoices
		SET status = $1, payment_id = $2::uuid, paid_at = $3
		WHERE number = $4
	`

	m := toInvoiceModel(inv)
	tag, err := r.q.Exec(ctx, query, m.Status, m.PaymentID, m.PaidAt, m.Number)
	if err != nil {
		return fmt.Errorf("update invoice %s: %w", inv.Number, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("invoice", inv.Number)
	}
	return nil
}

func (r *InvoiceRepository) FindByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE number = $1`
	return scanInvoice(r.q.QueryRow(ctx, query, number), number)
}

// FindByNumberForUpdate holds a row lock until the surrounding transaction ends.
func (r *InvoiceRepository) FindByNumberForUpdate(ctx context.Context, number string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE number = $1 FOR UPDATE`
	return scanInvoice(r.q.QueryRow(ctx, query, number), number)
}

func (r *InvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice %s: %w", number, err)
	}
	return exists, nil
}

func scanInvoice(row pgx.Row, number string) (*domain.Invoice, error) {
	var m InvoiceModel
	err := row.Scan(
		&m.Number, &m.ExternalID, &m.Amount, &m.Currency, &m.ProductName,
		&m.ConsumerName, &m.ConsumerEmail, &m.ConsumerLanguage, &m.Status, &m.PaymentID, &m.PaidAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("invoice", number)
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	return toInvoice(m)
}
