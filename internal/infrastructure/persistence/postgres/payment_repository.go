package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

type PaymentRepository struct {
	q Executor
}

func NewPaymentRepository(q Executor) *PaymentRepository {
	return &PaymentRepository{q: q}
}

// Create relies on uq_payments_order_number: a second gateway payment for the same
// order fails with domain.ErrDuplicatePayment even when both writers passed the pre-check.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, kind, amount, currency, reference_number, payer_name,
			order_number, card_number, card_bank_bin, card_bank_code, card_bank_name,
			approval_code, response_code, created_at
		) VALUES ($1::uuid, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	p := toPaymentModel(payment)
	_, err := r.q.Exec(ctx, query,
		p.ID,
		p.Kind,
		p.Amount,
		p.Currency,
		p.ReferenceNumber,
		p.PayerName,
		p.OrderNumber,
		p.CardNumber,
		p.CardBankBIN,
		p.CardBankCode,
		p.CardBankName,
		p.ApprovalCode,
		p.ResponseCode,
		p.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) && p.OrderNumber != nil {
			return domain.NewDuplicatePaymentError(*p.OrderNumber)
		}
		return fmt.Errorf("insert payment %s: %w", p.ID, err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `
		SELECT id::text, kind, amount::text, currency, reference_number, payer_name,
		       order_number, card_number, card_bank_bin, card_bank_code, card_bank_name,
		       approval_code, response_code, created_at
		FROM payments WHERE id = $1::uuid
	`

	var m PaymentModel
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Kind, &m.Amount, &m.Currency, &m.ReferenceNumber, &m.PayerName,
		&m.OrderNumber, &m.CardNumber, &m.CardBankBIN, &m.CardBankCode, &m.CardBankName,
		&m.ApprovalCode, &m.ResponseCode, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("payment", id)
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toPayment(m)
}

func (r *PaymentRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE order_number = $1)`, orderNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check payment for order %s: %w", orderNumber, err)
	}
	return exists, nil
}
