package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// BankRepository reads the BIN directory straight from the pool.
type BankRepository struct {
	q Executor
}

func NewBankRepository(db *DB) *BankRepository {
	return &BankRepository{q: db.Pool}
}

func (r *BankRepository) FindByBIN(ctx context.Context, bin string) (*domain.Bank, error) {
	var m BankModel
	err := r.q.QueryRow(ctx, `SELECT bin, code, name FROM banks WHERE bin = $1`, bin).Scan(&m.BIN, &m.Code, &m.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("bank", bin)
		}
		return nil, fmt.Errorf("failed to scan bank: %w", err)
	}
	return &domain.Bank{BIN: m.BIN, Code: m.Code, Name: m.Name}, nil
}

// Upsert maintains the directory; used by seeding and tests.
func (r *BankRepository) Upsert(ctx context.Context, b domain.Bank) error {
	query := `
		INSERT INTO banks (bin, code, name) VALUES ($1, $2, $3)
		ON CONFLICT (bin) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name
	`
	if _, err := r.q.Exec(ctx, query, b.BIN, b.Code, b.Name); err != nil {
		return fmt.Errorf("upsert bank %s: %w", b.BIN, err)
	}
	return nil
}
