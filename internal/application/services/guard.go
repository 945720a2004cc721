package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// IdempotencyGuard rejects postbacks whose order number was already reconciled.
// The check is advisory. PaymentRepository.Create enforces the same rule at the store.
type IdempotencyGuard struct{}

func (IdempotencyGuard) CheckPostback(ctx context.Context, payments application.PaymentRepository, orderNumber string) error {
	exists, err := payments.ExistsByOrderNumber(ctx, orderNumber)
	if err != nil {
		return fmt.Errorf("check processed order %s: %w", orderNumber, err)
	}
	if exists {
		return domain.NewDuplicatePaymentError(orderNumber)
	}
	return nil
}

// BankResolver annotates card payments with the issuing bank. Every failure degrades to nil.
type BankResolver struct {
	banks  application.BankRepository
	logger *slog.Logger
}

func NewBankResolver(banks application.BankRepository, logger *slog.Logger) *BankResolver {
	return &BankResolver{banks: banks, logger: logger}
}

func (r *BankResolver) Resolve(ctx context.Context, maskedCard string) *domain.Bank {
	if r == nil || r.banks == nil {
		return nil
	}
	bin, ok := domain.CardBIN(maskedCard)
	if !ok {
		return nil
	}

	bank, err := r.banks.FindByBIN(ctx, bin)
	if err != nil {
		r.logger.Debug("issuing bank not resolved", "bin", bin, "error", err)
		return nil
	}
	return bank
}
