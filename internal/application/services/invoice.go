package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// InvoiceService covers the invoice lifecycle operations that do not involve the gateway.
type InvoiceService struct {
	uow        application.UnitOfWork
	dispatcher *Dispatcher
	uris       *PaymentURIBuilder
	newNumber  domain.NumberGenerator
	logger     *slog.Logger
}

func NewInvoiceService(
	uow application.UnitOfWork,
	dispatcher *Dispatcher,
	uris *PaymentURIBuilder,
	logger *slog.Logger,
) *InvoiceService {
	return &InvoiceService{
		uow:        uow,
		dispatcher: dispatcher,
		uris:       uris,
		newNumber:  domain.RandomInvoiceNumber,
		logger:     logger,
	}
}

// WithNumberGenerator replaces the invoice number source.
func (s *InvoiceService) WithNumberGenerator(gen domain.NumberGenerator) *InvoiceService {
	s.newNumber = gen
	return s
}

// Accept creates a pending invoice and sends the payment link when the consumer has an email.
func (s *InvoiceService) Accept(ctx context.Context, cmd AcceptInvoiceCommand) (*domain.Invoice, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	var inv *domain.Invoice
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		inv, err = domain.NewInvoice(domain.InvoiceParams{
			ExternalID:       cmd.ExternalID,
			Amount:           cmd.Amount,
			Currency:         cmd.Currency,
			ProductName:      cmd.ProductName,
			ConsumerName:     cmd.ConsumerName,
			ConsumerEmail:    cmd.ConsumerEmail,
			ConsumerLanguage: cmd.ConsumerLanguage,
		}, s.newNumber, numberFree(func(n string) (bool, error) {
			return repos.Invoices.ExistsByNumber(ctx, n)
		}))
		if err != nil {
			return err
		}
		return repos.Invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, application.TranslateError(err)
	}

	s.logger.Info("invoice accepted",
		"invoice_number", inv.Number,
		"amount", inv.Amount.String(),
		"currency", inv.Currency,
	)

	if err := s.dispatcher.InvoiceAccepted(ctx, inv); err != nil {
		return inv, err
	}
	return inv, nil
}

// Expire moves a pending invoice to expired.
func (s *InvoiceService) Expire(ctx context.Context, number string) (*domain.Invoice, error) {
	if err := requireNonEmpty(number, "invoice number"); err != nil {
		return nil, err
	}

	var inv *domain.Invoice
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		inv, err = repos.Invoices.FindByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if err := inv.Expire(); err != nil {
			return err
		}
		return repos.Invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, application.TranslateError(err)
	}

	s.logger.Info("invoice expired", "invoice_number", number)
	return inv, nil
}

// CompleteWithUnknownPayment settles an invoice with a payment recorded outside the gateway.
func (s *InvoiceService) CompleteWithUnknownPayment(ctx context.Context, cmd UnknownPaymentCommand) (*domain.Invoice, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	var (
		inv   *domain.Invoice
		event *application.OutboxEvent
	)
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		p, err := domain.NewUnknownPayment(uuid.New().String(), domain.UnknownPaymentParams{
			Amount:          cmd.Amount,
			Currency:        cmd.Currency,
			CreatedAt:       cmd.PaidAt,
			ReferenceNumber: cmd.ReferenceNumber,
			PayerName:       cmd.PayerName,
		})
		if err != nil {
			return err
		}
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}

		inv, err = repos.Invoices.FindByNumberForUpdate(ctx, cmd.InvoiceNumber)
		if err != nil {
			return err
		}
		if err := inv.MarkPaidBy(p); err != nil {
			return err
		}
		if err := repos.Invoices.Update(ctx, inv); err != nil {
			return err
		}

		event, err = s.dispatcher.RecordInvoicePaid(ctx, repos.Outbox, inv, p)
		return err
	})
	if err != nil {
		return nil, application.TranslateError(err)
	}

	s.logger.Info("invoice paid with unknown payment", "invoice_number", inv.Number)

	if err := s.dispatcher.InvoicePaid(ctx, inv, event); err != nil {
		return inv, err
	}
	return inv, nil
}

func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	if err := requireNonEmpty(number, "invoice number"); err != nil {
		return nil, err
	}

	var inv *domain.Invoice
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		inv, err = repos.Invoices.FindByNumber(ctx, number)
		return err
	})
	if err != nil {
		return nil, application.TranslateError(err)
	}
	return inv, nil
}

func (s *InvoiceService) HasInvoiceWithNumber(ctx context.Context, number string) (bool, error) {
	if err := requireNonEmpty(number, "invoice number"); err != nil {
		return false, err
	}

	var exists bool
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		var err error
		exists, err = repos.Invoices.ExistsByNumber(ctx, number)
		return err
	})
	if err != nil {
		return false, application.TranslateError(err)
	}
	return exists, nil
}

// DefaultPaymentURI resolves the configured payment page for an existing invoice.
func (s *InvoiceService) DefaultPaymentURI(ctx context.Context, number string) (string, error) {
	inv, err := s.GetByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	uri, err := s.uris.Build(inv)
	if err != nil {
		return "", err
	}
	return uri.String(), nil
}
