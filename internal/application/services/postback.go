package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// PostbackService applies successful payment confirmations delivered by the gateway.
type PostbackService struct {
	uow        application.UnitOfWork
	codec      application.GatewayCodec
	guard      IdempotencyGuard
	banks      *BankResolver
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewPostbackService(
	uow application.UnitOfWork,
	codec application.GatewayCodec,
	banks *BankResolver,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) *PostbackService {
	return &PostbackService{
		uow:        uow,
		codec:      codec,
		banks:      banks,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CompleteWithGatewayPayment verifies raw, records the payment and settles the invoice of its order.
// A redelivered postback fails with DUPLICATE_PAYMENT and changes nothing.
func (s *PostbackService) CompleteWithGatewayPayment(ctx context.Context, raw []byte) (*domain.Invoice, error) {
	if len(raw) == 0 {
		return nil, application.NewInvalidArgumentError(errMissing("postback payload"))
	}

	msg, err := s.codec.ParsePostback(raw)
	if err != nil {
		s.logger.Warn("postback rejected", "error", err)
		return nil, application.NewInvalidArgumentError(err)
	}
	if err := requireNonEmpty(msg.OrderNumber, "order number"); err != nil {
		return nil, err
	}

	log := s.logger.With("order_number", msg.OrderNumber)
	log.Info("postback received",
		"amount", msg.Amount.String(),
		"currency", msg.Currency,
		"reference", msg.ReferenceNumber,
	)

	bank := s.banks.Resolve(ctx, msg.CardNumber)

	var (
		inv   *domain.Invoice
		event *application.OutboxEvent
	)
	err = s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		if err := s.guard.CheckPostback(ctx, repos.Payments, msg.OrderNumber); err != nil {
			return err
		}

		p, err := domain.NewQazkomPayment(uuid.New().String(), domain.GatewayPaymentParams{
			OrderNumber:     msg.OrderNumber,
			Amount:          msg.Amount,
			Currency:        msg.Currency,
			CreatedAt:       msg.Timestamp,
			ReferenceNumber: msg.ReferenceNumber,
			ApprovalCode:    msg.ApprovalCode,
			ResponseCode:    msg.ResponseCode,
			CardNumber:      msg.CardNumber,
			PayerName:       msg.PayerName,
			CardIssuingBank: bank,
		})
		if err != nil {
			return err
		}
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}

		order, err := repos.Orders.FindByNumber(ctx, msg.OrderNumber)
		if err != nil {
			return err
		}
		if err := order.PaidBy(p); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}

		inv, err = repos.Invoices.FindByNumberForUpdate(ctx, order.InvoiceNumber)
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
		err = application.TranslateError(err)
		if application.IsDuplicatePayment(err) {
			log.Info("postback already processed")
		} else {
			log.Error("postback reconciliation failed",
				"category", application.CategorizeError(err),
				"error", err,
			)
		}
		return nil, err
	}

	log.Info("invoice paid by gateway payment", "invoice_number", inv.Number)

	if err := s.dispatcher.InvoicePaid(ctx, inv, event); err != nil {
		return inv, err
	}
	return inv, nil
}
