package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
	"github.com/shopspring/decimal"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	Update(ctx context.Context, invoice *domain.Invoice) error
	FindByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	// FindByNumberForUpdate locks the invoice for the rest of the unit of work.
	FindByNumberForUpdate(ctx context.Context, number string) (*domain.Invoice, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// PaymentRepository persists settled payments.
// Create must fail with domain.ErrDuplicatePayment when a gateway payment for the
// same order number already exists, regardless of any earlier ExistsByOrderNumber check.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.QazkomOrder) error
	Update(ctx context.Context, order *domain.QazkomOrder) error
	FindByNumber(ctx context.Context, number string) (*domain.QazkomOrder, error)
	// FindLatestForInvoice returns nil without error when the invoice has no order yet.
	FindLatestForInvoice(ctx context.Context, invoiceNumber string) (*domain.QazkomOrder, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

type ErrorRepository interface {
	Save(ctx context.Context, e *domain.QazkomError) error
}

// BankRepository is read-only reference data, queried outside any unit of work.
type BankRepository interface {
	FindByBIN(ctx context.Context, bin string) (*domain.Bank, error)
}

// OutboxEvent is a domain event recorded in the same transaction as the state change it describes.
type OutboxEvent struct {
	ID          string
	Type        string
	Key         string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type OutboxRepository interface {
	Save(ctx context.Context, event *OutboxEvent) error
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// Repositories is the set of stores bound to one unit of work.
type Repositories struct {
	Invoices InvoiceRepository
	Payments PaymentRepository
	Orders   OrderRepository
	Errors   ErrorRepository
	Outbox   OutboxRepository
}

// UnitOfWork runs fn atomically. Every mutation made through repos commits
// when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Notifier is the fire-and-forget notification transport.
type Notifier interface {
	Send(ctx context.Context, n domain.Notification) error
}

// EventPublisher delivers outbox events to the broker at least once.
type EventPublisher interface {
	Publish(ctx context.Context, event *OutboxEvent) error
}

// MerchantCredentials identifies the merchant to the gateway.
type MerchantCredentials struct {
	MerchantID string
	Name       string
	CertID     string
}

type OrderDocumentRequest struct {
	Merchant    MerchantCredentials
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
}

type CartItem struct {
	Name     string
	Quantity int
	Amount   decimal.Decimal
}

// PostbackMessage is a postback whose signature has already been verified.
type PostbackMessage struct {
	OrderNumber     string
	Amount          decimal.Decimal
	Currency        string
	Timestamp       time.Time
	ReferenceNumber string
	ApprovalCode    string
	ResponseCode    string
	CardNumber      string
	PayerName       string
	PayerEmail      string
}

type FailureMessage struct {
	OrderNumber string
	Code        string
	Type        string
	Message     string
	Timestamp   time.Time
}

// GatewayCodec is the bank protocol capability. ParsePostback fails with
// domain.ErrInvalidArgument when the payload is malformed or its signature does not verify.
type GatewayCodec interface {
	ParsePostback(raw []byte) (*PostbackMessage, error)
	ParseFailure(raw []byte) (*FailureMessage, error)
	SignOrder(req OrderDocumentRequest) (string, error)
	BuildCart(items []CartItem) (string, error)
}
