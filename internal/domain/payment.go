package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind discriminates the payment variants.
type PaymentKind string

const (
	// PaymentKindUnknown is a manually recorded payment with no gateway order behind it.
	PaymentKindUnknown PaymentKind = "UNKNOWN"
	// PaymentKindQazkom is produced from a validated gateway postback.
	PaymentKindQazkom PaymentKind = "QAZKOM"
)

// Payment settles exactly one invoice. Gateway only fields are nil for unknown payments.
type Payment struct {
	ID              string
	Kind            PaymentKind
	Amount          decimal.Decimal
	Currency        string
	CreatedAt       time.Time
	ReferenceNumber *string
	PayerName       *string

	OrderNumber     *string
	CardNumber      *string
	CardIssuingBank *Bank
	ApprovalCode    *string
	ResponseCode    *string
}

// UnknownPaymentParams describes a payment recorded by an operator.
type UnknownPaymentParams struct {
	Amount          decimal.Decimal
	Currency        string
	CreatedAt       *time.Time
	ReferenceNumber string
	PayerName       string
}

func NewUnknownPayment(id string, params UnknownPaymentParams) (*Payment, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("payment id")
	}
	if params.Amount.IsZero() {
		return nil, NewInvalidArgumentError("paid amount must be non-zero")
	}
	cur, err := ParseCurrency(params.Currency)
	if err != nil {
		return nil, err
	}

	created := time.Now().UTC()
	if params.CreatedAt != nil {
		created = params.CreatedAt.UTC()
	}

	return &Payment{
		ID:              id,
		Kind:            PaymentKindUnknown,
		Amount:          params.Amount,
		Currency:        cur,
		CreatedAt:       created,
		ReferenceNumber: optional(params.ReferenceNumber),
		PayerName:       optional(params.PayerName),
	}, nil
}

// GatewayPaymentParams is the payment part of a validated postback.
type GatewayPaymentParams struct {
	OrderNumber     string
	Amount          decimal.Decimal
	Currency        string
	CreatedAt       time.Time
	ReferenceNumber string
	ApprovalCode    string
	ResponseCode    string
	CardNumber      string
	PayerName       string
	CardIssuingBank *Bank
}

func NewQazkomPayment(id string, params GatewayPaymentParams) (*Payment, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("payment id")
	}
	if params.OrderNumber == "" {
		return nil, NewMissingRequiredFieldError("order number")
	}
	if params.Amount.IsZero() {
		return nil, NewInvalidArgumentError("paid amount must be non-zero")
	}
	cur, err := ParseCurrency(params.Currency)
	if err != nil {
		return nil, err
	}

	created := params.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	orderNumber := params.OrderNumber
	return &Payment{
		ID:              id,
		Kind:            PaymentKindQazkom,
		Amount:          params.Amount,
		Currency:        cur,
		CreatedAt:       created.UTC(),
		ReferenceNumber: optional(params.ReferenceNumber),
		PayerName:       optional(params.PayerName),
		OrderNumber:     &orderNumber,
		CardNumber:      optional(params.CardNumber),
		CardIssuingBank: params.CardIssuingBank,
		ApprovalCode:    optional(params.ApprovalCode),
		ResponseCode:    optional(params.ResponseCode),
	}, nil
}

// Method is the payment method tag carried by the paid event.
func (p *Payment) Method() string {
	return string(p.Kind)
}

func (p *Payment) IsGateway() bool {
	return p.Kind == PaymentKindQazkom
}

// CardBankCode is the issuing bank code, or nil when unresolved or not a card payment.
func (p *Payment) CardBankCode() *string {
	if !p.IsGateway() || p.CardIssuingBank == nil || p.CardIssuingBank.Code == "" {
		return nil
	}
	code := p.CardIssuingBank.Code
	return &code
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
