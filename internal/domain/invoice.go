// Package domain holds the invoice, payment and gateway order aggregates and their state machines.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusExpired InvoiceStatus = "EXPIRED"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

func (s InvoiceStatus) String() string { return string(s) }

type Invoice struct {
	Number           string
	ExternalID       string
	Amount           decimal.Decimal
	Currency         string
	ProductName      string
	ConsumerName     string
	ConsumerEmail    *string
	ConsumerLanguage language.Tag
	Status           InvoiceStatus

	PaymentID *string
	PaidAt    *time.Time
	CreatedAt time.Time
}

// InvoiceParams carries the caller supplied attributes of a new invoice.
type InvoiceParams struct {
	ExternalID       string
	Amount           decimal.Decimal
	Currency         string
	ProductName      string
	ConsumerName     string
	ConsumerEmail    string
	ConsumerLanguage string
}

// NewInvoice validates params and allocates a unique invoice number through isUnique.
func NewInvoice(params InvoiceParams, generate NumberGenerator, isUnique UniquenessOracle) (*Invoice, error) {
	if !params.Amount.IsPositive() {
		return nil, NewInvalidArgumentError("invoice amount must be positive, got %s", params.Amount)
	}

	cur, err := ParseCurrency(params.Currency)
	if err != nil {
		return nil, err
	}

	lang, err := ParseLanguage(params.ConsumerLanguage)
	if err != nil {
		return nil, err
	}

	number, err := GenerateUniqueNumber(generate, isUnique, DefaultNumberAttempts)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		Number:           number,
		ExternalID:       params.ExternalID,
		Amount:           params.Amount,
		Currency:         cur,
		ProductName:      params.ProductName,
		ConsumerName:     params.ConsumerName,
		ConsumerLanguage: lang,
		Status:           InvoiceStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if email := strings.TrimSpace(params.ConsumerEmail); email != "" {
		inv.ConsumerEmail = &email
	}

	return inv, nil
}

// HasConsumerEmail reports whether notifications can be sent for the invoice.
func (i *Invoice) HasConsumerEmail() bool {
	return i.ConsumerEmail != nil && *i.ConsumerEmail != ""
}

// LanguageTag returns the BCP 47 tag of the consumer's preferred language.
func (i *Invoice) LanguageTag() string {
	base, _ := i.ConsumerLanguage.Base()
	return base.String()
}

// Expire moves a pending invoice to expired.
func (i *Invoice) Expire() error {
	return i.transition(InvoiceStatusExpired)
}

// Pending re-opens an expired invoice.
func (i *Invoice) Pending() error {
	return i.transition(InvoiceStatusPending)
}

// MarkPaidBy settles the invoice with p. An expired invoice is re-opened first.
func (i *Invoice) MarkPaidBy(p *Payment) error {
	if p == nil {
		return NewMissingRequiredFieldError("payment")
	}
	if p.ID == "" {
		return NewMissingRequiredFieldError("payment id")
	}
	if i.Status == InvoiceStatusPaid {
		return NewAlreadyPaidError("invoice", i.Number)
	}

	if i.Status == InvoiceStatusExpired {
		if err := i.Pending(); err != nil {
			return err
		}
	}

	if err := i.transition(InvoiceStatusPaid); err != nil {
		return err
	}

	paidAt := p.CreatedAt
	i.PaymentID = &p.ID
	i.PaidAt = &paidAt
	return nil
}

func (i *Invoice) transition(target InvoiceStatus) error {
	if err := i.canTransitionTo(target); err != nil {
		return err
	}
	i.Status = target
	return nil
}

func (i *Invoice) canTransitionTo(target InvoiceStatus) error {
	var allowed []InvoiceStatus
	switch i.Status {
	case InvoiceStatusPending:
		allowed = []InvoiceStatus{InvoiceStatusExpired, InvoiceStatusPaid}
	case InvoiceStatusExpired:
		allowed = []InvoiceStatus{InvoiceStatusPending}
	}

	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError("invoice "+i.Number, i.Status, target)
}

// ParseCurrency validates an ISO 4217 alphabetic code.
func ParseCurrency(code string) (string, error) {
	if code == "" {
		return "", NewMissingRequiredFieldError("currency")
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", NewInvalidArgumentError("unknown currency %q", code)
	}
	return unit.String(), nil
}

// ParseLanguage parses a BCP 47 tag, defaulting to English when empty.
func ParseLanguage(tag string) (language.Tag, error) {
	if tag == "" {
		return language.English, nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return language.Und, NewInvalidArgumentError("invalid language tag %q", tag)
	}
	return parsed, nil
}

// ReconstituteInvoice - Special constructor for loading from DB
func ReconstituteInvoice(
	number, externalID string,
	amount decimal.Decimal, cur string,
	productName, consumerName string, consumerEmail *string, consumerLanguage string,
	status InvoiceStatus,
	paymentID *string, paidAt *time.Time, createdAt time.Time,
) *Invoice {
	lang, err := language.Parse(consumerLanguage)
	if err != nil {
		lang = language.English
	}
	return &Invoice{
		Number:           number,
		ExternalID:       externalID,
		Amount:           amount,
		Currency:         cur,
		ProductName:      productName,
		ConsumerName:     consumerName,
		ConsumerEmail:    consumerEmail,
		ConsumerLanguage: lang,
		Status:           status,
		PaymentID:        paymentID,
		PaidAt:           paidAt,
		CreatedAt:        createdAt,
	}
}
