package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventTypeInvoiceHasPaid = "invoice.has_paid"

// InvoiceHasPaid is published once an invoice settlement is committed.
type InvoiceHasPaid struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Instant         time.Time       `json:"instant"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	Method          string          `json:"method"`
	ReferenceNumber *string         `json:"referenceNumber,omitempty"`
	PaymentCard     *string         `json:"paymentCard,omitempty"`
	PaymentCardBank *string         `json:"paymentCardBank,omitempty"`
	ExternalID      *string         `json:"externalId,omitempty"`
	PayerName       *string         `json:"payerName,omitempty"`
}

func NewInvoiceHasPaid(inv *Invoice, p *Payment) InvoiceHasPaid {
	ev := InvoiceHasPaid{
		Amount:          p.Amount,
		Currency:        p.Currency,
		Instant:         p.CreatedAt,
		InvoiceNumber:   inv.Number,
		Method:          p.Method(),
		ReferenceNumber: p.ReferenceNumber,
		ExternalID:      optional(inv.ExternalID),
		PayerName:       p.PayerName,
	}
	if p.IsGateway() {
		ev.PaymentCard = p.CardNumber
		ev.PaymentCardBank = p.CardBankCode()
	}
	return ev
}

type NotificationChannel string

type NotificationEvent string

type NotificationRecipient string

const (
	ChannelEmail NotificationChannel = "EMAIL"

	EventPaymentLink    NotificationEvent = "PAYMENT_LINK"
	EventPaymentSuccess NotificationEvent = "PAYMENT_SUCCESS"

	RecipientRequester NotificationRecipient = "REQUESTER"
)

// Notification asks the delivery transport to contact a party about an invoice.
type Notification struct {
	Channel       NotificationChannel   `json:"channel"`
	Event         NotificationEvent     `json:"event"`
	Recipient     NotificationRecipient `json:"recipient"`
	InvoiceNumber string                `json:"invoiceNumber"`
	To            string                `json:"to"`
	ConsumerName  string                `json:"consumerName,omitempty"`
	Language      string                `json:"language"`
	Amount        decimal.Decimal       `json:"amount"`
	Currency      string                `json:"currency"`
	Properties    map[string]string     `json:"properties,omitempty"`
}

// NewInvoiceNotification addresses the requester of inv by email.
func NewInvoiceNotification(event NotificationEvent, inv *Invoice, properties map[string]string) (Notification, error) {
	if !inv.HasConsumerEmail() {
		return Notification{}, NewMissingRequiredFieldError("consumer email")
	}
	return Notification{
		Channel:       ChannelEmail,
		Event:         event,
		Recipient:     RecipientRequester,
		InvoiceNumber: inv.Number,
		To:            *inv.ConsumerEmail,
		ConsumerName:  inv.ConsumerName,
		Language:      inv.LanguageTag(),
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		Properties:    properties,
	}, nil
}
