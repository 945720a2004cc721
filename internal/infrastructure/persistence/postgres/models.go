package postgres

import (
	"time"
)

// Amounts travel as text so NUMERIC precision survives the round trip into decimal.Decimal.

type InvoiceModel struct {
	Number           string
	ExternalID       string
	Amount           string
	Currency         string
	ProductName      string
	ConsumerName     string
	ConsumerEmail    *string
	ConsumerLanguage string
	Status           string
	PaymentID        *string
	PaidAt           *time.Time
	CreatedAt        time.Time
}

// PaymentModel flattens both payment kinds. Gateway columns are NULL for unknown payments.
type PaymentModel struct {
	ID              string
	Kind            string
	Amount          string
	Currency        string
	ReferenceNumber *string
	PayerName       *string
	OrderNumber     *string
	CardNumber      *string
	CardBankBIN     *string
	CardBankCode    *string
	CardBankName    *string
	ApprovalCode    *string
	ResponseCode    *string
	CreatedAt       time.Time
}

type OrderModel struct {
	Number        string
	InvoiceNumber string
	OrderDoc      string
	CartDoc       string
	PaymentID     *string
	ErrorID       *string
	CreatedAt     time.Time
}

type ErrorModel struct {
	ID          string
	OrderNumber string
	Code        string
	Type        string
	Message     string
	CreatedAt   time.Time
}

type BankModel struct {
	BIN  string
	Code string
	Name string
}

type OutboxModel struct {
	ID          string
	Type        string
	Key         string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}
