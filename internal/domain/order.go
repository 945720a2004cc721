package domain

import (
	"encoding/base64"
	"time"
)

// QazkomOrder is a single payment attempt registered with the bank gateway for one invoice.
type QazkomOrder struct {
	Number        string
	InvoiceNumber string
	OrderDoc      string
	CartDoc       string
	PaymentID     *string
	ErrorID       *string
	CreatedAt     time.Time
}

func NewQazkomOrder(number, invoiceNumber, orderDoc, cartDoc string) (*QazkomOrder, error) {
	if number == "" {
		return nil, NewMissingRequiredFieldError("order number")
	}
	if invoiceNumber == "" {
		return nil, NewMissingRequiredFieldError("invoice number")
	}
	if orderDoc == "" {
		return nil, NewMissingRequiredFieldError("signed order document")
	}
	if cartDoc == "" {
		return nil, NewMissingRequiredFieldError("cart document")
	}

	return &QazkomOrder{
		Number:        number,
		InvoiceNumber: invoiceNumber,
		OrderDoc:      orderDoc,
		CartDoc:       cartDoc,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (o *QazkomOrder) IsPaid() bool {
	return o.PaymentID != nil
}

// PaidBy attaches the gateway payment that settled the order.
func (o *QazkomOrder) PaidBy(p *Payment) error {
	if p == nil {
		return NewMissingRequiredFieldError("payment")
	}
	if !p.IsGateway() {
		return NewInvalidArgumentError("order %s can only be paid by a gateway payment", o.Number)
	}
	if p.OrderNumber == nil || *p.OrderNumber != o.Number {
		return NewInvalidArgumentError("payment does not belong to order %s", o.Number)
	}
	if o.IsPaid() {
		return NewAlreadyPaidError("order", o.Number)
	}

	o.PaymentID = &p.ID
	return nil
}

// AttachError records the latest failure report. A paid order no longer accepts failures.
func (o *QazkomOrder) AttachError(e *QazkomError) error {
	if e == nil {
		return NewMissingRequiredFieldError("error")
	}
	if e.OrderNumber != o.Number {
		return NewInvalidArgumentError("error does not belong to order %s", o.Number)
	}
	if o.IsPaid() {
		return NewAlreadyPaidError("order", o.Number)
	}

	o.ErrorID = &e.ID
	return nil
}

func (o *QazkomOrder) OrderDocBase64() string {
	return base64.StdEncoding.EncodeToString([]byte(o.OrderDoc))
}

func (o *QazkomOrder) CartDocBase64() string {
	return base64.StdEncoding.EncodeToString([]byte(o.CartDoc))
}

// QazkomError is an asynchronous failure report keyed by order number.
type QazkomError struct {
	ID          string
	OrderNumber string
	Code        string
	Type        string
	Message     string
	CreatedAt   time.Time
}

func NewQazkomError(id, orderNumber, code, errType, message string, createdAt time.Time) (*QazkomError, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("error id")
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &QazkomError{
		ID:          id,
		OrderNumber: orderNumber,
		Code:        code,
		Type:        errType,
		Message:     message,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// Bank maps a card BIN prefix to the issuing bank.
type Bank struct {
	BIN  string
	Code string
	Name string
}

// BINLength is the number of leading card digits identifying the issuer.
const BINLength = 6

// CardBIN extracts the BIN from a masked card such as "440564-XX-XXXX-6150".
func CardBIN(maskedCard string) (string, bool) {
	if len(maskedCard) < BINLength {
		return "", false
	}
	bin := maskedCard[:BINLength]
	for _, r := range bin {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return bin, true
}
