package testhelpers

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

var counter atomic.Int64

// NextNumber returns a process-unique ten digit number for invoices and orders.
func NextNumber() string {
	return fmt.Sprintf("%010d", counter.Add(1))
}

// NewInvoice builds a pending invoice with a fresh number.
func NewInvoice(t *testing.T, amount string, email string) *domain.Invoice {
	t.Helper()
	number := NextNumber()
	inv, err := domain.NewInvoice(domain.InvoiceParams{
		ExternalID:       "policy-" + number,
		Amount:           decimal.RequireFromString(amount),
		Currency:         "KZT",
		ProductName:      "Motor insurance policy",
		ConsumerName:     "Ivan Ivanov",
		ConsumerEmail:    email,
		ConsumerLanguage: "ru",
	},
		func() (string, error) { return number, nil },
		func(string) (bool, error) { return true, nil },
	)
	require.NoError(t, err)
	return inv
}

// NewOrder builds an unpaid gateway order for inv.
func NewOrder(t *testing.T, inv *domain.Invoice) *domain.QazkomOrder {
	t.Helper()
	order, err := domain.NewQazkomOrder(NextNumber(), inv.Number, "<document/>", "<document/>")
	require.NoError(t, err)
	return order
}

// NewGatewayPayment builds a gateway payment settling order.
func NewGatewayPayment(t *testing.T, order *domain.QazkomOrder, amount string, bank *domain.Bank) *domain.Payment {
	t.Helper()
	p, err := domain.NewQazkomPayment(uuid.NewString(), domain.GatewayPaymentParams{
		OrderNumber:     order.Number,
		Amount:          decimal.RequireFromString(amount),
		Currency:        "KZT",
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
		ReferenceNumber: "618704198173",
		ApprovalCode:    "447753",
		ResponseCode:    "00",
		CardNumber:      "440564-XX-XXXX-6150",
		PayerName:       "IVAN IVANOV",
		CardIssuingBank: bank,
	})
	require.NoError(t, err)
	return p
}

// NewGatewayError builds a failure report for order.
func NewGatewayError(t *testing.T, orderNumber, message string) *domain.QazkomError {
	t.Helper()
	e, err := domain.NewQazkomError(uuid.NewString(), orderNumber, "00", "system", message, time.Now())
	require.NoError(t, err)
	return e
}
