package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnknownPayment(t *testing.T) {
	t.Run("creates payment without gateway fields", func(t *testing.T) {
		paid := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		p, err := domain.NewUnknownPayment("pay-1", domain.UnknownPaymentParams{
			Amount:          decimal.NewFromInt(100),
			Currency:        "usd",
			CreatedAt:       &paid,
			ReferenceNumber: "ref-1",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentKindUnknown, p.Kind)
		assert.Equal(t, "USD", p.Currency)
		assert.Equal(t, paid, p.CreatedAt)
		assert.Equal(t, "ref-1", *p.ReferenceNumber)
		assert.Nil(t, p.PayerName)
		assert.Nil(t, p.CardNumber)
		assert.Nil(t, p.CardBankCode())
		assert.Equal(t, "UNKNOWN", p.Method())
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := domain.NewUnknownPayment("pay-1", domain.UnknownPaymentParams{
			Amount:   decimal.Zero,
			Currency: "USD",
		})

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("rejects missing currency", func(t *testing.T) {
		_, err := domain.NewUnknownPayment("pay-1", domain.UnknownPaymentParams{
			Amount: decimal.NewFromInt(1),
		})

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField))
	})
}

func TestNewQazkomPayment(t *testing.T) {
	t.Run("carries card and bank", func(t *testing.T) {
		p := createQazkomPayment(t, "0000000001", &domain.Bank{BIN: "440564", Code: "KZKO", Name: "Kazkom"})

		assert.Equal(t, domain.PaymentKindQazkom, p.Kind)
		assert.Equal(t, "0000000001", *p.OrderNumber)
		assert.Equal(t, "440564-XX-XXXX-6150", *p.CardNumber)
		require.NotNil(t, p.CardBankCode())
		assert.Equal(t, "KZKO", *p.CardBankCode())
	})

	t.Run("bank code absent when bank unresolved", func(t *testing.T) {
		p := createQazkomPayment(t, "0000000001", nil)

		assert.Nil(t, p.CardBankCode())
	})

	t.Run("requires order number", func(t *testing.T) {
		_, err := domain.NewQazkomPayment("pay-1", domain.GatewayPaymentParams{
			Amount:   decimal.NewFromInt(1),
			Currency: "KZT",
		})

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestNewInvoiceHasPaid(t *testing.T) {
	t.Run("gateway payment includes card and bank", func(t *testing.T) {
		inv := createInvoice(t)
		p := createQazkomPayment(t, "0000000001", &domain.Bank{BIN: "440564", Code: "KZKO"})

		ev := domain.NewInvoiceHasPaid(inv, p)

		assert.Equal(t, inv.Number, ev.InvoiceNumber)
		assert.Equal(t, "QAZKOM", ev.Method)
		assert.Equal(t, "440564-XX-XXXX-6150", *ev.PaymentCard)
		assert.Equal(t, "KZKO", *ev.PaymentCardBank)
		assert.Equal(t, "ext-1", *ev.ExternalID)
		assert.Equal(t, "John Doe", *ev.PayerName)
	})

	t.Run("unknown payment omits card fields from json", func(t *testing.T) {
		inv := createInvoice(t)
		inv.ExternalID = ""
		p := createUnknownPayment(t)

		ev := domain.NewInvoiceHasPaid(inv, p)
		raw, err := json.Marshal(ev)
		require.NoError(t, err)

		assert.Nil(t, ev.PaymentCard)
		assert.NotContains(t, string(raw), "paymentCard")
		assert.NotContains(t, string(raw), "externalId")
		assert.Contains(t, string(raw), `"amount":"1500.5"`)
	})
}

func TestGenerateUniqueNumber(t *testing.T) {
	t.Run("returns first accepted candidate", func(t *testing.T) {
		candidates := []string{"A", "B", "C"}
		i := 0
		gen := func() (string, error) { c := candidates[i]; i++; return c, nil }

		n, err := domain.GenerateUniqueNumber(gen, func(s string) (bool, error) { return s == "B", nil }, 5)

		require.NoError(t, err)
		assert.Equal(t, "B", n)
	})

	t.Run("stops after attempt budget", func(t *testing.T) {
		calls := 0
		_, err := domain.GenerateUniqueNumber(domain.RandomOrderNumber, func(string) (bool, error) {
			calls++
			return false, nil
		}, 3)

		assert.ErrorIs(t, err, domain.ErrNumberGenerationExhausted)
		assert.Equal(t, 3, calls)
	})

	t.Run("propagates oracle failure", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := domain.GenerateUniqueNumber(domain.RandomOrderNumber, func(string) (bool, error) {
			return false, boom
		}, 3)

		assert.ErrorIs(t, err, boom)
	})

	t.Run("propagates generator failure", func(t *testing.T) {
		boom := errors.New("entropy exhausted")
		calls := 0
		_, err := domain.GenerateUniqueNumber(func() (string, error) { return "", boom }, func(string) (bool, error) {
			calls++
			return true, nil
		}, 3)

		assert.ErrorIs(t, err, boom)
		assert.Zero(t, calls)
	})

	t.Run("number formats", func(t *testing.T) {
		order, err := domain.RandomOrderNumber()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{10}$`, order)

		invoice, err := domain.RandomInvoiceNumber()
		require.NoError(t, err)
		assert.Regexp(t, `^[A-HJ-NP-Z2-9]{8}$`, invoice)
	})
}

func createQazkomPayment(t *testing.T, orderNumber string, bank *domain.Bank) *domain.Payment {
	t.Helper()
	p, err := domain.NewQazkomPayment("pay-"+orderNumber, domain.GatewayPaymentParams{
		OrderNumber:     orderNumber,
		Amount:          decimal.RequireFromString("1500.50"),
		Currency:        "KZT",
		CreatedAt:       time.Now(),
		ReferenceNumber: "618704198173",
		ApprovalCode:    "447753",
		ResponseCode:    "00",
		CardNumber:      "440564-XX-XXXX-6150",
		PayerName:       "John Doe",
		CardIssuingBank: bank,
	})
	require.NoError(t, err)
	return p
}
