package domain_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	t.Run("creates pending invoice with generated number", func(t *testing.T) {
		inv, err := domain.NewInvoice(defaultInvoiceParams(), fixedNumber("INV-1"), alwaysUnique)

		require.NoError(t, err)
		assert.Equal(t, "INV-1", inv.Number)
		assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
		assert.Equal(t, "KZT", inv.Currency)
		assert.Equal(t, "en", inv.LanguageTag())
		require.NotNil(t, inv.ConsumerEmail)
		assert.Equal(t, "buyer@example.com", *inv.ConsumerEmail)
		assert.True(t, inv.HasConsumerEmail())
	})

	t.Run("blank email is treated as absent", func(t *testing.T) {
		params := defaultInvoiceParams()
		params.ConsumerEmail = "  "

		inv, err := domain.NewInvoice(params, fixedNumber("INV-1"), alwaysUnique)

		require.NoError(t, err)
		assert.Nil(t, inv.ConsumerEmail)
		assert.False(t, inv.HasConsumerEmail())
	})

	t.Run("defaults language to english", func(t *testing.T) {
		params := defaultInvoiceParams()
		params.ConsumerLanguage = ""

		inv, err := domain.NewInvoice(params, fixedNumber("INV-1"), alwaysUnique)

		require.NoError(t, err)
		assert.Equal(t, "en", inv.LanguageTag())
	})

	t.Run("rejects non positive amount", func(t *testing.T) {
		params := defaultInvoiceParams()
		params.Amount = decimal.Zero

		_, err := domain.NewInvoice(params, fixedNumber("INV-1"), alwaysUnique)

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		params := defaultInvoiceParams()
		params.Currency = "XYZW"

		_, err := domain.NewInvoice(params, fixedNumber("INV-1"), alwaysUnique)

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("fails when every candidate number is taken", func(t *testing.T) {
		_, err := domain.NewInvoice(defaultInvoiceParams(), fixedNumber("INV-1"), neverUnique)

		assert.ErrorIs(t, err, domain.ErrNumberGenerationExhausted)
	})
}

func TestInvoice_StateTransitions(t *testing.T) {
	t.Run("PENDING -> EXPIRED", func(t *testing.T) {
		inv := createInvoice(t)

		require.NoError(t, inv.Expire())
		assert.Equal(t, domain.InvoiceStatusExpired, inv.Status)
	})

	t.Run("PENDING -> PAID", func(t *testing.T) {
		inv := createInvoice(t)
		payment := createUnknownPayment(t)

		require.NoError(t, inv.MarkPaidBy(payment))

		assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
		require.NotNil(t, inv.PaymentID)
		assert.Equal(t, payment.ID, *inv.PaymentID)
		require.NotNil(t, inv.PaidAt)
		assert.True(t, payment.CreatedAt.Equal(*inv.PaidAt))
	})

	t.Run("EXPIRED -> PENDING -> PAID", func(t *testing.T) {
		inv := createInvoice(t)
		require.NoError(t, inv.Expire())

		require.NoError(t, inv.MarkPaidBy(createUnknownPayment(t)))

		assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	})
}

func TestInvoice_InvalidStateTransitions(t *testing.T) {
	t.Run("cannot pay twice", func(t *testing.T) {
		inv := createInvoice(t)
		require.NoError(t, inv.MarkPaidBy(createUnknownPayment(t)))

		err := inv.MarkPaidBy(createUnknownPayment(t))

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("cannot expire an expired invoice", func(t *testing.T) {
		inv := createInvoice(t)
		require.NoError(t, inv.Expire())

		assert.ErrorIs(t, inv.Expire(), domain.ErrInvalidTransition)
	})

	t.Run("cannot expire a paid invoice", func(t *testing.T) {
		inv := createInvoice(t)
		require.NoError(t, inv.MarkPaidBy(createUnknownPayment(t)))

		assert.ErrorIs(t, inv.Expire(), domain.ErrInvalidTransition)
	})

	t.Run("cannot re-open a pending invoice", func(t *testing.T) {
		inv := createInvoice(t)

		assert.ErrorIs(t, inv.Pending(), domain.ErrInvalidTransition)
	})

	t.Run("requires a payment", func(t *testing.T) {
		inv := createInvoice(t)

		assert.ErrorIs(t, inv.MarkPaidBy(nil), domain.ErrInvalidArgument)
		assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
	})
}

func TestReconstituteInvoice_FallsBackToEnglish(t *testing.T) {
	inv := domain.ReconstituteInvoice(
		"INV-1", "ext-1", decimal.NewFromInt(10), "KZT", "", "", nil, "!!",
		domain.InvoiceStatusPending, nil, nil, time.Now(),
	)

	assert.Equal(t, "en", inv.LanguageTag())
}

func defaultInvoiceParams() domain.InvoiceParams {
	return domain.InvoiceParams{
		ExternalID:       "ext-1",
		Amount:           decimal.RequireFromString("1500.50"),
		Currency:         "KZT",
		ProductName:      "Insurance policy",
		ConsumerName:     "Aigerim",
		ConsumerEmail:    "buyer@example.com",
		ConsumerLanguage: "en",
	}
}

func createInvoice(t *testing.T) *domain.Invoice {
	t.Helper()
	inv, err := domain.NewInvoice(defaultInvoiceParams(), domain.RandomInvoiceNumber, alwaysUnique)
	require.NoError(t, err)
	return inv
}

func createUnknownPayment(t *testing.T) *domain.Payment {
	t.Helper()
	id, err := domain.RandomInvoiceNumber()
	require.NoError(t, err)
	p, err := domain.NewUnknownPayment("pay-"+id, domain.UnknownPaymentParams{
		Amount:   decimal.RequireFromString("1500.50"),
		Currency: "KZT",
	})
	require.NoError(t, err)
	return p
}

func fixedNumber(n string) domain.NumberGenerator {
	return func() (string, error) { return n, nil }
}

func alwaysUnique(string) (bool, error) { return true, nil }

func neverUnique(string) (bool, error) { return false, nil }
