package domain_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQazkomOrder_PaidBy(t *testing.T) {
	t.Run("attaches payment once", func(t *testing.T) {
		order := createOrder(t, "0000000001")
		p := createQazkomPayment(t, "0000000001", nil)

		require.NoError(t, order.PaidBy(p))
		assert.True(t, order.IsPaid())
		assert.Equal(t, p.ID, *order.PaymentID)

		err := order.PaidBy(p)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("rejects payment of another order", func(t *testing.T) {
		order := createOrder(t, "0000000001")

		err := order.PaidBy(createQazkomPayment(t, "0000000002", nil))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.False(t, order.IsPaid())
	})

	t.Run("rejects unknown payment", func(t *testing.T) {
		order := createOrder(t, "0000000001")

		err := order.PaidBy(createUnknownPayment(t))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestQazkomOrder_AttachError(t *testing.T) {
	t.Run("latest error replaces previous one", func(t *testing.T) {
		order := createOrder(t, "0000000001")
		first := createError(t, "err-1", "0000000001")
		second := createError(t, "err-2", "0000000001")

		require.NoError(t, order.AttachError(first))
		require.NoError(t, order.AttachError(second))

		assert.Equal(t, "err-2", *order.ErrorID)
	})

	t.Run("paid order refuses errors", func(t *testing.T) {
		order := createOrder(t, "0000000001")
		require.NoError(t, order.PaidBy(createQazkomPayment(t, "0000000001", nil)))

		err := order.AttachError(createError(t, "err-1", "0000000001"))

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Nil(t, order.ErrorID)
	})

	t.Run("rejects error of another order", func(t *testing.T) {
		order := createOrder(t, "0000000001")

		err := order.AttachError(createError(t, "err-1", "0000000009"))

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestQazkomOrder_Documents(t *testing.T) {
	order := createOrder(t, "0000000001")

	decoded, err := base64.StdEncoding.DecodeString(order.OrderDocBase64())
	require.NoError(t, err)
	assert.Equal(t, order.OrderDoc, string(decoded))

	decoded, err = base64.StdEncoding.DecodeString(order.CartDocBase64())
	require.NoError(t, err)
	assert.Equal(t, order.CartDoc, string(decoded))
}

func TestNewQazkomOrder_RequiresDocuments(t *testing.T) {
	_, err := domain.NewQazkomOrder("0000000001", "INV-1", "", "<document/>")

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCardBIN(t *testing.T) {
	tests := []struct {
		name   string
		card   string
		bin    string
		parsed bool
	}{
		{"masked card", "440564-XX-XXXX-6150", "440564", true},
		{"too short", "4405", "", false},
		{"masked prefix", "XXXXXX-XX-XXXX-6150", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, ok := domain.CardBIN(tt.card)

			assert.Equal(t, tt.parsed, ok)
			assert.Equal(t, tt.bin, bin)
		})
	}
}

func createOrder(t *testing.T, number string) *domain.QazkomOrder {
	t.Helper()
	order, err := domain.NewQazkomOrder(number, "INV-1", "<document><merchant/></document>", "<document><item/></document>")
	require.NoError(t, err)
	return order
}

func createError(t *testing.T, id, orderNumber string) *domain.QazkomError {
	t.Helper()
	e, err := domain.NewQazkomError(id, orderNumber, "00", "system", "card declined", time.Now())
	require.NoError(t, err)
	return e
}
