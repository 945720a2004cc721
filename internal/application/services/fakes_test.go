package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event *application.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// stubCodec accepts only payloads registered through postback/failure.
type stubCodec struct {
	mu        sync.Mutex
	postbacks map[string]application.PostbackMessage
	failures  map[string]application.FailureMessage
	signed    atomic.Int32
}

func newStubCodec() *stubCodec {
	return &stubCodec{
		postbacks: map[string]application.PostbackMessage{},
		failures:  map[string]application.FailureMessage{},
	}
}

func (c *stubCodec) postback(orderNumber, card string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw := fmt.Sprintf("<document><order order_id=%q/><sig>%d</sig></document>", orderNumber, len(c.postbacks))
	c.postbacks[raw] = application.PostbackMessage{
		OrderNumber:     orderNumber,
		Amount:          decimal.RequireFromString("15000.00"),
		Currency:        "KZT",
		Timestamp:       time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		ReferenceNumber: "618704198173",
		ApprovalCode:    "447753",
		ResponseCode:    "00",
		CardNumber:      card,
		PayerName:       "Ivan Ivanov",
	}
	return []byte(raw)
}

func (c *stubCodec) failure(orderNumber, message string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw := fmt.Sprintf("<response order_id=%q><error>%s</error></response>", orderNumber, message)
	c.failures[raw] = application.FailureMessage{
		OrderNumber: orderNumber,
		Code:        "05",
		Type:        "system",
		Message:     message,
		Timestamp:   time.Now(),
	}
	return []byte(raw)
}

func (c *stubCodec) ParsePostback(raw []byte) (*application.PostbackMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.postbacks[string(raw)]
	if !ok {
		return nil, domain.NewInvalidArgumentError("bank signature verification failed")
	}
	return &msg, nil
}

func (c *stubCodec) ParseFailure(raw []byte) (*application.FailureMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.failures[string(raw)]
	if !ok {
		return nil, domain.NewInvalidArgumentError("malformed failure report")
	}
	return &msg, nil
}

func (c *stubCodec) SignOrder(req application.OrderDocumentRequest) (string, error) {
	c.signed.Add(1)
	return fmt.Sprintf(`<document><merchant cert_id=%q><order order_id=%q amount="%s"/></merchant></document>`,
		req.Merchant.CertID, req.OrderNumber, req.Amount.StringFixed(2)), nil
}

func (c *stubCodec) BuildCart(items []application.CartItem) (string, error) {
	return fmt.Sprintf(`<document><item number="1" name=%q/></document>`, items[0].Name), nil
}

// sequence yields prefix1, prefix2, ...
func sequence(prefix string) domain.NumberGenerator {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("%s%d", prefix, n.Add(1)), nil
	}
}

// lockRecorder records which invoices a unit of work locked before touching orders.
type lockRecorder struct {
	inner application.UnitOfWork

	mu     sync.Mutex
	locked []string
}

func (l *lockRecorder) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	return l.inner.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		repos.Invoices = &lockingInvoices{InvoiceRepository: repos.Invoices, rec: l}
		return fn(ctx, repos)
	})
}

func (l *lockRecorder) lockedNumbers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.locked...)
}

type lockingInvoices struct {
	application.InvoiceRepository
	rec *lockRecorder
}

func (r *lockingInvoices) FindByNumberForUpdate(ctx context.Context, number string) (*domain.Invoice, error) {
	r.rec.mu.Lock()
	r.rec.locked = append(r.rec.locked, number)
	r.rec.mu.Unlock()
	return r.InvoiceRepository.FindByNumberForUpdate(ctx, number)
}
