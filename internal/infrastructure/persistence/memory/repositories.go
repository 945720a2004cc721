package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

type invoiceRepository struct {
	st *state
}

func (r *invoiceRepository) Create(_ context.Context, inv *domain.Invoice) error {
	if _, ok := r.st.invoices[inv.Number]; ok {
		return fmt.Errorf("invoice %s already exists", inv.Number)
	}
	r.st.invoices[inv.Number] = *inv
	return nil
}

func (r *invoiceRepository) Update(_ context.Context, inv *domain.Invoice) error {
	if _, ok := r.st.invoices[inv.Number]; !ok {
		return domain.NewNotFoundError("invoice", inv.Number)
	}
	r.st.invoices[inv.Number] = *inv
	return nil
}

func (r *invoiceRepository) FindByNumber(_ context.Context, number string) (*domain.Invoice, error) {
	inv, ok := r.st.invoices[number]
	if !ok {
		return nil, domain.NewNotFoundError("invoice", number)
	}
	return &inv, nil
}

// FindByNumberForUpdate needs no lock; units of work are already serialized.
func (r *invoiceRepository) FindByNumberForUpdate(ctx context.Context, number string) (*domain.Invoice, error) {
	return r.FindByNumber(ctx, number)
}

func (r *invoiceRepository) ExistsByNumber(_ context.Context, number string) (bool, error) {
	_, ok := r.st.invoices[number]
	return ok, nil
}

type paymentRepository struct {
	st *state
}

func (r *paymentRepository) Create(_ context.Context, p *domain.Payment) error {
	if _, ok := r.st.payments[p.ID]; ok {
		return fmt.Errorf("payment %s already exists", p.ID)
	}
	if p.OrderNumber != nil {
		if _, ok := r.st.paidOrders[*p.OrderNumber]; ok {
			return domain.NewDuplicatePaymentError(*p.OrderNumber)
		}
		r.st.paidOrders[*p.OrderNumber] = p.ID
	}
	r.st.payments[p.ID] = *p
	return nil
}

func (r *paymentRepository) FindByID(_ context.Context, id string) (*domain.Payment, error) {
	p, ok := r.st.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError("payment", id)
	}
	return &p, nil
}

func (r *paymentRepository) ExistsByOrderNumber(_ context.Context, orderNumber string) (bool, error) {
	_, ok := r.st.paidOrders[orderNumber]
	return ok, nil
}

type orderRepository struct {
	st *state
}

func (r *orderRepository) Create(_ context.Context, o *domain.QazkomOrder) error {
	if _, ok := r.st.orders[o.Number]; ok {
		return fmt.Errorf("order %s already exists", o.Number)
	}
	r.st.seq++
	r.st.orderSeq[o.Number] = r.st.seq
	r.st.orders[o.Number] = *o
	return nil
}

func (r *orderRepository) Update(_ context.Context, o *domain.QazkomOrder) error {
	if _, ok := r.st.orders[o.Number]; !ok {
		return domain.NewNotFoundError("gateway order", o.Number)
	}
	r.st.orders[o.Number] = *o
	return nil
}

func (r *orderRepository) FindByNumber(_ context.Context, number string) (*domain.QazkomOrder, error) {
	o, ok := r.st.orders[number]
	if !ok {
		return nil, domain.NewNotFoundError("gateway order", number)
	}
	return &o, nil
}

func (r *orderRepository) FindLatestForInvoice(_ context.Context, invoiceNumber string) (*domain.QazkomOrder, error) {
	var (
		latest *domain.QazkomOrder
		seq    int64
	)
	for number, o := range r.st.orders {
		if o.InvoiceNumber != invoiceNumber {
			continue
		}
		if s := r.st.orderSeq[number]; latest == nil || s > seq {
			latest, seq = &o, s
		}
	}
	return latest, nil
}

func (r *orderRepository) ExistsByNumber(_ context.Context, number string) (bool, error) {
	_, ok := r.st.orders[number]
	return ok, nil
}

type errorRepository struct {
	st *state
}

func (r *errorRepository) Save(_ context.Context, e *domain.QazkomError) error {
	r.st.errors[e.ID] = *e
	return nil
}

type outboxRepository struct {
	st *state
}

func (r *outboxRepository) Save(_ context.Context, e *application.OutboxEvent) error {
	ev := *e
	ev.Payload = slices.Clone(e.Payload)
	r.st.outbox[e.ID] = ev
	return nil
}

func (r *outboxRepository) FindUnpublished(_ context.Context, limit int) ([]*application.OutboxEvent, error) {
	var events []*application.OutboxEvent
	for _, e := range r.st.outbox {
		if e.PublishedAt != nil {
			continue
		}
		events = append(events, &e)
	}
	slices.SortFunc(events, func(a, b *application.OutboxEvent) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *outboxRepository) MarkPublished(_ context.Context, id string, at time.Time) error {
	e, ok := r.st.outbox[id]
	if !ok {
		return domain.NewNotFoundError("outbox event", id)
	}
	e.PublishedAt = &at
	r.st.outbox[id] = e
	return nil
}

type bankRepository struct {
	store *Store
}

func (r *bankRepository) FindByBIN(_ context.Context, bin string) (*domain.Bank, error) {
	r.store.banksMu.RLock()
	b, ok := r.store.banks[bin]
	r.store.banksMu.RUnlock()
	if !ok {
		return nil, domain.NewNotFoundError("bank", bin)
	}
	return &b, nil
}
