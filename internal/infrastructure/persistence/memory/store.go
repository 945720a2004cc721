// Package memory is a transactional in-process store implementing the application ports.
// Units of work are serialized; each runs against a private copy of the state that
// replaces the shared state only when it commits.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

type state struct {
	invoices map[string]domain.Invoice
	payments map[string]domain.Payment
	orders   map[string]domain.QazkomOrder
	errors   map[string]domain.QazkomError
	outbox   map[string]application.OutboxEvent
	// order numbers of gateway payments, the store level uniqueness key
	paidOrders map[string]string
	seq        int64
	orderSeq   map[string]int64
}

func newState() *state {
	return &state{
		invoices:   map[string]domain.Invoice{},
		payments:   map[string]domain.Payment{},
		orders:     map[string]domain.QazkomOrder{},
		errors:     map[string]domain.QazkomError{},
		outbox:     map[string]application.OutboxEvent{},
		paidOrders: map[string]string{},
		orderSeq:   map[string]int64{},
	}
}

func (s *state) clone() *state {
	return &state{
		invoices:   maps.Clone(s.invoices),
		payments:   maps.Clone(s.payments),
		orders:     maps.Clone(s.orders),
		errors:     maps.Clone(s.errors),
		outbox:     maps.Clone(s.outbox),
		paidOrders: maps.Clone(s.paidOrders),
		seq:        s.seq,
		orderSeq:   maps.Clone(s.orderSeq),
	}
}

type Store struct {
	mu    sync.Mutex
	state *state

	banksMu sync.RWMutex
	banks   map[string]domain.Bank
}

func NewStore() *Store {
	return &Store{
		state: newState(),
		banks: map[string]domain.Bank{},
	}
}

// WithTransaction implements application.UnitOfWork.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.state.clone()
	if err := fn(ctx, repositories(tx)); err != nil {
		return err
	}

	s.state = tx
	return nil
}

func repositories(st *state) application.Repositories {
	return application.Repositories{
		Invoices: &invoiceRepository{st: st},
		Payments: &paymentRepository{st: st},
		Orders:   &orderRepository{st: st},
		Errors:   &errorRepository{st: st},
		Outbox:   &outboxRepository{st: st},
	}
}

// AddBank registers issuer reference data.
func (s *Store) AddBank(b domain.Bank) {
	s.banksMu.Lock()
	defer s.banksMu.Unlock()
	s.banks[b.BIN] = b
}

// Banks returns the read-only issuer lookup.
func (s *Store) Banks() application.BankRepository {
	return &bankRepository{store: s}
}

// Snapshot counts committed records. Tests use it to assert what a unit of work left behind.
type Snapshot struct {
	Invoices int
	Payments int
	Orders   int
	Errors   int
	Outbox   int
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Invoices: len(s.state.invoices),
		Payments: len(s.state.payments),
		Orders:   len(s.state.orders),
		Errors:   len(s.state.errors),
		Outbox:   len(s.state.outbox),
	}
}
