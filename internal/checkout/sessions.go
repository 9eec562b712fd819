package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_market/internal/pricing"
	"go.uber.org/zap"
)

// Sessions keeps the running checkout of every owner.
type Sessions struct {
	orders OrderSubmitter
	ledger AttemptLedger
	bill   pricing.BillOptions
	logger *zap.Logger

	mu    sync.Mutex
	byOwn map[string]*Orchestrator
}

func NewSessions(orders OrderSubmitter, ledger AttemptLedger, bill pricing.BillOptions, logger *zap.Logger) *Sessions {
	return &Sessions{
		orders: orders,
		ledger: ledger,
		bill:   bill,
		logger: logger,
		byOwn:  make(map[string]*Orchestrator),
	}
}

// Start begins a new checkout for owner at the shipping step, replacing a finished or
// abandoned one. A checkout that is still running is returned as is.
func (s *Sessions) Start(owner string, cart Cart) *Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.byOwn[owner]; ok && !o.Step().IsTerminal() {
		return o
	}
	o := NewOrchestrator(owner, cart, s.orders, s.ledger, s.bill, s.logger)
	s.byOwn[owner] = o
	return o
}

func (s *Sessions) Get(owner string) (*Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byOwn[owner]
	if !ok {
		return nil, ErrNoCheckout
	}
	return o, nil
}

// Drop forgets the owner's checkout, e.g. on logout.
func (s *Sessions) Drop(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byOwn, owner)
}

// Logout drops the owner's checkout when the session ended elsewhere.
func (s *Sessions) Logout(_ context.Context, owner string) error {
	s.Drop(owner)
	return nil
}
