package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/repository"
)

// MockOrderSubmitter implements OrderSubmitter for testing
type MockOrderSubmitter struct {
	mu      sync.Mutex
	Err     error
	Block   chan struct{} // when set, SubmitOrder waits for it to be closed
	Started chan struct{} // when set, receives one value per call
	Calls   int
	Keys    []string
	Orders  []*domain.Order
}

func (m *MockOrderSubmitter) SubmitOrder(_ context.Context, key string, order *domain.Order) error {
	m.mu.Lock()
	m.Calls++
	m.Keys = append(m.Keys, key)
	m.Orders = append(m.Orders, order)
	block, started, err := m.Block, m.Started, m.Err
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return err
}

func (m *MockOrderSubmitter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockLedger implements AttemptLedger in memory
type MockLedger struct {
	mu       sync.Mutex
	Attempts map[string]repository.Attempt
	GetErr   error
	SaveErr  error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{Attempts: make(map[string]repository.Attempt)}
}

func (m *MockLedger) GetAttempt(_ context.Context, key string) (*repository.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	a, ok := m.Attempts[key]
	if !ok {
		return nil, repository.ErrAttemptNotFound
	}
	return &a, nil
}

func (m *MockLedger) SaveAttempt(_ context.Context, a *repository.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Attempts[a.Key] = *a
	return nil
}
