package storage

import (
	"context"
	"sync"

	"github.com/fjod/go_market/internal/domain"
)

// MemoryStorage keeps carts in process memory. Used for single-instance runs and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartItem
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]domain.CartItem)}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]domain.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items, ok := m.carts[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]domain.CartItem(nil), items...), nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, items []domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[key] = append([]domain.CartItem{}, items...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, key)
	return nil
}
