package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/events"
	"github.com/fjod/go_market/internal/pricing"
	"github.com/fjod/go_market/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrOutOfStock = errors.New("product is out of stock")

// Store is the single source of truth for one owner's cart. Every mutation persists the full
// item list first and only then updates memory and notifies subscribers.
type Store struct {
	owner   string
	key     string
	storage storage.CartStorage
	logger  *zap.Logger
	changes *events.Broadcaster[[]domain.CartItem]

	mu      sync.Mutex
	items   []domain.CartItem
	version uint64

	// pubMu orders publication; published is the newest version handed to subscribers
	pubMu     sync.Mutex
	published uint64
}

// NewStore loads the persisted cart of owner. A missing or unreadable cart starts empty.
func NewStore(ctx context.Context, owner string, st storage.CartStorage, logger *zap.Logger) (*Store, error) {
	s := &Store{
		owner:   owner,
		key:     storage.CartKey(owner),
		storage: st,
		logger:  logger.With(zap.String("owner", owner)),
		changes: events.NewBroadcaster[[]domain.CartItem](),
	}
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func (s *Store) load(ctx context.Context) ([]domain.CartItem, error) {
	items, err := s.storage.Load(ctx, s.key)
	switch {
	case err == nil:
		return items, nil
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.Warn("discarding unreadable cart", zap.Error(err))
		return nil, nil
	default:
		return nil, fmt.Errorf("load cart: %w", err)
	}
}

func (s *Store) Owner() string {
	return s.owner
}

// AddToCart merges item into the cart. An existing line has its quantity increased by
// item.Quantity and its product data refreshed; the result is clamped to the stock ceiling.
func (s *Store) AddToCart(ctx context.Context, item domain.CartItem) error {
	if item.Stock <= 0 {
		return ErrOutOfStock
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		for i := range items {
			if items[i].ProductID == item.ProductID {
				merged := item
				merged.Quantity = clampQuantity(items[i].Quantity+item.Quantity, item.Stock)
				items[i] = merged
				return items, nil
			}
		}
		item.Quantity = clampQuantity(item.Quantity, item.Stock)
		return append(items, item), nil
	})
}

// RemoveFromCart drops the line for productID. Removing an absent product does nothing.
func (s *Store) RemoveFromCart(ctx context.Context, productID int64) error {
	s.mu.Lock()
	found := indexOf(s.items, productID) >= 0
	s.mu.Unlock()
	if !found {
		return nil
	}

	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, nil
		}
		return append(items[:i], items[i+1:]...), nil
	})
}

// UpdateQuantity sets the quantity of an existing line, clamped to [1, stock]. An absent
// product is left alone.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	found := indexOf(s.items, productID) >= 0
	s.mu.Unlock()
	if !found {
		return nil
	}

	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, nil
		}
		items[i].Quantity = clampQuantity(quantity, items[i].Stock)
		return items, nil
	})
}

// ClearCart empties the cart and persists the empty list.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func([]domain.CartItem) ([]domain.CartItem, error) {
		return []domain.CartItem{}, nil
	})
}

// Logout forgets the cart and deletes its persisted key.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete cart: %w", err)
	}
	s.items = nil
	v := s.bump()
	s.mu.Unlock()

	s.publish(v, []domain.CartItem{})
	return nil
}

// Reload replaces the in-memory cart with the persisted one. Used when another instance
// changed the cart.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	items, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = items
	v := s.bump()
	snapshot := copyItems(items)
	s.mu.Unlock()

	s.publish(v, snapshot)
	return nil
}

func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.items)
}

// GetTotal is the undiscounted sum of price times quantity.
func (s *Store) GetTotal() decimal.Decimal {
	return total(s.Items())
}

func (s *Store) State() domain.CartState {
	items := s.Items()
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return domain.CartState{
		Items:      items,
		TotalCount: count,
		TotalPrice: total(items),
	}
}

// Subscribe registers fn to receive the full item list after every change.
// fn runs synchronously on the goroutine that made the change and owns the slice it is given.
// Snapshots arrive in commit order; one overtaken by a newer change is skipped, so the last
// snapshot a subscriber sees always matches Items. fn must not mutate the store.
func (s *Store) Subscribe(fn func([]domain.CartItem)) func() {
	return s.changes.Subscribe(func(items []domain.CartItem) {
		fn(copyItems(items))
	})
}

func (s *Store) mutate(ctx context.Context, change func([]domain.CartItem) ([]domain.CartItem, error)) error {
	s.mu.Lock()
	next, err := change(copyItems(s.items))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.storage.Save(ctx, s.key, next); err != nil {
		s.mu.Unlock()
		s.logger.Error("cart save failed", zap.Error(err))
		return fmt.Errorf("save cart: %w", err)
	}
	s.items = next
	v := s.bump()
	snapshot := copyItems(next)
	s.mu.Unlock()

	s.publish(v, snapshot)
	return nil
}

// bump must be called with mu held.
func (s *Store) bump() uint64 {
	s.version++
	return s.version
}

func (s *Store) publish(version uint64, items []domain.CartItem) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if version <= s.published {
		return
	}
	s.published = version
	s.changes.Publish(items)
}

func total(items []domain.CartItem) decimal.Decimal {
	lines := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Multiply(it.Price, decimal.NewFromInt(int64(it.Quantity)), pricing.DefaultPlaces))
	}
	return pricing.Sum(lines, pricing.DefaultPlaces)
}

func clampQuantity(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

func indexOf(items []domain.CartItem, productID int64) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func copyItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
