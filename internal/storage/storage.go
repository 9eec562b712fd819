package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_market/internal/domain"
)

// KeyVersion is bumped whenever the persisted cart layout changes, so old carts are ignored
// instead of misread.
const KeyVersion = "v1"

var (
	ErrNotFound = errors.New("cart not found")
	ErrCorrupt  = errors.New("cart data corrupt")
)

// CartStorage persists the whole item list of a cart under one key.
// Consumers define this interface, not the redis or mongo implementation.
type CartStorage interface {
	Load(ctx context.Context, key string) ([]domain.CartItem, error)
	Save(ctx context.Context, key string, items []domain.CartItem) error
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by backends that can report writes made by other instances.
// Watch blocks until ctx is done and calls fn with the key of every foreign change.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

func CartKey(owner string) string {
	return fmt.Sprintf("cart:%s:%s", KeyVersion, owner)
}
