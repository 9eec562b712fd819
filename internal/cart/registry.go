package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_market/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const reloadTimeout = 5 * time.Second

// Registry hands out one Store per owner. Stores are loaded on first use and kept in sync
// with writes made by other instances through Watch.
type Registry struct {
	storage storage.CartStorage
	logger  *zap.Logger
	sfg     singleflight.Group // collapses concurrent first loads of the same cart

	mu     sync.RWMutex
	stores map[string]*Store // keyed by storage key
}

func NewRegistry(st storage.CartStorage, logger *zap.Logger) *Registry {
	return &Registry{
		storage: st,
		logger:  logger,
		stores:  make(map[string]*Store),
	}
}

func (r *Registry) Get(ctx context.Context, owner string) (*Store, error) {
	key := storage.CartKey(owner)
	if s := r.lookup(key); s != nil {
		return s, nil
	}

	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		if s := r.lookup(key); s != nil {
			return s, nil
		}
		s, err := NewStore(ctx, owner, r.storage, r.logger)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.stores[key] = s
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Logout clears the owner's cart whether or not it is loaded on this instance. A loaded Store
// stays registered so every holder keeps sharing the one instance.
func (r *Registry) Logout(ctx context.Context, owner string) error {
	key := storage.CartKey(owner)
	if s := r.lookup(key); s != nil {
		return s.Logout(ctx)
	}
	if err := r.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	// a first load may have raced the delete
	if s := r.lookup(key); s != nil {
		return s.Logout(ctx)
	}
	return nil
}

// Watch reloads loaded stores whenever w reports a change made elsewhere. It blocks until
// ctx is done.
func (r *Registry) Watch(ctx context.Context, w storage.Watcher) error {
	return w.Watch(ctx, func(key string) {
		s := r.lookup(key)
		if s == nil {
			return
		}
		reloadCtx, cancel := context.WithTimeout(ctx, reloadTimeout)
		defer cancel()
		if err := s.Reload(reloadCtx); err != nil {
			r.logger.Warn("cart reload failed", zap.String("key", key), zap.Error(err))
		}
	})
}

func (r *Registry) lookup(key string) *Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stores[key]
}
