// Package events is a small in-process pub/sub used to tell independent parts of the
// storefront that shared state changed.
package events

import (
	"sort"
	"sync"
)

// Broadcaster delivers every published value to all current subscribers, synchronously and
// in subscription order. Handlers run outside the lock, so they may subscribe or unsubscribe.
type Broadcaster[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns a function that removes it. Calling the returned
// function more than once is harmless.
func (b *Broadcaster[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Broadcaster[T]) Publish(v T) {
	for _, fn := range b.snapshot() {
		fn(v)
	}
}

func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster[T]) snapshot() []func(T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fns := make([]func(T), len(ids))
	for i, id := range ids {
		fns[i] = b.subs[id]
	}
	return fns
}
