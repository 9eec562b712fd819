package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const ChangesChannel = "cart-changes"

type change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// RedisStorage keeps carts as JSON strings and announces every write on ChangesChannel so
// that other storefront instances can refresh their copy.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	origin string
}

// NewRedisStorage returns a storage whose keys expire after ttl of inactivity; zero keeps
// them forever.
func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		ttl:    ttl,
		origin: uuid.NewString(),
	}
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]domain.CartItem, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []domain.CartItem
	if err2 := json.Unmarshal(data, &items); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w: %v", ErrCorrupt, err2)
	}
	return items, nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	note, err := json.Marshal(change{Key: key, Origin: r.origin})
	if err != nil {
		return fmt.Errorf("marshal change failed: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, r.ttl)
		pipe.Publish(ctx, ChangesChannel, note)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	note, err := json.Marshal(change{Key: key, Origin: r.origin})
	if err != nil {
		return fmt.Errorf("marshal change failed: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Publish(ctx, ChangesChannel, note)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Watch listens for changes published by other RedisStorage instances. Changes made through
// this instance are skipped; the cart store already told its own listeners about them.
func (r *RedisStorage) Watch(ctx context.Context, fn func(key string)) error {
	sub := r.client.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe failed: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var c change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				continue
			}
			if c.Origin == r.origin {
				continue
			}
			fn(c.Key)
		}
	}
}
