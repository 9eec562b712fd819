package storage

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_market/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a client pointing to it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func sampleItems() []domain.CartItem {
	return []domain.CartItem{
		{
			ProductID:       1,
			ProductName:     "Milk",
			Price:           decimal.RequireFromString("1.99"),
			Stock:           10,
			Quantity:        2,
			PromotionType:   domain.PromotionPercentDiscount,
			DiscountPercent: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		},
		{ProductID: 2, ProductName: "Bread", Price: decimal.RequireFromString("2.50"), Stock: 3, Quantity: 1},
	}
}

func TestCartKey_Format(t *testing.T) {
	assert.Equal(t, "cart:v1:user-7", CartKey("user-7"))
}

func TestRedisStorage_SaveAndLoad(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedisStorage(client, 0)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, CartKey("u1"), sampleItems()))

	stored, err := mr.Get(CartKey("u1"))
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &raw))
	assert.Len(t, raw, 2)

	items, err := s.Load(ctx, CartKey("u1"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("1.99")))
	assert.True(t, items[0].DiscountPercent.Valid)
	assert.False(t, items[1].DiscountPercent.Valid)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestRedisStorage_SaveEmptyWritesEmptyArray(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedisStorage(client, 0)

	require.NoError(t, s.Save(context.Background(), CartKey("u1"), nil))

	stored, err := mr.Get(CartKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "[]", stored)
}

func TestRedisStorage_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedisStorage(client, time.Hour)

	require.NoError(t, s.Save(context.Background(), CartKey("u1"), sampleItems()))
	assert.Equal(t, time.Hour, mr.TTL(CartKey("u1")))
}

func TestRedisStorage_LoadMissing(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := NewRedisStorage(client, 0)

	items, err := s.Load(context.Background(), CartKey("nobody"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, items)
}

func TestRedisStorage_LoadInvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedisStorage(client, 0)
	require.NoError(t, mr.Set(CartKey("u1"), "[{\"product_id\":"))

	_, err := s.Load(context.Background(), CartKey("u1"))
	require.ErrorContains(t, err, "unmarshal cart failed")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRedisStorage_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedisStorage(client, 0)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, CartKey("u1"), sampleItems()))
	require.NoError(t, s.Delete(ctx, CartKey("u1")))
	assert.False(t, mr.Exists(CartKey("u1")))

	// deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, CartKey("u1")))
}

func TestRedisStorage_WatchSeesOtherInstancesOnly(t *testing.T) {
	client, _ := setupTestRedis(t)
	writer := NewRedisStorage(client, 0)
	watcher := NewRedisStorage(client, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var keys []string
	go func() {
		_ = watcher.Watch(ctx, func(key string) {
			mu.Lock()
			keys = append(keys, key)
			mu.Unlock()
		})
	}()

	received := func(key string) bool {
		mu.Lock()
		defer mu.Unlock()
		for _, k := range keys {
			if k == key {
				return true
			}
		}
		return false
	}

	require.Eventually(t, func() bool {
		_ = writer.Save(ctx, CartKey("u1"), sampleItems())
		return received(CartKey("u1"))
	}, 2*time.Second, 20*time.Millisecond, "change from another instance was not observed")

	// writes through the watching instance itself are not echoed back
	require.NoError(t, watcher.Save(ctx, CartKey("self"), sampleItems()))
	require.NoError(t, writer.Delete(ctx, CartKey("u2")))
	require.Eventually(t, func() bool { return received(CartKey("u2")) }, time.Second, 10*time.Millisecond)
	assert.False(t, received(CartKey("self")))
}
