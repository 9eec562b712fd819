package backend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fjod/go_market/internal/domain"
	"golang.org/x/sync/singleflight"
)

// GetProduct fetches one product. Concurrent lookups of the same ID share one request, which
// runs detached from any single caller's cancellation and is bounded by the client timeout.
// Each caller still returns as soon as its own ctx is done.
func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	key := strconv.FormatInt(id, 10)
	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		return get[*domain.Product](context.WithoutCancel(ctx), c, "/products/"+key)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	p, _ := res.Val.(*domain.Product)
	if p == nil {
		return nil, fmt.Errorf("product %d: empty response", id)
	}
	return p, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return get[[]domain.Product](ctx, c, "/products")
}

func (c *Client) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	return get[*domain.UserProfile](ctx, c, "/users/me")
}

func (c *Client) ListAddresses(ctx context.Context) ([]domain.ShippingAddress, error) {
	return get[[]domain.ShippingAddress](ctx, c, "/users/me/addresses")
}
