// Package cache holds the Redis-backed caches and locks used by the storefront.
package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrLockHeld  = errors.New("lock already held")
)

type CartCache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}

type ProductCache interface {
	Get(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error)
	Set(ctx context.Context, q domain.ProductQuery, page *domain.ProductPage) error
	Invalidate(ctx context.Context) error
}

// NopCartCache is used when no Redis is configured; every read misses.
type NopCartCache struct{}

func (NopCartCache) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }
func (NopCartCache) Set(context.Context, *domain.Cart) error { return nil }
func (NopCartCache) Delete(context.Context, string) error { return nil }

type NopProductCache struct{}

func (NopProductCache) Get(context.Context, domain.ProductQuery) (*domain.ProductPage, error) {
	return nil, ErrCacheMiss
}
func (NopProductCache) Set(context.Context, domain.ProductQuery, *domain.ProductPage) error {
	return nil
}
func (NopProductCache) Invalidate(context.Context) error { return nil }
