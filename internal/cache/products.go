package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/monitoring"
)

const (
	productCacheName  = "products"
	productGeneration = "products:gen"
)

// RedisProductCache caches catalog listing pages. Invalidate bumps a
// generation counter so every previously cached page becomes unreachable.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisProductCache{client: client, ttl: ttl}
}

func (r *RedisProductCache) Get(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error) {
	key, err := r.key(ctx, q)
	if err != nil {
		monitoring.RecordCacheError(productCacheName)
		return nil, err
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		monitoring.RecordCacheMiss(productCacheName)
		return nil, ErrCacheMiss
	}
	if err != nil {
		monitoring.RecordCacheError(productCacheName)
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var page domain.ProductPage
	if err := json.Unmarshal(data, &page); err != nil {
		monitoring.RecordCacheError(productCacheName)
		return nil, fmt.Errorf("unmarshal product page failed: %w", err)
	}
	monitoring.RecordCacheHit(productCacheName)
	return &page, nil
}

func (r *RedisProductCache) Set(ctx context.Context, q domain.ProductQuery, page *domain.ProductPage) error {
	key, err := r.key(ctx, q)
	if err != nil {
		return err
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal product page failed: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisProductCache) Invalidate(ctx context.Context) error {
	if err := r.client.Incr(ctx, productGeneration).Err(); err != nil {
		return fmt.Errorf("redis incr failed: %w", err)
	}
	return nil
}

func (r *RedisProductCache) key(ctx context.Context, q domain.ProductQuery) (string, error) {
	gen, err := r.client.Get(ctx, productGeneration).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get generation failed: %w", err)
	}
	return fmt.Sprintf("products:%d:%s", gen, QueryKey(q)), nil
}

// QueryKey normalizes a listing query into a stable cache key.
func QueryKey(q domain.ProductQuery) string {
	return fmt.Sprintf("q=%s|c=%s|s=%s|d=%s|p=%d|n=%d",
		strings.ToLower(strings.TrimSpace(q.Query)),
		q.Category, q.Sort, q.Direction, q.Page, q.PageSize)
}
