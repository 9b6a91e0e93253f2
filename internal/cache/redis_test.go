package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/storefront/internal/domain"
)

// setupTestRedis creates a miniredis server and a client pointing at it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestCartCache_GetHit(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	cart := &domain.Cart{
		ID: "cart-1",
		Items: []domain.CartItem{
			{ID: "A", Name: "Apple", Price: 1.5, Quantity: 2},
			{ID: "B", Name: "Bread", Price: 3, Quantity: 1},
		},
	}
	data, _ := json.Marshal(cart)
	mr.Set(cartKey("cart-1"), string(data))

	result, err := cache.Get(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, "A", result.Items[0].ID)
}

func TestCartCache_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestCartCache_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)
	mr.Set(cartKey("cart-1"), "{broken")

	_, err := cache.Get(context.Background(), "cart-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCartCache_SetAppliesJitteredTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	require.NoError(t, cache.Set(context.Background(), &domain.Cart{ID: "cart-1"}))

	ttl := mr.TTL(cartKey("cart-1"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)
}

func TestCartCache_SetNeverGoesBackwards(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisCartCache(client)
	ctx := context.Background()

	newer := &domain.Cart{ID: "cart-1", Version: 3, Items: []domain.CartItem{{ID: "A", Quantity: 1}, {ID: "B", Quantity: 1}}}
	older := &domain.Cart{ID: "cart-1", Version: 2, Items: []domain.CartItem{{ID: "A", Quantity: 1}}}

	require.NoError(t, cache.Set(ctx, newer))
	require.NoError(t, cache.Set(ctx, older))

	got, err := cache.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Len(t, got.Items, 2)

	newest := &domain.Cart{ID: "cart-1", Version: 4, Items: []domain.CartItem{}}
	require.NoError(t, cache.Set(ctx, newest))
	got, err = cache.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCartCache_SetReplacesUnreadableEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)
	mr.Set(cartKey("cart-1"), "{broken")

	require.NoError(t, cache.Set(context.Background(), &domain.Cart{ID: "cart-1", Version: 1}))

	got, err := cache.Get(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestCartCache_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Cart{ID: "cart-1"}))
	require.NoError(t, cache.Delete(ctx, "cart-1"))

	assert.False(t, mr.Exists(cartKey("cart-1")))
}

func TestCartCache_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)
	mr.Close()

	_, err := cache.Get(context.Background(), "cart-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestProductCache_SetGetAndExpire(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisProductCache(client, time.Minute)
	ctx := context.Background()

	q := domain.ProductQuery{Query: "Apple", Page: 1, PageSize: 12}
	page := &domain.ProductPage{
		Items:      []domain.Product{{ID: "A", Name: "Apple", Stock: 4}},
		TotalCount: 1,
		Page:       1,
		PageSize:   12,
	}
	require.NoError(t, cache.Set(ctx, q, page))

	got, err := cache.Get(ctx, domain.ProductQuery{Query: "  apple ", Page: 1, PageSize: 12})
	require.NoError(t, err)
	assert.Equal(t, page, got)

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, q)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestProductCache_InvalidateDropsEveryPage(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisProductCache(client, time.Minute)
	ctx := context.Background()

	q1 := domain.ProductQuery{Page: 1, PageSize: 12}
	q2 := domain.ProductQuery{Category: "fruits", Page: 2, PageSize: 12}
	require.NoError(t, cache.Set(ctx, q1, &domain.ProductPage{TotalCount: 30}))
	require.NoError(t, cache.Set(ctx, q2, &domain.ProductPage{TotalCount: 5}))

	require.NoError(t, cache.Invalidate(ctx))

	_, err := cache.Get(ctx, q1)
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Get(ctx, q2)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestQueryKey_DistinguishesQueries(t *testing.T) {
	a := QueryKey(domain.ProductQuery{Category: "fruits", Page: 1, PageSize: 12})
	b := QueryKey(domain.ProductQuery{Category: "fruits", Page: 2, PageSize: 12})
	c := QueryKey(domain.ProductQuery{Category: "fruits", Page: 1, PageSize: 12, Sort: domain.SortByPrice})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRedisLock_ExclusiveUntilReleased(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewRedisLock(client, 30*time.Second)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "checkout:cart-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:checkout:cart-1"))

	_, err = lock.Acquire(ctx, "checkout:cart-1")
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := lock.Acquire(ctx, "checkout:cart-2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists("lock:checkout:cart-1"))

	release, err = lock.Acquire(ctx, "checkout:cart-1")
	require.NoError(t, err)
	release()
}

func TestRedisLock_ExpiresAndStaleReleaseKeepsNewOwner(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewRedisLock(client, 30*time.Second)
	ctx := context.Background()

	stale, err := lock.Acquire(ctx, "checkout:cart-1")
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)

	_, err = lock.Acquire(ctx, "checkout:cart-1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("lock:checkout:cart-1"))
}
