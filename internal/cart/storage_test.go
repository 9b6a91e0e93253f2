package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/monitoring"
	"github.com/fjod/storefront/internal/repository"
)

func setupStorage(t *testing.T) (*Storage, *repository.MemoryRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := repository.NewMemoryRepository()
	return NewStorage(repo, cache.NewRedisCartCache(client), zap.NewNop()), repo, mr
}

func TestLoad_MissingCartStartsEmpty(t *testing.T) {
	storage, _, _ := setupStorage(t)

	c, err := storage.Load(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", c.ID)
	assert.Empty(t, c.Items)
}

func TestLoad_CorruptCartStartsEmpty(t *testing.T) {
	repo := &MockCartRepository{GetErr: fmt.Errorf("%w: bad payload", repository.ErrCorruptCart)}
	storage := NewStorage(repo, nil, zap.NewNop())
	before := testutil.ToFloat64(monitoring.CartHydrateFailuresTotal)

	c, err := storage.Load(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, before+1, testutil.ToFloat64(monitoring.CartHydrateFailuresTotal))
}

func TestLoad_RepositoryFailureIsReturned(t *testing.T) {
	repoErr := errors.New("connection refused")
	storage := NewStorage(&MockCartRepository{GetErr: repoErr}, nil, zap.NewNop())

	_, err := storage.Load(context.Background(), "cart-1")
	assert.ErrorIs(t, err, repoErr)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestWriteThenLoad_RoundTripsAndFillsCache(t *testing.T) {
	storage, _, mr := setupStorage(t)
	ctx := context.Background()

	store, err := Open(ctx, storage, "cart-1")
	require.NoError(t, err)
	require.NoError(t, store.AddItem(ctx, apple, 2))
	assert.True(t, mr.Exists("cart:cart-1"))

	loaded, err := storage.Load(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
}

func TestWrite_ReplacesCachedCopy(t *testing.T) {
	storage, _, mr := setupStorage(t)
	ctx := context.Background()
	mr.Set("cart:cart-1", `{"id":"cart-1","items":[],"version":0}`)

	_, err := storage.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Quantity: 1})
	require.NoError(t, err)

	c, err := storage.Load(ctx, "cart-1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestLoad_ServesFromCache(t *testing.T) {
	repo := &MockCartRepository{}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	storage := NewStorage(repo, cache.NewRedisCartCache(client), zap.NewNop())

	mr.Set("cart:cart-1", `{"id":"cart-1","items":[{"id":"A","name":"Apple","price":1.25,"quantity":3}]}`)

	c, err := storage.Load(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Zero(t, repo.Gets)
}

func TestLoad_StaleReadDoesNotOverwriteNewerCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewSlowReadRepository()
	storage := NewStorage(repo, cache.NewRedisCartCache(client), zap.NewNop())
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Quantity: 1})
	require.NoError(t, err)

	loaded := make(chan *domain.Cart)
	go func() {
		c, err := storage.Load(ctx, "cart-1")
		assert.NoError(t, err)
		loaded <- c
	}()
	<-repo.Read

	// the order is placed while the load still holds the old cart
	_, err = storage.CompleteOrder(ctx, "cart-1", "order-1", []string{"A"})
	require.NoError(t, err)
	close(repo.Release)

	assert.Len(t, (<-loaded).Items, 1)

	c, err := storage.Load(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, "order-1", c.LastOrderID)
}

func TestLoad_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	repo := NewSlowReadRepository()
	storage := NewStorage(repo, nil, zap.NewNop())
	ctx := context.Background()
	_, err := repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Quantity: 1})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	first := make(chan error)
	go func() {
		_, err := storage.Load(cancelled, "cart-1")
		first <- err
	}()
	<-repo.Read

	second := make(chan *domain.Cart)
	go func() {
		c, err := storage.Load(ctx, "cart-1")
		assert.NoError(t, err)
		second <- c
	}()

	cancel()
	err = <-first
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	close(repo.Release)
	assert.Len(t, (<-second).Items, 1)
}

func TestLoadLatest_BypassesCache(t *testing.T) {
	storage, repo, mr := setupStorage(t)
	ctx := context.Background()
	_, err := repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Quantity: 2})
	require.NoError(t, err)
	mr.Set("cart:cart-1", `{"id":"cart-1","items":[],"version":99}`)

	c, err := storage.LoadLatest(ctx, "cart-1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestLoad_ConcurrentCallersGetIndependentCopies(t *testing.T) {
	storage, repo, _ := setupStorage(t)
	ctx := context.Background()
	_, err := repo.AddItem(ctx, "cart-1", domain.CartItem{ID: "A", Quantity: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	carts := make([]*domain.Cart, 10)
	for i := range carts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := storage.Load(ctx, "cart-1")
			assert.NoError(t, err)
			carts[i] = c
		}(i)
	}
	wg.Wait()

	carts[0].Items[0].Quantity = 99
	for _, c := range carts[1:] {
		assert.Equal(t, 1, c.Items[0].Quantity)
	}
}

func TestWrite_RepositoryFailure(t *testing.T) {
	storage := NewStorage(&MockCartRepository{WriteErr: errors.New("timeout")}, nil, zap.NewNop())
	before := testutil.ToFloat64(monitoring.CartPersistFailuresTotal)

	_, err := storage.AddItem(context.Background(), "cart-1", domain.CartItem{ID: "A", Quantity: 1})
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, before+1, testutil.ToFloat64(monitoring.CartPersistFailuresTotal))
}

func TestWrite_CorruptCartIsDiscardedAndRetried(t *testing.T) {
	repo := &MockCartRepository{CorruptWrites: 1}
	storage := NewStorage(repo, nil, zap.NewNop())

	c, err := storage.AddItem(context.Background(), "cart-1", domain.CartItem{ID: "A", Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, 1, repo.Deletes)
}

func TestWrite_MissingCartClearsToEmpty(t *testing.T) {
	storage, _, _ := setupStorage(t)

	c, err := storage.Clear(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", c.ID)
	assert.Empty(t, c.Items)

	_, err = storage.UpdateQuantity(context.Background(), "cart-1", "A", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}
