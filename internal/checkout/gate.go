package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/storefront/internal/cache"
)

// Gate admits at most one checkout per cart at a time.
type Gate interface {
	Acquire(ctx context.Context, cartID string) (release func(), err error)
}

// MemoryGate serializes checkouts within one process.
type MemoryGate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{held: make(map[string]struct{})}
}

func (g *MemoryGate) Acquire(_ context.Context, cartID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[cartID]; ok {
		return nil, ErrCheckoutInProgress
	}
	g.held[cartID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, cartID)
			g.mu.Unlock()
		})
	}, nil
}

// RedisGate serializes checkouts across replicas with a Redis lock.
type RedisGate struct {
	lock *cache.RedisLock
}

func NewRedisGate(lock *cache.RedisLock) *RedisGate {
	return &RedisGate{lock: lock}
}

func (g *RedisGate) Acquire(ctx context.Context, cartID string) (func(), error) {
	release, err := g.lock.Acquire(ctx, "checkout:"+cartID)
	if errors.Is(err, cache.ErrLockHeld) {
		return nil, ErrCheckoutInProgress
	}
	return release, err
}
