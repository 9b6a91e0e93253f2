package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/monitoring"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/pkg/logger"
)

const (
	defaultLoadTimeout = 5 * time.Second
	cacheWriteTimeout  = time.Second
)

// Storage loads carts through a read-through cache and applies every change
// as an atomic write on the stored cart, writing the result through to the cache.
type Storage struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	sfg     singleflight.Group // collapses concurrent cache misses for one cart
	timeout time.Duration
	log     *zap.Logger
}

func NewStorage(repo repository.CartRepository, c cache.CartCache, log *zap.Logger) *Storage {
	if c == nil {
		c = cache.NopCartCache{}
	}
	return &Storage{repo: repo, cache: c, timeout: defaultLoadTimeout, log: log}
}

// Load returns the cart, or a fresh empty cart when none exists or the stored
// payload cannot be decoded. Concurrent loads of one cart share a single read.
func (s *Storage) Load(ctx context.Context, cartID string) (*domain.Cart, error) {
	ch := s.sfg.DoChan(cartID, func() (interface{}, error) {
		// shared by every waiter, so it must outlive the caller that started it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		c, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.WithContext(ctx, s.log).Warn("cart cache get failed", zap.String("cart_id", cartID), zap.Error(err))
		}
		return s.loadStored(ctx, cartID)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: load cart %s: %w", ErrStorageUnavailable, cartID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// callers sharing a singleflight result must not share the cart
		return clone(res.Val.(*domain.Cart)), nil
	}
}

// LoadLatest reads the stored cart directly, skipping the cache and any load
// already in flight.
func (s *Storage) LoadLatest(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.loadStored(ctx, cartID)
}

func (s *Storage) AddItem(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	return s.write(ctx, cartID, "add item", func(ctx context.Context) (*domain.Cart, error) {
		return s.repo.AddItem(ctx, cartID, item)
	})
}

func (s *Storage) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*domain.Cart, error) {
	return s.write(ctx, cartID, "update quantity", func(ctx context.Context) (*domain.Cart, error) {
		return s.repo.UpdateItemQuantity(ctx, cartID, itemID, quantity)
	})
}

func (s *Storage) RemoveItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	return s.write(ctx, cartID, "remove item", func(ctx context.Context) (*domain.Cart, error) {
		return s.repo.RemoveItem(ctx, cartID, itemID)
	})
}

func (s *Storage) Clear(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.write(ctx, cartID, "clear cart", func(ctx context.Context) (*domain.Cart, error) {
		return s.repo.ClearItems(ctx, cartID)
	})
}

func (s *Storage) CompleteOrder(ctx context.Context, cartID, orderID string, itemIDs []string) (*domain.Cart, error) {
	return s.write(ctx, cartID, "complete order", func(ctx context.Context) (*domain.Cart, error) {
		return s.repo.CompleteOrder(ctx, cartID, orderID, itemIDs)
	})
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Storage) loadStored(ctx context.Context, cartID string) (*domain.Cart, error) {
	c, err := s.repo.GetCart(ctx, cartID)
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		return emptyCart(cartID), nil
	case errors.Is(err, repository.ErrCorruptCart):
		monitoring.CartHydrateFailuresTotal.Inc()
		logger.WithContext(ctx, s.log).Warn("stored cart unreadable, starting empty",
			zap.String("cart_id", cartID), zap.Error(err))
		return emptyCart(cartID), nil
	case err != nil:
		return nil, fmt.Errorf("%w: load cart %s: %w", ErrStorageUnavailable, cartID, err)
	}

	s.remember(ctx, c)
	return c, nil
}

// write runs one repository mutation. A cart that cannot be decoded is
// discarded and the mutation applied to a fresh cart.
func (s *Storage) write(ctx context.Context, cartID, op string, fn func(context.Context) (*domain.Cart, error)) (*domain.Cart, error) {
	log := logger.WithContext(ctx, s.log).With(zap.String("cart_id", cartID), zap.String("op", op))

	c, err := fn(ctx)
	if errors.Is(err, repository.ErrCorruptCart) {
		monitoring.CartHydrateFailuresTotal.Inc()
		log.Warn("stored cart unreadable, discarding it", zap.Error(err))
		if err := s.repo.DeleteCart(ctx, cartID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
			return nil, s.writeFailed(log, op, cartID, err)
		}
		s.invalidate(ctx, cartID)
		c, err = fn(ctx)
	}

	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		return emptyCart(cartID), nil
	case errors.Is(err, repository.ErrItemNotFound):
		return nil, ErrItemNotFound
	case err != nil:
		return nil, s.writeFailed(log, op, cartID, err)
	}

	s.remember(ctx, c)
	return c, nil
}

func (s *Storage) writeFailed(log *zap.Logger, op, cartID string, err error) error {
	monitoring.CartPersistFailuresTotal.Inc()
	log.Error("cart save failed", zap.Error(err))
	return fmt.Errorf("%w: %s %s: %w", ErrStorageUnavailable, op, cartID, err)
}

// remember writes c through to the cache. When that fails the cached copy is
// dropped so readers fall back to the repository.
func (s *Storage) remember(ctx context.Context, c *domain.Cart) {
	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Set(setCtx, c); err != nil {
		s.log.Warn("cart cache set failed", zap.String("cart_id", c.ID), zap.Error(err))
		s.invalidate(ctx, c.ID)
	}
}

func (s *Storage) invalidate(ctx context.Context, cartID string) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Delete(delCtx, cartID); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.String("cart_id", cartID), zap.Error(err))
	}
}

func emptyCart(cartID string) *domain.Cart {
	return &domain.Cart{ID: cartID, Items: []domain.CartItem{}}
}

func clone(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	if cp.Items == nil {
		cp.Items = []domain.CartItem{}
	}
	return &cp
}
