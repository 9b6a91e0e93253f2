package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// MemoryRepository keeps carts as JSON documents in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string][]byte)}
}

func (m *MemoryRepository) GetCart(_ context.Context, cartID string) (*domain.Cart, error) {
	m.mu.RLock()
	data, ok := m.carts[cartID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCartNotFound
	}
	return decodeCart(data)
}

func (m *MemoryRepository) AddItem(_ context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	return m.update(cartID, true, func(c *domain.Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == item.ID {
				c.Items[i].Quantity += item.Quantity
				return nil
			}
		}
		c.Items = append(c.Items, item)
		return nil
	})
}

func (m *MemoryRepository) UpdateItemQuantity(_ context.Context, cartID, itemID string, quantity int) (*domain.Cart, error) {
	cart, err := m.update(cartID, false, func(c *domain.Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = quantity
				return nil
			}
		}
		return ErrItemNotFound
	})
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrItemNotFound
	}
	return cart, err
}

func (m *MemoryRepository) RemoveItem(_ context.Context, cartID, itemID string) (*domain.Cart, error) {
	return m.update(cartID, false, func(c *domain.Cart) error {
		c.Items = slices.DeleteFunc(c.Items, func(it domain.CartItem) bool { return it.ID == itemID })
		return nil
	})
}

func (m *MemoryRepository) ClearItems(_ context.Context, cartID string) (*domain.Cart, error) {
	return m.update(cartID, false, func(c *domain.Cart) error {
		c.Items = []domain.CartItem{}
		return nil
	})
}

func (m *MemoryRepository) CompleteOrder(_ context.Context, cartID, orderID string, itemIDs []string) (*domain.Cart, error) {
	return m.update(cartID, true, func(c *domain.Cart) error {
		c.Items = slices.DeleteFunc(c.Items, func(it domain.CartItem) bool { return slices.Contains(itemIDs, it.ID) })
		c.LastOrderID = orderID
		return nil
	})
}

func (m *MemoryRepository) DeleteCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[cartID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, cartID)
	return nil
}

func (m *MemoryRepository) Ping(context.Context) error {
	return nil
}

// update applies fn to the stored cart under the write lock. A missing cart is
// created only when upsert is set.
func (m *MemoryRepository) update(cartID string, upsert bool, fn func(c *domain.Cart) error) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	cart := &domain.Cart{ID: cartID, CreatedAt: now}
	if data, ok := m.carts[cartID]; ok {
		stored, err := decodeCart(data)
		if err != nil {
			return nil, err
		}
		cart = stored
	} else if !upsert {
		return nil, ErrCartNotFound
	}

	if err := fn(cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.Version++
	cart.UpdatedAt = now

	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	m.carts[cartID] = data
	return cart, nil
}

func decodeCart(data []byte) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	return &cart, nil
}
