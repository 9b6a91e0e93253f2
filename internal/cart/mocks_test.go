package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

// MockCartRepository keeps one cart in memory and can be told to fail.
type MockCartRepository struct {
	Cart     *domain.Cart
	GetErr   error
	WriteErr error
	// CorruptWrites fails this many writes with ErrCorruptCart first.
	CorruptWrites int

	Gets    int
	Deletes int
}

func (m *MockCartRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Cart == nil {
		return nil, repository.ErrCartNotFound
	}
	return clone(m.Cart), nil
}

func (m *MockCartRepository) AddItem(_ context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	return m.write(cartID, func(c *domain.Cart) { c.Items = append(c.Items, item) })
}

func (m *MockCartRepository) UpdateItemQuantity(_ context.Context, cartID, itemID string, quantity int) (*domain.Cart, error) {
	return m.write(cartID, func(c *domain.Cart) {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = quantity
			}
		}
	})
}

func (m *MockCartRepository) RemoveItem(_ context.Context, cartID, itemID string) (*domain.Cart, error) {
	return m.write(cartID, func(c *domain.Cart) { c.Items = without(c.Items, itemID) })
}

func (m *MockCartRepository) ClearItems(_ context.Context, cartID string) (*domain.Cart, error) {
	return m.write(cartID, func(c *domain.Cart) { c.Items = nil })
}

func (m *MockCartRepository) CompleteOrder(_ context.Context, cartID, orderID string, _ []string) (*domain.Cart, error) {
	return m.write(cartID, func(c *domain.Cart) {
		c.Items = nil
		c.LastOrderID = orderID
	})
}

func (m *MockCartRepository) DeleteCart(context.Context, string) error {
	m.Deletes++
	m.Cart = nil
	return nil
}

func (m *MockCartRepository) Ping(context.Context) error { return nil }

func (m *MockCartRepository) write(cartID string, fn func(c *domain.Cart)) (*domain.Cart, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	if m.CorruptWrites > 0 {
		m.CorruptWrites--
		return nil, fmt.Errorf("%w: items is a string", repository.ErrCorruptCart)
	}
	if m.Cart == nil {
		m.Cart = &domain.Cart{ID: cartID}
	}
	fn(m.Cart)
	m.Cart.Version++
	return clone(m.Cart), nil
}

// SlowReadRepository reads the stored cart, then holds the result until
// Release is closed.
type SlowReadRepository struct {
	*repository.MemoryRepository
	Read    chan struct{}
	Release chan struct{}
	once    sync.Once
}

func NewSlowReadRepository() *SlowReadRepository {
	return &SlowReadRepository{
		MemoryRepository: repository.NewMemoryRepository(),
		Read:             make(chan struct{}),
		Release:          make(chan struct{}),
	}
}

func (r *SlowReadRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	c, err := r.MemoryRepository.GetCart(ctx, cartID)
	r.once.Do(func() { close(r.Read) })
	<-r.Release
	return c, err
}
