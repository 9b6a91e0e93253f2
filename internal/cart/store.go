// Package cart implements the shopping cart store and its persistence.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not in cart")
	// ErrStorageUnavailable wraps repository failures on load and save.
	ErrStorageUnavailable = errors.New("cart storage unavailable")
)

var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShipping          = decimal.NewFromInt(10)
	taxRate               = decimal.NewFromFloat(0.08)
)

// Persister applies one mutation atomically to the stored cart and returns
// the cart as stored afterwards.
type Persister interface {
	AddItem(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) (*domain.Cart, error)
	CompleteOrder(ctx context.Context, cartID, orderID string, itemIDs []string) (*domain.Cart, error)
}

// Summary is the order summary shown on the cart page.
type Summary struct {
	ItemCount int
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

// Store holds one visitor's cart for the lifetime of a request.
// Each mutation is applied in memory first and then persisted. On success the
// store takes the stored cart, which includes writes made by other requests;
// a persistence error is returned but the in-memory change stays.
type Store struct {
	mu   sync.RWMutex
	cart *domain.Cart
	p    Persister
}

func NewStore(c *domain.Cart, p Persister) *Store {
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &Store{cart: c, p: p}
}

// Open hydrates the store for cartID from storage.
func Open(ctx context.Context, s *Storage, cartID string) (*Store, error) {
	c, err := s.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return NewStore(c, s), nil
}

// OpenLatest hydrates the store straight from the repository.
func OpenLatest(ctx context.Context, s *Storage, cartID string) (*Store, error) {
	c, err := s.LoadLatest(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return NewStore(c, s), nil
}

func (s *Store) ID() string {
	return s.cart.ID
}

// AddItem increments the quantity of an existing entry or appends a new one.
func (s *Store) AddItem(ctx context.Context, item domain.CartItem, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item.Quantity = quantity
	if i := s.indexOf(item.ID); i >= 0 {
		s.cart.Items[i].Quantity += quantity
	} else {
		s.cart.Items = append(s.cart.Items, item)
	}

	if s.p == nil {
		return nil
	}
	return s.adopt(s.p.AddItem(ctx, s.cart.ID, item))
}

// UpdateQuantity sets the quantity of id, never below 1.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity < 1 {
		quantity = 1
	}
	s.cart.Items[i].Quantity = quantity

	if s.p == nil {
		return nil
	}
	err := s.adopt(s.p.UpdateQuantity(ctx, s.cart.ID, id, quantity))
	if errors.Is(err, ErrItemNotFound) {
		s.cart.Items = without(s.cart.Items, id)
	}
	return err
}

// RemoveItem drops id from the cart; removing an absent id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Items = without(s.cart.Items, id)

	if s.p == nil {
		return nil
	}
	return s.adopt(s.p.RemoveItem(ctx, s.cart.ID, id))
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Items = []domain.CartItem{}

	if s.p == nil {
		return nil
	}
	return s.adopt(s.p.Clear(ctx, s.cart.ID))
}

// CompleteOrder records orderID for the confirmation view and removes the
// ordered entries in a single write. Entries added by other requests in the
// meantime stay in the cart.
func (s *Store) CompleteOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := make([]string, 0, len(s.cart.Items))
	for _, it := range s.cart.Items {
		ordered = append(ordered, it.ID)
	}
	s.cart.LastOrderID = orderID
	s.cart.Items = []domain.CartItem{}

	if s.p == nil {
		return nil
	}
	return s.adopt(s.p.CompleteOrder(ctx, s.cart.ID, orderID, ordered))
}

func (s *Store) LastOrderID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.LastOrderID
}

func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CartItem{}, s.cart.Items...)
}

func (s *Store) IsEmpty() bool {
	return s.ItemCount() == 0
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, it := range s.cart.Items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return subtotal(s.cart.Items)
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Subtotal: subtotal(s.cart.Items).Round(2)}
	for _, it := range s.cart.Items {
		sum.ItemCount += it.Quantity
	}

	sum.Shipping = flatShipping
	if sum.Subtotal.GreaterThanOrEqual(freeShippingThreshold) || sum.ItemCount == 0 {
		sum.Shipping = decimal.Zero
	}
	sum.Tax = sum.Subtotal.Mul(taxRate).Round(2)
	sum.Total = sum.Subtotal.Add(sum.Shipping).Add(sum.Tax)
	return sum
}

// Lines converts the cart into order lines.
func (s *Store) Lines() []domain.OrderLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]domain.OrderLine, 0, len(s.cart.Items))
	for _, it := range s.cart.Items {
		lines = append(lines, domain.OrderLine{ProductID: it.ID, Quantity: it.Quantity})
	}
	return lines
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.cart.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// adopt takes the stored cart after a successful write.
func (s *Store) adopt(c *domain.Cart, err error) error {
	if err != nil {
		return err
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	s.cart = c
	return nil
}

func without(items []domain.CartItem, id string) []domain.CartItem {
	kept := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	return kept
}

// LineTotal is price times quantity for one cart entry.
func LineTotal(it domain.CartItem) decimal.Decimal {
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func subtotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it))
	}
	return total
}
