package repository

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
	// ErrCorruptCart is returned when a stored cart exists but cannot be decoded or updated.
	ErrCorruptCart = errors.New("stored cart is corrupt")
)

// CartRepository is the durable store for carts, keyed by cart id.
// Every write is applied atomically to the stored document and returns the
// cart as stored afterwards, so concurrent writers never overwrite each other.
type CartRepository interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	// AddItem adds quantity to an existing entry or appends item, creating the cart if needed.
	AddItem(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error)
	ClearItems(ctx context.Context, cartID string) (*domain.Cart, error)
	// CompleteOrder removes the ordered entries and records orderID.
	CompleteOrder(ctx context.Context, cartID, orderID string, itemIDs []string) (*domain.Cart, error)
	DeleteCart(ctx context.Context, cartID string) error
	Ping(ctx context.Context) error
}
