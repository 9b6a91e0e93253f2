package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
)

// ProductLookup resolves a product id into a cart entry.
type ProductLookup interface {
	CartItem(ctx context.Context, id string) (domain.CartItem, error)
}

type CartHandler struct {
	storage  *cart.Storage
	products ProductLookup
	timeout  time.Duration
	log      *zap.Logger
}

func NewCartHandler(storage *cart.Storage, products ProductLookup, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		storage:  storage,
		products: products,
		timeout:  timeout,
		log:      log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartItemDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	LineTotal string  `json:"lineTotal"`
}

type CartResponseDTO struct {
	Items     []CartItemDTO `json:"items"`
	ItemCount int           `json:"itemCount"`
	Subtotal  string        `json:"subtotal"`
	Shipping  string        `json:"shipping"`
	Tax       string        `json:"tax"`
	Total     string        `json:"total"`
}

func openCart(ctx context.Context, storage *cart.Storage) (*cart.Store, error) {
	return cart.Open(ctx, storage, getCartID(ctx))
}

// GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := openCart(ctx, h.storage)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, mapCartToDTO(store))
}

// POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Quantity < 1 {
		handleError(w, r, h.log, cart.ErrInvalidQuantity)
		return
	}

	item, err := h.products.CartItem(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	store, err := openCart(ctx, h.storage)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := store.AddItem(ctx, item, req.Quantity); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, mapCartToDTO(store))
}

// PUT /cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	store, err := openCart(ctx, h.storage)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := store.UpdateQuantity(ctx, chi.URLParam(r, "id"), req.Quantity); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, mapCartToDTO(store))
}

// DELETE /cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := openCart(ctx, h.storage)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := store.RemoveItem(ctx, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, mapCartToDTO(store))
}

// DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := openCart(ctx, h.storage)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := store.Clear(ctx); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, mapCartToDTO(store))
}

func mapCartToDTO(store *cart.Store) CartResponseDTO {
	items := store.Items()
	dtos := make([]CartItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, CartItemDTO{
			ID:        it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
			LineTotal: cart.LineTotal(it).StringFixed(2),
		})
	}

	sum := store.Summary()
	return CartResponseDTO{
		Items:     dtos,
		ItemCount: sum.ItemCount,
		Subtotal:  sum.Subtotal.StringFixed(2),
		Shipping:  sum.Shipping.StringFixed(2),
		Tax:       sum.Tax.StringFixed(2),
		Total:     sum.Total.StringFixed(2),
	}
}
