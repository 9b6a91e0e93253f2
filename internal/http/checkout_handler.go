package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
)

type CheckoutService interface {
	Checkout(ctx context.Context, cartID string, sessions checkout.SessionSource) (checkout.Result, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	storage  *cart.Storage
	sessions *Sessions
	timeout  time.Duration
	log      *zap.Logger
}

func NewCheckoutHandler(svc CheckoutService, storage *cart.Storage, sessions *Sessions, timeout time.Duration, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		storage:  storage,
		sessions: sessions,
		timeout:  timeout,
		log:      log,
	}
}

type CheckoutResponseDTO struct {
	Outcome    domain.CheckoutOutcome `json:"outcome"`
	OrderID    string                 `json:"orderId,omitempty"`
	Order      *domain.Order          `json:"order,omitempty"`
	Shortfalls []domain.Shortfall     `json:"shortfalls,omitempty"`
	Redirect   string                 `json:"redirect,omitempty"`
}

type CheckoutSuccessDTO struct {
	OrderID string `json:"orderId"`
}

// POST /checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.checkout.Checkout(ctx, getCartID(ctx), h.sessions.Store(w, r))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := CheckoutResponseDTO{
		Outcome:    res.Outcome,
		Order:      res.Order,
		Shortfalls: res.Shortfalls,
		Redirect:   res.Redirect,
	}
	if res.Order != nil {
		resp.OrderID = res.Order.ID
	}

	respondJSON(w, checkoutStatus(res.Outcome), resp)
}

// GET /checkout/success
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := openCart(ctx, h.storage)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	orderID := store.LastOrderID()
	if orderID == "" {
		respondError(w, http.StatusNotFound, "no_order", "no order has been placed")
		return
	}

	respondJSON(w, http.StatusOK, CheckoutSuccessDTO{OrderID: orderID})
}

func checkoutStatus(o domain.CheckoutOutcome) int {
	switch o {
	case domain.OutcomeOrderSuccessful:
		return http.StatusCreated
	case domain.OutcomeInsufficientStock:
		return http.StatusUnprocessableEntity
	case domain.OutcomeOrderFailed:
		return http.StatusBadGateway
	case domain.OutcomeLoginRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}
