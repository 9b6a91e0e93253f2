package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AccountHandler struct {
	sessions *Sessions
	accounts AccountService
	timeout  time.Duration
	log      *zap.Logger
}

func NewAccountHandler(sessions *Sessions, accounts AccountService, timeout time.Duration, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		sessions: sessions,
		accounts: accounts,
		timeout:  timeout,
		log:      log,
	}
}

type UpdateStockRequestDTO struct {
	Stock *int `json:"stock"`
}

type StockResponseDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// GET /account-details
func (h *AccountHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store := h.sessions.Store(w, r)
	if !store.IsAuthenticated() {
		respondLoginRequired(w, "sign in to view your account")
		return
	}

	details, err := h.accounts.Details(ctx, store)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, details)
}

// PUT /admin/products/{id}/stock
func (h *AccountHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store := h.sessions.Store(w, r)
	if !store.IsAuthenticated() {
		respondLoginRequired(w, "sign in to manage stock")
		return
	}

	var req UpdateStockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stock == nil {
		respondError(w, http.StatusBadRequest, "invalid_stock", "stock is required")
		return
	}

	level, err := h.accounts.UpdateStock(ctx, store, chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, StockResponseDTO{
		ID:    level.ID,
		Name:  level.Name,
		Stock: level.Stock,
	})
}
