package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/account"
	"github.com/fjod/storefront/internal/api"
	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/pkg/logger"
)

type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Details  string            `json:"details,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

type RedirectResponse struct {
	Redirect string `json:"redirect"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondLoginRequired(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:    message,
		Code:     "login_required",
		Redirect: auth.LoginPath,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError maps service and API errors to HTTP responses.
func handleError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var validation *account.ValidationError
	if errors.As(err, &validation) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: validation.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrInvalidQuery):
		respondError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item not in cart")
	case errors.Is(err, api.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrSessionExpired), errors.Is(err, api.ErrUnauthenticated):
		respondLoginRequired(w, "please sign in again")
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", "checkout already in progress")
	case errors.Is(err, cart.ErrStorageUnavailable):
		logger.WithContext(r.Context(), log).Error("cart storage failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "cart could not be saved, please try again")
	case api.IsNetworkError(err):
		logger.WithContext(r.Context(), log).Warn("api request failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "network error, please try again")
	default:
		var apiErr *api.ResponseError
		if errors.As(err, &apiErr) {
			respondError(w, http.StatusBadRequest, "request_rejected", apiErr.Message)
			return
		}
		logger.WithContext(r.Context(), log).Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
