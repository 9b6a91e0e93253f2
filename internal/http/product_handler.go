package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
)

// Catalog is the product browsing surface used by the handlers.
type Catalog interface {
	ProductLookup
	List(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	Product(ctx context.Context, id string) (domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
	log     *zap.Logger
}

func NewProductHandler(c Catalog, timeout time.Duration, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		timeout: timeout,
		log:     log,
	}
}

// GET /products?query=&category=&sort=&direction=&page=&pageSize=
func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	values := r.URL.Query()
	q := domain.ProductQuery{
		Query:     values.Get("query"),
		Category:  values.Get("category"),
		Sort:      domain.SortField(values.Get("sort")),
		Direction: domain.SortDirection(values.Get("direction")),
	}

	var err error
	if q.Page, err = intParam(values.Get("page")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_page", "page must be a number")
		return
	}
	if q.PageSize, err = intParam(values.Get("pageSize")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_page_size", "pageSize must be a number")
		return
	}

	page, err := h.catalog.List(ctx, q)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.Product(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// GET /categories
func (h *ProductHandler) GetCategories(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, catalog.Categories())
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
