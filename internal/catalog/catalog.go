// Package catalog serves product listings and details.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100

	// fetchTimeout bounds a shared listing fetch once its callers detach.
	fetchTimeout = 10 * time.Second
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuery    = errors.New("invalid product query")
)

type ProductAPI interface {
	Products(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	ProductsByID(ctx context.Context, ids []string) ([]domain.Product, error)
}

type Service struct {
	api   ProductAPI
	cache cache.ProductCache
	sfg   singleflight.Group
	log   *zap.Logger
}

func NewService(a ProductAPI, c cache.ProductCache, log *zap.Logger) *Service {
	if c == nil {
		c = cache.NopProductCache{}
	}
	return &Service{api: a, cache: c, log: log}
}

// Normalize applies defaults and bounds to a listing query.
func Normalize(q domain.ProductQuery) (domain.ProductQuery, error) {
	q.Query = strings.TrimSpace(q.Query)

	slug, ok := CategorySlug(q.Category)
	if !ok {
		return q, fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, q.Category)
	}
	q.Category = slug

	q.Sort = domain.SortField(strings.ToUpper(string(q.Sort)))
	q.Direction = domain.SortDirection(strings.ToUpper(string(q.Direction)))
	switch q.Sort {
	case "", domain.SortByName, domain.SortByPrice:
	default:
		return q, fmt.Errorf("%w: sort must be NAME or PRICE", ErrInvalidQuery)
	}
	switch q.Direction {
	case "":
		if q.Sort != "" {
			q.Direction = domain.SortAsc
		}
	case domain.SortAsc, domain.SortDesc:
	default:
		return q, fmt.Errorf("%w: direction must be ASC or DESC", ErrInvalidQuery)
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q, nil
}

// List returns one page of the catalog, served from cache when possible.
func (s *Service) List(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	q, err := Normalize(q)
	if err != nil {
		return domain.ProductPage{}, err
	}

	page, err := s.cache.Get(ctx, q)
	if err == nil {
		return *page, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.WithContext(ctx, s.log).Warn("product cache get failed", zap.Error(err))
	}

	ch := s.sfg.DoChan(cache.QueryKey(q), func() (interface{}, error) {
		// shared by every waiter, so one caller hanging up must not cancel it
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		page, err := s.api.Products(fetchCtx, q)
		if err != nil {
			return nil, err
		}
		page.Page = q.Page
		page.PageSize = q.PageSize

		setCtx, cancelSet := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancelSet()
		if err := s.cache.Set(setCtx, q, &page); err != nil {
			s.log.Warn("product cache set failed", zap.Error(err))
		}
		return page, nil
	})

	var v interface{}
	select {
	case <-ctx.Done():
		return domain.ProductPage{}, fmt.Errorf("list products: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.ProductPage{}, res.Err
		}
		v = res.Val
	}

	result := v.(domain.ProductPage)
	result.Items = append([]domain.Product(nil), result.Items...)
	return result, nil
}

// Product returns live product data for id, bypassing the listing cache.
func (s *Service) Product(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.api.ProductsByID(ctx, []string{id})
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

// CartItem builds a cart line from live catalog data.
func (s *Service) CartItem(ctx context.Context, id string) (domain.CartItem, error) {
	p, err := s.Product(ctx, id)
	if err != nil {
		return domain.CartItem{}, err
	}
	return domain.CartItem{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.ImageURL,
	}, nil
}

// Invalidate drops every cached listing page.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
