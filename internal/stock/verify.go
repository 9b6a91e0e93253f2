// Package stock checks cart quantities against live stock figures.
package stock

import (
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

// ErrStockUnavailable is returned when live stock is missing for a cart item.
var ErrStockUnavailable = errors.New("live stock unavailable")

// Verify compares each cart item with the live product list and returns one
// shortfall per item whose requested quantity exceeds stock. A product missing
// from live fails the whole check.
func Verify(items []domain.CartItem, live []domain.Product) ([]domain.Shortfall, error) {
	if len(items) > 0 && len(live) == 0 {
		return nil, ErrStockUnavailable
	}

	byID := make(map[string]domain.Product, len(live))
	for _, p := range live {
		byID[p.ID] = p
	}

	var shortfalls []domain.Shortfall
	for _, it := range items {
		p, ok := byID[it.ID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", ErrStockUnavailable, it.ID)
		}

		if p.Stock-it.Quantity < 0 {
			name := p.Name
			if name == "" {
				name = it.Name
			}
			shortfalls = append(shortfalls, domain.Shortfall{
				ID:        it.ID,
				Name:      name,
				Requested: it.Quantity,
				Available: p.Stock,
			})
		}
	}
	return shortfalls, nil
}

// IDs returns the distinct product ids present in items, in cart order.
func IDs(items []domain.CartItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		ids = append(ids, it.ID)
	}
	return ids
}
