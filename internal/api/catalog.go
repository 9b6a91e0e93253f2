package api

import (
	"context"

	"github.com/machinebox/graphql"

	"github.com/fjod/storefront/internal/domain"
)

func (c *Client) Products(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	req := graphql.NewRequest(productsQuery)
	req.Var("pagination", paginationInput{Skip: q.Skip(), Take: q.PageSize})
	req.Var("query", optional(q.Query))
	req.Var("category", optional(q.Category))
	if q.Sort != "" {
		dir := q.Direction
		if dir == "" {
			dir = domain.SortAsc
		}
		req.Var("sort", productSortInput{Field: q.Sort, Direction: dir})
	}

	var resp productsResponse
	if err := c.run(ctx, "products", req, &resp); err != nil {
		return domain.ProductPage{}, err
	}

	items := make([]domain.Product, 0, len(resp.Products.Items))
	for i := range resp.Products.Items {
		items = append(items, resp.Products.Items[i].toDomain())
	}
	return domain.ProductPage{
		Items:      items,
		TotalCount: *resp.Products.TotalCount,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}, nil
}

// ProductsByID fetches live product data, including stock, for the given ids.
// Ids unknown to the API are absent from the result.
func (c *Client) ProductsByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	req := graphql.NewRequest(productsByIDQuery)
	req.Var("ids", ids)

	var resp productsByIDResponse
	if err := c.run(ctx, "productsById", req, &resp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp.ProductsByID))
	for i := range resp.ProductsByID {
		products = append(products, resp.ProductsByID[i].toDomain())
	}
	return products, nil
}
