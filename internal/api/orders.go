package api

import (
	"context"
	"sort"

	"github.com/machinebox/graphql"

	"github.com/fjod/storefront/internal/domain"
)

// Account loads the profile and order history, newest order first.
func (c *Client) Account(ctx context.Context, s domain.Session) (domain.AccountDetails, error) {
	req := graphql.NewRequest(accountQuery)
	req.Var("id", s.AccountID)
	req.Var("accessToken", s.AccessToken)
	req.Var("refreshToken", s.RefreshToken)

	var resp accountsResponse
	if err := c.run(ctx, "accounts", req, &resp); err != nil {
		return domain.AccountDetails{}, err
	}

	acc := resp.Accounts[0]
	orders := make([]domain.Order, 0, len(acc.Orders))
	for i := range acc.Orders {
		orders = append(orders, acc.Orders[i].toDomain())
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return domain.AccountDetails{
		Account: acc.toDomain(),
		Orders:  orders,
	}, nil
}

// CreateOrder submits the order. A reply without an order id yields ErrOrderNotCreated.
func (c *Client) CreateOrder(ctx context.Context, in domain.OrderInput) (domain.Order, error) {
	req := graphql.NewRequest(createOrderMutation)
	req.Var("order", in)

	var resp createOrderResponse
	if err := c.run(ctx, "createOrder", req, &resp); err != nil {
		return domain.Order{}, err
	}
	return resp.CreateOrder.toDomain(), nil
}

// UpdateStock sets the stock of a product. Authorization is enforced by the API.
func (c *Client) UpdateStock(ctx context.Context, s domain.Session, u domain.StockUpdate) (domain.StockLevel, error) {
	req := graphql.NewRequest(updateStockMutation)
	req.Var("input", updateStockInput{
		ProductID:    u.ProductID,
		Stock:        u.NewStock,
		AccountID:    s.AccountID,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	})

	var resp updateStockResponse
	if err := c.run(ctx, "updateStock", req, &resp); err != nil {
		return domain.StockLevel{}, err
	}

	p := resp.UpdateStock.Product
	return domain.StockLevel{ID: p.ID, Name: p.Name, Stock: p.Stock}, nil
}
