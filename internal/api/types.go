package api

import (
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type accountInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type forgotPasswordInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type resetPasswordInput struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type paginationInput struct {
	Skip int `json:"skip"`
	Take int `json:"take"`
}

type productSortInput struct {
	Field     domain.SortField     `json:"field"`
	Direction domain.SortDirection `json:"direction"`
}

type updateStockInput struct {
	ProductID    string `json:"productId"`
	Stock        int    `json:"stock"`
	AccountID    string `json:"accountId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type accountPayload struct {
	ID        string      `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

func (a *accountPayload) toDomain() domain.Account {
	return domain.Account{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Role:      a.Role,
	}
}

type loginResponse struct {
	Login *struct {
		Account *struct {
			ID   string      `json:"id"`
			Role domain.Role `json:"role"`
		} `json:"account"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"login"`
}

func (r *loginResponse) validate() error {
	l := r.Login
	if l == nil || l.Account == nil {
		return fmt.Errorf("%w: login payload missing account", ErrMalformedResponse)
	}
	if l.Account.ID == "" || l.Account.Role == "" || l.AccessToken == "" || l.RefreshToken == "" {
		return fmt.Errorf("%w: login payload missing session fields", ErrMalformedResponse)
	}
	return nil
}

type refreshTokenResponse struct {
	RefreshToken *struct {
		AccessToken string `json:"accessToken"`
	} `json:"refreshToken"`
}

func (r *refreshTokenResponse) validate() error {
	if r.RefreshToken == nil || r.RefreshToken.AccessToken == "" {
		return fmt.Errorf("%w: refresh payload missing access token", ErrMalformedResponse)
	}
	return nil
}

type createAccountResponse struct {
	CreateAccount *accountPayload `json:"createAccount"`
}

func (r *createAccountResponse) validate() error {
	if r.CreateAccount == nil || r.CreateAccount.ID == "" {
		return fmt.Errorf("%w: createAccount payload missing id", ErrMalformedResponse)
	}
	return nil
}

type forgotPasswordResponse struct {
	ForgotPassword *struct {
		ID string `json:"id"`
	} `json:"forgotPassword"`
}

func (r *forgotPasswordResponse) validate() error {
	if r.ForgotPassword == nil || r.ForgotPassword.ID == "" {
		return ErrNotFound
	}
	return nil
}

type resetPasswordResponse struct {
	ResetPassword *accountPayload `json:"resetPassword"`
}

func (r *resetPasswordResponse) validate() error {
	if r.ResetPassword == nil || r.ResetPassword.ID == "" {
		return fmt.Errorf("%w: resetPassword payload missing id", ErrMalformedResponse)
	}
	return nil
}

type productPayload struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	ImageURL     string  `json:"imageUrl"`
	Availability bool    `json:"availability"`
	Stock        *int    `json:"stock"`
}

func (p *productPayload) validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: product without id", ErrMalformedResponse)
	}
	if p.Stock == nil {
		return fmt.Errorf("%w: product %s without stock", ErrMalformedResponse, p.ID)
	}
	return nil
}

func (p *productPayload) toDomain() domain.Product {
	return domain.Product{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Price:        p.Price,
		ImageURL:     p.ImageURL,
		Availability: p.Availability,
		Stock:        *p.Stock,
	}
}

type productsResponse struct {
	Products *struct {
		Items      []productPayload `json:"items"`
		TotalCount *int             `json:"totalCount"`
	} `json:"products"`
}

func (r *productsResponse) validate() error {
	if r.Products == nil || r.Products.TotalCount == nil {
		return fmt.Errorf("%w: products payload missing", ErrMalformedResponse)
	}
	for i := range r.Products.Items {
		if err := r.Products.Items[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type productsByIDResponse struct {
	ProductsByID []productPayload `json:"productsById"`
}

func (r *productsByIDResponse) validate() error {
	for i := range r.ProductsByID {
		if err := r.ProductsByID[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

type orderPayload struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	TotalPrice float64   `json:"totalPrice"`
	Products   []struct {
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	} `json:"products"`
}

func (o *orderPayload) toDomain() domain.Order {
	products := make([]domain.OrderedProduct, 0, len(o.Products))
	for _, p := range o.Products {
		products = append(products, domain.OrderedProduct{
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price,
		})
	}
	return domain.Order{
		ID:         o.ID,
		CreatedAt:  o.CreatedAt,
		TotalPrice: o.TotalPrice,
		Products:   products,
	}
}

type accountsResponse struct {
	Accounts []struct {
		accountPayload
		Orders []orderPayload `json:"orders"`
	} `json:"accounts"`
}

func (r *accountsResponse) validate() error {
	if len(r.Accounts) == 0 {
		return ErrNotFound
	}
	if r.Accounts[0].ID == "" {
		return fmt.Errorf("%w: account without id", ErrMalformedResponse)
	}
	return nil
}

type createOrderResponse struct {
	CreateOrder *orderPayload `json:"createOrder"`
}

func (r *createOrderResponse) validate() error {
	if r.CreateOrder == nil || r.CreateOrder.ID == "" {
		return ErrOrderNotCreated
	}
	return nil
}

type updateStockResponse struct {
	UpdateStock *struct {
		Product *struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Stock int    `json:"stock"`
		} `json:"product"`
	} `json:"updateStock"`
}

func (r *updateStockResponse) validate() error {
	if r.UpdateStock == nil || r.UpdateStock.Product == nil || r.UpdateStock.Product.ID == "" {
		return fmt.Errorf("%w: updateStock payload missing product", ErrMalformedResponse)
	}
	return nil
}
