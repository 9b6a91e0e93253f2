package http

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/api"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

// MockAPI implements every API interface the handlers reach through their services.
type MockAPI struct {
	mu sync.Mutex

	Session  domain.Session
	LoginErr error

	Catalog     []domain.Product
	ProductsErr error

	Order     domain.Order
	CreateErr error

	Created   domain.Account
	SignupErr error
	ResetID   string
	ResetErr  error

	Details    domain.AccountDetails
	DetailsErr error

	Stock    domain.StockLevel
	StockErr error

	CreateInputs []domain.OrderInput
	StockUpdates []domain.StockUpdate
}

func (m *MockAPI) Login(context.Context, string, string) (domain.Session, error) {
	return m.Session, m.LoginErr
}

func (m *MockAPI) RefreshToken(context.Context, string) (string, error) {
	return "", api.ErrUnauthenticated
}

func (m *MockAPI) Products(_ context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	if m.ProductsErr != nil {
		return domain.ProductPage{}, m.ProductsErr
	}
	return domain.ProductPage{Items: m.Catalog, TotalCount: len(m.Catalog)}, nil
}

func (m *MockAPI) ProductsByID(_ context.Context, ids []string) ([]domain.Product, error) {
	if m.ProductsErr != nil {
		return nil, m.ProductsErr
	}
	var out []domain.Product
	for _, id := range ids {
		for _, p := range m.Catalog {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *MockAPI) CreateOrder(_ context.Context, in domain.OrderInput) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateInputs = append(m.CreateInputs, in)
	return m.Order, m.CreateErr
}

func (m *MockAPI) CreateAccount(_ context.Context, in domain.NewAccount) (domain.Account, error) {
	return m.Created, m.SignupErr
}

func (m *MockAPI) ForgotPassword(context.Context, string, string, string) (string, error) {
	return m.ResetID, m.ResetErr
}

func (m *MockAPI) ResetPassword(context.Context, string, string, string) (domain.Account, error) {
	return m.Created, m.ResetErr
}

func (m *MockAPI) Account(context.Context, domain.Session) (domain.AccountDetails, error) {
	return m.Details, m.DetailsErr
}

func (m *MockAPI) UpdateStock(_ context.Context, _ domain.Session, u domain.StockUpdate) (domain.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockUpdates = append(m.StockUpdates, u)
	return m.Stock, m.StockErr
}

// FailingRepository is a cart repository whose writes always fail.
type FailingRepository struct {
	Err error
}

func (f FailingRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	return nil, repository.ErrCartNotFound
}

func (f FailingRepository) AddItem(context.Context, string, domain.CartItem) (*domain.Cart, error) {
	return nil, f.Err
}

func (f FailingRepository) UpdateItemQuantity(context.Context, string, string, int) (*domain.Cart, error) {
	return nil, f.Err
}

func (f FailingRepository) RemoveItem(context.Context, string, string) (*domain.Cart, error) {
	return nil, f.Err
}

func (f FailingRepository) ClearItems(context.Context, string) (*domain.Cart, error) {
	return nil, f.Err
}

func (f FailingRepository) CompleteOrder(context.Context, string, string, []string) (*domain.Cart, error) {
	return nil, f.Err
}

func (f FailingRepository) DeleteCart(context.Context, string) error {
	return f.Err
}

func (f FailingRepository) Ping(context.Context) error {
	return f.Err
}
