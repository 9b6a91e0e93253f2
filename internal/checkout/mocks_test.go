package checkout

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

// MockOrderAPI implements OrderAPI for testing
type MockOrderAPI struct {
	mu        sync.Mutex
	Products  []domain.Product
	StockErr  error
	Order     domain.Order
	CreateErr error

	StockCalls   [][]string
	CreateInputs []domain.OrderInput
	// Block, when set, holds ProductsByID until closed.
	Block chan struct{}
}

func (m *MockOrderAPI) ProductsByID(_ context.Context, ids []string) ([]domain.Product, error) {
	m.mu.Lock()
	m.StockCalls = append(m.StockCalls, ids)
	m.mu.Unlock()
	if m.Block != nil {
		<-m.Block
	}
	return m.Products, m.StockErr
}

func (m *MockOrderAPI) CreateOrder(_ context.Context, in domain.OrderInput) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateInputs = append(m.CreateInputs, in)
	return m.Order, m.CreateErr
}

// MockLedger implements Ledger for testing
type MockLedger struct {
	mu       sync.Mutex
	Attempts []domain.CheckoutAttempt
	Events   []*repository.OutboxEvent
	Err      error
}

func (m *MockLedger) RecordAttempt(_ context.Context, a *domain.CheckoutAttempt, event *repository.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts = append(m.Attempts, *a)
	if event != nil {
		m.Events = append(m.Events, event)
	}
	return m.Err
}

type MockSessions struct {
	Sess domain.Session
	OK   bool
}

func (m MockSessions) Session() (domain.Session, bool) {
	return m.Sess, m.OK
}

// MockPersister implements cart.Persister and fails every write with Err.
type MockPersister struct {
	Err       error
	Completed []string
}

func (m *MockPersister) AddItem(context.Context, string, domain.CartItem) (*domain.Cart, error) {
	return nil, m.Err
}

func (m *MockPersister) UpdateQuantity(context.Context, string, string, int) (*domain.Cart, error) {
	return nil, m.Err
}

func (m *MockPersister) RemoveItem(context.Context, string, string) (*domain.Cart, error) {
	return nil, m.Err
}

func (m *MockPersister) Clear(context.Context, string) (*domain.Cart, error) {
	return nil, m.Err
}

func (m *MockPersister) CompleteOrder(_ context.Context, _, orderID string, _ []string) (*domain.Cart, error) {
	m.Completed = append(m.Completed, orderID)
	return nil, m.Err
}
