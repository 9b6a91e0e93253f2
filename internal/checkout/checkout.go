// Package checkout sequences session check, stock verification and order
// submission for a cart.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/api"
	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/monitoring"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/stock"
	"github.com/fjod/storefront/pkg/logger"
)

// SuccessPath is the confirmation page shown after an order is placed.
const SuccessPath = "/checkout/success"

// OrderAPI is the part of the storefront API used during checkout.
type OrderAPI interface {
	ProductsByID(ctx context.Context, ids []string) ([]domain.Product, error)
	CreateOrder(ctx context.Context, in domain.OrderInput) (domain.Order, error)
}

type Ledger interface {
	RecordAttempt(ctx context.Context, a *domain.CheckoutAttempt, event *repository.OutboxEvent) error
}

// Cart is the view of the cart store checkout needs.
type Cart interface {
	Items() []domain.CartItem
	Lines() []domain.OrderLine
	Subtotal() decimal.Decimal
	IsEmpty() bool
	CompleteOrder(ctx context.Context, orderID string) error
}

// CartLoader opens the current stored cart for cartID.
type CartLoader func(ctx context.Context, cartID string) (Cart, error)

// StoredCarts loads carts straight from storage, so an attempt always sees
// the writes of the attempt before it.
func StoredCarts(s *cart.Storage) CartLoader {
	return func(ctx context.Context, cartID string) (Cart, error) {
		store, err := cart.OpenLatest(ctx, s, cartID)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

type SessionSource interface {
	Session() (domain.Session, bool)
}

// Result carries exactly one outcome of a checkout attempt.
type Result struct {
	Outcome    domain.CheckoutOutcome
	Order      *domain.Order
	Shortfalls []domain.Shortfall
	Redirect   string
}

type Service struct {
	api    OrderAPI
	carts  CartLoader
	ledger Ledger
	gate   Gate
	log    *zap.Logger
	now    func() time.Time
}

func NewService(a OrderAPI, carts CartLoader, ledger Ledger, gate Gate, log *zap.Logger) *Service {
	if gate == nil {
		gate = NewMemoryGate()
	}
	return &Service{api: a, carts: carts, ledger: ledger, gate: gate, log: log, now: time.Now}
}

// Checkout runs one attempt on cartID. The cart is read only once the gate is
// held, so an attempt never orders from a copy taken before an earlier attempt
// finished. Remote failures are reported through the outcome; the returned
// error is reserved for an empty cart, an unreadable cart or a concurrent
// attempt on the same cart. The order call is never retried.
func (s *Service) Checkout(ctx context.Context, cartID string, sessions SessionSource) (Result, error) {
	monitoring.RecordCheckoutAttempt()
	log := logger.WithContext(ctx, s.log).With(zap.String("cart_id", cartID))

	attempt := &domain.CheckoutAttempt{
		ID:        uuid.NewString(),
		CartID:    cartID,
		CreatedAt: s.now(),
	}

	sess, ok := sessions.Session()
	if !ok {
		attempt.Outcome = domain.OutcomeLoginRequired
		s.finish(ctx, log, attempt, nil)
		return Result{Outcome: domain.OutcomeLoginRequired, Redirect: auth.LoginPath}, nil
	}
	attempt.AccountID = sess.AccountID

	release, err := s.gate.Acquire(ctx, cartID)
	if errors.Is(err, ErrCheckoutInProgress) {
		return Result{}, err
	}
	if err != nil {
		return s.fail(ctx, log, attempt, fmt.Errorf("acquire checkout gate: %w", err)), nil
	}
	defer release()

	c, err := s.carts(ctx, cartID)
	if err != nil {
		return Result{}, err
	}
	if c.IsEmpty() {
		return Result{}, ErrEmptyCart
	}

	items := c.Items()
	attempt.Lines = c.Lines()
	attempt.Subtotal = c.Subtotal().StringFixed(2)

	live, err := s.api.ProductsByID(ctx, stock.IDs(items))
	if err != nil {
		return s.fail(ctx, log, attempt, fmt.Errorf("fetch live stock: %w", err)), nil
	}

	shortfalls, err := stock.Verify(items, live)
	if err != nil {
		return s.fail(ctx, log, attempt, err), nil
	}
	if len(shortfalls) > 0 {
		attempt.Outcome = domain.OutcomeInsufficientStock
		attempt.Shortfalls = shortfalls
		s.finish(ctx, log, attempt, nil)
		return Result{Outcome: domain.OutcomeInsufficientStock, Shortfalls: shortfalls}, nil
	}

	order, err := s.api.CreateOrder(ctx, domain.OrderInput{
		AccountID:    sess.AccountID,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		Products:     attempt.Lines,
	})
	if errors.Is(err, api.ErrOrderNotCreated) {
		attempt.Outcome = domain.OutcomeOrderFailed
		attempt.Reason = err.Error()
		s.finish(ctx, log, attempt, nil)
		return Result{Outcome: domain.OutcomeOrderFailed}, nil
	}
	if err != nil {
		return s.fail(ctx, log, attempt, fmt.Errorf("create order: %w", err)), nil
	}

	// the order exists remotely from here on; a failed cart write does not undo it
	if err := c.CompleteOrder(ctx, order.ID); err != nil {
		log.Error("failed to clear cart after order", zap.String("order_id", order.ID), zap.Error(err))
	}

	attempt.Outcome = domain.OutcomeOrderSuccessful
	attempt.OrderID = order.ID
	s.finish(ctx, log, attempt, s.orderPlaced(attempt))

	return Result{Outcome: domain.OutcomeOrderSuccessful, Order: &order, Redirect: SuccessPath}, nil
}

func (s *Service) fail(ctx context.Context, log *zap.Logger, attempt *domain.CheckoutAttempt, err error) Result {
	attempt.Outcome = domain.OutcomeError
	attempt.Reason = err.Error()
	s.finish(ctx, log, attempt, nil)
	return Result{Outcome: domain.OutcomeError}
}

func (s *Service) finish(ctx context.Context, log *zap.Logger, attempt *domain.CheckoutAttempt, event *repository.OutboxEvent) {
	monitoring.RecordCheckoutOutcome(attempt.Outcome.String())
	log.Info("checkout finished",
		zap.String("attempt_id", attempt.ID),
		zap.String("outcome", attempt.Outcome.String()),
		zap.String("order_id", attempt.OrderID),
		zap.String("reason", attempt.Reason),
	)

	if s.ledger == nil {
		return
	}
	if err := s.ledger.RecordAttempt(ctx, attempt, event); err != nil {
		log.Error("failed to record checkout attempt", zap.String("attempt_id", attempt.ID), zap.Error(err))
	}
}

func (s *Service) orderPlaced(attempt *domain.CheckoutAttempt) *repository.OutboxEvent {
	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:   attempt.OrderID,
		AccountID: attempt.AccountID,
		CartID:    attempt.CartID,
		Lines:     attempt.Lines,
		Subtotal:  attempt.Subtotal,
		PlacedAt:  attempt.CreatedAt,
	})
	if err != nil {
		s.log.Error("failed to marshal order placed event", zap.Error(err))
		return nil
	}
	return &repository.OutboxEvent{
		AggregateID: attempt.OrderID,
		EventType:   domain.EventTypeOrderPlaced,
		Payload:     payload,
	}
}
