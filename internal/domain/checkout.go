package domain

import "time"

type CheckoutOutcome string

const (
	OutcomeOrderSuccessful   CheckoutOutcome = "orderSuccessful"
	OutcomeOrderFailed       CheckoutOutcome = "orderFailed"
	OutcomeInsufficientStock CheckoutOutcome = "insufficientStock"
	OutcomeError             CheckoutOutcome = "error"
	// OutcomeLoginRequired is recorded when checkout aborts for a missing session.
	OutcomeLoginRequired CheckoutOutcome = "loginRequired"
)

func (o CheckoutOutcome) IsSuccess() bool {
	return o == OutcomeOrderSuccessful
}

// String representation (for logging and metric labels)
func (o CheckoutOutcome) String() string {
	return string(o)
}

// Shortfall is a cart line whose requested quantity exceeds live stock.
type Shortfall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// CheckoutAttempt is the ledger record of one checkout invocation.
type CheckoutAttempt struct {
	ID         string
	CartID     string
	AccountID  string
	Outcome    CheckoutOutcome
	OrderID    string
	Lines      []OrderLine
	Shortfalls []Shortfall
	Subtotal   string
	Reason     string
	CreatedAt  time.Time
}

// OrderPlaced is the event payload published after a successful checkout.
type OrderPlaced struct {
	OrderID   string      `json:"order_id"`
	AccountID string      `json:"account_id"`
	CartID    string      `json:"cart_id"`
	Lines     []OrderLine `json:"lines"`
	Subtotal  string      `json:"subtotal"`
	PlacedAt  time.Time   `json:"placed_at"`
}

const EventTypeOrderPlaced = "OrderPlaced"
