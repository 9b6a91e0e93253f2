package domain

import "time"

// Cart is the persisted shopping cart, keyed by the cart id cookie.
// Version is bumped by every stored write.
type Cart struct {
	ID          string     `bson:"_id" json:"id"`
	Items       []CartItem `bson:"items" json:"items"`
	LastOrderID string     `bson:"last_order_id,omitempty" json:"last_order_id,omitempty"`
	Version     int64      `bson:"version" json:"version"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ID       string  `bson:"id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Image    string  `bson:"image" json:"image"`
	Quantity int     `bson:"quantity" json:"quantity"`
}
