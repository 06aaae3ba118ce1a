package models

import "time"

// OrderStatus defines the set of allowed statuses for an Order.
type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
)

// Order is one completed purchase, keyed by the payment provider's
// order reference. ProviderRef is unique at the store level so a
// replayed webhook resolves to the same row.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	ProviderRef string      `json:"provider_ref"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
