package domain

import "time"

// OrderStatus enumerates lifecycle states for orders.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusCompleted OrderStatus = "completed"
)

// Order is a placed purchase. Price and CategoryID are snapshots taken
// from the item at creation time and never follow later item edits.
type Order struct {
	ID            int64
	RequesterChat int64
	RequesterName string
	ItemID        int64
	Variant       string
	Price         int64
	CategoryID    int64
	Status        OrderStatus
	CreatedAt     time.Time
}
