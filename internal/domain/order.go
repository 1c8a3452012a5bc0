// Package domain defines the business entities exposed by the API (orders and
// widgets) together with the order status transition map. Entities are plain
// values: persistence shapes live in package repo and services map between
// the two.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is rendered as a JSON number (99.99), not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// transitions is the per-status set of legal next statuses. Terminal
// statuses map to an empty set.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// NextStatuses returns the statuses reachable from s in one step.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool { return s.Valid() && len(transitions[s]) == 0 }

// OrderItem is a single order line.
type OrderItem struct {
	ProductID string          `json:"productId" example:"123e4567-e89b-12d3-a456-426614174002"`
	Quantity  int             `json:"quantity" example:"2"`
	Price     decimal.Decimal `json:"price" swaggertype:"number" example:"25"`
}

// Subtotal returns price × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a customer order.
//
// Total always equals the sum of item subtotals at creation time; it is
// derived, never client supplied, and never changed afterwards.
type Order struct {
	ID        string          `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	UserID    string          `json:"userId" example:"123e4567-e89b-12d3-a456-426614174001"`
	Status    OrderStatus     `json:"status" example:"pending"`
	Total     decimal.Decimal `json:"total" swaggertype:"number" example:"99.99"`
	Items     []OrderItem     `json:"items"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OrderTotals computes the order value and the total item count of items.
func OrderTotals(items []OrderItem) (total decimal.Decimal, quantity int) {
	total = decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
		quantity += it.Quantity
	}
	return total, quantity
}
