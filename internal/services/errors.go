// Package services holds the business rules for orders and widgets. Services
// validate input beyond its shape, enforce the order status machine, call
// the repositories and map stored rows to domain entities.
//
// Predictable outcomes are returned as *apperr.Error values built by the
// constructors below, so the message texts live in one place. Storage
// failures are wrapped with context and left for the fallback error handler.
package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-commerce-backend/internal/apperr"
	"github.com/tbourn/go-commerce-backend/internal/domain"
)

// Business limits on new orders.
var (
	MinOrderTotal = decimal.NewFromInt(1)
)

const MaxItemsPerOrder = 100

func errOrderNotFound(id string) error  { return apperr.NotFound("Order", id) }
func errWidgetNotFound(id string) error { return apperr.NotFound("Widget", id) }

func errOrderTotalTooLow() error {
	return apperr.Validation("Order total must be at least $1")
}

func errTooManyItems() error {
	return apperr.Validation(fmt.Sprintf("Maximum %d items per order", MaxItemsPerOrder))
}

func errIllegalTransition(from, to domain.OrderStatus) error {
	return apperr.Validation(fmt.Sprintf("Cannot transition from '%s' to '%s'", from, to))
}

func errNotDeletable() error {
	return apperr.Validation("Only pending orders can be deleted")
}

func errConcurrentUpdate(id string) error {
	return apperr.Conflict(fmt.Sprintf("Order '%s' was modified concurrently", id), nil)
}

func errEmptyWidgetName() error {
	return apperr.Validation("Widget name cannot be empty")
}

func errWidgetNameTooLong() error {
	return apperr.Validation(fmt.Sprintf("Widget name must be at most %d characters", domain.WidgetNameMaxLen))
}
