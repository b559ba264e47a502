package entities

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidOrder    = errors.New("invalid order data")

	// ErrEmptyOrder is returned when a placement request carries no items.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrOrderNotCancellable is returned when the order already left the
	// pending/processing window.
	ErrOrderNotCancellable = errors.New("order cannot be cancelled at this stage")

	// ErrInvalidStatusTransition is returned for transitions the state
	// machine forbids. The order is left untouched.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	// ErrInsufficientStock is the bare kind; the lifecycle manager wraps
	// it into an InsufficientStockError naming the product.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError names the product that lost the stock race or
// failed the pre-check, so callers can tell which line item to fix.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s): requested %d", e.Name, e.ProductID, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}
