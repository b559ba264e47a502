package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog's entity. The order subsystem reads it and
// mutates only the Stock counter.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Discount decimal.Decimal // percentage, 0..100
	Stock    int
	Image    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

var hundred = decimal.NewFromInt(100)

// DiscountedPrice is the unit price after applying the product's
// percentage discount. This is the price snapshotted into orders.
func (p Product) DiscountedPrice() decimal.Decimal {
	if p.Discount.IsPositive() {
		return p.Price.Sub(p.Price.Mul(p.Discount).Div(hundred))
	}
	return p.Price
}
