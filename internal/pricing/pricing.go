// Package pricing computes order totals. It is pure: the same items and
// discount always produce the same totals, which audit and tests rely on.
package pricing

import (
	"github.com/shopspring/decimal"

	"shopbackend/internal/entities"
)

type Config struct {
	// TaxRate is a fraction of itemsPrice, e.g. 0.1 for 10%.
	TaxRate decimal.Decimal
	// FreeShippingThreshold is the itemsPrice above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	// ShippingFee is the flat fee charged below the threshold.
	ShippingFee decimal.Decimal
}

// DefaultConfig mirrors the storefront's historical policy: 10% tax,
// free shipping over 50, flat 10 otherwise.
func DefaultConfig() Config {
	return Config{
		TaxRate:               decimal.NewFromFloat(0.1),
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.NewFromInt(10),
	}
}

type Totals struct {
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute derives the monetary fields from the order's own snapshot.
// Caller-supplied totals are never consulted; the total is floored at zero
// so a large discount cannot produce a negative charge.
func (e *Engine) Compute(items []entities.OrderItem, discount decimal.Decimal) Totals {
	itemsPrice := decimal.Zero
	for _, item := range items {
		itemsPrice = itemsPrice.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	taxPrice := itemsPrice.Mul(e.cfg.TaxRate)

	shippingPrice := e.cfg.ShippingFee
	if itemsPrice.GreaterThan(e.cfg.FreeShippingThreshold) {
		shippingPrice = decimal.Zero
	}

	totalPrice := itemsPrice.Add(taxPrice).Add(shippingPrice).Sub(discount)
	if totalPrice.IsNegative() {
		totalPrice = decimal.Zero
	}

	return Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    totalPrice,
	}
}
