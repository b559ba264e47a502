package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"shopbackend/internal/entities"
	"shopbackend/internal/pricing"
)

func item(price int64, qty int) entities.OrderItem {
	return entities.OrderItem{UnitPrice: decimal.NewFromInt(price), Quantity: qty}
}

func TestEngine_Compute(t *testing.T) {
	testCases := []struct {
		name         string
		items        []entities.OrderItem
		discount     decimal.Decimal
		wantItems    string
		wantTax      string
		wantShipping string
		wantTotal    string
	}{
		{
			name:         "free shipping over threshold",
			items:        []entities.OrderItem{item(100, 2)},
			discount:     decimal.Zero,
			wantItems:    "200",
			wantTax:      "20",
			wantShipping: "0",
			wantTotal:    "220",
		},
		{
			name:         "flat shipping under threshold",
			items:        []entities.OrderItem{item(20, 2)},
			discount:     decimal.Zero,
			wantItems:    "40",
			wantTax:      "4",
			wantShipping: "10",
			wantTotal:    "54",
		},
		{
			name:         "threshold is exclusive",
			items:        []entities.OrderItem{item(50, 1)},
			discount:     decimal.Zero,
			wantItems:    "50",
			wantTax:      "5",
			wantShipping: "10",
			wantTotal:    "65",
		},
		{
			name:         "discount applies to total",
			items:        []entities.OrderItem{item(100, 1)},
			discount:     decimal.NewFromInt(15),
			wantItems:    "100",
			wantTax:      "10",
			wantShipping: "0",
			wantTotal:    "95",
		},
		{
			name:         "total floored at zero",
			items:        []entities.OrderItem{item(10, 1)},
			discount:     decimal.NewFromInt(1000),
			wantItems:    "10",
			wantTax:      "1",
			wantShipping: "10",
			wantTotal:    "0",
		},
		{
			name:         "no items",
			items:        nil,
			discount:     decimal.Zero,
			wantItems:    "0",
			wantTax:      "0",
			wantShipping: "10",
			wantTotal:    "10",
		},
		{
			name:         "fractional unit price",
			items:        []entities.OrderItem{{UnitPrice: decimal.NewFromFloat(19.99), Quantity: 3}},
			discount:     decimal.Zero,
			wantItems:    "59.97",
			wantTax:      "5.997",
			wantShipping: "0",
			wantTotal:    "65.967",
		},
	}

	engine := pricing.NewEngine(pricing.DefaultConfig())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Compute(tc.items, tc.discount)

			assert.True(t, got.ItemsPrice.Equal(decimal.RequireFromString(tc.wantItems)), "itemsPrice = %s", got.ItemsPrice)
			assert.True(t, got.TaxPrice.Equal(decimal.RequireFromString(tc.wantTax)), "taxPrice = %s", got.TaxPrice)
			assert.True(t, got.ShippingPrice.Equal(decimal.RequireFromString(tc.wantShipping)), "shippingPrice = %s", got.ShippingPrice)
			assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString(tc.wantTotal)), "totalPrice = %s", got.TotalPrice)
		})
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultConfig())
	items := []entities.OrderItem{item(33, 3), {UnitPrice: decimal.NewFromFloat(0.07), Quantity: 11}}

	first := engine.Compute(items, decimal.NewFromInt(5))
	for i := 0; i < 10; i++ {
		again := engine.Compute(items, decimal.NewFromInt(5))
		assert.True(t, first.TotalPrice.Equal(again.TotalPrice))
		assert.True(t, first.ItemsPrice.Equal(again.ItemsPrice))
	}
}
