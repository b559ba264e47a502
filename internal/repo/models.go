package repo

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"shopbackend/internal/entities"
)

type Order struct {
	ID            string `db:"id"`
	UserID        string `db:"user_id"`
	Status        string `db:"status"`
	PaymentMethod string `db:"payment_method"`

	Street  string `db:"street"`
	City    string `db:"city"`
	State   string `db:"state"`
	ZipCode string `db:"zip_code"`
	Country string `db:"country"`

	ItemsPrice     decimal.Decimal `db:"items_price"`
	TaxPrice       decimal.Decimal `db:"tax_price"`
	ShippingPrice  decimal.Decimal `db:"shipping_price"`
	DiscountAmount decimal.Decimal `db:"discount_amount"`
	TotalPrice     decimal.Decimal `db:"total_price"`

	IsPaid        bool           `db:"is_paid"`
	PaidAt        sql.NullTime   `db:"paid_at"`
	TransactionID sql.NullString `db:"transaction_id"`

	IsDelivered bool         `db:"is_delivered"`
	DeliveredAt sql.NullTime `db:"delivered_at"`

	TrackingNumber sql.NullString `db:"tracking_number"`
	Notes          sql.NullString `db:"notes"`
	CouponCode     sql.NullString `db:"coupon_code"`

	StockRestored bool `db:"stock_restored"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type OrderItem struct {
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Image     sql.NullString  `db:"image"`
}

type Product struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Discount  decimal.Decimal `db:"discount"`
	Stock     int             `db:"stock"`
	Image     sql.NullString  `db:"image"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ProductID: i.ProductID,
		Name:      i.Name,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		Image:     nullStringToString(i.Image),
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        entities.OrderStatus(o.Status),
		PaymentMethod: entities.PaymentMethod(o.PaymentMethod),
		Address: entities.Address{
			Street:  o.Street,
			City:    o.City,
			State:   o.State,
			ZipCode: o.ZipCode,
			Country: o.Country,
		},
		ItemsPrice:     o.ItemsPrice,
		TaxPrice:       o.TaxPrice,
		ShippingPrice:  o.ShippingPrice,
		DiscountAmount: o.DiscountAmount,
		TotalPrice:     o.TotalPrice,
		IsPaid:         o.IsPaid,
		PaidAt:         nullTimeToTime(o.PaidAt),
		TransactionID:  nullStringToString(o.TransactionID),
		IsDelivered:    o.IsDelivered,
		DeliveredAt:    nullTimeToTime(o.DeliveredAt),
		TrackingNumber: nullStringToString(o.TrackingNumber),
		Notes:          nullStringToString(o.Notes),
		CouponCode:     nullStringToString(o.CouponCode),
		StockRestored:  o.StockRestored,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Discount:  p.Discount,
		Stock:     p.Stock,
		Image:     nullStringToString(p.Image),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTimeToTime(nt sql.NullTime) time.Time {
	if nt.Valid {
		return nt.Time
	}
	return time.Time{}
}
