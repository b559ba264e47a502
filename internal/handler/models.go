package handler

import (
	"time"

	"shopbackend/internal/entities"
	"shopbackend/internal/service"
)

// PlaceOrderRequest is the checkout payload. Monetary totals are never
// accepted from the client; they are recomputed server-side.
type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shipping_address" validate:"required"`
	PaymentMethod   string             `json:"payment_method" validate:"required,oneof=credit_card debit_card paypal stripe cash_on_delivery"`
	Notes           string             `json:"notes,omitempty" validate:"max=500"`
	CouponCode      string             `json:"coupon_code,omitempty"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type AddressRequest struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zip_code" validate:"required"`
	Country string `json:"country" validate:"required"`
}

type UpdateStatusRequest struct {
	Status         string  `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled refunded"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// Order is the wire representation of an order.
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Items         []OrderItem `json:"items"`
	Address       Address     `json:"shipping_address"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`

	ItemsPrice     float64 `json:"items_price"`
	TaxPrice       float64 `json:"tax_price"`
	ShippingPrice  float64 `json:"shipping_price"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalPrice     float64 `json:"total_price"`

	IsPaid        bool       `json:"is_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`

	IsDelivered bool       `json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	TrackingNumber string `json:"tracking_number,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CouponCode     string `json:"coupon_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Image     string  `json:"image,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type OrderListResponse struct {
	Data       []Order    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PaymentResult is the payment provider's event consumed from Kafka.
type PaymentResult struct {
	OrderID       string `json:"order_id" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
	Status        string `json:"status" validate:"required"`
	PaidAt        int64  `json:"paid_at,omitempty"`
}

func (r PlaceOrderRequest) ToParams(userID string) service.PlaceOrderParams {
	items := make([]service.PlaceOrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, service.PlaceOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return service.PlaceOrderParams{
		UserID: userID,
		Items:  items,
		Address: entities.Address{
			Street:  r.ShippingAddress.Street,
			City:    r.ShippingAddress.City,
			State:   r.ShippingAddress.State,
			ZipCode: r.ShippingAddress.ZipCode,
			Country: r.ShippingAddress.Country,
		},
		PaymentMethod: entities.PaymentMethod(r.PaymentMethod),
		Notes:         r.Notes,
		CouponCode:    r.CouponCode,
	}
}

func PaymentResultToEntity(p PaymentResult) entities.PaymentResult {
	result := entities.PaymentResult{
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		Status:        p.Status,
	}
	if p.PaidAt > 0 {
		result.PaidAt = time.Unix(p.PaidAt, 0)
	}
	return result
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
			Image:     it.Image,
		})
	}

	return Order{
		ID:     o.ID,
		UserID: o.UserID,
		Items:  items,
		Address: Address{
			Street:  o.Address.Street,
			City:    o.Address.City,
			State:   o.Address.State,
			ZipCode: o.Address.ZipCode,
			Country: o.Address.Country,
		},
		PaymentMethod:  string(o.PaymentMethod),
		Status:         string(o.Status),
		ItemsPrice:     o.ItemsPrice.InexactFloat64(),
		TaxPrice:       o.TaxPrice.InexactFloat64(),
		ShippingPrice:  o.ShippingPrice.InexactFloat64(),
		DiscountAmount: o.DiscountAmount.InexactFloat64(),
		TotalPrice:     o.TotalPrice.InexactFloat64(),
		IsPaid:         o.IsPaid,
		PaidAt:         timePtr(o.PaidAt),
		TransactionID:  o.TransactionID,
		IsDelivered:    o.IsDelivered,
		DeliveredAt:    timePtr(o.DeliveredAt),
		TrackingNumber: o.TrackingNumber,
		Notes:          o.Notes,
		CouponCode:     o.CouponCode,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func OrdersToListResponse(orders []entities.Order, p entities.Pagination) OrderListResponse {
	data := make([]Order, 0, len(orders))
	for _, o := range orders {
		data = append(data, OrderEntityToJSON(o))
	}
	return OrderListResponse{
		Data: data,
		Pagination: Pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: p.Total,
			Pages: p.Pages,
		},
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
