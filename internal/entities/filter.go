package entities

import "time"

// OrderFilter narrows and pages order listings. Zero values mean
// "no constraint".
type OrderFilter struct {
	UserID string
	Status OrderStatus

	CreatedFrom time.Time
	CreatedTo   time.Time

	// Sort is a whitelisted column name, prefixed with '-' for
	// descending order. Empty means "-created_at".
	Sort string

	Page  int
	Limit int
}

// StatusUpdate describes one status transition. Optional fields are
// pointers so "not provided" and "clear" stay distinguishable.
type StatusUpdate struct {
	OrderID string
	Status  OrderStatus

	TrackingNumber *string
	Notes          *string

	IsDelivered bool
	DeliveredAt time.Time
}

type Pagination struct {
	Page  int
	Limit int
	Total int
	Pages int
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
