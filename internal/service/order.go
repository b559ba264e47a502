package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopbackend/internal/entities"
	"shopbackend/internal/events"
	"shopbackend/internal/pricing"
	"shopbackend/pkg/trm"
	"shopbackend/pkg/utils"
)

type OrderRepo interface {
	// CreateOrder is idempotent (ON CONFLICT DO NOTHING), so retrying a
	// failed persist cannot duplicate an order.
	CreateOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, int, error)
	UpdateOrderStatus(ctx context.Context, upd entities.StatusUpdate) error
	MarkStockRestored(ctx context.Context, orderID string) error
	MarkOrderPaid(ctx context.Context, orderID, transactionID string, paidAt time.Time) error
}

type ProductRepo interface {
	GetProducts(ctx context.Context, productIDs []string) ([]entities.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) error
	IncrementStock(ctx context.Context, productID string, quantity int) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type Publisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}

type PlaceOrderItem struct {
	ProductID string
	Quantity  int
}

// PlaceOrderParams carries only what the caller may choose. Monetary
// fields are computed server-side; CouponCode is recorded opaquely and
// the discount stays zero at placement.
type PlaceOrderParams struct {
	UserID        string
	Items         []PlaceOrderItem
	Address       entities.Address
	PaymentMethod entities.PaymentMethod
	Notes         string
	CouponCode    string
}

var defaultRetry = utils.RetryConfig{
	InitialDelay: 100 * time.Millisecond,
	MaxAttempts:  5,
	Multiplier:   2,
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	products  ProductRepo
	pricing   *pricing.Engine
	cache     Cache
	publisher Publisher
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	products ProductRepo,
	engine *pricing.Engine,
	cache Cache,
	publisher Publisher,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		products:  products,
		pricing:   engine,
		cache:     cache,
		publisher: publisher,
	}
}

// PlaceOrder reserves stock for every requested item and persists the
// order. Stock is decremented product by product in a fixed order, with
// the storage-level conditional update as the authoritative gate; the
// order row is only written after every decrement succeeded, and any
// partial reservation is reversed before an error surfaces.
func (s *orderService) PlaceOrder(ctx context.Context, params PlaceOrderParams) (entities.Order, error) {
	if len(params.Items) == 0 {
		return entities.Order{}, entities.ErrEmptyOrder
	}

	items, err := s.snapshotItems(ctx, params.Items)
	if err != nil {
		return entities.Order{}, err
	}

	totals := s.pricing.Compute(items, decimal.Zero)

	now := time.Now()
	order := entities.Order{
		ID:             uuid.NewString(),
		UserID:         params.UserID,
		Items:          items,
		Address:        params.Address,
		PaymentMethod:  params.PaymentMethod,
		Status:         entities.StatusPending,
		ItemsPrice:     totals.ItemsPrice,
		TaxPrice:       totals.TaxPrice,
		ShippingPrice:  totals.ShippingPrice,
		DiscountAmount: decimal.Zero,
		TotalPrice:     totals.TotalPrice,
		Notes:          params.Notes,
		CouponCode:     params.CouponCode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	reserved, err := s.reserveStock(ctx, items)
	if err != nil {
		return entities.Order{}, err
	}

	persist := func() error {
		return s.txManager.Do(ctx, func(ctx context.Context) error {
			return s.orders.CreateOrder(ctx, order)
		})
	}
	if err := utils.Retry(defaultRetry, persist); err != nil {
		s.releaseStock(ctx, reserved)
		return entities.Order{}, fmt.Errorf("failed to persist order: %w", err)
	}

	s.cacheOrder(order)
	s.publish(ctx, events.EventOrderPlaced, order)
	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.String("total_price", order.TotalPrice.String()),
	)
	return order, nil
}

// snapshotItems resolves every requested product and captures its
// discount-adjusted price. The snapshot is final: catalog price changes
// never alter an existing order. Duplicate lines for the same product
// are merged by summing quantities, so an order carries exactly one
// line per product and every decrement pairs with one stored row.
func (s *orderService) snapshotItems(ctx context.Context, requested []PlaceOrderItem) ([]entities.OrderItem, error) {
	merged := make([]PlaceOrderItem, 0, len(requested))
	lineFor := make(map[string]int, len(requested))
	for _, item := range requested {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", entities.ErrInvalidOrder)
		}
		if i, ok := lineFor[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		lineFor[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	ids := make([]string, 0, len(merged))
	for _, item := range merged {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}
	byID := make(map[string]entities.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]entities.OrderItem, 0, len(merged))
	for _, item := range merged {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", entities.ErrProductNotFound, item.ProductID)
		}
		// Optimistic pre-check only; the conditional decrement decides.
		if product.Stock < item.Quantity {
			return nil, &entities.InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: item.Quantity,
			}
		}
		items = append(items, entities.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.DiscountedPrice(),
			Image:     product.Image,
		})
	}
	return items, nil
}

// reserveStock decrements products in product-id order. On the first
// failure it reverses the decrements already applied, in reverse order,
// and reports why.
func (s *orderService) reserveStock(ctx context.Context, items []entities.OrderItem) ([]entities.OrderItem, error) {
	sorted := make([]entities.OrderItem, len(items))
	copy(sorted, items)
	slices.SortFunc(sorted, func(a, b entities.OrderItem) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})

	reserved := make([]entities.OrderItem, 0, len(sorted))
	for _, item := range sorted {
		err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err == nil {
			reserved = append(reserved, item)
			continue
		}

		s.releaseStock(ctx, reserved)

		if errors.Is(err, entities.ErrInsufficientStock) {
			s.logger.WarnContext(ctx, "lost stock race",
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
			)
			return nil, &entities.InsufficientStockError{
				ProductID: item.ProductID,
				Name:      item.Name,
				Requested: item.Quantity,
			}
		}
		// Unknown outcome (timeout, I/O): the failed decrement is not
		// compensated because it may not have applied.
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}
	return reserved, nil
}

// releaseStock is the compensating action for reserveStock: increments
// in reverse order, retrying each. Failures are logged and do not stop
// the remaining compensations.
func (s *orderService) releaseStock(ctx context.Context, reserved []entities.OrderItem) {
	for i := len(reserved) - 1; i >= 0; i-- {
		item := reserved[i]
		err := utils.Retry(defaultRetry, func() error {
			return s.products.IncrementStock(ctx, item.ProductID, item.Quantity)
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to release reserved stock",
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.Any("error", err),
			)
		}
	}
}

// CancelOrder moves an owned pending/processing order to cancelled and
// returns its items to the catalog. The stock_restored flag makes the
// restoration idempotent: a cancellation interrupted between the status
// write and the increments resumes from the order's own item list.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID string) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.UserID != userID {
		return entities.Order{}, entities.ErrOrderNotFound
	}

	if order.Status == entities.StatusCancelled {
		if order.StockRestored {
			return entities.Order{}, entities.ErrOrderNotCancellable
		}
		// Retry after a partial failure: status already persisted,
		// stock not yet returned.
		return s.finishCancellation(ctx, order)
	}

	if !order.Status.Cancellable() {
		return entities.Order{}, entities.ErrOrderNotCancellable
	}

	upd := entities.StatusUpdate{OrderID: order.ID, Status: entities.StatusCancelled}
	if err := s.orders.UpdateOrderStatus(ctx, upd); err != nil {
		return entities.Order{}, fmt.Errorf("failed to cancel order: %w", err)
	}
	order.Status = entities.StatusCancelled

	return s.finishCancellation(ctx, order)
}

func (s *orderService) finishCancellation(ctx context.Context, order entities.Order) (entities.Order, error) {
	var restoreErr error
	for _, item := range order.Items {
		err := utils.Retry(defaultRetry, func() error {
			return s.products.IncrementStock(ctx, item.ProductID, item.Quantity)
		})
		if err != nil {
			restoreErr = errors.Join(restoreErr, fmt.Errorf("product %s: %w", item.ProductID, err))
		}
	}
	if restoreErr != nil {
		// stock_restored stays false, a retried cancellation resumes here.
		return entities.Order{}, fmt.Errorf("failed to restore stock: %w", restoreErr)
	}

	if err := s.orders.MarkStockRestored(ctx, order.ID); err != nil {
		return entities.Order{}, err
	}
	order.StockRestored = true

	s.cacheOrder(order)
	s.publish(ctx, events.EventOrderCancelled, order)
	s.logger.InfoContext(ctx, "order cancelled", slog.String("order_id", order.ID))
	return order, nil
}

// UpdateStatus applies an administrative transition. Invalid transitions
// leave the order untouched. A transition into cancelled goes through
// the same stock restoration as a user cancellation.
func (s *orderService) UpdateStatus(ctx context.Context, upd entities.StatusUpdate) (entities.Order, error) {
	if !upd.Status.Valid() {
		return entities.Order{}, fmt.Errorf("%w: unknown status %q", entities.ErrInvalidStatusTransition, upd.Status)
	}

	order, err := s.orders.GetOrderByID(ctx, upd.OrderID)
	if err != nil {
		return entities.Order{}, err
	}

	// A cancellation whose stock restoration failed mid-way left the
	// order cancelled with stock_restored unset; a repeated cancel
	// resumes the restoration instead of failing the transition check.
	if upd.Status == entities.StatusCancelled &&
		order.Status == entities.StatusCancelled && !order.StockRestored {
		return s.finishCancellation(ctx, order)
	}

	if !order.Status.CanTransitionTo(upd.Status) {
		return entities.Order{}, fmt.Errorf("%w: %s -> %s", entities.ErrInvalidStatusTransition, order.Status, upd.Status)
	}

	if upd.Status == entities.StatusDelivered {
		upd.IsDelivered = true
		upd.DeliveredAt = time.Now()
	}

	if err := s.orders.UpdateOrderStatus(ctx, upd); err != nil {
		return entities.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = upd.Status
	order.IsDelivered = order.IsDelivered || upd.IsDelivered
	if upd.IsDelivered {
		order.DeliveredAt = upd.DeliveredAt
	}
	if upd.TrackingNumber != nil {
		order.TrackingNumber = *upd.TrackingNumber
	}
	if upd.Notes != nil {
		order.Notes = *upd.Notes
	}

	if upd.Status == entities.StatusCancelled {
		return s.finishCancellation(ctx, order)
	}

	s.cacheOrder(order)
	s.publish(ctx, events.EventStatusChanged, order)
	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err != nil {
			s.logger.Error("failed to unmarshal cached order", slog.String("order_id", orderID), slog.Any("error", err))
			return entities.Order{}, err
		}
		return order, nil
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.orders.GetOrderByID(ctx, orderID)
		return err
	}
	if err := utils.Retry(defaultRetry, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	s.cacheOrder(order)
	return order, nil
}

// GetUserOrder is the caller-scoped read: an order owned by someone else
// is indistinguishable from a missing one.
func (s *orderService) GetUserOrder(ctx context.Context, orderID, userID string) (entities.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.UserID != userID {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, entities.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	orders, total, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, entities.Pagination{}, err
	}
	return orders, entities.NewPagination(filter.Page, filter.Limit, total), nil
}

// ApplyPaymentResult records the payment provider's reported outcome.
// Only successful results mark the order paid; anything else is the
// provider's business and is ignored here.
func (s *orderService) ApplyPaymentResult(ctx context.Context, result entities.PaymentResult) error {
	if result.Status != entities.PaymentStatusSucceeded {
		s.logger.InfoContext(ctx, "ignoring non-successful payment result",
			slog.String("order_id", result.OrderID),
			slog.String("status", result.Status),
		)
		return nil
	}

	paidAt := result.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	if err := s.orders.MarkOrderPaid(ctx, result.OrderID, result.TransactionID, paidAt); err != nil {
		return err
	}

	order, err := s.orders.GetOrderByID(ctx, result.OrderID)
	if err != nil {
		s.logger.Error("failed to refresh paid order", slog.String("order_id", result.OrderID), slog.Any("error", err))
		return nil
	}
	s.cacheOrder(order)

	s.logger.InfoContext(ctx, "order paid",
		slog.String("order_id", result.OrderID),
		slog.String("transaction_id", result.TransactionID),
	)
	return nil
}

// WarmUpCache preloads the most recent orders so the read path starts hot.
func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	orders, _, err := s.orders.ListOrders(ctx, entities.OrderFilter{
		Sort:  "-created_at",
		Page:  1,
		Limit: count,
	})
	if err != nil {
		return fmt.Errorf("failed to warm up cache: %w", err)
	}
	for _, order := range orders {
		s.cacheOrder(order)
	}
	s.logger.Info("cache warmed up", slog.Int("orders", len(orders)))
	return nil
}

func (s *orderService) cacheOrder(order entities.Order) {
	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order for cache", slog.String("order_id", order.ID), slog.Any("error", err))
		return
	}
	s.cache.Set(order.ID, data)
}

// publish is best-effort: event delivery never fails the caller's operation.
func (s *orderService) publish(ctx context.Context, event string, order entities.Order) {
	err := s.publisher.Publish(ctx, events.OrderEvent{
		Event:      event,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice.String(),
		OccurredAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("failed to publish order event",
			slog.String("event", event),
			slog.String("order_id", order.ID),
			slog.Any("error", err),
		)
	}
}
