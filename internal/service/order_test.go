package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopbackend/internal/entities"
	"shopbackend/internal/pricing"
	"shopbackend/internal/service"
	mocks "shopbackend/internal/service/mocks"
	txMocks "shopbackend/pkg/trm/mocks"
)

func catalogProduct(id string, price int64, stock int) entities.Product {
	return entities.Product{
		ID:    id,
		Name:  "product " + id,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	}
}

func TestOrderService_PlaceOrder(t *testing.T) {
	type MockBehavior func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher)

	dbError := errors.New("db error")

	params := service.PlaceOrderParams{
		UserID: "user-1",
		Items: []service.PlaceOrderItem{
			{ProductID: "p-2", Quantity: 2},
			{ProductID: "p-1", Quantity: 2},
		},
		PaymentMethod: entities.PaymentCreditCard,
	}

	testCases := []struct {
		name         string
		params       service.PlaceOrderParams
		mockBehavior MockBehavior
		wantErr      error
		check        func(t *testing.T, got entities.Order)
	}{
		{
			name:   "OK",
			params: params,
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-2", "p-1"}).
					Return([]entities.Product{
						catalogProduct("p-1", 40, 10),
						catalogProduct("p-2", 60, 10),
					}, nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-2", 2).Return(nil).Once()
				orders.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, got entities.Order) {
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, entities.StatusPending, got.Status)
				assert.True(t, got.ItemsPrice.Equal(decimal.NewFromInt(200)), got.ItemsPrice.String())
				assert.True(t, got.TaxPrice.Equal(decimal.NewFromInt(20)), got.TaxPrice.String())
				assert.True(t, got.ShippingPrice.IsZero(), got.ShippingPrice.String())
				assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(220)), got.TotalPrice.String())
				assert.True(t, got.DiscountAmount.IsZero(), got.DiscountAmount.String())
			},
		},
		{
			name: "duplicate lines merged into one",
			params: service.PlaceOrderParams{
				UserID: "user-1",
				Items: []service.PlaceOrderItem{
					{ProductID: "p-1", Quantity: 2},
					{ProductID: "p-1", Quantity: 2},
				},
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-1"}).
					Return([]entities.Product{catalogProduct("p-1", 40, 10)}, nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-1", 4).Return(nil).Once()
				orders.EXPECT().
					CreateOrder(mock.Anything, mock.MatchedBy(func(o entities.Order) bool {
						return len(o.Items) == 1 && o.Items[0].Quantity == 4
					})).
					Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, got entities.Order) {
				require.Len(t, got.Items, 1)
				assert.Equal(t, 4, got.Items[0].Quantity)
				assert.True(t, got.ItemsPrice.Equal(decimal.NewFromInt(160)), got.ItemsPrice.String())
				assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(176)), got.TotalPrice.String())
			},
		},
		{
			name: "duplicate lines checked against summed quantity",
			params: service.PlaceOrderParams{
				UserID: "user-1",
				Items: []service.PlaceOrderItem{
					{ProductID: "p-1", Quantity: 2},
					{ProductID: "p-1", Quantity: 2},
				},
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-1"}).
					Return([]entities.Product{catalogProduct("p-1", 40, 3)}, nil).Once()
			},
			wantErr: entities.ErrInsufficientStock,
		},
		{
			name:   "shipping fee below threshold",
			params: service.PlaceOrderParams{UserID: "user-1", Items: []service.PlaceOrderItem{{ProductID: "p-1", Quantity: 1}}},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-1"}).
					Return([]entities.Product{catalogProduct("p-1", 30, 5)}, nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-1", 1).Return(nil).Once()
				orders.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, got entities.Order) {
				assert.True(t, got.ShippingPrice.Equal(decimal.NewFromInt(10)), got.ShippingPrice.String())
				assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(43)), got.TotalPrice.String())
			},
		},
		{
			name:         "empty order",
			params:       service.PlaceOrderParams{UserID: "user-1"},
			mockBehavior: func(*mocks.MockOrderRepo, *mocks.MockProductRepo, *mocks.MockCache, *mocks.MockPublisher) {},
			wantErr:      entities.ErrEmptyOrder,
		},
		{
			name:         "zero quantity",
			params:       service.PlaceOrderParams{UserID: "user-1", Items: []service.PlaceOrderItem{{ProductID: "p-1", Quantity: 0}}},
			mockBehavior: func(*mocks.MockOrderRepo, *mocks.MockProductRepo, *mocks.MockCache, *mocks.MockPublisher) {},
			wantErr:      entities.ErrInvalidOrder,
		},
		{
			name:   "unknown product",
			params: service.PlaceOrderParams{UserID: "user-1", Items: []service.PlaceOrderItem{{ProductID: "ghost", Quantity: 1}}},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"ghost"}).
					Return(nil, nil).Once()
			},
			wantErr: entities.ErrProductNotFound,
		},
		{
			name:   "insufficient stock on pre-check",
			params: service.PlaceOrderParams{UserID: "user-1", Items: []service.PlaceOrderItem{{ProductID: "p-1", Quantity: 12}}},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-1"}).
					Return([]entities.Product{catalogProduct("p-1", 40, 10)}, nil).Once()
			},
			wantErr: entities.ErrInsufficientStock,
		},
		{
			name:   "lost stock race rolls back earlier decrements",
			params: params,
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-2", "p-1"}).
					Return([]entities.Product{
						catalogProduct("p-1", 40, 10),
						catalogProduct("p-2", 60, 10),
					}, nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-2", 2).
					Return(entities.ErrInsufficientStock).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
			},
			wantErr: entities.ErrInsufficientStock,
		},
		{
			name:   "persist retried after transient failure",
			params: params,
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-2", "p-1"}).
					Return([]entities.Product{
						catalogProduct("p-1", 40, 10),
						catalogProduct("p-2", 60, 10),
					}, nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-2", 2).Return(nil).Once()
				orders.EXPECT().CreateOrder(mock.Anything, mock.Anything).
					Once().Return(errors.New("temporary error"))
				orders.EXPECT().CreateOrder(mock.Anything, mock.Anything).
					Once().Return(nil)
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:   "persist failure releases reserved stock",
			params: params,
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				products.EXPECT().
					GetProducts(mock.Anything, []string{"p-2", "p-1"}).
					Return([]entities.Product{
						catalogProduct("p-1", 40, 10),
						catalogProduct("p-2", 60, 10),
					}, nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
				products.EXPECT().DecrementStock(mock.Anything, "p-2", 2).Return(nil).Once()
				orders.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(dbError)
				products.EXPECT().IncrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-2", 2).Return(nil).Once()
			},
			wantErr: dbError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepo(t)
			products := mocks.NewMockProductRepo(t)
			cache := mocks.NewMockCache(t)
			pub := mocks.NewMockPublisher(t)
			tx := txMocks.NewMockManager(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			tx.EXPECT().
				Do(mock.Anything, mock.Anything).
				RunAndReturn(
					func(ctx context.Context, cb func(ctx context.Context) error) error {
						return cb(ctx)
					}).Maybe()

			tc.mockBehavior(orders, products, cache, pub)

			svc := service.NewOrderService(logger, tx, orders, products, pricing.NewEngine(pricing.DefaultConfig()), cache, pub)

			got, err := svc.PlaceOrder(context.Background(), tc.params)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, got)
			}
		})
	}
}

func TestOrderService_CancelOrder(t *testing.T) {
	type MockBehavior func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher)

	pendingOrder := entities.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: entities.StatusPending,
		Items: []entities.OrderItem{
			{ProductID: "p-1", Quantity: 2},
			{ProductID: "p-2", Quantity: 1},
		},
	}

	testCases := []struct {
		name         string
		orderID      string
		userID       string
		mockBehavior MockBehavior
		wantErr      error
	}{
		{
			name:    "OK",
			orderID: "order-1",
			userID:  "user-1",
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(pendingOrder, nil).Once()
				orders.EXPECT().UpdateOrderStatus(mock.Anything, entities.StatusUpdate{
					OrderID: "order-1",
					Status:  entities.StatusCancelled,
				}).Return(nil).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-2", 1).Return(nil).Once()
				orders.EXPECT().MarkStockRestored(mock.Anything, "order-1").Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:    "not owner",
			orderID: "order-1",
			userID:  "somebody-else",
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(pendingOrder, nil).Once()
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name:    "already shipped",
			orderID: "order-1",
			userID:  "user-1",
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				shipped := pendingOrder
				shipped.Status = entities.StatusShipped
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(shipped, nil).Once()
			},
			wantErr: entities.ErrOrderNotCancellable,
		},
		{
			name:    "second cancel is rejected",
			orderID: "order-1",
			userID:  "user-1",
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				done := pendingOrder
				done.Status = entities.StatusCancelled
				done.StockRestored = true
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(done, nil).Once()
			},
			wantErr: entities.ErrOrderNotCancellable,
		},
		{
			name:    "resumes interrupted stock restoration",
			orderID: "order-1",
			userID:  "user-1",
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				half := pendingOrder
				half.Status = entities.StatusCancelled
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(half, nil).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-1", 2).Return(nil).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-2", 1).Return(nil).Once()
				orders.EXPECT().MarkStockRestored(mock.Anything, "order-1").Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepo(t)
			products := mocks.NewMockProductRepo(t)
			cache := mocks.NewMockCache(t)
			pub := mocks.NewMockPublisher(t)
			tx := txMocks.NewMockManager(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			tc.mockBehavior(orders, products, cache, pub)

			svc := service.NewOrderService(logger, tx, orders, products, pricing.NewEngine(pricing.DefaultConfig()), cache, pub)

			got, err := svc.CancelOrder(context.Background(), tc.orderID, tc.userID)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entities.StatusCancelled, got.Status)
			assert.True(t, got.StockRestored)
		})
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	type MockBehavior func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher)

	testCases := []struct {
		name         string
		upd          entities.StatusUpdate
		mockBehavior MockBehavior
		wantErr      error
		check        func(t *testing.T, got entities.Order)
	}{
		{
			name: "pending to processing",
			upd:  entities.StatusUpdate{OrderID: "order-1", Status: entities.StatusProcessing},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{ID: "order-1", Status: entities.StatusPending}, nil).Once()
				orders.EXPECT().UpdateOrderStatus(mock.Anything, mock.Anything).Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, got entities.Order) {
				assert.Equal(t, entities.StatusProcessing, got.Status)
			},
		},
		{
			name: "delivered sets delivery fields",
			upd:  entities.StatusUpdate{OrderID: "order-1", Status: entities.StatusDelivered},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{ID: "order-1", Status: entities.StatusShipped}, nil).Once()
				orders.EXPECT().UpdateOrderStatus(mock.Anything, mock.MatchedBy(func(upd entities.StatusUpdate) bool {
					return upd.IsDelivered && !upd.DeliveredAt.IsZero()
				})).Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, got entities.Order) {
				assert.Equal(t, entities.StatusDelivered, got.Status)
				assert.True(t, got.IsDelivered)
				assert.False(t, got.DeliveredAt.IsZero())
			},
		},
		{
			name: "cancellation restores stock",
			upd:  entities.StatusUpdate{OrderID: "order-1", Status: entities.StatusCancelled},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{
						ID:     "order-1",
						Status: entities.StatusProcessing,
						Items:  []entities.OrderItem{{ProductID: "p-1", Quantity: 3}},
					}, nil).Once()
				orders.EXPECT().UpdateOrderStatus(mock.Anything, mock.Anything).Return(nil).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-1", 3).Return(nil).Once()
				orders.EXPECT().MarkStockRestored(mock.Anything, "order-1").Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, got entities.Order) {
				assert.Equal(t, entities.StatusCancelled, got.Status)
				assert.True(t, got.StockRestored)
			},
		},
		{
			name: "repeated cancellation resumes stock restoration",
			upd:  entities.StatusUpdate{OrderID: "order-1", Status: entities.StatusCancelled},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{
						ID:     "order-1",
						Status: entities.StatusCancelled,
						Items:  []entities.OrderItem{{ProductID: "p-1", Quantity: 3}},
					}, nil).Once()
				products.EXPECT().IncrementStock(mock.Anything, "p-1", 3).Return(nil).Once()
				orders.EXPECT().MarkStockRestored(mock.Anything, "order-1").Return(nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
				pub.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, got entities.Order) {
				assert.Equal(t, entities.StatusCancelled, got.Status)
				assert.True(t, got.StockRestored)
			},
		},
		{
			name: "delivered cannot go back to pending",
			upd:  entities.StatusUpdate{OrderID: "order-1", Status: entities.StatusPending},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockProductRepo, cache *mocks.MockCache, pub *mocks.MockPublisher) {
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{ID: "order-1", Status: entities.StatusDelivered}, nil).Once()
			},
			wantErr: entities.ErrInvalidStatusTransition,
		},
		{
			name:         "unknown status",
			upd:          entities.StatusUpdate{OrderID: "order-1", Status: "teleported"},
			mockBehavior: func(*mocks.MockOrderRepo, *mocks.MockProductRepo, *mocks.MockCache, *mocks.MockPublisher) {},
			wantErr:      entities.ErrInvalidStatusTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepo(t)
			products := mocks.NewMockProductRepo(t)
			cache := mocks.NewMockCache(t)
			pub := mocks.NewMockPublisher(t)
			tx := txMocks.NewMockManager(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			tc.mockBehavior(orders, products, cache, pub)

			svc := service.NewOrderService(logger, tx, orders, products, pricing.NewEngine(pricing.DefaultConfig()), cache, pub)

			got, err := svc.UpdateStatus(context.Background(), tc.upd)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, got)
			}
		})
	}
}

func TestOrderService_GetOrderByID(t *testing.T) {
	type MockBehavior func(orders *mocks.MockOrderRepo, cache *mocks.MockCache)

	validOrder := entities.Order{ID: "order-1", UserID: "user-1", Status: entities.StatusPending}
	validData, err := validOrder.Marshal()
	require.NoError(t, err)

	testCases := []struct {
		name         string
		orderID      string
		mockBehavior MockBehavior
		wantErr      error
		want         entities.Order
	}{
		{
			name:    "success from cache",
			orderID: "order-1",
			mockBehavior: func(_ *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("order-1").Return(validData, true).Once()
			},
			want: validOrder,
		},
		{
			name:    "cache hit but unmarshal fails",
			orderID: "order-1",
			mockBehavior: func(_ *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("order-1").Return([]byte("broken"), true).Once()
			},
			wantErr: entities.ErrInvalidOrder,
		},
		{
			name:    "success from repo and set to cache",
			orderID: "order-1",
			mockBehavior: func(orders *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("order-1").Return(nil, false).Once()
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(validOrder, nil).Once()
				cache.EXPECT().Set("order-1", validData).Return().Once()
			},
			want: validOrder,
		},
		{
			name:    "not found is not retried",
			orderID: "ghost",
			mockBehavior: func(orders *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("ghost").Return(nil, false).Once()
				orders.EXPECT().GetOrderByID(mock.Anything, "ghost").
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name:    "second attempt from repo",
			orderID: "order-1",
			mockBehavior: func(orders *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("order-1").Return(nil, false).Once()
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{}, errors.New("some error")).Once()
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(validOrder, nil).Once()
				cache.EXPECT().Set("order-1", validData).Return().Once()
			},
			want: validOrder,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepo(t)
			products := mocks.NewMockProductRepo(t)
			cache := mocks.NewMockCache(t)
			pub := mocks.NewMockPublisher(t)
			tx := txMocks.NewMockManager(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			tc.mockBehavior(orders, cache)

			svc := service.NewOrderService(logger, tx, orders, products, pricing.NewEngine(pricing.DefaultConfig()), cache, pub)

			got, err := svc.GetOrderByID(context.Background(), tc.orderID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderService_GetUserOrder(t *testing.T) {
	order := entities.Order{ID: "order-1", UserID: "user-1"}
	data, err := order.Marshal()
	require.NoError(t, err)

	testCases := []struct {
		name    string
		userID  string
		wantErr error
	}{
		{name: "owner sees the order", userID: "user-1"},
		{name: "stranger gets not found", userID: "user-2", wantErr: entities.ErrOrderNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepo(t)
			products := mocks.NewMockProductRepo(t)
			cache := mocks.NewMockCache(t)
			pub := mocks.NewMockPublisher(t)
			tx := txMocks.NewMockManager(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			cache.EXPECT().Get("order-1").Return(data, true).Once()

			svc := service.NewOrderService(logger, tx, orders, products, pricing.NewEngine(pricing.DefaultConfig()), cache, pub)

			got, err := svc.GetUserOrder(context.Background(), "order-1", tc.userID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order, got)
		})
	}
}

func TestOrderService_ApplyPaymentResult(t *testing.T) {
	type MockBehavior func(orders *mocks.MockOrderRepo, cache *mocks.MockCache)

	testCases := []struct {
		name         string
		result       entities.PaymentResult
		mockBehavior MockBehavior
		wantErr      error
	}{
		{
			name: "successful payment marks order paid",
			result: entities.PaymentResult{
				OrderID:       "order-1",
				TransactionID: "tx-1",
				Status:        entities.PaymentStatusSucceeded,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, cache *mocks.MockCache) {
				orders.EXPECT().
					MarkOrderPaid(mock.Anything, "order-1", "tx-1", mock.Anything).
					Return(nil).Once()
				orders.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Return(entities.Order{ID: "order-1", IsPaid: true}, nil).Once()
				cache.EXPECT().Set(mock.Anything, mock.Anything).Return().Once()
			},
		},
		{
			name: "failed payment is ignored",
			result: entities.PaymentResult{
				OrderID: "order-1",
				Status:  "failed",
			},
			mockBehavior: func(*mocks.MockOrderRepo, *mocks.MockCache) {},
		},
		{
			name: "storage error surfaces",
			result: entities.PaymentResult{
				OrderID:       "order-1",
				TransactionID: "tx-1",
				Status:        entities.PaymentStatusSucceeded,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, cache *mocks.MockCache) {
				orders.EXPECT().
					MarkOrderPaid(mock.Anything, "order-1", "tx-1", mock.Anything).
					Return(entities.ErrOrderNotFound).Once()
			},
			wantErr: entities.ErrOrderNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepo(t)
			products := mocks.NewMockProductRepo(t)
			cache := mocks.NewMockCache(t)
			pub := mocks.NewMockPublisher(t)
			tx := txMocks.NewMockManager(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			tc.mockBehavior(orders, cache)

			svc := service.NewOrderService(logger, tx, orders, products, pricing.NewEngine(pricing.DefaultConfig()), cache, pub)

			err := svc.ApplyPaymentResult(context.Background(), tc.result)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
