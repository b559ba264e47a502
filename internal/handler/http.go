package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"shopbackend/internal/entities"
	"shopbackend/internal/service"
	"shopbackend/pkg/utils"
)

// Identity headers set by the upstream gateway. Authentication itself is
// not this service's concern.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
	roleAdmin      = "admin"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, params service.PlaceOrderParams) (entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetUserOrder(ctx context.Context, orderID, userID string) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, entities.Pagination, error)
	CancelOrder(ctx context.Context, orderID, userID string) (entities.Order, error)
	UpdateStatus(ctx context.Context, upd entities.StatusUpdate) (entities.Order, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/my", h.ListMyOrders)
		r.Get("/{order_id}", h.GetOrder)
		r.Put("/{order_id}/cancel", h.CancelOrder)
		r.Patch("/{order_id}/status", h.UpdateOrderStatus)
	})
}

// PlaceOrder creates an order from a cart of line items.
// @Summary      Place an order
// @Description  Validates stock, snapshots prices, persists the order and reserves inventory
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body PlaceOrderRequest true "Order to place"
// @Success      201  {object}  Order
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Failure      404  {object}  utils.ErrorResponse "Unknown product"
// @Failure      409  {object}  utils.ErrorResponse "Insufficient stock"
// @Router       /orders [post]
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.PlaceOrder(ctx, req.ToParams(userID))
	if err != nil {
		ordersRejected.Inc()
		h.writeOrderError(ctx, w, err)
		return
	}

	ordersPlaced.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

// GetOrder returns a single order. Admins may read any order, users only
// their own.
// @Summary      Get order by ID
// @Tags         orders
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse
// @Router       /orders/{order_id} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var order entities.Order
	var err error
	if isAdmin(r) {
		order, err = h.svc.GetOrderByID(ctx, orderID)
	} else {
		order, err = h.svc.GetUserOrder(ctx, orderID, userID)
	}
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// ListOrders is the administrative listing with filtering and pagination.
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status    query string false "Filter by status"
// @Param        startDate query string false "Created-at lower bound (RFC 3339)"
// @Param        endDate   query string false "Created-at upper bound (RFC 3339)"
// @Param        sort      query string false "Sort column, '-' prefix for descending"
// @Param        page      query int    false "Page number"
// @Param        limit     query int    false "Page size"
// @Success      200  {object}  OrderListResponse
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.list(w, r, filter)
}

// ListMyOrders lists the calling user's own orders.
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Success      200  {object}  OrderListResponse
// @Router       /orders/my [get]
func (h *HTTPHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.UserID = userID

	h.list(w, r, filter)
}

func (h *HTTPHandler) list(w http.ResponseWriter, r *http.Request, filter entities.OrderFilter) {
	ctx := r.Context()

	orders, pagination, err := h.svc.ListOrders(ctx, filter)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrdersToListResponse(orders, pagination), http.StatusOK)
}

// CancelOrder cancels the caller's own pending/processing order and
// restores reserved stock.
// @Summary      Cancel order
// @Tags         orders
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse
// @Failure      409  {object}  utils.ErrorResponse "Order is past the cancellable window"
// @Router       /orders/{order_id}/cancel [put]
func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	order, err := h.svc.CancelOrder(ctx, orderID, userID)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	ordersCancelled.Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateOrderStatus applies an administrative status transition.
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Param        request body UpdateStatusRequest true "Target status"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse
// @Failure      409  {object}  utils.ErrorResponse "Transition not allowed"
// @Router       /orders/{order_id}/status [patch]
func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if !h.requireAdmin(w, r) {
		return
	}

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.UpdateStatus(ctx, entities.StatusUpdate{
		OrderID:        orderID,
		Status:         entities.OrderStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	statusUpdates.WithLabelValues(req.Status).Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	var stockErr *entities.InsufficientStockError

	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &stockErr):
		insufficientStock.Inc()
		utils.WriteError(w, stockErr.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrOrderNotCancellable),
		errors.Is(err, entities.ErrInvalidStatusTransition):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrEmptyOrder),
		errors.Is(err, entities.ErrInvalidOrder):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, "order operation failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		utils.WriteError(w, "missing user identity", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func (h *HTTPHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := h.requireUser(w, r); !ok {
		return false
	}
	if !isAdmin(r) {
		utils.WriteError(w, "admin access required", http.StatusForbidden)
		return false
	}
	return true
}

func isAdmin(r *http.Request) bool {
	return r.Header.Get(headerUserRole) == roleAdmin
}

func filterFromQuery(r *http.Request) (entities.OrderFilter, error) {
	q := r.URL.Query()

	filter := entities.OrderFilter{
		Sort: q.Get("sort"),
	}

	if status := q.Get("status"); status != "" {
		if !entities.OrderStatus(status).Valid() {
			return entities.OrderFilter{}, errors.New("unknown status filter")
		}
		filter.Status = entities.OrderStatus(status)
	}

	if raw := q.Get("startDate"); raw != "" {
		t, _, err := parseDate(raw)
		if err != nil {
			return entities.OrderFilter{}, errors.New("invalid startDate")
		}
		filter.CreatedFrom = t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, dateOnly, err := parseDate(raw)
		if err != nil {
			return entities.OrderFilter{}, errors.New("invalid endDate")
		}
		// A bare date as upper bound means "through that day", not
		// "until its midnight".
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.CreatedTo = t
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return entities.OrderFilter{}, errors.New("invalid page")
		}
		filter.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return entities.OrderFilter{}, errors.New("invalid limit")
		}
		filter.Limit = limit
	}

	return filter, nil
}

func parseDate(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err = time.Parse("2006-01-02", raw)
	return t, err == nil, err
}
