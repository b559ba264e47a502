package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"shopbackend/internal/entities"
	"shopbackend/pkg/trm"
)

var orderColumns = []string{
	"id", "user_id", "status", "payment_method",
	"street", "city", "state", "zip_code", "country",
	"items_price", "tax_price", "shipping_price", "discount_amount", "total_price",
	"is_paid", "paid_at", "transaction_id",
	"is_delivered", "delivered_at",
	"tracking_number", "notes", "coupon_code",
	"stock_restored", "created_at", "updated_at",
}

var itemColumns = []string{"order_id", "product_id", "name", "quantity", "unit_price", "image"}

// sortColumns whitelists what listings may be ordered by.
var sortColumns = map[string]struct{}{
	"created_at":  {},
	"updated_at":  {},
	"total_price": {},
	"status":      {},
}

type ordersRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewOrdersRepo(db *sqlx.DB) *ordersRepo {
	return &ordersRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ordersRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.UserID, string(o.Status), string(o.PaymentMethod),
			o.Address.Street, o.Address.City, o.Address.State, o.Address.ZipCode, o.Address.Country,
			o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.DiscountAmount, o.TotalPrice,
			o.IsPaid, nullTime(o.PaidAt), nullString(o.TransactionID),
			o.IsDelivered, nullTime(o.DeliveredAt),
			nullString(o.TrackingNumber), nullString(o.Notes), nullString(o.CouponCode),
			o.StockRestored, o.CreatedAt, o.UpdatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns(itemColumns...).
		Suffix("ON CONFLICT (order_id, product_id) DO NOTHING")
	for _, it := range o.Items {
		q = q.Values(o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, nullString(it.Image))
	}

	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order items: %w", err)
	}
	return nil
}

func (r *ordersRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.itemsFor(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items), nil
}

// ListOrders returns one page of orders matching the filter, plus the
// total match count for pagination. Rows and count run concurrently.
func (r *ordersRepo) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, int, error) {
	where := r.filterConditions(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	listQ := r.qb.Select(orderColumns...).From("orders")
	countQ := r.qb.Select("COUNT(*)").From("orders")
	for _, cond := range where {
		listQ = listQ.Where(cond)
		countQ = countQ.Where(cond)
	}

	query, args := listQ.
		OrderBy(orderBy(filter.Sort)).
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		MustSql()
	countQuery, countArgs := countQ.MustSql()

	var orders []Order
	var total int

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.selectContext(gCtx, &orders, query, args...); err != nil {
			return fmt.Errorf("failed to select orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.getContext(gCtx, &total, countQuery, countArgs...); err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if len(orders) == 0 {
		return []entities.Order{}, total, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	query, args = r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select order items: %w", err)
	}
	itemsMap := make(map[string][]OrderItem, len(ids))
	for _, it := range items {
		itemsMap[it.OrderID] = append(itemsMap[it.OrderID], it)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToEntity(o, itemsMap[o.ID]))
	}
	return result, total, nil
}

func (r *ordersRepo) UpdateOrderStatus(ctx context.Context, upd entities.StatusUpdate) error {
	q := r.qb.Update("orders").
		Set("status", string(upd.Status)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": upd.OrderID})

	if upd.TrackingNumber != nil {
		q = q.Set("tracking_number", nullString(*upd.TrackingNumber))
	}
	if upd.Notes != nil {
		q = q.Set("notes", nullString(*upd.Notes))
	}
	if upd.IsDelivered {
		q = q.Set("is_delivered", true).Set("delivered_at", upd.DeliveredAt)
	}

	query, args := q.MustSql()
	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return checkAffected(res)
}

func (r *ordersRepo) MarkStockRestored(ctx context.Context, orderID string) error {
	query, args := r.qb.Update("orders").
		Set("stock_restored", true).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark stock restored: %w", err)
	}
	return checkAffected(res)
}

func (r *ordersRepo) MarkOrderPaid(ctx context.Context, orderID, transactionID string, paidAt time.Time) error {
	query, args := r.qb.Update("orders").
		Set("is_paid", true).
		Set("paid_at", paidAt).
		Set("transaction_id", nullString(transactionID)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	return checkAffected(res)
}

func (r *ordersRepo) itemsFor(ctx context.Context, orderID string) ([]OrderItem, error) {
	query, args := r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return items, nil
}

func (r *ordersRepo) filterConditions(filter entities.OrderFilter) []sq.Sqlizer {
	var conds []sq.Sqlizer
	if filter.UserID != "" {
		conds = append(conds, sq.Eq{"user_id": filter.UserID})
	}
	if filter.Status != "" {
		conds = append(conds, sq.Eq{"status": string(filter.Status)})
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, sq.GtOrEq{"created_at": filter.CreatedFrom})
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, sq.LtOrEq{"created_at": filter.CreatedTo})
	}
	return conds
}

func orderBy(sort string) string {
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = strings.TrimPrefix(sort, "-")
	}
	if _, ok := sortColumns[sort]; !ok {
		return "created_at DESC"
	}
	return sort + " " + dir
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *ordersRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *ordersRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *ordersRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
