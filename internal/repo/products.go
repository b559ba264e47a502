package repo

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"shopbackend/internal/entities"
	"shopbackend/pkg/trm"
)

var productColumns = []string{"id", "name", "price", "discount", "stock", "image", "created_at", "updated_at"}

type productsRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewProductsRepo(db *sqlx.DB) *productsRepo {
	return &productsRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *productsRepo) GetProducts(ctx context.Context, productIDs []string) ([]entities.Product, error) {
	if len(productIDs) == 0 {
		return []entities.Product{}, nil
	}

	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": productIDs}).
		MustSql()

	var products []Product
	if err := r.selectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductToEntity(p))
	}
	return result, nil
}

// DecrementStock is the authoritative reservation gate: a single
// conditional update that only succeeds while stock covers the quantity,
// so concurrent orders against the same product serialize at the storage
// layer. Returns ErrInsufficientStock when the condition fails.
func (r *productsRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock - ?", quantity)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": productID}).
		Where(sq.GtOrEq{"stock": quantity}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrInsufficientStock
	}
	return nil
}

// IncrementStock restores quantity unconditionally. It is safe to apply
// once per matching decrement; there is no race on the way up.
func (r *productsRepo) IncrementStock(ctx context.Context, productID string, quantity int) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock + ?", quantity)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}

func (r *productsRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *productsRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
