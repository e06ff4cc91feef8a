package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the persistence port for the product catalog.
type Repository interface {
	Get(ctx context.Context, id int64) (Product, error)
	GetByName(ctx context.Context, name string) (Product, error)
	GetByClassIndex(ctx context.Context, classIndex int) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Overwrite(ctx context.Context, id, stock, price int64) error
	DecrementIfAvailable(ctx context.Context, name string) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const productColumns = `id, name, price, stock, class_index`

func (r *pgRepository) Get(ctx context.Context, id int64) (Product, error) {
	return r.scanOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *pgRepository) GetByName(ctx context.Context, name string) (Product, error) {
	return r.scanOne(ctx, `SELECT `+productColumns+` FROM products WHERE name = $1`, name)
}

func (r *pgRepository) GetByClassIndex(ctx context.Context, classIndex int) (Product, error) {
	return r.scanOne(ctx, `SELECT `+productColumns+` FROM products WHERE class_index = $1`, classIndex)
}

func (r *pgRepository) scanOne(ctx context.Context, query string, arg any) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, query, arg).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ClassIndex)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("catalog: query product: %w", err)
	}
	return p, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY class_index`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ClassIndex); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *pgRepository) Overwrite(ctx context.Context, id, stock, price int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET stock = $2, price = $3 WHERE id = $1`, id, stock, price)
	if err != nil {
		return fmt.Errorf("catalog: overwrite product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementIfAvailable performs the atomic conditional decrement: check and
// apply happen in a single statement, so two concurrent callers can never
// both take the last unit.
func (r *pgRepository) DecrementIfAvailable(ctx context.Context, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET stock = stock - 1 WHERE name = $1 AND stock > 0`, name)
	if err != nil {
		return false, fmt.Errorf("catalog: decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
