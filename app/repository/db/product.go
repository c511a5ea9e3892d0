package db

import (
	"context"
	"database/sql"
	"log/slog"

	"inventory-order-service/app/domain"
)

type productRepository struct {
	conn *sql.DB
}

func NewProductRepository(db *sql.DB) domain.ProductRepository {
	return &productRepository{db}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, price, quantity_in_stock)
	VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`

	err := r.conn.QueryRowContext(ctx, query, product.Name, product.Price, product.QuantityInStock).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] Create", "queryRowContext", err)
		return err
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	query := `SELECT id, name, price, quantity_in_stock, created_at, updated_at
	FROM products WHERE id = $1`

	var product domain.Product
	err := r.conn.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.Name,
		&product.Price, &product.QuantityInStock, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] GetByID", "queryRowContext", err)
		if err == sql.ErrNoRows {
			return product, domain.ErrNotFound
		}
		return product, err
	}

	return product, nil
}

func (r *productRepository) GetList(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT id, name, price, quantity_in_stock, created_at, updated_at
	FROM products ORDER BY id`

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] GetList", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price,
			&product.QuantityInStock, &product.CreatedAt, &product.UpdatedAt); err != nil {
			slog.ErrorContext(ctx, "[productRepository] GetList", "scan", err)
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[productRepository] GetList", "rowError", err)
		return nil, err
	}

	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) error {
	query := `UPDATE products SET name = $1, price = $2, quantity_in_stock = $3, updated_at = NOW()
	WHERE id = $4`

	res, err := r.conn.ExecContext(ctx, query, product.Name, product.Price, product.QuantityInStock, product.ID)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] Update", "execContext", err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] Update", "rowsAffected", err)
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *productRepository) GetStats(ctx context.Context) (domain.ProductStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(quantity_in_stock), 0) FROM products`

	var stats domain.ProductStats
	err := r.conn.QueryRowContext(ctx, query).Scan(&stats.TotalProducts, &stats.TotalStockQuantity)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] GetStats", "queryRowContext", err)
		return stats, err
	}

	return stats, nil
}

// SubtractStock is a conditional decrement: the guard in the WHERE clause
// keeps concurrent subtractions from driving the stock below zero.
func (r *productRepository) SubtractStock(ctx context.Context, id, qty int64) error {
	query := `UPDATE products SET quantity_in_stock = quantity_in_stock - $1, updated_at = NOW()
	WHERE id = $2 AND quantity_in_stock >= $1`

	res, err := r.conn.ExecContext(ctx, query, qty, id)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] SubtractStock", "execContext", err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] SubtractStock", "rowsAffected", err)
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a missing product from insufficient stock
		var exists bool
		if err := r.conn.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			slog.ErrorContext(ctx, "[productRepository] SubtractStock", "existsCheck", err)
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientStock
	}

	return nil
}

func (r *productRepository) AdjustStock(ctx context.Context, id, delta int64) (int64, error) {
	query := `UPDATE products SET quantity_in_stock = quantity_in_stock - $1, updated_at = NOW()
	WHERE id = $2 RETURNING quantity_in_stock`

	var remaining int64
	err := r.conn.QueryRowContext(ctx, query, delta, id).Scan(&remaining)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] AdjustStock", "queryRowContext", err)
		if err == sql.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return remaining, nil
}
