package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"inventory-order-service/app/domain"
)

type orderRepository struct {
	conn *sql.DB
}

func NewOrderRepository(db *sql.DB) domain.OrderRepository {
	return &orderRepository{db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.withTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `INSERT INTO orders (user_id, order_date, total_value)
		VALUES ($1, $2, $3) RETURNING id`

		err := tx.QueryRowContext(ctx, query, order.UserID, order.OrderDate, order.TotalValue).
			Scan(&order.ID)
		if err != nil {
			slog.ErrorContext(ctx, "[orderRepository] Create", "insertOrder", err)
			return err
		}

		return r.insertItems(ctx, tx, order.ID, order.Items)
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	query := `SELECT id, user_id, order_date, total_value FROM orders WHERE id = $1`

	var order domain.Order
	err := r.conn.QueryRowContext(ctx, query, id).Scan(&order.ID, &order.UserID,
		&order.OrderDate, &order.TotalValue)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetByID", "queryRowContext", err)
		if err == sql.ErrNoRows {
			return order, domain.ErrNotFound
		}
		return order, err
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return order, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) GetList(ctx context.Context, userID int64) ([]domain.Order, error) {
	query := `SELECT o.id, o.user_id, o.order_date, o.total_value,
	i.product_id, i.quantity, i.unit_price
	FROM orders o
	JOIN order_items i ON i.order_id = o.id
	WHERE o.user_id = $1
	ORDER BY o.id, i.id`

	rows, err := r.conn.QueryContext(ctx, query, userID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetList", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[int64]int)
	for rows.Next() {
		var order domain.Order
		var item domain.OrderItem
		if err := rows.Scan(&order.ID, &order.UserID, &order.OrderDate, &order.TotalValue,
			&item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			slog.ErrorContext(ctx, "[orderRepository] GetList", "scan", err)
			return nil, err
		}

		pos, ok := index[order.ID]
		if !ok {
			orders = append(orders, order)
			pos = len(orders) - 1
			index[order.ID] = pos
		}
		orders[pos].Items = append(orders[pos].Items, item)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetList", "rowError", err)
		return nil, err
	}

	return orders, nil
}

// ReplaceItems swaps an order's item set wholesale; there is no partial
// item patch operation.
func (r *orderRepository) ReplaceItems(ctx context.Context, orderID int64, items []domain.OrderItem, totalValue float64) error {
	return r.withTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET total_value = $1 WHERE id = $2`, totalValue, orderID)
		if err != nil {
			slog.ErrorContext(ctx, "[orderRepository] ReplaceItems", "updateOrder", err)
			return err
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			slog.ErrorContext(ctx, "[orderRepository] ReplaceItems", "rowsAffected", err)
			return err
		}
		if rowsAffected == 0 {
			return domain.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
			slog.ErrorContext(ctx, "[orderRepository] ReplaceItems", "deleteItems", err)
			return err
		}

		return r.insertItems(ctx, tx, orderID, items)
	})
}

func (r *orderRepository) GetStats(ctx context.Context) (domain.OrderStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(total_value), 0) FROM orders`

	var stats domain.OrderStats
	err := r.conn.QueryRowContext(ctx, query).Scan(&stats.TotalOrders, &stats.TotalValue)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetStats", "queryRowContext", err)
		return stats, err
	}

	return stats, nil
}

func (r *orderRepository) insertItems(ctx context.Context, tx *sql.Tx, orderID int64, items []domain.OrderItem) error {
	valuePlaceholders := []string{}
	valueArgs := []interface{}{}
	for i, item := range items {
		valuePlaceholders = append(valuePlaceholders,
			fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))
		valueArgs = append(valueArgs, orderID, item.ProductID, item.Quantity, item.UnitPrice)
	}

	query := fmt.Sprintf(`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES %s`,
		strings.Join(valuePlaceholders, ", "))

	res, err := tx.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] insertItems", "execContext", err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] insertItems", "rowsAffected", err)
		return err
	}

	if rowsAffected == 0 {
		slog.ErrorContext(ctx, "[orderRepository] insertItems", "noRowsAffected", "No rows were inserted")
		return fmt.Errorf("no rows were inserted")
	}

	return nil
}

func (r *orderRepository) getItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `SELECT product_id, quantity, unit_price FROM order_items
	WHERE order_id = $1 ORDER BY id`

	rows, err := r.conn.QueryContext(ctx, query, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] getItems", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			slog.ErrorContext(ctx, "[orderRepository] getItems", "scan", err)
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] getItems", "rowError", err)
		return nil, err
	}

	return items, nil
}

func (r *orderRepository) withTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] withTransaction", "beginTx", err)
		return err
	}

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			slog.ErrorContext(ctx, "[orderRepository] withTransaction", "rollback", rollbackErr)
			return err
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] withTransaction", "commit", err)
		return err
	}

	return nil
}
