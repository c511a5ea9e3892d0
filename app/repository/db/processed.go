package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"inventory-order-service/app/domain"
)

type processedMessageRepository struct {
	conn *sql.DB
}

func NewProcessedMessageRepository(db *sql.DB) domain.ProcessedMessageRepository {
	return &processedMessageRepository{db}
}

func (r *processedMessageRepository) AlreadyProcessed(ctx context.Context, messageID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_messages WHERE message_id = $1)`

	var exists bool
	err := r.conn.QueryRowContext(ctx, query, messageID).Scan(&exists)
	if err != nil {
		slog.ErrorContext(ctx, "[processedMessageRepository] AlreadyProcessed", "queryRowContext", err)
		return false, err
	}

	return exists, nil
}

func (r *processedMessageRepository) MarkProcessed(ctx context.Context, messageID string, orderID int64) error {
	query := `INSERT INTO processed_messages (message_id, order_id, processed_at)
	VALUES ($1, $2, NOW()) ON CONFLICT (message_id) DO NOTHING`

	_, err := r.conn.ExecContext(ctx, query, messageID, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[processedMessageRepository] MarkProcessed", "execContext", err)
		return err
	}

	return nil
}

func (r *processedMessageRepository) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	query := `DELETE FROM processed_messages WHERE processed_at < $1`

	res, err := r.conn.ExecContext(ctx, query, time.Now().Add(-retention))
	if err != nil {
		slog.ErrorContext(ctx, "[processedMessageRepository] PurgeOlderThan", "execContext", err)
		return 0, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[processedMessageRepository] PurgeOlderThan", "rowsAffected", err)
		return 0, err
	}

	return rowsAffected, nil
}
