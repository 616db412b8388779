package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates an OrderStore backed by the given connection pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderSelectCols = `protocol, symbol, side, order_type, size, price,
	filled_size, status, order_id, timestamp_ms`

func scanOrderRows(rows pgx.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.Protocol, &o.Symbol, &o.Side, &o.Type, &o.Size,
			&o.Price, &o.FilledSize, &o.Status, &o.OrderID, &o.TimestampMs,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// InsertBatch upserts orders keyed by (protocol, order_id): a re-synced
// order refreshes its status and filled size instead of duplicating the
// row. Returns the number of rows written.
func (s *OrderStore) InsertBatch(ctx context.Context, orders []domain.Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO orders (
			protocol, symbol, side, order_type, size, price,
			filled_size, status, order_id, timestamp_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		) ON CONFLICT (protocol, order_id) DO UPDATE SET
			status = EXCLUDED.status,
			filled_size = EXCLUDED.filled_size`

	for _, o := range orders {
		batch.Queue(query,
			o.Protocol, o.Symbol, o.Side, o.Type, o.Size, o.Price,
			o.FilledSize, o.Status, o.OrderID, o.TimestampMs,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	written := 0
	for i := range orders {
		tag, err := br.Exec()
		if err != nil {
			return written, fmt.Errorf("postgres: insert order batch item %d: %w", i, err)
		}
		written += int(tag.RowsAffected())
	}
	return written, nil
}

// ListRecent returns the newest orders up to limit.
func (s *OrderStore) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + orderSelectCols + ` FROM orders ORDER BY timestamp_ms DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan orders: %w", err)
	}
	return orders, nil
}

// ListBefore returns all orders recorded strictly before the cutoff,
// oldest first. The archiver uses it to build monthly snapshots.
func (s *OrderStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderSelectCols + ` FROM orders WHERE timestamp_ms < $1 ORDER BY timestamp_ms ASC`
	rows, err := s.pool.Query(ctx, query, before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders before: %w", err)
	}
	defer rows.Close()
	return scanOrderRows(rows)
}
