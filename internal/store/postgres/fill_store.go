package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// FillStore implements domain.FillStore using PostgreSQL.
type FillStore struct {
	pool *pgxpool.Pool
}

// NewFillStore creates a FillStore backed by the given connection pool.
func NewFillStore(pool *pgxpool.Pool) *FillStore {
	return &FillStore{pool: pool}
}

const fillSelectCols = `protocol, symbol, side, price, size, fee,
	realized_pnl, order_id, tx_hash, timestamp_ms`

func scanFillRows(rows pgx.Rows) ([]domain.Fill, error) {
	var fills []domain.Fill
	for rows.Next() {
		var f domain.Fill
		if err := rows.Scan(
			&f.Protocol, &f.Symbol, &f.Side, &f.Price, &f.Size,
			&f.Fee, &f.RealizedPnl, &f.OrderID, &f.TxHash, &f.TimestampMs,
		); err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// InsertBatch inserts fills using a pgx Batch and returns how many rows were
// actually written. Re-synced fills (same protocol, order id, tx hash,
// timestamp) are silently skipped via ON CONFLICT DO NOTHING.
func (s *FillStore) InsertBatch(ctx context.Context, fills []domain.Fill) (int, error) {
	if len(fills) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO fills (
			protocol, symbol, side, price, size, fee,
			realized_pnl, order_id, tx_hash, timestamp_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		) ON CONFLICT (protocol, order_id, tx_hash, timestamp_ms) DO NOTHING`

	for _, f := range fills {
		batch.Queue(query,
			f.Protocol, f.Symbol, f.Side, f.Price, f.Size,
			f.Fee, f.RealizedPnl, f.OrderID, f.TxHash, f.TimestampMs,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for i := range fills {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("postgres: insert fill batch item %d: %w", i, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Query returns fills matching the filter, newest first.
func (s *FillStore) Query(ctx context.Context, f domain.FillFilter) ([]domain.Fill, error) {
	query := `SELECT ` + fillSelectCols + ` FROM fills WHERE TRUE`
	var args []any
	argIdx := 1

	if f.Protocol != "" {
		query += fmt.Sprintf(" AND protocol = $%d", argIdx)
		args = append(args, f.Protocol)
		argIdx++
	}
	if f.Symbol != "" {
		query += fmt.Sprintf(" AND symbol = $%d", argIdx)
		args = append(args, f.Symbol)
		argIdx++
	}
	if f.FromMs > 0 {
		query += fmt.Sprintf(" AND timestamp_ms >= $%d", argIdx)
		args = append(args, f.FromMs)
		argIdx++
	}
	if f.ToMs > 0 {
		query += fmt.Sprintf(" AND timestamp_ms <= $%d", argIdx)
		args = append(args, f.ToMs)
		argIdx++
	}

	query += " ORDER BY timestamp_ms DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query fills: %w", err)
	}
	defer rows.Close()

	fills, err := scanFillRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan fills: %w", err)
	}
	return fills, nil
}

// LastTimestampMs returns the most recent fill timestamp for a protocol, or
// zero when no fills exist. Sync jobs use it as the resume cursor.
func (s *FillStore) LastTimestampMs(ctx context.Context, protocol domain.Protocol) (uint64, error) {
	var ts *int64
	err := s.pool.QueryRow(ctx,
		"SELECT MAX(timestamp_ms) FROM fills WHERE protocol = $1", protocol,
	).Scan(&ts)
	if err != nil {
		return 0, fmt.Errorf("postgres: last fill timestamp: %w", err)
	}
	if ts == nil {
		return 0, nil
	}
	return uint64(*ts), nil
}
