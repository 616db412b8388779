package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// archivePartSize is the multipart chunk size for archive uploads. Monthly
// snapshots can exceed what a single PutObject should carry.
const archivePartSize int64 = 8 * 1024 * 1024

// Narrow store interfaces required by the archiver. The Postgres stores
// satisfy these implicitly; the archiver never needs their write methods.

// FillArchiveStore provides read access to fills for archival purposes.
type FillArchiveStore interface {
	Query(ctx context.Context, f domain.FillFilter) ([]domain.Fill, error)
}

// OrderArchiveStore provides read access to orders for archival purposes.
type OrderArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Order, error)
}

// Archiver snapshots fill and order history to object storage as JSONL.
//
// Deletion of the archived records from the primary store is intentionally
// not performed here; pruning is a separate, explicit step to be executed
// after the archive has been verified.
type Archiver struct {
	writer domain.BlobWriter
	fills  FillArchiveStore
	orders OrderArchiveStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(writer domain.BlobWriter, fills FillArchiveStore, orders OrderArchiveStore, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		writer: writer,
		fills:  fills,
		orders: orders,
		logger: logger,
	}
}

// ArchiveFills uploads all fills recorded strictly before the cutoff to
// archive/fills/YYYY-MM.jsonl and returns how many were written.
func (a *Archiver) ArchiveFills(ctx context.Context, before time.Time) (int64, error) {
	fills, err := a.fills.Query(ctx, domain.FillFilter{ToMs: uint64(before.UnixMilli())})
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills query: %w", err)
	}
	if len(fills) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(fills)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills marshal: %w", err)
	}

	path := archivePath("fills", before)
	if err := a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), archivePartSize); err != nil {
		return 0, fmt.Errorf("s3blob: archive fills upload: %w", err)
	}

	count := int64(len(fills))
	a.logger.Info("archived fills",
		slog.String("path", path),
		slog.Int64("count", count),
	)
	return count, nil
}

// ArchiveOrders uploads all orders recorded strictly before the cutoff to
// archive/orders/YYYY-MM.jsonl and returns how many were written.
func (a *Archiver) ArchiveOrders(ctx context.Context, before time.Time) (int64, error) {
	orders, err := a.orders.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive orders query: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(orders)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive orders marshal: %w", err)
	}

	path := archivePath("orders", before)
	if err := a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), archivePartSize); err != nil {
		return 0, fmt.Errorf("s3blob: archive orders upload: %w", err)
	}

	count := int64(len(orders))
	a.logger.Info("archived orders",
		slog.String("path", path),
		slog.Int64("count", count),
	)
	return count, nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/fills/2026-08.jsonl
//	archive/orders/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
