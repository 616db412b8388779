package domain

import (
	"context"
	"io"
	"time"
)

// FillFilter narrows fill history queries. Zero-value fields are ignored.
type FillFilter struct {
	Protocol string
	Symbol   string
	FromMs   uint64
	ToMs     uint64
	Limit    int
}

// FillStore persists the append-only fill history synced from venues.
type FillStore interface {
	// InsertBatch records fills, silently skipping duplicates
	// (same protocol, order id, tx hash, timestamp).
	InsertBatch(ctx context.Context, fills []Fill) (int, error)
	Query(ctx context.Context, f FillFilter) ([]Fill, error)
	// LastTimestampMs reports how far the stored history extends for a
	// protocol; zero when no fills are stored yet.
	LastTimestampMs(ctx context.Context, protocol Protocol) (uint64, error)
}

// OrderStore persists historical orders synced from venues.
type OrderStore interface {
	InsertBatch(ctx context.Context, orders []Order) (int, error)
	ListRecent(ctx context.Context, limit int) ([]Order, error)
}

// TickerCache caches the latest mid prices so read-heavy callers do not
// refetch from the venue on every request.
type TickerCache interface {
	SetTicker(ctx context.Context, t Ticker) error
	// GetTicker returns ErrNotFound when the symbol has not been cached.
	GetTicker(ctx context.Context, protocol Protocol, symbol string) (Ticker, time.Time, error)
}

// BlobWriter uploads export artifacts to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	// PutMultipart uploads in parts of partSize bytes; the backend may
	// raise partSize to its minimum.
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobInfo describes one stored export artifact.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobReader lists and retrieves export artifacts from object storage.
type BlobReader interface {
	// Get returns ErrNotFound when no object exists at path.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}
