package s3blob

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

type memWriter struct {
	puts      map[string][]byte
	multipart []string
}

func (w *memWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	if w.puts == nil {
		w.puts = map[string][]byte{}
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.puts[path] = b
	return nil
}

func (w *memWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	w.multipart = append(w.multipart, path)
	return w.Put(ctx, path, data, "")
}

type fakeFills struct {
	fills  []domain.Fill
	lastTo uint64
}

func (f *fakeFills) Query(_ context.Context, filter domain.FillFilter) ([]domain.Fill, error) {
	f.lastTo = filter.ToMs
	return f.fills, nil
}

type fakeOrders struct {
	orders []domain.Order
}

func (f *fakeOrders) ListBefore(_ context.Context, _ time.Time) ([]domain.Order, error) {
	return f.orders, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiveFills(t *testing.T) {
	writer := &memWriter{}
	fills := &fakeFills{fills: []domain.Fill{
		{Protocol: domain.ProtocolHyperliquid, Symbol: "ETH", Side: domain.SideBuy,
			Price: decimal.RequireFromString("3400"), Size: decimal.RequireFromString("0.5"),
			OrderID: "1", TimestampMs: 1700000000000},
		{Protocol: domain.ProtocolHyperliquid, Symbol: "BTC", Side: domain.SideSell,
			Price: decimal.RequireFromString("64000"), Size: decimal.RequireFromString("0.1"),
			OrderID: "2", TimestampMs: 1700000001000},
	}}

	archiver := NewArchiver(writer, fills, &fakeOrders{}, testLogger())

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	n, err := archiver.ArchiveFills(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, uint64(cutoff.UnixMilli()), fills.lastTo)

	body, ok := writer.puts["archive/fills/2026-08.jsonl"]
	require.True(t, ok, "archive is partitioned by year-month")
	assert.Contains(t, writer.multipart, "archive/fills/2026-08.jsonl",
		"archives upload through the multipart path")

	lines := bytes.Split(bytes.TrimSpace(body), []byte("\n"))
	assert.Len(t, lines, 2, "one JSON line per fill")
	assert.True(t, strings.Contains(string(lines[0]), `"ETH"`))
}

func TestArchiveFillsEmpty(t *testing.T) {
	writer := &memWriter{}
	archiver := NewArchiver(writer, &fakeFills{}, &fakeOrders{}, testLogger())

	n, err := archiver.ArchiveFills(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, writer.puts, "nothing is uploaded when there is nothing to archive")
}

func TestArchiveOrders(t *testing.T) {
	writer := &memWriter{}
	orders := &fakeOrders{orders: []domain.Order{
		{Protocol: domain.ProtocolHyperliquid, Symbol: "ETH", Side: domain.SideBuy,
			Type: domain.OrderTypeLimit, Size: decimal.RequireFromString("1"),
			Status: domain.OrderStatusFilled, OrderID: "42", TimestampMs: 1700000000000},
	}}
	archiver := NewArchiver(writer, &fakeFills{}, orders, testLogger())

	n, err := archiver.ArchiveOrders(context.Background(), time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok := writer.puts["archive/orders/2026-07.jsonl"]
	assert.True(t, ok)
}
