package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/venue"
)

type memFillStore struct {
	fills []domain.Fill
	err   error
}

func (m *memFillStore) InsertBatch(_ context.Context, fills []domain.Fill) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.fills = append(m.fills, fills...)
	return len(fills), nil
}

func (m *memFillStore) LastTimestampMs(_ context.Context, _ domain.Protocol) (uint64, error) {
	var max uint64
	for _, fill := range m.fills {
		if fill.TimestampMs > max {
			max = fill.TimestampMs
		}
	}
	return max, nil
}

func (m *memFillStore) Query(_ context.Context, f domain.FillFilter) ([]domain.Fill, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Fill
	for _, fill := range m.fills {
		if f.Symbol != "" && fill.Symbol != f.Symbol {
			continue
		}
		out = append(out, fill)
	}
	return out, nil
}

type memOrderStore struct {
	orders []domain.Order
}

func (m *memOrderStore) InsertBatch(_ context.Context, orders []domain.Order) (int, error) {
	m.orders = append(m.orders, orders...)
	return len(orders), nil
}

func (m *memOrderStore) ListRecent(_ context.Context, limit int) ([]domain.Order, error) {
	if limit > len(m.orders) {
		limit = len(m.orders)
	}
	return m.orders[:limit], nil
}

// syncVenue is a perp venue serving canned fills and orders. Only the
// history-facing methods carry data; the rest return zero values.
type syncVenue struct {
	venue.UnsupportedPerp
	id     domain.Protocol
	fills  []domain.Fill
	orders []domain.Order
	err    error
}

func (v *syncVenue) Protocol() domain.Protocol { return v.id }

func (v *syncVenue) Fills(context.Context) ([]domain.Fill, error) {
	return v.fills, v.err
}

func (v *syncVenue) OpenOrders(context.Context) ([]domain.Order, error) {
	return v.orders, v.err
}

func (v *syncVenue) Markets(context.Context) ([]domain.Market, error) { return nil, v.err }

func (v *syncVenue) Ticker(_ context.Context, symbol string) (domain.Ticker, error) {
	return domain.Ticker{Symbol: symbol}, v.err
}

func (v *syncVenue) AllTickers(context.Context) ([]domain.Ticker, error) { return nil, v.err }

func (v *syncVenue) Candles(context.Context, string, string, int) ([]domain.Candle, error) {
	return nil, v.err
}

func (v *syncVenue) Funding(context.Context, string) ([]domain.FundingRate, error) {
	return nil, v.err
}

func (v *syncVenue) Orderbook(_ context.Context, symbol string, _ int) (domain.OrderBook, error) {
	return domain.OrderBook{Symbol: symbol}, v.err
}

func (v *syncVenue) MarketOrder(context.Context, string, domain.Side, decimal.Decimal, *float64) (domain.OrderResult, error) {
	return domain.OrderResult{Protocol: v.id}, v.err
}

func (v *syncVenue) LimitOrder(context.Context, string, domain.Side, decimal.Decimal, decimal.Decimal, bool) (domain.OrderResult, error) {
	return domain.OrderResult{Protocol: v.id}, v.err
}

func (v *syncVenue) ClosePosition(context.Context, string, *decimal.Decimal, *float64) (domain.OrderResult, error) {
	return domain.OrderResult{Protocol: v.id}, v.err
}

func (v *syncVenue) CancelOrder(context.Context, string, string) error { return v.err }

func (v *syncVenue) CancelAll(context.Context, string) (int, error) { return 0, v.err }

func (v *syncVenue) Positions(context.Context) ([]domain.Position, error) { return nil, v.err }

func (v *syncVenue) Balances(context.Context) ([]domain.Balance, error) { return nil, v.err }

func (v *syncVenue) SetLeverage(context.Context, string, uint32, bool) error { return v.err }

func (v *syncVenue) Transfer(context.Context, decimal.Decimal, string) (string, error) {
	return "", v.err
}

type fakeLocker struct {
	held     bool
	acquired []string
	releases int
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	l.acquired = append(l.acquired, key)
	return func() { l.releases++ }, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func someFill(symbol string) domain.Fill {
	return domain.Fill{
		Protocol:    domain.ProtocolHyperliquid,
		Symbol:      symbol,
		Side:        domain.SideBuy,
		Price:       decimal.RequireFromString("3400"),
		Size:        decimal.RequireFromString("0.5"),
		OrderID:     "1",
		TimestampMs: 1700000000000,
	}
}

func TestSyncWritesFillsAndOrders(t *testing.T) {
	fills := &memFillStore{}
	orders := &memOrderStore{}
	locks := &fakeLocker{}
	svc := NewHistoryService(fills, orders, locks, testLogger())

	v := &syncVenue{
		id:     domain.ProtocolHyperliquid,
		fills:  []domain.Fill{someFill("ETH"), someFill("BTC")},
		orders: []domain.Order{{Protocol: domain.ProtocolHyperliquid, Symbol: "ETH", OrderID: "9"}},
	}

	res, err := svc.Sync(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FillsWritten)
	assert.Equal(t, 1, res.OrdersWritten)
	assert.Equal(t, []string{"sync:hyperliquid"}, locks.acquired)
	assert.Equal(t, 1, locks.releases, "lock is released after the run")
}

func TestSyncLockHeld(t *testing.T) {
	svc := NewHistoryService(&memFillStore{}, &memOrderStore{}, &fakeLocker{held: true}, testLogger())

	_, err := svc.Sync(context.Background(), &syncVenue{id: domain.ProtocolHyperliquid})
	require.ErrorIs(t, err, domain.ErrLockHeld)
}

func TestSyncWithoutLocker(t *testing.T) {
	svc := NewHistoryService(&memFillStore{}, &memOrderStore{}, nil, testLogger())

	res, err := svc.Sync(context.Background(), &syncVenue{id: domain.ProtocolHyperliquid})
	require.NoError(t, err)
	assert.Zero(t, res.FillsWritten)
}

func TestSyncAllContinuesPastFailure(t *testing.T) {
	fills := &memFillStore{}
	svc := NewHistoryService(fills, &memOrderStore{}, nil, testLogger())

	bad := &syncVenue{id: "drift", err: errors.New("venue down")}
	good := &syncVenue{id: domain.ProtocolHyperliquid, fills: []domain.Fill{someFill("ETH")}}

	results, err := svc.SyncAll(context.Background(), []venue.Perp{bad, good})
	require.Error(t, err, "first failure is reported")
	require.Len(t, results, 1, "healthy venues still sync")
	assert.Equal(t, domain.ProtocolHyperliquid, results[0].Protocol)
	assert.Len(t, fills.fills, 1)
}
