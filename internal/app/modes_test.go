package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/cache/redis"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/config"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/orchestrator"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/service"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/venue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testApp() *App {
	cfg := config.Defaults()
	return &App{
		cfg:    &cfg,
		logger: testLogger(),
		out:    &bytes.Buffer{},
	}
}

// marketPerp serves canned tickers; everything else returns zero values.
type marketPerp struct {
	venue.UnsupportedPerp
	id      domain.Protocol
	tickers []domain.Ticker
}

func (p *marketPerp) Protocol() domain.Protocol { return p.id }

func (p *marketPerp) Ticker(_ context.Context, symbol string) (domain.Ticker, error) {
	for _, t := range p.tickers {
		if t.Symbol == symbol {
			return t, nil
		}
	}
	return domain.Ticker{}, domain.ErrAssetNotFound
}

func (p *marketPerp) AllTickers(context.Context) ([]domain.Ticker, error) {
	return p.tickers, nil
}

func (p *marketPerp) Markets(context.Context) ([]domain.Market, error) { return nil, nil }

func (p *marketPerp) Candles(context.Context, string, string, int) ([]domain.Candle, error) {
	return nil, nil
}

func (p *marketPerp) Funding(context.Context, string) ([]domain.FundingRate, error) {
	return nil, nil
}

func (p *marketPerp) Orderbook(_ context.Context, symbol string, _ int) (domain.OrderBook, error) {
	return domain.OrderBook{Symbol: symbol}, nil
}

func (p *marketPerp) MarketOrder(context.Context, string, domain.Side, decimal.Decimal, *float64) (domain.OrderResult, error) {
	return domain.OrderResult{Protocol: p.id}, nil
}

func (p *marketPerp) LimitOrder(context.Context, string, domain.Side, decimal.Decimal, decimal.Decimal, bool) (domain.OrderResult, error) {
	return domain.OrderResult{Protocol: p.id}, nil
}

func (p *marketPerp) ClosePosition(context.Context, string, *decimal.Decimal, *float64) (domain.OrderResult, error) {
	return domain.OrderResult{Protocol: p.id}, nil
}

func (p *marketPerp) CancelOrder(context.Context, string, string) error { return nil }

func (p *marketPerp) CancelAll(context.Context, string) (int, error) { return 0, nil }

func (p *marketPerp) OpenOrders(context.Context) ([]domain.Order, error) { return nil, nil }

func (p *marketPerp) Positions(context.Context) ([]domain.Position, error) { return nil, nil }

func (p *marketPerp) Fills(context.Context) ([]domain.Fill, error) { return nil, nil }

func (p *marketPerp) Balances(context.Context) ([]domain.Balance, error) { return nil, nil }

func (p *marketPerp) SetLeverage(context.Context, string, uint32, bool) error { return nil }

func (p *marketPerp) Transfer(context.Context, decimal.Decimal, string) (string, error) {
	return "", nil
}

// fakeTickerCache keeps tickers in a map and can fail writes per symbol.
type fakeTickerCache struct {
	tickers  map[string]domain.Ticker
	failSet  map[string]error
	readErr  error
	setCalls []string
	getCalls []string
}

func newFakeTickerCache() *fakeTickerCache {
	return &fakeTickerCache{tickers: map[string]domain.Ticker{}}
}

func (c *fakeTickerCache) SetTicker(_ context.Context, t domain.Ticker) error {
	c.setCalls = append(c.setCalls, t.Symbol)
	if err := c.failSet[t.Symbol]; err != nil {
		return err
	}
	c.tickers[string(t.Protocol)+":"+t.Symbol] = t
	return nil
}

func (c *fakeTickerCache) GetTicker(_ context.Context, protocol domain.Protocol, symbol string) (domain.Ticker, time.Time, error) {
	c.getCalls = append(c.getCalls, symbol)
	if c.readErr != nil {
		return domain.Ticker{}, time.Time{}, c.readErr
	}
	t, ok := c.tickers[string(protocol)+":"+symbol]
	if !ok {
		return domain.Ticker{}, time.Time{}, domain.ErrNotFound
	}
	return t, time.Now(), nil
}

// memFills and memOrders back a HistoryService without a database.
type memFills struct {
	fills []domain.Fill
}

func (m *memFills) InsertBatch(_ context.Context, fills []domain.Fill) (int, error) {
	m.fills = append(m.fills, fills...)
	return len(fills), nil
}

func (m *memFills) Query(context.Context, domain.FillFilter) ([]domain.Fill, error) {
	return m.fills, nil
}

func (m *memFills) LastTimestampMs(context.Context, domain.Protocol) (uint64, error) {
	return 0, nil
}

type memOrders struct {
	orders []domain.Order
}

func (m *memOrders) InsertBatch(_ context.Context, orders []domain.Order) (int, error) {
	m.orders = append(m.orders, orders...)
	return len(orders), nil
}

func (m *memOrders) ListRecent(context.Context, int) ([]domain.Order, error) {
	return m.orders, nil
}

// fakeBlobReader serves canned export artifacts.
type fakeBlobReader struct {
	blobs map[string]string
	times map[string]time.Time
}

func (r *fakeBlobReader) Get(_ context.Context, path string) (io.ReadCloser, error) {
	body, ok := r.blobs[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (r *fakeBlobReader) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, body := range r.blobs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		infos = append(infos, domain.BlobInfo{
			Path:         path,
			Size:         int64(len(body)),
			LastModified: r.times[path],
		})
	}
	return infos, nil
}

func marketDeps(tickers ...domain.Ticker) (*Dependencies, *marketPerp) {
	perp := &marketPerp{id: domain.ProtocolHyperliquid, tickers: tickers}
	orch := orchestrator.New(testLogger())
	orch.RegisterPerp(perp)
	return &Dependencies{Orchestrator: orch}, perp
}

func TestLookupTickerPrefersCache(t *testing.T) {
	a := testApp()
	deps, _ := marketDeps(domain.Ticker{
		Symbol: "ETH", Protocol: domain.ProtocolHyperliquid,
		MidPrice: decimal.RequireFromString("3400"),
	})

	cache := newFakeTickerCache()
	cached := domain.Ticker{
		Symbol: "ETH", Protocol: domain.ProtocolHyperliquid,
		MidPrice: decimal.RequireFromString("3500"),
	}
	require.NoError(t, cache.SetTicker(context.Background(), cached))
	deps.TickerCache = cache

	got, fromCache, err := a.lookupTicker(context.Background(), deps, domain.ProtocolHyperliquid, "ETH")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, "3500", got.MidPrice.String(), "cache wins over the live venue")
}

func TestLookupTickerFallsBackToVenue(t *testing.T) {
	a := testApp()
	deps, _ := marketDeps(domain.Ticker{
		Symbol: "ETH", Protocol: domain.ProtocolHyperliquid,
		MidPrice: decimal.RequireFromString("3400"),
	})
	deps.TickerCache = newFakeTickerCache()

	got, fromCache, err := a.lookupTicker(context.Background(), deps, domain.ProtocolHyperliquid, "ETH")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "3400", got.MidPrice.String())
}

func TestLookupTickerSurvivesCacheError(t *testing.T) {
	a := testApp()
	deps, _ := marketDeps(domain.Ticker{
		Symbol: "ETH", Protocol: domain.ProtocolHyperliquid,
		MidPrice: decimal.RequireFromString("3400"),
	})
	cache := newFakeTickerCache()
	cache.readErr = errors.New("redis down")
	deps.TickerCache = cache

	got, fromCache, err := a.lookupTicker(context.Background(), deps, domain.ProtocolHyperliquid, "ETH")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "3400", got.MidPrice.String())
}

func TestSyncOnceContinuesPastCacheFailure(t *testing.T) {
	a := testApp()
	deps, _ := marketDeps(
		domain.Ticker{Symbol: "ETH", Protocol: domain.ProtocolHyperliquid,
			MidPrice: decimal.RequireFromString("3400")},
		domain.Ticker{Symbol: "BTC", Protocol: domain.ProtocolHyperliquid,
			MidPrice: decimal.RequireFromString("64000")},
	)
	deps.History = service.NewHistoryService(&memFills{}, &memOrders{}, nil, testLogger())

	cache := newFakeTickerCache()
	cache.failSet = map[string]error{"ETH": errors.New("write refused")}
	deps.TickerCache = cache

	a.syncOnce(context.Background(), deps)

	assert.Len(t, cache.setCalls, 2, "a failed write does not stop the pass")
	_, _, err := cache.GetTicker(context.Background(), domain.ProtocolHyperliquid, "BTC")
	assert.NoError(t, err, "the symbol after the failure is cached")
}

func TestCacheMidsUpdatesWritesThrough(t *testing.T) {
	a := testApp()
	cache := newFakeTickerCache()

	updates := make(chan redis.MidsUpdate, 1)
	updates <- redis.MidsUpdate{
		Protocol: domain.ProtocolHyperliquid,
		Mids: map[string]decimal.Decimal{
			"ETH": decimal.RequireFromString("3400"),
			"BTC": decimal.RequireFromString("64000"),
		},
	}
	close(updates)

	a.cacheMidsUpdates(context.Background(), updates, cache)

	got, _, err := cache.GetTicker(context.Background(), domain.ProtocolHyperliquid, "ETH")
	require.NoError(t, err)
	assert.Equal(t, "3400", got.MidPrice.String())
	_, _, err = cache.GetTicker(context.Background(), domain.ProtocolHyperliquid, "BTC")
	assert.NoError(t, err)
}

func TestFetchModeStreamsLatestExport(t *testing.T) {
	a := testApp()
	out := &bytes.Buffer{}
	a.out = out

	deps := &Dependencies{BlobReader: &fakeBlobReader{
		blobs: map[string]string{
			service.ExportPrefix + "2026-07-01T00-00-00Z.csv": "old",
			service.ExportPrefix + "2026-08-01T00-00-00Z.csv": "new",
		},
		times: map[string]time.Time{
			service.ExportPrefix + "2026-07-01T00-00-00Z.csv": time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			service.ExportPrefix + "2026-08-01T00-00-00Z.csv": time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
	}}

	require.NoError(t, a.FetchMode(context.Background(), deps))
	assert.Equal(t, "new", out.String(), "the most recent export is streamed")
}

func TestFetchModeWithoutReader(t *testing.T) {
	a := testApp()
	err := a.FetchMode(context.Background(), &Dependencies{})
	require.ErrorIs(t, err, errMissingReader)
}

func TestFetchModeNoExports(t *testing.T) {
	a := testApp()
	err := a.FetchMode(context.Background(), &Dependencies{BlobReader: &fakeBlobReader{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no exports")
}
