// Package hyperliquid implements the perp capability against the
// Hyperliquid L1 exchange: info queries for market data and account state,
// and agent-signed actions for everything that mutates.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/crypto"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/fees"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/venue"
)

const (
	MainnetURL = "https://api.hyperliquid.xyz"
	TestnetURL = "https://api.hyperliquid-testnet.xyz"
)

// Adapter is the Hyperliquid venue. It satisfies venue.Perp; optional
// operations not listed below fall through to the embedded defaults.
type Adapter struct {
	venue.UnsupportedPerp

	baseURL string
	testnet bool
	http    *http.Client
	logger  *slog.Logger

	// signer holds the agent key used for exchange actions. Nil in
	// read-only deployments; mutating calls then fail.
	signer *crypto.Signer
	domain crypto.AgentDomain
	fee    fees.BuilderFee

	// address is the primary account whose state is queried. With agent
	// signing it differs from signer.Address().
	address common.Address

	// lastNonce guards the monotonically increasing action nonce.
	nonceMu   sync.Mutex
	lastNonce uint64

	// meta cache: symbol (upper) to universe index and size decimals.
	metaMu sync.RWMutex
	assets map[string]assetMeta
	index  map[string]int
}

// Config carries the adapter's construction parameters.
type Config struct {
	// BaseURL overrides the network endpoint; empty selects by Testnet.
	BaseURL string
	Testnet bool
	// Address is the primary account address.
	Address string
	// Signer signs exchange actions. Nil makes the adapter read-only.
	Signer *crypto.Signer
	// AgentDomain defaults to crypto.DefaultAgentDomain when zero.
	AgentDomain crypto.AgentDomain
	Fee         fees.BuilderFee
	Logger      *slog.Logger
}

// New creates the adapter. No network call is made; the asset universe is
// fetched lazily on first use.
func New(cfg Config) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		if cfg.Testnet {
			base = TestnetURL
		} else {
			base = MainnetURL
		}
	}
	dom := cfg.AgentDomain
	if dom.Name == "" {
		dom = crypto.DefaultAgentDomain()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		baseURL: base,
		testnet: cfg.Testnet,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		signer:  cfg.Signer,
		domain:  dom,
		fee:     cfg.Fee,
		address: common.HexToAddress(cfg.Address),
	}
}

func (a *Adapter) Protocol() domain.Protocol {
	return domain.ProtocolHyperliquid
}

// --------------------------------------------------------------------------
// Market data (info endpoint)
// --------------------------------------------------------------------------

func (a *Adapter) Markets(ctx context.Context) ([]domain.Market, error) {
	meta, ctxs, err := a.metaAndCtxs(ctx)
	if err != nil {
		return nil, err
	}
	markets := make([]domain.Market, 0, len(meta.Universe))
	for i, m := range meta.Universe {
		if i < len(ctxs) {
			markets = append(markets, toMarket(m, ctxs[i]))
		}
	}
	return markets, nil
}

func (a *Adapter) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	meta, ctxs, err := a.metaAndCtxs(ctx)
	if err != nil {
		return domain.Ticker{}, err
	}
	for i, m := range meta.Universe {
		if strings.EqualFold(m.Name, symbol) && i < len(ctxs) {
			return toTicker(m.Name, ctxs[i]), nil
		}
	}
	return domain.Ticker{}, fmt.Errorf("hyperliquid: %s: %w", symbol, domain.ErrAssetNotFound)
}

func (a *Adapter) AllTickers(ctx context.Context) ([]domain.Ticker, error) {
	meta, ctxs, err := a.metaAndCtxs(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]domain.Ticker, 0, len(meta.Universe))
	for i, m := range meta.Universe {
		if i < len(ctxs) {
			tickers = append(tickers, toTicker(m.Name, ctxs[i]))
		}
	}
	return tickers, nil
}

func (a *Adapter) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	ms, err := intervalMs(interval)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	end := uint64(time.Now().UnixMilli())
	start := end - uint64(limit)*ms

	var wire []wireCandle
	req := map[string]any{
		"type": "candleSnapshot",
		"req": map[string]any{
			"coin":      strings.ToUpper(symbol),
			"interval":  interval,
			"startTime": start,
			"endTime":   end,
		},
	}
	if err := a.info(ctx, req, &wire); err != nil {
		return nil, fmt.Errorf("hyperliquid: candles %s: %w", symbol, err)
	}

	candles := make([]domain.Candle, 0, len(wire))
	for _, w := range wire {
		candles = append(candles, toCandle(w))
	}
	return candles, nil
}

func (a *Adapter) Funding(ctx context.Context, symbol string) ([]domain.FundingRate, error) {
	var wire []wireFunding
	req := map[string]any{
		"type":      "fundingHistory",
		"coin":      strings.ToUpper(symbol),
		"startTime": time.Now().Add(-24*time.Hour).UnixMilli(),
	}
	if err := a.info(ctx, req, &wire); err != nil {
		return nil, fmt.Errorf("hyperliquid: funding %s: %w", symbol, err)
	}

	rates := make([]domain.FundingRate, 0, len(wire))
	for _, w := range wire {
		rates = append(rates, toFundingRate(w))
	}
	return rates, nil
}

func (a *Adapter) Orderbook(ctx context.Context, symbol string, depth int) (domain.OrderBook, error) {
	var wire wireBook
	req := map[string]any{"type": "l2Book", "coin": strings.ToUpper(symbol)}
	if err := a.info(ctx, req, &wire); err != nil {
		return domain.OrderBook{}, fmt.Errorf("hyperliquid: orderbook %s: %w", symbol, err)
	}

	bids := toBookLevels(wire.Levels[0])
	asks := toBookLevels(wire.Levels[1])
	if depth > 0 {
		if len(bids) > depth {
			bids = bids[:depth]
		}
		if len(asks) > depth {
			asks = asks[:depth]
		}
	}
	ts := wire.Time
	return domain.OrderBook{
		Symbol:      wire.Coin,
		Protocol:    domain.ProtocolHyperliquid,
		Bids:        bids,
		Asks:        asks,
		TimestampMs: &ts,
	}, nil
}

// --------------------------------------------------------------------------
// Account reads
// --------------------------------------------------------------------------

func (a *Adapter) OpenOrders(ctx context.Context) ([]domain.Order, error) {
	var wire []wireOrder
	req := map[string]any{"type": "openOrders", "user": a.address.Hex()}
	if err := a.info(ctx, req, &wire); err != nil {
		return nil, fmt.Errorf("hyperliquid: open orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(wire))
	for _, w := range wire {
		orders = append(orders, toOrder(w))
	}
	return orders, nil
}

func (a *Adapter) Positions(ctx context.Context) ([]domain.Position, error) {
	state, err := a.clearinghouse(ctx)
	if err != nil {
		return nil, err
	}
	positions := make([]domain.Position, 0, len(state.AssetPositions))
	for _, p := range state.AssetPositions {
		if decOrZero(p.Position.Szi).IsZero() {
			continue
		}
		positions = append(positions, toPosition(p.Position))
	}
	return positions, nil
}

func (a *Adapter) Fills(ctx context.Context) ([]domain.Fill, error) {
	var wire []wireFill
	req := map[string]any{"type": "userFills", "user": a.address.Hex()}
	if err := a.info(ctx, req, &wire); err != nil {
		return nil, fmt.Errorf("hyperliquid: fills: %w", err)
	}

	fills := make([]domain.Fill, 0, len(wire))
	for _, w := range wire {
		fills = append(fills, toFill(w))
	}
	return fills, nil
}

func (a *Adapter) Balances(ctx context.Context) ([]domain.Balance, error) {
	state, err := a.clearinghouse(ctx)
	if err != nil {
		return nil, err
	}
	total := decOrZero(state.MarginSummary.AccountValue)
	available := decOrZero(state.Withdrawable)
	return []domain.Balance{{
		Protocol:  domain.ProtocolHyperliquid,
		Chain:     domain.ChainHyperliquidL1,
		Asset:     "USDC",
		Total:     total,
		Available: available,
		Locked:    total.Sub(available),
	}}, nil
}

func (a *Adapter) SpotBalances(ctx context.Context) ([]domain.SpotBalance, error) {
	var wire struct {
		Balances []spotBalanceEntry `json:"balances"`
	}
	req := map[string]any{"type": "spotClearinghouseState", "user": a.address.Hex()}
	if err := a.info(ctx, req, &wire); err != nil {
		return nil, fmt.Errorf("hyperliquid: spot balances: %w", err)
	}

	balances := make([]domain.SpotBalance, 0, len(wire.Balances))
	for _, b := range wire.Balances {
		balances = append(balances, domain.SpotBalance{
			Protocol: domain.ProtocolHyperliquid,
			Asset:    b.Coin,
			Total:    decOrZero(b.Total),
			Hold:     decOrZero(b.Hold),
		})
	}
	return balances, nil
}

func (a *Adapter) SubAccounts(ctx context.Context) ([]domain.SubAccount, error) {
	var wire []wireSubAccount
	req := map[string]any{"type": "subAccounts", "user": a.address.Hex()}
	if err := a.info(ctx, req, &wire); err != nil {
		return nil, fmt.Errorf("hyperliquid: subaccounts: %w", err)
	}

	subs := make([]domain.SubAccount, 0, len(wire))
	for _, w := range wire {
		equity := decOrNil(w.ClearinghouseState.MarginSummary.AccountValue)
		subs = append(subs, domain.SubAccount{
			Protocol: domain.ProtocolHyperliquid,
			Name:     w.Name,
			Address:  w.SubAccountUser,
			Equity:   equity,
		})
	}
	return subs, nil
}

func (a *Adapter) VaultDeposits(ctx context.Context) ([]domain.VaultDeposit, error) {
	var wire []wireVaultEquity
	req := map[string]any{"type": "userVaultEquities", "user": a.address.Hex()}
	if err := a.info(ctx, req, &wire); err != nil {
		return nil, fmt.Errorf("hyperliquid: vault deposits: %w", err)
	}

	deposits := make([]domain.VaultDeposit, 0, len(wire))
	for _, w := range wire {
		deposits = append(deposits, domain.VaultDeposit{
			Protocol:     domain.ProtocolHyperliquid,
			VaultAddress: w.VaultAddress,
			Equity:       decOrZero(w.Equity),
		})
	}
	return deposits, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// info POSTs a query to the info endpoint and decodes the response into out.
func (a *Adapter) info(ctx context.Context, reqBody any, out any) error {
	body, err := a.post(ctx, "/info", reqBody)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (a *Adapter) post(ctx context.Context, path string, reqBody any) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(respBody, 256))
	}
	return respBody, nil
}

// metaAndCtxs fetches the universe with per-asset contexts and refreshes the
// asset-index cache as a side effect.
func (a *Adapter) metaAndCtxs(ctx context.Context) (metaResponse, []assetCtx, error) {
	var raw []json.RawMessage
	if err := a.info(ctx, map[string]any{"type": "metaAndAssetCtxs"}, &raw); err != nil {
		return metaResponse{}, nil, fmt.Errorf("hyperliquid: meta: %w", err)
	}
	if len(raw) < 2 {
		return metaResponse{}, nil, fmt.Errorf("hyperliquid: meta: truncated response")
	}

	var meta metaResponse
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return metaResponse{}, nil, fmt.Errorf("hyperliquid: decode universe: %w", err)
	}
	var ctxs []assetCtx
	if err := json.Unmarshal(raw[1], &ctxs); err != nil {
		return metaResponse{}, nil, fmt.Errorf("hyperliquid: decode asset contexts: %w", err)
	}

	a.metaMu.Lock()
	a.assets = make(map[string]assetMeta, len(meta.Universe))
	a.index = make(map[string]int, len(meta.Universe))
	for i, m := range meta.Universe {
		key := strings.ToUpper(m.Name)
		a.assets[key] = m
		a.index[key] = i
	}
	a.metaMu.Unlock()

	return meta, ctxs, nil
}

// resolveAsset maps a symbol to its universe index and metadata, fetching
// the universe if the cache is cold.
func (a *Adapter) resolveAsset(ctx context.Context, symbol string) (int, assetMeta, error) {
	key := strings.ToUpper(symbol)

	a.metaMu.RLock()
	idx, ok := a.index[key]
	meta := a.assets[key]
	a.metaMu.RUnlock()
	if ok {
		return idx, meta, nil
	}

	if _, _, err := a.metaAndCtxs(ctx); err != nil {
		return 0, assetMeta{}, err
	}

	a.metaMu.RLock()
	defer a.metaMu.RUnlock()
	idx, ok = a.index[key]
	if !ok {
		return 0, assetMeta{}, fmt.Errorf("hyperliquid: %s: %w", symbol, domain.ErrAssetNotFound)
	}
	return idx, a.assets[key], nil
}

func (a *Adapter) clearinghouse(ctx context.Context) (clearinghouseState, error) {
	var state clearinghouseState
	req := map[string]any{"type": "clearinghouseState", "user": a.address.Hex()}
	if err := a.info(ctx, req, &state); err != nil {
		return clearinghouseState{}, fmt.Errorf("hyperliquid: account state: %w", err)
	}
	return state, nil
}

// roundSize trims a size to the asset's allowed decimals.
func roundSize(size decimal.Decimal, meta assetMeta) decimal.Decimal {
	if meta.SzDecimals < 0 {
		return size
	}
	return size.Truncate(meta.SzDecimals)
}

func formatOid(oid uint64) string {
	return strconv.FormatUint(oid, 10)
}

func intervalMs(interval string) (uint64, error) {
	table := map[string]uint64{
		"1m": 60_000, "3m": 180_000, "5m": 300_000, "15m": 900_000,
		"30m": 1_800_000, "1h": 3_600_000, "2h": 7_200_000, "4h": 14_400_000,
		"8h": 28_800_000, "12h": 43_200_000, "1d": 86_400_000,
		"3d": 259_200_000, "1w": 604_800_000, "1M": 2_592_000_000,
	}
	ms, ok := table[interval]
	if !ok {
		return 0, fmt.Errorf("hyperliquid: invalid interval %q", interval)
	}
	return ms, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
