package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// TickerCache implements domain.TickerCache using Redis hashes. Each ticker
// is stored at key "ticker:{protocol}:{symbol}" with fields "mid", optional
// "bid"/"ask"/"vol"/"chg", and "ts" (Unix millisecond timestamp).
type TickerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTickerCache creates a TickerCache backed by the given Client. Entries
// expire after ttl; zero disables expiry.
func NewTickerCache(c *Client, ttl time.Duration) *TickerCache {
	return &TickerCache{rdb: c.Underlying(), ttl: ttl}
}

func tickerKey(protocol domain.Protocol, symbol string) string {
	return "ticker:" + string(protocol) + ":" + symbol
}

// SetTicker stores the latest snapshot for a symbol.
func (tc *TickerCache) SetTicker(ctx context.Context, t domain.Ticker) error {
	key := tickerKey(t.Protocol, t.Symbol)
	fields := map[string]interface{}{
		"mid": t.MidPrice.String(),
		"ts":  strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	if t.BestBid != nil {
		fields["bid"] = t.BestBid.String()
	}
	if t.BestAsk != nil {
		fields["ask"] = t.BestAsk.String()
	}
	if t.Volume24h != nil {
		fields["vol"] = t.Volume24h.String()
	}
	if t.Change24Pct != nil {
		fields["chg"] = t.Change24Pct.String()
	}

	pipe := tc.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	if tc.ttl > 0 {
		pipe.Expire(ctx, key, tc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set ticker %s: %w", t.Symbol, err)
	}
	return nil
}

// GetTicker retrieves the latest snapshot and its storage time for a symbol.
// It returns domain.ErrNotFound when the key does not exist or has expired.
func (tc *TickerCache) GetTicker(ctx context.Context, protocol domain.Protocol, symbol string) (domain.Ticker, time.Time, error) {
	key := tickerKey(protocol, symbol)
	vals, err := tc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Ticker{}, time.Time{}, fmt.Errorf("redis: get ticker %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return domain.Ticker{}, time.Time{}, domain.ErrNotFound
	}

	midStr, ok := vals["mid"]
	if !ok {
		return domain.Ticker{}, time.Time{}, domain.ErrNotFound
	}
	mid, err := decimal.NewFromString(midStr)
	if err != nil {
		return domain.Ticker{}, time.Time{}, fmt.Errorf("redis: parse mid %s: %w", symbol, err)
	}

	t := domain.Ticker{
		Symbol:      symbol,
		Protocol:    protocol,
		MidPrice:    mid,
		BestBid:     decField(vals, "bid"),
		BestAsk:     decField(vals, "ask"),
		Volume24h:   decField(vals, "vol"),
		Change24Pct: decField(vals, "chg"),
	}

	var storedAt time.Time
	if tsStr, ok := vals["ts"]; ok {
		if ms, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			storedAt = time.UnixMilli(ms)
		}
	}
	return t, storedAt, nil
}

func decField(vals map[string]string, field string) *decimal.Decimal {
	s, ok := vals[field]
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
