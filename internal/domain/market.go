package domain

import "github.com/shopspring/decimal"

// MarketType distinguishes the kinds of markets the aggregator understands.
type MarketType string

const (
	MarketTypePerp    MarketType = "perp"
	MarketTypeSpot    MarketType = "spot"
	MarketTypeLending MarketType = "lending"
)

// Market is an immutable snapshot of a tradeable market. It is refreshed by
// re-fetching from the venue, never mutated in place.
type Market struct {
	Symbol       string
	Base         string
	Quote        string
	Protocol     Protocol
	Chain        Chain
	Type         MarketType
	MarkPrice    *decimal.Decimal
	IndexPrice   *decimal.Decimal
	Volume24h    *decimal.Decimal
	OpenInterest *decimal.Decimal
	FundingRate  *decimal.Decimal
	MaxLeverage  *uint32
	MinSize      *decimal.Decimal
	TickSize     *decimal.Decimal
	SzDecimals   *int32
}

// Ticker is a lightweight price snapshot for a single symbol.
type Ticker struct {
	Symbol      string
	Protocol    Protocol
	MidPrice    decimal.Decimal
	BestBid     *decimal.Decimal
	BestAsk     *decimal.Decimal
	Volume24h   *decimal.Decimal
	Change24Pct *decimal.Decimal
}

// Candle is a single OHLCV bar.
type Candle struct {
	OpenTimeMs uint64
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
	Trades     *uint64
}

// FundingRate is one observation of a perp funding rate.
type FundingRate struct {
	Symbol        string
	Protocol      Protocol
	Rate          decimal.Decimal
	Premium       *decimal.Decimal
	TimestampMs   uint64
	NextFundingMs *uint64
}

// BookLevel is one price level of an order book.
type BookLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
	Count *uint32
}

// OrderBook is a two-sided depth snapshot.
type OrderBook struct {
	Symbol      string
	Protocol    Protocol
	Bids        []BookLevel
	Asks        []BookLevel
	TimestampMs *uint64
}
