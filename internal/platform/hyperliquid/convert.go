package hyperliquid

import (
	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// decOrNil parses a wire numeric string, returning nil for empty or
// malformed values rather than failing the whole conversion.
func decOrNil(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func decOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toMarket(meta assetMeta, ctx assetCtx) domain.Market {
	maxLev := meta.MaxLeverage
	szDec := meta.SzDecimals
	return domain.Market{
		Symbol:       meta.Name,
		Base:         meta.Name,
		Quote:        "USDC",
		Protocol:     domain.ProtocolHyperliquid,
		Chain:        domain.ChainHyperliquidL1,
		Type:         domain.MarketTypePerp,
		MarkPrice:    decOrNil(ctx.MarkPx),
		IndexPrice:   decOrNil(ctx.OraclePx),
		Volume24h:    decOrNil(ctx.DayNtlVlm),
		OpenInterest: decOrNil(ctx.OpenInterest),
		FundingRate:  decOrNil(ctx.Funding),
		MaxLeverage:  &maxLev,
		SzDecimals:   &szDec,
	}
}

func toTicker(symbol string, ctx assetCtx) domain.Ticker {
	t := domain.Ticker{
		Symbol:    symbol,
		Protocol:  domain.ProtocolHyperliquid,
		MidPrice:  decOrZero(ctx.MidPx),
		Volume24h: decOrNil(ctx.DayNtlVlm),
	}
	if prev := decOrNil(ctx.PrevDayPx); prev != nil && !prev.IsZero() {
		change := t.MidPrice.Sub(*prev).Div(*prev).Mul(decimal.NewFromInt(100))
		t.Change24Pct = &change
	}
	return t
}

func toCandle(w wireCandle) domain.Candle {
	trades := w.Trades
	return domain.Candle{
		OpenTimeMs: w.OpenTime,
		Open:       decOrZero(w.Open),
		High:       decOrZero(w.High),
		Low:        decOrZero(w.Low),
		Close:      decOrZero(w.Close),
		Volume:     decOrZero(w.Volume),
		Trades:     &trades,
	}
}

func toFundingRate(w wireFunding) domain.FundingRate {
	return domain.FundingRate{
		Symbol:      w.Coin,
		Protocol:    domain.ProtocolHyperliquid,
		Rate:        decOrZero(w.FundingRate),
		Premium:     decOrNil(w.Premium),
		TimestampMs: w.Time,
	}
}

func toBookLevels(levels []wireBookLevel) []domain.BookLevel {
	out := make([]domain.BookLevel, 0, len(levels))
	for _, l := range levels {
		n := l.N
		out = append(out, domain.BookLevel{
			Price: decOrZero(l.Px),
			Size:  decOrZero(l.Sz),
			Count: &n,
		})
	}
	return out
}

// toPosition converts a signed-size wire position into the unsigned
// size-plus-side domain form.
func toPosition(w wirePosition) domain.Position {
	szi := decOrZero(w.Szi)
	side := domain.SideBuy
	if szi.IsNegative() {
		side = domain.SideSell
	}
	lev := w.Leverage.Value
	return domain.Position{
		Protocol:         domain.ProtocolHyperliquid,
		Symbol:           w.Coin,
		Side:             side,
		Size:             szi.Abs(),
		EntryPrice:       decOrNil(w.EntryPx),
		UnrealizedPnl:    decOrNil(w.UnrealizedPnl),
		Leverage:         &lev,
		Margin:           decOrNil(w.MarginUsed),
		LiquidationPrice: decOrNil(w.LiquidationPx),
	}
}

func toOrder(w wireOrder) domain.Order {
	side := domain.SideSell
	if w.Side == "B" {
		side = domain.SideBuy
	}
	price := decOrNil(w.LimitPx)
	var filled *decimal.Decimal
	if orig := decOrNil(w.OrigSz); orig != nil {
		f := orig.Sub(decOrZero(w.Sz))
		filled = &f
	}
	return domain.Order{
		Protocol:    domain.ProtocolHyperliquid,
		Symbol:      w.Coin,
		Side:        side,
		Type:        domain.OrderTypeLimit,
		Size:        decOrZero(w.Sz),
		Price:       price,
		FilledSize:  filled,
		Status:      domain.OrderStatusOpen,
		OrderID:     formatOid(w.Oid),
		TimestampMs: w.Timestamp,
	}
}

func toFill(w wireFill) domain.Fill {
	side := domain.SideSell
	if w.Side == "B" {
		side = domain.SideBuy
	}
	return domain.Fill{
		Protocol:    domain.ProtocolHyperliquid,
		Symbol:      w.Coin,
		Side:        side,
		Price:       decOrZero(w.Px),
		Size:        decOrZero(w.Sz),
		Fee:         decOrZero(w.Fee),
		RealizedPnl: decOrNil(w.ClosedPnl),
		OrderID:     formatOid(w.Oid),
		TxHash:      w.Hash,
		TimestampMs: w.Time,
	}
}
