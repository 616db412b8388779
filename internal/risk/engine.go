package risk

import (
	"fmt"
	"math"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// Input is one position-sizing request. It is immutable per Calculate call.
type Input struct {
	// Coin is the asset symbol, e.g. "ETH".
	Coin string
	// MarkPrice is the current mark/mid price.
	MarkPrice float64
	// AccountValue is the total account value in quote currency.
	AccountValue float64
	// EntryPrice is the intended entry (limit price or current market).
	EntryPrice float64
	// Size is the bare number supplied by the caller, interpreted
	// according to the configured size mode.
	Size float64
	// StopLoss overrides the configured default stop distance when set.
	StopLoss *float64
	// Side is the trade direction.
	Side domain.Side
	// Leverage overrides the configured default when set.
	Leverage *uint32
}

// Output is a derived, recomputable value. It is never persisted as
// authoritative state; callers recompute it from current inputs.
type Output struct {
	// Size is the position size in asset units.
	Size float64
	// Lots is the size expressed in lots in CFD mode, equal to Size
	// otherwise.
	Lots float64
	// Notional is Size * EntryPrice.
	Notional float64
	// Margin is the required margin, Notional / Leverage.
	Margin float64
	// Leverage is the effective leverage used.
	Leverage uint32
	// StopLoss is the resolved stop price: the caller's if supplied,
	// otherwise derived from the configured stop distance. Nil when
	// neither exists.
	StopLoss *float64
	// TakeProfit is populated only when a stop exists and a reward/risk
	// ratio is configured, scaled from the stop distance.
	TakeProfit *float64
	// EstLiquidation is a naive estimate from leverage and side. It
	// ignores maintenance-margin tiers and funding, so it is an
	// approximation, not an exchange-accurate liquidation price.
	EstLiquidation float64
	// RiskQuote is the quote-currency amount lost if the stop is hit.
	// Nil when no stop exists.
	RiskQuote *float64
	// RiskPct is RiskQuote as a fraction of account value. NaN when it
	// cannot be computed (no stop, or account value <= 0).
	RiskPct float64
}

// Result collects the outcome of Validate. Blocked means the intent must not
// be submitted downstream; warnings are informational either way.
type Result struct {
	Warnings []string
	Blocked  bool
}

// Calculate derives a position from the configured sizing mode and risk
// thresholds. It performs no I/O and holds no state: identical inputs yield
// bit-identical outputs.
func Calculate(trading TradingConfig, cfg Config, in Input) Output {
	leverage := trading.DefaultLeverage
	if in.Leverage != nil {
		leverage = *in.Leverage
	}
	if leverage == 0 {
		leverage = 1
	}

	// Bare number to asset units.
	var size float64
	switch trading.DefaultSizeMode {
	case SizeModeUSDC:
		if in.EntryPrice > 0 {
			size = in.Size * float64(leverage) / in.EntryPrice
		}
	case SizeModeLots:
		size = trading.Lots.LotsToSize(in.Coin, in.Size)
	default:
		size = in.Size
	}

	if max := cfg.MaxSize(in.Coin); max != nil && size > *max {
		size = *max
	}

	// Resolve the stop: explicit beats derived; no configured distance
	// means no stop at all.
	var stopLoss *float64
	if in.StopLoss != nil {
		stopLoss = in.StopLoss
	} else if pct := cfg.EffectiveStopPct(in.Coin); pct > 0 {
		var sl float64
		if in.Side == domain.SideBuy {
			sl = in.EntryPrice * (1 - pct)
		} else {
			sl = in.EntryPrice * (1 + pct)
		}
		stopLoss = &sl
	}

	notional := size * in.EntryPrice
	margin := notional / float64(leverage)

	var riskQuote *float64
	riskPct := math.NaN()
	var takeProfit *float64
	if stopLoss != nil {
		distance := math.Abs(in.EntryPrice - *stopLoss)
		rq := distance * size
		riskQuote = &rq
		if in.AccountValue > 0 {
			riskPct = rq / in.AccountValue
		}
		if cfg.RewardRiskRatio > 0 {
			var tp float64
			if in.Side == domain.SideBuy {
				tp = in.EntryPrice + distance*cfg.RewardRiskRatio
			} else {
				tp = in.EntryPrice - distance*cfg.RewardRiskRatio
			}
			takeProfit = &tp
		}
	}

	var estLiquidation float64
	if in.Side == domain.SideBuy {
		estLiquidation = in.EntryPrice * (1 - 1/float64(leverage))
	} else {
		estLiquidation = in.EntryPrice * (1 + 1/float64(leverage))
	}

	lots := size
	if trading.Mode == TradingModeCFD {
		lots = trading.Lots.SizeToLots(in.Coin, size)
	}

	return Output{
		Size:           size,
		Lots:           lots,
		Notional:       notional,
		Margin:         margin,
		Leverage:       leverage,
		StopLoss:       stopLoss,
		TakeProfit:     takeProfit,
		EstLiquidation: estLiquidation,
		RiskQuote:      riskQuote,
		RiskPct:        riskPct,
	}
}

// Validate checks a computed position against the configured rules, given
// live account context. Every rule runs: a blocking rule does not
// short-circuit later warnings, so the caller sees the complete picture in
// one pass. A blocked result is a normal return value, not an error.
func Validate(cfg Config, in Input, out Output, openPositions int, totalExposure float64) Result {
	var res Result

	if cfg.MaxPositions > 0 && openPositions >= int(cfg.MaxPositions) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"max positions reached (%d/%d)", openPositions, cfg.MaxPositions))
		res.Blocked = true
	}

	if cfg.MaxLeverage > 0 && out.Leverage > cfg.MaxLeverage {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"leverage %dx exceeds max %dx", out.Leverage, cfg.MaxLeverage))
		res.Blocked = true
	}

	newExposure := totalExposure + out.Notional
	maxExposure := in.AccountValue * cfg.MaxExposureMultiplier
	if cfg.MaxExposureMultiplier > 0 && newExposure > maxExposure {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"exposure would be $%.2f (max $%.2f = %.0fx account)",
			newExposure, maxExposure, cfg.MaxExposureMultiplier))
	}

	// 10% tolerance over the configured per-trade risk.
	maxRisk := cfg.EffectiveRiskPct(in.Coin)
	if !math.IsNaN(out.RiskPct) && out.RiskPct > maxRisk*1.1 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"risk %.2f%% exceeds max %.2f%%", out.RiskPct*100, maxRisk*100))
	}

	if in.AccountValue > 0 && out.Margin > in.AccountValue*0.5 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"margin $%.2f is over 50%% of account", out.Margin))
	}

	if out.StopLoss != nil && in.EntryPrice > 0 {
		stopDistPct := math.Abs(in.EntryPrice-*out.StopLoss) / in.EntryPrice
		if stopDistPct < 0.005 {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"stop-loss very tight (%.2f%% from entry), high risk of stopout", stopDistPct*100))
		}
		if stopDistPct > 0.10 {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"stop-loss wide (%.2f%% from entry), large risk per unit", stopDistPct*100))
		}
	}

	return res
}
