// Package risk implements pure position sizing and trade validation. Both
// entry points are side-effect free: the same inputs always produce the same
// outputs, so callers may invoke them from any number of concurrent requests
// without coordination.
package risk

// SizeMode controls how a bare size number from the caller is interpreted.
type SizeMode string

const (
	// SizeModeUSDC treats the number as quote-currency margin; asset size
	// is derived from leverage and entry price.
	SizeModeUSDC SizeMode = "usdc"
	// SizeModeUnits treats the number as raw asset units.
	SizeModeUnits SizeMode = "units"
	// SizeModeLots treats the number as CFD lots, converted through the
	// lot table.
	SizeModeLots SizeMode = "lots"
)

// TradingMode controls how computed sizes are reported back.
type TradingMode string

const (
	// TradingModeFutures reports size in asset units.
	TradingModeFutures TradingMode = "futures"
	// TradingModeCFD additionally converts size to lots for display.
	TradingModeCFD TradingMode = "cfd"
)

// LotConfig maps coins to units-per-standard-lot. Coins absent from the
// table fall back to DefaultLotSize.
type LotConfig struct {
	DefaultLotSize float64            `toml:"default_lot_size"`
	Assets         map[string]float64 `toml:"assets"`
}

// LotSize returns the units per lot for a coin.
func (l LotConfig) LotSize(coin string) float64 {
	if v, ok := l.Assets[coin]; ok {
		return v
	}
	return l.DefaultLotSize
}

// LotsToSize converts a lot count to asset units.
func (l LotConfig) LotsToSize(coin string, lots float64) float64 {
	return lots * l.LotSize(coin)
}

// SizeToLots converts asset units to a lot count. A zero lot size passes the
// size through unchanged rather than dividing by zero.
func (l LotConfig) SizeToLots(coin string, size float64) float64 {
	lot := l.LotSize(coin)
	if lot == 0 {
		return size
	}
	return size / lot
}

// TradingConfig supplies the sizing defaults for position calculation.
type TradingConfig struct {
	Mode            TradingMode `toml:"mode"`
	DefaultSizeMode SizeMode    `toml:"default_size_mode"`
	DefaultLeverage uint32      `toml:"default_leverage"`
	DefaultSlippage float64     `toml:"default_slippage"`
	Lots            LotConfig   `toml:"lots"`
}

// AssetOverride replaces selected risk thresholds for one coin. Nil fields
// fall back to the global value.
type AssetOverride struct {
	MaxRiskPct     *float64 `toml:"max_risk_pct"`
	DefaultStopPct *float64 `toml:"default_stop_pct"`
	MaxSize        *float64 `toml:"max_size"`
}

// Config holds the per-rule thresholds consumed by Calculate and Validate.
type Config struct {
	// MaxRiskPct is the maximum account fraction risked per trade
	// (0.02 = 2%).
	MaxRiskPct float64 `toml:"max_risk_pct"`
	// MaxLeverage blocks trades above this leverage. Zero disables the
	// rule.
	MaxLeverage uint32 `toml:"max_leverage"`
	// MaxPositions blocks new trades once this many positions are open.
	MaxPositions uint32 `toml:"max_positions"`
	// MaxExposureMultiplier caps total notional as a multiple of account
	// value.
	MaxExposureMultiplier float64 `toml:"max_exposure_multiplier"`
	// DefaultStopPct derives a stop price when the caller supplies none
	// (0.02 = 2% from entry). Zero means no stop is derived.
	DefaultStopPct float64 `toml:"default_stop_pct"`
	// RewardRiskRatio scales the take-profit from the stop distance. Zero
	// disables take-profit derivation.
	RewardRiskRatio float64 `toml:"reward_risk_ratio"`

	AssetOverrides map[string]AssetOverride `toml:"asset_overrides"`
}

// DefaultTradingConfig returns the stock sizing configuration.
func DefaultTradingConfig() TradingConfig {
	return TradingConfig{
		Mode:            TradingModeFutures,
		DefaultSizeMode: SizeModeUSDC,
		DefaultLeverage: 1,
		DefaultSlippage: 0.05,
		Lots: LotConfig{
			DefaultLotSize: 1.0,
			Assets: map[string]float64{
				"BTC":  0.001,
				"ETH":  0.01,
				"SOL":  1.0,
				"DOGE": 100.0,
				"ARB":  10.0,
				"AVAX": 1.0,
				"LINK": 1.0,
				"OP":   10.0,
				"SUI":  10.0,
			},
		},
	}
}

// DefaultConfig returns the stock risk thresholds.
func DefaultConfig() Config {
	return Config{
		MaxRiskPct:            0.02,
		MaxLeverage:           25,
		MaxPositions:          10,
		MaxExposureMultiplier: 3.0,
		DefaultStopPct:        0.02,
		RewardRiskRatio:       2.0,
	}
}

// EffectiveRiskPct returns the max risk fraction for a coin, honoring any
// per-asset override.
func (c Config) EffectiveRiskPct(coin string) float64 {
	if o, ok := c.AssetOverrides[coin]; ok && o.MaxRiskPct != nil {
		return *o.MaxRiskPct
	}
	return c.MaxRiskPct
}

// EffectiveStopPct returns the default stop distance for a coin.
func (c Config) EffectiveStopPct(coin string) float64 {
	if o, ok := c.AssetOverrides[coin]; ok && o.DefaultStopPct != nil {
		return *o.DefaultStopPct
	}
	return c.DefaultStopPct
}

// MaxSize returns the hard size cap for a coin in asset units, or nil when
// uncapped.
func (c Config) MaxSize(coin string) *float64 {
	if o, ok := c.AssetOverrides[coin]; ok {
		return o.MaxSize
	}
	return nil
}
