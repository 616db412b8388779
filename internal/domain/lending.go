package domain

import "github.com/shopspring/decimal"

// LendingMarket describes one collateral/loan pair on a lending protocol.
type LendingMarket struct {
	Protocol        Protocol
	Chain           Chain
	MarketID        string
	CollateralAsset string
	LoanAsset       string
	SupplyAPY       decimal.Decimal
	BorrowAPY       decimal.Decimal
	TotalSupply     decimal.Decimal
	TotalBorrow     decimal.Decimal
	Utilization     decimal.Decimal
	LTV             decimal.Decimal
	LLTV            decimal.Decimal
}

// LendingPosition is a user's supply/borrow position in one lending market.
type LendingPosition struct {
	Protocol        Protocol
	Chain           Chain
	MarketID        string
	CollateralAsset string
	LoanAsset       string
	Supplied        decimal.Decimal
	Borrowed        decimal.Decimal
	HealthFactor    *decimal.Decimal
}

// AtRisk reports whether the position is eligible for liquidation: a health
// factor below 1.0 means the LLTV-weighted collateral no longer covers the
// borrow. Positions without a health factor are never reported at risk.
func (p LendingPosition) AtRisk() bool {
	return p.HealthFactor != nil && p.HealthFactor.LessThan(decimal.NewFromInt(1))
}
