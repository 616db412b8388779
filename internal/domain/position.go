package domain

import "github.com/shopspring/decimal"

// Position is an open perp position. Size is always non-negative; direction
// is carried by Side.
type Position struct {
	Protocol         Protocol
	Symbol           string
	Side             Side
	Size             decimal.Decimal
	EntryPrice       *decimal.Decimal
	MarkPrice        *decimal.Decimal
	UnrealizedPnl    *decimal.Decimal
	Leverage         *uint32
	Margin           *decimal.Decimal
	LiquidationPrice *decimal.Decimal
}

// Balance is an account balance on one venue and chain. Whether
// Total == Available + Locked holds is a venue contract; the orchestrator
// does not reconcile it.
type Balance struct {
	Protocol  Protocol
	Chain     Chain
	Asset     string
	Total     decimal.Decimal
	Available decimal.Decimal
	Locked    decimal.Decimal
}

// SpotBalance is a spot token balance on venues that support spot trading.
type SpotBalance struct {
	Protocol Protocol
	Asset    string
	Total    decimal.Decimal
	Hold     decimal.Decimal
}

// VaultDeposit is a user's stake in a venue-managed vault.
type VaultDeposit struct {
	Protocol     Protocol
	VaultAddress string
	Name         string
	Equity       decimal.Decimal
	Pnl          *decimal.Decimal
}

// SubAccount is a venue subaccount belonging to the primary wallet.
type SubAccount struct {
	Protocol Protocol
	Name     string
	Address  string
	Equity   *decimal.Decimal
}
