// Package venue defines the capability contracts that protocol adapters
// implement. A venue may implement any subset of the capabilities; the
// orchestrator keys each registered adapter by its declared protocol id.
package venue

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// MarketData is the read-only capability subset. It requires no signing
// material, so unauthenticated callers can hold a MarketData handle without
// gaining access to order-mutating operations.
type MarketData interface {
	// Protocol returns the registry key for this adapter.
	Protocol() domain.Protocol

	Markets(ctx context.Context) ([]domain.Market, error)
	Ticker(ctx context.Context, symbol string) (domain.Ticker, error)
	AllTickers(ctx context.Context) ([]domain.Ticker, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
	Funding(ctx context.Context, symbol string) ([]domain.FundingRate, error)
	Orderbook(ctx context.Context, symbol string, depth int) (domain.OrderBook, error)
}

// Perp is the full perpetuals trading capability. Methods past the required
// core are optional: adapters embed UnsupportedPerp and override only what
// their venue actually supports; everything else fails with
// domain.ErrUnsupported.
type Perp interface {
	MarketData

	MarketOrder(ctx context.Context, symbol string, side domain.Side, size decimal.Decimal, slippage *float64) (domain.OrderResult, error)
	LimitOrder(ctx context.Context, symbol string, side domain.Side, size, price decimal.Decimal, reduceOnly bool) (domain.OrderResult, error)
	ClosePosition(ctx context.Context, symbol string, size *decimal.Decimal, slippage *float64) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
	CancelAll(ctx context.Context, symbol string) (int, error)
	OpenOrders(ctx context.Context) ([]domain.Order, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	Fills(ctx context.Context) ([]domain.Fill, error)
	Balances(ctx context.Context) ([]domain.Balance, error)
	SetLeverage(ctx context.Context, symbol string, leverage uint32, isCross bool) error
	UpdateMargin(ctx context.Context, symbol string, amount decimal.Decimal) error
	Transfer(ctx context.Context, amount decimal.Decimal, destination string) (string, error)

	// Optional: spot operations.
	SpotBalances(ctx context.Context) ([]domain.SpotBalance, error)
	SpotMarketOrder(ctx context.Context, base string, side domain.Side, size decimal.Decimal, slippage *float64) (domain.OrderResult, error)
	InternalTransfer(ctx context.Context, direction string, amount decimal.Decimal, token string) (string, error)

	// Optional: vaults and subaccounts.
	VaultDeposits(ctx context.Context) ([]domain.VaultDeposit, error)
	SubAccounts(ctx context.Context) ([]domain.SubAccount, error)

	// Optional: delegated trading. ApproveAgent authorizes agentAddress to
	// sign orders on behalf of the primary account.
	ApproveAgent(ctx context.Context, agentAddress, name string) (string, error)
}

// Lending is the lending protocol capability.
type Lending interface {
	Protocol() domain.Protocol

	Markets(ctx context.Context) ([]domain.LendingMarket, error)
	Positions(ctx context.Context, user string) ([]domain.LendingPosition, error)
	Supply(ctx context.Context, marketID string, amount decimal.Decimal) (string, error)
	Withdraw(ctx context.Context, marketID string, amount decimal.Decimal) (string, error)
	Borrow(ctx context.Context, marketID string, amount decimal.Decimal) (string, error)
	Repay(ctx context.Context, marketID string, amount decimal.Decimal) (string, error)
}

// Swap is the swap-routing capability.
type Swap interface {
	Protocol() domain.Protocol

	Quote(ctx context.Context, sellToken, buyToken string, amount decimal.Decimal) (domain.SwapQuote, error)
	// Swap executes a previously fetched quote and returns the transaction
	// hash.
	Swap(ctx context.Context, quote domain.SwapQuote) (string, error)
}
