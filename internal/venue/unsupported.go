package venue

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// UnsupportedPerp supplies default implementations for the optional Perp
// operations. Adapters embed it and override only the operations their venue
// supports. Read-style defaults return empty slices; mutating defaults fail
// with domain.ErrUnsupported so callers can distinguish "nothing there" from
// "cannot do that here".
type UnsupportedPerp struct{}

func (UnsupportedPerp) SpotBalances(ctx context.Context) ([]domain.SpotBalance, error) {
	return nil, nil
}

func (UnsupportedPerp) SpotMarketOrder(ctx context.Context, base string, side domain.Side, size decimal.Decimal, slippage *float64) (domain.OrderResult, error) {
	return domain.OrderResult{}, fmt.Errorf("venue: spot trading: %w", domain.ErrUnsupported)
}

func (UnsupportedPerp) InternalTransfer(ctx context.Context, direction string, amount decimal.Decimal, token string) (string, error) {
	return "", fmt.Errorf("venue: internal transfer: %w", domain.ErrUnsupported)
}

func (UnsupportedPerp) VaultDeposits(ctx context.Context) ([]domain.VaultDeposit, error) {
	return nil, nil
}

func (UnsupportedPerp) SubAccounts(ctx context.Context) ([]domain.SubAccount, error) {
	return nil, nil
}

func (UnsupportedPerp) ApproveAgent(ctx context.Context, agentAddress, name string) (string, error) {
	return "", fmt.Errorf("venue: agent approval: %w", domain.ErrUnsupported)
}

// UpdateMargin is optional for venues without isolated margin adjustment.
func (UnsupportedPerp) UpdateMargin(ctx context.Context, symbol string, amount decimal.Decimal) error {
	return fmt.Errorf("venue: update margin: %w", domain.ErrUnsupported)
}
