// Package morpho implements the lending capability against the Morpho Blue
// API. Market and position data come from the hosted GraphQL indexer; the
// on-chain mutations (supply, withdraw, borrow, repay) are not wired and
// report themselves unsupported.
package morpho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

// DefaultEndpoint is the hosted Morpho Blue GraphQL API.
const DefaultEndpoint = "https://blue-api.morpho.org/graphql"

// Adapter is a read-only Morpho Blue client scoped to a single chain.
type Adapter struct {
	endpoint string
	chain    domain.Chain
	http     *http.Client
	logger   *slog.Logger
}

// Config configures a Morpho adapter.
type Config struct {
	// Endpoint overrides the GraphQL endpoint. Defaults to DefaultEndpoint.
	Endpoint string
	// Chain selects which deployment to query. Defaults to Ethereum.
	Chain  domain.Chain
	Logger *slog.Logger
}

// New creates a Morpho adapter.
func New(cfg Config) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Chain == "" {
		cfg.Chain = domain.ChainEthereum
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Adapter{
		endpoint: cfg.Endpoint,
		chain:    cfg.Chain,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   cfg.Logger,
	}
}

// Protocol returns the registry key for this adapter.
func (a *Adapter) Protocol() domain.Protocol { return domain.ProtocolMorpho }

// chainID maps the configured chain to the numeric id the API filters on.
func (a *Adapter) chainID() int {
	switch a.chain {
	case domain.ChainBase:
		return 8453
	default:
		return 1
	}
}

// Markets returns the top Morpho Blue markets on the configured chain.
func (a *Adapter) Markets(ctx context.Context) ([]domain.LendingMarket, error) {
	query := `
		query Markets($chainId: [Int!], $first: Int!) {
			markets(where: { chainId_in: $chainId }, first: $first) {
				items {
					uniqueKey
					lltv
					loanAsset { symbol decimals }
					collateralAsset { symbol decimals }
					state {
						supplyApy
						borrowApy
						supplyAssetsUsd
						borrowAssetsUsd
						utilization
					}
				}
			}
		}
	`

	variables := map[string]any{
		"chainId": []int{a.chainID()},
		"first":   50,
	}

	respData, err := a.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("morpho: fetch markets: %w", err)
	}

	var result struct {
		Markets struct {
			Items []wireMarket `json:"items"`
		} `json:"markets"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("morpho: decode markets: %w", err)
	}

	markets := make([]domain.LendingMarket, 0, len(result.Markets.Items))
	for _, item := range result.Markets.Items {
		markets = append(markets, domain.LendingMarket{
			Protocol:        domain.ProtocolMorpho,
			Chain:           a.chain,
			MarketID:        item.UniqueKey,
			CollateralAsset: item.CollateralAsset.Symbol,
			LoanAsset:       item.LoanAsset.Symbol,
			SupplyAPY:       decFromFloat(item.State.SupplyApy),
			BorrowAPY:       decFromFloat(item.State.BorrowApy),
			TotalSupply:     decFromFloat(item.State.SupplyAssetsUsd),
			TotalBorrow:     decFromFloat(item.State.BorrowAssetsUsd),
			Utilization:     decFromFloat(item.State.Utilization),
			// Morpho publishes a liquidation threshold, not a max-borrow LTV.
			LLTV: decFromFloat(item.LLTV),
		})
	}
	return markets, nil
}

// Positions returns the user's open market positions on the configured
// chain. Positions with neither supply nor borrow are dropped.
func (a *Adapter) Positions(ctx context.Context, user string) ([]domain.LendingPosition, error) {
	query := `
		query Positions($user: [String!], $chainId: [Int!], $first: Int!) {
			marketPositions(
				where: { userAddress_in: $user, chainId_in: $chainId }
				first: $first
			) {
				items {
					market {
						uniqueKey
						collateralAsset { symbol }
						loanAsset { symbol }
					}
					supplyAssetsUsd
					borrowAssetsUsd
					healthFactor
				}
			}
		}
	`

	variables := map[string]any{
		"user":    []string{strings.ToLower(user)},
		"chainId": []int{a.chainID()},
		"first":   50,
	}

	respData, err := a.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("morpho: fetch positions: %w", err)
	}

	var result struct {
		MarketPositions struct {
			Items []wirePosition `json:"items"`
		} `json:"marketPositions"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("morpho: decode positions: %w", err)
	}

	positions := make([]domain.LendingPosition, 0, len(result.MarketPositions.Items))
	for _, item := range result.MarketPositions.Items {
		supplied := decFromFloat(item.SupplyAssetsUsd)
		borrowed := decFromFloat(item.BorrowAssetsUsd)
		if supplied.IsZero() && borrowed.IsZero() {
			continue
		}

		var health *decimal.Decimal
		if item.HealthFactor != nil {
			h := decFromFloat(*item.HealthFactor)
			health = &h
		}

		positions = append(positions, domain.LendingPosition{
			Protocol:        domain.ProtocolMorpho,
			Chain:           a.chain,
			MarketID:        item.Market.UniqueKey,
			CollateralAsset: item.Market.CollateralAsset.Symbol,
			LoanAsset:       item.Market.LoanAsset.Symbol,
			Supplied:        supplied,
			Borrowed:        borrowed,
			HealthFactor:    health,
		})
	}
	return positions, nil
}

// Supply is not wired: position changes go through the protocol frontend.
func (a *Adapter) Supply(ctx context.Context, marketID string, amount decimal.Decimal) (string, error) {
	return "", fmt.Errorf("morpho: supply: %w", domain.ErrUnsupported)
}

func (a *Adapter) Withdraw(ctx context.Context, marketID string, amount decimal.Decimal) (string, error) {
	return "", fmt.Errorf("morpho: withdraw: %w", domain.ErrUnsupported)
}

func (a *Adapter) Borrow(ctx context.Context, marketID string, amount decimal.Decimal) (string, error) {
	return "", fmt.Errorf("morpho: borrow: %w", domain.ErrUnsupported)
}

func (a *Adapter) Repay(ctx context.Context, marketID string, amount decimal.Decimal) (string, error) {
	return "", fmt.Errorf("morpho: repay: %w", domain.ErrUnsupported)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// doQuery executes a GraphQL query and returns the raw data payload.
func (a *Adapter) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	return envelope.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func decFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
