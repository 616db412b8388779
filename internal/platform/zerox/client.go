// Package zerox implements the swap capability against the 0x Swap API v2
// using the AllowanceHolder flow. Quotes are priced off-chain; submitting
// the returned calldata on-chain is left to the caller's wallet and the
// Swap method reports itself unsupported.
package zerox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/fees"
)

const (
	// DefaultBaseURL is the public 0x Swap API.
	DefaultBaseURL = "https://api.0x.org"

	// NativeToken is the placeholder address 0x uses for the chain's gas
	// token on every chain.
	NativeToken = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

	defaultSlippageBps = 100
)

// Adapter is a 0x swap aggregator client scoped to a single chain.
type Adapter struct {
	baseURL     string
	apiKey      string
	chain       domain.Chain
	slippageBps uint32
	fee         fees.BuilderFee
	http        *http.Client
	logger      *slog.Logger
}

// Config configures a 0x adapter.
type Config struct {
	// BaseURL overrides the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string
	// APIKey is sent as the 0x-api-key header.
	APIKey string
	// Chain selects which deployment to quote against. Defaults to
	// Ethereum.
	Chain domain.Chain
	// SlippageBps bounds quote slippage. Defaults to 100 (1%).
	SlippageBps uint32
	// Fee is injected into every price and quote request.
	Fee    fees.BuilderFee
	Logger *slog.Logger
}

// New creates a 0x adapter.
func New(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Chain == "" {
		cfg.Chain = domain.ChainEthereum
	}
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = defaultSlippageBps
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Adapter{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		chain:       cfg.Chain,
		slippageBps: cfg.SlippageBps,
		fee:         cfg.Fee,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      cfg.Logger,
	}
}

// Protocol returns the registry key for this adapter.
func (a *Adapter) Protocol() domain.Protocol { return domain.ProtocolZeroX }

// chainID maps the configured chain to the numeric id the API expects.
// Zero means the chain has no 0x deployment.
func chainID(chain domain.Chain) uint64 {
	switch chain {
	case domain.ChainEthereum:
		return 1
	case domain.ChainArbitrum:
		return 42161
	case domain.ChainBase:
		return 8453
	default:
		return 0
	}
}

// Quote prices a sell of amount base units of sellToken into buyToken on
// the configured chain. The builder fee is applied by the aggregator and is
// already reflected in the returned buy amount.
func (a *Adapter) Quote(ctx context.Context, sellToken, buyToken string, amount decimal.Decimal) (domain.SwapQuote, error) {
	cid := chainID(a.chain)
	if cid == 0 {
		return domain.SwapQuote{}, fmt.Errorf("zerox: quote: chain %s: %w", a.chain, domain.ErrUnsupported)
	}

	q := url.Values{}
	q.Set("chainId", strconv.FormatUint(cid, 10))
	q.Set("sellToken", sellToken)
	q.Set("buyToken", buyToken)
	q.Set("sellAmount", amount.String())
	q.Set("slippageBps", strconv.FormatUint(uint64(a.slippageBps), 10))
	a.fee.AttachToQuery(q)

	var resp priceResponse
	if err := a.get(ctx, "/swap/allowance-holder/price", q, &resp); err != nil {
		return domain.SwapQuote{}, fmt.Errorf("zerox: quote: %w", err)
	}
	if !resp.LiquidityAvailable {
		return domain.SwapQuote{}, fmt.Errorf("zerox: quote %s/%s: %w", sellToken, buyToken, domain.ErrNoLiquidity)
	}

	buyAmount, err := decimal.NewFromString(resp.BuyAmount)
	if err != nil {
		buyAmount = decimal.Zero
	}

	price := decimal.Zero
	if amount.IsPositive() {
		price = buyAmount.Div(amount)
	}

	quote := domain.SwapQuote{
		Protocol:        domain.ProtocolZeroX,
		Chain:           a.chain,
		SellToken:       sellToken,
		BuyToken:        buyToken,
		SellAmount:      amount,
		BuyAmount:       buyAmount,
		Price:           price,
		AllowanceTarget: resp.AllowanceTarget,
	}
	if resp.Transaction != nil {
		quote.TxData = resp.Transaction.Data
		if gas, err := strconv.ParseUint(resp.Transaction.Gas, 10, 64); err == nil {
			quote.EstimatedGas = &gas
		}
	}
	return quote, nil
}

// Swap is not wired: executing the quote calldata requires an on-chain
// wallet transaction.
func (a *Adapter) Swap(ctx context.Context, quote domain.SwapQuote) (string, error) {
	return "", fmt.Errorf("zerox: swap: %w", domain.ErrUnsupported)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// get executes an authenticated GET request and decodes the JSON response
// into out.
func (a *Adapter) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("0x-api-key", a.apiKey)
	req.Header.Set("0x-version", "v2")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
