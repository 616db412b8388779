package hyperliquid

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/crypto"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
)

const defaultSlippage = 0.05

// sourceMainnet and sourceTestnet are the agent-authorization source labels
// the exchange expects for each network.
const (
	sourceMainnet = "a"
	sourceTestnet = "b"
)

func (a *Adapter) source() string {
	if a.testnet {
		return sourceTestnet
	}
	return sourceMainnet
}

// nextNonce returns a strictly increasing millisecond nonce.
func (a *Adapter) nextNonce() uint64 {
	a.nonceMu.Lock()
	defer a.nonceMu.Unlock()

	nonce := uint64(time.Now().UnixMilli())
	if nonce <= a.lastNonce {
		nonce = a.lastNonce + 1
	}
	a.lastNonce = nonce
	return nonce
}

// actionConnectionID derives the 32-byte connection id committing to an
// action and its nonce: keccak256(actionJSON || nonce_be8 || 0x00). The
// builder fee is attached after this commitment is computed, so it is never
// part of it.
func actionConnectionID(action any, nonce uint64) ([32]byte, error) {
	raw, err := json.Marshal(action)
	if err != nil {
		return [32]byte{}, fmt.Errorf("hyperliquid: marshal action: %w", err)
	}

	data := make([]byte, 0, len(raw)+9)
	data = append(data, raw...)
	var nonceBE [8]byte
	binary.BigEndian.PutUint64(nonceBE[:], nonce)
	data = append(data, nonceBE[:]...)
	data = append(data, 0x00) // no vault address

	var id [32]byte
	copy(id[:], ethcrypto.Keccak256(data))
	return id, nil
}

// signAction computes the agent commitment for an action and signs it with
// the adapter's agent key.
func (a *Adapter) signAction(action map[string]any, nonce uint64) (crypto.Signature, error) {
	if a.signer == nil {
		return crypto.Signature{}, fmt.Errorf("hyperliquid: read-only adapter: %w", domain.ErrSigningFailed)
	}
	connID, err := actionConnectionID(action, nonce)
	if err != nil {
		return crypto.Signature{}, err
	}
	sig, err := a.signer.SignAgent(a.domain, a.source(), connID)
	if err != nil {
		return crypto.Signature{}, fmt.Errorf("hyperliquid: %w", err)
	}
	return sig, nil
}

// exchange signs an action and submits it. For order actions the builder
// fee is injected into the action only after the signature exists; the fee
// is never covered by the signature and must not be.
func (a *Adapter) exchange(ctx context.Context, action map[string]any, withFee bool) (exchangeResponse, error) {
	nonce := a.nextNonce()
	sig, err := a.signAction(action, nonce)
	if err != nil {
		return exchangeResponse{}, err
	}

	if withFee {
		a.fee.AttachToAction(action)
	}

	payload := map[string]any{
		"action":       action,
		"nonce":        nonce,
		"signature":    sig,
		"vaultAddress": nil,
	}

	body, err := a.post(ctx, "/exchange", payload)
	if err != nil {
		return exchangeResponse{}, fmt.Errorf("hyperliquid: exchange: %w", err)
	}

	var resp exchangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return exchangeResponse{}, fmt.Errorf("hyperliquid: decode exchange response: %w", err)
	}
	if resp.Status != "ok" {
		return resp, fmt.Errorf("hyperliquid: exchange status %q: %w", resp.Status, domain.ErrOrderRejected)
	}
	return resp, nil
}

// randomCloid generates a random client order id (0x + 32 hex chars).
func randomCloid() string {
	id := uuid.New()
	return "0x" + hex.EncodeToString(id[:])
}

// orderSpec builds one order entry of an order action.
func orderSpec(asset int, isBuy bool, price, size decimal.Decimal, reduceOnly bool, tif string) map[string]any {
	return map[string]any{
		"a": asset,
		"b": isBuy,
		"p": price.String(),
		"s": size.String(),
		"r": reduceOnly,
		"t": map[string]any{"limit": map[string]any{"tif": tif}},
		"c": randomCloid(),
	}
}

func orderAction(orders ...map[string]any) map[string]any {
	return map[string]any{
		"type":     "order",
		"orders":   orders,
		"grouping": "na",
	}
}

// parseOrderResult maps the first order status of an exchange response to a
// domain result.
func parseOrderResult(resp exchangeResponse) (domain.OrderResult, error) {
	statuses := resp.Response.Data.Statuses
	if len(statuses) == 0 {
		return domain.OrderResult{}, fmt.Errorf("hyperliquid: empty order response")
	}

	st := statuses[0]
	switch {
	case st.Error != "":
		return domain.OrderResult{
			Protocol: domain.ProtocolHyperliquid,
			Status:   domain.OrderStatusRejected,
			Message:  st.Error,
		}, fmt.Errorf("hyperliquid: %s: %w", st.Error, domain.ErrOrderRejected)
	case st.Filled != nil:
		filled := decOrZero(st.Filled.TotalSz)
		avg := decOrNil(st.Filled.AvgPx)
		return domain.OrderResult{
			Protocol:   domain.ProtocolHyperliquid,
			OrderID:    formatOid(st.Filled.Oid),
			Status:     domain.OrderStatusFilled,
			FilledSize: &filled,
			AvgPrice:   avg,
		}, nil
	case st.Resting != nil:
		return domain.OrderResult{
			Protocol: domain.ProtocolHyperliquid,
			OrderID:  formatOid(st.Resting.Oid),
			Status:   domain.OrderStatusOpen,
		}, nil
	default:
		return domain.OrderResult{}, fmt.Errorf("hyperliquid: unrecognized order status")
	}
}

// --------------------------------------------------------------------------
// Perp trading operations
// --------------------------------------------------------------------------

// MarketOrder places an immediate-or-cancel order at the mid price shifted
// by the slippage tolerance; the exchange has no native market order type.
func (a *Adapter) MarketOrder(ctx context.Context, symbol string, side domain.Side, size decimal.Decimal, slippage *float64) (domain.OrderResult, error) {
	idx, meta, err := a.resolveAsset(ctx, symbol)
	if err != nil {
		return domain.OrderResult{}, err
	}
	ticker, err := a.Ticker(ctx, symbol)
	if err != nil {
		return domain.OrderResult{}, err
	}

	slip := defaultSlippage
	if slippage != nil {
		slip = *slippage
	}
	factor := decimal.NewFromFloat(1 + slip)
	if side == domain.SideSell {
		factor = decimal.NewFromFloat(1 - slip)
	}
	price := roundPrice(ticker.MidPrice.Mul(factor))

	action := orderAction(orderSpec(idx, side == domain.SideBuy, price, roundSize(size, meta), false, "Ioc"))
	resp, err := a.exchange(ctx, action, true)
	if err != nil {
		return domain.OrderResult{}, err
	}
	return parseOrderResult(resp)
}

func (a *Adapter) LimitOrder(ctx context.Context, symbol string, side domain.Side, size, price decimal.Decimal, reduceOnly bool) (domain.OrderResult, error) {
	idx, meta, err := a.resolveAsset(ctx, symbol)
	if err != nil {
		return domain.OrderResult{}, err
	}

	action := orderAction(orderSpec(idx, side == domain.SideBuy, roundPrice(price), roundSize(size, meta), reduceOnly, "Gtc"))
	resp, err := a.exchange(ctx, action, true)
	if err != nil {
		return domain.OrderResult{}, err
	}
	return parseOrderResult(resp)
}

// ClosePosition reduces or fully closes an open position with a
// reduce-only IOC order on the opposite side.
func (a *Adapter) ClosePosition(ctx context.Context, symbol string, size *decimal.Decimal, slippage *float64) (domain.OrderResult, error) {
	positions, err := a.Positions(ctx)
	if err != nil {
		return domain.OrderResult{}, err
	}

	var pos *domain.Position
	for i := range positions {
		if strings.EqualFold(positions[i].Symbol, symbol) {
			pos = &positions[i]
			break
		}
	}
	if pos == nil {
		return domain.OrderResult{}, fmt.Errorf("hyperliquid: no open position for %s: %w", symbol, domain.ErrNotFound)
	}

	closeSize := pos.Size
	if size != nil && size.LessThan(closeSize) {
		closeSize = *size
	}

	idx, meta, err := a.resolveAsset(ctx, symbol)
	if err != nil {
		return domain.OrderResult{}, err
	}
	ticker, err := a.Ticker(ctx, symbol)
	if err != nil {
		return domain.OrderResult{}, err
	}

	slip := defaultSlippage
	if slippage != nil {
		slip = *slippage
	}
	// Opposite side of the position.
	isBuy := pos.Side == domain.SideSell
	factor := decimal.NewFromFloat(1 - slip)
	if isBuy {
		factor = decimal.NewFromFloat(1 + slip)
	}
	price := roundPrice(ticker.MidPrice.Mul(factor))

	action := orderAction(orderSpec(idx, isBuy, price, roundSize(closeSize, meta), true, "Ioc"))
	resp, err := a.exchange(ctx, action, true)
	if err != nil {
		return domain.OrderResult{}, err
	}
	return parseOrderResult(resp)
}

func (a *Adapter) CancelOrder(ctx context.Context, symbol, orderID string) error {
	idx, _, err := a.resolveAsset(ctx, symbol)
	if err != nil {
		return err
	}
	oid, err := strconv.ParseUint(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("hyperliquid: invalid order id %q: %w", orderID, err)
	}

	action := map[string]any{
		"type":    "cancel",
		"cancels": []map[string]any{{"a": idx, "o": oid}},
	}
	_, err = a.exchange(ctx, action, false)
	return err
}

// CancelAll cancels every resting order, optionally limited to one symbol,
// and returns how many cancels were submitted.
func (a *Adapter) CancelAll(ctx context.Context, symbol string) (int, error) {
	orders, err := a.OpenOrders(ctx)
	if err != nil {
		return 0, err
	}

	var cancels []map[string]any
	for _, o := range orders {
		if symbol != "" && !strings.EqualFold(o.Symbol, symbol) {
			continue
		}
		idx, _, err := a.resolveAsset(ctx, o.Symbol)
		if err != nil {
			return 0, err
		}
		oid, err := strconv.ParseUint(o.OrderID, 10, 64)
		if err != nil {
			continue
		}
		cancels = append(cancels, map[string]any{"a": idx, "o": oid})
	}
	if len(cancels) == 0 {
		return 0, nil
	}

	action := map[string]any{"type": "cancel", "cancels": cancels}
	if _, err := a.exchange(ctx, action, false); err != nil {
		return 0, err
	}
	return len(cancels), nil
}

func (a *Adapter) SetLeverage(ctx context.Context, symbol string, leverage uint32, isCross bool) error {
	idx, _, err := a.resolveAsset(ctx, symbol)
	if err != nil {
		return err
	}
	action := map[string]any{
		"type":     "updateLeverage",
		"asset":    idx,
		"isCross":  isCross,
		"leverage": leverage,
	}
	_, err = a.exchange(ctx, action, false)
	return err
}

func (a *Adapter) UpdateMargin(ctx context.Context, symbol string, amount decimal.Decimal) error {
	idx, _, err := a.resolveAsset(ctx, symbol)
	if err != nil {
		return err
	}
	// ntli is the margin delta in micro-USDC.
	action := map[string]any{
		"type":  "updateIsolatedMargin",
		"asset": idx,
		"isBuy": true,
		"ntli":  amount.Mul(decimal.NewFromInt(1_000_000)).IntPart(),
	}
	_, err = a.exchange(ctx, action, false)
	return err
}

// Transfer sends USDC to another address on the exchange.
func (a *Adapter) Transfer(ctx context.Context, amount decimal.Decimal, destination string) (string, error) {
	action := map[string]any{
		"type":        "usdSend",
		"destination": destination,
		"amount":      amount.String(),
		"time":        uint64(time.Now().UnixMilli()),
	}
	resp, err := a.exchange(ctx, action, false)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// InternalTransfer moves USDC between the perp and spot wallets. Direction
// is "to_perp" or "to_spot".
func (a *Adapter) InternalTransfer(ctx context.Context, direction string, amount decimal.Decimal, token string) (string, error) {
	action := map[string]any{
		"type":   "usdClassTransfer",
		"amount": amount.String(),
		"toPerp": direction == "to_perp",
	}
	resp, err := a.exchange(ctx, action, false)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// ApproveAgent authorizes agentAddress to sign future actions for the
// primary account. The approval itself must be signed by the primary key,
// so the adapter's signer has to hold it for this one call.
func (a *Adapter) ApproveAgent(ctx context.Context, agentAddress, name string) (string, error) {
	action := map[string]any{
		"type":         "approveAgent",
		"agentAddress": agentAddress,
		"agentName":    name,
	}
	resp, err := a.exchange(ctx, action, false)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// roundPrice trims a price to 5 significant figures, the exchange's
// tick convention.
func roundPrice(p decimal.Decimal) decimal.Decimal {
	if p.IsZero() {
		return p
	}
	digits := int32(len(p.Abs().Truncate(0).String()))
	if p.Abs().LessThan(decimal.NewFromInt(1)) {
		digits = 0
	}
	return p.Round(5 - digits)
}
