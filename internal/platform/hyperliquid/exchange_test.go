package hyperliquid

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/crypto"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/fees"
)

// Anvil's well-known first development key.
const testAgentKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const metaAndCtxsJSON = `[
	{"universe":[
		{"name":"BTC","szDecimals":5,"maxLeverage":50},
		{"name":"ETH","szDecimals":4,"maxLeverage":50}
	]},
	[
		{"funding":"0.0000125","openInterest":"12000","prevDayPx":"64000","dayNtlVlm":"900000000","markPx":"65000","oraclePx":"65010","midPx":"65000"},
		{"funding":"0.0000100","openInterest":"80000","prevDayPx":"3400","dayNtlVlm":"500000000","markPx":"3500","oraclePx":"3501","midPx":"3500"}
	]
]`

// capturedPayload is the exchange request body recorded by the stub server.
type capturedPayload struct {
	Action    map[string]any   `json:"action"`
	Nonce     uint64           `json:"nonce"`
	Signature crypto.Signature `json:"signature"`
}

// stubExchange is an in-process venue: canned info responses plus capture of
// every exchange submission.
type stubExchange struct {
	mu       sync.Mutex
	payloads []capturedPayload

	openOrdersJSON string
	exchangeJSON   string
}

func (s *stubExchange) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(body, &req)

		switch req.Type {
		case "metaAndAssetCtxs":
			io.WriteString(w, metaAndCtxsJSON)
		case "openOrders":
			if s.openOrdersJSON != "" {
				io.WriteString(w, s.openOrdersJSON)
			} else {
				io.WriteString(w, `[]`)
			}
		default:
			io.WriteString(w, `{}`)
		}
	})
	mux.HandleFunc("/exchange", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p capturedPayload
		_ = json.Unmarshal(body, &p)

		s.mu.Lock()
		s.payloads = append(s.payloads, p)
		s.mu.Unlock()

		resp := s.exchangeJSON
		if resp == "" {
			resp = `{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":7001}}]}}}`
		}
		io.WriteString(w, resp)
	})
	return mux
}

func (s *stubExchange) last(t *testing.T) capturedPayload {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.payloads)
	return s.payloads[len(s.payloads)-1]
}

func newTestAdapter(t *testing.T, stub *stubExchange) (*Adapter, *crypto.Signer) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	signer, err := crypto.NewSigner(testAgentKey)
	require.NoError(t, err)

	return New(Config{
		BaseURL: srv.URL,
		Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Signer:  signer,
		Fee:     fees.Default(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}), signer
}

func TestActionConnectionIDDeterministic(t *testing.T) {
	action := map[string]any{"type": "cancel", "cancels": []map[string]any{{"a": 1, "o": 42}}}

	a, err := actionConnectionID(action, 1000)
	require.NoError(t, err)
	b, err := actionConnectionID(action, 1000)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := actionConnectionID(action, 1001)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "nonce must be part of the commitment")
}

func TestLimitOrderAttachesBuilderFeeAfterSigning(t *testing.T) {
	stub := &stubExchange{}
	adapter, signer := newTestAdapter(t, stub)

	res, err := adapter.LimitOrder(context.Background(), "ETH", domain.SideBuy,
		decimal.RequireFromString("0.5"), decimal.RequireFromString("3400"), false)
	require.NoError(t, err)
	assert.Equal(t, "7001", res.OrderID)
	assert.Equal(t, domain.OrderStatusOpen, res.Status)

	payload := stub.last(t)

	// The submitted action carries the fee annotation.
	builder, ok := payload.Action["builder"].(map[string]any)
	require.True(t, ok, "order action must carry the builder fee")
	assert.Equal(t, fees.DefaultAddress, builder["b"])
	assert.Equal(t, float64(fees.DefaultBps), builder["f"])

	// The signature covers the action WITHOUT the fee: re-signing the
	// stripped action reproduces it exactly, while signing the annotated
	// action does not.
	stripped := make(map[string]any, len(payload.Action))
	for k, v := range payload.Action {
		if k != "builder" {
			stripped[k] = v
		}
	}

	connID, err := actionConnectionID(stripped, payload.Nonce)
	require.NoError(t, err)
	expected, err := signer.SignAgent(crypto.DefaultAgentDomain(), "a", connID)
	require.NoError(t, err)
	assert.Equal(t, expected, payload.Signature,
		"signature must be computed before fee injection")

	withFeeID, err := actionConnectionID(payload.Action, payload.Nonce)
	require.NoError(t, err)
	withFeeSig, err := signer.SignAgent(crypto.DefaultAgentDomain(), "a", withFeeID)
	require.NoError(t, err)
	assert.NotEqual(t, withFeeSig, payload.Signature,
		"fee annotation must not be part of the signed commitment")
}

func TestMarketOrderUsesSlippageBoundedPrice(t *testing.T) {
	stub := &stubExchange{}
	adapter, _ := newTestAdapter(t, stub)

	slip := 0.01
	_, err := adapter.MarketOrder(context.Background(), "ETH", domain.SideBuy,
		decimal.RequireFromString("1"), &slip)
	require.NoError(t, err)

	payload := stub.last(t)
	orders := payload.Action["orders"].([]any)
	require.Len(t, orders, 1)
	order := orders[0].(map[string]any)

	// Mid 3500 with 1% buy slippage.
	assert.Equal(t, "3535", order["p"])
	assert.Equal(t, true, order["b"])
	tif := order["t"].(map[string]any)["limit"].(map[string]any)["tif"]
	assert.Equal(t, "Ioc", tif)
}

func TestCancelOrderActionHasNoFee(t *testing.T) {
	stub := &stubExchange{
		exchangeJSON: `{"status":"ok","response":{"type":"cancel","data":{"statuses":[]}}}`,
	}
	adapter, _ := newTestAdapter(t, stub)

	err := adapter.CancelOrder(context.Background(), "BTC", "9001")
	require.NoError(t, err)

	payload := stub.last(t)
	assert.Equal(t, "cancel", payload.Action["type"])
	_, hasFee := payload.Action["builder"]
	assert.False(t, hasFee, "non-order actions carry no builder fee")
}

func TestCancelAllFiltersBySymbol(t *testing.T) {
	stub := &stubExchange{
		openOrdersJSON: `[
			{"coin":"ETH","limitPx":"3400","oid":1,"side":"B","sz":"0.5","origSz":"0.5","timestamp":1700000000000},
			{"coin":"BTC","limitPx":"64000","oid":2,"side":"A","sz":"0.1","origSz":"0.1","timestamp":1700000000001},
			{"coin":"ETH","limitPx":"3300","oid":3,"side":"B","sz":"1.0","origSz":"1.0","timestamp":1700000000002}
		]`,
		exchangeJSON: `{"status":"ok","response":{"type":"cancel","data":{"statuses":[]}}}`,
	}
	adapter, _ := newTestAdapter(t, stub)

	n, err := adapter.CancelAll(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	payload := stub.last(t)
	cancels := payload.Action["cancels"].([]any)
	assert.Len(t, cancels, 2)
}

func TestOrderRejectionSurfacesError(t *testing.T) {
	stub := &stubExchange{
		exchangeJSON: `{"status":"ok","response":{"type":"order","data":{"statuses":[{"error":"Insufficient margin"}]}}}`,
	}
	adapter, _ := newTestAdapter(t, stub)

	res, err := adapter.LimitOrder(context.Background(), "ETH", domain.SideBuy,
		decimal.RequireFromString("100"), decimal.RequireFromString("3400"), false)
	require.ErrorIs(t, err, domain.ErrOrderRejected)
	assert.Equal(t, domain.OrderStatusRejected, res.Status)
	assert.Contains(t, res.Message, "Insufficient margin")
}

func TestReadOnlyAdapterCannotTrade(t *testing.T) {
	stub := &stubExchange{}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	adapter := New(Config{
		BaseURL: srv.URL,
		Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := adapter.LimitOrder(context.Background(), "ETH", domain.SideBuy,
		decimal.RequireFromString("1"), decimal.RequireFromString("3400"), false)
	require.ErrorIs(t, err, domain.ErrSigningFailed)
}

func TestNextNonceMonotonic(t *testing.T) {
	a := New(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	prev := a.nextNonce()
	for i := 0; i < 100; i++ {
		n := a.nextNonce()
		assert.Greater(t, n, prev)
		prev = n
	}
}
