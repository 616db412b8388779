package zerox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/fees"
)

const priceJSON = `{
	"liquidityAvailable": true,
	"buyAmount": "3400000000",
	"sellAmount": "1000000000000000000",
	"allowanceTarget": "0x0000000000001fF3684f28c67538d4D072C22734",
	"minBuyAmount": "3366000000",
	"transaction": {"to": "0xrouter", "data": "0xdeadbeef", "gas": "185000", "value": "0"}
}`

// stubAPI records the request line of the last call and serves a canned
// response.
type stubAPI struct {
	lastPath  string
	lastQuery url.Values
	lastKey   string
	response  string
}

func (s *stubAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastPath = r.URL.Path
		s.lastQuery = r.URL.Query()
		s.lastKey = r.Header.Get("0x-api-key")
		io.WriteString(w, s.response)
	})
}

func newTestAdapter(t *testing.T, stub *stubAPI, chain domain.Chain) *Adapter {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	return New(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Chain:   chain,
		Fee:     fees.Default(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestQuote(t *testing.T) {
	stub := &stubAPI{response: priceJSON}
	adapter := newTestAdapter(t, stub, domain.ChainEthereum)

	sell := decimal.RequireFromString("1000000000000000000")
	quote, err := adapter.Quote(context.Background(), "WETH", "USDC", sell)
	require.NoError(t, err)

	assert.Equal(t, "/swap/allowance-holder/price", stub.lastPath)
	assert.Equal(t, "test-key", stub.lastKey)
	assert.Equal(t, "1", stub.lastQuery.Get("chainId"))
	assert.Equal(t, "WETH", stub.lastQuery.Get("sellToken"))
	assert.Equal(t, sell.String(), stub.lastQuery.Get("sellAmount"))

	assert.Equal(t, domain.ProtocolZeroX, quote.Protocol)
	assert.Equal(t, "3400000000", quote.BuyAmount.String())
	assert.Equal(t, "0x0000000000001fF3684f28c67538d4D072C22734", quote.AllowanceTarget)
	assert.Equal(t, "0xdeadbeef", quote.TxData)
	require.NotNil(t, quote.EstimatedGas)
	assert.Equal(t, uint64(185000), *quote.EstimatedGas)
	// 3400000000 / 1e18
	assert.True(t, quote.Price.Equal(quote.BuyAmount.Div(sell)))
}

func TestQuoteInjectsSwapFee(t *testing.T) {
	stub := &stubAPI{response: priceJSON}
	adapter := newTestAdapter(t, stub, domain.ChainBase)

	_, err := adapter.Quote(context.Background(), "WETH", "USDC", decimal.NewFromInt(1000))
	require.NoError(t, err)

	assert.Equal(t, "8453", stub.lastQuery.Get("chainId"))
	assert.Equal(t, fees.DefaultAddress, stub.lastQuery.Get("swapFeeRecipient"))
	assert.Equal(t, "1", stub.lastQuery.Get("swapFeeBps"))
}

func TestQuoteNoLiquidity(t *testing.T) {
	stub := &stubAPI{response: `{"liquidityAvailable": false}`}
	adapter := newTestAdapter(t, stub, domain.ChainEthereum)

	_, err := adapter.Quote(context.Background(), "WETH", "OBSCURE", decimal.NewFromInt(1000))
	require.ErrorIs(t, err, domain.ErrNoLiquidity)
}

func TestQuoteUnsupportedChain(t *testing.T) {
	stub := &stubAPI{response: priceJSON}
	adapter := newTestAdapter(t, stub, domain.ChainSolana)

	_, err := adapter.Quote(context.Background(), "SOL", "USDC", decimal.NewFromInt(1000))
	require.ErrorIs(t, err, domain.ErrUnsupported)
	assert.Empty(t, stub.lastPath, "no request is made for unsupported chains")
}

func TestSwapUnsupported(t *testing.T) {
	adapter := New(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	_, err := adapter.Swap(context.Background(), domain.SwapQuote{})
	require.ErrorIs(t, err, domain.ErrUnsupported)
}
