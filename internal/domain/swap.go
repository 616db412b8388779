package domain

import "github.com/shopspring/decimal"

// SwapQuote is a priced route for exchanging SellToken into BuyToken on a
// swap aggregator. TxData, when present, is the calldata needed to execute
// the swap on-chain.
type SwapQuote struct {
	Protocol        Protocol
	Chain           Chain
	SellToken       string
	BuyToken        string
	SellAmount      decimal.Decimal
	BuyAmount       decimal.Decimal
	Price           decimal.Decimal
	EstimatedGas    *uint64
	AllowanceTarget string
	TxData          string
}
