package zerox

// priceTransaction is the calldata block of a priced swap. Present on
// /quote responses and on /price when the router can presimulate.
type priceTransaction struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Gas   string `json:"gas"`
	Value string `json:"value"`
}

// priceResponse is the subset of the AllowanceHolder price/quote response
// the adapter consumes.
type priceResponse struct {
	LiquidityAvailable bool              `json:"liquidityAvailable"`
	BuyAmount          string            `json:"buyAmount"`
	SellAmount         string            `json:"sellAmount"`
	BuyToken           string            `json:"buyToken"`
	SellToken          string            `json:"sellToken"`
	AllowanceTarget    string            `json:"allowanceTarget"`
	MinBuyAmount       string            `json:"minBuyAmount"`
	Transaction        *priceTransaction `json:"transaction"`
}
