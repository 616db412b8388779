package morpho

// wireAsset is the loan or collateral side of a market.
type wireAsset struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// wireMarketState holds the live rates and volumes of one market.
type wireMarketState struct {
	SupplyApy       float64 `json:"supplyApy"`
	BorrowApy       float64 `json:"borrowApy"`
	SupplyAssetsUsd float64 `json:"supplyAssetsUsd"`
	BorrowAssetsUsd float64 `json:"borrowAssetsUsd"`
	Utilization     float64 `json:"utilization"`
}

// wireMarket is one item of the markets query.
type wireMarket struct {
	UniqueKey       string          `json:"uniqueKey"`
	LLTV            float64         `json:"lltv"`
	LoanAsset       wireAsset       `json:"loanAsset"`
	CollateralAsset wireAsset       `json:"collateralAsset"`
	State           wireMarketState `json:"state"`
}

// wirePositionMarket is the market summary embedded in a position item.
type wirePositionMarket struct {
	UniqueKey       string    `json:"uniqueKey"`
	CollateralAsset wireAsset `json:"collateralAsset"`
	LoanAsset       wireAsset `json:"loanAsset"`
}

// wirePosition is one item of the marketPositions query. healthFactor is
// null for supply-only positions.
type wirePosition struct {
	Market          wirePositionMarket `json:"market"`
	SupplyAssetsUsd float64            `json:"supplyAssetsUsd"`
	BorrowAssetsUsd float64            `json:"borrowAssetsUsd"`
	HealthFactor    *float64           `json:"healthFactor"`
}
