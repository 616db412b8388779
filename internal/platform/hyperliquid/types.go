package hyperliquid

// Wire types for the Hyperliquid info and exchange endpoints. Numeric fields
// arrive as strings and are converted to decimals at the domain boundary.

// assetMeta describes one perp asset in the exchange universe. The slice
// index within the universe is the asset id used by exchange actions.
type assetMeta struct {
	Name        string `json:"name"`
	SzDecimals  int32  `json:"szDecimals"`
	MaxLeverage uint32 `json:"maxLeverage"`
	OnlyCross   bool   `json:"onlyIsolated,omitempty"`
}

type metaResponse struct {
	Universe []assetMeta `json:"universe"`
}

// assetCtx is the per-asset market context returned alongside the universe.
type assetCtx struct {
	Funding      string   `json:"funding"`
	OpenInterest string   `json:"openInterest"`
	PrevDayPx    string   `json:"prevDayPx"`
	DayNtlVlm    string   `json:"dayNtlVlm"`
	Premium      string   `json:"premium"`
	OraclePx     string   `json:"oraclePx"`
	MarkPx       string   `json:"markPx"`
	MidPx        string   `json:"midPx"`
	ImpactPxs    []string `json:"impactPxs"`
}

// wireCandle is one OHLCV bar from a candleSnapshot query.
type wireCandle struct {
	OpenTime  uint64 `json:"t"`
	CloseTime uint64 `json:"T"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Trades    uint64 `json:"n"`
}

// wireFunding is one fundingHistory entry.
type wireFunding struct {
	Coin        string `json:"coin"`
	FundingRate string `json:"fundingRate"`
	Premium     string `json:"premium"`
	Time        uint64 `json:"time"`
}

// wireBookLevel is one price level of an l2Book response.
type wireBookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  uint32 `json:"n"`
}

type wireBook struct {
	Coin   string             `json:"coin"`
	Time   uint64             `json:"time"`
	Levels [2][]wireBookLevel `json:"levels"`
}

// clearinghouseState is the account snapshot for a user.
type clearinghouseState struct {
	AssetPositions []struct {
		Position wirePosition `json:"position"`
	} `json:"assetPositions"`
	MarginSummary struct {
		AccountValue    string `json:"accountValue"`
		TotalMarginUsed string `json:"totalMarginUsed"`
		TotalNtlPos     string `json:"totalNtlPos"`
	} `json:"marginSummary"`
	Withdrawable string `json:"withdrawable"`
}

type wirePosition struct {
	Coin     string `json:"coin"`
	Szi      string `json:"szi"`
	EntryPx  string `json:"entryPx"`
	Leverage struct {
		Type  string `json:"type"`
		Value uint32 `json:"value"`
	} `json:"leverage"`
	LiquidationPx  string `json:"liquidationPx"`
	MarginUsed     string `json:"marginUsed"`
	PositionValue  string `json:"positionValue"`
	UnrealizedPnl  string `json:"unrealizedPnl"`
	ReturnOnEquity string `json:"returnOnEquity"`
}

// wireOrder is one resting order from an openOrders query. Side is "B" for
// bid, "A" for ask.
type wireOrder struct {
	Coin      string `json:"coin"`
	LimitPx   string `json:"limitPx"`
	Oid       uint64 `json:"oid"`
	Side      string `json:"side"`
	Sz        string `json:"sz"`
	OrigSz    string `json:"origSz"`
	Timestamp uint64 `json:"timestamp"`
}

// wireFill is one userFills entry.
type wireFill struct {
	Coin      string `json:"coin"`
	Px        string `json:"px"`
	Sz        string `json:"sz"`
	Side      string `json:"side"`
	Time      uint64 `json:"time"`
	ClosedPnl string `json:"closedPnl"`
	Fee       string `json:"fee"`
	Oid       uint64 `json:"oid"`
	Hash      string `json:"hash"`
	Dir       string `json:"dir"`
}

// spotBalanceEntry is one token balance from spotClearinghouseState.
type spotBalanceEntry struct {
	Coin  string `json:"coin"`
	Total string `json:"total"`
	Hold  string `json:"hold"`
}

// wireSubAccount is one subAccounts entry.
type wireSubAccount struct {
	Name              string `json:"name"`
	SubAccountUser    string `json:"subAccountUser"`
	ClearinghouseState struct {
		MarginSummary struct {
			AccountValue string `json:"accountValue"`
		} `json:"marginSummary"`
	} `json:"clearinghouseState"`
}

// wireVaultEquity is one userVaultEquities entry.
type wireVaultEquity struct {
	VaultAddress string `json:"vaultAddress"`
	Equity       string `json:"equity"`
}

// exchangeResponse is the generic reply of the exchange endpoint. Statuses
// carry per-order outcomes for order actions.
type exchangeResponse struct {
	Status   string `json:"status"`
	Response struct {
		Type string `json:"type"`
		Data struct {
			Statuses []orderStatus `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}

// orderStatus is one per-order outcome. Exactly one field is set.
type orderStatus struct {
	Resting *struct {
		Oid uint64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		Oid     uint64 `json:"oid"`
		TotalSz string `json:"totalSz"`
		AvgPx   string `json:"avgPx"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}
