package models

import "github.com/shopspring/decimal"

// Quote is the result of a current-price lookup. Priced is false when no
// price could be obtained after exchange fallback, whether because the symbol
// is unknown or because the provider failed; callers must skip unpriced
// symbols rather than treat them as zero.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Priced bool            `json:"priced"`
}

// PriceBar is a single OHLCV session from the market-data provider
type PriceBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}
