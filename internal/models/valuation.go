package models

import "github.com/shopspring/decimal"

// ValuationRecord is a position priced at the current market quote. It is
// derived on every request and never persisted.
type ValuationRecord struct {
	PositionID      int             `json:"id"`
	Symbol          string          `json:"symbol"`
	Quantity        decimal.Decimal `json:"quantity"`
	BuyPrice        decimal.Decimal `json:"buy_price"`
	Exchange        string          `json:"exchange"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Investment      decimal.Decimal `json:"investment"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
}

// Performer identifies the best or worst position in a portfolio by
// gain/loss percentage.
type Performer struct {
	Symbol          string          `json:"symbol"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
}

// AggregateReport is the rolled-up view of one user's priced positions.
// TopGainer and TopLoser are nil when the portfolio has no priced positions.
type AggregateReport struct {
	TotalInvestment    decimal.Decimal   `json:"total_investment"`
	TotalCurrentValue  decimal.Decimal   `json:"total_current_value"`
	NetGainLoss        decimal.Decimal   `json:"net_gain_loss"`
	NetGainLossPercent decimal.Decimal   `json:"net_gain_loss_percent"`
	TopGainer          *Performer        `json:"top_gainer,omitempty"`
	TopLoser           *Performer        `json:"top_loser,omitempty"`
	Items              []ValuationRecord `json:"items"`
	UnpricedSymbols    []string          `json:"unpriced_symbols,omitempty"`
}
