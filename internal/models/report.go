package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportPerformer is the report-facing top gainer/loser entry. Unlike
// AggregateReport, report consumers cannot handle missing keys, so an empty
// portfolio yields an "N/A" sentinel with NoData set instead of an omitted
// field.
type ReportPerformer struct {
	Symbol          string          `json:"symbol"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
	NoData          bool            `json:"no_data,omitempty"`
}

// ReportData is the single structure handed to document generators. It
// combines the aggregate valuation with report metadata (owner display name,
// report month/year, generation time).
type ReportData struct {
	Username           string            `json:"username"`
	Month              string            `json:"month"`
	Year               string            `json:"year"`
	TotalInvestment    decimal.Decimal   `json:"total_investment"`
	TotalCurrentValue  decimal.Decimal   `json:"total_current_value"`
	NetGainLoss        decimal.Decimal   `json:"net_gain_loss"`
	NetGainLossPercent decimal.Decimal   `json:"net_gain_loss_percent"`
	TopGainer          ReportPerformer   `json:"top_gainer"`
	TopLoser           ReportPerformer   `json:"top_loser"`
	Positions          []ValuationRecord `json:"positions"`
	GeneratedAt        time.Time         `json:"generated_at"`
}
