package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot is one persisted total-portfolio-value record per user per
// calendar day. Rows are append-only: once written for a date they are never
// mutated, and the (user_id, snapshot_date) pair is unique.
type DailySnapshot struct {
	ID                 int             `json:"id"`
	UserID             int             `json:"user_id"`
	Date               time.Time       `json:"date"`
	TotalValue         decimal.Decimal `json:"total_value"`
	DailyChange        decimal.Decimal `json:"daily_change"`
	DailyChangePercent decimal.Decimal `json:"daily_change_percent"`
	CreatedAt          time.Time       `json:"created_at"`
}

// PerformanceSeries is the chart-ready projection of a snapshot sequence:
// three parallel arrays of equal length with no null values, safe for direct
// JSON serialization.
type PerformanceSeries struct {
	Dates        []string  `json:"dates"`
	Values       []float64 `json:"values"`
	DailyChanges []float64 `json:"daily_changes"`
}
