package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// Aggregate rolls up a user's positions into an AggregateReport in a single
// pass. Positions whose quote is unpriced are excluded from the totals and
// from the top gainer/loser search, and reported in UnpricedSymbols so the
// caller can warn the user.
//
// Top gainer/loser comparisons are strict, so of two positions with equal
// gain/loss percent the first encountered in input order wins. Both are nil
// when no position could be priced.
func Aggregate(positions []*models.Position, quotes map[string]models.Quote) models.AggregateReport {
	report := models.AggregateReport{
		TotalInvestment:   decimal.Zero,
		TotalCurrentValue: decimal.Zero,
		Items:             []models.ValuationRecord{},
	}

	for _, p := range positions {
		rec, ok := Value(p, quotes[p.Symbol])
		if !ok {
			report.UnpricedSymbols = append(report.UnpricedSymbols, p.Symbol)
			continue
		}

		report.Items = append(report.Items, rec)
		report.TotalInvestment = report.TotalInvestment.Add(rec.Investment)
		report.TotalCurrentValue = report.TotalCurrentValue.Add(rec.CurrentValue)

		if report.TopGainer == nil || rec.GainLossPercent.GreaterThan(report.TopGainer.GainLossPercent) {
			report.TopGainer = &models.Performer{Symbol: rec.Symbol, GainLossPercent: rec.GainLossPercent}
		}
		if report.TopLoser == nil || rec.GainLossPercent.LessThan(report.TopLoser.GainLossPercent) {
			report.TopLoser = &models.Performer{Symbol: rec.Symbol, GainLossPercent: rec.GainLossPercent}
		}
	}

	report.NetGainLoss = report.TotalCurrentValue.Sub(report.TotalInvestment)
	report.NetGainLossPercent = decimal.Zero
	if report.TotalInvestment.IsPositive() {
		report.NetGainLossPercent = report.NetGainLoss.Div(report.TotalInvestment).Mul(hundred)
	}

	return report
}
