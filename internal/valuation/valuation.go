// Package valuation turns positions and current-price quotes into gain/loss
// figures and portfolio-level aggregates. Everything here is pure
// computation: no I/O, no errors escape, division is always guarded.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Value prices a single position at the given quote. The second return is
// false when the quote is unpriced; the caller must then exclude the
// position entirely rather than treat it as zero value, otherwise aggregate
// investment totals would be corrupted.
//
// GainLossPercent is 0 whenever investment is 0, never NaN or infinite.
func Value(p *models.Position, q models.Quote) (models.ValuationRecord, bool) {
	if !q.Priced {
		return models.ValuationRecord{}, false
	}

	investment := p.Quantity.Mul(p.BuyPrice)
	currentValue := p.Quantity.Mul(q.Price)
	gainLoss := currentValue.Sub(investment)

	gainLossPercent := decimal.Zero
	if investment.IsPositive() {
		gainLossPercent = gainLoss.Div(investment).Mul(hundred)
	}

	return models.ValuationRecord{
		PositionID:      p.ID,
		Symbol:          p.Symbol,
		Quantity:        p.Quantity,
		BuyPrice:        p.BuyPrice,
		Exchange:        p.Exchange,
		CurrentPrice:    q.Price,
		Investment:      investment,
		CurrentValue:    currentValue,
		GainLoss:        gainLoss,
		GainLossPercent: gainLossPercent,
	}, true
}
