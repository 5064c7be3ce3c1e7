// Package report shapes computed portfolio data for document generators and
// provides the tabular and chart encodings of it.
package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// noDataSymbol is what document consumers see for top gainer/loser when the
// portfolio has no priced positions. Consumers are not built for missing
// keys, so the fields are always populated.
const noDataSymbol = "N/A"

// Assemble combines an aggregate valuation with report metadata into the
// single structure handed to document generators.
func Assemble(user *models.User, aggregate models.AggregateReport, now time.Time) models.ReportData {
	data := models.ReportData{
		Month:              now.Month().String(),
		Year:               strconv.Itoa(now.Year()),
		TotalInvestment:    aggregate.TotalInvestment,
		TotalCurrentValue:  aggregate.TotalCurrentValue,
		NetGainLoss:        aggregate.NetGainLoss,
		NetGainLossPercent: aggregate.NetGainLossPercent,
		Positions:          aggregate.Items,
		GeneratedAt:        now,
	}
	if user != nil {
		data.Username = user.Username
	}

	data.TopGainer = toReportPerformer(aggregate.TopGainer)
	data.TopLoser = toReportPerformer(aggregate.TopLoser)

	return data
}

func toReportPerformer(p *models.Performer) models.ReportPerformer {
	if p == nil {
		return models.ReportPerformer{
			Symbol:          noDataSymbol,
			GainLossPercent: decimal.Zero,
			NoData:          true,
		}
	}
	return models.ReportPerformer{
		Symbol:          p.Symbol,
		GainLossPercent: p.GainLossPercent,
	}
}
