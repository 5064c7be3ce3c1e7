package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// WriteCSV renders the tabular report encoding: title block, summary block,
// per-position table and a generation timestamp footer.
func WriteCSV(w io.Writer, data models.ReportData) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{fmt.Sprintf("Investment Portfolio Report - %s %s", data.Month, data.Year)},
		{fmt.Sprintf("Generated for: %s", data.Username)},
		{},
		{"Summary"},
		{"Total Investment", data.TotalInvestment.StringFixed(2)},
		{"Current Portfolio Value", data.TotalCurrentValue.StringFixed(2)},
		{"Net Gain/Loss", data.NetGainLoss.StringFixed(2), data.NetGainLossPercent.StringFixed(2) + "%"},
		{"Top Performing Stock", data.TopGainer.Symbol, data.TopGainer.GainLossPercent.StringFixed(2) + "%"},
		{"Worst Performing Stock", data.TopLoser.Symbol, data.TopLoser.GainLossPercent.StringFixed(2) + "%"},
		{},
		{"Portfolio Details"},
		{"Symbol", "Quantity", "Buy Price", "Current Price", "Investment", "Current Value", "Gain/Loss %"},
	}

	for _, item := range data.Positions {
		rows = append(rows, []string{
			item.Symbol,
			item.Quantity.StringFixed(2),
			item.BuyPrice.StringFixed(2),
			item.CurrentPrice.StringFixed(2),
			item.Investment.StringFixed(2),
			item.CurrentValue.StringFixed(2),
			item.GainLossPercent.StringFixed(2),
		})
	}

	rows = append(rows,
		[]string{},
		[]string{fmt.Sprintf("Generated on %s", data.GeneratedAt.Format("2006-01-02 15:04:05"))},
	)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write report csv: %w", err)
	}
	return nil
}
