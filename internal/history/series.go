package history

import "github.com/aajay101/investment-tracker-beta-v1/internal/models"

// FormatSeries projects an ordered snapshot sequence into the three parallel
// arrays the charts consume. The arrays are always equal length, order is
// preserved, and missing fields coerce to "" or 0.0 so the result serializes
// with no null leakage.
func FormatSeries(snapshots []*models.DailySnapshot) models.PerformanceSeries {
	series := models.PerformanceSeries{
		Dates:        make([]string, 0, len(snapshots)),
		Values:       make([]float64, 0, len(snapshots)),
		DailyChanges: make([]float64, 0, len(snapshots)),
	}

	for _, s := range snapshots {
		if s == nil {
			continue
		}

		date := ""
		if !s.Date.IsZero() {
			date = s.Date.Format("2006-01-02")
		}
		series.Dates = append(series.Dates, date)
		series.Values = append(series.Values, s.TotalValue.InexactFloat64())
		series.DailyChanges = append(series.DailyChanges, s.DailyChangePercent.InexactFloat64())
	}

	return series
}
