package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// RenderPerformanceChart renders a PNG line chart of daily portfolio value
// from a performance series. Returns raw PNG bytes.
func RenderPerformanceChart(series models.PerformanceSeries) ([]byte, error) {
	if len(series.Dates) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(series.Dates))
	}

	xValues := make([]time.Time, 0, len(series.Dates))
	yValues := make([]float64, 0, len(series.Values))
	for i, d := range series.Dates {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		xValues = append(xValues, parsed)
		yValues = append(yValues, series.Values[i])
	}
	if len(xValues) < 2 {
		return nil, fmt.Errorf("need at least 2 dated points, got %d", len(xValues))
	}

	valueSeries := chart.TimeSeries{
		Name: "Portfolio Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Portfolio Performance",
		Width:  900,
		Height: 450,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{valueSeries},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
