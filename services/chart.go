package services

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
)

const (
	chartTitle = "Activity Levels Distribution"
	chartSize  = 600
)

var ErrNoChartData = errors.New("no activity data available for plotting")

// Slice is one labeled pie segment.
type Slice struct {
	Label string
	Count int64
}

// RenderActivityPie draws a PNG pie chart of counts. Zero-count slices are
// left out; an all-zero input returns ErrNoChartData.
func RenderActivityPie(slices []Slice) ([]byte, error) {
	var total int64
	for _, s := range slices {
		total += s.Count
	}
	if total == 0 {
		return nil, ErrNoChartData
	}

	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Count == 0 {
			continue
		}
		pct := float64(s.Count) / float64(total) * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, pct),
			Value: float64(s.Count),
		})
	}

	pie := chart.PieChart{
		Title:  chartTitle,
		Width:  chartSize,
		Height: chartSize,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
