package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMetric(t *testing.T) {
	total := 5.1234
	m := FeedMetrics{TotalEnergy: &total}

	assert.Equal(t, "5.12 kWh", FormatMetric(m, MetricTotalEnergy))
	assert.Equal(t, "N/A", FormatMetric(m, MetricAvgIrradiance))
	assert.Equal(t, "N/A", FormatMetric(m, "peakPower"))
}

func TestChartSeriesFor(t *testing.T) {
	ts := time.Date(2025, 4, 14, 12, 0, 0, 0, time.UTC)
	samples := []ChartSample{{Timestamp: ts, Energy: 5.1, Temperature: 21.3}}

	normal := ChartSeriesFor(samples, ContrastNormal)
	require.Len(t, normal, 2)
	assert.Equal(t, "Energy (kWh)", normal[0].Label)
	assert.Equal(t, "#1e3a8a", normal[0].Color)
	assert.Equal(t, ChartPoint{X: ts, Y: 21.3}, normal[1].Data[0])

	high := ChartSeriesFor(samples, ContrastHigh)
	assert.Equal(t, "#fff", high[0].Color)
	assert.Equal(t, "#ccc", high[1].Color)

	assert.Empty(t, ChartSeriesFor(nil, ContrastNormal)[0].Data)
}
