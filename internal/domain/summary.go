package domain

import (
	"fmt"
	"time"
)

// MetricNotAvailable is shown for metrics the feed did not provide.
const MetricNotAvailable = "N/A"

// Metric keys understood by FormatMetric.
const (
	MetricTotalEnergy   = "totalEnergy"
	MetricAvgIrradiance = "avgIrradiance"
)

// FormatMetric renders a headline metric with its unit, or "N/A" when the
// value is missing or the key is unknown.
func FormatMetric(m FeedMetrics, key string) string {
	switch key {
	case MetricTotalEnergy:
		if m.TotalEnergy == nil {
			return MetricNotAvailable
		}
		return fmt.Sprintf("%.2f kWh", *m.TotalEnergy)
	case MetricAvgIrradiance:
		if m.AvgIrradiance == nil {
			return MetricNotAvailable
		}
		return fmt.Sprintf("%.2f W/m²", *m.AvgIrradiance)
	default:
		return MetricNotAvailable
	}
}

// ChartPoint is one (x, y) pair of a chart series.
type ChartPoint struct {
	X time.Time `json:"x"`
	Y float64   `json:"y"`
}

// ChartSeries is one line of the energy chart.
type ChartSeries struct {
	Label string       `json:"label"`
	Color string       `json:"color"`
	Data  []ChartPoint `json:"data"`
}

var seriesColors = map[ContrastMode][2]string{
	ContrastNormal: {"#1e3a8a", "#b91c1c"},
	ContrastHigh:   {"#fff", "#ccc"},
}

// ChartSeriesFor builds the energy and temperature series for mode.
func ChartSeriesFor(samples []ChartSample, mode ContrastMode) []ChartSeries {
	colors, ok := seriesColors[mode]
	if !ok {
		colors = seriesColors[ContrastNormal]
	}

	energy := make([]ChartPoint, len(samples))
	temperature := make([]ChartPoint, len(samples))
	for i, s := range samples {
		energy[i] = ChartPoint{X: s.Timestamp, Y: s.Energy}
		temperature[i] = ChartPoint{X: s.Timestamp, Y: s.Temperature}
	}

	return []ChartSeries{
		{Label: "Energy (kWh)", Color: colors[0], Data: energy},
		{Label: "Temperature (°C)", Color: colors[1], Data: temperature},
	}
}
