package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// IrradiancePoint is a single irradiance sample in W/m². Points are treated as
// read-only once received.
type IrradiancePoint struct {
	ID         int     `json:"id" validate:"gte=0"`
	Lat        float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64 `json:"lng" validate:"gte=-180,lte=180"`
	Irradiance float64 `json:"irradiance"`

	// Label is an optional human-readable place name attached by geocoding.
	Label string `json:"label,omitempty"`
}

// CountyFeature is one county on the choropleth. FIPS is the unique join key
// between boundary geometry and irradiance data; Irradiance is in kWh/m².
type CountyFeature struct {
	FIPS       string  `json:"fips"`
	Name       string  `json:"name"`
	State      string  `json:"state"`
	Irradiance float64 `json:"irradiance"`
}

// FeedMetrics holds the headline numbers shown in the metrics panel. Missing
// values stay nil and render as "N/A".
type FeedMetrics struct {
	TotalEnergy   *float64 `json:"totalEnergy,omitempty"`
	AvgIrradiance *float64 `json:"avgIrradiance,omitempty"`
}

// ChartSample is one time-series observation for the energy chart.
type ChartSample struct {
	Timestamp   time.Time `json:"timestamp"`
	Energy      float64   `json:"energy"`
	Temperature float64   `json:"temperature"`
}

// Snapshot is a fully transformed refresh: the point and county sets that
// replace the previous ones, plus the render instructions derived from them.
type Snapshot struct {
	ID         string            `json:"id"`
	ReceivedAt time.Time         `json:"received_at"`
	Points     []IrradiancePoint `json:"points"`
	Features   []CountyFeature   `json:"features"`
	Metrics    FeedMetrics       `json:"metrics"`
	Chart      []ChartSample     `json:"chart"`
	Layers     Layers            `json:"layers"`
}

// FeatureSet indexes the current county features by FIPS.
type FeatureSet map[string]CountyFeature

// NewFeatureSet indexes features by FIPS. Later duplicates replace earlier ones.
func NewFeatureSet(features []CountyFeature) FeatureSet {
	set := make(FeatureSet, len(features))
	for _, f := range features {
		set[f.FIPS] = f
	}
	return set
}

// Has reports whether a feature with the given FIPS exists.
func (s FeatureSet) Has(fips string) bool {
	_, ok := s[fips]
	return ok
}
