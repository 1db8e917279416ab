package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RawFeed is the JSON document published by the collector on every refresh.
type RawFeed struct {
	MapData   []IrradiancePoint `json:"mapData"`
	Metrics   FeedMetrics       `json:"metrics"`
	ChartData []ChartSample     `json:"chartData"`
	Counties  []RawCounty       `json:"counties,omitempty"`
}

// RawCounty is an optional county entry in the feed. A nil Irradiance falls
// back to the lookup table.
type RawCounty struct {
	FIPS       string   `json:"fips" validate:"required"`
	Name       string   `json:"name"`
	State      string   `json:"state"`
	Irradiance *float64 `json:"irradiance,omitempty"`
}

// County is a row of the static county lookup table.
type County struct {
	FIPS       string
	Name       string
	State      string
	Irradiance float64
}

// CountyLookup is the static county table keyed by FIPS.
type CountyLookup interface {
	// Irradiance returns the stored kWh/m² for fips and whether it exists.
	Irradiance(fips string) (float64, bool)
	// Counties lists every county in the table.
	Counties() []County
}

// ParsedFeed is a validated feed plus the count of entries that were dropped.
type ParsedFeed struct {
	ID      string
	Feed    RawFeed
	Dropped int
}

// ParseRawEvent decodes a refresh message. Malformed JSON is an error; points
// and counties that fail validation are dropped and counted.
func ParseRawEvent(raw RawEvent) (ParsedFeed, error) {
	var feed RawFeed
	if err := json.Unmarshal(raw.Value, &feed); err != nil {
		return ParsedFeed{}, fmt.Errorf("parse refresh feed: %w", err)
	}

	dropped := 0
	points := make([]IrradiancePoint, 0, len(feed.MapData))
	for _, p := range feed.MapData {
		if err := validate.Struct(p); err != nil || !ValidCoordinate(p.Lat, p.Lng) {
			dropped++
			continue
		}
		p.Irradiance = SafeIrradiance(p.Irradiance)
		points = append(points, p)
	}
	feed.MapData = points

	counties := make([]RawCounty, 0, len(feed.Counties))
	for _, c := range feed.Counties {
		if err := validate.Struct(c); err != nil {
			dropped++
			continue
		}
		counties = append(counties, c)
	}
	feed.Counties = counties

	return ParsedFeed{ID: generateID(raw.Value), Feed: feed, Dropped: dropped}, nil
}

// generateID derives a deterministic snapshot ID from the raw payload so that
// replaying a message produces the same ID.
func generateID(payload []byte) string {
	hash := sha256.Sum256(payload)
	return "refresh-" + hex.EncodeToString(hash[:8])
}

// BuildFeatures assembles the county feature set. Feed counties define the set
// when present; otherwise every county in the lookup table is used. Missing
// irradiance defaults to 0.
func BuildFeatures(counties []RawCounty, lookup CountyLookup) []CountyFeature {
	if len(counties) == 0 {
		if lookup == nil {
			return []CountyFeature{}
		}
		rows := lookup.Counties()
		features := make([]CountyFeature, len(rows))
		for i, c := range rows {
			features[i] = CountyFeature{FIPS: c.FIPS, Name: c.Name, State: c.State, Irradiance: SafeIrradiance(c.Irradiance)}
		}
		return features
	}

	features := make([]CountyFeature, len(counties))
	for i, c := range counties {
		features[i] = CountyFeature{FIPS: c.FIPS, Name: c.Name, State: c.State, Irradiance: countyIrradiance(c, lookup)}
	}
	return features
}

func countyIrradiance(c RawCounty, lookup CountyLookup) float64 {
	if c.Irradiance != nil {
		return SafeIrradiance(*c.Irradiance)
	}
	if lookup != nil {
		if v, ok := lookup.Irradiance(c.FIPS); ok {
			return SafeIrradiance(v)
		}
	}
	return 0
}

// LayerOptions configures snapshot construction.
type LayerOptions struct {
	Heat    HeatConfig
	Cluster ClusterConfig
	Scale   *ColorScale
}

// BuildSnapshot turns a parsed feed into the snapshot that replaces the
// current map data.
func BuildSnapshot(parsed ParsedFeed, lookup CountyLookup, opts LayerOptions) Snapshot {
	scale := opts.Scale
	if scale == nil {
		scale = DefaultColorScale()
	}

	layers := Aggregate(parsed.Feed.MapData, opts.Heat, opts.Cluster)
	layers.Legends = map[ContrastMode][]LegendEntry{
		ContrastNormal: scale.LegendFor(ContrastNormal),
		ContrastHigh:   scale.LegendFor(ContrastHigh),
	}

	chart := parsed.Feed.ChartData
	if chart == nil {
		chart = []ChartSample{}
	}

	return Snapshot{
		ID:         parsed.ID,
		ReceivedAt: clock.Now(),
		Points:     parsed.Feed.MapData,
		Features:   BuildFeatures(parsed.Feed.Counties, lookup),
		Metrics:    parsed.Feed.Metrics,
		Chart:      chart,
		Layers:     layers,
	}
}
