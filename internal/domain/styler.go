package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderStyle is the paint applied to one county polygon.
type RenderStyle struct {
	FillColor    string  `json:"fill_color"`
	StrokeColor  string  `json:"stroke_color"`
	StrokeWeight int     `json:"stroke_weight"`
	FillOpacity  float64 `json:"fill_opacity"`
}

// FeatureStyle pairs a county with its computed style.
type FeatureStyle struct {
	FIPS  string      `json:"fips"`
	Style RenderStyle `json:"style"`
}

const (
	fillOpacity          = 0.7
	strokeWeightDefault  = 1
	strokeWeightSelected = 3
)

type strokePalette struct {
	base      string
	highlight string
}

var strokes = map[ContrastMode]strokePalette{
	ContrastNormal: {base: "gray", highlight: "#333"},
	ContrastHigh:   {base: "white", highlight: "#fff"},
}

// SeasonMultiplier scales annual irradiance into a monthly estimate.
type SeasonMultiplier struct {
	Month  string  `json:"month"`
	Factor float64 `json:"factor"`
}

// SeasonalProfile is the ordered list of months reported in county details.
type SeasonalProfile []SeasonMultiplier

var seasonalMonths = []string{"Jan", "Apr", "Jul", "Oct"}

// DefaultSeasonalProfile is a fixed seasonal approximation, not a solar model.
func DefaultSeasonalProfile() SeasonalProfile {
	return SeasonalProfile{
		{Month: "Jan", Factor: 0.6},
		{Month: "Apr", Factor: 0.9},
		{Month: "Jul", Factor: 1.3},
		{Month: "Oct", Factor: 0.85},
	}
}

// ParseSeasonalProfile reads four comma-separated factors for Jan, Apr, Jul, Oct.
func ParseSeasonalProfile(s string) (SeasonalProfile, error) {
	parts := strings.Split(s, ",")
	if len(parts) != len(seasonalMonths) {
		return nil, fmt.Errorf("expected %d seasonal multipliers, got %d", len(seasonalMonths), len(parts))
	}
	profile := make(SeasonalProfile, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid seasonal multiplier %q for %s", p, seasonalMonths[i])
		}
		profile[i] = SeasonMultiplier{Month: seasonalMonths[i], Factor: f}
	}
	return profile, nil
}

// MonthlyEstimate is an estimated irradiance for one month in kWh/m².
type MonthlyEstimate struct {
	Month      string  `json:"month"`
	Irradiance float64 `json:"irradiance"`
}

// CountyDetails is the detail panel payload for a selected county.
type CountyDetails struct {
	FIPS       string            `json:"fips"`
	Name       string            `json:"name"`
	State      string            `json:"state"`
	Irradiance float64           `json:"irradiance"`
	Monthly    []MonthlyEstimate `json:"monthly"`
}

// FeatureStyler computes county paint and the text announced for hover and
// selection.
type FeatureStyler struct {
	scale    *ColorScale
	seasonal SeasonalProfile
}

// NewFeatureStyler creates a styler. A nil scale uses DefaultColorScale and an
// empty profile uses DefaultSeasonalProfile.
func NewFeatureStyler(scale *ColorScale, seasonal SeasonalProfile) *FeatureStyler {
	if scale == nil {
		scale = DefaultColorScale()
	}
	if len(seasonal) == 0 {
		seasonal = DefaultSeasonalProfile()
	}
	return &FeatureStyler{scale: scale, seasonal: seasonal}
}

// Scale returns the color scale the styler classifies with.
func (fs *FeatureStyler) Scale() *ColorScale {
	return fs.scale
}

// StyleFor computes the style of feature under the given interaction state.
func (fs *FeatureStyler) StyleFor(feature CountyFeature, state InteractionState, mode ContrastMode) RenderStyle {
	palette, ok := strokes[mode]
	if !ok {
		palette = strokes[ContrastNormal]
	}

	style := RenderStyle{
		FillColor:    fs.scale.ColorFor(SafeIrradiance(feature.Irradiance), mode).Color,
		StrokeColor:  palette.base,
		StrokeWeight: strokeWeightDefault,
		FillOpacity:  fillOpacity,
	}
	if state.IsSelected(feature.FIPS) {
		style.StrokeWeight = strokeWeightSelected
	}
	if state.IsHovered(feature.FIPS) {
		style.StrokeColor = palette.highlight
	}
	return style
}

// RestyleOnExit reports whether leaving feature should repaint it. The
// selected county keeps its emphasis and is not repainted.
func (fs *FeatureStyler) RestyleOnExit(feature CountyFeature, state InteractionState) bool {
	return !state.IsSelected(feature.FIPS)
}

// Details builds the detail payload with monthly estimates.
func (fs *FeatureStyler) Details(feature CountyFeature) CountyDetails {
	irr := SafeIrradiance(feature.Irradiance)
	monthly := make([]MonthlyEstimate, len(fs.seasonal))
	for i, m := range fs.seasonal {
		monthly[i] = MonthlyEstimate{Month: m.Month, Irradiance: irr * m.Factor}
	}
	return CountyDetails{
		FIPS:       feature.FIPS,
		Name:       feature.Name,
		State:      feature.State,
		Irradiance: irr,
		Monthly:    monthly,
	}
}

// HoverAnnouncement is the screen-reader text for entering a county,
// e.g. "Albany, NY: 4.2 kilowatt-hours per square meter".
func HoverAnnouncement(feature CountyFeature) string {
	return fmt.Sprintf("%s, %s: %s kilowatt-hours per square meter",
		feature.Name, feature.State, formatNumber(SafeIrradiance(feature.Irradiance)))
}

// SelectionAnnouncement is the screen-reader text for selecting a county.
func SelectionAnnouncement(feature CountyFeature) string {
	return "Selected " + HoverAnnouncement(feature)
}

// CloseAnnouncement is the screen-reader text for closing the detail panel.
func CloseAnnouncement(feature CountyFeature) string {
	return fmt.Sprintf("Closed details for %s, %s", feature.Name, feature.State)
}
