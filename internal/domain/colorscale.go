package domain

import (
	"errors"
	"fmt"
	"math"
)

// ContrastMode selects the palette used for map features, legends, and charts.
type ContrastMode string

const (
	ContrastNormal ContrastMode = "normal"
	ContrastHigh   ContrastMode = "high-contrast"
)

// ParseContrastMode accepts "normal" and "high-contrast". Anything else is an error.
func ParseContrastMode(s string) (ContrastMode, error) {
	switch ContrastMode(s) {
	case ContrastNormal, ContrastHigh:
		return ContrastMode(s), nil
	default:
		return "", fmt.Errorf("unknown contrast mode %q", s)
	}
}

// ErrInvalidBuckets is returned when a bucket table is not strictly descending
// or does not end in a -Inf floor.
var ErrInvalidBuckets = errors.New("invalid color bucket table")

// ColorBucket is one band of the irradiance color scale. A value belongs to the
// bucket when it is strictly greater than LowerBound.
type ColorBucket struct {
	LowerBound float64 `json:"lower_bound"`
	Color      string  `json:"color"`
	Label      string  `json:"label"`
}

// BucketColor is the result of classifying a value.
type BucketColor struct {
	Color       string `json:"color"`
	BucketLabel string `json:"bucket_label"`
}

// ColorScale holds one bucket table per contrast mode.
type ColorScale struct {
	tables map[ContrastMode][]ColorBucket
}

var (
	normalBuckets = []ColorBucket{
		{LowerBound: 6, Color: "#d55e00", Label: ">6"},
		{LowerBound: 5, Color: "#e69f00", Label: "5–6"},
		{LowerBound: 4, Color: "#f0e442", Label: "4–5"},
		{LowerBound: 3, Color: "#56b4e9", Label: "3–4"},
		{LowerBound: math.Inf(-1), Color: "#0072b2", Label: "≤3"},
	}

	highContrastBuckets = []ColorBucket{
		{LowerBound: 6, Color: "#ffffff", Label: ">6"},
		{LowerBound: 5, Color: "#cccccc", Label: "5–6"},
		{LowerBound: 4, Color: "#999999", Label: "4–5"},
		{LowerBound: 3, Color: "#666666", Label: "3–4"},
		{LowerBound: math.Inf(-1), Color: "#333333", Label: "≤3"},
	}

	defaultScale = MustColorScale(normalBuckets, highContrastBuckets)
)

// DefaultColorScale returns the built-in five-bucket scale.
func DefaultColorScale() *ColorScale {
	return defaultScale
}

// NewColorScale validates and copies the two bucket tables.
func NewColorScale(normal, highContrast []ColorBucket) (*ColorScale, error) {
	if err := validateBuckets(normal); err != nil {
		return nil, fmt.Errorf("normal table: %w", err)
	}
	if err := validateBuckets(highContrast); err != nil {
		return nil, fmt.Errorf("high-contrast table: %w", err)
	}
	return &ColorScale{tables: map[ContrastMode][]ColorBucket{
		ContrastNormal: append([]ColorBucket(nil), normal...),
		ContrastHigh:   append([]ColorBucket(nil), highContrast...),
	}}, nil
}

// MustColorScale is like NewColorScale but panics on an invalid table.
func MustColorScale(normal, highContrast []ColorBucket) *ColorScale {
	s, err := NewColorScale(normal, highContrast)
	if err != nil {
		panic(err)
	}
	return s
}

func validateBuckets(buckets []ColorBucket) error {
	if len(buckets) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidBuckets)
	}
	for i := 1; i < len(buckets); i++ {
		if !(buckets[i].LowerBound < buckets[i-1].LowerBound) {
			return fmt.Errorf("%w: bucket %d lower bound %v is not below %v",
				ErrInvalidBuckets, i, buckets[i].LowerBound, buckets[i-1].LowerBound)
		}
	}
	if !math.IsInf(buckets[len(buckets)-1].LowerBound, -1) {
		return fmt.Errorf("%w: last bucket must have a -Inf lower bound", ErrInvalidBuckets)
	}
	return nil
}

// Buckets returns the bucket table for mode in descending order. Unknown modes
// fall back to the normal table.
func (s *ColorScale) Buckets(mode ContrastMode) []ColorBucket {
	table, ok := s.tables[mode]
	if !ok {
		table = s.tables[ContrastNormal]
	}
	return append([]ColorBucket(nil), table...)
}

// ColorFor classifies a finite irradiance value. The first bucket, scanning from
// the highest lower bound, whose lower bound is strictly below value wins; the
// floor bucket catches everything else.
func (s *ColorScale) ColorFor(value float64, mode ContrastMode) BucketColor {
	table, ok := s.tables[mode]
	if !ok {
		table = s.tables[ContrastNormal]
	}
	for _, b := range table {
		if value > b.LowerBound {
			return BucketColor{Color: b.Color, BucketLabel: b.Label}
		}
	}
	floor := table[len(table)-1]
	return BucketColor{Color: floor.Color, BucketLabel: floor.Label}
}

// SafeIrradiance substitutes 0 for NaN and infinite values so callers can hand
// the result to ColorFor.
func SafeIrradiance(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
