package domain

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// LegendFor lists the scale's buckets for mode in descending irradiance order.
func (s *ColorScale) LegendFor(mode ContrastMode) []LegendEntry {
	buckets := s.Buckets(mode)
	entries := make([]LegendEntry, len(buckets))
	for i, b := range buckets {
		entries[i] = LegendEntry{Label: b.Label, Color: b.Color}
	}
	return entries
}
