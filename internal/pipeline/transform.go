package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/solar-map-service/internal/domain"
)

// SolarTransformer parses a refresh feed, labels its points, and derives the
// county features and point layers.
type SolarTransformer struct {
	lookup   domain.CountyLookup
	geocoder domain.Geocoder
	opts     domain.LayerOptions
	logger   *slog.Logger
}

// NewTransformer creates a SolarTransformer. A nil geocoder leaves points
// unlabelled; a nil lookup leaves unknown counties at zero irradiance.
func NewTransformer(lookup domain.CountyLookup, geocoder domain.Geocoder, opts domain.LayerOptions, logger *slog.Logger) *SolarTransformer {
	return &SolarTransformer{
		lookup:   lookup,
		geocoder: geocoder,
		opts:     opts,
		logger:   logger,
	}
}

// Transform implements Transformer.
func (t *SolarTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Snapshot, error) {
	parsed, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if parsed.Dropped > 0 {
		t.logger.Warn("dropped invalid feed entries",
			"snapshot_id", parsed.ID,
			"dropped", parsed.Dropped,
			"offset", raw.Offset,
		)
	}

	parsed.Feed.MapData = domain.LabelPoints(ctx, parsed.Feed.MapData, t.geocoder, t.logger)

	return domain.BuildSnapshot(parsed, t.lookup, t.opts), nil
}
