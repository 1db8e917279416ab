package domain

import (
	"context"
	"log/slog"
)

// LabelPoints attaches a place name to each point. A nil geocoder returns the
// points unchanged; a failed lookup leaves that point's label empty and the
// rest of the batch continues.
func LabelPoints(ctx context.Context, points []IrradiancePoint, geocoder Geocoder, logger *slog.Logger) []IrradiancePoint {
	if geocoder == nil || len(points) == 0 {
		return points
	}

	labeled := make([]IrradiancePoint, len(points))
	for i, p := range points {
		labeled[i] = p
		if ctx.Err() != nil {
			continue
		}
		result, err := geocoder.ReverseGeocode(ctx, p.Lat, p.Lng)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"point_id", p.ID,
				"lat", p.Lat,
				"lng", p.Lng,
				"error", err,
			)
			continue
		}
		if result.PlaceName != "" {
			labeled[i].Label = result.PlaceName
		} else {
			labeled[i].Label = result.FormattedAddress
		}
	}
	return labeled
}
