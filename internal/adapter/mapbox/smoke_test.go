//go:build mapbox

package mapbox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/solar-map-service/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, discardLogger(), observability.NewMetricsForTesting())
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ReverseGeocode(context.Background(), 33.749, -84.388)
	require.NoError(t, err)

	assert.Contains(t, result.FormattedAddress, "Atlanta")
	assert.NotEmpty(t, result.PlaceName)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	r1, err := cached.ReverseGeocode(context.Background(), 42.6526, -73.7562)
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Albany")

	r2, err := cached.ReverseGeocode(context.Background(), 42.6526, -73.7562)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
