package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/solar-map-service/internal/domain"
)

func openTestStore(t *testing.T) *CountyStore {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCountyStore_SeedAndLookup(t *testing.T) {
	s := openTestStore(t)

	n, err := s.Seed(context.Background(), strings.NewReader(
		"fips,name,state,irradiance\n"+
			"36001,Albany,NY,4.2\n"+
			"13121,Fulton,GA,5.4\n"+
			",Nowhere,ZZ,1\n"+
			"53033,King,WA,\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, ok := s.Irradiance("36001")
	assert.True(t, ok)
	assert.Equal(t, 4.2, v)

	v, ok = s.Irradiance("53033")
	assert.True(t, ok)
	assert.Zero(t, v)

	_, ok = s.Irradiance("99999")
	assert.False(t, ok)

	want := []domain.County{
		{FIPS: "13121", Name: "Fulton", State: "GA", Irradiance: 5.4},
		{FIPS: "36001", Name: "Albany", State: "NY", Irradiance: 4.2},
		{FIPS: "53033", Name: "King", State: "WA"},
	}
	if diff := cmp.Diff(want, s.Counties()); diff != "" {
		t.Errorf("Counties() mismatch (-want +got):\n%s", diff)
	}
}

func TestCountyStore_UpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.County{{FIPS: "36001", Name: "Albany", State: "NY", Irradiance: 4.2}}))
	require.NoError(t, s.Upsert(ctx, []domain.County{{FIPS: "36001", Name: "Albany", State: "NY", Irradiance: 4.6}}))

	v, ok := s.Irradiance("36001")
	assert.True(t, ok)
	assert.Equal(t, 4.6, v)
	assert.Len(t, s.Counties(), 1)
}

func TestCountyStore_SeedFile(t *testing.T) {
	s := openTestStore(t)

	n, err := s.SeedFile(context.Background(), filepath.Join("..", "..", "..", "data", "counties.csv"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	v, ok := s.Irradiance("13121")
	assert.True(t, ok)
	assert.Equal(t, 5.4, v)
}

func TestCountyStore_SeedErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Seed(ctx, strings.NewReader(""))
	require.Error(t, err)

	_, err = s.Seed(ctx, strings.NewReader("name,state\nAlbany,NY\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fips")

	_, err = s.Seed(ctx, strings.NewReader("fips,irradiance\n36001,sunny\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "36001")

	_, err = s.SeedFile(ctx, "does-not-exist.csv")
	require.Error(t, err)
}

func TestCountyStore_FeedsSnapshot(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Upsert(context.Background(), []domain.County{
		{FIPS: "36001", Name: "Albany", State: "NY", Irradiance: 4.2},
	}))

	features := domain.BuildFeatures([]domain.RawCounty{{FIPS: "36001", Name: "Albany", State: "NY"}}, s)

	require.Len(t, features, 1)
	assert.Equal(t, 4.2, features[0].Irradiance)
}
