package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleFor_SelectionScenario(t *testing.T) {
	styler := NewFeatureStyler(nil, nil)
	a := CountyFeature{FIPS: "A", Name: "Alpha", State: "AZ", Irradiance: 6.5}
	b := CountyFeature{FIPS: "B", Name: "Beta", State: "ME", Irradiance: 2.0}
	features := NewFeatureSet([]CountyFeature{a, b})

	assert.Equal(t, "#d55e00", styler.StyleFor(a, InteractionState{}, ContrastNormal).FillColor)
	assert.Equal(t, "#0072b2", styler.StyleFor(b, InteractionState{}, ContrastNormal).FillColor)

	var state InteractionState
	require.NoError(t, state.Select("B", features))

	assert.Equal(t, 3, styler.StyleFor(b, state, ContrastNormal).StrokeWeight)
	assert.Equal(t, 1, styler.StyleFor(a, state, ContrastNormal).StrokeWeight)
}

func TestStyleFor_StrokeColors(t *testing.T) {
	styler := NewFeatureStyler(nil, nil)
	f := CountyFeature{FIPS: testFIPSAlbany, Irradiance: 4.2}
	hovered := InteractionState{HoveredKey: testFIPSAlbany}

	tests := []struct {
		name  string
		state InteractionState
		mode  ContrastMode
		want  RenderStyle
	}{
		{"normal idle", InteractionState{}, ContrastNormal,
			RenderStyle{FillColor: "#f0e442", StrokeColor: "gray", StrokeWeight: 1, FillOpacity: 0.7}},
		{"normal hovered", hovered, ContrastNormal,
			RenderStyle{FillColor: "#f0e442", StrokeColor: "#333", StrokeWeight: 1, FillOpacity: 0.7}},
		{"high contrast idle", InteractionState{}, ContrastHigh,
			RenderStyle{FillColor: "#999999", StrokeColor: "white", StrokeWeight: 1, FillOpacity: 0.7}},
		{"high contrast hovered and selected", InteractionState{HoveredKey: testFIPSAlbany, SelectedKey: testFIPSAlbany}, ContrastHigh,
			RenderStyle{FillColor: "#999999", StrokeColor: "#fff", StrokeWeight: 3, FillOpacity: 0.7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := styler.StyleFor(f, tt.state, tt.mode)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("style mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStyleFor_NonFiniteIrradianceUsesFloorBucket(t *testing.T) {
	styler := NewFeatureStyler(nil, nil)
	style := styler.StyleFor(CountyFeature{FIPS: "x", Irradiance: math.NaN()}, InteractionState{}, ContrastNormal)
	assert.Equal(t, "#0072b2", style.FillColor)
}

func TestRestyleOnExit(t *testing.T) {
	styler := NewFeatureStyler(nil, nil)
	f := CountyFeature{FIPS: testFIPSAlbany}

	assert.True(t, styler.RestyleOnExit(f, InteractionState{}))
	assert.False(t, styler.RestyleOnExit(f, InteractionState{SelectedKey: testFIPSAlbany}))
}

func TestDetails_MonthlyEstimates(t *testing.T) {
	styler := NewFeatureStyler(nil, nil)
	d := styler.Details(CountyFeature{FIPS: testFIPSAlbany, Name: "Albany", State: "NY", Irradiance: 4})

	assert.Equal(t, testFIPSAlbany, d.FIPS)
	assert.Equal(t, "Albany", d.Name)
	require.Len(t, d.Monthly, 4)

	want := map[string]float64{"Jan": 2.4, "Apr": 3.6, "Jul": 5.2, "Oct": 3.4}
	for _, m := range d.Monthly {
		assert.InDelta(t, want[m.Month], m.Irradiance, 1e-9, m.Month)
	}
}

func TestDetails_CustomProfile(t *testing.T) {
	profile, err := ParseSeasonalProfile("1, 1, 2, 0.5")
	require.NoError(t, err)

	d := NewFeatureStyler(nil, profile).Details(CountyFeature{Irradiance: 3})
	assert.InDelta(t, 6.0, d.Monthly[2].Irradiance, 1e-9)
	assert.Equal(t, "Jul", d.Monthly[2].Month)
}

func TestParseSeasonalProfile_Errors(t *testing.T) {
	_, err := ParseSeasonalProfile("1,2,3")
	assert.Error(t, err)

	_, err = ParseSeasonalProfile("1,2,x,4")
	assert.Error(t, err)

	_, err = ParseSeasonalProfile("1,2,-3,4")
	assert.Error(t, err)
}

func TestAnnouncements(t *testing.T) {
	f := CountyFeature{FIPS: testFIPSAlbany, Name: "Albany", State: "NY", Irradiance: 4.2}

	assert.Equal(t, "Albany, NY: 4.2 kilowatt-hours per square meter", HoverAnnouncement(f))
	assert.Equal(t, "Selected Albany, NY: 4.2 kilowatt-hours per square meter", SelectionAnnouncement(f))
	assert.Equal(t, "Closed details for Albany, NY", CloseAnnouncement(f))
}
