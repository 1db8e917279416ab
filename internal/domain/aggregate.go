package domain

import (
	"math"
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// GradientStop is one color stop of the heat layer gradient.
type GradientStop struct {
	Stop  float64 `json:"stop"`
	Color string  `json:"color"`
}

// HeatConfig is handed to the heat layer renderer unchanged.
type HeatConfig struct {
	Radius     int            `json:"radius"`
	Blur       int            `json:"blur"`
	MaxZoom    int            `json:"max_zoom"`
	MinOpacity float64        `json:"min_opacity"`
	Gradient   []GradientStop `json:"gradient"`
}

// ClusterConfig controls marker clustering. One configuration serves every
// contrast mode.
type ClusterConfig struct {
	MaxClusterRadius        int `json:"max_cluster_radius"`
	DisableClusteringAtZoom int `json:"disable_clustering_at_zoom"`
}

// DefaultHeatConfig returns the heat layer settings used by the dashboard map.
func DefaultHeatConfig() HeatConfig {
	return HeatConfig{
		Radius:     25,
		Blur:       20,
		MaxZoom:    17,
		MinOpacity: 0.5,
		Gradient: []GradientStop{
			{Stop: 0, Color: "blue"},
			{Stop: 0.5, Color: "purple"},
			{Stop: 1, Color: "red"},
		},
	}
}

// DefaultClusterConfig returns the marker clustering settings used by the dashboard map.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{MaxClusterRadius: 40, DisableClusteringAtZoom: 10}
}

// MapView is the initial centre and zoom of the map surface.
type MapView struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
}

// DefaultMapView centres the contiguous United States.
func DefaultMapView() MapView {
	return MapView{Lat: 37.0902, Lng: -95.7129, Zoom: 4}
}

// HeatWeight is one weighted heat layer sample.
type HeatWeight struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

// Marker is a single point marker with its popup payload.
type Marker struct {
	ID    int     `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Popup string  `json:"popup"`
	Label string  `json:"label,omitempty"`
}

// ClusterGroup is a set of markers drawn as one symbol at Lat/Lng.
type ClusterGroup struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Count   int      `json:"count"`
	Markers []Marker `json:"markers"`
}

// Layers bundles everything the map surface needs to draw the point layers.
type Layers struct {
	View        MapView                        `json:"view"`
	Heat        HeatConfig                     `json:"heat"`
	Cluster     ClusterConfig                  `json:"cluster"`
	HeatWeights []HeatWeight                   `json:"heat_weights"`
	Clusters    []ClusterGroup                 `json:"clusters"`
	Legends     map[ContrastMode][]LegendEntry `json:"legends,omitempty"`
}

// heatScale normalizes W/m² readings into the heat renderer's 0–10 intensity range.
const heatScale = 100.0

// Aggregate turns raw points into heat weights and one unmerged cluster group
// per point. Screen-space merging happens in ClusterAt or on the map surface.
// An empty input yields empty, non-nil slices.
func Aggregate(points []IrradiancePoint, heat HeatConfig, cluster ClusterConfig) Layers {
	out := Layers{
		View:        DefaultMapView(),
		Heat:        heat,
		Cluster:     cluster,
		HeatWeights: make([]HeatWeight, 0, len(points)),
		Clusters:    make([]ClusterGroup, 0, len(points)),
	}
	for _, p := range points {
		out.HeatWeights = append(out.HeatWeights, HeatWeight{
			Lat:    p.Lat,
			Lng:    p.Lng,
			Weight: p.Irradiance / heatScale,
		})
		m := Marker{ID: p.ID, Lat: p.Lat, Lng: p.Lng, Popup: PopupText(p), Label: MarkerLabel(p)}
		out.Clusters = append(out.Clusters, ClusterGroup{Lat: p.Lat, Lng: p.Lng, Count: 1, Markers: []Marker{m}})
	}
	return out
}

// PopupText is the marker popup for a point, e.g. "Irradiance: 132.4 W/m²".
func PopupText(p IrradiancePoint) string {
	return "Irradiance: " + formatNumber(p.Irradiance) + " W/m²"
}

// MarkerLabel prefixes the popup with the point's place name, e.g.
// "Atlanta: Irradiance: 132.4 W/m²". Unlabelled points get an empty label.
func MarkerLabel(p IrradiancePoint) string {
	if p.Label == "" {
		return ""
	}
	return p.Label + ": " + PopupText(p)
}

// tileSize is the pixel width of one Web Mercator tile at zoom 0.
const tileSize = 256.0

// maxMercatorLat is the latitude where the square Web Mercator world ends.
const maxMercatorLat = 85.0511287798

// ClusterAt merges markers that fall within cfg.MaxClusterRadius pixels of a
// cluster's seed marker at the given zoom. At or beyond
// cfg.DisableClusteringAtZoom every marker stays on its own.
func ClusterAt(groups []ClusterGroup, cfg ClusterConfig, zoom int) []ClusterGroup {
	var markers []Marker
	for _, g := range groups {
		markers = append(markers, g.Markers...)
	}

	out := make([]ClusterGroup, 0, len(markers))
	if zoom >= cfg.DisableClusteringAtZoom {
		for _, m := range markers {
			out = append(out, ClusterGroup{Lat: m.Lat, Lng: m.Lng, Count: 1, Markers: []Marker{m}})
		}
		return out
	}

	type seed struct{ x, y float64 }
	seeds := make([]seed, 0, len(markers))
	radius := float64(cfg.MaxClusterRadius)

	for _, m := range markers {
		x, y := projectPixel(m.Lat, m.Lng, zoom)
		joined := false
		for i, s := range seeds {
			if math.Hypot(x-s.x, y-s.y) <= radius {
				out[i].Markers = append(out[i].Markers, m)
				out[i].Count++
				joined = true
				break
			}
		}
		if !joined {
			seeds = append(seeds, seed{x: x, y: y})
			out = append(out, ClusterGroup{Count: 1, Markers: []Marker{m}})
		}
	}

	for i := range out {
		out[i].Lat, out[i].Lng = centroid(out[i].Markers)
	}
	return out
}

// projectPixel converts WGS-84 degrees to Web Mercator world pixels at zoom.
func projectPixel(lat, lng float64, zoom int) (float64, float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	scale := tileSize * math.Exp2(float64(zoom))
	x := (lng + 180) / 360 * scale
	sin := math.Sin(lat * math.Pi / 180)
	y := (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale
	return x, y
}

// centroid returns the spherical mean position of the markers.
func centroid(markers []Marker) (float64, float64) {
	if len(markers) == 1 {
		return markers[0].Lat, markers[0].Lng
	}
	var sum r3.Vector
	for _, m := range markers {
		sum = sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(m.Lat, m.Lng)).Vector)
	}
	if sum.Norm() == 0 {
		return markers[0].Lat, markers[0].Lng
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}

// ValidCoordinate reports whether lat/lng is a valid WGS-84 position.
func ValidCoordinate(lat, lng float64) bool {
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
