// Command genmock reads a station CSV and a county CSV and writes a
// deterministic refresh feed fixture. The fixture is run back through the
// domain package so the printed stats match what the pipeline will build.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -stations data/stations.csv \
//	  -counties data/counties.csv \
//	  -out data/mock/refresh_feed.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/solar-map-service/internal/domain"
)

// chartStart is the timestamp of the first chart sample; samples are hourly.
var chartStart = time.Date(2025, time.April, 14, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	stationsPath := flag.String("stations", "data/stations.csv", "station CSV (id,lat,lng,irradiance)")
	countiesPath := flag.String("counties", "data/counties.csv", "county CSV (fips,name,state,irradiance)")
	out := flag.String("out", "data/mock/refresh_feed.json", "output path for the feed fixture")
	flag.Parse()

	points, err := readStations(*stationsPath)
	if err != nil {
		return fmt.Errorf("reading stations: %w", err)
	}
	counties, err := readCounties(*countiesPath)
	if err != nil {
		return fmt.Errorf("reading counties: %w", err)
	}
	log.Printf("stations: %d, counties: %d", len(points), len(counties))

	feed := buildFeed(points, counties)
	if err := writeJSON(*out, feed); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	return printStats(feed)
}

func buildFeed(points []domain.IrradiancePoint, counties []domain.RawCounty) domain.RawFeed {
	var pointSum, countySum float64
	chart := make([]domain.ChartSample, len(points))
	for i, p := range points {
		pointSum += p.Irradiance
		chart[i] = domain.ChartSample{
			Timestamp:   chartStart.Add(time.Duration(i) * time.Hour),
			Energy:      round(p.Irradiance/1000, 4),
			Temperature: round(18+0.5*float64(i), 1),
		}
	}
	for _, c := range counties {
		if c.Irradiance != nil {
			countySum += *c.Irradiance
		}
	}

	var metrics domain.FeedMetrics
	if len(points) > 0 {
		avg := round(pointSum/float64(len(points)), 2)
		metrics.AvgIrradiance = &avg
	}
	if len(counties) > 0 {
		total := round(countySum/float64(len(counties)), 2)
		metrics.TotalEnergy = &total
	}

	return domain.RawFeed{MapData: points, Metrics: metrics, ChartData: chart, Counties: counties}
}

func readStations(path string) ([]domain.IrradiancePoint, error) {
	rows, idx, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	points := make([]domain.IrradiancePoint, 0, len(rows))
	for n, row := range rows {
		id, err := strconv.Atoi(get(row, idx, "id"))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid id: %w", n+2, err)
		}
		points = append(points, domain.IrradiancePoint{
			ID:         id,
			Lat:        parseFloat(get(row, idx, "lat")),
			Lng:        parseFloat(get(row, idx, "lng")),
			Irradiance: parseFloat(get(row, idx, "irradiance")),
		})
	}
	return points, nil
}

func readCounties(path string) ([]domain.RawCounty, error) {
	rows, idx, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	counties := make([]domain.RawCounty, 0, len(rows))
	for _, row := range rows {
		c := domain.RawCounty{
			FIPS:  get(row, idx, "fips"),
			Name:  get(row, idx, "name"),
			State: get(row, idx, "state"),
		}
		if v := get(row, idx, "irradiance"); v != "" {
			irr := parseFloat(v)
			c.Irradiance = &irr
		}
		counties = append(counties, c)
	}
	return counties, nil
}

func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("no data rows")
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.TrimSpace(h)] = i
	}
	return rows[1:], idx, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats reports the numbers test assertions depend on.
func printStats(feed domain.RawFeed) error {
	domain.SetClock(clockwork.NewFakeClockAt(chartStart))
	defer domain.SetClock(nil)

	payload, err := json.Marshal(feed)
	if err != nil {
		return err
	}
	parsed, err := domain.ParseRawEvent(domain.RawEvent{Value: payload})
	if err != nil {
		return fmt.Errorf("parse generated feed: %w", err)
	}
	snap := domain.BuildSnapshot(parsed, nil, domain.LayerOptions{
		Heat:    domain.DefaultHeatConfig(),
		Cluster: domain.DefaultClusterConfig(),
	})

	scale := domain.DefaultColorScale()
	buckets := map[string]int{}
	for _, f := range snap.Features {
		buckets[scale.ColorFor(f.Irradiance, domain.ContrastNormal).BucketLabel]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Snapshot ID: %s\n", snap.ID)
	fmt.Printf("Points: %d (dropped %d)\n", len(snap.Points), parsed.Dropped)
	fmt.Printf("Features: %d\n", len(snap.Features))
	for _, entry := range scale.LegendFor(domain.ContrastNormal) {
		fmt.Printf("  %-4s %d\n", entry.Label, buckets[entry.Label])
	}
	for _, zoom := range []int{3, 6, 9, 10} {
		fmt.Printf("Clusters at zoom %d: %d\n", zoom, len(domain.ClusterAt(snap.Layers.Clusters, snap.Layers.Cluster, zoom)))
	}
	fmt.Printf("Total energy: %s\n", domain.FormatMetric(snap.Metrics, domain.MetricTotalEnergy))
	fmt.Printf("Avg irradiance: %s\n", domain.FormatMetric(snap.Metrics, domain.MetricAvgIrradiance))
	return nil
}
