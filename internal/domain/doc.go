// Package domain models solar irradiance data and the rules that turn it into
// map layers, county styles, legends, and accessible interaction output.
//
// # Data Source
//
// An upstream collector combines a point irradiance reading (OpenWeatherMap UV
// index scaled to W/m²) with NASA POWER daily surface shortwave totals and
// publishes the result as one JSON document per refresh to the Kafka source
// topic, roughly every ten minutes. Each document replaces the previous one
// wholesale; nothing is merged across refreshes.
//
// # Units
//
//	Point samples ("mapData"):   W/m², instantaneous.
//	County aggregates:           kWh/m², accumulated daily average.
//	Metrics "totalEnergy":       kWh.
//	Metrics "avgIrradiance":     W/m².
//
// Heat layer intensity is irradiance / 100, which puts typical W/m² readings in
// the 0–10 range the heat renderer expects.
//
// # Color Buckets
//
// County irradiance is classified into five buckets, scanned from the highest
// lower bound down. A value belongs to the first bucket whose lower bound it
// strictly exceeds, so boundary values fall into the higher of the two ranges
// they touch in the label sense ("5–6" includes 6):
//
//	>6 | 5–6 | 4–5 | 3–4 | ≤3   (kWh/m²)
//
// Normal mode uses the Okabe-Ito color-blind-safe hues. High-contrast mode uses
// a monochrome ramp of descending brightness.
//
// # Missing Data
//
// A county with no irradiance entry gets 0. A metric with no value renders as
// "N/A". Non-finite numbers are replaced with 0 before classification by
// [SafeIrradiance]; [ColorScale.ColorFor] itself expects a finite value.
//
// # Seasonal Estimates
//
// County details carry monthly estimates derived from fixed multipliers
// (Jan 0.6, Apr 0.9, Jul 1.3, Oct 0.85). They are a seasonal approximation, not
// a solar declination model, and are configurable through [SeasonalProfile].
package domain
