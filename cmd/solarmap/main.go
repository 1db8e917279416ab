package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/solar-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/solar-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/solar-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/solar-map-service/internal/adapter/sqlite"
	"github.com/couchcryptid/solar-map-service/internal/config"
	"github.com/couchcryptid/solar-map-service/internal/domain"
	"github.com/couchcryptid/solar-map-service/internal/observability"
	"github.com/couchcryptid/solar-map-service/internal/pipeline"
	"github.com/couchcryptid/solar-map-service/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.CountyDBPath, logger)
	if err != nil {
		logger.Error("failed to open county store", "error", err)
		os.Exit(1)
	}
	if cfg.CountySeedPath != "" {
		n, err := store.SeedFile(ctx, cfg.CountySeedPath)
		if err != nil {
			logger.Error("failed to seed county store", "path", cfg.CountySeedPath, "error", err)
			os.Exit(1)
		}
		logger.Info("county store seeded", "path", cfg.CountySeedPath, "counties", n)
	}

	// Point labels are feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	scale := domain.DefaultColorScale()
	live := session.NewAnnouncementLog(cfg.AnnouncementBuffer)
	sess := session.New(domain.NewFeatureStyler(scale, cfg.Seasonal), cfg.ContrastMode, live, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(store, geocoder, domain.LayerOptions{
		Heat:    domain.DefaultHeatConfig(),
		Cluster: domain.DefaultClusterConfig(),
		Scale:   scale,
	}, logger)

	// The sink goes first so the session only shows snapshots that were published.
	p := pipeline.New(reader, transformer, pipeline.MultiLoader{writer, sess}, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, sess, live, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("county store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
