package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/listing-dupcheck/internal/adapter/feed"
	"github.com/couchcryptid/listing-dupcheck/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/listing-dupcheck/internal/adapter/kafka"
	"github.com/couchcryptid/listing-dupcheck/internal/adapter/mapbox"
	"github.com/couchcryptid/listing-dupcheck/internal/adapter/postgres"
	"github.com/couchcryptid/listing-dupcheck/internal/adapter/redisstore"
	"github.com/couchcryptid/listing-dupcheck/internal/catalog"
	"github.com/couchcryptid/listing-dupcheck/internal/config"
	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/drafts"
	"github.com/couchcryptid/listing-dupcheck/internal/dupcheck"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
	"github.com/couchcryptid/listing-dupcheck/internal/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Grid-hint geocoding (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Shared snapshot store (optional).
	var store catalog.SnapshotStore
	if cfg.RedisURL != "" {
		rs, err := redisstore.New(ctx, cfg.RedisURL, cfg.CatalogTTL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := rs.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}()
		store = rs
		logger.Info("shared snapshot store enabled")
	}

	feedClient := feed.NewClient(cfg.CatalogFeedURL, cfg.CatalogFeedToken,
		cfg.CatalogPageSize, cfg.CatalogMaxPages, cfg.CatalogFetchTimeout, logger)

	cache := catalog.NewCache(feedClient, catalog.Options{
		TTL:           cfg.CatalogTTL,
		RetryInterval: cfg.CatalogRetryInterval,
		FetchTimeout:  cfg.CatalogFetchTimeout,
		MaxCandidates: cfg.MaxCandidates,
		Store:         store,
		Geocoder:      geocoder,
		Clock:         clock,
		Logger:        logger,
		Metrics:       metrics,
	})
	details := catalog.NewDetailCache(feedClient, cache, catalog.DetailOptions{
		TTL:           cfg.DetailTTL,
		RetryInterval: cfg.CatalogRetryInterval,
		FetchTimeout:  cfg.CatalogFetchTimeout,
		MaxEntries:    cfg.DetailCacheSize,
		Clock:         clock,
		Logger:        logger,
		Metrics:       metrics,
	})

	scoringCfg := scoring.DefaultConfig()
	scoringCfg.GeoRadiusMeters = cfg.GeoRadiusMeters
	scoringCfg.PriceTolerance = cfg.PriceTolerance
	scorer, err := scoring.NewScorer(scoringCfg)
	if err != nil {
		logger.Error("invalid scoring config", "error", err)
		os.Exit(1)
	}

	svc := dupcheck.New(cache, scorer, logger, metrics)
	api := httpadapter.API{Checker: svc, Projects: details}

	// Duplicate-detected events (feature-flagged via KAFKA_ENABLED).
	var publisher *kafkaadapter.Publisher
	var notifier drafts.Notifier
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaDuplicateTopic, logger)
		notifier = publisher
		logger.Info("duplicate events enabled", "topic", cfg.KafkaDuplicateTopic)
	}

	// Draft routes (enabled by DATABASE_URL).
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		api.Drafts = drafts.NewRecorder(postgres.NewDraftStore(pool), notifier, clock, logger, metrics)
		logger.Info("draft routes enabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, cache, api, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Warm the catalog so the first check does not wait on the feed.
	go cache.Get(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
