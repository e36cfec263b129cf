package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Catalog feed and snapshot cache.
	CatalogFeedURL       string
	CatalogFeedToken     string
	CatalogFetchTimeout  time.Duration
	CatalogTTL           time.Duration
	CatalogRetryInterval time.Duration
	CatalogPageSize      int
	CatalogMaxPages      int
	DetailTTL            time.Duration
	DetailCacheSize      int
	MaxCandidates        int

	// Scoring parameters.
	GeoRadiusMeters float64
	PriceTolerance  float64

	// Shared snapshot store; empty disables it.
	RedisURL string

	// Draft store; empty disables the draft-scoped routes.
	DatabaseURL string

	// Duplicate-detected events.
	KafkaEnabled        bool
	KafkaBrokers        []string
	KafkaDuplicateTopic string

	// Mapbox geocoding configuration for grid hints.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("CATALOG_FETCH_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	catalogTTL, err := parsePositiveDuration("CATALOG_TTL", "10m")
	if err != nil {
		return nil, err
	}
	retryInterval, err := parsePositiveDuration("CATALOG_RETRY_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	detailTTL, err := parsePositiveDuration("DETAIL_TTL", "60s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	pageSize, err := parseBoundedInt("CATALOG_PAGE_SIZE", 500, 5000)
	if err != nil {
		return nil, err
	}
	maxPages, err := parseBoundedInt("CATALOG_MAX_PAGES", 50, 10000)
	if err != nil {
		return nil, err
	}
	detailCacheSize, err := parseBoundedInt("DETAIL_CACHE_SIZE", 1000, 1_000_000)
	if err != nil {
		return nil, err
	}
	maxCandidates, err := parseBoundedInt("MAX_CANDIDATES", 200, 10000)
	if err != nil {
		return nil, err
	}

	geoRadius, err := parsePositiveFloat("GEO_RADIUS_METERS", 300)
	if err != nil {
		return nil, err
	}
	priceTolerance, err := parsePositiveFloat("PRICE_TOLERANCE", 0.35)
	if err != nil {
		return nil, err
	}
	if priceTolerance > 1 {
		return nil, errors.New("invalid PRICE_TOLERANCE: must be at most 1")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogFeedURL:       os.Getenv("CATALOG_FEED_URL"),
		CatalogFeedToken:     os.Getenv("CATALOG_FEED_TOKEN"),
		CatalogFetchTimeout:  fetchTimeout,
		CatalogTTL:           catalogTTL,
		CatalogRetryInterval: retryInterval,
		DetailTTL:            detailTTL,
		CatalogPageSize:      pageSize,
		CatalogMaxPages:      maxPages,
		DetailCacheSize:      detailCacheSize,
		MaxCandidates:        maxCandidates,

		GeoRadiusMeters: geoRadius,
		PriceTolerance:  priceTolerance,

		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaEnabled:        os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaDuplicateTopic: sharedcfg.EnvOrDefault("KAFKA_DUPLICATE_TOPIC", "listing-duplicates"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.CatalogFeedURL == "" {
		return nil, errors.New("CATALOG_FEED_URL is required")
	}
	if cfg.CatalogRetryInterval > cfg.CatalogTTL {
		return nil, errors.New("CATALOG_RETRY_INTERVAL must not exceed CATALOG_TTL")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaDuplicateTopic == "" {
		return nil, errors.New("KAFKA_DUPLICATE_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseBoundedInt(name string, def, maxValue int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxValue {
		return 0, fmt.Errorf("invalid %s: must be between 1 and %d", name, maxValue)
	}
	return n, nil
}

func parsePositiveFloat(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
