package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dupcheck"

// Metrics holds the Prometheus counters, histograms, and gauges for the duplicate-check service.
type Metrics struct {
	// Check metrics.
	ChecksTotal       *prometheus.CounterVec // labels: level={none,soft,strong}
	CheckDuration     prometheus.Histogram
	CandidatesScanned prometheus.Histogram

	// Catalog snapshot metrics.
	CatalogLookups         *prometheus.CounterVec // labels: result={hit,miss}
	CatalogRefreshes       *prometheus.CounterVec // labels: source={feed,store}, outcome={success,error}
	CatalogRefreshDuration prometheus.Histogram
	CatalogEntries         prometheus.Gauge

	// Project detail metrics.
	DetailLookups *prometheus.CounterVec // labels: result={hit,miss,stale,error}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Caller-side persistence metrics.
	DraftsRecorded   *prometheus.CounterVec // labels: outcome={updated,unchanged,error}
	SubmissionsGated *prometheus.CounterVec // labels: outcome={allowed,blocked}
	EventsPublished  *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.CandidatesScanned,
		m.CatalogLookups,
		m.CatalogRefreshes,
		m.CatalogRefreshDuration,
		m.CatalogEntries,
		m.DetailLookups,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.DraftsRecorded,
		m.SubmissionsGated,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      help("Duplicate checks by resulting level."),
		}, []string{"level"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      help("Duration of a duplicate check including any catalog refresh it waited on."),
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		CandidatesScanned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_scanned",
			Help:      help("Catalog entries scored per duplicate check."),
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 150, 200},
		}),
		CatalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookups_total",
			Help:      help("Catalog snapshot lookups by result."),
		}, []string{"result"}),
		CatalogRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      help("Catalog snapshot refreshes by source and outcome."),
		}, []string{"source", "outcome"}),
		CatalogRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_duration_seconds",
			Help:      help("Duration of a catalog refresh, fetch through index build."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CatalogEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      help("Entries in the snapshot currently served."),
		}),
		DetailLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_lookups_total",
			Help:      help("Project detail lookups by result."),
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Geocoding API requests by outcome."),
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by result."),
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Mapbox API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when grid-hint geocoding is enabled, 0 otherwise."),
		}),
		DraftsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_recorded_total",
			Help:      help("Draft verdict recordings by outcome."),
		}, []string{"outcome"}),
		SubmissionsGated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_gated_total",
			Help:      help("Draft submissions by gate outcome."),
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      help("Duplicate-detected events published by outcome."),
		}, []string{"outcome"}),
	}
}
