package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/lru"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
)

// Default detail cache settings.
const (
	DefaultDetailTTL       = 60 * time.Second
	DefaultDetailCacheSize = 1000
)

// DetailFetcher looks up one project. found is false, with a nil error, when
// the source says the project does not exist.
type DetailFetcher interface {
	FetchProject(ctx context.Context, id string) (entry domain.CatalogEntry, found bool, err error)
}

// SnapshotSource exposes the catalog snapshot currently served.
type SnapshotSource interface {
	Current() *Snapshot
}

// DetailOptions configures a DetailCache. Zero values take the package defaults.
type DetailOptions struct {
	TTL           time.Duration
	RetryInterval time.Duration
	FetchTimeout  time.Duration
	MaxEntries    int

	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func (o DetailOptions) withDefaults() DetailOptions {
	if o.TTL <= 0 {
		o.TTL = DefaultDetailTTL
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = DefaultDetailCacheSize
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = observability.NewMetricsForTesting()
	}
	return o
}

type detailState struct {
	entry     domain.CatalogEntry
	found     bool
	refreshAt time.Time
	// unknown marks a not-found that no fetch ever confirmed.
	unknown bool
}

// DetailCache serves per-project lookups with the same single-flight and
// last-good discipline as Cache, keyed by project ID.
type DetailCache struct {
	fetcher   DetailFetcher
	snapshots SnapshotSource
	opts      DetailOptions
	entries   *lru.Cache[string, detailState]
	group     singleflight.Group
}

// NewDetailCache creates a detail cache. snapshots may be nil; when set, its
// current snapshot answers for IDs whose first fetch fails.
func NewDetailCache(fetcher DetailFetcher, snapshots SnapshotSource, opts DetailOptions) *DetailCache {
	opts = opts.withDefaults()
	return &DetailCache{
		fetcher:   fetcher,
		snapshots: snapshots,
		opts:      opts,
		entries:   lru.New[string, detailState](opts.MaxEntries),
	}
}

// Get returns the project with the given ID. It never fails: errors fall
// back to the last good answer for the ID, then to the catalog snapshot.
func (c *DetailCache) Get(ctx context.Context, id string) (domain.CatalogEntry, bool) {
	if id == "" {
		return domain.CatalogEntry{}, false
	}

	if st, ok := c.entries.Get(id); ok && c.opts.Clock.Now().Before(st.refreshAt) {
		c.opts.Metrics.DetailLookups.WithLabelValues("hit").Inc()
		return st.entry, st.found
	}
	c.opts.Metrics.DetailLookups.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(id, func() (any, error) {
		return c.refresh(id), nil
	})

	select {
	case res := <-ch:
		st := res.Val.(detailState)
		return st.entry, st.found
	case <-ctx.Done():
		st := c.fallback(id)
		return st.entry, st.found
	}
}

func (c *DetailCache) refresh(id string) detailState {
	now := c.opts.Clock.Now()
	if st, ok := c.entries.Get(id); ok && now.Before(st.refreshAt) {
		return st
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
	defer cancel()

	entry, found, err := c.fetcher.FetchProject(ctx, id)
	if err != nil {
		st := c.fallback(id)
		st.refreshAt = now.Add(c.opts.RetryInterval)
		c.entries.Put(id, st)

		c.opts.Metrics.DetailLookups.WithLabelValues("error").Inc()
		c.opts.Logger.Warn("project detail fetch failed",
			"project_id", id,
			"error", err,
			"fallback_found", st.found,
		)
		return st
	}

	st := detailState{entry: entry, found: found, refreshAt: now.Add(c.opts.TTL)}
	c.entries.Put(id, st)
	return st
}

// fallback is the last answer the feed gave for id, else the snapshot's
// entry.
func (c *DetailCache) fallback(id string) detailState {
	if st, ok := c.entries.Get(id); ok && !st.unknown {
		c.opts.Metrics.DetailLookups.WithLabelValues("stale").Inc()
		return st
	}
	if c.snapshots != nil {
		if e, ok := c.snapshots.Current().Lookup(id); ok {
			return detailState{entry: e, found: true}
		}
	}
	return detailState{unknown: true}
}
