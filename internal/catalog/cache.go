package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
)

// Default cache timings.
const (
	DefaultTTL           = 10 * time.Minute
	DefaultRetryInterval = 60 * time.Second
	DefaultFetchTimeout  = 5 * time.Second

	storeSaveTimeout = 2 * time.Second
)

// Fetcher loads the full catalog from its source of truth.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error)
}

// Stored is a catalog capture persisted in a SnapshotStore.
type Stored struct {
	Entries    []domain.CatalogEntry `json:"entries"`
	CapturedAt time.Time             `json:"capturedAt"`
}

// SnapshotStore shares catalog captures between service instances.
// Load returns nil, nil when nothing is stored.
type SnapshotStore interface {
	Load(ctx context.Context) (*Stored, error)
	Save(ctx context.Context, s Stored) error
}

// Options configures a Cache. Zero values take the package defaults.
type Options struct {
	TTL           time.Duration
	RetryInterval time.Duration
	FetchTimeout  time.Duration
	MaxCandidates int

	// Store is an optional second-level cache consulted before the feed.
	Store SnapshotStore
	// Geocoder optionally assigns grid hints to entries without coordinates.
	Geocoder domain.Geocoder

	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
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

// cacheState pairs the served snapshot with the time the next refresh is due.
// After a failed refresh refreshAt is the short retry deadline rather than
// the snapshot's own expiry.
type cacheState struct {
	snap      *Snapshot
	refreshAt time.Time
}

// Cache serves catalog snapshots with single-flight refresh and
// stale-while-revalidate fallback. Get never fails.
type Cache struct {
	fetcher Fetcher
	opts    Options
	state   atomic.Pointer[cacheState]
	group   singleflight.Group
	loaded  atomic.Bool
}

// NewCache creates a cold cache. Nothing is fetched until the first Get.
func NewCache(fetcher Fetcher, opts Options) *Cache {
	return &Cache{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
	}
}

const refreshKey = "catalog"

// Get returns the current snapshot, refreshing it first when it is due.
// Concurrent callers share one refresh and receive the same snapshot. If ctx
// ends before the refresh completes, the caller gets the stale snapshot (or an
// empty one) while the refresh carries on for the others.
func (c *Cache) Get(ctx context.Context) *Snapshot {
	if st := c.state.Load(); st != nil && c.opts.Clock.Now().Before(st.refreshAt) {
		c.opts.Metrics.CatalogLookups.WithLabelValues("hit").Inc()
		return st.snap
	}
	c.opts.Metrics.CatalogLookups.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.refresh(), nil
	})

	select {
	case res := <-ch:
		return res.Val.(*Snapshot)
	case <-ctx.Done():
		return c.Current()
	}
}

// Current returns the snapshot being served without triggering a refresh.
// Before the first refresh completes it returns an empty snapshot.
func (c *Cache) Current() *Snapshot {
	if st := c.state.Load(); st != nil {
		return st.snap
	}
	return c.empty(c.opts.Clock.Now())
}

// CheckReadiness reports ready once a non-empty catalog has been loaded.
func (c *Cache) CheckReadiness(_ context.Context) error {
	if !c.loaded.Load() {
		return errors.New("catalog not loaded")
	}
	return nil
}

func (c *Cache) empty(now time.Time) *Snapshot {
	return NewSnapshot(nil, now, c.opts.RetryInterval, c.opts.MaxCandidates)
}

// refresh runs inside the single flight. It is detached from every caller's
// context.
func (c *Cache) refresh() *Snapshot {
	now := c.opts.Clock.Now()

	// A flight that finished just before this one started already did the work.
	prev := c.state.Load()
	if prev != nil && now.Before(prev.refreshAt) {
		return prev.snap
	}

	start := c.opts.Clock.Now()
	stored, source, err := c.load(now)
	c.opts.Metrics.CatalogRefreshDuration.Observe(c.opts.Clock.Since(start).Seconds())

	if err != nil {
		c.opts.Metrics.CatalogRefreshes.WithLabelValues(source, "error").Inc()

		snap := c.empty(now)
		if prev != nil {
			snap = prev.snap
		}
		retryAt := now.Add(c.opts.RetryInterval)
		c.state.Store(&cacheState{snap: snap, refreshAt: retryAt})

		c.opts.Logger.Warn("catalog refresh failed, serving last snapshot",
			"error", err,
			"stale_entries", snap.Len(),
			"retry_at", retryAt,
		)
		return snap
	}

	c.opts.Metrics.CatalogRefreshes.WithLabelValues(source, "success").Inc()
	c.opts.Metrics.CatalogEntries.Set(float64(len(stored.Entries)))

	snap := NewSnapshot(stored.Entries, stored.CapturedAt, c.opts.TTL, c.opts.MaxCandidates)
	c.state.Store(&cacheState{snap: snap, refreshAt: snap.ExpiresAt})
	if snap.Len() > 0 {
		c.loaded.Store(true)
	}

	c.opts.Logger.Info("catalog refreshed",
		"source", source,
		"entries", snap.Len(),
		"captured_at", snap.CapturedAt,
	)
	return snap
}

// load prefers a fresh capture from the shared store and otherwise fetches
// from the feed, enriches the entries, and writes the result back. The fetch,
// the geocoding pass and the store write each get their own deadline, so a
// slow geocoder cannot starve the write. Store failures are logged and never
// fail the refresh.
func (c *Cache) load(now time.Time) (Stored, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
	defer cancel()

	if c.opts.Store != nil {
		s, err := c.opts.Store.Load(ctx)
		switch {
		case err != nil:
			c.opts.Metrics.CatalogRefreshes.WithLabelValues("store", "error").Inc()
			c.opts.Logger.Warn("snapshot store load failed", "error", err)
		case s != nil && now.Sub(s.CapturedAt) < c.opts.TTL:
			return *s, "store", nil
		}
	}

	entries, err := c.fetcher.FetchCatalog(ctx)
	if err != nil {
		return Stored{}, "feed", fmt.Errorf("fetch catalog: %w", err)
	}

	entries = c.hint(entries)
	s := Stored{Entries: entries, CapturedAt: now}

	if c.opts.Store != nil {
		saveCtx, cancelSave := context.WithTimeout(context.Background(), storeSaveTimeout)
		defer cancelSave()
		if err := c.opts.Store.Save(saveCtx, s); err != nil {
			c.opts.Logger.Warn("snapshot store save failed", "error", err)
		}
	}
	return s, "feed", nil
}

func (c *Cache) hint(entries []domain.CatalogEntry) []domain.CatalogEntry {
	if c.opts.Geocoder == nil {
		return entries
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
	defer cancel()
	return domain.HintEntries(ctx, entries, c.opts.Geocoder, c.opts.Logger)
}
