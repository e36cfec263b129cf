package mapbox

import (
	"context"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/lru"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by the
// normalized locality and city, so every catalog refresh after the first
// resolves known communities without API calls.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   lru.New[string, domain.GeocodingResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, locality, city string) (domain.GeocodingResult, error) {
	key := cacheKey(locality, city)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, locality, city)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.Put(key, result)
	}
	return result, nil
}

func cacheKey(locality, city string) string {
	return "fwd:" + domain.Normalize(locality) + "|" + domain.Normalize(city)
}
