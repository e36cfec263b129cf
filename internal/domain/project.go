package domain

import "math"

// Coordinate represents a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates a latitude/longitude pair. It reports false for
// non-finite or out-of-range values and for the (0, 0) form default.
func NewCoordinate(lat, lon float64) (*Coordinate, bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return nil, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, false
	}
	if lat == 0 && lon == 0 {
		return nil, false
	}
	return &Coordinate{Lat: lat, Lon: lon}, true
}

// CatalogEntry is one verified development project from the inventory feed.
type CatalogEntry struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Developer string      `json:"developer"`
	Locality  string      `json:"locality,omitempty"` // community or area
	City      string      `json:"city,omitempty"`
	Location  *Coordinate `json:"location,omitempty"`
	URL       string      `json:"url,omitempty"`
	PriceFrom *float64    `json:"priceFrom,omitempty"`

	// GridHint is an approximate locality centroid from geocoding. It only
	// places coordinate-less entries into proximity cells and is never scored.
	GridHint *Coordinate `json:"gridHint,omitempty"`
}

// IndexPoint returns the coordinate used for spatial bucketing: the entry's
// own location, falling back to its grid hint.
func (e CatalogEntry) IndexPoint() *Coordinate {
	if e.Location != nil {
		return e.Location
	}
	return e.GridHint
}
