package feed

import (
	"strings"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

// Page is one page of the feed's project listing.
type Page struct {
	Items    []Project `json:"items"`
	NextPage *int      `json:"nextPage"`
}

// Project is a verified project record as the feed serves it.
type Project struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Developer string   `json:"developer"`
	Community string   `json:"community,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	URL       string   `json:"url,omitempty"`
	PriceFrom *float64 `json:"priceFrom,omitempty"`
}

// Entry converts the record to a catalog entry. It reports false when the
// record has no usable ID.
func (p Project) Entry() (domain.CatalogEntry, bool) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return domain.CatalogEntry{}, false
	}

	e := domain.CatalogEntry{
		ID:        id,
		Name:      strings.TrimSpace(p.Name),
		Developer: strings.TrimSpace(p.Developer),
		Locality:  strings.TrimSpace(p.Community),
		City:      strings.TrimSpace(p.City),
		URL:       strings.TrimSpace(p.URL),
	}
	if p.Latitude != nil && p.Longitude != nil {
		e.Location, _ = domain.NewCoordinate(*p.Latitude, *p.Longitude)
	}
	if p.PriceFrom != nil && *p.PriceFrom > 0 {
		price := *p.PriceFrom
		e.PriceFrom = &price
	}
	return e, true
}

// FromEntry converts a catalog entry back to the feed shape. Grid hints are
// not part of the feed and are dropped.
func FromEntry(e domain.CatalogEntry) Project {
	p := Project{
		ID:        e.ID,
		Name:      e.Name,
		Developer: e.Developer,
		Community: e.Locality,
		City:      e.City,
		URL:       e.URL,
		PriceFrom: e.PriceFrom,
	}
	if e.Location != nil {
		lat, lon := e.Location.Lat, e.Location.Lon
		p.Latitude, p.Longitude = &lat, &lon
	}
	return p
}
