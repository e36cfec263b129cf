package catalog

import (
	"time"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

// Snapshot is an immutable capture of the catalog with its candidate index.
// A refresh builds a new Snapshot rather than modifying an existing one.
type Snapshot struct {
	Entries    []domain.CatalogEntry
	CapturedAt time.Time
	ExpiresAt  time.Time

	index *Index
}

// NewSnapshot indexes entries and stamps the snapshot with its expiry.
func NewSnapshot(entries []domain.CatalogEntry, capturedAt time.Time, ttl time.Duration, maxCandidates int) *Snapshot {
	return &Snapshot{
		Entries:    entries,
		CapturedAt: capturedAt,
		ExpiresAt:  capturedAt.Add(ttl),
		index:      NewIndex(entries, maxCandidates),
	}
}

// Index returns the snapshot's candidate index.
func (s *Snapshot) Index() *Index {
	if s == nil {
		return nil
	}
	return s.index
}

// Len returns the number of catalog entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Lookup finds an entry by ID.
func (s *Snapshot) Lookup(id string) (domain.CatalogEntry, bool) {
	return s.Index().Lookup(id)
}
