package catalog

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func coord(lat, lon float64) *domain.Coordinate {
	c, ok := domain.NewCoordinate(lat, lon)
	if !ok {
		panic("invalid test coordinate")
	}
	return c
}

// fakeFetcher serves a configurable catalog and counts calls. When release is
// set, each fetch signals started and waits for release before returning.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	entries []domain.CatalogEntry
	err     error

	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	f.mu.Lock()
	f.calls++
	entries, err := f.entries, f.err
	started, release := f.started, f.release
	f.mu.Unlock()

	if release != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return entries, err
}

func (f *fakeFetcher) set(entries []domain.CatalogEntry, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries, f.err = entries, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var sampleEntries = []domain.CatalogEntry{
	{ID: "p-1", Name: "Marina Heights", Developer: "Emaar", Locality: "Dubai Marina", City: "Dubai",
		Location: coord(25.0805, 55.1403), URL: "https://catalog.example.test/p-1"},
	{ID: "p-2", Name: "Creek Vista", Developer: "Sobha", Locality: "Dubai Creek Harbour", City: "Dubai",
		Location: coord(25.2048, 55.3470)},
	{ID: "p-3", Name: "Saadiyat Grove", Developer: "Aldar", Locality: "Saadiyat Island", City: "Abu Dhabi"},
}
