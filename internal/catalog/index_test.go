package catalog

import (
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

func candidateIDs(ix *Index, d domain.DraftAttributes) []string {
	var ids []string
	for e := range ix.Candidates(d) {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestCandidates_NoInputsYieldsNothing(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	assert.Empty(t, candidateIDs(ix, domain.DraftAttributes{}))
	assert.Empty(t, candidateIDs(ix, domain.DraftAttributes{DeveloperName: "Emaar"}),
		"developer alone is not an index key")
}

func TestCandidates_CommunityKeyIsNormalized(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	ids := candidateIDs(ix, domain.DraftAttributes{Community: "  DUBAI   marina "})
	assert.Equal(t, []string{"p-1"}, ids)
}

func TestCandidates_CityBucket(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	ids := candidateIDs(ix, domain.DraftAttributes{City: "Dubai"})
	assert.Equal(t, []string{"p-1", "p-2"}, ids)
}

func TestCandidates_LocationMatchesBeforeGridMatches(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	// Near p-1 by coordinate, but the community names p-2.
	ids := candidateIDs(ix, domain.DraftAttributes{
		Community: "Dubai Creek Harbour",
		Location:  coord(25.0810, 55.1410),
	})
	assert.Equal(t, []string{"p-2", "p-1"}, ids)
}

func TestCandidates_NeighbouringCell(t *testing.T) {
	entries := []domain.CatalogEntry{
		{ID: "edge", Name: "Edge Tower", Location: coord(25.0999, 55.1999)},
		{ID: "far", Name: "Far Tower", Location: coord(24.4539, 54.3773)},
	}
	ix := NewIndex(entries, 200)

	// Just across the cell boundary from "edge".
	ids := candidateIDs(ix, domain.DraftAttributes{Location: coord(25.1001, 55.2001)})
	assert.Equal(t, []string{"edge"}, ids)
}

func TestCandidates_GridHintPlacesEntry(t *testing.T) {
	entries := []domain.CatalogEntry{
		{ID: "hinted", Name: "Harbour Views", GridHint: coord(25.08, 55.14)},
	}
	ix := NewIndex(entries, 200)

	ids := candidateIDs(ix, domain.DraftAttributes{Location: coord(25.0805, 55.1403)})
	assert.Equal(t, []string{"hinted"}, ids)
}

func TestCandidates_TitleTokens(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	ids := candidateIDs(ix, domain.DraftAttributes{Title: "The Grove at Saadiyat"})
	assert.Equal(t, []string{"p-3"}, ids, "short words are not indexed; both long words hit p-3 once")
}

func TestCandidates_NoDuplicates(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	ids := candidateIDs(ix, domain.DraftAttributes{
		Title:     "Marina Heights",
		Community: "Dubai Marina",
		City:      "Dubai",
		Location:  coord(25.0805, 55.1403),
	})
	assert.Equal(t, []string{"p-1", "p-2"}, ids)
}

func TestCandidates_CappedAtMax(t *testing.T) {
	entries := make([]domain.CatalogEntry, 500)
	for i := range entries {
		entries[i] = domain.CatalogEntry{ID: "p-" + strconv.Itoa(i), Name: "Tower " + strconv.Itoa(i), City: "Dubai"}
	}
	ix := NewIndex(entries, 200)

	ids := candidateIDs(ix, domain.DraftAttributes{City: "Dubai"})
	require.Len(t, ids, 200)
	assert.Equal(t, "p-0", ids[0])
	assert.Equal(t, "p-199", ids[199])
}

func TestCandidates_EarlyBreak(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	var got []string
	for e := range ix.Candidates(domain.DraftAttributes{City: "Dubai"}) {
		got = append(got, e.ID)
		break
	}
	assert.Equal(t, []string{"p-1"}, got)
}

func TestCandidates_EmptyIndex(t *testing.T) {
	var ix *Index
	assert.Empty(t, slices.Collect(ix.Candidates(domain.DraftAttributes{City: "Dubai"})))

	ix = NewIndex(nil, 0)
	assert.Empty(t, slices.Collect(ix.Candidates(domain.DraftAttributes{City: "Dubai"})))
}

func TestIndexLookup(t *testing.T) {
	ix := NewIndex(sampleEntries, 200)

	e, ok := ix.Lookup("p-2")
	require.True(t, ok)
	assert.Equal(t, "Creek Vista", e.Name)

	_, ok = ix.Lookup("nope")
	assert.False(t, ok)
}
