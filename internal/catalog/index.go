package catalog

import (
	"iter"
	"math"
	"unicode/utf8"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

// DefaultMaxCandidates bounds the candidates yielded for one draft.
const DefaultMaxCandidates = 200

// cellDegrees is the grid cell edge, roughly 11km of latitude.
const cellDegrees = 0.1

// minTokenLen keeps short words ("the", "at", "2br") out of the name buckets.
const minTokenLen = 3

type cell struct{ lat, lon int }

func cellOf(c domain.Coordinate) cell {
	return cell{
		lat: int(math.Floor(c.Lat / cellDegrees)),
		lon: int(math.Floor(c.Lon / cellDegrees)),
	}
}

// neighbours lists the eight cells around c in a fixed order.
func (c cell) neighbours() [8]cell {
	return [8]cell{
		{c.lat - 1, c.lon - 1}, {c.lat - 1, c.lon}, {c.lat - 1, c.lon + 1},
		{c.lat, c.lon - 1}, {c.lat, c.lon + 1},
		{c.lat + 1, c.lon - 1}, {c.lat + 1, c.lon}, {c.lat + 1, c.lon + 1},
	}
}

// Index narrows a catalog to the entries worth scoring for a draft. It is
// built once per snapshot and never mutated, so it is safe for concurrent use.
type Index struct {
	entries       []domain.CatalogEntry
	byLocation    map[string][]int
	byCell        map[cell][]int
	byToken       map[string][]int
	byID          map[string]int
	maxCandidates int
}

// NewIndex buckets entries by location text, grid cell, and name token.
// Bucket contents keep catalog order.
func NewIndex(entries []domain.CatalogEntry, maxCandidates int) *Index {
	if maxCandidates < 1 {
		maxCandidates = DefaultMaxCandidates
	}

	ix := &Index{
		entries:       entries,
		byLocation:    make(map[string][]int),
		byCell:        make(map[cell][]int),
		byToken:       make(map[string][]int),
		byID:          make(map[string]int, len(entries)),
		maxCandidates: maxCandidates,
	}

	for i, e := range entries {
		if _, dup := ix.byID[e.ID]; !dup {
			ix.byID[e.ID] = i
		}

		for _, text := range [2]string{e.Locality, e.City} {
			if key := domain.Normalize(text); key != "" {
				ix.byLocation[key] = appendOnce(ix.byLocation[key], i)
			}
		}

		if p := e.IndexPoint(); p != nil {
			c := cellOf(*p)
			ix.byCell[c] = append(ix.byCell[c], i)
		}

		for _, tok := range nameTokens(e.Name) {
			ix.byToken[tok] = appendOnce(ix.byToken[tok], i)
		}
	}

	return ix
}

// appendOnce appends i unless it is already the last element. Positions are
// added in increasing order, so that is enough to keep a bucket unique.
func appendOnce(bucket []int, i int) []int {
	if n := len(bucket); n > 0 && bucket[n-1] == i {
		return bucket
	}
	return append(bucket, i)
}

func nameTokens(s string) []string {
	var out []string
	for _, tok := range domain.Tokens(s) {
		if utf8.RuneCountInString(tok) >= minTokenLen {
			out = append(out, tok)
		}
	}
	return out
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Lookup returns the entry with the given ID.
func (ix *Index) Lookup(id string) (domain.CatalogEntry, bool) {
	if ix == nil {
		return domain.CatalogEntry{}, false
	}
	i, ok := ix.byID[id]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return ix.entries[i], true
}

// Candidates yields the entries a draft could duplicate: community matches,
// then city matches, then the draft's grid cell and its neighbours, then
// entries sharing a title word. Each entry is yielded at most once and the
// sequence stops after maxCandidates. A draft with none of those inputs
// yields nothing.
func (ix *Index) Candidates(d domain.DraftAttributes) iter.Seq[domain.CatalogEntry] {
	return func(yield func(domain.CatalogEntry) bool) {
		if ix.Len() == 0 {
			return
		}

		seen := make(map[int]struct{})
		emit := func(bucket []int) bool {
			for _, i := range bucket {
				if len(seen) >= ix.maxCandidates {
					return false
				}
				if _, dup := seen[i]; dup {
					continue
				}
				seen[i] = struct{}{}
				if !yield(ix.entries[i]) {
					return false
				}
			}
			return true
		}

		for _, text := range [2]string{d.Community, d.City} {
			if key := domain.Normalize(text); key != "" {
				if !emit(ix.byLocation[key]) {
					return
				}
			}
		}

		if d.Location != nil {
			c := cellOf(*d.Location)
			if !emit(ix.byCell[c]) {
				return
			}
			for _, n := range c.neighbours() {
				if !emit(ix.byCell[n]) {
					return
				}
			}
		}

		for _, tok := range nameTokens(d.Title) {
			if !emit(ix.byToken[tok]) {
				return
			}
		}
	}
}
