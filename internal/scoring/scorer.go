package scoring

import (
	"math"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

// Component names used in Breakdown.Components.
const (
	ComponentName      = "name"
	ComponentDeveloper = "developer"
	ComponentGeo       = "geo"
	ComponentPrice     = "price"
)

// Breakdown is the comparison of one draft with one catalog entry.
type Breakdown struct {
	// Components holds the sub-scores in [0, 1] of the signals present on
	// both sides. Absent signals have no key.
	Components     map[string]float64
	DistanceMeters *float64
	Fused          float64
	Score          int
}

// Scorer computes similarity between drafts and catalog entries. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer validates cfg and returns a Scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Score compares d with e. The fused score is the weighted mean over the
// signals present on both sides only; a missing field never counts as a
// mismatch.
func (s *Scorer) Score(d domain.DraftAttributes, e domain.CatalogEntry) Breakdown {
	b := Breakdown{Components: make(map[string]float64, 4)}

	if sim, ok := textSimilarity(d.Title, e.Name); ok {
		b.Components[ComponentName] = sim
	}
	if sim, ok := textSimilarity(d.DeveloperName, e.Developer); ok {
		b.Components[ComponentDeveloper] = sim
	}
	if d.Location != nil && e.Location != nil {
		dist := domain.DistanceMeters(*d.Location, *e.Location)
		b.DistanceMeters = &dist
		b.Components[ComponentGeo] = GeoSimilarity(dist, s.cfg.GeoRadiusMeters)
	}
	if d.Price != nil && e.PriceFrom != nil {
		if sim, ok := PriceSimilarity(*d.Price, *e.PriceFrom, s.cfg.PriceTolerance); ok {
			b.Components[ComponentPrice] = sim
		}
	}

	// Fixed order keeps the floating-point sum identical across calls.
	weights := [...]struct {
		key string
		w   float64
	}{
		{ComponentName, s.cfg.NameWeight},
		{ComponentDeveloper, s.cfg.DeveloperWeight},
		{ComponentGeo, s.cfg.GeoWeight},
		{ComponentPrice, s.cfg.PriceWeight},
	}

	var weighted, present float64
	for _, cw := range weights {
		v, ok := b.Components[cw.key]
		if !ok {
			continue
		}
		weighted += v * cw.w
		present += cw.w
	}
	if present > 0 {
		b.Fused = weighted / present
	}
	b.Score = toScore(b.Fused)
	return b
}

func toScore(fused float64) int {
	n := int(math.Round(fused * 100))
	return max(0, min(100, n))
}

func textSimilarity(a, b string) (float64, bool) {
	na, nb := domain.Normalize(a), domain.Normalize(b)
	if na == "" || nb == "" {
		return 0, false
	}
	return similarity(na, nb), true
}

// StringSimilarity returns a similarity in [0, 1] between two strings after
// normalization: the better of the Levenshtein ratio and the token Jaccard
// index. The token measure keeps reordered names ("Heights Marina") close.
func StringSimilarity(a, b string) float64 {
	na, nb := domain.Normalize(a), domain.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	return similarity(na, nb)
}

// similarity expects normalized, non-empty input.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return math.Max(levenshtein.Similarity(a, b, nil), tokenJaccard(a, b))
}

func tokenJaccard(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	set := make(map[string]uint8, len(ta)+len(tb))
	for _, t := range ta {
		set[t] |= 1
	}
	for _, t := range tb {
		set[t] |= 2
	}
	if len(set) == 0 {
		return 0
	}
	shared := 0
	for _, mask := range set {
		if mask == 3 {
			shared++
		}
	}
	return float64(shared) / float64(len(set))
}

// GeoSimilarity decays with distance as a Gaussian of the given radius. It is
// 1 at zero distance and never increases with distance.
func GeoSimilarity(meters, radius float64) float64 {
	if meters <= 0 {
		return 1
	}
	r := meters / radius
	return math.Exp(-0.5 * r * r)
}

// PriceSimilarity falls linearly from 1 at equal prices to 0 at the given
// relative difference. It reports false when either price is not positive.
func PriceSimilarity(a, b, tolerance float64) (float64, bool) {
	if !(a > 0) || !(b > 0) {
		return 0, false
	}
	rel := math.Abs(a-b) / math.Max(a, b)
	return math.Max(0, 1-rel/tolerance), true
}
