package scoring

import "github.com/couchcryptid/listing-dupcheck/internal/domain"

// Verdict thresholds on the 0-100 score.
const (
	StrongThreshold = 75
	SoftThreshold   = 50
)

// Classify maps a score to its level. It depends on nothing but the score.
func Classify(score int) domain.Level {
	switch {
	case score >= StrongThreshold:
		return domain.LevelStrong
	case score >= SoftThreshold:
		return domain.LevelSoft
	default:
		return domain.LevelNone
	}
}

// Candidate is a scored catalog entry.
type Candidate struct {
	Entry          domain.CatalogEntry
	Score          int
	DistanceMeters *float64
}

// better reports whether a should replace b as the best candidate: higher
// score, then a known distance over an unknown one, then the smaller distance.
// Full ties keep b, so earlier candidates win.
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	switch {
	case a.DistanceMeters == nil:
		return false
	case b.DistanceMeters == nil:
		return true
	default:
		return *a.DistanceMeters < *b.DistanceMeters
	}
}

// Selector keeps the best candidate offered so far. The zero value is ready
// to use.
type Selector struct {
	best  Candidate
	count int
}

// Offer considers c against the current best.
func (s *Selector) Offer(c Candidate) {
	if s.count == 0 || better(c, s.best) {
		s.best = c
	}
	s.count++
}

// Count returns the number of candidates offered.
func (s *Selector) Count() int { return s.count }

// Best returns the best candidate, or false if none was offered.
func (s *Selector) Best() (Candidate, bool) {
	return s.best, s.count > 0
}

// Result builds the verdict from the best candidate. The match is attached
// only when the level is above none.
func (s *Selector) Result() domain.MatchResult {
	best, ok := s.Best()
	if !ok || best.Score <= 0 {
		return domain.NoMatch()
	}

	res := domain.MatchResult{Score: best.Score, Level: Classify(best.Score)}
	if res.Level == domain.LevelNone {
		return res
	}
	res.Match = &domain.Match{
		ProjectID:      best.Entry.ID,
		Score:          best.Score,
		Name:           best.Entry.Name,
		Developer:      best.Entry.Developer,
		DistanceMeters: best.DistanceMeters,
		URL:            best.Entry.URL,
	}
	return res
}

// Best returns the best of cands, or false if cands is empty.
func Best(cands []Candidate) (Candidate, bool) {
	var s Selector
	for _, c := range cands {
		s.Offer(c)
	}
	return s.Best()
}
