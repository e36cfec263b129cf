// Package dupcheck answers whether a draft listing duplicates a verified
// catalog project.
package dupcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/listing-dupcheck/internal/catalog"
	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
	"github.com/couchcryptid/listing-dupcheck/internal/scoring"
)

// SnapshotSource supplies the catalog snapshot to check against.
type SnapshotSource interface {
	Get(ctx context.Context) *catalog.Snapshot
}

// Service is the duplicate-check entry point. It reads the catalog but never
// writes anything; recording a verdict on a draft is the caller's job.
type Service struct {
	snapshots SnapshotSource
	scorer    *scoring.Scorer
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service.
func New(snapshots SnapshotSource, scorer *scoring.Scorer, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		snapshots: snapshots,
		scorer:    scorer,
		logger:    logger,
		metrics:   metrics,
	}
}

// Check scores the draft against its candidates and returns the verdict for
// the best one. It always returns a result: an unavailable catalog or an
// empty draft yields a none verdict. Calling it twice with the same draft
// against the same snapshot gives the same result.
func (s *Service) Check(ctx context.Context, d domain.DraftAttributes) domain.MatchResult {
	start := time.Now()

	if !d.HasSignal() {
		s.observe(start, domain.NoMatch(), 0)
		return domain.NoMatch()
	}

	snap := s.snapshots.Get(ctx)

	var sel scoring.Selector
	for e := range snap.Index().Candidates(d) {
		b := s.scorer.Score(d, e)
		sel.Offer(scoring.Candidate{Entry: e, Score: b.Score, DistanceMeters: b.DistanceMeters})
	}
	res := sel.Result()

	s.observe(start, res, sel.Count())
	s.logger.Debug("duplicate check",
		"level", res.Level,
		"score", res.Score,
		"matched_project_id", res.MatchedProjectID(),
		"candidates", sel.Count(),
		"catalog_entries", snap.Len(),
	)
	return res
}

func (s *Service) observe(start time.Time, res domain.MatchResult, candidates int) {
	s.metrics.ChecksTotal.WithLabelValues(string(res.Level)).Inc()
	s.metrics.CandidatesScanned.Observe(float64(candidates))
	s.metrics.CheckDuration.Observe(time.Since(start).Seconds())
}
