package drafts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/observability"
)

// Recorder applies verdicts and submissions to stored drafts.
type Recorder struct {
	store    Store
	notifier Notifier
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewRecorder creates a Recorder. notifier may be nil.
func NewRecorder(store Store, notifier Notifier, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{
		store:    store,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Record stores res on the draft when its score or matched project differs
// from what is stored, and reports whether it wrote. A strong verdict that is
// new, or that points at a different project than the stored one, clears any
// earlier override, since that override was given for a different match.
func (r *Recorder) Record(ctx context.Context, draftID string, res domain.MatchResult) (bool, error) {
	st, err := r.store.Load(ctx, draftID)
	if err != nil {
		r.metrics.DraftsRecorded.WithLabelValues("error").Inc()
		return false, fmt.Errorf("load draft %s: %w", draftID, err)
	}

	if !st.Differs(res) {
		r.metrics.DraftsRecorded.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	clearOverride := res.Level == domain.LevelStrong &&
		(st.Level != domain.LevelStrong || st.MatchedProjectID != res.MatchedProjectID())
	if err := r.store.SaveResult(ctx, draftID, res, clearOverride); err != nil {
		r.metrics.DraftsRecorded.WithLabelValues("error").Inc()
		return false, fmt.Errorf("save draft %s: %w", draftID, err)
	}
	r.metrics.DraftsRecorded.WithLabelValues("updated").Inc()

	r.logger.Info("draft duplicate verdict recorded",
		"draft_id", draftID,
		"score", res.Score,
		"level", res.Level,
		"matched_project_id", res.MatchedProjectID(),
		"override_cleared", clearOverride && st.OverrideConfirmed,
	)

	if res.Level != domain.LevelNone {
		r.notify(ctx, draftID, res)
	}
	return true, nil
}

// notify publishes best-effort; a failure never fails the recording.
func (r *Recorder) notify(ctx context.Context, draftID string, res domain.MatchResult) {
	if r.notifier == nil {
		return
	}

	evt := domain.DuplicateDetected{
		DraftID:    draftID,
		ProjectID:  res.MatchedProjectID(),
		Score:      res.Score,
		Level:      res.Level,
		DetectedAt: r.clock.Now().UTC(),
	}
	if err := r.notifier.DuplicateDetected(ctx, evt); err != nil {
		r.metrics.EventsPublished.WithLabelValues("error").Inc()
		r.logger.Warn("duplicate event publish failed", "draft_id", draftID, "error", err)
		return
	}
	r.metrics.EventsPublished.WithLabelValues("success").Inc()
}

// Submit marks the draft submitted unless its stored verdict is strong and
// no override is confirmed, in which case it returns ErrSubmissionBlocked.
// A true override is persisted before the gate is applied.
func (r *Recorder) Submit(ctx context.Context, draftID string, override bool) error {
	st, err := r.store.Load(ctx, draftID)
	if err != nil {
		return fmt.Errorf("load draft %s: %w", draftID, err)
	}

	if override && !st.OverrideConfirmed {
		if err := r.store.SetOverride(ctx, draftID, true); err != nil {
			return fmt.Errorf("confirm override on draft %s: %w", draftID, err)
		}
		st.OverrideConfirmed = true
	}

	if err := Gate(st, override); err != nil {
		r.metrics.SubmissionsGated.WithLabelValues("blocked").Inc()
		r.logger.Info("draft submission blocked",
			"draft_id", draftID,
			"level", st.Level,
			"matched_project_id", st.MatchedProjectID,
		)
		return err
	}
	r.metrics.SubmissionsGated.WithLabelValues("allowed").Inc()

	if st.Submitted {
		return nil
	}
	if err := r.store.MarkSubmitted(ctx, draftID, r.clock.Now().UTC()); err != nil {
		return fmt.Errorf("submit draft %s: %w", draftID, err)
	}
	return nil
}
