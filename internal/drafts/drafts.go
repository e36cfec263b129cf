// Package drafts records duplicate-check verdicts onto agent draft listings
// and gates their submission.
package drafts

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

var (
	// ErrDraftNotFound is returned when no draft has the given ID.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrSubmissionBlocked is returned when a draft with a strong duplicate
	// match is submitted without a confirmed override.
	ErrSubmissionBlocked = errors.New("submission blocked: strong duplicate match requires override confirmation")
)

// State is the duplicate-check data stored on a draft.
type State struct {
	DraftID string
	// Score is nil until a verdict has been recorded.
	Score             *int
	MatchedProjectID  string
	Level             domain.Level
	OverrideConfirmed bool
	Submitted         bool
}

// Differs reports whether res would change the stored score or match.
func (s State) Differs(res domain.MatchResult) bool {
	return s.Score == nil ||
		*s.Score != res.Score ||
		s.MatchedProjectID != res.MatchedProjectID()
}

// Store persists draft state. Every method returns ErrDraftNotFound for an
// unknown draft.
type Store interface {
	Load(ctx context.Context, draftID string) (State, error)
	// SaveResult writes the verdict. clearOverride resets any confirmed
	// override in the same write.
	SaveResult(ctx context.Context, draftID string, res domain.MatchResult, clearOverride bool) error
	SetOverride(ctx context.Context, draftID string, confirmed bool) error
	MarkSubmitted(ctx context.Context, draftID string, at time.Time) error
}

// Notifier is told when a draft's recorded verdict becomes soft or strong.
type Notifier interface {
	DuplicateDetected(ctx context.Context, evt domain.DuplicateDetected) error
}

// Gate reports whether a draft may be submitted. Only a strong verdict
// without an override blocks.
func Gate(s State, override bool) error {
	if s.Level == domain.LevelStrong && !override && !s.OverrideConfirmed {
		return ErrSubmissionBlocked
	}
	return nil
}
