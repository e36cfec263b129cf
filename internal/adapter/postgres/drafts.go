// Package postgres stores duplicate-check state on the listing_drafts table.
// The schema belongs to the listings product; only the duplicate_* and
// submitted_at columns are read or written here.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/drafts"
)

// DB is the subset of pgxpool.Pool used by DraftStore.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// DraftStore implements drafts.Store.
type DraftStore struct {
	db DB
}

// NewDraftStore creates a DraftStore.
func NewDraftStore(db DB) *DraftStore {
	return &DraftStore{db: db}
}

const loadDraftSQL = `
	SELECT COALESCE(duplicate_score, -1),
	       COALESCE(duplicate_matched_project_id, ''),
	       COALESCE(duplicate_level, ''),
	       COALESCE(duplicate_override_confirmed, false),
	       submitted_at IS NOT NULL
	FROM listing_drafts
	WHERE id = $1`

// Load reads the draft's duplicate-check state.
func (s *DraftStore) Load(ctx context.Context, draftID string) (drafts.State, error) {
	var (
		score int
		level string
		st    = drafts.State{DraftID: draftID}
	)
	err := s.db.QueryRow(ctx, loadDraftSQL, draftID).Scan(
		&score, &st.MatchedProjectID, &level, &st.OverrideConfirmed, &st.Submitted,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return drafts.State{}, drafts.ErrDraftNotFound
	}
	if err != nil {
		return drafts.State{}, fmt.Errorf("postgres: load draft: %w", err)
	}

	if score >= 0 {
		st.Score = &score
	}
	st.Level = domain.Level(level)
	return st, nil
}

const saveResultSQL = `
	UPDATE listing_drafts
	SET duplicate_score = $2,
	    duplicate_matched_project_id = NULLIF($3, ''),
	    duplicate_level = $4,
	    duplicate_override_confirmed = CASE WHEN $5::boolean THEN false ELSE duplicate_override_confirmed END
	WHERE id = $1`

// SaveResult writes the verdict, optionally clearing the override.
func (s *DraftStore) SaveResult(ctx context.Context, draftID string, res domain.MatchResult, clearOverride bool) error {
	tag, err := s.db.Exec(ctx, saveResultSQL,
		draftID, res.Score, res.MatchedProjectID(), string(res.Level), clearOverride)
	return checkUpdate(tag, err, "save result")
}

const setOverrideSQL = `
	UPDATE listing_drafts
	SET duplicate_override_confirmed = $2
	WHERE id = $1`

// SetOverride records the agent's override decision.
func (s *DraftStore) SetOverride(ctx context.Context, draftID string, confirmed bool) error {
	tag, err := s.db.Exec(ctx, setOverrideSQL, draftID, confirmed)
	return checkUpdate(tag, err, "set override")
}

const markSubmittedSQL = `
	UPDATE listing_drafts
	SET submitted_at = COALESCE(submitted_at, $2)
	WHERE id = $1`

// MarkSubmitted stamps the submission time. An existing stamp is kept.
func (s *DraftStore) MarkSubmitted(ctx context.Context, draftID string, at time.Time) error {
	tag, err := s.db.Exec(ctx, markSubmittedSQL, draftID, at)
	return checkUpdate(tag, err, "mark submitted")
}

func checkUpdate(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return fmt.Errorf("postgres: %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return drafts.ErrDraftNotFound
	}
	return nil
}
