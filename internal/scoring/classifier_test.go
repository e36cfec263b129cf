package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score int
		want  domain.Level
	}{
		{100, domain.LevelStrong},
		{75, domain.LevelStrong},
		{74, domain.LevelSoft},
		{50, domain.LevelSoft},
		{49, domain.LevelNone},
		{0, domain.LevelNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %d", tt.score)
	}

	for score := 0; score <= 100; score++ {
		level := Classify(score)
		switch {
		case score >= 75:
			require.Equal(t, domain.LevelStrong, level)
		case score >= 50:
			require.Equal(t, domain.LevelSoft, level)
		default:
			require.Equal(t, domain.LevelNone, level)
		}
	}
}

func cand(id string, score int, dist *float64) Candidate {
	return Candidate{Entry: domain.CatalogEntry{ID: id, Name: "Project " + id, Developer: "Dev"}, Score: score, DistanceMeters: dist}
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)

	best, _ := Best([]Candidate{cand("a", 60, nil), cand("b", 80, nil), cand("c", 70, ptr(1.0))})
	assert.Equal(t, "b", best.Entry.ID, "highest score wins")

	best, _ = Best([]Candidate{cand("a", 80, nil), cand("b", 80, ptr(900.0))})
	assert.Equal(t, "b", best.Entry.ID, "defined distance beats undefined")

	best, _ = Best([]Candidate{cand("a", 80, ptr(900.0)), cand("b", 80, ptr(20.0)), cand("c", 80, nil)})
	assert.Equal(t, "b", best.Entry.ID, "smaller distance wins")

	best, _ = Best([]Candidate{cand("a", 80, ptr(20.0)), cand("b", 80, ptr(20.0))})
	assert.Equal(t, "a", best.Entry.ID, "full ties keep catalog order")

	best, _ = Best([]Candidate{cand("a", 80, nil), cand("b", 80, nil)})
	assert.Equal(t, "a", best.Entry.ID)
}

func TestSelectorResult(t *testing.T) {
	var empty Selector
	assert.Equal(t, domain.NoMatch(), empty.Result())

	var zero Selector
	zero.Offer(cand("a", 0, nil))
	assert.Equal(t, domain.NoMatch(), zero.Result())
	assert.Equal(t, 1, zero.Count())

	var weak Selector
	weak.Offer(cand("a", 40, nil))
	res := weak.Result()
	assert.Equal(t, 40, res.Score)
	assert.Equal(t, domain.LevelNone, res.Level)
	assert.Nil(t, res.Match, "no match below the none floor")

	var soft Selector
	soft.Offer(cand("a", 45, nil))
	soft.Offer(cand("b", 62, ptr(120.0)))
	res = soft.Result()
	assert.Equal(t, 62, res.Score)
	assert.Equal(t, domain.LevelSoft, res.Level)
	require.NotNil(t, res.Match)
	assert.Equal(t, "b", res.Match.ProjectID)
	assert.Equal(t, 62, res.Match.Score)
	assert.Equal(t, "Project b", res.Match.Name)
	assert.Equal(t, "Dev", res.Match.Developer)
	require.NotNil(t, res.Match.DistanceMeters)
	assert.InDelta(t, 120, *res.Match.DistanceMeters, 0)
}
