package domain

// Level is the confidence tier of a duplicate-check verdict.
type Level string

const (
	LevelNone   Level = "none"
	LevelSoft   Level = "soft"
	LevelStrong Level = "strong"
)

// MatchResult is the verdict returned for one draft.
type MatchResult struct {
	Score int    `json:"score"`
	Level Level  `json:"level"`
	Match *Match `json:"match"`
}

// Match references the catalog entry a draft most likely duplicates.
type Match struct {
	ProjectID      string   `json:"projectId"`
	Score          int      `json:"score"`
	Name           string   `json:"name"`
	Developer      string   `json:"developer"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// NoMatch is the fail-open verdict.
func NoMatch() MatchResult {
	return MatchResult{Score: 0, Level: LevelNone}
}

// MatchedProjectID returns the matched entry ID, or "" when there is none.
func (r MatchResult) MatchedProjectID() string {
	if r.Match == nil {
		return ""
	}
	return r.Match.ProjectID
}
