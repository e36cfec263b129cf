package domain

import "time"

// DuplicateDetected is published when a draft's recorded verdict changes to
// soft or strong, so moderation tooling can follow up.
type DuplicateDetected struct {
	DraftID    string    `json:"draftId"`
	ProjectID  string    `json:"projectId"`
	Score      int       `json:"score"`
	Level      Level     `json:"level"`
	DetectedAt time.Time `json:"detectedAt"`
}
