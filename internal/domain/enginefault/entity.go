package enginefault

import "time"

// Fault represents a persisted engine failure that sent an analysis down the
// fallback path. Kept for auditing; never surfaced to the submitting caller.
type Fault struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	AnalysisID string    `json:"analysis_id"`
	Provider   string    `json:"provider,omitempty"`
	Phase      string    `json:"phase,omitempty"` // classify | analyze
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
