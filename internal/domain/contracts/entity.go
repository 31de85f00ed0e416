package contracts

import (
	"encoding/json"
	"strings"
	"time"
)

// ID tipe untuk ContractAnalysis
type AnalysisID string

// Tier enum
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Status enum, derived from record completeness (never stored)
type Status string

const (
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
)

// Risk value object
type Risk struct {
	Risk        string `json:"risk"`
	Explanation string `json:"explanation"`
	Severity    string `json:"severity"` // low, medium, high
}

// Opportunity value object
type Opportunity struct {
	Opportunity string `json:"opportunity"`
	Explanation string `json:"explanation"`
	Impact      string `json:"impact"` // low, medium, high
}

// FinancialTerms value object
type FinancialTerms struct {
	Description string   `json:"description"`
	Details     []string `json:"details"`
}

// UserFeedback value object, settable by the owner any time after creation
type UserFeedback struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// IPClauses holds intellectual-property clauses, which the engine may return
// either as one string or as a list of strings. Exactly one side is set.
type IPClauses struct {
	Text string   `json:"-"`
	List []string `json:"-"`
}

func (c IPClauses) IsZero() bool { return c.Text == "" && c.List == nil }

func (c IPClauses) MarshalJSON() ([]byte, error) {
	if c.List != nil {
		return json.Marshal(c.List)
	}
	return json.Marshal(c.Text)
}

func (c *IPClauses) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = IPClauses{List: list}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*c = IPClauses{Text: text}
	return nil
}

// IPClausesFromAny converts a loosely-typed engine value into the union.
// Unrecognized shapes yield the zero value.
func IPClausesFromAny(v any) IPClauses {
	switch t := v.(type) {
	case string:
		return IPClauses{Text: t}
	case []any:
		list := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		if len(list) > 0 {
			return IPClauses{List: list}
		}
	}
	return IPClauses{}
}

// Aggregate Root: ContractAnalysis
type ContractAnalysis struct {
	ID           AnalysisID `json:"id"`
	UserID       string     `json:"user_id"`
	ContractText string     `json:"contract_text"`
	ContractType string     `json:"contract_type"`

	// Completion fields, empty until the merge step runs.
	Summary               string          `json:"summary,omitempty"`
	OverallScore          int             `json:"overall_score,omitempty"`
	Risks                 []Risk          `json:"risks,omitempty"`
	Opportunities         []Opportunity   `json:"opportunities,omitempty"`
	Recommendations       []string        `json:"recommendations,omitempty"`
	KeyClauses            []string        `json:"key_clauses,omitempty"`
	LegalCompliance       string          `json:"legal_compliance,omitempty"`
	NegotiationPoints     []string        `json:"negotiation_points,omitempty"`
	ContractDuration      string          `json:"contract_duration,omitempty"`
	TerminationConditions string          `json:"termination_conditions,omitempty"`
	FinancialTerms        *FinancialTerms `json:"financial_terms,omitempty"`
	PerformanceMetrics    []string        `json:"performance_metrics,omitempty"`
	IPClauses             IPClauses       `json:"intellectual_property_clauses,omitzero"`

	Feedback *UserFeedback `json:"user_feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
	Language  string    `json:"language"`
	AIModel   string    `json:"ai_model"`
}

// AnalysisStatus derives the coarse polling status: complete once the merge
// step has populated a summary, processing before that.
func (a *ContractAnalysis) AnalysisStatus() Status {
	if strings.TrimSpace(a.Summary) != "" {
		return StatusComplete
	}
	return StatusProcessing
}

// StatusPayload is what the status endpoint returns. Risks, opportunities and
// the premium fields are only reachable through the full record read.
func (a *ContractAnalysis) StatusPayload() map[string]any {
	out := map[string]any{
		"analysisId": a.ID,
		"status":     a.AnalysisStatus(),
	}
	if a.AnalysisStatus() == StatusComplete {
		out["contractType"] = a.ContractType
		out["summary"] = a.Summary
		out["overallScore"] = a.OverallScore
	}
	return out
}
