package contracts

import (
	"strconv"
	"strings"
)

// ApplyResults copies a loosely-typed engine result into the typed completion
// fields. The merge is total: a key with an unexpected shape is skipped for
// that field, unknown keys are ignored, and nothing here can fail the save.
// List fields are replaced wholesale, so re-applying the same payload leaves
// the record unchanged. Owner, contract text and feedback are never touched.
func (a *ContractAnalysis) ApplyResults(results map[string]any) {
	if s, ok := results["summary"].(string); ok {
		a.Summary = s
	}

	if v, ok := results["overallScore"]; ok {
		if score, ok := scoreFromAny(v); ok {
			a.OverallScore = score
		}
	}

	if items, ok := results["risks"].([]any); ok {
		risks := make([]Risk, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			risks = append(risks, Risk{
				Risk:        stringField(m, "risk"),
				Explanation: stringField(m, "explanation"),
				Severity:    stringField(m, "severity"),
			})
		}
		a.Risks = risks
	}

	if items, ok := results["opportunities"].([]any); ok {
		opps := make([]Opportunity, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			opps = append(opps, Opportunity{
				Opportunity: stringField(m, "opportunity"),
				Explanation: stringField(m, "explanation"),
				Impact:      stringField(m, "impact"),
			})
		}
		a.Opportunities = opps
	}

	// Premium-only fields. A free-tier result simply omits them.
	if list, ok := stringList(results["recommendations"]); ok {
		a.Recommendations = list
	}
	if list, ok := stringList(results["keyClauses"]); ok {
		a.KeyClauses = list
	}
	if s, ok := results["legalCompliance"].(string); ok {
		a.LegalCompliance = s
	}
	if list, ok := stringList(results["negotiationPoints"]); ok {
		a.NegotiationPoints = list
	}
	if s, ok := results["contractDuration"].(string); ok {
		a.ContractDuration = s
	}
	if s, ok := results["terminationConditions"].(string); ok {
		a.TerminationConditions = s
	}
	if list, ok := stringList(results["performanceMetrics"]); ok {
		a.PerformanceMetrics = list
	}
	if v, ok := results["intellectualPropertyClauses"]; ok {
		if ip := IPClausesFromAny(v); !ip.IsZero() {
			a.IPClauses = ip
		}
	}

	if m, ok := results["financialTerms"].(map[string]any); ok {
		ft := &FinancialTerms{Description: stringField(m, "description")}
		if details, ok := stringList(m["details"]); ok {
			ft.Details = details
		}
		a.FinancialTerms = ft
	}
}

// scoreFromAny accepts the overall score as a JSON number or a numeric
// string. Anything else leaves the field unset.
func scoreFromAny(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// stringList accepts only an actual sequence; string elements are kept and
// anything else in the slice is dropped.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
