package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models wrap the JSON object in markdown fences despite being told not to.
var fenceRe = regexp.MustCompile("```json\\s*|\\s*```")

// ParseResult decodes the engine's analysis output into a loosely-typed map,
// stripping any surrounding ```json fences first.
func ParseResult(text string) (map[string]any, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultParse, err)
	}
	return out, nil
}

// FallbackResult is the fixed payload merged when the engine call fails, so
// an analysis always resolves instead of staying in processing forever. The
// score of 50 is the neutral midpoint, signaling unscored rather than
// favorable or unfavorable.
func FallbackResult() map[string]any {
	return map[string]any{
		"risks": []any{
			map[string]any{
				"risk":        "Error analyzing contract",
				"explanation": "The analysis service encountered an error",
				"severity":    "high",
			},
		},
		"opportunities": []any{
			map[string]any{
				"opportunity": "Try again later",
				"explanation": "The service may be temporarily unavailable",
				"impact":      "medium",
			},
		},
		"summary":      FallbackSummary,
		"overallScore": 50,
	}
}

// FallbackSummary is the summary text of the fallback payload.
const FallbackSummary = "Error analyzing contract. Please try again later."
