package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassificationTruncates(t *testing.T) {
	long := strings.Repeat("x", 5000)
	p := Classification(long)

	assert.Contains(t, p, strings.Repeat("x", 2000))
	assert.NotContains(t, p, strings.Repeat("x", 2001))
	assert.Contains(t, p, "Provide only the contract type as a single string")
}

func TestClassificationShortTextUnchanged(t *testing.T) {
	p := Classification("short lease agreement")
	assert.Contains(t, p, "short lease agreement")
}

func TestFreeCarriesFullText(t *testing.T) {
	// Only classification input is capped; analysis prompts carry the whole
	// document regardless of length.
	long := strings.Repeat("y", 10000)
	p := Free("Lease", long)

	assert.Contains(t, p, long)
	assert.Contains(t, p, "Lease contract")
	assert.Contains(t, p, `"overallScore"`)
}

func TestFreeOmitsPremiumFields(t *testing.T) {
	p := Free("NDA", "text")

	for _, field := range []string{
		"recommendations", "keyClauses", "legalCompliance",
		"negotiationPoints", "contractDuration", "terminationConditions",
		"financialTerms", "performanceMetrics", "intellectualPropertyClauses",
	} {
		assert.NotContains(t, p, field, "free prompt should not request %s", field)
	}
}

func TestPremiumRequestsAllFields(t *testing.T) {
	p := Premium("Employment", strings.Repeat("z", 8000))

	for _, field := range []string{
		"risks", "opportunities", "summary", "overallScore",
		"recommendations", "keyClauses", "legalCompliance",
		"negotiationPoints", "contractDuration", "terminationConditions",
		"financialTerms", "performanceMetrics", "intellectualPropertyClauses",
	} {
		assert.Contains(t, p, field)
	}
	assert.Contains(t, p, strings.Repeat("z", 8000))
	assert.Contains(t, p, "Employment contract")
}

func TestForTier(t *testing.T) {
	assert.Equal(t, Premium("NDA", "t"), ForTier("premium", "NDA", "t"))
	assert.Equal(t, Free("NDA", "t"), ForTier("free", "NDA", "t"))
	assert.Equal(t, Free("NDA", "t"), ForTier("", "NDA", "t"))
}
