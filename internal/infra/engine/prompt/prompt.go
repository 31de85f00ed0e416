package prompt

import (
	"fmt"
)

// classifyLimit bounds classification input; type detection does not need the
// full contract and this caps cost and latency.
const classifyLimit = 2000

// Classification asks for exactly one label string and nothing else.
func Classification(contractText string) string {
	if len(contractText) > classifyLimit {
		contractText = contractText[:classifyLimit]
	}
	return fmt.Sprintf(`Analyze the following contract text and determine the type of contract it is.
Provide only the contract type as a single string (e.g., "Employment", "Non-Disclosure Agreement", "Sales", "Lease", etc.).
Do not include any additional explanation or text.

Contract text:
%s
`, contractText)
}

// Free builds the free-tier analysis prompt. The full contract text is sent;
// free requests are not truncated.
func Free(contractType, contractText string) string {
	return fmt.Sprintf(`Analyze the following %s contract and provide:
1. A list of at least 5 potential risks for the party receiving the contract, each with a brief explanation and severity level (low, medium, high).
2. A list of at least 5 potential opportunities or benefits for the receiving party, each with a brief explanation and impact level (low, medium, high).
3. A brief summary of the contract
4. An overall score from 1 to 100, with 100 being the highest. This score represents the overall favorability of the contract based on the identified risks and opportunities.

Format your response as a JSON object with the following structure:
{
  "risks": [{"risk": "Risk description", "explanation": "Brief explanation", "severity": "low|medium|high"}],
  "opportunities": [{"opportunity": "Opportunity description", "explanation": "Brief explanation", "impact": "low|medium|high"}],
  "summary": "Brief summary of the contract",
  "overallScore": "Overall score from 1 to 100"
}

Important: Provide only the JSON object in your response, without any additional text or formatting.

Contract text:
%s
`, contractType, contractText)
}

// Premium builds the premium-tier analysis prompt with the full field set.
func Premium(contractType, contractText string) string {
	return fmt.Sprintf(`Analyze the following %s contract and provide:
1. A list of at least 10 potential risks for the party receiving the contract, each with a brief explanation and severity level (low, medium, high).
2. A list of at least 10 potential opportunities or benefits for the receiving party, each with a brief explanation and impact level (low, medium, high).
3. A comprehensive summary of the contract, including key terms and conditions.
4. Any recommendations for improving the contract from the receiving party's perspective.
5. A list of key clauses in the contract.
6. An assessment of the contract's legal compliance.
7. A list of potential negotiation points.
8. The contract duration or term, if applicable.
9. A summary of termination conditions, if applicable.
10. A breakdown of any financial terms or compensation structure, if applicable.
11. Any performance metrics or KPIs mentioned, if applicable.
12. A summary of any specific clauses relevant to this type of contract (e.g., intellectual property for employment contracts, warranties for sales contracts).
13. An overall score from 1 to 100, with 100 being the highest. This score represents the overall favorability of the contract based on the identified risks and opportunities.

Format your response as a JSON object with the following structure:
{
  "risks": [{"risk": "Risk description", "explanation": "Brief explanation", "severity": "low|medium|high"}],
  "opportunities": [{"opportunity": "Opportunity description", "explanation": "Brief explanation", "impact": "low|medium|high"}],
  "summary": "Comprehensive summary of the contract",
  "recommendations": ["Recommendation 1", "Recommendation 2", ...],
  "keyClauses": ["Clause 1", "Clause 2", ...],
  "legalCompliance": "Assessment of legal compliance",
  "negotiationPoints": ["Point 1", "Point 2", ...],
  "contractDuration": "Duration of the contract, if applicable",
  "terminationConditions": "Summary of termination conditions, if applicable",
  "overallScore": "Overall score from 1 to 100",
  "financialTerms": {
    "description": "Overview of financial terms",
    "details": ["Detail 1", "Detail 2", ...]
  },
  "performanceMetrics": ["Metric 1", "Metric 2", ...],
  "intellectualPropertyClauses": "Summary of intellectual property clauses, if applicable"
}

Important: Provide only the JSON object in your response, without any additional text or formatting.

Contract text:
%s
`, contractType, contractText)
}

// ForTier selects the analysis template for a tier. Anything that is not
// premium gets the free template.
func ForTier(tier, contractType, contractText string) string {
	if tier == "premium" {
		return Premium(contractType, contractText)
	}
	return Free(contractType, contractText)
}
