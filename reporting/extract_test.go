package reporting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrisk/reporting"
	"loanrisk/types"
)

func renderedReport() string {
	return reporting.Render(&types.Assessment{
		CustomerInfo: types.CustomerInfo{Name: "Amal Ben Salah", Type: "SARL"},
		LoanInfo: types.LoanInfo{
			BasicInfo:  types.LoanBasicInfo{LoanID: "4217"},
			Financials: types.LoanFinancials{LoanAmount: 25000, Currency: "TND", TermMonths: 36},
		},
		RiskAssessment: types.RiskAssessment{
			Indicators: map[string]types.RiskIndicator{
				"region": {Value: "GABES", MatchedRule: "GABES", Score: 15, RiskLevel: "risque moyen"},
				"aml_un": {Value: "CLEAR", MatchedRule: "UN", Score: 0, RiskLevel: "safe"},
			},
			TotalScore: 33,
			RiskLevel:  "risque élevé",
		},
		BusinessRules: []types.BusinessRuleResult{
			{Rule: "region_risk", Impact: map[string]any{"score": 15.0, "message": "High risk region"}},
		},
		LLMAnalysis: &types.Analysis{
			Summary:        "Exposure is heavy for the stated income.",
			Recommendation: types.RecommendDeny,
			Rationale:      []string{"overleveraged"},
			KeyFindings:    []string{"assets thin"},
			Conditions:     []string{"none"},
			AnalysisType:   "basic",
			Elapsed:        2.3,
		},
	})
}

func TestRender_CarriesSections(t *testing.T) {
	report := renderedReport()

	assert.Contains(t, report, "LOAN RISK ASSESSMENT REPORT")
	assert.Contains(t, report, "Loan ID: 4217")
	assert.Contains(t, report, "TOTAL RISK SCORE: 33.0 (risque élevé)")
	assert.Contains(t, report, "RECOMMENDATION: DENY")
	assert.Contains(t, report, "region_risk: High risk region")
	assert.Contains(t, report, "not scored")
}

func TestExtract_RoundTrip(t *testing.T) {
	facts := reporting.Extract(renderedReport())

	assert.Equal(t, "deny", facts.Recommendation)
	assert.Equal(t, 33.0, facts.TotalScore)
	assert.Equal(t, "risque élevé", facts.RiskLevel)
	assert.Equal(t, "Exposure is heavy for the stated income.", facts.Summary)
	assert.Equal(t, []string{"assets thin"}, facts.KeyFindings)
	assert.Equal(t, []string{"none"}, facts.Conditions)
}

func TestExtract_RecoversMultiItemLists(t *testing.T) {
	report := reporting.Render(&types.Assessment{
		RiskAssessment: types.RiskAssessment{TotalScore: 12, RiskLevel: "risque moyen"},
		LLMAnalysis: &types.Analysis{
			Summary:        "Borderline application.",
			Recommendation: types.RecommendReview,
			KeyFindings:    []string{"income unverified", "second loan running"},
			Conditions:     []string{"verify income", "cap the term at 24 months"},
			AnalysisType:   "basic",
		},
	})

	facts := reporting.Extract(report)
	assert.Equal(t, []string{"income unverified", "second loan running"}, facts.KeyFindings)
	assert.Equal(t, []string{"verify income", "cap the term at 24 months"}, facts.Conditions)
}

func TestExtract_ToleratesMissingSections(t *testing.T) {
	report := reporting.Render(&types.Assessment{
		RiskAssessment: types.RiskAssessment{TotalScore: 4, RiskLevel: "risque faible"},
	})

	facts := reporting.Extract(report)
	require.Equal(t, "", facts.Recommendation)
	assert.Equal(t, 4.0, facts.TotalScore)
	assert.Equal(t, "risque faible", facts.RiskLevel)
	assert.Empty(t, facts.KeyFindings)
	assert.Empty(t, facts.Conditions)
}
