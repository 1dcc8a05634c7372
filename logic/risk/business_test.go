package risk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrisk/logic/risk"
	"loanrisk/types"
)

func overlayAssessment(region string, amount float64) *types.Assessment {
	return &types.Assessment{
		LoanInfo: types.LoanInfo{
			Financials: types.LoanFinancials{LoanAmount: amount},
		},
		RiskAssessment: types.RiskAssessment{
			Indicators: map[string]types.RiskIndicator{
				"region": {Value: region, MatchedRule: region},
			},
		},
	}
}

func TestOverlay_RegionRule(t *testing.T) {
	overlay := risk.NewOverlay(risk.DefaultOverlayConfig())

	results := overlay.Apply(overlayAssessment("GABES", 500))
	require.Len(t, results, 1)
	assert.Equal(t, "region_risk", results[0].Rule)
	assert.Equal(t, 15.0, results[0].Impact["score"])
}

func TestOverlay_AmountRule(t *testing.T) {
	overlay := risk.NewOverlay(risk.DefaultOverlayConfig())

	results := overlay.Apply(overlayAssessment("SFAX", 15000))
	require.Len(t, results, 1)
	assert.Equal(t, "loan_amount_threshold", results[0].Rule)
}

func TestOverlay_PriorityOrder(t *testing.T) {
	overlay := risk.NewOverlay(risk.DefaultOverlayConfig())

	results := overlay.Apply(overlayAssessment("TUNIS", 50000))
	require.Len(t, results, 2)
	assert.Equal(t, "region_risk", results[0].Rule)
	assert.Equal(t, "loan_amount_threshold", results[1].Rule)
}

func TestOverlay_NothingFires(t *testing.T) {
	overlay := risk.NewOverlay(risk.DefaultOverlayConfig())

	results := overlay.Apply(overlayAssessment("SFAX", 500))
	assert.Empty(t, results)
}

func TestOverlay_AdvisoryOnly(t *testing.T) {
	overlay := risk.NewOverlay(risk.DefaultOverlayConfig())
	a := overlayAssessment("GABES", 50000)
	a.RiskAssessment.TotalScore = 12

	overlay.Apply(a)
	assert.Equal(t, 12.0, a.RiskAssessment.TotalScore)
}

func TestLoadOverlayConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "high_risk_regions: [SFAX]\nregion_impact: 7\nloan_amount_threshold: 2000\namount_impact: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := risk.LoadOverlayConfig(path)
	assert.Equal(t, []string{"SFAX"}, cfg.HighRiskRegions)
	assert.Equal(t, 7.0, cfg.RegionImpact)

	// Missing file falls back to defaults.
	assert.Equal(t, risk.DefaultOverlayConfig(), risk.LoadOverlayConfig(filepath.Join(t.TempDir(), "absent.yaml")))
}
