package risk_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrisk/logic/risk"
	"loanrisk/types"
)

func testTable() *risk.RuleTable {
	t := risk.NewRuleTable()
	t.Add("Genre", "F", 1.0)
	t.Add("Genre", "M", 2.0)
	t.Add("Situation familiale", "Marié", 1.0)
	t.Add("Situation familiale", "Célibataire", 3.0)
	t.Add("Région", "TUNIS", 5.0)
	t.Add("Région", "GABES", 15.0)
	t.Add("Raison de financement", "CONSOMMATION", 5.0)
	t.Add("Produit", "CREDIT AUTO", 4.0)
	t.Add("Secteur d'activité", "COMMERCE", 5.0)
	t.Add("Niveau d'étude", "Supérieur", 2.0)
	return t
}

func sampleLoan() *types.LoanRecord {
	return &types.LoanRecord{
		LoanID:            json.Number("4217"),
		ExternalID:        "EXT-4217",
		AccountNumber:     "00123",
		StatusLabel:       "Déboursé",
		ProductCode:       "CREDIT AUTO",
		LoanReasonCode:    "CONSOMMATION",
		IndustryCode:      "COMMERCE",
		BranchName:        "AG03",
		BranchDescription: "Agence GABES Sud",
		ApprovedAmount:    25000,
		NormalPayment:     820,
		TermPeriodNum:     36,
		CurrencySymbol:    "TND",
		Assets: []types.LoanAsset{
			{PrixUnitaire: 10000, QuantiteArticle: 2},
			{PrixUnitaire: 500, QuantiteArticle: 1},
		},
		Customer: &types.CustomerDTO{
			ID:            json.Number("88"),
			CustomerName:  "Amal|||Ben Salah",
			CustomerType:  "SARL",
			Gender:        "F",
			MaritalStatus: "married",
			Age:           json.Number("41"),
		},
		UDFData: []types.UDFGroup{
			{
				GroupName: "Profil",
				Fields: []types.UDFField{
					{FieldName: "Niveau d'étude", Value: "university"},
				},
			},
			{
				GroupName: "Divers",
				Fields: []types.UDFField{
					{FieldName: "Commentaire", Value: "RAS"},
				},
			},
		},
	}
}

func TestEvaluate_ScoresAndBuckets(t *testing.T) {
	engine := risk.NewEngine(testTable())

	a, err := engine.Evaluate(sampleLoan())
	require.NoError(t, err)

	// 0 (valid type) + 5 + 1 + 1 + 15 + 4 + 5 + 2 (udf)
	assert.Equal(t, 33.0, a.RiskAssessment.TotalScore)
	assert.Equal(t, "risque élevé", a.RiskAssessment.RiskLevel)

	region := a.RiskAssessment.Indicators["region"]
	assert.Equal(t, "GABES", region.Value)
	assert.Equal(t, 15.0, region.Score)

	udf := a.RiskAssessment.Indicators["udf_niveau_d'étude"]
	assert.Equal(t, "Supérieur", udf.MatchedRule)
	assert.Equal(t, 2.0, udf.Score)
}

func TestEvaluate_Deterministic(t *testing.T) {
	engine := risk.NewEngine(testTable())

	first, err := engine.Evaluate(sampleLoan())
	require.NoError(t, err)
	second, err := engine.Evaluate(sampleLoan())
	require.NoError(t, err)

	assert.Equal(t, first.RiskAssessment, second.RiskAssessment)
}

func TestEvaluate_InvalidCustomerType(t *testing.T) {
	engine := risk.NewEngine(testTable())
	loan := sampleLoan()
	loan.Customer.CustomerType = "Coopérative"

	a, err := engine.Evaluate(loan)
	require.NoError(t, err)

	ind := a.RiskAssessment.Indicators["customerType"]
	assert.Equal(t, "Autres (Not in valid list)", ind.MatchedRule)
	assert.Equal(t, 5.0, ind.Score)
	assert.Equal(t, 38.0, a.RiskAssessment.TotalScore)
}

func TestEvaluate_AMLExcludedFromTotal(t *testing.T) {
	engine := risk.NewEngine(testTable())
	loan := sampleLoan()
	loan.Customer.AMLChecks = []types.AMLCheck{
		{ListName: "OFAC", AMLStatus: "HIT", Score: 30},
		{ListName: "UN", AMLStatus: "CLEAR", Score: 0},
	}

	a, err := engine.Evaluate(loan)
	require.NoError(t, err)

	assert.Equal(t, 33.0, a.RiskAssessment.TotalScore)

	ofac := a.RiskAssessment.Indicators["aml_ofac"]
	assert.Equal(t, 30.0, ofac.Score)
	assert.Equal(t, "medium risk", ofac.RiskLevel)
	assert.Equal(t, "safe", a.RiskAssessment.Indicators["aml_un"].RiskLevel)
}

func TestEvaluate_UDFPartition(t *testing.T) {
	engine := risk.NewEngine(testTable())

	a, err := engine.Evaluate(sampleLoan())
	require.NoError(t, err)

	require.Len(t, a.CustomerInfo.ScoringUDFData, 1)
	assert.Equal(t, "Profil", a.CustomerInfo.ScoringUDFData[0].GroupName)
	require.Len(t, a.CustomerInfo.UDFData, 1)
	assert.Equal(t, "Divers", a.CustomerInfo.UDFData[0].GroupName)
}

func TestEvaluate_ConsolidatesCustomerAndLoan(t *testing.T) {
	engine := risk.NewEngine(testTable())

	a, err := engine.Evaluate(sampleLoan())
	require.NoError(t, err)

	assert.Equal(t, "Amal Ben Salah", a.CustomerInfo.Name)
	assert.Equal(t, "4217", a.LoanInfo.BasicInfo.LoanID)
	assert.Equal(t, 20500.0, a.LoanInfo.Financials.AssetsTotal)
	assert.Equal(t, "TND", a.LoanInfo.Financials.Currency)
}

func TestEvaluate_MissingData(t *testing.T) {
	engine := risk.NewEngine(testTable())

	_, err := engine.Evaluate(nil)
	assert.Error(t, err)

	loan := sampleLoan()
	loan.Customer = nil
	_, err = engine.Evaluate(loan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no customer data")
}

func TestRiskLevel_BucketBounds(t *testing.T) {
	assert.Equal(t, "non risqué", risk.RiskLevel(0))
	assert.Equal(t, "risque faible", risk.RiskLevel(9.9))
	assert.Equal(t, "risque faible", risk.RiskLevel(10.0))
	assert.Equal(t, "risque moyen", risk.RiskLevel(10.1))
	assert.Equal(t, "risque moyen", risk.RiskLevel(25.0))
	assert.Equal(t, "risque élevé", risk.RiskLevel(50.0))
	assert.Equal(t, "risque très élevé", risk.RiskLevel(50.1))
}
