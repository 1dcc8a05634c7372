package risk

import (
	"fmt"
	"strings"
	"time"

	"loanrisk/types"
)

// Engine scores a loan record field by field against the rule table. It is
// read-only after construction and safe for concurrent evaluations.
type Engine struct {
	rules *RuleTable
	norm  *Normalizer

	// standardFields is the fixed evaluation order for the structured part
	// of the record.
	standardFields []string

	// fieldMappings maps standard field names to rule categories.
	fieldMappings map[string]string

	// udfFieldMappings maps recognized supplementary field names to rule
	// categories. This side table is the only coupling between the open UDF
	// representation and the scorer.
	udfFieldMappings map[string]string
}

func NewEngine(rules *RuleTable) *Engine {
	return &Engine{
		rules:          rules,
		norm:           NewNormalizer(),
		standardFields: []string{"customerType", "loanPurpose", "gender", "maritalStatus", "region", "product", "industryCode"},
		fieldMappings: map[string]string{
			"customerType":  "Forme Juridique du B.EFFECTIF",
			"loanPurpose":   "Raison de financement",
			"gender":        "Genre",
			"maritalStatus": "Situation familiale",
			"region":        "Région",
			"product":       "Produit",
			"industryCode":  "Secteur d'activité",
		},
		udfFieldMappings: map[string]string{
			"Type d'activité":                "Type d'activité",
			"Niveau d'étude":                 "Niveau d'étude",
			"Type Logement":                  "Type de logement",
			"Couverture sociale":             "Couverture sociale",
			"Patenté":                        "Patenté",
			"Résident":                       "Résident",
			"Forme juridique":                "Forme Juridique du B.EFFECTIF",
			"Appréciation du niveau de vie":  "Niveau de vie",
		},
	}
}

// Evaluate produces the risk portion of an Assessment. It errors on missing
// required data; it never silently drops a field — values without a matching
// rule or category are recorded with a zero score and an explicit marker.
func (e *Engine) Evaluate(loan *types.LoanRecord) (*types.Assessment, error) {
	if loan == nil {
		return nil, fmt.Errorf("risk evaluation: nil loan record")
	}
	if loan.Customer == nil {
		return nil, fmt.Errorf("risk evaluation: loan %s has no customer data", loan.LoanID.String())
	}

	info := e.consolidateCustomer(loan)
	region := e.extractRegion(loan.BranchDescription, info.Address)

	values := map[string]string{
		"customerType":  info.Type,
		"loanPurpose":   loan.LoanReasonCode,
		"gender":        info.Demographics.Gender,
		"maritalStatus": info.Demographics.MaritalStatus,
		"region":        region,
		"product":       loan.ProductCode,
		"industryCode":  loan.IndustryCode,
	}

	indicators := make(map[string]types.RiskIndicator)
	totalRisk := 0.0

	for _, field := range e.standardFields {
		value := values[field]
		normalized, valid := e.norm.Normalize(field, value)
		category := e.fieldMappings[field]

		if field == "customerType" {
			if !valid {
				totalRisk += 5.0
				indicators[field] = e.indicator(value, "Autres (Not in valid list)", 5.0)
			} else {
				indicators[field] = e.indicator(value, value, 0.0)
			}
			continue
		}

		if !e.rules.Has(category) {
			indicators[field] = e.indicator(value, NoRuleCategory, 0.0)
			continue
		}

		matched, score := e.rules.Match(category, normalized)
		totalRisk += score
		indicators[field] = e.indicator(value, matched, score)
	}

	scoringUDFs, nonScoringUDFs := e.evaluateUDFs(loan.UDFData, indicators, &totalRisk)
	info.UDFData = nonScoringUDFs
	info.ScoringUDFData = scoringUDFs

	for _, aml := range info.AMLChecks {
		key := "aml_" + strings.ToLower(aml.ListName)
		indicators[key] = e.amlIndicator(aml)
	}

	return &types.Assessment{
		CustomerInfo: info,
		LoanInfo:     e.extractLoanInfo(loan),
		RiskAssessment: types.RiskAssessment{
			Indicators: indicators,
			TotalScore: totalRisk,
			RiskLevel:  RiskLevel(totalRisk),
		},
	}, nil
}

// evaluateUDFs scores recognized supplementary fields and partitions groups
// into scoring and display-only sets. Fields whose name is recognized but
// whose value matches no rule stay with their group unscored.
func (e *Engine) evaluateUDFs(groups []types.UDFGroup, indicators map[string]types.RiskIndicator, totalRisk *float64) (scoring, nonScoring []types.UDFGroup) {
	for _, group := range groups {
		kept := types.UDFGroup{GroupName: group.GroupName}
		recognized := false

		for _, field := range group.Fields {
			kept.Fields = append(kept.Fields, field)

			category, ok := e.udfFieldMappings[field.FieldName]
			if !ok {
				continue
			}
			recognized = true
			if !e.rules.Has(category) {
				continue
			}

			normalized := e.norm.NormalizeUDF(field.FieldName, field.Value)
			matched, score := e.rules.Match(category, normalized)
			if matched == NoMatchingRule {
				continue
			}

			key := "udf_" + strings.ToLower(strings.ReplaceAll(field.FieldName, " ", "_"))
			indicators[key] = e.indicator(field.Value, matched, score)
			*totalRisk += score
		}

		if len(kept.Fields) == 0 {
			continue
		}
		if recognized {
			scoring = append(scoring, kept)
		} else {
			nonScoring = append(nonScoring, kept)
		}
	}
	return scoring, nonScoring
}

func (e *Engine) indicator(value any, rule string, score float64) types.RiskIndicator {
	return types.RiskIndicator{
		Value:       value,
		MatchedRule: rule,
		Score:       score,
		RiskLevel:   RiskLevel(score),
	}
}

// amlIndicator scores a screening hit by fixed thresholds instead of the rule
// table. AML scores are tracked but excluded from the aggregate total.
func (e *Engine) amlIndicator(aml types.AMLCheck) types.RiskIndicator {
	value := aml.AMLStatus
	if value == "" {
		value = "N/A"
	}
	rule := aml.ListName
	if rule == "" {
		rule = "N/A"
	}
	return types.RiskIndicator{
		Value:       value,
		MatchedRule: rule,
		Score:       aml.Score,
		RiskLevel:   AMLRiskLevel(aml.Score),
	}
}

// extractRegion matches configured region names as substrings of the branch
// description first, then the customer address.
func (e *Engine) extractRegion(branchDesc, customerAddress string) string {
	for _, source := range []string{branchDesc, customerAddress} {
		if source == "" {
			continue
		}
		lower := strings.ToLower(source)
		for _, region := range e.rules.Items("Région") {
			if strings.Contains(lower, strings.ToLower(region)) {
				return region
			}
		}
	}
	return "Unknown"
}

func (e *Engine) extractLoanInfo(loan *types.LoanRecord) types.LoanInfo {
	assetsTotal := 0.0
	for _, asset := range loan.Assets {
		assetsTotal += asset.PrixUnitaire * asset.QuantiteArticle
	}

	currency := loan.CurrencySymbol
	if currency == "" {
		currency = "TND"
	}

	return types.LoanInfo{
		BasicInfo: types.LoanBasicInfo{
			LoanID:     loan.LoanID.String(),
			ExternalID: loan.ExternalID,
			Account:    loan.AccountNumber,
			Status:     loan.StatusLabel,
			Product:    fmt.Sprintf("%s - %s", loan.ProductCode, loan.ProductDescription),
			Branch: types.BranchInfo{
				Name:        loan.BranchName,
				Description: loan.BranchDescription,
				Officer:     loan.OwnerName,
			},
		},
		Financials: types.LoanFinancials{
			LoanAmount:           loan.ApprovedAmount,
			PersonalContribution: loan.PersonalContrib,
			TotalInterest:        loan.TotalInterest,
			MonthlyPayment:       loan.NormalPayment,
			AssetsTotal:          assetsTotal,
			APR:                  loan.APR,
			InterestRate:         loan.ProductRate,
			TermMonths:           loan.TermPeriodNum,
			Currency:             currency,
		},
	}
}

func (e *Engine) consolidateCustomer(loan *types.LoanRecord) types.CustomerInfo {
	c := loan.Customer
	return types.CustomerInfo{
		Name:    strings.ReplaceAll(c.CustomerName, "|||", " "),
		ID:      orNA(c.ID.String()),
		Type:    orNA(c.CustomerType),
		Address: orNA(c.CustomerAddress),
		Demographics: types.Demographics{
			Gender:        orNA(c.Gender),
			MaritalStatus: orNA(c.MaritalStatus),
			Age:           orNA(c.Age.String()),
			BirthDate:     formatDate(c.DateOfBirth),
			Phone:         orNA(c.Telephone),
		},
		AMLChecks: c.AMLChecks,
	}
}

// RiskLevel buckets a score into the five severity labels. The lower bound of
// each bucket is exclusive and the upper bound inclusive, so 10.0 sits with
// 9.9 and 10.1 starts the next bucket.
func RiskLevel(score float64) string {
	switch {
	case score <= 0:
		return "non risqué"
	case score <= 10:
		return "risque faible"
	case score <= 25:
		return "risque moyen"
	case score <= 50:
		return "risque élevé"
	default:
		return "risque très élevé"
	}
}

// AMLRiskLevel buckets a screening score by fixed thresholds.
func AMLRiskLevel(score float64) string {
	switch {
	case score == 0:
		return "safe"
	case score <= 20:
		return "low risk"
	case score <= 50:
		return "medium risk"
	default:
		return "high risk"
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatDate(dateStr string) string {
	if dateStr == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return dateStr
	}
	return t.Format("2006-01-02 15:04:05")
}
