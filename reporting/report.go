// Package reporting renders a finished assessment into the labeled-section
// text report that analysts read and that the feedback path later parses
// back. Render and Extract are the two halves of that contract.
package reporting

import (
	"fmt"
	"sort"
	"strings"

	"loanrisk/types"
)

// Render produces the assessment report. Section labels are load-bearing:
// Extract relies on them to recover the verdict from a stored report.
func Render(a *types.Assessment) string {
	var sb strings.Builder

	sb.WriteString("==================================================\n")
	sb.WriteString("           LOAN RISK ASSESSMENT REPORT\n")
	sb.WriteString("==================================================\n\n")

	basic := a.LoanInfo.BasicInfo
	fin := a.LoanInfo.Financials

	sb.WriteString("--- APPLICATION ---\n")
	fmt.Fprintf(&sb, "Loan ID: %s\n", basic.LoanID)
	if basic.ExternalID != "" {
		fmt.Fprintf(&sb, "External ID: %s\n", basic.ExternalID)
	}
	fmt.Fprintf(&sb, "Customer: %s (%s)\n", a.CustomerInfo.Name, a.CustomerInfo.Type)
	if basic.Branch.Description != "" {
		fmt.Fprintf(&sb, "Branch: %s\n", basic.Branch.Description)
	}
	if basic.Product != "" {
		fmt.Fprintf(&sb, "Product: %s\n", basic.Product)
	}
	fmt.Fprintf(&sb, "Amount: %.2f %s over %d months\n", fin.LoanAmount, fin.Currency, fin.TermMonths)
	fmt.Fprintf(&sb, "Monthly Payment: %.2f %s\n\n", fin.MonthlyPayment, fin.Currency)

	sb.WriteString("--- RISK FACTORS ---\n")
	names := make([]string, 0, len(a.RiskAssessment.Indicators))
	for name := range a.RiskAssessment.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ind := a.RiskAssessment.Indicators[name]
		if strings.HasPrefix(name, "aml_") {
			fmt.Fprintf(&sb, "%-25s %v (screening: %s, not scored)\n", name+":", ind.Value, ind.RiskLevel)
			continue
		}
		fmt.Fprintf(&sb, "%-25s %v -> %s (+%.1f, %s)\n", name+":", ind.Value, ind.MatchedRule, ind.Score, ind.RiskLevel)
	}
	fmt.Fprintf(&sb, "\nTOTAL RISK SCORE: %.1f (%s)\n\n", a.RiskAssessment.TotalScore, a.RiskAssessment.RiskLevel)

	if len(a.BusinessRules) > 0 {
		sb.WriteString("--- BUSINESS RULES ---\n")
		for _, rule := range a.BusinessRules {
			fmt.Fprintf(&sb, "- %s", rule.Rule)
			if msg, ok := rule.Impact["message"].(string); ok && msg != "" {
				fmt.Fprintf(&sb, ": %s", msg)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if analysis := a.LLMAnalysis; analysis != nil {
		fmt.Fprintf(&sb, "--- ANALYSIS (%s) ---\n", analysis.AnalysisType)
		fmt.Fprintf(&sb, "Summary: %s\n\n", analysis.Summary)
		fmt.Fprintf(&sb, "RECOMMENDATION: %s\n\n", strings.ToUpper(analysis.Recommendation))

		writeList(&sb, "Rationale:", analysis.Rationale)
		writeList(&sb, "Key Findings:", analysis.KeyFindings)
		writeList(&sb, "Recommended Conditions:", analysis.Conditions)
		writeList(&sb, "Comparative Analysis:", analysis.ComparativeAnalysis)

		if analysis.RAGContext != nil && len(analysis.RAGContext.SimilarCases) > 0 {
			sb.WriteString("Similar Historical Cases:\n")
			for _, c := range analysis.RAGContext.SimilarCases {
				fmt.Fprintf(&sb, "  - %s (similarity %.2f", orDash(c.Customer), c.Similarity)
				if c.Decision != "" {
					fmt.Fprintf(&sb, ", decision %s", c.Decision)
				}
				sb.WriteString(")\n")
			}
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Processing Time: %.2fs\n", analysis.Elapsed)
	}

	sb.WriteString("==================================================\n")
	return sb.String()
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + "\n")
	for _, item := range items {
		fmt.Fprintf(sb, "  - %s\n", item)
	}
	sb.WriteString("\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
