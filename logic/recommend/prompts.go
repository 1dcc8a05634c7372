package recommend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"loanrisk/types"
	"loanrisk/vars"
)

var (
	basicTmpl    = template.Must(template.New("basic").Parse(vars.BASIC_ANALYSIS))
	contextTmpl  = template.Must(template.New("context").Parse(vars.CONTEXT_SUFFIX))
	feedbackTmpl = template.Must(template.New("feedback").Parse(vars.FEEDBACK_SUMMARY))
)

type basicPromptData struct {
	Name                 string
	Age                  string
	Gender               string
	MaritalStatus        string
	LoanAmount           string
	Currency             string
	PersonalContribution string
	MonthlyPayment       string
	AssetsTotal          string
	APR                  string
	InterestRate         string
	TermMonths           int
	TotalScore           string
	RiskTable            string
	UDFBlock             string
}

// BuildBasicPrompt renders the standalone analysis prompt from an assessment.
func BuildBasicPrompt(a *types.Assessment) (string, error) {
	fin := a.LoanInfo.Financials
	data := basicPromptData{
		Name:                 a.CustomerInfo.Name,
		Age:                  orUnknown(a.CustomerInfo.Demographics.Age),
		Gender:               orUnknown(a.CustomerInfo.Demographics.Gender),
		MaritalStatus:        orUnknown(a.CustomerInfo.Demographics.MaritalStatus),
		LoanAmount:           money(fin.LoanAmount),
		Currency:             fin.Currency,
		PersonalContribution: money(fin.PersonalContribution),
		MonthlyPayment:       money(fin.MonthlyPayment),
		AssetsTotal:          money(fin.AssetsTotal),
		APR:                  money(fin.APR),
		InterestRate:         money(fin.InterestRate),
		TermMonths:           fin.TermMonths,
		TotalScore:           money(a.RiskAssessment.TotalScore),
		RiskTable:            renderRiskTable(a.RiskAssessment),
		UDFBlock:             renderUDFBlock(a.CustomerInfo),
	}

	var sb strings.Builder
	if err := basicTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render basic prompt: %v", err)
	}
	return sb.String(), nil
}

// BuildContextualPrompt extends the basic prompt with the retrieved historical
// cases and, when available, summarized analyst feedback.
func BuildContextualPrompt(a *types.Assessment, cases []types.SimilarCase, feedbackInsights string) (string, error) {
	base, err := BuildBasicPrompt(a)
	if err != nil {
		return "", err
	}

	var history strings.Builder
	for i, c := range cases {
		fmt.Fprintf(&history, "--- Case %d (similarity %.2f) ---\n", i+1, c.Similarity)
		if c.Customer != "" {
			fmt.Fprintf(&history, "Customer: %s\n", c.Customer)
		}
		if c.Amount > 0 {
			fmt.Fprintf(&history, "Loan Amount: %s\n", money(c.Amount))
		}
		if c.Score > 0 {
			fmt.Fprintf(&history, "Total Risk Score: %s\n", money(c.Score))
		}
		if c.Decision != "" {
			fmt.Fprintf(&history, "Decision: %s\n", c.Decision)
		}
		if factors, ok := c.Metadata["major_risk_factors"].([]string); ok && len(factors) > 0 {
			fmt.Fprintf(&history, "Major Risk Factors: %s\n", strings.Join(factors, ", "))
		}
		history.WriteString("\n")
	}

	var suffix strings.Builder
	if err := contextTmpl.Execute(&suffix, map[string]string{
		"HistoricalContext": strings.TrimSpace(history.String()),
	}); err != nil {
		return "", fmt.Errorf("render context suffix: %v", err)
	}

	return appendFeedbackInsights(base+suffix.String(), feedbackInsights), nil
}

// appendFeedbackInsights adds the summarized analyst feedback to a prompt.
// Both analysis paths finish with this appendix so feedback reaches the model
// even when no historical case cleared the similarity floor.
func appendFeedbackInsights(prompt, insights string) string {
	if insights == "" {
		return prompt
	}
	return prompt + "\n=== ANALYST FEEDBACK INSIGHTS ===\n\n" +
		"Past analyst feedback on assessments like this one:\n" + insights + "\n"
}

// BuildFeedbackSummaryPrompt asks the model to condense raw feedback entries.
func BuildFeedbackSummaryPrompt(entries string) (string, error) {
	var sb strings.Builder
	if err := feedbackTmpl.Execute(&sb, map[string]string{"Entries": entries}); err != nil {
		return "", fmt.Errorf("render feedback prompt: %v", err)
	}
	return sb.String(), nil
}

// BuildProfileDocument renders the canonical text embedded into the
// similarity store. The leading labeled lines are also what
// ExtractCaseFields reads back when the document is retrieved as a
// historical case, so the two must stay in sync.
func BuildProfileDocument(a *types.Assessment) string {
	fin := a.LoanInfo.Financials
	var sb strings.Builder
	fmt.Fprintf(&sb, "Customer: %s\n", a.CustomerInfo.Name)
	fmt.Fprintf(&sb, "Customer Type: %s\n", a.CustomerInfo.Type)
	fmt.Fprintf(&sb, "Loan Amount: %s %s\n", money(fin.LoanAmount), fin.Currency)
	fmt.Fprintf(&sb, "Term: %d months\n", fin.TermMonths)
	fmt.Fprintf(&sb, "Monthly Payment: %s %s\n", money(fin.MonthlyPayment), fin.Currency)
	fmt.Fprintf(&sb, "Total Risk Score: %s\n", money(a.RiskAssessment.TotalScore))
	fmt.Fprintf(&sb, "Risk Level: %s\n", a.RiskAssessment.RiskLevel)
	if a.LLMAnalysis != nil && a.LLMAnalysis.Recommendation != "" {
		fmt.Fprintf(&sb, "Decision: %s\n", a.LLMAnalysis.Recommendation)
	}
	sb.WriteString("\nRisk Factors:\n")
	sb.WriteString(renderRiskTable(a.RiskAssessment))
	if block := renderUDFBlock(a.CustomerInfo); block != "None provided" {
		sb.WriteString("\nAdditional Information:\n")
		sb.WriteString(block)
	}
	if a.LLMAnalysis != nil && a.LLMAnalysis.Summary != "" {
		sb.WriteString("\nAnalysis Summary:\n")
		sb.WriteString(a.LLMAnalysis.Summary)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ExtractCaseFields recovers the headline fields of a stored profile document
// so a retrieved neighbor can be quoted as a structured historical case.
func ExtractCaseFields(document string) types.SimilarCase {
	var c types.SimilarCase
	for _, line := range strings.Split(document, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "Customer":
			c.Customer = value
		case "Loan Amount":
			c.Amount = leadingNumber(value)
		case "Total Risk Score":
			c.Score = leadingNumber(value)
		case "Decision":
			c.Decision = value
		}
	}
	return c
}

// MajorRiskFactors pulls the names of risk factors from a stored profile
// document whose contribution exceeds the materiality cutoff.
func MajorRiskFactors(document string) []string {
	var factors []string
	for _, line := range strings.Split(document, "\n") {
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		open := strings.LastIndex(line, "(+")
		if open == -1 {
			continue
		}
		rest := line[open+2:]
		comma := strings.Index(rest, ",")
		if comma == -1 {
			continue
		}
		score, err := strconv.ParseFloat(rest[:comma], 64)
		if err != nil || score <= vars.MATERIAL_SCORE {
			continue
		}
		name, _, ok := strings.Cut(strings.TrimPrefix(line, "- "), ":")
		if ok {
			factors = append(factors, name)
		}
	}
	return factors
}

// renderRiskTable lists indicators in a stable order. AML screening lines are
// labeled as informational since they never count toward the total.
func renderRiskTable(ra types.RiskAssessment) string {
	names := make([]string, 0, len(ra.Indicators))
	for name := range ra.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		ind := ra.Indicators[name]
		if strings.HasPrefix(name, "aml_") {
			fmt.Fprintf(&sb, "- %s: %v (screening score %s, %s, informational)\n",
				name, ind.Value, money(ind.Score), ind.RiskLevel)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %v -> %q (+%s, %s)\n",
			name, ind.Value, ind.MatchedRule, money(ind.Score), ind.RiskLevel)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderUDFBlock flattens the supplementary field groups, scoring groups
// first.
func renderUDFBlock(ci types.CustomerInfo) string {
	var sb strings.Builder
	writeGroups := func(groups []types.UDFGroup) {
		for _, g := range groups {
			var parts []string
			for _, f := range g.Fields {
				if strings.TrimSpace(f.Value) == "" {
					continue
				}
				parts = append(parts, fmt.Sprintf("%s = %s", f.FieldName, f.Value))
			}
			if len(parts) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", g.GroupName, strings.Join(parts, "; "))
		}
	}
	writeGroups(ci.ScoringUDFData)
	writeGroups(ci.UDFData)
	if sb.Len() == 0 {
		return "None provided"
	}
	return strings.TrimRight(sb.String(), "\n")
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func leadingNumber(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}
