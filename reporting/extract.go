package reporting

import (
	"strconv"
	"strings"
)

// ReportFacts are the headline values recovered from a rendered report.
type ReportFacts struct {
	Recommendation string
	TotalScore     float64
	RiskLevel      string
	Summary        string
	KeyFindings    []string
	Conditions     []string
}

// Extract recovers the headline facts from a report produced by Render. It
// tolerates missing sections (a fallback analysis has no comparative section,
// a failed analysis may have no recommendation at all) and returns zero
// values for anything absent.
func Extract(report string) ReportFacts {
	var facts ReportFacts

	lines := strings.Split(report, "\n")
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(trimmed, "RECOMMENDATION:"):
			facts.Recommendation = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "RECOMMENDATION:")))
		case strings.HasPrefix(trimmed, "Summary:"):
			facts.Summary = strings.TrimSpace(strings.TrimPrefix(trimmed, "Summary:"))
		case strings.HasPrefix(trimmed, "TOTAL RISK SCORE:"):
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "TOTAL RISK SCORE:"))
			value, level, found := strings.Cut(rest, " (")
			if score, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				facts.TotalScore = score
			}
			if found {
				facts.RiskLevel = strings.TrimSuffix(level, ")")
			}
		case trimmed == "Key Findings:":
			facts.KeyFindings, i = readListItems(lines, i)
		case trimmed == "Recommended Conditions:":
			facts.Conditions, i = readListItems(lines, i)
		}
	}
	return facts
}

// readListItems collects the "- " bullets following a list label and returns
// the index of the last consumed line.
func readListItems(lines []string, i int) ([]string, int) {
	var items []string
	for i+1 < len(lines) {
		next := strings.TrimSpace(lines[i+1])
		if !strings.HasPrefix(next, "- ") {
			break
		}
		items = append(items, strings.TrimSpace(strings.TrimPrefix(next, "- ")))
		i++
	}
	return items, i
}
