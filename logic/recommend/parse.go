package recommend

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"loanrisk/types"
)

// ParseResponse extracts the structured analysis from raw model output.
// Models wrap JSON in prose, code fences or think blocks, so we cut from the
// first '{' to the last '}' and decode that. A response with no parsable JSON
// still yields a usable Analysis: the raw text becomes the summary and the
// recommendation degrades to review.
func ParseResponse(raw string) *types.Analysis {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return unparsable(raw)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return unparsable(raw)
	}

	analysis := &types.Analysis{
		Summary:             asString(fields["summary"]),
		Recommendation:      normalizeRecommendation(asString(fields["recommendation"])),
		Rationale:           asList(fields["rationale"]),
		KeyFindings:         asList(fields["key_findings"]),
		Conditions:          asList(fields["conditions"]),
		ComparativeAnalysis: asList(fields["comparative_analysis"]),
	}
	if analysis.Summary == "" {
		analysis.Summary = truncate(raw, 500)
	}
	return analysis
}

func unparsable(raw string) *types.Analysis {
	return &types.Analysis{
		Summary:        truncate(strings.TrimSpace(raw), 500),
		Recommendation: types.RecommendReview,
		Rationale:      []string{"Could not parse model response"},
	}
}

// normalizeRecommendation clamps the model's verdict to the three allowed
// values; anything else is treated as review.
func normalizeRecommendation(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case types.RecommendApprove:
		return types.RecommendApprove
	case types.RecommendDeny:
		return types.RecommendDeny
	default:
		return types.RecommendReview
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asList accepts both a JSON array and a bare string, since smaller models
// frequently emit one where the other was asked for. Non-string array items
// are stringified rather than dropped.
func asList(v any) []string {
	switch val := v.(type) {
	case []any:
		var out []string
		for _, item := range val {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return []string{strings.TrimSpace(val)}
	}
	return nil
}

// truncate cuts at a rune boundary so a multi-byte character is never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
