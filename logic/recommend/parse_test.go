package recommend_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrisk/logic/recommend"
	"loanrisk/types"
)

func TestParseResponse_ValidJSON(t *testing.T) {
	raw := `{
		"summary": "Solid application.",
		"recommendation": "approve",
		"rationale": ["good capacity", "clean history"],
		"key_findings": ["stable income"],
		"conditions": ["verify payslips"]
	}`

	a := recommend.ParseResponse(raw)
	assert.Equal(t, "Solid application.", a.Summary)
	assert.Equal(t, types.RecommendApprove, a.Recommendation)
	assert.Equal(t, []string{"good capacity", "clean history"}, a.Rationale)
	assert.Equal(t, []string{"verify payslips"}, a.Conditions)
}

func TestParseResponse_JSONWrappedInProse(t *testing.T) {
	raw := "<think>weighing the factors</think>\nHere is my analysis:\n```json\n" +
		`{"summary": "ok", "recommendation": "DENY", "rationale": ["overleveraged"]}` +
		"\n```\nLet me know if you need more."

	a := recommend.ParseResponse(raw)
	assert.Equal(t, "ok", a.Summary)
	assert.Equal(t, types.RecommendDeny, a.Recommendation)
}

func TestParseResponse_NoJSON(t *testing.T) {
	a := recommend.ParseResponse("The model rambled without any structure.")

	assert.Equal(t, types.RecommendReview, a.Recommendation)
	assert.Equal(t, "The model rambled without any structure.", a.Summary)
	require.NotEmpty(t, a.Rationale)
}

func TestParseResponse_LongUnparsableTruncated(t *testing.T) {
	raw := strings.Repeat("x", 2000)

	a := recommend.ParseResponse(raw)
	assert.Len(t, a.Summary, 500)
	assert.Equal(t, types.RecommendReview, a.Recommendation)
}

func TestParseResponse_StringCoercedToList(t *testing.T) {
	raw := `{"summary": "s", "recommendation": "review", "rationale": "single reason", "key_findings": []}`

	a := recommend.ParseResponse(raw)
	assert.Equal(t, []string{"single reason"}, a.Rationale)
	assert.Empty(t, a.KeyFindings)
}

func TestParseResponse_NonStringListItemsStringified(t *testing.T) {
	raw := `{"summary": "s", "recommendation": "review", "rationale": ["risk score high", 42, true]}`

	a := recommend.ParseResponse(raw)
	assert.Equal(t, []string{"risk score high", "42", "true"}, a.Rationale)
}

func TestParseResponse_TruncationKeepsRunesWhole(t *testing.T) {
	// é is two bytes; the leading "x" shifts every é onto an odd offset so
	// the 500-byte cut lands inside a rune.
	raw := "x" + strings.Repeat("é", 300)

	a := recommend.ParseResponse(raw)
	assert.Equal(t, 499, len(a.Summary))
	assert.True(t, utf8.ValidString(a.Summary))
}

func TestParseResponse_UnknownRecommendation(t *testing.T) {
	raw := `{"summary": "s", "recommendation": "escalate"}`

	a := recommend.ParseResponse(raw)
	assert.Equal(t, types.RecommendReview, a.Recommendation)
}
