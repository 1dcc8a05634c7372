package recommend

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	milvusstore "loanrisk/storage/milvus"
	"loanrisk/types"
	"loanrisk/vars"
)

// Store is the slice of the similarity store the analyzer needs.
type Store interface {
	Upsert(ctx context.Context, id, document string, meta milvusstore.EntryMeta) error
	Query(ctx context.Context, embedding []float64, topK int, floor float64, filterExpr string) []milvusstore.Match
	Count(ctx context.Context) int64
}

// Analyzer produces the model-backed recommendation for an assessment.
// It picks the richest path the environment allows: contextual when similar
// history exists, basic when the store is empty or nothing qualifies, and a
// deterministic fallback when the model itself fails. Analyze always returns
// a complete Analysis; degradation is reported through AnalysisType, never
// through an error.
type Analyzer struct {
	chatModel model.ToolCallingChatModel
	embedder  embedding.Embedder
	store     Store
}

func NewAnalyzer(chatModel model.ToolCallingChatModel, embedder embedding.Embedder, store Store) *Analyzer {
	return &Analyzer{chatModel: chatModel, embedder: embedder, store: store}
}

// Analyze runs the recommendation state machine over a scored assessment.
func (a *Analyzer) Analyze(ctx context.Context, assessment *types.Assessment) *types.Analysis {
	start := time.Now()

	matches := a.retrieveSimilar(ctx, assessment)
	insights := a.feedbackInsights(ctx, assessment)

	var analysis *types.Analysis
	if len(matches) > 0 {
		analysis = a.contextualAnalysis(ctx, assessment, matches, insights)
	} else {
		analysis = a.basicAnalysis(ctx, assessment, insights)
	}

	analysis.Elapsed = time.Since(start).Seconds()
	log.Printf(">>> [Recommend] %s analysis in %.2fs: %s",
		analysis.AnalysisType, analysis.Elapsed, analysis.Recommendation)
	return analysis
}

// retrieveSimilar returns qualifying historical neighbors, or nil when the
// store is empty, the embedding fails, or nothing clears the floor. Every
// failure downgrades to the basic path instead of surfacing.
func (a *Analyzer) retrieveSimilar(ctx context.Context, assessment *types.Assessment) []milvusstore.Match {
	if a.store == nil || a.store.Count(ctx) == 0 {
		return nil
	}

	profile := BuildProfileDocument(assessment)
	vectors, err := a.embedder.EmbedStrings(ctx, []string{profile})
	if err != nil || len(vectors) == 0 {
		log.Printf(">>> [Recommend] embed profile failed, using basic analysis: %v", err)
		return nil
	}

	return a.store.Query(ctx, vectors[0], vars.TOP_K_SIMILAR, vars.SIMILARITY_FLOOR, "")
}

func (a *Analyzer) basicAnalysis(ctx context.Context, assessment *types.Assessment, insights string) *types.Analysis {
	prompt, err := BuildBasicPrompt(assessment)
	if err != nil {
		log.Printf(">>> [Recommend] build basic prompt: %v", err)
		return a.fallbackAnalysis(assessment)
	}
	prompt = appendFeedbackInsights(prompt, insights)

	raw, err := a.generate(ctx, prompt, vars.GEN_TEMPERATURE)
	if err != nil {
		log.Printf(">>> [Recommend] model call failed: %v", err)
		return a.fallbackAnalysis(assessment)
	}

	analysis := ParseResponse(raw)
	analysis.AnalysisType = vars.ANALYSIS_BASIC
	return analysis
}

func (a *Analyzer) contextualAnalysis(ctx context.Context, assessment *types.Assessment, matches []milvusstore.Match, insights string) *types.Analysis {
	cases := make([]types.SimilarCase, 0, len(matches))
	for _, m := range matches {
		c := ExtractCaseFields(m.Document)
		c.Similarity = m.Similarity
		c.Metadata = map[string]any{
			"loan_id":       m.Meta.LoanID,
			"analysis_type": m.Meta.AnalysisType,
		}
		if factors := MajorRiskFactors(m.Document); len(factors) > 0 {
			c.Metadata["major_risk_factors"] = factors
		}
		cases = append(cases, c)
	}

	prompt, err := BuildContextualPrompt(assessment, cases, insights)
	if err != nil {
		log.Printf(">>> [Recommend] build contextual prompt: %v", err)
		return a.basicAnalysis(ctx, assessment, insights)
	}

	raw, err := a.generate(ctx, prompt, vars.GEN_TEMPERATURE)
	if err != nil {
		log.Printf(">>> [Recommend] model call failed: %v", err)
		analysis := a.fallbackAnalysis(assessment)
		analysis.RAGContext = &types.RAGContext{SimilarCases: cases}
		return analysis
	}

	analysis := ParseResponse(raw)
	analysis.AnalysisType = vars.ANALYSIS_CONTEXTUAL
	analysis.RAGContext = &types.RAGContext{SimilarCases: cases}
	return analysis
}

// feedbackInsights summarizes stored analyst feedback for prompt injection.
// The current assessment is embedded as its own query so the top-k selection
// surfaces feedback on cases like this one. Any failure along the way means
// no insights, never a failed analysis.
func (a *Analyzer) feedbackInsights(ctx context.Context, assessment *types.Assessment) string {
	if a.store == nil {
		return ""
	}

	vectors, err := a.embedder.EmbedStrings(ctx, []string{BuildProfileDocument(assessment)})
	if err != nil || len(vectors) == 0 {
		return ""
	}

	matches := a.store.Query(ctx, vectors[0], vars.TOP_K_SIMILAR, 0, "has_feedback == true")
	if len(matches) == 0 {
		return ""
	}

	var entries strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&entries, "%d. Rating %d/5: %s\n", i+1, m.Meta.FeedbackRating, m.Meta.FeedbackComments)
	}

	prompt, err := BuildFeedbackSummaryPrompt(entries.String())
	if err != nil {
		return ""
	}
	summary, err := a.generate(ctx, prompt, vars.FEEDBACK_TEMPERATURE)
	if err != nil {
		log.Printf(">>> [Recommend] feedback summarization failed: %v", err)
		return ""
	}
	return strings.TrimSpace(summary)
}

// fallbackAnalysis is the deterministic last resort when the model is
// unreachable. The verdict comes straight from the rule-table score.
func (a *Analyzer) fallbackAnalysis(assessment *types.Assessment) *types.Analysis {
	score := assessment.RiskAssessment.TotalScore
	level := assessment.RiskAssessment.RiskLevel

	recommendation := types.RecommendReview
	rationale := []string{
		fmt.Sprintf("Automated model analysis unavailable; verdict derived from rule-table score %.1f (%s)", score, level),
	}
	switch {
	case score <= 10:
		recommendation = types.RecommendApprove
		rationale = append(rationale, "Score within the low-risk band")
	case score <= 25:
		recommendation = types.RecommendReview
		rationale = append(rationale, "Score in the medium band requires analyst review")
	default:
		recommendation = types.RecommendDeny
		rationale = append(rationale, "Score above the medium band")
	}

	return &types.Analysis{
		Summary: fmt.Sprintf("Rule-based assessment only. Total risk score %.1f places this application at %q.",
			score, level),
		Recommendation: recommendation,
		Rationale:      rationale,
		AnalysisType:   vars.ANALYSIS_FALLBACK,
	}
}

// StoreAssessment writes the finished assessment into the similarity store so
// future analyses can retrieve it. Keyed by loan id, so re-running an
// assessment replaces its history entry.
func (a *Analyzer) StoreAssessment(ctx context.Context, loanID string, assessment *types.Assessment) error {
	if a.store == nil {
		return nil
	}

	meta := milvusstore.EntryMeta{
		LoanID:    loanID,
		Timestamp: time.Now().Unix(),
	}
	if analysis := assessment.LLMAnalysis; analysis != nil {
		meta.AnalysisType = analysis.AnalysisType
		meta.ProcessingTime = analysis.Elapsed
	}

	document := BuildProfileDocument(assessment)
	if err := a.store.Upsert(ctx, "loan_"+loanID, document, meta); err != nil {
		return fmt.Errorf("store assessment %s: %v", loanID, err)
	}
	return nil
}

// RecordFeedback re-upserts the stored entry with the analyst's verdict so
// feedback-flagged retrieval can find it.
func (a *Analyzer) RecordFeedback(ctx context.Context, loanID, document string, entry *types.FeedbackEntry) error {
	if a.store == nil {
		return nil
	}
	meta := milvusstore.EntryMeta{
		LoanID:           loanID,
		HasFeedback:      true,
		FeedbackRating:   int64(entry.Rating),
		FeedbackComments: entry.Comments,
		Timestamp:        entry.Timestamp.Unix(),
	}
	if err := a.store.Upsert(ctx, "loan_"+loanID, document, meta); err != nil {
		return fmt.Errorf("record feedback %s: %v", loanID, err)
	}
	return nil
}

// generate runs one bounded chat completion. The deadline is what turns a
// hung model server into a fallback analysis instead of a stuck request.
func (a *Analyzer) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, vars.GEN_TIMEOUT)
	defer cancel()

	resp, err := a.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	}, model.WithTemperature(temperature))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
