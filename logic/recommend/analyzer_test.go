package recommend_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrisk/logic/recommend"
	milvusstore "loanrisk/storage/milvus"
	"loanrisk/types"
)

type fakeChatModel struct {
	replies   []string
	calls     []string
	deadlines []bool
	err       error
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	_, hasDeadline := ctx.Deadline()
	m.deadlines = append(m.deadlines, hasDeadline)
	if m.err != nil {
		return nil, m.err
	}
	prompt := input[len(input)-1].Content
	m.calls = append(m.calls, prompt)
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *fakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (e *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.texts = append(e.texts, texts...)
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeStore struct {
	matches  []milvusstore.Match
	feedback []milvusstore.Match
	upserts  map[string]milvusstore.EntryMeta
}

func newFakeStore(matches ...milvusstore.Match) *fakeStore {
	return &fakeStore{matches: matches, upserts: map[string]milvusstore.EntryMeta{}}
}

func (s *fakeStore) Upsert(ctx context.Context, id, document string, meta milvusstore.EntryMeta) error {
	s.upserts[id] = meta
	return nil
}

func (s *fakeStore) Query(ctx context.Context, emb []float64, topK int, floor float64, filterExpr string) []milvusstore.Match {
	source := s.matches
	if strings.Contains(filterExpr, "has_feedback") {
		source = s.feedback
	}
	var out []milvusstore.Match
	for _, m := range source {
		if m.Similarity >= floor {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeStore) Count(ctx context.Context) int64 {
	return int64(len(s.matches))
}

const approveJSON = `{"summary": "fine", "recommendation": "approve", "rationale": ["ok"]}`

func historicalMatch(sim float64) milvusstore.Match {
	return milvusstore.Match{
		ID:         "loan_9",
		Document:   "Customer: Mohsen Trabelsi\nLoan Amount: 18000 TND\nTotal Risk Score: 28\nDecision: deny\n",
		Similarity: sim,
		Meta:       milvusstore.EntryMeta{LoanID: "9", AnalysisType: "basic"},
	}
}

func TestAnalyze_EmptyStoreUsesBasicPath(t *testing.T) {
	chat := &fakeChatModel{replies: []string{approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{}, newFakeStore())

	analysis := analyzer.Analyze(context.Background(), sampleAssessment())

	assert.Equal(t, "basic", analysis.AnalysisType)
	assert.Equal(t, types.RecommendApprove, analysis.Recommendation)
	assert.Nil(t, analysis.RAGContext)
	require.Len(t, chat.calls, 1)
	assert.NotContains(t, chat.calls[0], "HISTORICAL CONTEXT")
}

func TestAnalyze_SimilarCasesUseContextualPath(t *testing.T) {
	chat := &fakeChatModel{replies: []string{approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{}, newFakeStore(historicalMatch(0.82)))

	analysis := analyzer.Analyze(context.Background(), sampleAssessment())

	assert.Equal(t, "contextual", analysis.AnalysisType)
	require.NotNil(t, analysis.RAGContext)
	require.Len(t, analysis.RAGContext.SimilarCases, 1)
	assert.Equal(t, "Mohsen Trabelsi", analysis.RAGContext.SimilarCases[0].Customer)
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0], "HISTORICAL CONTEXT")
}

func TestAnalyze_BelowFloorFallsBackToBasic(t *testing.T) {
	chat := &fakeChatModel{replies: []string{approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{}, newFakeStore(historicalMatch(0.55)))

	analysis := analyzer.Analyze(context.Background(), sampleAssessment())

	assert.Equal(t, "basic", analysis.AnalysisType)
	assert.Nil(t, analysis.RAGContext)
}

func TestAnalyze_EmbedFailureFallsBackToBasic(t *testing.T) {
	chat := &fakeChatModel{replies: []string{approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{err: errors.New("embed down")}, newFakeStore(historicalMatch(0.9)))

	analysis := analyzer.Analyze(context.Background(), sampleAssessment())

	assert.Equal(t, "basic", analysis.AnalysisType)
}

func TestAnalyze_ModelFailureYieldsFallback(t *testing.T) {
	chat := &fakeChatModel{err: errors.New("model down")}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{}, newFakeStore())

	analysis := analyzer.Analyze(context.Background(), sampleAssessment())

	assert.Equal(t, "fallback", analysis.AnalysisType)
	// Sample assessment scores 33, above the medium band.
	assert.Equal(t, types.RecommendDeny, analysis.Recommendation)
	assert.NotEmpty(t, analysis.Summary)
	assert.NotEmpty(t, analysis.Rationale)
}

func TestAnalyze_FeedbackInjectedIntoContextualPrompt(t *testing.T) {
	store := newFakeStore(historicalMatch(0.82))
	store.feedback = []milvusstore.Match{
		{
			ID:         "loan_7",
			Similarity: 0.9,
			Meta:       milvusstore.EntryMeta{HasFeedback: true, FeedbackRating: 2, FeedbackComments: "missed seasonal income"},
		},
	}
	chat := &fakeChatModel{replies: []string{"- weigh seasonal income", approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{}, store)

	analysis := analyzer.Analyze(context.Background(), sampleAssessment())

	assert.Equal(t, "contextual", analysis.AnalysisType)
	require.Len(t, chat.calls, 2)
	// First call summarizes the feedback entries.
	assert.Contains(t, chat.calls[0], "missed seasonal income")
	// Second call carries the summarized insights.
	assert.Contains(t, chat.calls[1], "ANALYST FEEDBACK INSIGHTS")
	assert.Contains(t, chat.calls[1], "weigh seasonal income")
}

func TestAnalyze_FeedbackInjectedIntoBasicPrompt(t *testing.T) {
	// One feedback entry on record, but the only historical case sits below
	// the similarity floor, so the analysis takes the basic path.
	store := newFakeStore(historicalMatch(0.40))
	store.feedback = []milvusstore.Match{
		{
			ID:         "loan_7",
			Similarity: 0.9,
			Meta:       milvusstore.EntryMeta{HasFeedback: true, FeedbackRating: 2, FeedbackComments: "missed seasonal income"},
		},
	}
	chat := &fakeChatModel{replies: []string{"- weigh seasonal income", approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{}, store)

	analysis := analyzer.Analyze(context.Background(), sampleAssessment())

	assert.Equal(t, "basic", analysis.AnalysisType)
	require.Len(t, chat.calls, 2)
	assert.Contains(t, chat.calls[0], "missed seasonal income")
	assert.Contains(t, chat.calls[1], "ANALYST FEEDBACK INSIGHTS")
	assert.Contains(t, chat.calls[1], "weigh seasonal income")
	assert.NotContains(t, chat.calls[1], "HISTORICAL CONTEXT")
}

func TestAnalyze_FeedbackQueryEmbedsAssessment(t *testing.T) {
	store := newFakeStore()
	store.feedback = []milvusstore.Match{
		{
			ID:   "loan_7",
			Meta: milvusstore.EntryMeta{HasFeedback: true, FeedbackRating: 3, FeedbackComments: "fine"},
		},
	}
	embedder := &fakeEmbedder{}
	chat := &fakeChatModel{replies: []string{"- insight", approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, embedder, store)

	analyzer.Analyze(context.Background(), sampleAssessment())

	// The feedback lookup embeds the current assessment's profile, not a
	// canned query string.
	require.NotEmpty(t, embedder.texts)
	for _, text := range embedder.texts {
		assert.Contains(t, text, "Total Risk Score:")
	}
}

func TestAnalyze_ChatCallsAreDeadlineBounded(t *testing.T) {
	chat := &fakeChatModel{replies: []string{approveJSON}}
	analyzer := recommend.NewAnalyzer(chat, &fakeEmbedder{}, newFakeStore())

	analyzer.Analyze(context.Background(), sampleAssessment())

	require.Len(t, chat.deadlines, 1)
	assert.True(t, chat.deadlines[0])
}

func TestStoreAssessment_KeyedByLoanID(t *testing.T) {
	store := newFakeStore()
	analyzer := recommend.NewAnalyzer(&fakeChatModel{replies: []string{approveJSON}}, &fakeEmbedder{}, store)

	a := sampleAssessment()
	a.LLMAnalysis = &types.Analysis{AnalysisType: "basic", Elapsed: 1.5}
	require.NoError(t, analyzer.StoreAssessment(context.Background(), "4217", a))

	meta, ok := store.upserts["loan_4217"]
	require.True(t, ok)
	assert.Equal(t, "4217", meta.LoanID)
	assert.Equal(t, "basic", meta.AnalysisType)
	assert.False(t, meta.HasFeedback)
}

func TestRecordFeedback_FlagsEntry(t *testing.T) {
	store := newFakeStore()
	analyzer := recommend.NewAnalyzer(&fakeChatModel{replies: []string{approveJSON}}, &fakeEmbedder{}, store)

	entry := &types.FeedbackEntry{LoanID: "4217", Rating: 4, Comments: "agree"}
	require.NoError(t, analyzer.RecordFeedback(context.Background(), "4217", "report text", entry))

	meta := store.upserts["loan_4217"]
	assert.True(t, meta.HasFeedback)
	assert.Equal(t, int64(4), meta.FeedbackRating)
	assert.Equal(t, "agree", meta.FeedbackComments)
}
