package milvus

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/cloudwego/eino-ext/components/indexer/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// EntryMeta is the scalar metadata stored alongside each embedded assessment.
type EntryMeta struct {
	LoanID           string
	HasFeedback      bool
	AnalysisType     string
	FeedbackRating   int64
	FeedbackComments string
	ProcessingTime   float64
	Timestamp        int64
}

// Match is one ranked neighbor returned by Query.
type Match struct {
	ID         string
	Document   string
	Similarity float64
	Meta       EntryMeta
}

// AssessmentStore is the similarity store over historical assessments.
// Writes go through the eino indexer (which embeds the document); reads use
// the raw client so the caller controls the query vector and filter.
type AssessmentStore struct {
	cli        client.Client
	indexer    indexer.Indexer
	collection string
}

// NewAssessmentStore creates the collection schema on first use and prepares
// the HNSW index over a cosine metric.
func NewAssessmentStore(ctx context.Context, cli client.Client, embedder embedding.Embedder, collection string) (*AssessmentStore, error) {
	vecs, err := embedder.EmbedStrings(ctx, []string{"probe"})
	if err != nil {
		return nil, fmt.Errorf("embedder probe failed: %v", err)
	}
	dim := len(vecs[0])

	fields := []*entity.Field{
		{
			Name:       "id",
			DataType:   entity.FieldTypeVarChar,
			PrimaryKey: true,
			AutoID:     false,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name:       "vector",
			DataType:   entity.FieldTypeFloatVector,
			TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)},
		},
		{
			Name:       "document",
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "65535"},
		},
		{
			Name: "loan_id", DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name: "has_feedback", DataType: entity.FieldTypeBool,
		},
		{
			Name: "analysis_type", DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "32"},
		},
		{
			Name: "feedback_rating", DataType: entity.FieldTypeInt64,
		},
		{
			Name: "feedback_comments", DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "4096"},
		},
		{
			Name: "processing_time", DataType: entity.FieldTypeDouble,
		},
		{
			Name: "timestamp", DataType: entity.FieldTypeInt64,
		},
	}

	converter := func(ctx context.Context, docs []*schema.Document, vectors [][]float64) ([]interface{}, error) {
		rows := make([]interface{}, len(docs))
		for i, doc := range docs {
			vec32 := make([]float32, len(vectors[i]))
			for j, v := range vectors[i] {
				vec32[j] = float32(v)
			}

			meta := doc.MetaData
			if meta == nil {
				meta = map[string]any{}
			}
			rows[i] = map[string]interface{}{
				"id":                doc.ID,
				"vector":            vec32,
				"document":          doc.Content,
				"loan_id":           metaString(meta, "loan_id"),
				"has_feedback":      metaBool(meta, "has_feedback"),
				"analysis_type":     metaString(meta, "analysis_type"),
				"feedback_rating":   metaInt64(meta, "feedback_rating"),
				"feedback_comments": metaString(meta, "feedback_comments"),
				"processing_time":   metaFloat64(meta, "processing_time"),
				"timestamp":         metaInt64(meta, "timestamp"),
			}
		}
		return rows, nil
	}

	idx, err := milvus.NewIndexer(ctx, &milvus.IndexerConfig{
		Client:            cli,
		Collection:        collection,
		Embedding:         embedder,
		Fields:            fields,
		DocumentConverter: converter,
		MetricType:        milvus.L2,
	})
	if err != nil {
		return nil, fmt.Errorf("milvus indexer init failed: %v", err)
	}

	// Swap the default index for HNSW; a failure here degrades search speed,
	// not correctness.
	_ = cli.ReleaseCollection(ctx, collection)
	if err := cli.DropIndex(ctx, collection, "vector"); err != nil {
		log.Printf(">>> [Milvus] drop default index: %v", err)
	}
	hnsw, _ := entity.NewIndexHNSW(entity.COSINE, 16, 200)
	if err := cli.CreateIndex(ctx, collection, "vector", hnsw, false); err != nil {
		log.Printf(">>> [Milvus] create HNSW index: %v", err)
	}
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("load collection failed: %v", err)
	}

	return &AssessmentStore{cli: cli, indexer: idx, collection: collection}, nil
}

// Upsert replaces the entry keyed by id: delete-by-pk, then embed and insert
// through the eino indexer. Replaying the same id is idempotent.
func (s *AssessmentStore) Upsert(ctx context.Context, id, document string, meta EntryMeta) error {
	expr := fmt.Sprintf("id == '%s'", id)
	if err := s.cli.Delete(ctx, s.collection, "", expr); err != nil {
		log.Printf(">>> [Milvus] delete before upsert (%s): %v", id, err)
	}

	doc := &schema.Document{
		ID:      id,
		Content: document,
		MetaData: map[string]any{
			"loan_id":           meta.LoanID,
			"has_feedback":      meta.HasFeedback,
			"analysis_type":     meta.AnalysisType,
			"feedback_rating":   meta.FeedbackRating,
			"feedback_comments": meta.FeedbackComments,
			"processing_time":   meta.ProcessingTime,
			"timestamp":         meta.Timestamp,
		},
	}
	if _, err := s.indexer.Store(ctx, []*schema.Document{doc}); err != nil {
		return fmt.Errorf("milvus store failed: %v", err)
	}
	return nil
}

// Query returns the nearest neighbors above floor, ranked by similarity.
// With the cosine metric the engine's score is already 1 - distance. Any
// failure yields an empty result set: callers treat "no similar cases" and
// "store unavailable" identically.
func (s *AssessmentStore) Query(ctx context.Context, embedding []float64, topK int, floor float64, filterExpr string) []Match {
	vec32 := make([]float32, len(embedding))
	for i, v := range embedding {
		vec32[i] = float32(v)
	}

	if err := s.cli.LoadCollection(ctx, s.collection, false); err != nil {
		log.Printf(">>> [Milvus] load warning: %v", err)
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	results, err := s.cli.Search(
		ctx, s.collection, nil, filterExpr,
		[]string{"document", "loan_id", "has_feedback", "analysis_type", "feedback_rating", "feedback_comments", "timestamp"},
		[]entity.Vector{entity.FloatVector(vec32)},
		"vector", entity.COSINE, topK, sp,
	)
	if err != nil {
		log.Printf(">>> [Milvus] search failed: %v", err)
		return nil
	}

	var matches []Match
	for _, result := range results {
		for i := 0; i < result.IDs.Len(); i++ {
			id, err := result.IDs.GetAsString(i)
			if err != nil {
				continue
			}
			sim := float64(result.Scores[i])
			if sim < floor {
				continue
			}

			m := Match{ID: id, Similarity: sim}
			for _, field := range result.Fields {
				switch field.Name() {
				case "document":
					m.Document, _ = field.GetAsString(i)
				case "loan_id":
					m.Meta.LoanID, _ = field.GetAsString(i)
				case "has_feedback":
					m.Meta.HasFeedback, _ = field.GetAsBool(i)
				case "analysis_type":
					m.Meta.AnalysisType, _ = field.GetAsString(i)
				case "feedback_rating":
					m.Meta.FeedbackRating, _ = field.GetAsInt64(i)
				case "feedback_comments":
					m.Meta.FeedbackComments, _ = field.GetAsString(i)
				case "timestamp":
					m.Meta.Timestamp, _ = field.GetAsInt64(i)
				}
			}
			matches = append(matches, m)
		}
	}

	log.Printf(">>> [Milvus] %d similar assessments (floor %.2f)", len(matches), floor)
	return matches
}

// Count reports the number of stored assessments; 0 on any failure.
func (s *AssessmentStore) Count(ctx context.Context) int64 {
	_ = s.cli.Flush(ctx, s.collection, false)
	stats, err := s.cli.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		log.Printf(">>> [Milvus] stats failed: %v", err)
		return 0
	}
	n, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// WaitLoaded blocks until the collection is queryable, up to the deadline.
func (s *AssessmentStore) WaitLoaded(ctx context.Context, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		state, _ := s.cli.GetLoadState(ctx, s.collection, nil)
		if state == entity.LoadStateLoaded {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func metaString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func metaBool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func metaInt64(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func metaFloat64(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}
