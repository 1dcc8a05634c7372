package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ReportDoc is the rendered assessment report kept in Elasticsearch. The
// report text is the document of record for feedback recovery: when an
// analyst files feedback we re-read it from here instead of re-running the
// pipeline.
type ReportDoc struct {
	AssessmentID   string    `json:"assessment_id"`
	LoanID         string    `json:"loan_id"`
	Report         string    `json:"report"`
	RiskLevel      string    `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
	TotalScore     float64   `json:"total_score"`
	AnalysisType   string    `json:"analysis_type"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReportStore struct {
	client *elasticsearch.Client
	index  string
}

// NewReportStore initializes the ES client and ensures the index exists.
func NewReportStore(addresses []string, indexName string) (*ReportStore, error) {
	cfg := elasticsearch.Config{
		Addresses: addresses,
	}
	cli, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating the client: %s", err)
	}

	store := &ReportStore{client: cli, index: indexName}
	if err := store.initMapping(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *ReportStore) initMapping(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index})
	if err != nil {
		return err
	}
	if res.StatusCode == 200 {
		return nil
	}

	mapping := `
	{
	  "settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	  },
	  "mappings": {
		"properties": {
		  "assessment_id":  { "type": "keyword" },
		  "loan_id":        { "type": "keyword" },
		  "report":         { "type": "text" },
		  "risk_level":     { "type": "keyword" },
		  "recommendation": { "type": "keyword" },
		  "total_score":    { "type": "double" },
		  "analysis_type":  { "type": "keyword" },
		  "created_at":     { "type": "date" }
		}
	  }
	}`

	log.Printf(">>> [ES] Creating index %s...", s.index)
	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index error: %v", err)
	}
	if res.IsError() {
		return fmt.Errorf("create index response error: %s", res.String())
	}
	return nil
}

// Store writes (or replaces) the report for one loan. The loan id is the ES
// _id, so re-running an assessment overwrites its previous report.
func (s *ReportStore) Store(ctx context.Context, doc *ReportDoc) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := s.client.Index(
		s.index,
		strings.NewReader(string(data)),
		s.client.Index.WithDocumentID(doc.LoanID),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index report error: %v", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index report response error: %s", res.String())
	}
	return nil
}

// Find returns the stored report for a loan, or nil when none exists.
func (s *ReportStore) Find(ctx context.Context, loanID string) (*ReportDoc, error) {
	res, err := s.client.Get(
		s.index, loanID,
		s.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get report error: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("get report response error: %s", res.String())
	}

	var envelope struct {
		Source ReportDoc `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode report error: %v", err)
	}
	return &envelope.Source, nil
}

// Recent returns the latest reports, newest first.
func (s *ReportStore) Recent(ctx context.Context, limit int) ([]*ReportDoc, error) {
	query := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
	}
	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("error encoding query: %s", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, fmt.Errorf("search reports error: %v", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search reports response error: %s", res.String())
	}

	var envelope struct {
		Hits struct {
			Hits []struct {
				Source ReportDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search error: %v", err)
	}

	docs := make([]*ReportDoc, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		doc := hit.Source
		docs = append(docs, &doc)
	}
	return docs, nil
}

// Delete removes a stored report; missing documents are not an error.
func (s *ReportStore) Delete(ctx context.Context, loanID string) error {
	res, err := s.client.Delete(
		s.index, loanID,
		s.client.Delete.WithContext(ctx),
		s.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete report error: %v", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete report response error: %s", res.String())
	}
	return nil
}
