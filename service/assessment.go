package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"loanrisk/logic/loader"
	"loanrisk/logic/recommend"
	"loanrisk/logic/risk"
	"loanrisk/reporting"
	"loanrisk/storage/es"
	"loanrisk/storage/postgres"
	"loanrisk/types"
)

// AssessmentService drives the whole pipeline: fetch, score, overlay,
// recommend, persist. One instance serves all requests.
type AssessmentService struct {
	client   *loader.Client
	engine   *risk.Engine
	overlay  *risk.Overlay
	analyzer *recommend.Analyzer
	repo     *postgres.AssessmentRepo
	reports  *es.ReportStore

	// listCache keeps listing and stats responses for a short window; any
	// completed assessment or feedback invalidates it.
	listCache *cache.Cache
}

func NewAssessmentService(
	client *loader.Client,
	engine *risk.Engine,
	overlay *risk.Overlay,
	analyzer *recommend.Analyzer,
	repo *postgres.AssessmentRepo,
	reports *es.ReportStore,
) *AssessmentService {
	return &AssessmentService{
		client:    client,
		engine:    engine,
		overlay:   overlay,
		analyzer:  analyzer,
		repo:      repo,
		reports:   reports,
		listCache: cache.New(30*time.Second, time.Minute),
	}
}

// AssessmentResult bundles the structured assessment with its rendered
// report.
type AssessmentResult struct {
	AssessmentID string            `json:"assessment_id"`
	Assessment   *types.Assessment `json:"assessment"`
	Report       string            `json:"report"`
}

// Assess runs one full evaluation cycle. Fetching and scoring failures are
// fatal; everything downstream of the risk engine degrades instead of
// failing, so a reachable core banking service always yields a report.
func (s *AssessmentService) Assess(ctx context.Context, req *types.AnalyzeRequest) (*AssessmentResult, error) {
	start := time.Now()

	loan, err := s.client.FetchLoan(ctx, req.LoanID, req.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("fetch loan: %w", err)
	}

	assessment, err := s.engine.Evaluate(loan)
	if err != nil {
		return nil, fmt.Errorf("evaluate loan %s: %w", loan.LoanID, err)
	}

	assessment.BusinessRules = s.overlay.Apply(assessment)
	assessment.LLMAnalysis = s.analyzer.Analyze(ctx, assessment)

	report := reporting.Render(assessment)
	loanID := assessment.LoanInfo.BasicInfo.LoanID
	assessmentID := uuid.New().String()

	// Persistence is post-hoc: the caller gets the result even when a
	// backing store is down.
	if err := s.analyzer.StoreAssessment(ctx, loanID, assessment); err != nil {
		log.Printf(">>> [Service] vector store write failed: %v", err)
	}
	if err := s.storeReport(ctx, assessmentID, loanID, assessment, report); err != nil {
		log.Printf(">>> [Service] report store write failed: %v", err)
	}
	if err := s.saveRecord(ctx, assessment); err != nil {
		log.Printf(">>> [Service] ledger write failed: %v", err)
	}
	s.listCache.Flush()

	log.Printf(">>> [Service] assessed loan %s in %v (score %.1f, %s)",
		loanID, time.Since(start), assessment.RiskAssessment.TotalScore, assessment.RiskAssessment.RiskLevel)
	return &AssessmentResult{AssessmentID: assessmentID, Assessment: assessment, Report: report}, nil
}

// GetReport returns the stored report for a loan, or nil when the loan was
// never assessed.
func (s *AssessmentService) GetReport(ctx context.Context, loanID string) (*es.ReportDoc, error) {
	return s.reports.Find(ctx, loanID)
}

// GetRecord returns the ledger row for a loan.
func (s *AssessmentService) GetRecord(ctx context.Context, loanID string) (*postgres.AssessmentRecord, error) {
	return s.repo.GetByLoanID(ctx, loanID)
}

// List returns ledger rows matching the filter, served from the short cache
// when possible.
func (s *AssessmentService) List(ctx context.Context, filter *postgres.ListFilter) ([]postgres.AssessmentRecord, error) {
	key := listCacheKey(filter)
	if cached, ok := s.listCache.Get(key); ok {
		return cached.([]postgres.AssessmentRecord), nil
	}

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.listCache.SetDefault(key, records)
	return records, nil
}

// Stats returns aggregate counters over the ledger.
func (s *AssessmentService) Stats(ctx context.Context) (*postgres.Stats, error) {
	if cached, ok := s.listCache.Get("stats"); ok {
		return cached.(*postgres.Stats), nil
	}
	stats, err := s.repo.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	s.listCache.SetDefault("stats", stats)
	return stats, nil
}

// Invalidate drops all cached listings and stats.
func (s *AssessmentService) Invalidate() {
	s.listCache.Flush()
}

func (s *AssessmentService) storeReport(ctx context.Context, assessmentID, loanID string, a *types.Assessment, report string) error {
	doc := &es.ReportDoc{
		AssessmentID: assessmentID,
		LoanID:       loanID,
		Report:       report,
		RiskLevel:    a.RiskAssessment.RiskLevel,
		TotalScore:   a.RiskAssessment.TotalScore,
	}
	if analysis := a.LLMAnalysis; analysis != nil {
		doc.Recommendation = analysis.Recommendation
		doc.AnalysisType = analysis.AnalysisType
	}
	return s.reports.Store(ctx, doc)
}

func (s *AssessmentService) saveRecord(ctx context.Context, a *types.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}

	record := &postgres.AssessmentRecord{
		LoanID:       a.LoanInfo.BasicInfo.LoanID,
		ExternalID:   a.LoanInfo.BasicInfo.ExternalID,
		CustomerName: a.CustomerInfo.Name,
		CustomerType: a.CustomerInfo.Type,
		Branch:       a.LoanInfo.BasicInfo.Branch.Description,
		LoanAmount:   a.LoanInfo.Financials.LoanAmount,
		Currency:     a.LoanInfo.Financials.Currency,
		TotalScore:   a.RiskAssessment.TotalScore,
		RiskLevel:    a.RiskAssessment.RiskLevel,
		Status:       postgres.StatusCompleted,
		Payload:      string(payload),
	}
	if analysis := a.LLMAnalysis; analysis != nil {
		record.Recommendation = analysis.Recommendation
		record.AnalysisType = analysis.AnalysisType
	}
	return s.repo.Save(ctx, record)
}

func listCacheKey(filter *postgres.ListFilter) string {
	data, _ := json.Marshal(filter)
	return "list:" + string(data)
}
