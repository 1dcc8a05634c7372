package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"loanrisk/reporting"
	"loanrisk/storage/postgres"
	"loanrisk/types"
)

// RecordFeedback stores an analyst verdict and re-flags the similarity store
// entry so future retrievals can filter on it. The stored report is the
// source of the original recommendation; a feedback on a loan without a
// report is rejected.
func (s *AssessmentService) RecordFeedback(ctx context.Context, req *types.FeedbackRequest) (*types.FeedbackEntry, error) {
	doc, err := s.reports.Find(ctx, req.LoanID)
	if err != nil {
		return nil, fmt.Errorf("load report for %s: %w", req.LoanID, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("no assessment found for loan %s", req.LoanID)
	}

	facts := reporting.Extract(doc.Report)

	entry := &types.FeedbackEntry{
		LoanID:              req.LoanID,
		AnalystID:           req.AnalystID,
		AgentRecommendation: facts.Recommendation,
		HumanDecision:       req.HumanDecision,
		Rating:              req.Rating,
		Comments:            req.Comments,
		Timestamp:           time.Now(),
	}

	if err := s.repo.CreateFeedback(ctx, &postgres.FeedbackRecord{
		LoanID:              entry.LoanID,
		AnalystID:           entry.AnalystID,
		AgentRecommendation: entry.AgentRecommendation,
		HumanDecision:       entry.HumanDecision,
		Rating:              entry.Rating,
		Comments:            entry.Comments,
	}); err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	// Feedback-flagged re-upsert is best effort: the verdict is already in
	// the ledger.
	if err := s.analyzer.RecordFeedback(ctx, req.LoanID, doc.Report, entry); err != nil {
		log.Printf(">>> [Service] feedback vector update failed: %v", err)
	}
	s.listCache.Flush()

	log.Printf(">>> [Service] feedback on loan %s: agent=%s human=%s rating=%d",
		entry.LoanID, entry.AgentRecommendation, entry.HumanDecision, entry.Rating)
	return entry, nil
}

// ListFeedback returns all recorded verdicts for a loan.
func (s *AssessmentService) ListFeedback(ctx context.Context, loanID string) ([]postgres.FeedbackRecord, error) {
	return s.repo.ListFeedback(ctx, loanID)
}
