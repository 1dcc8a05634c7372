package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssessmentRepo wraps all operations on the assessment ledger.
type AssessmentRepo struct {
	db *gorm.DB
}

func NewAssessmentRepo(db *gorm.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

// Save inserts or replaces the record for a loan. Re-assessing a loan keeps
// one row per loan id.
func (r *AssessmentRepo) Save(ctx context.Context, record *AssessmentRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "loan_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}

func (r *AssessmentRepo) GetByLoanID(ctx context.Context, loanID string) (*AssessmentRecord, error) {
	var record AssessmentRecord
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListFilter narrows List; zero values mean "any".
type ListFilter struct {
	RiskLevel      string
	Recommendation string
	Branch         string
	MinScore       *float64
	MaxScore       *float64
	Limit          int
}

// List returns ledger rows matching the filter, newest first.
func (r *AssessmentRepo) List(ctx context.Context, filter *ListFilter) ([]AssessmentRecord, error) {
	tx := r.db.WithContext(ctx).Model(&AssessmentRecord{})

	if filter.RiskLevel != "" {
		tx = tx.Where("risk_level = ?", filter.RiskLevel)
	}
	if filter.Recommendation != "" {
		tx = tx.Where("recommendation = ?", filter.Recommendation)
	}
	if filter.Branch != "" {
		tx = tx.Where("branch LIKE ?", "%"+filter.Branch+"%")
	}
	if filter.MinScore != nil {
		tx = tx.Where("total_score >= ?", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		tx = tx.Where("total_score <= ?", *filter.MaxScore)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var results []AssessmentRecord
	err := tx.Order("created_at DESC").Limit(limit).Find(&results).Error
	return results, err
}

// Stats is an aggregate view over the ledger.
type Stats struct {
	Total            int64            `json:"total"`
	AverageScore     float64          `json:"average_score"`
	ByRiskLevel      map[string]int64 `json:"by_risk_level"`
	ByRecommendation map[string]int64 `json:"by_recommendation"`
}

func (r *AssessmentRepo) Aggregate(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByRiskLevel:      map[string]int64{},
		ByRecommendation: map[string]int64{},
	}

	tx := r.db.WithContext(ctx).Model(&AssessmentRecord{})
	if err := tx.Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if stats.Total == 0 {
		return stats, nil
	}

	var avg *float64
	if err := r.db.WithContext(ctx).Model(&AssessmentRecord{}).
		Select("AVG(total_score)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AverageScore = *avg
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var levels []bucket
	if err := r.db.WithContext(ctx).Model(&AssessmentRecord{}).
		Select("risk_level AS key, COUNT(*) AS count").
		Group("risk_level").Scan(&levels).Error; err != nil {
		return nil, err
	}
	for _, b := range levels {
		stats.ByRiskLevel[b.Key] = b.Count
	}

	var recs []bucket
	if err := r.db.WithContext(ctx).Model(&AssessmentRecord{}).
		Select("recommendation AS key, COUNT(*) AS count").
		Group("recommendation").Scan(&recs).Error; err != nil {
		return nil, err
	}
	for _, b := range recs {
		stats.ByRecommendation[b.Key] = b.Count
	}

	return stats, nil
}

// MarkStale flags completed assessments older than the cutoff. Used by the
// nightly sweep so consumers know a re-assessment is due.
func (r *AssessmentRepo) MarkStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&AssessmentRecord{}).
		Where("status = ? AND updated_at < ?", StatusCompleted, cutoff).
		Update("status", StatusStale)
	return result.RowsAffected, result.Error
}

// CreateFeedback appends one analyst verdict.
func (r *AssessmentRepo) CreateFeedback(ctx context.Context, feedback *FeedbackRecord) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// ListFeedback returns all verdicts for a loan, oldest first.
func (r *AssessmentRepo) ListFeedback(ctx context.Context, loanID string) ([]FeedbackRecord, error) {
	var results []FeedbackRecord
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC").
		Find(&results).Error
	return results, err
}
