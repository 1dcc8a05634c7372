package postgres

import (
	"time"
)

// Assessment lifecycle statuses.
const (
	StatusCompleted = 1
	StatusStale     = 2
)

// AssessmentRecord is the metadata row kept for each produced assessment.
// The heavy artifacts live elsewhere (report text in ES, embedding in
// Milvus); this table is the queryable ledger.
type AssessmentRecord struct {
	LoanID         string         `gorm:"column:loan_id;primaryKey;type:varchar(64)"`
	ExternalID     string         `gorm:"column:external_id;type:varchar(64);index"`
	CustomerName   string         `gorm:"column:customer_name;type:varchar(255);index"`
	CustomerType   string         `gorm:"column:customer_type;type:varchar(100)"`
	Branch         string         `gorm:"column:branch;type:varchar(255);index"`
	LoanAmount     float64        `gorm:"column:loan_amount;type:decimal(15,2)"`
	Currency       string         `gorm:"column:currency;type:varchar(10)"`
	TotalScore     float64        `gorm:"column:total_score;index"`
	RiskLevel      string         `gorm:"column:risk_level;type:varchar(50);index"`
	Recommendation string         `gorm:"column:recommendation;type:varchar(20);index"`
	AnalysisType   string         `gorm:"column:analysis_type;type:varchar(20)"`
	Status         int            `gorm:"column:status;type:smallint;default:1;index"`
	Payload        string         `gorm:"column:payload;type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AssessmentRecord) TableName() string {
	return "assessments"
}

func (r *AssessmentRecord) IsStale() bool {
	return r.Status == StatusStale
}

// FeedbackRecord is one analyst verdict on an assessment. Append-only.
type FeedbackRecord struct {
	ID                  uint   `gorm:"primaryKey;autoIncrement"`
	LoanID              string `gorm:"column:loan_id;type:varchar(64);index;not null"`
	AnalystID           string `gorm:"column:analyst_id;type:varchar(64);index"`
	AgentRecommendation string `gorm:"column:agent_recommendation;type:varchar(20)"`
	HumanDecision       string `gorm:"column:human_decision;type:varchar(20)"`
	Rating              int    `gorm:"column:rating;type:smallint"`
	Comments            string `gorm:"column:comments;type:text"`

	CreatedAt time.Time
}

func (FeedbackRecord) TableName() string {
	return "assessment_feedback"
}
