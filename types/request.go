package types

// AnalyzeRequest drives one pipeline run. At least one identifier is required.
type AnalyzeRequest struct {
	LoanID     string `json:"loan_id"`
	ExternalID string `json:"external_id"`
	Notes      string `json:"notes,omitempty"`
}

// FeedbackRequest records an analyst decision against a produced assessment.
type FeedbackRequest struct {
	LoanID        string `json:"loan_id" binding:"required"`
	AnalystID     string `json:"analyst_id"`
	HumanDecision string `json:"human_decision" binding:"required"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comments      string `json:"comments"`
}

// RuleRow is one weighted rule as exposed by the rules management API.
type RuleRow struct {
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Weight   float64 `json:"weight"`
}
