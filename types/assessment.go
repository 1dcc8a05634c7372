package types

import "time"

// Recommendation values produced by the analysis stage.
const (
	RecommendApprove = "approve"
	RecommendDeny    = "deny"
	RecommendReview  = "review"
)

// RiskIndicator is the per-field evaluation result: the raw value, the rule
// that matched (or a marker explaining why none did), the contributed score
// and its severity label.
type RiskIndicator struct {
	Value       any     `json:"value"`
	MatchedRule string  `json:"matched_rule"`
	Score       float64 `json:"score"`
	RiskLevel   string  `json:"risk_level"`
}

// RiskAssessment aggregates all indicators. AML indicators are present in the
// map but never counted in TotalScore.
type RiskAssessment struct {
	Indicators map[string]RiskIndicator `json:"indicators"`
	TotalScore float64                  `json:"total_score"`
	RiskLevel  string                   `json:"risk_level"`
}

// Demographics holds the applicant's personal attributes after consolidation.
type Demographics struct {
	Gender        string `json:"gender"`
	MaritalStatus string `json:"marital_status"`
	Age           string `json:"age"`
	BirthDate     string `json:"birth_date"`
	Phone         string `json:"phone"`
}

// CustomerInfo is the consolidated applicant view. UDFData keeps the
// display-only groups; ScoringUDFData the groups that contributed indicators.
type CustomerInfo struct {
	Name           string       `json:"name"`
	ID             string       `json:"id"`
	Type           string       `json:"type"`
	Address        string       `json:"address,omitempty"`
	Demographics   Demographics `json:"demographics"`
	AMLChecks      []AMLCheck   `json:"aml_checks"`
	UDFData        []UDFGroup   `json:"udf_data"`
	ScoringUDFData []UDFGroup   `json:"scoring_udf_data,omitempty"`
}

// BranchInfo identifies the originating branch and loan officer.
type BranchInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Officer     string `json:"officer"`
}

// LoanBasicInfo is the structured identity of the loan.
type LoanBasicInfo struct {
	LoanID     string     `json:"loan_id"`
	ExternalID string     `json:"external_id"`
	Account    string     `json:"account"`
	Status     string     `json:"status"`
	Product    string     `json:"product"`
	Branch     BranchInfo `json:"branch"`
}

// LoanFinancials is the structured money side of the loan.
type LoanFinancials struct {
	LoanAmount           float64 `json:"loan_amount"`
	PersonalContribution float64 `json:"personal_contribution"`
	TotalInterest        float64 `json:"total_interest"`
	MonthlyPayment       float64 `json:"monthly_payment"`
	AssetsTotal          float64 `json:"assets_total"`
	APR                  float64 `json:"apr"`
	InterestRate         float64 `json:"interest_rate"`
	TermMonths           int     `json:"term_months"`
	Currency             string  `json:"currency"`
}

// LoanInfo groups the structured loan data.
type LoanInfo struct {
	BasicInfo  LoanBasicInfo  `json:"basic_info"`
	Financials LoanFinancials `json:"financials"`
}

// BusinessRuleResult is one satisfied overlay rule. Impact carries the score
// delta and message; it is advisory and never folded into the total score.
type BusinessRuleResult struct {
	Rule   string         `json:"rule"`
	Impact map[string]any `json:"impact"`
}

// SimilarCase is one retrieved historical assessment quoted in the analysis.
type SimilarCase struct {
	Customer   string         `json:"customer"`
	Amount     float64        `json:"amount"`
	Score      float64        `json:"score"`
	Decision   string         `json:"decision"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity_score"`
}

// RAGContext records which historical cases informed a contextual analysis.
type RAGContext struct {
	SimilarCases []SimilarCase `json:"similar_cases"`
}

// Analysis is the recommendation outcome. Every branch of the engine (basic,
// contextual, fallback) produces this same fully populated shape, tagged by
// AnalysisType, so consumers never branch on error conditions.
type Analysis struct {
	Summary             string      `json:"summary"`
	Recommendation      string      `json:"recommendation"`
	Rationale           []string    `json:"rationale"`
	KeyFindings         []string    `json:"key_findings"`
	Conditions          []string    `json:"conditions"`
	ComparativeAnalysis []string    `json:"comparative_analysis,omitempty"`
	RAGContext          *RAGContext `json:"rag_context,omitempty"`
	AnalysisType        string      `json:"analysis_type"`
	Elapsed             float64     `json:"processing_time"`
}

// Assessment is the result of one evaluation cycle. It is created once by the
// risk engine and is immutable afterwards, except for the later attachment of
// BusinessRules and LLMAnalysis.
type Assessment struct {
	CustomerInfo   CustomerInfo         `json:"customer_info"`
	LoanInfo       LoanInfo             `json:"loan_info"`
	RiskAssessment RiskAssessment       `json:"risk_assessment"`
	BusinessRules  []BusinessRuleResult `json:"business_rules,omitempty"`
	LLMAnalysis    *Analysis            `json:"llm_analysis,omitempty"`
}

// FeedbackEntry is an analyst's verdict on a produced assessment. Entries are
// append-only and linked to the assessment by loan id.
type FeedbackEntry struct {
	LoanID              string    `json:"loan_id"`
	AnalystID           string    `json:"analyst_id"`
	AgentRecommendation string    `json:"agent_recommendation"`
	HumanDecision       string    `json:"human_decision"`
	Rating              int       `json:"rating"`
	Comments            string    `json:"comments"`
	Timestamp           time.Time `json:"timestamp"`
}
