package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"loanrisk/api/response"
	"loanrisk/service"
	"loanrisk/storage/postgres"
	"loanrisk/types"
)

type AssessmentHandler struct {
	assessmentSvc *service.AssessmentService
	rulesSvc      *service.RulesService
}

func NewAssessmentHandler(assessmentSvc *service.AssessmentService, rulesSvc *service.RulesService) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentSvc: assessmentSvc,
		rulesSvc:      rulesSvc,
	}
}

// Analyze runs the full pipeline for one loan.
func (h *AssessmentHandler) Analyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "bad request: "+err.Error())
		return
	}
	if req.LoanID == "" && req.ExternalID == "" {
		response.Fail(c, "either loan_id or external_id is required")
		return
	}

	result, err := h.assessmentSvc.Assess(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, result)
}

// Recent lists recent assessments from the ledger, with optional filters.
func (h *AssessmentHandler) Recent(c *gin.Context) {
	filter := &postgres.ListFilter{
		RiskLevel:      c.Query("risk_level"),
		Recommendation: c.Query("recommendation"),
		Branch:         c.Query("branch"),
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := c.Query("min_score"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinScore = &v
		}
	}
	if raw := c.Query("max_score"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxScore = &v
		}
	}

	records, err := h.assessmentSvc.List(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, map[string]any{
		"analyses": records,
		"count":    len(records),
	})
}

// Get returns the ledger row and stored report for one loan.
func (h *AssessmentHandler) Get(c *gin.Context) {
	loanID := c.Param("loan_id")

	record, err := h.assessmentSvc.GetRecord(c.Request.Context(), loanID)
	if err != nil {
		response.Fail(c, "assessment not found for loan "+loanID)
		return
	}

	data := map[string]any{"analysis": record}
	if doc, err := h.assessmentSvc.GetReport(c.Request.Context(), loanID); err == nil && doc != nil {
		data["report"] = doc.Report
	}
	response.Success(c, data)
}

// Feedback records an analyst verdict on a produced assessment.
func (h *AssessmentHandler) Feedback(c *gin.Context) {
	var req types.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "bad request: "+err.Error())
		return
	}

	entry, err := h.assessmentSvc.RecordFeedback(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, entry)
}

// FeedbackByLoan lists the recorded verdicts for one loan.
func (h *AssessmentHandler) FeedbackByLoan(c *gin.Context) {
	loanID := c.Param("loan_id")
	records, err := h.assessmentSvc.ListFeedback(c.Request.Context(), loanID)
	if err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, map[string]any{
		"loan_id":  loanID,
		"feedback": records,
		"count":    len(records),
	})
}

// Rules returns the live scoring table.
func (h *AssessmentHandler) Rules(c *gin.Context) {
	response.Success(c, h.rulesSvc.Rows())
}

// AddRule appends one rule to the live table.
func (h *AssessmentHandler) AddRule(c *gin.Context) {
	var row types.RuleRow
	if err := c.ShouldBindJSON(&row); err != nil {
		response.Fail(c, "bad request: "+err.Error())
		return
	}
	if err := h.rulesSvc.Add(&row); err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, row)
}

// ResetRules restores the default scoring table.
func (h *AssessmentHandler) ResetRules(c *gin.Context) {
	if err := h.rulesSvc.Reset(); err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, h.rulesSvc.Rows())
}

// ClearCache drops the listing cache.
func (h *AssessmentHandler) ClearCache(c *gin.Context) {
	h.assessmentSvc.Invalidate()
	response.Success(c, "cache cleared")
}

// Stats returns aggregate counters over the ledger.
func (h *AssessmentHandler) Stats(c *gin.Context) {
	stats, err := h.assessmentSvc.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, stats)
}

// Health is the liveness probe.
func (h *AssessmentHandler) Health(c *gin.Context) {
	response.Success(c, map[string]string{"status": "ok"})
}
