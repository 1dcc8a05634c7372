package router

import (
	"github.com/gin-gonic/gin"

	"loanrisk/api/handler"
)

func RegisterRoutes(r *gin.Engine, assessmentH *handler.AssessmentHandler) {
	r.GET("/health", assessmentH.Health)

	api := r.Group("/api/v1")
	{
		loans := api.Group("/loans")
		{
			loans.POST("/analyze", assessmentH.Analyze)
		}
		analyses := api.Group("/analyses")
		{
			analyses.GET("/recent", assessmentH.Recent)
			analyses.GET("/:loan_id", assessmentH.Get)
		}
		feedback := api.Group("/feedback")
		{
			feedback.POST("", assessmentH.Feedback)
			feedback.GET("/loan/:loan_id", assessmentH.FeedbackByLoan)
		}
		rules := api.Group("/rules")
		{
			rules.GET("", assessmentH.Rules)
			rules.POST("", assessmentH.AddRule)
			rules.POST("/reset", assessmentH.ResetRules)
		}
		api.POST("/cache/clear", assessmentH.ClearCache)
		api.GET("/stats", assessmentH.Stats)
	}
}
