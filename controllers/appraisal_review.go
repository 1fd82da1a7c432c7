package controllers

import (
	"net/http"

	"faculty-appraisal-api/models"

	"github.com/gin-gonic/gin"
)

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Remarks  string `json:"remarks"`
}

// HODDecision records the head of department's approve/reject decision.
func HODDecision(c *gin.Context) {
	recordDecision(c, models.StageHOD)
}

// AdminDecision records the administrator's final approve/reject decision.
func AdminDecision(c *gin.Context) {
	recordDecision(c, models.StageAdmin)
}

func recordDecision(c *gin.Context, stage models.ReviewStage) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appraisal")
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Decision must be either 'approve' or 'reject'",
			"code":    "validation_error",
		})
		return
	}

	decide := appraisalService.HODDecide
	if stage == models.StageAdmin {
		decide = appraisalService.AdminDecide
	}

	appraisal, err := decide(c.Request.Context(), principal, id, req.Decision, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Decision recorded",
		"appraisal": presentAppraisal(appraisal),
	})
}
