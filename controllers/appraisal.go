package controllers

import (
	"net/http"

	"faculty-appraisal-api/models"
	"faculty-appraisal-api/services"
	"faculty-appraisal-api/utils"

	"github.com/gin-gonic/gin"
)

type appraisalResponse struct {
	models.Appraisal
	StatusLabel string `json:"status_label"`
	StatusColor string `json:"status_color"`
}

// MarshalJSON keeps the appraisal's nested approvals alongside the display fields.
func (r appraisalResponse) MarshalJSON() ([]byte, error) {
	return marshalMerged(r.Appraisal, gin.H{
		"status_label": r.StatusLabel,
		"status_color": r.StatusColor,
	})
}

func presentAppraisal(a *models.Appraisal) appraisalResponse {
	p := utils.PresentStatus(a.Status)
	return appraisalResponse{Appraisal: *a, StatusLabel: p.Label, StatusColor: p.Color}
}

// CreateAppraisal submits a new appraisal for the calling faculty member.
func CreateAppraisal(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req services.AppraisalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "validation_error"})
		return
	}

	appraisal, err := appraisalService.Create(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Appraisal submitted successfully",
		"appraisal": presentAppraisal(appraisal),
	})
}

// ListAppraisals returns the appraisals visible to the caller.
func ListAppraisals(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	status, err := utils.ParseStatusFilter(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid status filter", "code": "validation_error"})
		return
	}

	filter := services.AppraisalFilter{
		Status:       status,
		Department:   c.Query("department"),
		AcademicYear: c.Query("academic_year"),
		Search:       c.Query("search"),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}

	appraisals, total, err := appraisalService.List(c.Request.Context(), principal, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]appraisalResponse, 0, len(appraisals))
	for i := range appraisals {
		items = append(items, presentAppraisal(&appraisals[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"appraisals": items,
		"total":      total,
	})
}

// GetAppraisal returns one appraisal; records outside the caller's scope are 404.
func GetAppraisal(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appraisal")
	if !ok {
		return
	}

	appraisal, err := appraisalService.Get(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "appraisal": presentAppraisal(appraisal)})
}

// ResubmitAppraisal updates a pending or rejected appraisal and sends it back to the HOD.
func ResubmitAppraisal(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appraisal")
	if !ok {
		return
	}

	var req services.AppraisalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "validation_error"})
		return
	}

	appraisal, err := appraisalService.Resubmit(c.Request.Context(), principal, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Appraisal resubmitted for review",
		"appraisal": presentAppraisal(appraisal),
	})
}

// GetAppraisalReviews lists every recorded decision on an appraisal.
func GetAppraisalReviews(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appraisal")
	if !ok {
		return
	}

	reviews, err := appraisalService.Reviews(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "reviews": reviews, "total": len(reviews)})
}

// GetAppraisalHistory lists the status changes of an appraisal.
func GetAppraisalHistory(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "appraisal")
	if !ok {
		return
	}

	history, err := appraisalService.History(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": history, "total": len(history)})
}

// GetStatuses returns the display catalog of workflow statuses.
func GetStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "statuses": utils.StatusCatalog()})
}
