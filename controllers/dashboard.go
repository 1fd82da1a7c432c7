package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns status counts, department rollups and the submission trend
// over the appraisals visible to the caller.
func GetDashboard(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	stats, err := appraisalService.Dashboard(c.Request.Context(), principal, c.Query("window"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
