package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetProfile returns the principal resolved for this request. Login and token
// issuance belong to the identity provider.
func GetProfile(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"user_id":       principal.UserID,
			"name":          principal.Name,
			"email":         principal.Email,
			"role":          principal.Role,
			"department":    principal.Department,
			"employee_code": principal.EmployeeCode,
		},
	})
}
