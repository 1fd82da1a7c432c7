package controllers

import (
	"net/http"

	"faculty-appraisal-api/models"
	"faculty-appraisal-api/services"

	"github.com/gin-gonic/gin"
)

// ListUsers returns users for the admin role-management screen.
func ListUsers(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	users, err := userService.ListUsers(c.Request.Context(), principal, services.UserFilter{
		Role:       models.Role(c.Query("role")),
		Department: c.Query("department"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": len(users)})
}

// ChangeUserRole promotes a faculty member to HOD or demotes an HOD.
func ChangeUserRole(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "user")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Role is required", "code": "validation_error"})
		return
	}

	user, err := userService.ChangeRole(c.Request.Context(), principal, id, models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Role updated", "user": user})
}
