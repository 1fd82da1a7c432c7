package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetNotifications lists the caller's notifications with the unread count.
func GetNotifications(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true" || c.Query("unread") == "1"
	items, unread, err := notificationService.List(c.Request.Context(), principal, unreadOnly, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": items,
		"unread":        unread,
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid notification ID", "code": "validation_error"})
		return
	}

	if err := notificationService.MarkRead(c.Request.Context(), principal, uint(id)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
