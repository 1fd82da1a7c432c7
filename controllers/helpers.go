package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"faculty-appraisal-api/middleware"
	"faculty-appraisal-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	appraisalService    *services.AppraisalService
	userService         *services.UserService
	notificationService *services.NotificationService
)

// InitServices wires the handlers to db. It must run before the routes serve traffic.
func InitServices(db *gorm.DB, notifier services.Notifier) {
	appraisalService = services.NewAppraisalService(db, notifier)
	userService = services.NewUserService(db)
	notificationService = services.NewNotificationService(db)
}

// UserService exposes the principal resolver used by the auth middleware.
func UserService() *services.UserService {
	return userService
}

// respondError maps a service error to its HTTP status.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, services.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	}

	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"success": false, "error": "Internal server error", "code": code})
		return
	}

	body := gin.H{"success": false, "error": err.Error(), "code": code}
	var svcErr *services.Error
	if errors.As(err, &svcErr) && !svcErr.Fields.Empty() {
		body["fields"] = svcErr.Fields
	}
	c.JSON(status, body)
}

func currentPrincipal(c *gin.Context) (services.Principal, bool) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User context missing"})
		return services.Principal{}, false
	}
	return principal, true
}

func parseIDParam(c *gin.Context, name, label string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid " + label + " ID", "code": "validation_error"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

// marshalMerged adds extra top-level keys to the JSON object of base.
func marshalMerged(base interface{}, extra map[string]interface{}) ([]byte, error) {
	raw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for key, value := range extra {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = encoded
	}
	return json.Marshal(fields)
}
