package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"faculty-appraisal-api/models"

	"gorm.io/gorm"
)

func recordStatusChange(tx *gorm.DB, appraisalID int, old *models.AppraisalStatus, next models.AppraisalStatus, changedBy int, reason *string, note string, now time.Time) error {
	history := models.AppraisalStatusHistory{
		AppraisalID: appraisalID,
		OldStatus:   old,
		NewStatus:   next,
		ChangedBy:   changedBy,
		Reason:      reason,
		Notes:       ptr(note),
		CreatedAt:   now,
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("log status history: %w", err)
	}
	return nil
}

func writeAudit(ctx context.Context, tx *gorm.DB, p Principal, action string, appraisal *models.Appraisal, values map[string]interface{}, description string) error {
	meta := requestMetaFrom(ctx)
	serialized, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode audit values: %w", err)
	}
	entityID := appraisal.AppraisalID
	audit := models.AuditLog{
		UserID:      p.UserID,
		Action:      action,
		EntityType:  "appraisal",
		EntityID:    &entityID,
		NewValues:   ptr(string(serialized)),
		Description: ptr(description),
		IPAddress:   meta.IPAddress,
	}
	if appraisal.AppraisalNumber != "" {
		number := appraisal.AppraisalNumber
		audit.EntityNumber = &number
	}
	if ua := strings.TrimSpace(meta.UserAgent); ua != "" {
		audit.UserAgent = &ua
	}

	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func ptr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
