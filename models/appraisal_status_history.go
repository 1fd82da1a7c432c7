package models

import "time"

// AppraisalStatusHistory tracks historical status changes for appraisals.
type AppraisalStatusHistory struct {
	HistoryID   int              `gorm:"primaryKey;column:history_id" json:"history_id"`
	AppraisalID int              `gorm:"column:appraisal_id;index" json:"appraisal_id"`
	OldStatus   *AppraisalStatus `gorm:"column:old_status;size:20" json:"old_status"`
	NewStatus   AppraisalStatus  `gorm:"column:new_status;size:20" json:"new_status"`
	ChangedBy   int              `gorm:"column:changed_by" json:"changed_by"`
	Reason      *string          `gorm:"column:reason;type:text" json:"reason"`
	Notes       *string          `gorm:"column:notes" json:"notes"`
	CreatedAt   time.Time        `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for AppraisalStatusHistory.
func (AppraisalStatusHistory) TableName() string {
	return "appraisal_status_history"
}
