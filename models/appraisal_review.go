package models

import "time"

// AppraisalReview is an append-only record of every HOD or admin decision.
type AppraisalReview struct {
	ReviewID    int         `gorm:"primaryKey;column:review_id" json:"review_id"`
	AppraisalID int         `gorm:"column:appraisal_id;index" json:"appraisal_id"`
	ReviewerID  int         `gorm:"column:reviewer_id" json:"reviewer_id"`
	Stage       ReviewStage `gorm:"column:stage;size:10" json:"stage"`
	ReviewRound int         `gorm:"column:review_round" json:"review_round"`
	Decision    string      `gorm:"column:decision;size:10" json:"decision"`
	Remarks     string      `gorm:"column:remarks;type:text" json:"remarks"`
	ReviewedAt  time.Time   `gorm:"column:reviewed_at" json:"reviewed_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

// TableName specifies the table name for AppraisalReview.
func (AppraisalReview) TableName() string {
	return "appraisal_reviews"
}
