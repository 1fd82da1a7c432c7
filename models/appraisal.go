package models

import (
	"encoding/json"
	"time"
)

type AppraisalStatus string

const (
	StatusPendingHOD   AppraisalStatus = "pending_hod"
	StatusPendingAdmin AppraisalStatus = "pending_admin"
	StatusApproved     AppraisalStatus = "approved"
	StatusRejected     AppraisalStatus = "rejected"
)

// AllStatuses lists every workflow status in display order.
var AllStatuses = []AppraisalStatus{
	StatusPendingHOD,
	StatusPendingAdmin,
	StatusApproved,
	StatusRejected,
}

func (s AppraisalStatus) IsValid() bool {
	switch s {
	case StatusPendingHOD, StatusPendingAdmin, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// ReviewStage identifies which reviewer acted on an appraisal.
type ReviewStage string

const (
	StageHOD   ReviewStage = "hod"
	StageAdmin ReviewStage = "admin"
)

// ApprovalDecision is the nested view of a reviewer decision on the current round.
type ApprovalDecision struct {
	DecidedBy int       `json:"decided_by"`
	Remarks   string    `json:"remarks"`
	Date      time.Time `json:"date"`
}

// Appraisal is a faculty performance-review submission.
type Appraisal struct {
	AppraisalID     int             `gorm:"primaryKey;column:appraisal_id" json:"appraisal_id"`
	AppraisalNumber string          `gorm:"column:appraisal_number;size:40;uniqueIndex" json:"appraisal_number"`
	FacultyID       int             `gorm:"column:faculty_id;index;not null" json:"faculty_id"`
	FullName        string          `gorm:"column:full_name;size:150" json:"full_name"`
	EmployeeCode    string          `gorm:"column:employee_code;size:40" json:"employee_code"`
	Department      string          `gorm:"column:department;size:120;index" json:"department"`
	Designation     string          `gorm:"column:designation;size:120" json:"designation"`
	AcademicYear    string          `gorm:"column:academic_year;size:20;index" json:"academic_year"`
	SubmissionDate  time.Time       `gorm:"column:submission_date;index" json:"submission_date"`
	Status          AppraisalStatus `gorm:"column:status;size:20;index;not null" json:"status"`
	Round           int             `gorm:"column:round;not null;default:1" json:"round"`
	RejectedBy      *ReviewStage    `gorm:"column:rejected_by;size:10" json:"rejected_by,omitempty"`

	Publications         string `gorm:"column:publications;type:text" json:"publications"`
	ResearchProjects     string `gorm:"column:research_projects;type:text" json:"research_projects"`
	Awards               string `gorm:"column:awards;type:text" json:"awards"`
	TeachingActivities   string `gorm:"column:teaching_activities;type:text" json:"teaching_activities"`
	AdministrativeDuties string `gorm:"column:administrative_duties;type:text" json:"administrative_duties"`
	SelfAssessment       string `gorm:"column:self_assessment;type:text" json:"self_assessment"`

	HODDecidedBy   *int       `gorm:"column:hod_decided_by" json:"-"`
	HODRemarks     *string    `gorm:"column:hod_remarks;type:text" json:"-"`
	HODDecidedAt   *time.Time `gorm:"column:hod_decided_at" json:"-"`
	AdminDecidedBy *int       `gorm:"column:admin_decided_by" json:"-"`
	AdminRemarks   *string    `gorm:"column:admin_remarks;type:text" json:"-"`
	AdminDecidedAt *time.Time `gorm:"column:admin_decided_at" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Faculty *User `gorm:"foreignKey:FacultyID;references:UserID" json:"faculty,omitempty"`
}

func (Appraisal) TableName() string {
	return "appraisals"
}

// HODApproval returns the HOD decision of the current round, or nil.
func (a *Appraisal) HODApproval() *ApprovalDecision {
	return decisionFrom(a.HODDecidedBy, a.HODRemarks, a.HODDecidedAt)
}

// AdminApproval returns the admin decision of the current round, or nil.
func (a *Appraisal) AdminApproval() *ApprovalDecision {
	return decisionFrom(a.AdminDecidedBy, a.AdminRemarks, a.AdminDecidedAt)
}

func decisionFrom(by *int, remarks *string, at *time.Time) *ApprovalDecision {
	if by == nil || remarks == nil || at == nil {
		return nil
	}
	return &ApprovalDecision{DecidedBy: *by, Remarks: *remarks, Date: *at}
}

// MarshalJSON nests the current round's decisions as hod_approval and admin_approval.
func (a Appraisal) MarshalJSON() ([]byte, error) {
	type plain Appraisal
	return json.Marshal(struct {
		plain
		HODApproval   *ApprovalDecision `json:"hod_approval"`
		AdminApproval *ApprovalDecision `json:"admin_approval"`
	}{
		plain:         plain(a),
		HODApproval:   a.HODApproval(),
		AdminApproval: a.AdminApproval(),
	})
}
