package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"faculty-appraisal-api/models"
	"faculty-appraisal-api/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxDocumentSize  = 20 << 20
)

// AppraisalService runs the approval workflow against the record store.
// Every transition is one transaction guarded by a compare-and-swap on status.
type AppraisalService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
	mailing  sync.WaitGroup
}

func NewAppraisalService(db *gorm.DB, notifier Notifier) *AppraisalService {
	return &AppraisalService{db: db, notifier: notifier, now: time.Now}
}

// AppraisalInput holds the faculty-editable fields of an appraisal.
type AppraisalInput struct {
	FullName             string `json:"full_name"`
	EmployeeCode         string `json:"employee_code"`
	Designation          string `json:"designation"`
	AcademicYear         string `json:"academic_year"`
	Publications         string `json:"publications"`
	ResearchProjects     string `json:"research_projects"`
	Awards               string `json:"awards"`
	TeachingActivities   string `json:"teaching_activities"`
	AdministrativeDuties string `json:"administrative_duties"`
	SelfAssessment       string `json:"self_assessment"`
}

func (in AppraisalInput) normalized() AppraisalInput {
	return AppraisalInput{
		FullName:             utils.SanitizeInput(in.FullName),
		EmployeeCode:         utils.SanitizeInput(in.EmployeeCode),
		Designation:          utils.SanitizeInput(in.Designation),
		AcademicYear:         utils.SanitizeInput(in.AcademicYear),
		Publications:         utils.SanitizeInput(in.Publications),
		ResearchProjects:     utils.SanitizeInput(in.ResearchProjects),
		Awards:               utils.SanitizeInput(in.Awards),
		TeachingActivities:   utils.SanitizeInput(in.TeachingActivities),
		AdministrativeDuties: utils.SanitizeInput(in.AdministrativeDuties),
		SelfAssessment:       utils.SanitizeInput(in.SelfAssessment),
	}
}

func (in AppraisalInput) validate() error {
	v := Violations{}
	required("full_name", in.FullName, v)
	required("designation", in.Designation, v)
	required("academic_year", in.AcademicYear, v)
	if in.AcademicYear != "" && !utils.ValidateAcademicYear(in.AcademicYear) {
		v["academic_year"] = "format"
	}
	if v.Empty() {
		return nil
	}
	return &Error{Kind: ErrValidation, Message: "please fill in the required fields", Fields: v}
}

func (in AppraisalInput) columns() map[string]interface{} {
	return map[string]interface{}{
		"full_name":             in.FullName,
		"employee_code":         in.EmployeeCode,
		"designation":           in.Designation,
		"academic_year":         in.AcademicYear,
		"publications":          in.Publications,
		"research_projects":     in.ResearchProjects,
		"awards":                in.Awards,
		"teaching_activities":   in.TeachingActivities,
		"administrative_duties": in.AdministrativeDuties,
		"self_assessment":       in.SelfAssessment,
	}
}

// AppraisalFilter narrows a list query inside the caller's visibility.
type AppraisalFilter struct {
	Status       models.AppraisalStatus
	Department   string
	AcademicYear string
	Search       string
	Limit        int
	Offset       int
}

// Create submits a new appraisal owned by the calling faculty member.
func (s *AppraisalService) Create(ctx context.Context, p Principal, in AppraisalInput) (*models.Appraisal, error) {
	if err := Authorize(p, nil, OpCreate); err != nil {
		return nil, err
	}

	in = in.normalized()
	if in.FullName == "" {
		in.FullName = p.Name
	}
	if in.EmployeeCode == "" {
		in.EmployeeCode = p.EmployeeCode
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	status, err := NextStatus("", EventSubmit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	appraisal := models.Appraisal{
		AppraisalNumber:      newAppraisalNumber(now),
		FacultyID:            p.UserID,
		FullName:             in.FullName,
		EmployeeCode:         in.EmployeeCode,
		Department:           p.Department,
		Designation:          in.Designation,
		AcademicYear:         in.AcademicYear,
		SubmissionDate:       now,
		Status:               status,
		Round:                1,
		Publications:         in.Publications,
		ResearchProjects:     in.ResearchProjects,
		Awards:               in.Awards,
		TeachingActivities:   in.TeachingActivities,
		AdministrativeDuties: in.AdministrativeDuties,
		SelfAssessment:       in.SelfAssessment,
	}

	var mails []MailMessage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&appraisal).Error; err != nil {
			return fmt.Errorf("create appraisal: %w", err)
		}
		if err := recordStatusChange(tx, appraisal.AppraisalID, nil, status, p.UserID, nil, "submitted", now); err != nil {
			return err
		}
		if err := writeAudit(ctx, tx, p, "create", &appraisal, map[string]interface{}{"status": status}, "Appraisal submitted"); err != nil {
			return err
		}

		hods, err := usersByRole(tx, models.RoleHOD, appraisal.Department)
		if err != nil {
			return err
		}
		mails, err = notify(tx, hods, &appraisal, notice{
			title:   "New appraisal awaiting review",
			message: fmt.Sprintf("%s submitted appraisal %s for %s.", appraisal.FullName, appraisal.AppraisalNumber, appraisal.AcademicYear),
			kind:    "info",
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, mails)
	return &appraisal, nil
}

// Get returns one appraisal if p may read it. Invisible records are reported as not found.
func (s *AppraisalService) Get(ctx context.Context, p Principal, id int) (*models.Appraisal, error) {
	if err := Authorize(p, nil, OpRead); err != nil {
		return nil, err
	}

	appraisal, err := loadAppraisal(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, appraisal, OpRead); err != nil {
		return nil, err
	}
	return appraisal, nil
}

// List returns the appraisals visible to p, filtered in SQL, plus the unpaged total.
func (s *AppraisalService) List(ctx context.Context, p Principal, f AppraisalFilter) ([]models.Appraisal, int64, error) {
	query, err := ScopeAppraisals(s.db.WithContext(ctx).Model(&models.Appraisal{}), p)
	if err != nil {
		return nil, 0, err
	}

	if f.Status != "" {
		if !f.Status.IsValid() {
			return nil, 0, validationError("unknown status %q", f.Status)
		}
		query = query.Where("status = ?", string(f.Status))
	}
	if department := strings.TrimSpace(f.Department); department != "" {
		query = query.Where("department = ?", department)
	}
	if year := strings.TrimSpace(f.AcademicYear); year != "" {
		query = query.Where("academic_year = ?", year)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(full_name LIKE ? OR appraisal_number LIKE ? OR employee_code LIKE ?)", like, like, like)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count appraisals: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var appraisals []models.Appraisal
	if err := base.Order("submission_date DESC, appraisal_id DESC").
		Limit(limit).Offset(offset).
		Find(&appraisals).Error; err != nil {
		return nil, 0, fmt.Errorf("list appraisals: %w", err)
	}

	return appraisals, total, nil
}

// HODDecide records the head of department's decision on a pending_hod appraisal.
func (s *AppraisalService) HODDecide(ctx context.Context, p Principal, id int, decision, remarks string) (*models.Appraisal, error) {
	return s.decide(ctx, p, id, models.StageHOD, decision, remarks)
}

// AdminDecide records the administrator's decision on a pending_admin appraisal.
func (s *AppraisalService) AdminDecide(ctx context.Context, p Principal, id int, decision, remarks string) (*models.Appraisal, error) {
	return s.decide(ctx, p, id, models.StageAdmin, decision, remarks)
}

func (s *AppraisalService) decide(ctx context.Context, p Principal, id int, stage models.ReviewStage, rawDecision, remarks string) (*models.Appraisal, error) {
	op := OpHODDecide
	prefix := "hod_"
	if stage == models.StageAdmin {
		op = OpAdminDecide
		prefix = "admin_"
	}

	if err := Authorize(p, nil, op); err != nil {
		return nil, err
	}

	decision, err := ParseDecision(rawDecision)
	if err != nil {
		return nil, err
	}

	remarks = utils.SanitizeInput(remarks)
	if remarks == "" {
		return nil, &Error{
			Kind:    ErrValidation,
			Message: "remarks are required to record a decision",
			Fields:  Violations{"remarks": "required"},
		}
	}

	event := DecisionEvent(stage, decision)
	now := s.now()

	var (
		updated *models.Appraisal
		mails   []MailMessage
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadAppraisal(tx, id)
		if err != nil {
			return err
		}
		if err := Authorize(p, current, op); err != nil {
			return err
		}

		next, err := NextStatus(current.Status, event)
		if err != nil {
			return staleDecision(current, stage)
		}

		updates := map[string]interface{}{
			"status":              string(next),
			prefix + "decided_by": p.UserID,
			prefix + "remarks":    remarks,
			prefix + "decided_at": now,
			"updated_at":          now,
		}
		if next == models.StatusRejected {
			updates["rejected_by"] = string(stage)
		}

		res := tx.Model(&models.Appraisal{}).
			Where("appraisal_id = ? AND status = ?", current.AppraisalID, string(current.Status)).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update appraisal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return staleDecision(current, stage)
		}

		review := models.AppraisalReview{
			AppraisalID: current.AppraisalID,
			ReviewerID:  p.UserID,
			Stage:       stage,
			ReviewRound: current.Round,
			Decision:    string(decision),
			Remarks:     remarks,
			ReviewedAt:  now,
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("save review record: %w", err)
		}

		old := current.Status
		note := fmt.Sprintf("%s_decision:%s", stage, decision)
		if err := recordStatusChange(tx, current.AppraisalID, &old, next, p.UserID, &remarks, note, now); err != nil {
			return err
		}

		auditValues := map[string]interface{}{
			"decision": decision,
			"remarks":  remarks,
			"status":   next,
		}
		if err := writeAudit(ctx, tx, p, "review", current, auditValues, decisionMessage(stage, decision)); err != nil {
			return err
		}

		updated, err = loadAppraisal(tx, current.AppraisalID)
		if err != nil {
			return err
		}

		mails, err = decisionNotices(tx, updated, stage, decision, remarks, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, mails)
	return updated, nil
}

// Resubmit replaces the descriptive fields of a pending_hod or rejected appraisal
// and returns it to pending_hod. Decisions of the previous round are cleared from
// the record; they stay in the review and status history.
func (s *AppraisalService) Resubmit(ctx context.Context, p Principal, id int, in AppraisalInput) (*models.Appraisal, error) {
	if err := Authorize(p, nil, OpEdit); err != nil {
		return nil, err
	}

	in = in.normalized()
	now := s.now()

	var (
		updated *models.Appraisal
		mails   []MailMessage
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadAppraisal(tx, id)
		if err != nil {
			return err
		}
		if err := Authorize(p, current, OpEdit); err != nil {
			return err
		}

		if in.FullName == "" {
			in.FullName = current.FullName
		}
		if in.EmployeeCode == "" {
			in.EmployeeCode = current.EmployeeCode
		}
		if err := in.validate(); err != nil {
			return err
		}

		next, err := NextStatus(current.Status, EventResubmit)
		if err != nil {
			return err
		}

		round := current.Round
		if current.Status == models.StatusRejected {
			round++
		}

		updates := in.columns()
		updates["status"] = string(next)
		updates["round"] = round
		updates["rejected_by"] = nil
		updates["hod_decided_by"] = nil
		updates["hod_remarks"] = nil
		updates["hod_decided_at"] = nil
		updates["admin_decided_by"] = nil
		updates["admin_remarks"] = nil
		updates["admin_decided_at"] = nil
		updates["updated_at"] = now

		res := tx.Model(&models.Appraisal{}).
			Where("appraisal_id = ? AND status = ?", current.AppraisalID, string(current.Status)).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update appraisal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidState("appraisal %s changed while you were editing it; reload and try again", current.AppraisalNumber)
		}

		description := "Appraisal updated"
		if current.Status != next {
			description = "Appraisal resubmitted"
			old := current.Status
			if err := recordStatusChange(tx, current.AppraisalID, &old, next, p.UserID, nil, "resubmitted", now); err != nil {
				return err
			}
		}
		if err := writeAudit(ctx, tx, p, "update", current, map[string]interface{}{"status": next, "round": round}, description); err != nil {
			return err
		}

		updated, err = loadAppraisal(tx, current.AppraisalID)
		if err != nil {
			return err
		}

		if current.Status == next {
			return nil
		}
		hods, err := usersByRole(tx, models.RoleHOD, updated.Department)
		if err != nil {
			return err
		}
		mails, err = notify(tx, hods, updated, notice{
			title:   "Appraisal resubmitted for review",
			message: fmt.Sprintf("%s resubmitted appraisal %s (round %d).", updated.FullName, updated.AppraisalNumber, updated.Round),
			kind:    "info",
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, mails)
	return updated, nil
}

// Reviews returns every recorded decision on an appraisal, oldest first.
func (s *AppraisalService) Reviews(ctx context.Context, p Principal, id int) ([]models.AppraisalReview, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}

	var reviews []models.AppraisalReview
	if err := s.db.WithContext(ctx).Preload("Reviewer").
		Where("appraisal_id = ?", id).
		Order("reviewed_at ASC, review_id ASC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// History returns the status log of an appraisal, oldest first.
func (s *AppraisalService) History(ctx context.Context, p Principal, id int) ([]models.AppraisalStatusHistory, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}

	var history []models.AppraisalStatusHistory
	if err := s.db.WithContext(ctx).
		Where("appraisal_id = ?", id).
		Order("created_at ASC, history_id ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return history, nil
}

// DocumentInput describes a supporting file being attached.
type DocumentInput struct {
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	FileSize     int64  `json:"file_size"`
}

// AttachDocument registers supporting-file metadata and allocates its blob storage key.
func (s *AppraisalService) AttachDocument(ctx context.Context, p Principal, id int, in DocumentInput) (*models.AppraisalDocument, error) {
	if err := Authorize(p, nil, OpEdit); err != nil {
		return nil, err
	}

	doc := models.AppraisalDocument{
		AppraisalID:  id,
		UploadedBy:   p.UserID,
		OriginalName: filepath.Base(utils.SanitizeInput(in.OriginalName)),
		MimeType:     strings.ToLower(strings.TrimSpace(in.MimeType)),
		FileSize:     in.FileSize,
	}

	v := Violations{}
	required("original_name", strings.Trim(doc.OriginalName, "./"), v)
	if !doc.IsAllowedMimeType() {
		v["mime_type"] = "unsupported"
	}
	if doc.FileSize <= 0 || doc.FileSize > maxDocumentSize {
		v["file_size"] = "out_of_range"
	}
	if !v.Empty() {
		return nil, &Error{Kind: ErrValidation, Message: "the document cannot be attached", Fields: v}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appraisal, err := loadAppraisal(tx, id)
		if err != nil {
			return err
		}
		if err := Authorize(p, appraisal, OpEdit); err != nil {
			return err
		}

		doc.StorageKey = fmt.Sprintf("appraisals/%d/%s%s", id, uuid.NewString(), strings.ToLower(filepath.Ext(doc.OriginalName)))
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		return writeAudit(ctx, tx, p, "attach", appraisal, map[string]interface{}{
			"document_id": doc.DocumentID,
			"storage_key": doc.StorageKey,
		}, "Supporting document attached")
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Documents lists the supporting files of an appraisal p may read.
func (s *AppraisalService) Documents(ctx context.Context, p Principal, id int) ([]models.AppraisalDocument, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}

	var docs []models.AppraisalDocument
	if err := s.db.WithContext(ctx).
		Where("appraisal_id = ? AND delete_at IS NULL", id).
		Order("document_id ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *AppraisalService) dispatch(ctx context.Context, mails []MailMessage) {
	if s.notifier == nil || len(mails) == 0 {
		return
	}
	notifier := s.notifier
	s.mailing.Add(1)
	go func() {
		defer s.mailing.Done()
		notifier.Notify(persistentContext(ctx), mails)
	}()
}

func loadAppraisal(db *gorm.DB, id int) (*models.Appraisal, error) {
	var appraisal models.Appraisal
	if err := db.Where("appraisal_id = ?", id).First(&appraisal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("appraisal not found")
		}
		return nil, fmt.Errorf("load appraisal %d: %w", id, err)
	}
	return &appraisal, nil
}

func staleDecision(current *models.Appraisal, stage models.ReviewStage) error {
	return invalidState("appraisal %s is %s, not %s; someone may already have acted on it",
		current.AppraisalNumber, describeStatus(current.Status), describeStatus(awaitingStatus(stage)))
}

func newAppraisalNumber(now time.Time) string {
	return fmt.Sprintf("APR-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:8]))
}

func decisionMessage(stage models.ReviewStage, decision Decision) string {
	switch DecisionEvent(stage, decision) {
	case EventHODApprove:
		return "Appraisal forwarded to admin by head of department"
	case EventHODReject:
		return "Appraisal rejected by head of department"
	case EventAdminApprove:
		return "Appraisal approved by admin"
	default:
		return "Appraisal rejected by admin"
	}
}

// decisionNotices tells the owner about a decision and, when the HOD forwards
// an appraisal, tells the administrators it is waiting for them.
func decisionNotices(tx *gorm.DB, appraisal *models.Appraisal, stage models.ReviewStage, decision Decision, remarks string, now time.Time) ([]MailMessage, error) {
	var owner models.User
	if err := tx.Where("user_id = ?", appraisal.FacultyID).First(&owner).Error; err != nil {
		return nil, fmt.Errorf("load appraisal owner: %w", err)
	}

	kind := "success"
	if decision == DecisionReject {
		kind = "warning"
	}
	mails, err := notify(tx, []models.User{owner}, appraisal, notice{
		title:   decisionMessage(stage, decision),
		message: fmt.Sprintf("Appraisal %s: %s\nRemarks: %s", appraisal.AppraisalNumber, describeStatus(appraisal.Status), remarks),
		kind:    kind,
	}, now)
	if err != nil {
		return nil, err
	}

	if DecisionEvent(stage, decision) != EventHODApprove {
		return mails, nil
	}

	admins, err := usersByRole(tx, models.RoleAdmin, "")
	if err != nil {
		return nil, err
	}
	adminMails, err := notify(tx, admins, appraisal, notice{
		title:   "Appraisal awaiting admin review",
		message: fmt.Sprintf("Appraisal %s from %s (%s) was forwarded by the head of department.", appraisal.AppraisalNumber, appraisal.FullName, appraisal.Department),
		kind:    "info",
	}, now)
	if err != nil {
		return nil, err
	}
	return append(mails, adminMails...), nil
}
