package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"faculty-appraisal-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppraisalLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.submit(t, f.faculty)
	assert.Equal(t, models.StatusPendingHOD, created.Status)
	assert.Equal(t, deptCS, created.Department)
	assert.Equal(t, "Somchai Jaidee", created.FullName)
	assert.Equal(t, 1, created.Round)
	assert.True(t, strings.HasPrefix(created.AppraisalNumber, "APR-2026-"))
	assert.Equal(t, 1, f.sentTo("anan.head@uni.example.org"))
	assert.Zero(t, f.sentTo("kanya.head@uni.example.org"))

	afterHOD, err := f.svc.HODDecide(ctx, f.hod, created.AppraisalID, "approve", "Good work")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAdmin, afterHOD.Status)
	require.NotNil(t, afterHOD.HODApproval())
	assert.Equal(t, "Good work", afterHOD.HODApproval().Remarks)
	assert.Equal(t, f.hod.UserID, afterHOD.HODApproval().DecidedBy)
	assert.True(t, testNow.Equal(afterHOD.HODApproval().Date))
	assert.Nil(t, afterHOD.AdminApproval())
	assert.Equal(t, 1, f.sentTo("office.admin@uni.example.org"))

	afterAdmin, err := f.svc.AdminDecide(ctx, f.admin, created.AppraisalID, "reject", "Missing evidence")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, afterAdmin.Status)
	require.NotNil(t, afterAdmin.AdminApproval())
	assert.Equal(t, "Missing evidence", afterAdmin.AdminApproval().Remarks)
	require.NotNil(t, afterAdmin.RejectedBy)
	assert.Equal(t, models.StageAdmin, *afterAdmin.RejectedBy)

	in := sampleInput()
	in.Publications = "Two journal papers"
	resubmitted, err := f.svc.Resubmit(ctx, f.faculty, created.AppraisalID, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingHOD, resubmitted.Status)
	assert.Equal(t, 2, resubmitted.Round)

	got, err := f.svc.Get(ctx, f.faculty, created.AppraisalID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingHOD, got.Status)
	assert.Equal(t, "Two journal papers", got.Publications)
	assert.Nil(t, got.HODApproval())
	assert.Nil(t, got.AdminApproval())
	assert.Nil(t, got.RejectedBy)

	reviews, err := f.svc.Reviews(ctx, f.faculty, created.AppraisalID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, models.StageHOD, reviews[0].Stage)
	assert.Equal(t, "Good work", reviews[0].Remarks)
	assert.Equal(t, models.StageAdmin, reviews[1].Stage)
	assert.Equal(t, "Missing evidence", reviews[1].Remarks)
	assert.Equal(t, "reject", reviews[1].Decision)

	history, err := f.svc.History(ctx, f.faculty, created.AppraisalID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Nil(t, history[0].OldStatus)
	want := []models.AppraisalStatus{
		models.StatusPendingHOD,
		models.StatusPendingAdmin,
		models.StatusRejected,
		models.StatusPendingHOD,
	}
	for i, status := range want {
		assert.Equal(t, status, history[i].NewStatus, "history[%d]", i)
	}

	var audits int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("entity_id = ?", created.AppraisalID).Count(&audits).Error)
	assert.EqualValues(t, 4, audits)
}

func TestHODDecideTwiceFailsWithInvalidState(t *testing.T) {
	for _, second := range []string{"approve", "reject"} {
		t.Run(second, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			created := f.submit(t, f.faculty)

			_, err := f.svc.HODDecide(ctx, f.hod, created.AppraisalID, "reject", "Incomplete")
			require.NoError(t, err)

			_, err = f.svc.HODDecide(ctx, f.hod, created.AppraisalID, second, "Again")
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestHODDecideOtherDepartmentForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.submit(t, f.faculty)

	_, err := f.svc.HODDecide(ctx, f.otherHOD, created.AppraisalID, "approve", "Looks fine")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Get(ctx, f.admin, created.AppraisalID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingHOD, got.Status)
	assert.Nil(t, got.HODApproval())
}

func TestConcurrentHODDecisionsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	created := f.submit(t, f.faculty)

	decisions := []string{"approve", "reject"}
	errs := make([]error, len(decisions))

	var wg sync.WaitGroup
	for i, decision := range decisions {
		wg.Add(1)
		go func(i int, decision string) {
			defer wg.Done()
			_, errs[i] = f.svc.HODDecide(context.Background(), f.hod, created.AppraisalID, decision, "Reviewed")
		}(i, decision)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assert.Equal(t, 1, succeeded)

	var reviews int64
	require.NoError(t, f.db.Model(&models.AppraisalReview{}).Count(&reviews).Error)
	assert.EqualValues(t, 1, reviews)
}

func TestDecisionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.submit(t, f.faculty)

	_, err := f.svc.HODDecide(ctx, f.hod, created.AppraisalID, "approve", "   ")
	require.ErrorIs(t, err, ErrValidation)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "required", svcErr.Fields["remarks"])

	_, err = f.svc.HODDecide(ctx, f.hod, created.AppraisalID, "maybe", "Not sure")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.HODDecide(ctx, f.faculty, created.AppraisalID, "approve", "Self approval")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.AdminDecide(ctx, f.hod, created.AppraisalID, "approve", "Skip ahead")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.AdminDecide(ctx, f.admin, created.AppraisalID, "approve", "Skip ahead")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.HODDecide(ctx, f.hod, 9999, "approve", "Unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := sampleInput()
	in.Designation = ""
	_, err := f.svc.Create(ctx, f.faculty, in)
	require.ErrorIs(t, err, ErrValidation)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, svcErr.Fields, "designation")

	_, err = f.svc.Create(ctx, f.admin, sampleInput())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Create(ctx, f.hod, sampleInput())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestResubmitWhilePendingKeepsRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.submit(t, f.faculty)

	in := sampleInput()
	in.Awards = "Best lecturer award"
	updated, err := f.svc.Resubmit(ctx, f.faculty, created.AppraisalID, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingHOD, updated.Status)
	assert.Equal(t, 1, updated.Round)
	assert.Equal(t, "Best lecturer award", updated.Awards)

	history, err := f.svc.History(ctx, f.faculty, created.AppraisalID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestResubmitRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.submit(t, f.faculty)

	_, err := f.svc.Resubmit(ctx, f.otherFaculty, created.AppraisalID, sampleInput())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Resubmit(ctx, f.hod, created.AppraisalID, sampleInput())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.HODDecide(ctx, f.hod, created.AppraisalID, "approve", "Fine")
	require.NoError(t, err)
	_, err = f.svc.Resubmit(ctx, f.faculty, created.AppraisalID, sampleInput())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.AdminDecide(ctx, f.admin, created.AppraisalID, "approve", "Approved")
	require.NoError(t, err)
	_, err = f.svc.Resubmit(ctx, f.faculty, created.AppraisalID, sampleInput())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.submit(t, f.faculty)

	_, err := f.svc.Get(ctx, f.otherFaculty, created.AppraisalID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Get(ctx, f.otherHOD, created.AppraisalID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Get(ctx, f.hod, created.AppraisalID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, f.admin, created.AppraisalID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, f.admin, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.submit(t, f.faculty)
	f.submit(t, f.faculty)
	f.submit(t, f.otherFaculty)

	_, err := f.svc.HODDecide(ctx, f.hod, mine.AppraisalID, "approve", "Forwarded")
	require.NoError(t, err)

	rows, total, err := f.svc.List(ctx, f.hod, AppraisalFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, r := range rows {
		assert.Equal(t, deptCS, r.Department)
	}

	rows, total, err = f.svc.List(ctx, f.otherFaculty, AppraisalFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, f.otherFaculty.UserID, rows[0].FacultyID)

	_, total, err = f.svc.List(ctx, f.admin, AppraisalFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	rows, total, err = f.svc.List(ctx, f.admin, AppraisalFilter{Status: models.StatusPendingAdmin})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mine.AppraisalID, rows[0].AppraisalID)

	_, total, err = f.svc.List(ctx, f.hod, AppraisalFilter{Department: deptPhysics})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = f.svc.List(ctx, f.admin, AppraisalFilter{Search: "Mali"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	rows, total, err = f.svc.List(ctx, f.admin, AppraisalFilter{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 1)

	_, _, err = f.svc.List(ctx, f.admin, AppraisalFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.submit(t, f.faculty)

	doc, err := f.svc.AttachDocument(ctx, f.faculty, created.AppraisalID, DocumentInput{
		OriginalName: "Certificate.PDF",
		MimeType:     "application/pdf",
		FileSize:     2048,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.StorageKey, "appraisals/"))
	assert.True(t, strings.HasSuffix(doc.StorageKey, ".pdf"))

	_, err = f.svc.AttachDocument(ctx, f.faculty, created.AppraisalID, DocumentInput{
		OriginalName: "run.exe",
		MimeType:     "application/x-msdownload",
		FileSize:     10,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AttachDocument(ctx, f.hod, created.AppraisalID, DocumentInput{
		OriginalName: "notes.pdf",
		MimeType:     "application/pdf",
		FileSize:     10,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	docs, err := f.svc.Documents(ctx, f.hod, created.AppraisalID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Certificate.PDF", docs[0].OriginalName)

	_, err = f.svc.Documents(ctx, f.otherHOD, created.AppraisalID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditRecordsRequestMeta(t *testing.T) {
	f := newFixture(t)
	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.7", UserAgent: "curl/8.0"})

	created, err := f.svc.Create(ctx, f.faculty, sampleInput())
	require.NoError(t, err)

	var audit models.AuditLog
	require.NoError(t, f.db.Where("entity_id = ? AND action = ?", created.AppraisalID, "create").First(&audit).Error)
	assert.Equal(t, "10.0.0.7", audit.IPAddress)
	require.NotNil(t, audit.UserAgent)
	assert.Equal(t, "curl/8.0", *audit.UserAgent)
	assert.Equal(t, f.faculty.UserID, audit.UserID)
}

func TestWriteAuditRejectsUnencodableValues(t *testing.T) {
	f := newFixture(t)
	created := f.submit(t, f.faculty)

	err := writeAudit(context.Background(), f.db, f.faculty, "update", created,
		map[string]interface{}{"callback": func() {}}, "bad values")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode audit values")

	var count int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", "update").Count(&count).Error)
	assert.Zero(t, count)
}

type blockingNotifier struct {
	release chan struct{}
	done    chan struct{}
}

func (n *blockingNotifier) Notify(_ context.Context, _ []MailMessage) {
	<-n.release
	close(n.done)
}

func TestDecisionDoesNotWaitForMail(t *testing.T) {
	f := newFixture(t)
	created := f.submit(t, f.faculty)
	f.svc.mailing.Wait()

	slow := &blockingNotifier{release: make(chan struct{}), done: make(chan struct{})}
	f.svc.notifier = slow

	updated, err := f.svc.HODDecide(context.Background(), f.hod, created.AppraisalID, "approve", "Forwarded")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAdmin, updated.Status)

	select {
	case <-slow.done:
		t.Fatal("mail finished before the decision returned")
	default:
	}

	close(slow.release)
	f.svc.mailing.Wait()
	select {
	case <-slow.done:
	default:
		t.Fatal("mail was never sent")
	}
}
