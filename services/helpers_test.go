package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"faculty-appraisal-api/config"
	"faculty-appraisal-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	t.Setenv("ENVIRONMENT", "production")

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := config.OpenDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role models.Role, department string) Principal {
	t.Helper()
	user := models.User{
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@uni.example.org",
		Role:  role,
	}
	if department != "" {
		user.Department = &department
	}
	require.NoError(t, db.Create(&user).Error)
	return PrincipalFromUser(&user)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []MailMessage
}

func (n *recordingNotifier) Notify(_ context.Context, messages []MailMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, messages...)
}

func (n *recordingNotifier) sentTo(email string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, msg := range n.messages {
		for _, to := range msg.To {
			if to == email {
				count++
			}
		}
	}
	return count
}

type fixture struct {
	db       *gorm.DB
	svc      *AppraisalService
	notifier *recordingNotifier

	faculty      Principal
	otherFaculty Principal
	hod          Principal
	otherHOD     Principal
	admin        Principal
}

const (
	deptCS      = "Computer Science"
	deptPhysics = "Physics"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewAppraisalService(db, notifier)
	svc.now = func() time.Time { return testNow }
	t.Cleanup(svc.mailing.Wait)

	return &fixture{
		db:           db,
		svc:          svc,
		notifier:     notifier,
		faculty:      seedUser(t, db, "Somchai Jaidee", models.RoleFaculty, deptCS),
		otherFaculty: seedUser(t, db, "Mali Srisuk", models.RoleFaculty, deptPhysics),
		hod:          seedUser(t, db, "Anan Head", models.RoleHOD, deptCS),
		otherHOD:     seedUser(t, db, "Kanya Head", models.RoleHOD, deptPhysics),
		admin:        seedUser(t, db, "Office Admin", models.RoleAdmin, ""),
	}
}

func sampleInput() AppraisalInput {
	return AppraisalInput{
		Designation:        "Assistant Professor",
		AcademicYear:       "2025-2026",
		Publications:       "One journal paper",
		TeachingActivities: "Data Structures, Operating Systems",
		SelfAssessment:     "Met all teaching targets",
	}
}

// sentTo counts the e-mails delivered to email once background sends finish.
func (f *fixture) sentTo(email string) int {
	f.svc.mailing.Wait()
	return f.notifier.sentTo(email)
}

func (f *fixture) submit(t *testing.T, p Principal) *models.Appraisal {
	t.Helper()
	appraisal, err := f.svc.Create(context.Background(), p, sampleInput())
	require.NoError(t, err)
	return appraisal
}
