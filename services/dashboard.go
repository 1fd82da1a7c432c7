package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"faculty-appraisal-api/models"
)

// Window selects the trend histogram of a dashboard.
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

const unassignedDepartment = "unassigned"

// ParseWindow defaults to month when raw is empty.
func ParseWindow(raw string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(raw))); w {
	case "":
		return WindowMonth, nil
	case WindowWeek, WindowMonth, WindowYear:
		return w, nil
	default:
		return "", &Error{
			Kind:    ErrValidation,
			Message: "window must be one of week, month or year",
			Fields:  Violations{"window": "invalid"},
		}
	}
}

type TrendPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Aggregation is the dashboard projection over the appraisals a caller can see.
type Aggregation struct {
	Window             Window                         `json:"window"`
	Total              int                            `json:"total"`
	CountsByStatus     map[models.AppraisalStatus]int `json:"counts_by_status"`
	CountsByDepartment map[string]int                 `json:"counts_by_department"`
	ApprovalRate       float64                        `json:"approval_rate"`
	RejectionRate      float64                        `json:"rejection_rate"`
	PendingRate        float64                        `json:"pending_rate"`
	Trend              []TrendPoint                   `json:"trend"`
}

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Aggregate counts records by status and department and buckets their
// submission dates for window. It has no side effects.
func Aggregate(records []models.Appraisal, window Window, now time.Time) Aggregation {
	agg := Aggregation{
		Window:             window,
		Total:              len(records),
		CountsByStatus:     make(map[models.AppraisalStatus]int, len(models.AllStatuses)),
		CountsByDepartment: map[string]int{},
	}
	for _, s := range models.AllStatuses {
		agg.CountsByStatus[s] = 0
	}

	for _, r := range records {
		agg.CountsByStatus[r.Status]++
		department := strings.TrimSpace(r.Department)
		if department == "" {
			department = unassignedDepartment
		}
		agg.CountsByDepartment[department]++
	}

	pending := agg.CountsByStatus[models.StatusPendingHOD] + agg.CountsByStatus[models.StatusPendingAdmin]
	agg.ApprovalRate = percentage(agg.CountsByStatus[models.StatusApproved], agg.Total)
	agg.RejectionRate = percentage(agg.CountsByStatus[models.StatusRejected], agg.Total)
	agg.PendingRate = percentage(pending, agg.Total)
	agg.Trend = trend(records, window, now)
	return agg
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(total)) / 100
}

func trend(records []models.Appraisal, window Window, now time.Time) []TrendPoint {
	switch window {
	case WindowWeek:
		points := make([]TrendPoint, 7)
		for i, label := range weekdayLabels {
			points[i].Label = label
		}
		for _, r := range records {
			points[r.SubmissionDate.In(now.Location()).Weekday()].Count++
		}
		return points

	case WindowYear:
		current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		points := make([]TrendPoint, 12)
		index := make(map[string]int, 12)
		for i := range points {
			label := current.AddDate(0, i-11, 0).Format("2006-01")
			points[i].Label = label
			index[label] = i
		}
		for _, r := range records {
			if i, ok := index[r.SubmissionDate.In(now.Location()).Format("2006-01")]; ok {
				points[i].Count++
			}
		}
		return points

	default:
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		points := make([]TrendPoint, 30)
		index := make(map[string]int, 30)
		for i := range points {
			label := today.AddDate(0, 0, i-29).Format("2006-01-02")
			points[i].Label = label
			index[label] = i
		}
		for _, r := range records {
			if i, ok := index[r.SubmissionDate.In(now.Location()).Format("2006-01-02")]; ok {
				points[i].Count++
			}
		}
		return points
	}
}

// Dashboard aggregates every appraisal visible to p.
func (s *AppraisalService) Dashboard(ctx context.Context, p Principal, rawWindow string) (Aggregation, error) {
	window, err := ParseWindow(rawWindow)
	if err != nil {
		return Aggregation{}, err
	}

	query, err := ScopeAppraisals(s.db.WithContext(ctx).Model(&models.Appraisal{}), p)
	if err != nil {
		return Aggregation{}, err
	}

	var records []models.Appraisal
	if err := query.Select("appraisal_id", "department", "status", "submission_date").
		Find(&records).Error; err != nil {
		return Aggregation{}, fmt.Errorf("load dashboard records: %w", err)
	}

	return Aggregate(records, window, s.now()), nil
}
