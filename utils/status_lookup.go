package utils

import (
	"fmt"
	"strings"

	"faculty-appraisal-api/models"
)

// StatusPresentation is the display mapping of a workflow status. It never feeds
// back into the state machine.
type StatusPresentation struct {
	Code  models.AppraisalStatus `json:"code"`
	Label string                 `json:"label"`
	Color string                 `json:"color"`
}

var statusPresentations = map[models.AppraisalStatus]StatusPresentation{
	models.StatusPendingHOD:   {Code: models.StatusPendingHOD, Label: "Pending HOD Review", Color: "warning"},
	models.StatusPendingAdmin: {Code: models.StatusPendingAdmin, Label: "Pending Admin Review", Color: "info"},
	models.StatusApproved:     {Code: models.StatusApproved, Label: "Approved", Color: "success"},
	models.StatusRejected:     {Code: models.StatusRejected, Label: "Rejected", Color: "danger"},
}

var (
	statusSynonyms = map[models.AppraisalStatus][]string{
		models.StatusPendingHOD: {
			"pending_hod",
			"pending",
			"hod_pending",
			"dept_head_pending",
			"department_pending",
		},
		models.StatusPendingAdmin: {
			"pending_admin",
			"admin_pending",
			"dept_head_recommended",
			"forwarded",
		},
		models.StatusApproved: {
			"approved",
			"approve",
		},
		models.StatusRejected: {
			"rejected",
			"reject",
			"dept_head_rejected",
			"not_recommended",
		},
	}
	statusAliasToCanonical = buildStatusAliasMap()
)

func buildStatusAliasMap() map[string]models.AppraisalStatus {
	aliasMap := make(map[string]models.AppraisalStatus)
	for canonical, synonyms := range statusSynonyms {
		for _, synonym := range synonyms {
			aliasMap[normalizeStatusCode(synonym)] = canonical
		}
	}
	return aliasMap
}

func normalizeStatusCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	return strings.NewReplacer("-", "_", " ", "_").Replace(code)
}

// ParseStatusFilter maps a status query value, including legacy aliases, to a
// workflow status. An empty value means no filter.
func ParseStatusFilter(raw string) (models.AppraisalStatus, error) {
	key := normalizeStatusCode(raw)
	if key == "" || key == "all" {
		return "", nil
	}
	if status, ok := statusAliasToCanonical[key]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// PresentStatus returns the label and color of status; unknown values are shown verbatim.
func PresentStatus(status models.AppraisalStatus) StatusPresentation {
	if p, ok := statusPresentations[status]; ok {
		return p
	}
	return StatusPresentation{Code: status, Label: string(status), Color: "secondary"}
}

// StatusCatalog lists every status in workflow order.
func StatusCatalog() []StatusPresentation {
	catalog := make([]StatusPresentation, 0, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		catalog = append(catalog, PresentStatus(status))
	}
	return catalog
}
