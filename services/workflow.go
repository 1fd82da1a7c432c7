package services

import (
	"strings"

	"faculty-appraisal-api/models"
)

// Event is something that moves an appraisal through the approval chain.
type Event string

const (
	EventSubmit       Event = "submit"
	EventHODApprove   Event = "hod_approve"
	EventHODReject    Event = "hod_reject"
	EventAdminApprove Event = "admin_approve"
	EventAdminReject  Event = "admin_reject"
	EventResubmit     Event = "resubmit"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var decisionAliases = map[string]Decision{
	"approve":   DecisionApprove,
	"approved":  DecisionApprove,
	"agree":     DecisionApprove,
	"recommend": DecisionApprove,
	"reject":    DecisionReject,
	"rejected":  DecisionReject,
	"disagree":  DecisionReject,
}

// ParseDecision accepts approve/reject and the agree/disagree wording used by reviewers.
func ParseDecision(raw string) (Decision, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if d, ok := decisionAliases[key]; ok {
		return d, nil
	}
	return "", &Error{
		Kind:    ErrValidation,
		Message: "decision must be either 'approve' or 'reject'",
		Fields:  Violations{"decision": "invalid"},
	}
}

type transitionKey struct {
	from  models.AppraisalStatus
	event Event
}

// transitions is the complete approval state machine. Anything absent is illegal;
// approved has no outgoing edge.
var transitions = map[transitionKey]models.AppraisalStatus{
	{"", EventSubmit}:                              models.StatusPendingHOD,
	{models.StatusPendingHOD, EventHODApprove}:     models.StatusPendingAdmin,
	{models.StatusPendingHOD, EventHODReject}:      models.StatusRejected,
	{models.StatusPendingAdmin, EventAdminApprove}: models.StatusApproved,
	{models.StatusPendingAdmin, EventAdminReject}:  models.StatusRejected,
	{models.StatusRejected, EventResubmit}:         models.StatusPendingHOD,
	{models.StatusPendingHOD, EventResubmit}:       models.StatusPendingHOD,
}

// NextStatus returns the status reached by applying event in state from.
func NextStatus(from models.AppraisalStatus, event Event) (models.AppraisalStatus, error) {
	if to, ok := transitions[transitionKey{from: from, event: event}]; ok {
		return to, nil
	}
	return "", invalidState("cannot apply %s to an appraisal that is %s", event, describeStatus(from))
}

// DecisionEvent maps a reviewer decision at a stage to its workflow event.
func DecisionEvent(stage models.ReviewStage, decision Decision) Event {
	switch {
	case stage == models.StageHOD && decision == DecisionApprove:
		return EventHODApprove
	case stage == models.StageHOD:
		return EventHODReject
	case decision == DecisionApprove:
		return EventAdminApprove
	default:
		return EventAdminReject
	}
}

// awaitingStatus is the status a stage's decision requires.
func awaitingStatus(stage models.ReviewStage) models.AppraisalStatus {
	if stage == models.StageHOD {
		return models.StatusPendingHOD
	}
	return models.StatusPendingAdmin
}

func describeStatus(s models.AppraisalStatus) string {
	switch s {
	case "":
		return "not yet submitted"
	case models.StatusPendingHOD:
		return "awaiting HOD review"
	case models.StatusPendingAdmin:
		return "awaiting admin review"
	case models.StatusApproved:
		return "already approved"
	case models.StatusRejected:
		return "rejected"
	default:
		return string(s)
	}
}
