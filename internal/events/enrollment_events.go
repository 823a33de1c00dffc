package events

import (
	"time"

	"github.com/portal-editais/edital-service/internal/models"
)

// EventType identifies a submission state transition on the wire.
type EventType string

const (
	EventSubmissionEnrolled    EventType = "submission.enrolled"
	EventSubmissionSelfCancel  EventType = "submission.self_cancelled"
	EventSubmissionAdminCancel EventType = "submission.admin_cancelled"
)

// EnrollmentEvent is the envelope published for every state change. The
// notification service downstream turns these into applicant emails; this
// service only emits the fact.
type EnrollmentEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

type SubmissionEnrolledEvent struct {
	SubmissionID uint      `json:"submission_id"`
	CallID       uint      `json:"call_id"`
	CallTitle    string    `json:"call_title"`
	ApplicantID  string    `json:"applicant_id"`
	Reactivated  bool      `json:"reactivated"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

type SubmissionCancelledEvent struct {
	SubmissionID uint      `json:"submission_id"`
	CallID       uint      `json:"call_id"`
	CallTitle    string    `json:"call_title"`
	ApplicantID  string    `json:"applicant_id"`
	ActorID      string    `json:"actor_id"`
	Note         *string   `json:"note,omitempty"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

// ActionEventType maps an audit action to its wire event type.
func ActionEventType(action models.LogAction) EventType {
	switch action {
	case models.ActionSelfCancel:
		return EventSubmissionSelfCancel
	case models.ActionAdminCancel:
		return EventSubmissionAdminCancel
	default:
		return EventSubmissionEnrolled
	}
}
