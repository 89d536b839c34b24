package events

import (
	"time"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventCaseUpdated       EventType = "case_updated"
	EventCaseAllocated     EventType = "case_allocated"
	EventCaseStatusChanged EventType = "case_status_changed"
	EventCaseEscalated     EventType = "case_escalated"
	EventSLABreachDetected EventType = "sla_breach_detected"
	EventDailySummary      EventType = "sla_daily_summary"
)

// Actor encapsulates actor metadata for an event. A nil UserID means the
// system (scheduler) acted.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
	System bool    `json:"system,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	AccountID     string              `json:"account_id"`
	Priority      domain.CasePriority `json:"priority"`
	Status        domain.CaseStatus   `json:"status"`
	RecoveryScore float64             `json:"recovery_score"`
}

// CaseUpdatedPayload payload.
type CaseUpdatedPayload struct {
	OldAmount    float64 `json:"old_amount"`
	NewAmount    float64 `json:"new_amount"`
	NotesChanged bool    `json:"notes_changed,omitempty"`
}

// CaseAllocatedPayload payload.
type CaseAllocatedPayload struct {
	DCAID    string              `json:"dca_id"`
	Priority domain.CasePriority `json:"priority"`
	Amount   float64             `json:"amount"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
	Comment   string            `json:"comment,omitempty"`
}

// CaseEscalatedPayload payload.
type CaseEscalatedPayload struct {
	DCAID       *string   `json:"dca_id,omitempty"`
	Deadline    time.Time `json:"deadline"`
	DaysOverdue int       `json:"days_overdue"`
}

// SLABreachPayload payload.
type SLABreachPayload struct {
	BreachType   domain.BreachType `json:"breach_type"`
	Deadline     time.Time         `json:"deadline"`
	HoursOverdue float64           `json:"hours_overdue"`
	DCAID        *string           `json:"dca_id,omitempty"`
}

// DailySummaryPayload payload.
type DailySummaryPayload struct {
	ReportDate     string  `json:"report_date"`
	CasesCreated   int     `json:"cases_created"`
	CasesResolved  int     `json:"cases_resolved"`
	NewBreaches    int     `json:"new_breaches"`
	OpenBreaches   int     `json:"open_breaches"`
	ComplianceRate float64 `json:"compliance_rate"`
}
