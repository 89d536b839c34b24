package dto

import (
	"time"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// CreateCaseRequest payload for intake.
type CreateCaseRequest struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	DebtorName       string          `json:"debtor_name"`
	DebtorEmail      *string         `json:"debtor_email"`
	DebtorPhone      *string         `json:"debtor_phone"`
	OriginalAmount   float64         `json:"original_amount"`
	CurrentAmount    float64         `json:"current_amount"`
	DaysDelinquent   int             `json:"days_delinquent"`
	DebtType         domain.DebtType `json:"debt_type"`
	CreditScore      *float64        `json:"credit_score"`
	EmploymentMonths *float64        `json:"employment_months"`
}

// UpdateCaseRequest payload for agent edits. Absent fields are untouched.
type UpdateCaseRequest struct {
	CurrentAmount *float64 `json:"current_amount"`
	Notes         *string  `json:"notes"`
}

// UpdateStatusRequest payload for transitions.
type UpdateStatusRequest struct {
	Status  domain.CaseStatus `json:"status"`
	Comment string            `json:"comment"`
}

// CaseSummary response.
type CaseSummary struct {
	ID             string              `json:"id"`
	AccountID      string              `json:"account_id"`
	DebtorName     string              `json:"debtor_name"`
	OriginalAmount float64             `json:"original_amount"`
	CurrentAmount  float64             `json:"current_amount"`
	DaysDelinquent int                 `json:"days_delinquent"`
	DebtType       domain.DebtType     `json:"debt_type"`
	Status         domain.CaseStatus   `json:"status"`
	Priority       domain.CasePriority `json:"priority"`
	RecoveryScore  float64             `json:"recovery_score"`
	RecoveryBand   domain.RecoveryBand `json:"recovery_band"`
	DCAID          *string             `json:"dca_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// CaseDetailResponse provides full case info.
type CaseDetailResponse struct {
	CaseSummary
	DebtorEmail           *string           `json:"debtor_email"`
	DebtorPhone           *string           `json:"debtor_phone"`
	Notes                 *string           `json:"notes"`
	SLAContactDeadline    *time.Time        `json:"sla_contact_deadline"`
	SLAResolutionDeadline *time.Time        `json:"sla_resolution_deadline"`
	FirstContactDate      *time.Time        `json:"first_contact_date"`
	ResolvedDate          *time.Time        `json:"resolved_date"`
	SLAStatus             *domain.SLAStatus `json:"sla_status,omitempty"`
	Breaches              []BreachResponse  `json:"breaches,omitempty"`
	History               []AuditResponse   `json:"history,omitempty"`
}

// BreachResponse reports an SLA breach.
type BreachResponse struct {
	ID           string            `json:"id"`
	BreachType   domain.BreachType `json:"breach_type"`
	Deadline     time.Time         `json:"deadline"`
	DetectedAt   time.Time         `json:"detected_at"`
	HoursOverdue float64           `json:"hours_overdue"`
	ResolvedAt   *time.Time        `json:"resolved_at"`
}

// AuditResponse is one audit-trail entry.
type AuditResponse struct {
	ID        string             `json:"id"`
	Action    domain.AuditAction `json:"action"`
	OldValues map[string]any     `json:"old_values,omitempty"`
	NewValues map[string]any     `json:"new_values,omitempty"`
	ActorID   *string            `json:"actor_id"`
	Timestamp time.Time          `json:"timestamp"`
}

// ScoreResponse is a recovery prediction.
type ScoreResponse struct {
	Probability       float64  `json:"probability"`
	Score             float64  `json:"score"`
	Confidence        string   `json:"confidence"`
	Mode              string   `json:"mode"`
	KeyFactors        []string `json:"key_factors"`
	RiskFactors       []string `json:"risk_factors"`
	RecommendedAction string   `json:"recommended_action"`
}

// PriorityResponse is the full priority breakdown.
type PriorityResponse struct {
	Score             float64             `json:"score"`
	Tier              domain.CasePriority `json:"tier"`
	ContactSLADays    int                 `json:"contact_sla_days"`
	ResolutionSLADays int                 `json:"resolution_sla_days"`
	ValueScore        float64             `json:"value_score"`
	UrgencyScore      float64             `json:"urgency_score"`
	RecoveryScore     float64             `json:"recovery_score"`
	StrategicScore    float64             `json:"strategic_score"`
	ExpectedRecovery  float64             `json:"expected_recovery"`
	ROIScore          float64             `json:"roi_score"`
	Explanation       string              `json:"explanation"`
}

// RankedCaseResponse is one work-queue entry.
type RankedCaseResponse struct {
	Case     CaseSummary      `json:"case"`
	Priority PriorityResponse `json:"priority"`
}
