package dto

import (
	"time"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// DCARequest payload for agency registration and updates.
type DCARequest struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Code               string   `json:"code"`
	ContactPerson      string   `json:"contact_person"`
	Email              string   `json:"email"`
	PerformanceScore   float64  `json:"performance_score"`
	RecoveryRate       float64  `json:"recovery_rate"`
	MaxConcurrentCases int      `json:"max_concurrent_cases"`
	IsActive           bool     `json:"is_active"`
	IsAcceptingCases   bool     `json:"is_accepting_cases"`
	Specializations    []string `json:"specializations"`
}

// DCAResponse response.
type DCAResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Code               string    `json:"code"`
	ContactPerson      string    `json:"contact_person"`
	Email              string    `json:"email"`
	PerformanceScore   float64   `json:"performance_score"`
	RecoveryRate       float64   `json:"recovery_rate"`
	MaxConcurrentCases int       `json:"max_concurrent_cases"`
	IsActive           bool      `json:"is_active"`
	IsAcceptingCases   bool      `json:"is_accepting_cases"`
	Specializations    []string  `json:"specializations"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// WorkloadResponse augments an agency with live utilization.
type WorkloadResponse struct {
	DCAResponse
	ActiveCases    int     `json:"active_cases"`
	AvailableSlots int     `json:"available_slots"`
	Utilization    float64 `json:"utilization"`
	AvgCaseAgeDays float64 `json:"avg_case_age_days"`
}

// AllocateRequest payload for single-case allocation.
type AllocateRequest struct {
	DCAID string `json:"dca_id"`
	Force bool   `json:"force"`
}

// BulkAllocateRequest payload for batch allocation.
type BulkAllocateRequest struct {
	CaseIDs  []string `json:"case_ids"`
	Strategy string   `json:"strategy"`
	Force    bool     `json:"force"`
}

// BulkAllocateResponse reports outcomes per case.
type BulkAllocateResponse struct {
	Allocated []AssignmentResponse `json:"allocated"`
	Failed    []FailureResponse    `json:"failed"`
}

// AssignmentResponse one placed case.
type AssignmentResponse struct {
	CaseID string `json:"case_id"`
	DCAID  string `json:"dca_id"`
}

// FailureResponse one unplaceable case.
type FailureResponse struct {
	CaseID string `json:"case_id"`
	Reason string `json:"reason"`
}

// RecommendationResponse is one scored candidate agency.
type RecommendationResponse struct {
	DCAID          string  `json:"dca_id"`
	Name           string  `json:"name"`
	TotalScore     float64 `json:"total_score"`
	Capacity       float64 `json:"capacity_score"`
	Performance    float64 `json:"performance_score"`
	Specialization float64 `json:"specialization_score"`
	Workload       float64 `json:"workload_score"`
	AvailableSlots int     `json:"available_slots"`
	Utilization    float64 `json:"utilization"`
}

// SLAStatusResponse reports a single case's compliance.
type SLAStatusResponse struct {
	CaseID   string           `json:"case_id"`
	Status   domain.SLAStatus `json:"status"`
	Breaches []BreachResponse `json:"breaches"`
}

// ComplianceReportResponse is the daily compliance rollup.
type ComplianceReportResponse struct {
	ReportDate     string  `json:"report_date"`
	CasesCreated   int     `json:"cases_created"`
	CasesResolved  int     `json:"cases_resolved"`
	NewBreaches    int     `json:"new_breaches"`
	OpenBreaches   int     `json:"open_breaches"`
	Breached       int     `json:"breached"`
	Warning        int     `json:"warning"`
	Compliant      int     `json:"compliant"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// TrainingReportResponse summarizes a model training run.
type TrainingReportResponse struct {
	Samples           int             `json:"samples"`
	TrainScore        float64         `json:"train_score"`
	TestScore         float64         `json:"test_score"`
	FeatureImportance []FeatureWeight `json:"feature_importance"`
	Mode              string          `json:"mode"`
}

// FeatureWeight is one model coefficient by feature name.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// PortfolioInsightsResponse is the case-book pattern analysis.
type PortfolioInsightsResponse struct {
	CasesAnalyzed    int                        `json:"cases_analyzed"`
	PatternsDetected int                        `json:"patterns_detected"`
	Patterns         []PortfolioPatternResponse `json:"patterns"`
	Insights         []PortfolioInsightResponse `json:"insights"`
	Summary          string                     `json:"summary"`
}

// PortfolioPatternResponse is one detected pattern.
type PortfolioPatternResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Action      string `json:"action"`
}

// PortfolioInsightResponse is one portfolio observation.
type PortfolioInsightResponse struct {
	Type           string `json:"type"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}
