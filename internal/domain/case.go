package domain

import "time"

// CaseStatus enumerates lifecycle states for collection cases.
type CaseStatus string

const (
	CaseStatusNew        CaseStatus = "NEW"
	CaseStatusAllocated  CaseStatus = "ALLOCATED"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusEscalated  CaseStatus = "ESCALATED"
	CaseStatusResolved   CaseStatus = "RESOLVED"
	CaseStatusReturned   CaseStatus = "RETURNED"
	CaseStatusClosed     CaseStatus = "CLOSED"
)

// CasePriority enumerates priority tiers driving SLA timing.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "LOW"
	CasePriorityMedium CasePriority = "MEDIUM"
	CasePriorityHigh   CasePriority = "HIGH"
)

// DebtType categorizes the underlying debt of a case.
type DebtType string

const (
	DebtTypeMedical      DebtType = "MEDICAL"
	DebtTypeCreditCard   DebtType = "CREDIT_CARD"
	DebtTypePersonalLoan DebtType = "PERSONAL_LOAN"
	DebtTypeMortgage     DebtType = "MORTGAGE"
	DebtTypeAutoLoan     DebtType = "AUTO_LOAN"
	DebtTypeOther        DebtType = "OTHER"
)

// RecoveryBand buckets a recovery score for reporting.
type RecoveryBand string

const (
	RecoveryBandLow    RecoveryBand = "LOW"
	RecoveryBandMedium RecoveryBand = "MEDIUM"
	RecoveryBandHigh   RecoveryBand = "HIGH"
)

// BandForScore derives the recovery band from a 0-100 score.
func BandForScore(score float64) RecoveryBand {
	switch {
	case score >= 70:
		return RecoveryBandHigh
	case score >= 40:
		return RecoveryBandMedium
	default:
		return RecoveryBandLow
	}
}

// Case is the aggregate for a debt-collection case. Identifiers are supplied
// by the caller; the engine never generates case identity.
type Case struct {
	ID                    string
	AccountID             string
	DebtorName            string
	DebtorEmail           *string
	DebtorPhone           *string
	OriginalAmount        float64
	CurrentAmount         float64
	DaysDelinquent        int
	DebtType              DebtType
	Notes                 *string
	Status                CaseStatus
	Priority              CasePriority
	RecoveryScore         float64
	RecoveryBand          RecoveryBand
	DCAID                 *string
	SLAContactDeadline    *time.Time
	SLAResolutionDeadline *time.Time
	FirstContactDate      *time.Time
	ResolvedDate          *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsActive reports whether the case still consumes DCA capacity.
func (c *Case) IsActive() bool {
	return c.Status == CaseStatusAllocated || c.Status == CaseStatusInProgress
}
