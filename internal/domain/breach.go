package domain

import "time"

// BreachType distinguishes which SLA deadline was missed.
type BreachType string

const (
	BreachTypeContact    BreachType = "CONTACT"
	BreachTypeResolution BreachType = "RESOLUTION"
)

// SLAStatus classifies a case against its deadlines.
type SLAStatus string

const (
	SLAStatusBreached  SLAStatus = "BREACHED"
	SLAStatusWarning   SLAStatus = "WARNING"
	SLAStatusCompliant SLAStatus = "COMPLIANT"
)

// SLABreach records a detected missed deadline. At most one open breach may
// exist per (case, breach type) pair.
type SLABreach struct {
	ID           string
	CaseID       string
	BreachType   BreachType
	Deadline     time.Time
	DetectedAt   time.Time
	HoursOverdue float64
	ResolvedAt   *time.Time
}

// IsResolved reports whether the breach has been closed out.
func (b *SLABreach) IsResolved() bool {
	return b.ResolvedAt != nil
}
