package domain

import "time"

// Specialization tags a DCA can carry. Debt-type tags reuse the DebtType
// values; the two amount-band tags are matched against the case amount.
const (
	SpecializationHighValue   = "HIGH_VALUE"
	SpecializationSmallClaims = "SMALL_CLAIMS"
)

// DCA models an external debt-collection agency cases are allocated to.
type DCA struct {
	ID                 string
	Name               string
	Code               string
	ContactPerson      string
	Email              string
	PerformanceScore   float64
	RecoveryRate       float64
	MaxConcurrentCases int
	IsActive           bool
	IsAcceptingCases   bool
	Specializations    []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasSpecialization reports whether the DCA carries the given tag.
func (d *DCA) HasSpecialization(tag string) bool {
	for _, s := range d.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}
