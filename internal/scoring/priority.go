package scoring

import (
	"math"
	"sort"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// Priority weighting: value 30%, urgency 25%, recovery 35%, strategic 10%.
const (
	weightValue     = 0.30
	weightUrgency   = 0.25
	weightRecovery  = 0.35
	weightStrategic = 0.10

	valueNormAmount = 50000.0
	urgencyNormDays = 90.0

	tierHighThreshold   = 0.7
	tierMediumThreshold = 0.4
)

// strategicWeight maps debt categories to strategic importance.
var strategicWeight = map[domain.DebtType]float64{
	domain.DebtTypeMedical:    0.8,
	domain.DebtTypeMortgage:   0.9,
	domain.DebtTypeAutoLoan:   0.7,
	domain.DebtTypeCreditCard: 0.6,
	domain.DebtTypeOther:      0.5,
}

// Priority is the full weighted ranking of a case once a recovery
// probability is available. It is distinct from the coarse intake-time
// priority rule used for fast triage before scoring completes.
type Priority struct {
	Score             float64
	Tier              domain.CasePriority
	ContactSLADays    int
	ResolutionSLADays int
	ValueScore        float64
	UrgencyScore      float64
	RecoveryScore     float64
	StrategicScore    float64
	ExpectedRecovery  float64
	ROIScore          float64
	Explanation       string
}

// Rank combines recovery probability, debt value, delinquency age and the
// debt-type strategic weight into a single priority. Deterministic: two
// calls with identical inputs yield identical output.
func Rank(in CaseInput, recoveryProb float64) Priority {
	recoveryProb = clip(recoveryProb, 0, 1)

	valueScore := math.Min(math.Max(in.OriginalAmount, 0)/valueNormAmount, 1.0)
	urgencyScore := math.Min(math.Max(float64(in.DaysDelinquent), 0)/urgencyNormDays, 1.0)
	strategic, ok := strategicWeight[in.DebtType]
	if !ok {
		strategic = strategicWeight[domain.DebtTypeOther]
	}

	score := weightValue*valueScore +
		weightUrgency*urgencyScore +
		weightRecovery*recoveryProb +
		weightStrategic*strategic

	tier := tierForScore(score)
	contactDays, resolutionDays := SLADaysForTier(tier)

	expected := in.OriginalAmount * recoveryProb
	roi := expected / math.Max(in.OriginalAmount, 1)

	return Priority{
		Score:             round3(score),
		Tier:              tier,
		ContactSLADays:    contactDays,
		ResolutionSLADays: resolutionDays,
		ValueScore:        round3(valueScore),
		UrgencyScore:      round3(urgencyScore),
		RecoveryScore:     round3(recoveryProb),
		StrategicScore:    round3(strategic),
		ExpectedRecovery:  math.Round(expected*100) / 100,
		ROIScore:          round3(roi),
		Explanation:       explainPriority(tier, valueScore, urgencyScore, recoveryProb),
	}
}

// RankedCase pairs a case with its computed priority, for batch output.
type RankedCase struct {
	Case     *domain.Case
	Priority Priority
}

// BatchRank ranks a set of cases and returns them sorted by priority score
// descending. Ties keep input order.
func BatchRank(cases []*domain.Case, probFor func(*domain.Case) float64) []RankedCase {
	out := make([]RankedCase, 0, len(cases))
	for _, c := range cases {
		out = append(out, RankedCase{
			Case:     c,
			Priority: Rank(InputFromCase(c), probFor(c)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Score > out[j].Priority.Score
	})
	return out
}

func tierForScore(score float64) domain.CasePriority {
	switch {
	case score >= tierHighThreshold:
		return domain.CasePriorityHigh
	case score >= tierMediumThreshold:
		return domain.CasePriorityMedium
	default:
		return domain.CasePriorityLow
	}
}

// SLADaysForTier returns (contact, resolution) deadline offsets in days.
func SLADaysForTier(tier domain.CasePriority) (int, int) {
	switch tier {
	case domain.CasePriorityHigh:
		return 1, 7
	case domain.CasePriorityMedium:
		return 3, 15
	default:
		return 5, 30
	}
}

func explainPriority(tier domain.CasePriority, valueScore, urgencyScore, recoveryScore float64) string {
	base := map[domain.CasePriority]string{
		domain.CasePriorityHigh:   "High-value account with strong recovery potential",
		domain.CasePriorityMedium: "Moderate value with reasonable recovery chances",
		domain.CasePriorityLow:    "Lower expected recovery value",
	}[tier]

	dominant := "Primary driver: recovery probability"
	if valueScore >= urgencyScore && valueScore >= recoveryScore {
		dominant = "Primary driver: high debt amount"
	} else if urgencyScore >= valueScore && urgencyScore >= recoveryScore {
		dominant = "Primary driver: age of delinquency"
	}
	return base + ". " + dominant
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
