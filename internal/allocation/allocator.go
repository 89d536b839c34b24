package allocation

import (
	"math"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/scoring"
)

// DCA score blend: capacity 40%, performance 35%, specialization 15%,
// workload 10%. A DCA whose capacity sub-score is zero is excluded, never
// merely penalized.
const (
	weightCapacity       = 0.40
	weightPerformance    = 0.35
	weightSpecialization = 0.15
	weightWorkload       = 0.10

	defaultPerformance = 0.5

	highValueAmount   = 50000.0
	smallClaimsAmount = 5000.0
)

// Candidate bundles a DCA with the live state its sub-scores depend on.
// ActiveCases counts cases in {ALLOCATED, IN_PROGRESS}; AvgCaseAgeDays is
// the mean age of those cases.
type Candidate struct {
	DCA            *domain.DCA
	ActiveCases    int
	AvgCaseAgeDays float64
}

// Available reports whether the candidate may receive cases at all.
func (c Candidate) Available() bool {
	return c.DCA != nil && c.DCA.IsActive && c.DCA.IsAcceptingCases
}

// headroom is the number of further cases the DCA can take.
func (c Candidate) headroom() int {
	return c.DCA.MaxConcurrentCases - c.ActiveCases
}

// Score is the weighted blend for one candidate, with its breakdown.
type Score struct {
	DCAID          string
	Total          float64
	Capacity       float64
	Performance    float64
	Specialization float64
	Workload       float64
}

// SelectBest returns the highest-scoring available candidate for the case,
// or nil when none qualifies. Ties keep first-encountered order.
func SelectBest(in scoring.CaseInput, candidates []Candidate) *domain.DCA {
	best := (*domain.DCA)(nil)
	bestScore := 0.0
	for _, cand := range candidates {
		score, ok := ScoreCandidate(in, cand)
		if !ok {
			continue
		}
		if best == nil || score.Total > bestScore {
			best = cand.DCA
			bestScore = score.Total
		}
	}
	return best
}

// ScoreCandidate computes the blend for one candidate. ok is false when the
// candidate is unavailable or at/over capacity.
func ScoreCandidate(in scoring.CaseInput, cand Candidate) (Score, bool) {
	if !cand.Available() {
		return Score{}, false
	}
	capacity := capacityScore(cand.ActiveCases, cand.DCA.MaxConcurrentCases)
	if capacity <= 0 {
		return Score{}, false
	}
	performance := cand.DCA.PerformanceScore
	if performance <= 0 {
		performance = defaultPerformance
	}
	specialization := specializationScore(in, cand.DCA)
	workload := workloadScore(cand.AvgCaseAgeDays)

	score := Score{
		DCAID:          cand.DCA.ID,
		Capacity:       capacity,
		Performance:    performance,
		Specialization: specialization,
		Workload:       workload,
	}
	score.Total = weightCapacity*capacity +
		weightPerformance*performance +
		weightSpecialization*specialization +
		weightWorkload*workload
	return score, true
}

// Recommendation is a scored candidate returned to callers that want the
// whole ranking rather than a single pick.
type Recommendation struct {
	DCA            *domain.DCA
	Score          Score
	AvailableSlots int
	Utilization    float64
}

// Recommend scores every qualifying candidate and returns them sorted by
// total score descending. The sort is stable so equal scores keep input
// order.
func Recommend(in scoring.CaseInput, candidates []Candidate) []Recommendation {
	out := make([]Recommendation, 0, len(candidates))
	for _, cand := range candidates {
		score, ok := ScoreCandidate(in, cand)
		if !ok {
			continue
		}
		utilization := 0.0
		if cand.DCA.MaxConcurrentCases > 0 {
			utilization = float64(cand.ActiveCases) / float64(cand.DCA.MaxConcurrentCases)
		}
		out = append(out, Recommendation{
			DCA:            cand.DCA,
			Score:          score,
			AvailableSlots: cand.headroom(),
			Utilization:    math.Round(utilization*1000) / 10,
		})
	}
	// insertion sort keeps it stable; candidate lists are tens of entries
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score.Total > out[j-1].Score.Total; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// capacityScore ladders on utilization; at or over capacity scores zero,
// which excludes the DCA entirely.
func capacityScore(activeCases, maxCapacity int) float64 {
	if maxCapacity <= 0 || activeCases >= maxCapacity {
		return 0
	}
	utilization := float64(activeCases) / float64(maxCapacity)
	switch {
	case utilization <= 0.7:
		return 1.0
	case utilization <= 0.8:
		return 0.8
	case utilization <= 0.9:
		return 0.5
	default:
		return 0.2
	}
}

func specializationScore(in scoring.CaseInput, dca *domain.DCA) float64 {
	if len(dca.Specializations) == 0 {
		return 0.5
	}
	score := 0.3
	if dca.HasSpecialization(string(in.DebtType)) {
		score = 1.0
	}
	if in.OriginalAmount >= highValueAmount && dca.HasSpecialization(domain.SpecializationHighValue) {
		score += 0.2
	} else if in.OriginalAmount <= smallClaimsAmount && dca.HasSpecialization(domain.SpecializationSmallClaims) {
		score += 0.2
	}
	return math.Min(1.0, score)
}

func workloadScore(avgCaseAgeDays float64) float64 {
	switch {
	case avgCaseAgeDays <= 7:
		return 1.0
	case avgCaseAgeDays <= 14:
		return 0.8
	case avgCaseAgeDays <= 30:
		return 0.6
	default:
		return 0.3
	}
}
