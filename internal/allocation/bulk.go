package allocation

import (
	"sort"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/scoring"
)

// Strategy names a bulk allocation policy.
type Strategy string

const (
	StrategyPerformance Strategy = "PERFORMANCE"
	StrategyCapacity    Strategy = "CAPACITY"
	StrategyRoundRobin  Strategy = "ROUND_ROBIN"
	StrategyIntelligent Strategy = "INTELLIGENT"
)

// FailureReason types why a case could not be allocated.
type FailureReason string

const (
	ReasonNoCapacity    FailureReason = "NO_CAPACITY"
	ReasonNoSuitableDCA FailureReason = "NO_SUITABLE_DCA"
)

// BulkRequest is one bulk allocation run over a fixed candidate snapshot.
// Force bypasses the capacity cap; it is an explicit escape hatch and never
// the default.
type BulkRequest struct {
	Cases      []*domain.Case
	Candidates []Candidate
	Strategy   Strategy
	Force      bool
}

// BulkResult reports, per case, either an allocation or a typed failure.
type BulkResult struct {
	Allocated []Assignment
	Failed    []Failure
}

// Assignment records one case-to-DCA decision.
type Assignment struct {
	CaseID string
	DCAID  string
}

// Failure records one case that could not be placed.
type Failure struct {
	CaseID string
	Reason FailureReason
}

// Allocate runs the requested strategy over a working copy of the candidate
// snapshot, tracking capacity locally as assignments accumulate.
func Allocate(req BulkRequest) BulkResult {
	working := make([]Candidate, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		if cand.Available() {
			working = append(working, cand)
		}
	}

	switch req.Strategy {
	case StrategyPerformance:
		return allocateByPerformance(req, working)
	case StrategyCapacity:
		return allocateByCapacity(req, working)
	case StrategyRoundRobin:
		return allocateRoundRobin(req, working)
	default:
		return allocateIntelligent(req, working)
	}
}

// allocateByPerformance sorts candidates by performance descending and
// greedily places each case on the best-scoring of them.
func allocateByPerformance(req BulkRequest, working []Candidate) BulkResult {
	sort.SliceStable(working, func(i, j int) bool {
		return working[i].DCA.PerformanceScore > working[j].DCA.PerformanceScore
	})
	return greedyAssign(req, working, ReasonNoSuitableDCA)
}

// allocateIntelligent is the per-case SelectBest policy.
func allocateIntelligent(req BulkRequest, working []Candidate) BulkResult {
	return greedyAssign(req, working, ReasonNoSuitableDCA)
}

func greedyAssign(req BulkRequest, working []Candidate, failReason FailureReason) BulkResult {
	var result BulkResult
	for _, c := range req.Cases {
		in := scoring.InputFromCase(c)
		idx := -1
		bestScore := 0.0
		for i, cand := range working {
			score, ok := ScoreCandidate(in, cand)
			if !ok {
				if !req.Force || cand.DCA.MaxConcurrentCases <= 0 {
					continue
				}
				score = Score{DCAID: cand.DCA.ID}
			}
			if idx == -1 || score.Total > bestScore {
				idx = i
				bestScore = score.Total
			}
		}
		if idx == -1 {
			result.Failed = append(result.Failed, Failure{CaseID: c.ID, Reason: failReason})
			continue
		}
		working[idx].ActiveCases++
		result.Allocated = append(result.Allocated, Assignment{CaseID: c.ID, DCAID: working[idx].DCA.ID})
	}
	return result
}

// allocateByCapacity places each case on the DCA with the most remaining
// headroom, re-sorting after every assignment. Quadratic in candidate count,
// which is fine at tens of DCAs.
func allocateByCapacity(req BulkRequest, working []Candidate) BulkResult {
	var result BulkResult
	for _, c := range req.Cases {
		sort.SliceStable(working, func(i, j int) bool {
			return working[i].headroom() > working[j].headroom()
		})
		if len(working) == 0 || (working[0].headroom() <= 0 && !req.Force) {
			result.Failed = append(result.Failed, Failure{CaseID: c.ID, Reason: ReasonNoCapacity})
			continue
		}
		working[0].ActiveCases++
		result.Allocated = append(result.Allocated, Assignment{CaseID: c.ID, DCAID: working[0].DCA.ID})
	}
	return result
}

// allocateRoundRobin cycles through candidates, skipping those at capacity.
func allocateRoundRobin(req BulkRequest, working []Candidate) BulkResult {
	var result BulkResult
	if len(working) == 0 {
		for _, c := range req.Cases {
			result.Failed = append(result.Failed, Failure{CaseID: c.ID, Reason: ReasonNoSuitableDCA})
		}
		return result
	}
	next := 0
	for _, c := range req.Cases {
		placed := false
		for tries := 0; tries < len(working); tries++ {
			cand := &working[next]
			next = (next + 1) % len(working)
			if cand.headroom() > 0 || req.Force {
				cand.ActiveCases++
				result.Allocated = append(result.Allocated, Assignment{CaseID: c.ID, DCAID: cand.DCA.ID})
				placed = true
				break
			}
		}
		if !placed {
			result.Failed = append(result.Failed, Failure{CaseID: c.ID, Reason: ReasonNoCapacity})
		}
	}
	return result
}
