package scoring

import (
	"testing"

	"github.com/spec-kit/recovery-service/internal/domain"
)

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.CasePriority
	}{
		{0.699, domain.CasePriorityMedium},
		{0.7, domain.CasePriorityHigh},
		{0.399, domain.CasePriorityLow},
		{0.4, domain.CasePriorityMedium},
		{0.0, domain.CasePriorityLow},
		{1.0, domain.CasePriorityHigh},
	}
	for _, tc := range cases {
		if got := tierForScore(tc.score); got != tc.want {
			t.Fatalf("tierForScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestSLADaysForTier(t *testing.T) {
	cases := []struct {
		tier                domain.CasePriority
		contact, resolution int
	}{
		{domain.CasePriorityHigh, 1, 7},
		{domain.CasePriorityMedium, 3, 15},
		{domain.CasePriorityLow, 5, 30},
	}
	for _, tc := range cases {
		contact, resolution := SLADaysForTier(tc.tier)
		if contact != tc.contact || resolution != tc.resolution {
			t.Fatalf("SLADaysForTier(%s) = (%d,%d), want (%d,%d)",
				tc.tier, contact, resolution, tc.contact, tc.resolution)
		}
	}
}

func TestRankHighValueUrgentCase(t *testing.T) {
	in := CaseInput{OriginalAmount: 60000, DaysDelinquent: 120, DebtType: domain.DebtTypeMortgage}
	p := Rank(in, 0.9)
	if p.Tier != domain.CasePriorityHigh {
		t.Fatalf("expected HIGH tier, got %s (score %v)", p.Tier, p.Score)
	}
	if p.ContactSLADays != 1 || p.ResolutionSLADays != 7 {
		t.Fatalf("expected 1/7 day deadlines, got %d/%d", p.ContactSLADays, p.ResolutionSLADays)
	}
	if p.ValueScore != 1.0 || p.UrgencyScore != 1.0 {
		t.Fatalf("expected saturated value and urgency, got %v/%v", p.ValueScore, p.UrgencyScore)
	}
}

func TestRankDeterministic(t *testing.T) {
	in := CaseInput{OriginalAmount: 8000, DaysDelinquent: 40, DebtType: domain.DebtTypeCreditCard}
	first := Rank(in, 0.55)
	second := Rank(in, 0.55)
	if first != second {
		t.Fatalf("expected identical rankings, got %+v vs %+v", first, second)
	}
}

func TestRankClampsProbability(t *testing.T) {
	in := CaseInput{OriginalAmount: 1000, DaysDelinquent: 10}
	over := Rank(in, 3.0)
	capped := Rank(in, 1.0)
	if over.Score != capped.Score {
		t.Fatalf("expected probability clamp, got %v vs %v", over.Score, capped.Score)
	}
}

func TestBatchRankOrdersDescendingAndStable(t *testing.T) {
	mk := func(id string, amount float64, days int) *domain.Case {
		return &domain.Case{ID: id, OriginalAmount: amount, DaysDelinquent: days, DebtType: domain.DebtTypeOther}
	}
	cases := []*domain.Case{
		mk("low", 500, 5),
		mk("tie-a", 20000, 60),
		mk("tie-b", 20000, 60),
		mk("high", 90000, 200),
	}
	ranked := BatchRank(cases, func(*domain.Case) float64 { return 0.5 })
	if len(ranked) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(ranked))
	}
	if ranked[0].Case.ID != "high" {
		t.Fatalf("expected high first, got %s", ranked[0].Case.ID)
	}
	if ranked[len(ranked)-1].Case.ID != "low" {
		t.Fatalf("expected low last, got %s", ranked[len(ranked)-1].Case.ID)
	}
	// equal-score entries keep input order
	var tieA, tieB int
	for i, entry := range ranked {
		switch entry.Case.ID {
		case "tie-a":
			tieA = i
		case "tie-b":
			tieB = i
		}
	}
	if tieA > tieB {
		t.Fatalf("expected stable tie ordering, tie-a at %d after tie-b at %d", tieA, tieB)
	}
}
