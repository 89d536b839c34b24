package scoring

import (
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/domain"
)

func TestRuleBasedScoreLadder(t *testing.T) {
	cases := []struct {
		amount float64
		days   int
		want   float64
	}{
		{amount: 5000, days: 10, want: 70},
		{amount: 5000, days: 45, want: 65},
		{amount: 5000, days: 120, want: 45},
		{amount: 5000, days: 200, want: 30},
		{amount: 5000, days: 400, want: 30},
		{amount: 20000, days: 10, want: 60},
		{amount: 80000, days: 10, want: 40},
		{amount: 80000, days: 400, want: 0},
	}
	for _, tc := range cases {
		got := RuleBasedScore(tc.amount, tc.days)
		if got != tc.want {
			t.Fatalf("RuleBasedScore(%v, %d) = %v, want %v", tc.amount, tc.days, got, tc.want)
		}
	}
}

func TestRuleBasedScoreBounded(t *testing.T) {
	for _, tc := range []struct {
		amount float64
		days   int
	}{
		{0, 0}, {1e9, 10000}, {-500, -3},
	} {
		got := RuleBasedScore(tc.amount, tc.days)
		if got < 0 || got > 100 {
			t.Fatalf("RuleBasedScore(%v, %d) = %v out of [0,100]", tc.amount, tc.days, got)
		}
	}
}

func TestRuleBasedPredictionDeterministic(t *testing.T) {
	in := CaseInput{OriginalAmount: 12000, DaysDelinquent: 75, DebtType: domain.DebtTypeMedical}
	strategy := RuleBased{}
	first := strategy.Predict(in)
	second := strategy.Predict(in)
	if first.Probability != second.Probability || first.Score != second.Score {
		t.Fatalf("expected identical predictions, got %+v vs %+v", first, second)
	}
	if first.Mode != ModeRuleBased {
		t.Fatalf("expected rule-based mode, got %s", first.Mode)
	}
}

func TestConfidenceBands(t *testing.T) {
	cases := []struct {
		prob float64
		want Confidence
	}{
		{0.9, ConfidenceHigh},
		{0.1, ConfidenceHigh},
		{0.65, ConfidenceMedium},
		{0.35, ConfidenceMedium},
		{0.5, ConfidenceLow},
		{0.45, ConfidenceLow},
	}
	for _, tc := range cases {
		if got := confidenceFor(tc.prob); got != tc.want {
			t.Fatalf("confidenceFor(%v) = %s, want %s", tc.prob, got, tc.want)
		}
	}
}

func TestScorerFallsBackWithoutModel(t *testing.T) {
	scorer, err := NewScorer(NewFileModelStore(t.TempDir()+"/missing.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	if scorer.Mode() != ModeRuleBased {
		t.Fatalf("expected rule-based mode without a model, got %s", scorer.Mode())
	}
	p := scorer.Predict(CaseInput{OriginalAmount: 3000, DaysDelinquent: 20})
	if p.Score != 70 {
		t.Fatalf("expected rule score 70, got %v", p.Score)
	}
}
