package scoring

import (
	"math"
	"testing"

	"github.com/spec-kit/recovery-service/internal/domain"
)

func TestExtractFeaturesDefaults(t *testing.T) {
	f := ExtractFeatures(CaseInput{OriginalAmount: 1000, DaysDelinquent: 90, DebtType: domain.DebtTypeMedical})

	if f.CreditScoreNorm != 650.0/850 {
		t.Fatalf("expected default credit score 650 normalized, got %v", f.CreditScoreNorm)
	}
	if f.EmploymentStability != 24.0/120 {
		t.Fatalf("expected default employment 24 months normalized, got %v", f.EmploymentStability)
	}
	if f.DelinquencySeverity != 0.5 {
		t.Fatalf("expected 90 days to map to severity 0.5, got %v", f.DelinquencySeverity)
	}
	if f.DebtTypeScore != 0.7 {
		t.Fatalf("expected medical propensity 0.7, got %v", f.DebtTypeScore)
	}
}

func TestExtractFeaturesDelinquencyCapped(t *testing.T) {
	f := ExtractFeatures(CaseInput{OriginalAmount: 1000, DaysDelinquent: 900})
	if f.DelinquencySeverity != 1.0 {
		t.Fatalf("expected severity capped at 1.0, got %v", f.DelinquencySeverity)
	}
}

func TestExtractFeaturesTotalOnHostileInput(t *testing.T) {
	bad := -12.5
	f := ExtractFeatures(CaseInput{
		OriginalAmount: -100,
		DaysDelinquent: -5,
		DebtType:       domain.DebtType("GARBAGE"),
		CreditScore:    &bad,
		ResponseRate:   &bad,
	})
	for i, v := range f.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("feature %s is not finite: %v", featureNames[i], v)
		}
	}
	if f.DebtTypeScore != 0.5 {
		t.Fatalf("unknown debt type should use 0.5, got %v", f.DebtTypeScore)
	}
}

func TestFeatureValuesMatchNames(t *testing.T) {
	f := ExtractFeatures(CaseInput{OriginalAmount: 2500, DaysDelinquent: 30})
	if len(f.Values()) != len(featureNames) {
		t.Fatalf("values length %d != names length %d", len(f.Values()), len(featureNames))
	}
}
