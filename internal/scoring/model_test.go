package scoring

import (
	"path/filepath"
	"testing"

	"github.com/spec-kit/recovery-service/internal/domain"
)

func syntheticHistory(n int) []TrainingCase {
	history := make([]TrainingCase, 0, n)
	for i := 0; i < n; i++ {
		amount := float64(1000 + i*3000)
		days := 10 + (i*37)%300
		// younger, smaller debts recover better
		rate := 0.9 - 0.002*float64(days) - amount/1e6
		if rate < 0 {
			rate = 0
		}
		history = append(history, TrainingCase{
			Input: CaseInput{
				OriginalAmount: amount,
				DaysDelinquent: days,
				DebtType:       domain.DebtTypeCreditCard,
			},
			RecoveryRate: rate,
		})
	}
	return history
}

func TestTrainModelRequiresMinimumHistory(t *testing.T) {
	if _, _, err := TrainModel(syntheticHistory(9)); err == nil {
		t.Fatalf("expected error for fewer than 10 cases")
	}
	if _, _, err := TrainModel(syntheticHistory(10)); err != nil {
		t.Fatalf("expected 10 cases to be enough, got %v", err)
	}
}

func TestTrainModelDeterministic(t *testing.T) {
	history := syntheticHistory(40)
	first, _, err := TrainModel(history)
	if err != nil {
		t.Fatalf("TrainModel: %v", err)
	}
	second, _, err := TrainModel(history)
	if err != nil {
		t.Fatalf("TrainModel: %v", err)
	}
	for i := range first.Weights {
		if first.Weights[i] != second.Weights[i] {
			t.Fatalf("weight %d differs between runs: %v vs %v", i, first.Weights[i], second.Weights[i])
		}
	}
	if first.Bias != second.Bias {
		t.Fatalf("bias differs between runs: %v vs %v", first.Bias, second.Bias)
	}
}

func TestTrainedModelPredictsInRange(t *testing.T) {
	state, report, err := TrainModel(syntheticHistory(60))
	if err != nil {
		t.Fatalf("TrainModel: %v", err)
	}
	if report.Samples != 60 {
		t.Fatalf("expected 60 samples, got %d", report.Samples)
	}
	if len(report.FeatureImportance) == 0 {
		t.Fatalf("expected feature importance entries")
	}

	strategy := &Trained{state: state}
	for _, in := range []CaseInput{
		{OriginalAmount: 2000, DaysDelinquent: 15},
		{OriginalAmount: 95000, DaysDelinquent: 280, DebtType: domain.DebtTypeAutoLoan},
	} {
		p := strategy.Predict(in)
		if p.Probability < 0 || p.Probability > 1 {
			t.Fatalf("probability %v out of range for %+v", p.Probability, in)
		}
		if p.Score < 0 || p.Score > 100 {
			t.Fatalf("score %v out of range for %+v", p.Score, in)
		}
	}
}

func TestFileModelStoreRoundtrip(t *testing.T) {
	state, _, err := TrainModel(syntheticHistory(20))
	if err != nil {
		t.Fatalf("TrainModel: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	store := NewFileModelStore(path)
	if err := store.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected stored model")
	}
	if len(loaded.Weights) != len(state.Weights) || loaded.Bias != state.Bias {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", loaded, state)
	}
}

func TestFileModelStoreMissingFile(t *testing.T) {
	store := NewFileModelStore(filepath.Join(t.TempDir(), "absent.json"))
	state, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state for missing file, got %+v", state)
	}
}

func TestStaleModelFallsBackPerCall(t *testing.T) {
	state, _, err := TrainModel(syntheticHistory(20))
	if err != nil {
		t.Fatalf("TrainModel: %v", err)
	}
	state.Weights = state.Weights[:3] // feature set drifted

	strategy := &Trained{state: state}
	p := strategy.Predict(CaseInput{OriginalAmount: 5000, DaysDelinquent: 10})
	if p.Mode != ModeRuleBased {
		t.Fatalf("expected rule-based fallback on stale model, got %s", p.Mode)
	}
}
