package scoring

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Training hyperparameters for the linear recovery model.
const (
	minTrainingCases = 10
	trainSplit       = 0.8
	learningRate     = 0.05
	epochs           = 500
	splitSeed        = 42
)

// ModelState is the fitted state persisted between runs: standardization
// parameters plus the linear weights.
type ModelState struct {
	FeatureNames []string  `json:"feature_names"`
	Means        []float64 `json:"means"`
	Stds         []float64 `json:"stds"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	TrainedAt    time.Time `json:"trained_at"`
}

// infer scales raw feature values and applies the linear model. The second
// return is false when the stored state does not match the feature set.
func (m *ModelState) infer(values []float64) (float64, bool) {
	if len(values) != len(m.Weights) || len(values) != len(m.Means) {
		return 0, false
	}
	out := m.Bias
	for i, v := range values {
		out += m.Weights[i] * standardize(v, m.Means[i], m.Stds[i])
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, false
	}
	return out, true
}

// TrainingCase pairs a historical case with its observed recovery rate.
type TrainingCase struct {
	Input        CaseInput
	RecoveryRate float64
}

// TrainingReport summarizes a completed training run.
type TrainingReport struct {
	Samples           int
	TrainScore        float64
	TestScore         float64
	FeatureImportance []FeatureImportance
}

// FeatureImportance is a feature name with its absolute model weight.
type FeatureImportance struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// TrainModel fits the linear recovery model on resolved historical cases
// using an 80/20 split. At least ten cases are required.
func TrainModel(history []TrainingCase) (*ModelState, *TrainingReport, error) {
	if len(history) < minTrainingCases {
		return nil, nil, fmt.Errorf("training requires at least %d resolved cases, got %d", minTrainingCases, len(history))
	}

	rows := make([][]float64, len(history))
	targets := make([]float64, len(history))
	for i, h := range history {
		rows[i] = ExtractFeatures(h.Input).Values()
		targets[i] = clip(h.RecoveryRate, 0, 1)
	}

	means, stds := fitScaler(rows)
	scaled := make([][]float64, len(rows))
	for i, row := range rows {
		scaled[i] = make([]float64, len(row))
		for j, v := range row {
			scaled[i][j] = standardize(v, means[j], stds[j])
		}
	}

	// Deterministic shuffle so repeated training on the same history yields
	// the same split.
	order := rand.New(rand.NewSource(splitSeed)).Perm(len(scaled))
	cut := int(float64(len(scaled)) * trainSplit)
	if cut < 1 {
		cut = 1
	}
	trainIdx, testIdx := order[:cut], order[cut:]

	weights := make([]float64, len(featureNames))
	bias := 0.0
	n := float64(len(trainIdx))
	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, len(weights))
		gradB := 0.0
		for _, i := range trainIdx {
			pred := bias
			for j, w := range weights {
				pred += w * scaled[i][j]
			}
			diff := pred - targets[i]
			for j := range gradW {
				gradW[j] += diff * scaled[i][j]
			}
			gradB += diff
		}
		for j := range weights {
			weights[j] -= learningRate * gradW[j] / n
		}
		bias -= learningRate * gradB / n
	}

	state := &ModelState{
		FeatureNames: append([]string(nil), featureNames...),
		Means:        means,
		Stds:         stds,
		Weights:      weights,
		Bias:         bias,
		TrainedAt:    time.Now().UTC(),
	}

	report := &TrainingReport{
		Samples:           len(history),
		TrainScore:        rSquared(state, scaled, targets, trainIdx),
		TestScore:         rSquared(state, scaled, targets, testIdx),
		FeatureImportance: importanceFor(state),
	}
	return state, report, nil
}

func fitScaler(rows [][]float64) (means, stds []float64) {
	cols := len(featureNames)
	means = make([]float64, cols)
	stds = make([]float64, cols)
	for _, row := range rows {
		for j, v := range row {
			means[j] += v
		}
	}
	n := float64(len(rows))
	for j := range means {
		means[j] /= n
	}
	for _, row := range rows {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
	}
	return means, stds
}

func standardize(v, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (v - mean) / std
}

// rSquared computes the coefficient of determination over scaled rows. An
// empty index set (tiny histories) scores as the train set would.
func rSquared(m *ModelState, scaled [][]float64, targets []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	mean := 0.0
	for _, i := range idx {
		mean += targets[i]
	}
	mean /= float64(len(idx))

	ssRes, ssTot := 0.0, 0.0
	for _, i := range idx {
		pred := m.Bias
		for j, w := range m.Weights {
			pred += w * scaled[i][j]
		}
		ssRes += (targets[i] - pred) * (targets[i] - pred)
		ssTot += (targets[i] - mean) * (targets[i] - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func importanceFor(m *ModelState) []FeatureImportance {
	out := make([]FeatureImportance, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		out[i] = FeatureImportance{Name: name, Weight: math.Abs(m.Weights[i])}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}
