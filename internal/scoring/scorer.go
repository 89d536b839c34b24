package scoring

import (
	"math"

	"go.uber.org/zap"
)

// Mode names the scoring path that produced a prediction.
type Mode string

const (
	ModeTrained   Mode = "TRAINED"
	ModeRuleBased Mode = "RULE_BASED"
)

// Confidence buckets how extreme a predicted probability is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Prediction is the output of a recovery scoring call.
type Prediction struct {
	Probability       float64
	Score             float64
	Confidence        Confidence
	Mode              Mode
	KeyFactors        []string
	RiskFactors       []string
	RecommendedAction string
}

// ScoringStrategy produces a recovery prediction for a case.
type ScoringStrategy interface {
	Predict(in CaseInput) Prediction
	Mode() Mode
}

// Scorer wraps the strategy selected at startup. The selection is a one-time
// decision made by probing the model store; there is no runtime
// exception-driven switching between paths.
type Scorer struct {
	strategy ScoringStrategy
	logger   *zap.Logger
}

// NewScorer probes the store for a fitted model and selects the strategy.
// A missing model is a normal condition and selects the rule-based path.
func NewScorer(store ModelStore, logger *zap.Logger) (*Scorer, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		logger.Info("no fitted recovery model found, using rule-based scoring")
		return &Scorer{strategy: RuleBased{}, logger: logger}, nil
	}
	logger.Info("loaded fitted recovery model",
		zap.Time("trained_at", state.TrainedAt),
		zap.Int("features", len(state.FeatureNames)))
	return &Scorer{strategy: &Trained{state: state}, logger: logger}, nil
}

// Predict scores a single case with the selected strategy.
func (s *Scorer) Predict(in CaseInput) Prediction {
	return s.strategy.Predict(in)
}

// Mode reports the selected scoring path.
func (s *Scorer) Mode() Mode {
	return s.strategy.Mode()
}

// Adopt swaps in a freshly trained model. Called after a successful Train.
func (s *Scorer) Adopt(state *ModelState) {
	if state == nil {
		return
	}
	s.strategy = &Trained{state: state}
}

// RuleBased is the deterministic fallback strategy. Its score is a pure
// function of (amount, daysDelinquent) and is always in [0,100].
type RuleBased struct{}

// Mode implements ScoringStrategy.
func (RuleBased) Mode() Mode { return ModeRuleBased }

// Predict implements ScoringStrategy.
func (RuleBased) Predict(in CaseInput) Prediction {
	score := RuleBasedScore(in.OriginalAmount, in.DaysDelinquent)
	prob := score / 100
	return Prediction{
		Probability:       prob,
		Score:             score,
		Confidence:        ConfidenceMedium,
		Mode:              ModeRuleBased,
		KeyFactors:        []string{"Amount", "Days Delinquent"},
		RiskFactors:       []string{"Using rule-based fallback"},
		RecommendedAction: recommendedAction(prob),
	}
}

// RuleBasedScore applies the penalty ladder: base 70, delinquency penalties
// (-40 over 180d, -25 over 90d, -15 over 60d, -5 over 30d) and amount
// penalties (-30 over 50000, -20 over 25000, -10 over 10000), clamped to
// [0,100].
func RuleBasedScore(amount float64, daysDelinquent int) float64 {
	score := 70.0

	switch {
	case daysDelinquent > 180:
		score -= 40
	case daysDelinquent > 90:
		score -= 25
	case daysDelinquent > 60:
		score -= 15
	case daysDelinquent > 30:
		score -= 5
	}

	switch {
	case amount > 50000:
		score -= 30
	case amount > 25000:
		score -= 20
	case amount > 10000:
		score -= 10
	}

	return clip(score, 0, 100)
}

// Trained scores through the fitted linear model. Any inference defect
// (stale feature set, non-finite output) silently degrades to the
// rule-based result for that call.
type Trained struct {
	state *ModelState
}

// Mode implements ScoringStrategy.
func (t *Trained) Mode() Mode { return ModeTrained }

// Predict implements ScoringStrategy.
func (t *Trained) Predict(in CaseInput) Prediction {
	features := ExtractFeatures(in)
	prob, ok := t.state.infer(features.Values())
	if !ok {
		return RuleBased{}.Predict(in)
	}
	prob = clip(prob, 0, 1)
	key, risk := explainFeatures(features)
	return Prediction{
		Probability:       prob,
		Score:             math.Round(prob*1000) / 10,
		Confidence:        confidenceFor(prob),
		Mode:              ModeTrained,
		KeyFactors:        key,
		RiskFactors:       risk,
		RecommendedAction: recommendedAction(prob),
	}
}

func confidenceFor(prob float64) Confidence {
	switch {
	case prob > 0.8 || prob < 0.2:
		return ConfidenceHigh
	case prob > 0.6 || prob < 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func recommendedAction(prob float64) string {
	switch {
	case prob > 0.7:
		return "Aggressive collection - high recovery potential"
	case prob > 0.4:
		return "Standard collection process"
	default:
		return "Consider settlement or write-off"
	}
}

// explainFeatures derives up to three key and three risk factors from
// feature thresholds.
func explainFeatures(f FeatureVector) (key []string, risk []string) {
	if f.DelinquencySeverity > 0.7 {
		risk = append(risk, "Highly delinquent account")
	} else if f.DelinquencySeverity < 0.3 {
		key = append(key, "Recently delinquent")
	}
	if f.AmountLog > math.Log1p(20000) {
		risk = append(risk, "High debt amount")
	}
	if f.CreditScoreNorm > 0.7 {
		key = append(key, "Good credit history")
	} else if f.CreditScoreNorm < 0.5 {
		risk = append(risk, "Poor credit history")
	}
	if f.EmploymentStability > 0.7 {
		key = append(key, "Stable employment")
	}
	if len(key) > 3 {
		key = key[:3]
	}
	if len(risk) > 3 {
		risk = risk[:3]
	}
	return key, risk
}
