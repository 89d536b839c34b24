package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/repository"
	"github.com/spec-kit/recovery-service/internal/scoring"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// trainingHistoryLimit caps how many closed cases one training run loads.
const trainingHistoryLimit = 10000

// insightsBookLimit caps how many cases one insights pass analyzes.
const insightsBookLimit = 10000

// ScoringService wraps the scorer with training over closed-out history
// and batch priority ranking for the work queue.
type ScoringService struct {
	cases  repository.CaseRepository
	scorer *scoring.Scorer
	store  scoring.ModelStore
	logger *zap.Logger
}

// NewScoringService constructs the service.
func NewScoringService(cases repository.CaseRepository, scorer *scoring.Scorer, store scoring.ModelStore, logger *zap.Logger) *ScoringService {
	return &ScoringService{cases: cases, scorer: scorer, store: store, logger: logger}
}

// Score predicts recovery for a single case.
func (s *ScoringService) Score(ctx context.Context, caseID string) (*scoring.Prediction, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	prediction := s.scorer.Predict(scoring.InputFromCase(c))
	return &prediction, nil
}

// Rank computes the full priority breakdown for a single case.
func (s *ScoringService) Rank(ctx context.Context, caseID string) (*scoring.Priority, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	in := scoring.InputFromCase(c)
	priority := scoring.Rank(in, s.scorer.Predict(in).Probability)
	return &priority, nil
}

// RankQueue orders a set of cases worst-first for the work queue.
func (s *ScoringService) RankQueue(ctx context.Context, filter repository.CaseFilter) ([]scoring.RankedCase, error) {
	cases, err := s.cases.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ptrs := make([]*domain.Case, len(cases))
	for i := range cases {
		ptrs[i] = &cases[i]
	}
	return scoring.BatchRank(ptrs, func(c *domain.Case) float64 {
		return s.scorer.Predict(scoring.InputFromCase(c)).Probability
	}), nil
}

// Train fits a fresh model over resolved and closed cases, persists it and
// switches the scorer to it. Training history comes from recovery rate on
// closed cases: amount collected over amount owed.
func (s *ScoringService) Train(ctx context.Context) (*scoring.TrainingReport, error) {
	closed, err := s.cases.ListWithFilter(ctx, repository.CaseFilter{
		Statuses: []domain.CaseStatus{domain.CaseStatusResolved, domain.CaseStatusClosed},
		Limit:    trainingHistoryLimit,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	history := make([]scoring.TrainingCase, 0, len(closed))
	for i := range closed {
		c := &closed[i]
		if c.OriginalAmount <= 0 {
			continue
		}
		recovered := (c.OriginalAmount - c.CurrentAmount) / c.OriginalAmount
		if recovered < 0 {
			recovered = 0
		}
		history = append(history, scoring.TrainingCase{
			Input:        scoring.InputFromCase(c),
			RecoveryRate: recovered,
		})
	}

	state, report, err := scoring.TrainModel(history)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"samples": len(history)})
	}
	if err := s.store.Save(state); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.scorer.Adopt(state)
	s.logger.Info("scoring model retrained",
		zap.Int("samples", report.Samples),
		zap.Float64("train_score", report.TrainScore),
		zap.Float64("test_score", report.TestScore))
	return report, nil
}

// Insights analyzes the current case book for portfolio-level patterns:
// amount spread, aging, score skew and per-agency disparity.
func (s *ScoringService) Insights(ctx context.Context) (*scoring.PortfolioReport, error) {
	cases, err := s.cases.ListWithFilter(ctx, repository.CaseFilter{Limit: insightsBookLimit})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := scoring.AnalyzePortfolio(cases)
	return &report, nil
}

// Mode reports which strategy is live.
func (s *ScoringService) Mode() scoring.Mode {
	return s.scorer.Mode()
}
