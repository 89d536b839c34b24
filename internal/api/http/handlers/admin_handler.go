package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-service/internal/api/dto"
	"github.com/spec-kit/recovery-service/internal/service"
	"github.com/spec-kit/recovery-service/internal/worker"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// AdminHandler exposes operational endpoints: manual job triggers and
// model training.
type AdminHandler struct {
	scheduler *worker.Scheduler
	scoring   *service.ScoringService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(scheduler *worker.Scheduler, scoringService *service.ScoringService) *AdminHandler {
	return &AdminHandler{scheduler: scheduler, scoring: scoringService}
}

// ListJobs GET /admin/jobs.
func (h *AdminHandler) ListJobs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.scheduler.JobNames()})
}

// TriggerJob POST /admin/jobs/:name/run.
func (h *AdminHandler) TriggerJob(c *fiber.Ctx) error {
	name := c.Params("name")
	found, err := h.scheduler.Trigger(c.Context(), name)
	if !found {
		return apperrors.NewNotFound("job", map[string]any{"job": name})
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"job": name, "triggered": true}})
}

// TrainModel POST /admin/scoring/train.
func (h *AdminHandler) TrainModel(c *fiber.Ctx) error {
	report, err := h.scoring.Train(c.Context())
	if err != nil {
		return err
	}
	resp := dto.TrainingReportResponse{
		Samples:    report.Samples,
		TrainScore: report.TrainScore,
		TestScore:  report.TestScore,
		Mode:       string(h.scoring.Mode()),
	}
	for _, fi := range report.FeatureImportance {
		resp.FeatureImportance = append(resp.FeatureImportance, dto.FeatureWeight{
			Feature: fi.Name,
			Weight:  fi.Weight,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// PortfolioInsights GET /admin/insights.
func (h *AdminHandler) PortfolioInsights(c *fiber.Ctx) error {
	report, err := h.scoring.Insights(c.Context())
	if err != nil {
		return err
	}
	resp := dto.PortfolioInsightsResponse{
		CasesAnalyzed:    report.CasesAnalyzed,
		PatternsDetected: report.PatternsDetected,
		Patterns:         []dto.PortfolioPatternResponse{},
		Insights:         []dto.PortfolioInsightResponse{},
		Summary:          report.Summary,
	}
	for _, p := range report.Patterns {
		resp.Patterns = append(resp.Patterns, dto.PortfolioPatternResponse{
			Type:        p.Type,
			Description: p.Description,
			Severity:    string(p.Severity),
			Action:      p.Action,
		})
	}
	for _, in := range report.Insights {
		resp.Insights = append(resp.Insights, dto.PortfolioInsightResponse{
			Type:           in.Type,
			Description:    in.Description,
			Impact:         in.Impact,
			Recommendation: in.Recommendation,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ScoringMode GET /admin/scoring/mode.
func (h *AdminHandler) ScoringMode(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"mode": string(h.scoring.Mode())}})
}
