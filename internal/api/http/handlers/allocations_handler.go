package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-service/internal/allocation"
	"github.com/spec-kit/recovery-service/internal/api/dto"
	"github.com/spec-kit/recovery-service/internal/service"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// AllocationsHandler serves case-to-agency assignment endpoints.
type AllocationsHandler struct {
	service *service.AllocationService
}

// NewAllocationsHandler constructs handler.
func NewAllocationsHandler(allocationService *service.AllocationService) *AllocationsHandler {
	return &AllocationsHandler{service: allocationService}
}

// Allocate POST /cases/:id/allocate.
func (h *AllocationsHandler) Allocate(c *fiber.Ctx) error {
	var req dto.AllocateRequest
	_ = c.BodyParser(&req)
	result, err := h.service.AllocateCase(c.Context(), c.Params("id"), req.DCAID, req.Force, actorIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(result)})
}

// Recommendations GET /cases/:id/recommendations.
func (h *AllocationsHandler) Recommendations(c *fiber.Ctx) error {
	recs, err := h.service.Recommendations(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.RecommendationResponse, 0, len(recs))
	for _, rec := range recs {
		items = append(items, dto.RecommendationResponse{
			DCAID:          rec.DCA.ID,
			Name:           rec.DCA.Name,
			TotalScore:     rec.Score.Total,
			Capacity:       rec.Score.Capacity,
			Performance:    rec.Score.Performance,
			Specialization: rec.Score.Specialization,
			Workload:       rec.Score.Workload,
			AvailableSlots: rec.AvailableSlots,
			Utilization:    rec.Utilization,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// BulkAllocate POST /allocations/bulk.
func (h *AllocationsHandler) BulkAllocate(c *fiber.Ctx) error {
	var req dto.BulkAllocateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	strategy := allocation.Strategy(strings.ToUpper(req.Strategy))
	switch strategy {
	case "":
		strategy = allocation.StrategyIntelligent
	case allocation.StrategyIntelligent, allocation.StrategyPerformance,
		allocation.StrategyCapacity, allocation.StrategyRoundRobin:
	default:
		return apperrors.NewValidationError("unknown strategy", map[string]any{"strategy": req.Strategy})
	}

	outcome, err := h.service.BulkAllocate(c.Context(), req.CaseIDs, strategy, req.Force, actorIDFromContext(c))
	if err != nil {
		return err
	}

	resp := dto.BulkAllocateResponse{
		Allocated: make([]dto.AssignmentResponse, 0, len(outcome.Allocated)),
		Failed:    make([]dto.FailureResponse, 0, len(outcome.Failed)),
	}
	for _, a := range outcome.Allocated {
		resp.Allocated = append(resp.Allocated, dto.AssignmentResponse{CaseID: a.CaseID, DCAID: a.DCAID})
	}
	for _, f := range outcome.Failed {
		resp.Failed = append(resp.Failed, dto.FailureResponse{CaseID: f.CaseID, Reason: string(f.Reason)})
	}
	return c.JSON(fiber.Map{"data": resp})
}
