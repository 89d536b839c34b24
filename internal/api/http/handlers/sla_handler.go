package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-service/internal/api/dto"
	"github.com/spec-kit/recovery-service/internal/monitor"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// SLAHandler serves compliance endpoints.
type SLAHandler struct {
	monitor *monitor.SLAMonitor
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaMonitor *monitor.SLAMonitor) *SLAHandler {
	return &SLAHandler{monitor: slaMonitor}
}

// CaseStatus GET /sla/cases/:id.
func (h *SLAHandler) CaseStatus(c *fiber.Ctx) error {
	caseID := c.Params("id")
	status, breaches, err := h.monitor.StatusFor(c.Context(), caseID)
	if err != nil {
		return apperrors.MapError(err)
	}
	resp := dto.SLAStatusResponse{
		CaseID:   caseID,
		Status:   status,
		Breaches: make([]dto.BreachResponse, 0, len(breaches)),
	}
	for _, b := range breaches {
		resp.Breaches = append(resp.Breaches, breachResponse(b))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Report GET /sla/report. Generates the compliance rollup on demand.
func (h *SLAHandler) Report(c *fiber.Ctx) error {
	report, err := h.monitor.DailyReport(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.ComplianceReportResponse{
		ReportDate:     report.ReportDate,
		CasesCreated:   report.CasesCreated,
		CasesResolved:  report.CasesResolved,
		NewBreaches:    report.NewBreaches,
		OpenBreaches:   report.OpenBreaches,
		Breached:       report.Breached,
		Warning:        report.Warning,
		Compliant:      report.Compliant,
		ComplianceRate: report.ComplianceRate,
	}})
}
