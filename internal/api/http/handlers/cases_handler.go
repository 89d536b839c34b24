package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-service/internal/api/dto"
	"github.com/spec-kit/recovery-service/internal/auth"
	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/monitor"
	"github.com/spec-kit/recovery-service/internal/repository"
	"github.com/spec-kit/recovery-service/internal/scoring"
	"github.com/spec-kit/recovery-service/internal/service"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// CasesHandler serves case intake, lifecycle and scoring endpoints.
type CasesHandler struct {
	workflow *service.WorkflowService
	scoring  *service.ScoringService
	monitor  *monitor.SLAMonitor
	cases    repository.CaseRepository
	audit    repository.AuditRepository
}

// NewCasesHandler constructs handler.
func NewCasesHandler(workflow *service.WorkflowService, scoringService *service.ScoringService, slaMonitor *monitor.SLAMonitor, cases repository.CaseRepository, audit repository.AuditRepository) *CasesHandler {
	return &CasesHandler{
		workflow: workflow,
		scoring:  scoringService,
		monitor:  slaMonitor,
		cases:    cases,
		audit:    audit,
	}
}

// CreateCase POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.workflow.ProcessNewCase(c.Context(), service.IntakeInput{
		ID:               req.ID,
		AccountID:        req.AccountID,
		DebtorName:       req.DebtorName,
		DebtorEmail:      req.DebtorEmail,
		DebtorPhone:      req.DebtorPhone,
		OriginalAmount:   req.OriginalAmount,
		CurrentAmount:    req.CurrentAmount,
		DaysDelinquent:   req.DaysDelinquent,
		DebtType:         req.DebtType,
		CreditScore:      req.CreditScore,
		EmploymentMonths: req.EmploymentMonths,
	}, actorIDFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": caseSummary(result)})
}

// ListCases GET /cases.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	filter := parseCaseQuery(c)
	cases, err := h.cases.ListWithFilter(c.Context(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.CaseSummary, 0, len(cases))
	for i := range cases {
		items = append(items, caseSummary(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCase GET /cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	caseID := c.Params("id")
	status, breaches, err := h.monitor.StatusFor(c.Context(), caseID)
	if err != nil {
		return apperrors.MapError(err)
	}
	stored, err := h.cases.GetByID(c.Context(), caseID)
	if err != nil {
		return apperrors.MapError(err)
	}
	history, err := h.audit.ListByEntity(c.Context(), domain.AuditEntityCase, caseID, 50, 0)
	if err != nil {
		return apperrors.MapError(err)
	}

	detail := dto.CaseDetailResponse{
		CaseSummary:           caseSummary(stored),
		DebtorEmail:           stored.DebtorEmail,
		DebtorPhone:           stored.DebtorPhone,
		Notes:                 stored.Notes,
		SLAContactDeadline:    stored.SLAContactDeadline,
		SLAResolutionDeadline: stored.SLAResolutionDeadline,
		FirstContactDate:      stored.FirstContactDate,
		ResolvedDate:          stored.ResolvedDate,
		SLAStatus:             &status,
	}
	for _, b := range breaches {
		detail.Breaches = append(detail.Breaches, breachResponse(b))
	}
	for _, entry := range history {
		detail.History = append(detail.History, dto.AuditResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			OldValues: entry.OldValues,
			NewValues: entry.NewValues,
			ActorID:   entry.ActorID,
			Timestamp: entry.Timestamp,
		})
	}
	return c.JSON(fiber.Map{"data": detail})
}

// UpdateCase PUT /cases/:id. Agent edits to amount and notes.
func (h *CasesHandler) UpdateCase(c *fiber.Ctx) error {
	var req dto.UpdateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.workflow.UpdateCaseDetails(c.Context(), c.Params("id"), service.CaseUpdateInput{
		CurrentAmount: req.CurrentAmount,
		Notes:         req.Notes,
	}, actorIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(result)})
}

// UpdateStatus PATCH /cases/:id/status.
func (h *CasesHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	result, err := h.workflow.UpdateStatus(c.Context(), c.Params("id"), req.Status, actorIDFromContext(c), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(result)})
}

// RecordContact POST /cases/:id/contact.
func (h *CasesHandler) RecordContact(c *fiber.Ctx) error {
	result, err := h.workflow.RecordFirstContact(c.Context(), c.Params("id"), actorIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(result)})
}

// ResolveCase POST /cases/:id/resolve.
func (h *CasesHandler) ResolveCase(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	_ = c.BodyParser(&req)
	result, err := h.workflow.ResolveCase(c.Context(), c.Params("id"), actorIDFromContext(c), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(result)})
}

// Score GET /cases/:id/score.
func (h *CasesHandler) Score(c *fiber.Ctx) error {
	prediction, err := h.scoring.Score(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scoreResponse(prediction)})
}

// Priority GET /cases/:id/priority.
func (h *CasesHandler) Priority(c *fiber.Ctx) error {
	priority, err := h.scoring.Rank(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": priorityResponse(*priority)})
}

// WorkQueue GET /cases/queue. Active cases ranked worst-first.
func (h *CasesHandler) WorkQueue(c *fiber.Ctx) error {
	filter := parseCaseQuery(c)
	if len(filter.Statuses) == 0 {
		filter.Statuses = []domain.CaseStatus{
			domain.CaseStatusNew,
			domain.CaseStatusAllocated,
			domain.CaseStatusInProgress,
			domain.CaseStatusEscalated,
		}
	}
	ranked, err := h.scoring.RankQueue(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RankedCaseResponse, 0, len(ranked))
	for _, entry := range ranked {
		items = append(items, dto.RankedCaseResponse{
			Case:     caseSummary(entry.Case),
			Priority: priorityResponse(entry.Priority),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseCaseQuery(c *fiber.Ctx) repository.CaseFilter {
	filter := repository.CaseFilter{}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.CaseStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			filter.Priorities = append(filter.Priorities, domain.CasePriority(strings.ToUpper(strings.TrimSpace(p))))
		}
	}
	if raw := c.Query("dca_id"); raw != "" {
		filter.DCAID = &raw
	}
	if raw := c.Query("debt_type"); raw != "" {
		debtType := domain.DebtType(strings.ToUpper(raw))
		filter.DebtType = &debtType
	}
	if raw := c.Query("min_amount"); raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinAmount = &amount
		}
	}
	filter.Limit = c.QueryInt("limit", 100)
	filter.Offset = c.QueryInt("offset", 0)
	return filter
}

func actorIDFromContext(c *fiber.Ctx) *string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil
	}
	return &principal.User.ID
}

func caseSummary(c *domain.Case) dto.CaseSummary {
	return dto.CaseSummary{
		ID:             c.ID,
		AccountID:      c.AccountID,
		DebtorName:     c.DebtorName,
		OriginalAmount: c.OriginalAmount,
		CurrentAmount:  c.CurrentAmount,
		DaysDelinquent: c.DaysDelinquent,
		DebtType:       c.DebtType,
		Status:         c.Status,
		Priority:       c.Priority,
		RecoveryScore:  c.RecoveryScore,
		RecoveryBand:   c.RecoveryBand,
		DCAID:          c.DCAID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func breachResponse(b domain.SLABreach) dto.BreachResponse {
	return dto.BreachResponse{
		ID:           b.ID,
		BreachType:   b.BreachType,
		Deadline:     b.Deadline,
		DetectedAt:   b.DetectedAt,
		HoursOverdue: b.HoursOverdue,
		ResolvedAt:   b.ResolvedAt,
	}
}

func scoreResponse(p *scoring.Prediction) dto.ScoreResponse {
	return dto.ScoreResponse{
		Probability:       p.Probability,
		Score:             p.Score,
		Confidence:        string(p.Confidence),
		Mode:              string(p.Mode),
		KeyFactors:        p.KeyFactors,
		RiskFactors:       p.RiskFactors,
		RecommendedAction: p.RecommendedAction,
	}
}

func priorityResponse(p scoring.Priority) dto.PriorityResponse {
	return dto.PriorityResponse{
		Score:             p.Score,
		Tier:              p.Tier,
		ContactSLADays:    p.ContactSLADays,
		ResolutionSLADays: p.ResolutionSLADays,
		ValueScore:        p.ValueScore,
		UrgencyScore:      p.UrgencyScore,
		RecoveryScore:     p.RecoveryScore,
		StrategicScore:    p.StrategicScore,
		ExpectedRecovery:  p.ExpectedRecovery,
		ROIScore:          p.ROIScore,
		Explanation:       p.Explanation,
	}
}
