package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-service/internal/api/dto"
	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/service"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// DCAsHandler manages collection agency endpoints.
type DCAsHandler struct {
	service *service.DCAService
}

// NewDCAsHandler constructs handler.
func NewDCAsHandler(dcaService *service.DCAService) *DCAsHandler {
	return &DCAsHandler{service: dcaService}
}

// Register POST /dcas.
func (h *DCAsHandler) Register(c *fiber.Ctx) error {
	var req dto.DCARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dca, err := h.service.Register(c.Context(), dcaInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dcaResponse(dca)})
}

// Update PUT /dcas/:id.
func (h *DCAsHandler) Update(c *fiber.Ctx) error {
	var req dto.DCARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dca, err := h.service.Update(c.Context(), c.Params("id"), dcaInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dcaResponse(dca)})
}

// Get GET /dcas/:id.
func (h *DCAsHandler) Get(c *fiber.Ctx) error {
	dca, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dcaResponse(dca)})
}

// ListWorkloads GET /dcas.
func (h *DCAsHandler) ListWorkloads(c *fiber.Ctx) error {
	workloads, err := h.service.ListWorkloads(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.WorkloadResponse, 0, len(workloads))
	for _, w := range workloads {
		items = append(items, dto.WorkloadResponse{
			DCAResponse:    dcaResponse(w.DCA),
			ActiveCases:    w.ActiveCases,
			AvailableSlots: w.AvailableSlots,
			Utilization:    w.Utilization,
			AvgCaseAgeDays: w.AvgCaseAgeDays,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func dcaInput(req dto.DCARequest) service.DCAInput {
	return service.DCAInput{
		ID:                 req.ID,
		Name:               req.Name,
		Code:               req.Code,
		ContactPerson:      req.ContactPerson,
		Email:              req.Email,
		PerformanceScore:   req.PerformanceScore,
		RecoveryRate:       req.RecoveryRate,
		MaxConcurrentCases: req.MaxConcurrentCases,
		IsActive:           req.IsActive,
		IsAcceptingCases:   req.IsAcceptingCases,
		Specializations:    req.Specializations,
	}
}

func dcaResponse(dca *domain.DCA) dto.DCAResponse {
	return dto.DCAResponse{
		ID:                 dca.ID,
		Name:               dca.Name,
		Code:               dca.Code,
		ContactPerson:      dca.ContactPerson,
		Email:              dca.Email,
		PerformanceScore:   dca.PerformanceScore,
		RecoveryRate:       dca.RecoveryRate,
		MaxConcurrentCases: dca.MaxConcurrentCases,
		IsActive:           dca.IsActive,
		IsAcceptingCases:   dca.IsAcceptingCases,
		Specializations:    dca.Specializations,
		CreatedAt:          dca.CreatedAt,
		UpdatedAt:          dca.UpdatedAt,
	}
}
