package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/repository"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// DCAService manages collection agency records and their workload view.
type DCAService struct {
	dcas  repository.DCARepository
	cases repository.CaseRepository
}

// NewDCAService constructs the service.
func NewDCAService(dcas repository.DCARepository, cases repository.CaseRepository) *DCAService {
	return &DCAService{dcas: dcas, cases: cases}
}

// DCAInput describes an agency registration or update. ID is honored on
// registration; a generated one is substituted when the caller omits it.
type DCAInput struct {
	ID                 string
	Name               string
	Code               string
	ContactPerson      string
	Email              string
	PerformanceScore   float64
	RecoveryRate       float64
	MaxConcurrentCases int
	IsActive           bool
	IsAcceptingCases   bool
	Specializations    []string
}

// Workload is the live utilization view of one agency.
type Workload struct {
	DCA            *domain.DCA
	ActiveCases    int
	AvailableSlots int
	Utilization    float64
	AvgCaseAgeDays float64
}

// Register creates a new agency.
func (s *DCAService) Register(ctx context.Context, input DCAInput) (*domain.DCA, error) {
	if input.Name == "" || input.Code == "" {
		return nil, apperrors.NewValidationError("name and code are required", nil)
	}
	if input.MaxConcurrentCases <= 0 {
		return nil, apperrors.NewValidationError("max_concurrent_cases must be positive", nil)
	}
	if input.PerformanceScore < 0 || input.PerformanceScore > 1 {
		return nil, apperrors.NewValidationError("performance_score must be within [0,1]", nil)
	}

	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}

	dca := &domain.DCA{
		ID:                 id,
		Name:               input.Name,
		Code:               input.Code,
		ContactPerson:      input.ContactPerson,
		Email:              input.Email,
		PerformanceScore:   input.PerformanceScore,
		RecoveryRate:       input.RecoveryRate,
		MaxConcurrentCases: input.MaxConcurrentCases,
		IsActive:           input.IsActive,
		IsAcceptingCases:   input.IsAcceptingCases,
		Specializations:    input.Specializations,
	}
	if err := s.dcas.Create(ctx, dca); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dca, nil
}

// Update replaces the mutable fields of an agency.
func (s *DCAService) Update(ctx context.Context, id string, input DCAInput) (*domain.DCA, error) {
	dca, err := s.dcas.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("dca", map[string]any{"dca_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if input.MaxConcurrentCases <= 0 {
		return nil, apperrors.NewValidationError("max_concurrent_cases must be positive", nil)
	}

	dca.Name = input.Name
	dca.Code = input.Code
	dca.ContactPerson = input.ContactPerson
	dca.Email = input.Email
	dca.PerformanceScore = input.PerformanceScore
	dca.RecoveryRate = input.RecoveryRate
	dca.MaxConcurrentCases = input.MaxConcurrentCases
	dca.IsActive = input.IsActive
	dca.IsAcceptingCases = input.IsAcceptingCases
	dca.Specializations = input.Specializations

	if err := s.dcas.Update(ctx, dca); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dca, nil
}

// Get fetches one agency.
func (s *DCAService) Get(ctx context.Context, id string) (*domain.DCA, error) {
	dca, err := s.dcas.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("dca", map[string]any{"dca_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return dca, nil
}

// ListWorkloads returns every agency with its current utilization.
func (s *DCAService) ListWorkloads(ctx context.Context) ([]Workload, error) {
	dcas, err := s.dcas.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := make([]Workload, 0, len(dcas))
	for i := range dcas {
		dca := &dcas[i]
		active, err := s.cases.CountActiveForDCA(ctx, dca.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		avgAge, err := s.cases.AvgActiveCaseAgeDays(ctx, dca.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		utilization := 0.0
		if dca.MaxConcurrentCases > 0 {
			utilization = float64(active) / float64(dca.MaxConcurrentCases)
		}
		slots := dca.MaxConcurrentCases - active
		if slots < 0 {
			slots = 0
		}
		out = append(out, Workload{
			DCA:            dca,
			ActiveCases:    active,
			AvailableSlots: slots,
			Utilization:    utilization,
			AvgCaseAgeDays: avgAge,
		})
	}
	return out, nil
}
