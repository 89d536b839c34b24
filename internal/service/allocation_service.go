package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/allocation"
	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/events"
	"github.com/spec-kit/recovery-service/internal/repository"
	"github.com/spec-kit/recovery-service/internal/scoring"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// AllocationService builds candidate snapshots from storage, runs the
// scoring-based selection and persists the resulting assignments. Capacity
// checks are re-run under a per-DCA lock so two concurrent allocations
// cannot both take the last slot.
type AllocationService struct {
	cases      repository.CaseRepository
	dcas       repository.DCARepository
	audit      repository.AuditRepository
	locker     allocation.Locker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AllocationDependencies bundles collaborators.
type AllocationDependencies struct {
	CaseRepo   repository.CaseRepository
	DCARepo    repository.DCARepository
	AuditRepo  repository.AuditRepository
	Locker     allocation.Locker
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewAllocationService constructs the service.
func NewAllocationService(deps AllocationDependencies) *AllocationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	locker := deps.Locker
	if locker == nil {
		locker = allocation.NoopLocker{}
	}
	return &AllocationService{
		cases:      deps.CaseRepo,
		dcas:       deps.DCARepo,
		audit:      deps.AuditRepo,
		locker:     locker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// buildCandidates snapshots every available DCA with its current workload.
func (s *AllocationService) buildCandidates(ctx context.Context) ([]allocation.Candidate, error) {
	dcas, err := s.dcas.ListAvailable(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	candidates := make([]allocation.Candidate, 0, len(dcas))
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
		candidates = append(candidates, allocation.Candidate{
			DCA:            dca,
			ActiveCases:    active,
			AvgCaseAgeDays: avgAge,
		})
	}
	return candidates, nil
}

// PlaceNewCase attempts allocation for a not-yet-persisted case and inserts
// it with the outcome applied: ALLOCATED with a DCA when one accepts, NEW
// otherwise. Failure to allocate is not an error.
func (s *AllocationService) PlaceNewCase(ctx context.Context, c *domain.Case, actorID *string) error {
	candidates, err := s.buildCandidates(ctx)
	if err != nil {
		return err
	}

	recs := allocation.Recommend(scoring.InputFromCase(c), candidates)
	for _, rec := range recs {
		placed := false
		err := s.locker.WithLock(ctx, rec.DCA.ID, func() error {
			active, err := s.cases.CountActiveForDCA(ctx, rec.DCA.ID)
			if err != nil {
				return err
			}
			if active >= rec.DCA.MaxConcurrentCases {
				return nil
			}
			c.DCAID = &rec.DCA.ID
			c.Status = domain.CaseStatusAllocated
			if err := s.cases.Create(ctx, c); err != nil {
				c.DCAID = nil
				c.Status = domain.CaseStatusNew
				return err
			}
			placed = true
			return nil
		})
		if err != nil {
			return apperrors.MapError(err)
		}
		if placed {
			s.noteAllocation(ctx, c, rec.DCA.ID, rec.Score.Total, actorID)
			return nil
		}
	}

	// nobody had room, or there were no candidates at all
	c.Status = domain.CaseStatusNew
	c.DCAID = nil
	if err := s.cases.Create(ctx, c); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// AllocateCase assigns an existing unassigned case. With dcaID empty the
// scorer picks; with dcaID set the assignment is forced to that agency,
// subject to its capacity unless force is true.
func (s *AllocationService) AllocateCase(ctx context.Context, caseID, dcaID string, force bool, actorID *string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if c.DCAID != nil {
		return nil, apperrors.NewConflict("case already allocated", map[string]any{
			"case_id": caseID,
			"dca_id":  *c.DCAID,
		})
	}
	if !IsValidTransition(c.Status, domain.CaseStatusAllocated) {
		return nil, apperrors.NewConflict("case status does not permit allocation", map[string]any{
			"case_id": caseID,
			"status":  c.Status,
		})
	}

	if dcaID != "" {
		return s.allocateTo(ctx, c, dcaID, force, actorID)
	}

	candidates, err := s.buildCandidates(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range allocation.Recommend(scoring.InputFromCase(c), candidates) {
		placed, err := s.tryAssign(ctx, c, rec.DCA.ID, rec.DCA.MaxConcurrentCases, false, rec.Score.Total, actorID)
		if err != nil {
			return nil, err
		}
		if placed {
			return c, nil
		}
	}
	return nil, apperrors.NewConflict("no agency can accept the case", map[string]any{"case_id": caseID})
}

// allocateTo forces a specific agency.
func (s *AllocationService) allocateTo(ctx context.Context, c *domain.Case, dcaID string, force bool, actorID *string) (*domain.Case, error) {
	dca, err := s.dcas.GetByID(ctx, dcaID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("dca", map[string]any{"dca_id": dcaID})
		}
		return nil, apperrors.MapError(err)
	}
	if !dca.IsActive {
		return nil, apperrors.NewConflict("agency is inactive", map[string]any{"dca_id": dcaID})
	}
	placed, err := s.tryAssign(ctx, c, dca.ID, dca.MaxConcurrentCases, force, 0, actorID)
	if err != nil {
		return nil, err
	}
	if !placed {
		return nil, apperrors.NewConflict("agency is at capacity", map[string]any{"dca_id": dcaID})
	}
	return c, nil
}

// tryAssign performs the locked capacity re-check and persists the
// assignment when it still holds.
func (s *AllocationService) tryAssign(ctx context.Context, c *domain.Case, dcaID string, maxCases int, force bool, score float64, actorID *string) (bool, error) {
	placed := false
	err := s.locker.WithLock(ctx, dcaID, func() error {
		if !force {
			active, err := s.cases.CountActiveForDCA(ctx, dcaID)
			if err != nil {
				return err
			}
			if active >= maxCases {
				return nil
			}
		}
		c.DCAID = &dcaID
		c.Status = domain.CaseStatusAllocated
		if err := s.cases.Update(ctx, c); err != nil {
			return err
		}
		placed = true
		return nil
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if placed {
		s.noteAllocation(ctx, c, dcaID, score, actorID)
	}
	return placed, nil
}

// BulkOutcome is the persisted result of one bulk allocation run.
type BulkOutcome struct {
	Allocated []allocation.Assignment
	Failed    []allocation.Failure
}

// BulkAllocate places a batch of cases in one pass using the requested
// strategy, then persists the assignments. A DCA whose capacity moved
// between planning and persistence fails its cases with NO_CAPACITY
// rather than overcommitting.
func (s *AllocationService) BulkAllocate(ctx context.Context, caseIDs []string, strategy allocation.Strategy, force bool, actorID *string) (*BulkOutcome, error) {
	if len(caseIDs) == 0 {
		return nil, apperrors.NewValidationError("case_ids must not be empty", nil)
	}

	loaded, err := s.cases.ListByIDs(ctx, caseIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byID := make(map[string]*domain.Case, len(loaded))
	for i := range loaded {
		byID[loaded[i].ID] = &loaded[i]
	}

	outcome := &BulkOutcome{}
	eligible := make([]*domain.Case, 0, len(caseIDs))
	for _, id := range caseIDs {
		c, ok := byID[id]
		if !ok {
			outcome.Failed = append(outcome.Failed, allocation.Failure{CaseID: id, Reason: allocation.ReasonNoSuitableDCA})
			continue
		}
		if c.DCAID != nil || !IsValidTransition(c.Status, domain.CaseStatusAllocated) {
			outcome.Failed = append(outcome.Failed, allocation.Failure{CaseID: id, Reason: allocation.ReasonNoSuitableDCA})
			continue
		}
		eligible = append(eligible, c)
	}

	candidates, err := s.buildCandidates(ctx)
	if err != nil {
		return nil, err
	}

	plan := allocation.Allocate(allocation.BulkRequest{
		Cases:      eligible,
		Candidates: candidates,
		Strategy:   strategy,
		Force:      force,
	})
	outcome.Failed = append(outcome.Failed, plan.Failed...)

	maxByDCA := make(map[string]int, len(candidates))
	for _, cand := range candidates {
		maxByDCA[cand.DCA.ID] = cand.DCA.MaxConcurrentCases
	}

	for _, assignment := range plan.Allocated {
		c := byID[assignment.CaseID]
		placed, err := s.tryAssign(ctx, c, assignment.DCAID, maxByDCA[assignment.DCAID], force, 0, actorID)
		if err != nil {
			s.logger.Warn("bulk allocation persist failed",
				zap.String("case_id", assignment.CaseID),
				zap.String("dca_id", assignment.DCAID),
				zap.Error(err))
			outcome.Failed = append(outcome.Failed, allocation.Failure{CaseID: assignment.CaseID, Reason: allocation.ReasonNoCapacity})
			continue
		}
		if !placed {
			outcome.Failed = append(outcome.Failed, allocation.Failure{CaseID: assignment.CaseID, Reason: allocation.ReasonNoCapacity})
			continue
		}
		outcome.Allocated = append(outcome.Allocated, assignment)
	}
	return outcome, nil
}

// Recommendations returns the full scored ranking of available agencies
// for a case without assigning anything.
func (s *AllocationService) Recommendations(ctx context.Context, caseID string) ([]allocation.Recommendation, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	candidates, err := s.buildCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return allocation.Recommend(scoring.InputFromCase(c), candidates), nil
}

func (s *AllocationService) noteAllocation(ctx context.Context, c *domain.Case, dcaID string, score float64, actorID *string) {
	if s.audit != nil {
		err := s.audit.Create(ctx, &domain.AuditLog{
			ID:         uuid.NewString(),
			EntityType: domain.AuditEntityCase,
			EntityID:   c.ID,
			Action:     domain.AuditActionAllocate,
			NewValues:  map[string]any{"dca_id": dcaID, "allocation_score": score},
			ActorID:    actorID,
		})
		if err != nil {
			s.logger.Warn("allocation audit failed", zap.String("case_id", c.ID), zap.Error(err))
		}
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCaseAllocated,
			CaseID:    c.ID,
			Actor:     actorFor(actorID),
			Timestamp: s.now(),
			Payload: events.CaseAllocatedPayload{
				DCAID:    dcaID,
				Priority: c.Priority,
				Amount:   c.CurrentAmount,
			},
		})
	}
}
