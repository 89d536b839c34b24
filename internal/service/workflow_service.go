package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/events"
	"github.com/spec-kit/recovery-service/internal/repository"
	"github.com/spec-kit/recovery-service/internal/scoring"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

// allowedTransitions is the case state machine. CLOSED is terminal. Any
// transition not listed is rejected and the case left unchanged.
var allowedTransitions = map[domain.CaseStatus][]domain.CaseStatus{
	domain.CaseStatusNew:        {domain.CaseStatusAllocated, domain.CaseStatusInProgress, domain.CaseStatusClosed},
	domain.CaseStatusAllocated:  {domain.CaseStatusInProgress, domain.CaseStatusReturned, domain.CaseStatusClosed},
	domain.CaseStatusInProgress: {domain.CaseStatusResolved, domain.CaseStatusEscalated, domain.CaseStatusClosed},
	domain.CaseStatusEscalated:  {domain.CaseStatusInProgress, domain.CaseStatusResolved, domain.CaseStatusClosed},
	domain.CaseStatusResolved:   {domain.CaseStatusClosed, domain.CaseStatusInProgress},
	domain.CaseStatusReturned:   {domain.CaseStatusNew, domain.CaseStatusAllocated},
	domain.CaseStatusClosed:     {},
}

// IsValidTransition reports whether current may move to next.
func IsValidTransition(current, next domain.CaseStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// WorkflowService orchestrates case intake and status transitions.
type WorkflowService struct {
	cases      repository.CaseRepository
	audit      repository.AuditRepository
	allocator  *AllocationService
	scorer     *scoring.Scorer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// WorkflowDependencies bundles collaborators.
type WorkflowDependencies struct {
	CaseRepo   repository.CaseRepository
	AuditRepo  repository.AuditRepository
	Allocator  *AllocationService
	Scorer     *scoring.Scorer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &WorkflowService{
		cases:      deps.CaseRepo,
		audit:      deps.AuditRepo,
		allocator:  deps.Allocator,
		scorer:     deps.Scorer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// IntakeInput describes a new case. Identifiers are caller-supplied.
type IntakeInput struct {
	ID               string
	AccountID        string
	DebtorName       string
	DebtorEmail      *string
	DebtorPhone      *string
	OriginalAmount   float64
	CurrentAmount    float64
	DaysDelinquent   int
	DebtType         domain.DebtType
	CreditScore      *float64
	EmploymentMonths *float64
}

// IntakePriority is the coarse intake-time triage rule. It is deliberately
// simpler than scoring.Rank: it runs before any recovery probability
// exists.
func IntakePriority(amount float64, daysDelinquent int) domain.CasePriority {
	if amount >= 50000 || daysDelinquent >= 90 {
		return domain.CasePriorityHigh
	}
	if amount >= 10000 || daysDelinquent >= 30 {
		return domain.CasePriorityMedium
	}
	return domain.CasePriorityLow
}

// InitialRecoveryScore is the coarse intake score used only until the full
// scoring pass completes and overwrites it. Base 50, adjusted by amount and
// delinquency bands, clamped to [0,100].
func InitialRecoveryScore(amount float64, daysDelinquent int) float64 {
	score := 50.0

	switch {
	case amount >= 50000:
		score += 20
	case amount >= 10000:
		score += 10
	case amount < 1000:
		score -= 15
	}

	switch {
	case daysDelinquent <= 30:
		score += 25
	case daysDelinquent <= 90:
		score += 10
	case daysDelinquent >= 365:
		score -= 30
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ProcessNewCase runs intake: coarse priority, SLA deadlines, allocation
// attempt, initial status and recovery score, then kicks off the
// asynchronous full scoring pass.
func (s *WorkflowService) ProcessNewCase(ctx context.Context, input IntakeInput, actorID *string) (*domain.Case, error) {
	if input.ID == "" || input.AccountID == "" || input.DebtorName == "" {
		return nil, apperrors.NewValidationError("id, account_id and debtor_name are required", nil)
	}
	if input.DebtType == "" {
		input.DebtType = domain.DebtTypeOther
	}
	if input.CurrentAmount <= 0 || input.CurrentAmount > input.OriginalAmount {
		input.CurrentAmount = input.OriginalAmount
	}

	now := s.now()
	priority := IntakePriority(input.OriginalAmount, input.DaysDelinquent)
	contactDays, resolutionDays := scoring.SLADaysForTier(priority)
	contactDeadline := now.Add(time.Duration(contactDays) * 24 * time.Hour)
	resolutionDeadline := now.Add(time.Duration(resolutionDays) * 24 * time.Hour)

	score := InitialRecoveryScore(input.OriginalAmount, input.DaysDelinquent)

	c := &domain.Case{
		ID:                    input.ID,
		AccountID:             input.AccountID,
		DebtorName:            input.DebtorName,
		DebtorEmail:           input.DebtorEmail,
		DebtorPhone:           input.DebtorPhone,
		OriginalAmount:        input.OriginalAmount,
		CurrentAmount:         input.CurrentAmount,
		DaysDelinquent:        input.DaysDelinquent,
		DebtType:              input.DebtType,
		Status:                domain.CaseStatusNew,
		Priority:              priority,
		RecoveryScore:         score,
		RecoveryBand:          domain.BandForScore(score),
		SLAContactDeadline:    &contactDeadline,
		SLAResolutionDeadline: &resolutionDeadline,
	}

	if err := s.allocator.PlaceNewCase(ctx, c, actorID); err != nil {
		return nil, err
	}

	if err := s.recordAudit(ctx, c.ID, domain.AuditActionCreate, actorID,
		nil,
		map[string]any{"status": c.Status, "priority": c.Priority, "recovery_score": c.RecoveryScore},
	); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventCaseCreated,
		CaseID: c.ID,
		Actor:  actorFor(actorID),
		Payload: events.CaseCreatedPayload{
			AccountID:     c.AccountID,
			Priority:      c.Priority,
			Status:        c.Status,
			RecoveryScore: c.RecoveryScore,
		},
	})

	s.rescoreAsync(c, input, actorID)
	return c, nil
}

// rescoreAsync replaces the coarse intake score with the full scorer's
// output once available. Runs detached from the request.
func (s *WorkflowService) rescoreAsync(c *domain.Case, input IntakeInput, actorID *string) {
	if s.scorer == nil {
		return
	}
	caseID := c.ID
	oldScore := c.RecoveryScore
	in := scoring.CaseInput{
		OriginalAmount:   input.OriginalAmount,
		DaysDelinquent:   input.DaysDelinquent,
		DebtType:         input.DebtType,
		CreditScore:      input.CreditScore,
		EmploymentMonths: input.EmploymentMonths,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		prediction := s.scorer.Predict(in)
		stored, err := s.cases.GetByID(ctx, caseID)
		if err != nil {
			s.logger.Warn("rescore: case fetch failed", zap.String("case_id", caseID), zap.Error(err))
			return
		}
		stored.RecoveryScore = prediction.Score
		stored.RecoveryBand = domain.BandForScore(prediction.Score)
		if err := s.cases.Update(ctx, stored); err != nil {
			s.logger.Warn("rescore: case update failed", zap.String("case_id", caseID), zap.Error(err))
			return
		}
		_ = s.recordAudit(ctx, caseID, domain.AuditActionRescore, actorID,
			map[string]any{"recovery_score": oldScore},
			map[string]any{"recovery_score": prediction.Score, "mode": prediction.Mode},
		)
	}()
}

// CaseUpdateInput carries the agent-editable fields of a case. Nil fields
// are left untouched.
type CaseUpdateInput struct {
	CurrentAmount *float64
	Notes         *string
}

// UpdateCaseDetails applies an agent update: payments lower the outstanding
// amount and notes record collection activity. The outstanding amount never
// increases; a rise must come in as a new case.
func (s *WorkflowService) UpdateCaseDetails(ctx context.Context, caseID string, input CaseUpdateInput, actorID *string) (*domain.Case, error) {
	if input.CurrentAmount == nil && input.Notes == nil {
		return nil, apperrors.NewValidationError("no updatable fields supplied", nil)
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if c.Status == domain.CaseStatusClosed {
		return nil, apperrors.NewConflict("closed case cannot be updated", map[string]any{"case_id": caseID})
	}

	oldAmount := c.CurrentAmount
	oldValues := map[string]any{}
	newValues := map[string]any{}

	if input.CurrentAmount != nil {
		amount := *input.CurrentAmount
		if amount < 0 {
			return nil, apperrors.NewValidationError("current_amount must not be negative", map[string]any{
				"current_amount": amount,
			})
		}
		if amount > c.CurrentAmount {
			return nil, apperrors.NewValidationError("current_amount may only decrease", map[string]any{
				"current_amount": c.CurrentAmount,
				"requested":      amount,
			})
		}
		oldValues["current_amount"] = c.CurrentAmount
		newValues["current_amount"] = amount
		c.CurrentAmount = amount
	}
	if input.Notes != nil {
		oldValues["notes"] = c.Notes
		newValues["notes"] = *input.Notes
		c.Notes = input.Notes
	}

	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAudit(ctx, c.ID, domain.AuditActionUpdate, actorID, oldValues, newValues); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventCaseUpdated,
		CaseID: c.ID,
		Actor:  actorFor(actorID),
		Payload: events.CaseUpdatedPayload{
			OldAmount:    oldAmount,
			NewAmount:    c.CurrentAmount,
			NotesChanged: input.Notes != nil,
		},
	})
	return c, nil
}

// UpdateStatus validates and executes a status transition. A rejected
// transition leaves the case unchanged and surfaces as a conflict.
func (s *WorkflowService) UpdateStatus(ctx context.Context, caseID string, next domain.CaseStatus, actorID *string, comment string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.transition(ctx, c, next, actorID, comment)
}

// Transition applies a validated status change to an already-loaded case.
func (s *WorkflowService) Transition(ctx context.Context, c *domain.Case, next domain.CaseStatus, actorID *string, comment string) (*domain.Case, error) {
	return s.transition(ctx, c, next, actorID, comment)
}

func (s *WorkflowService) transition(ctx context.Context, c *domain.Case, next domain.CaseStatus, actorID *string, comment string) (*domain.Case, error) {
	if !IsValidTransition(c.Status, next) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"case_id": c.ID,
			"from":    c.Status,
			"to":      next,
		})
	}

	old := c.Status
	now := s.now()
	c.Status = next
	switch next {
	case domain.CaseStatusResolved:
		if c.ResolvedDate == nil {
			c.ResolvedDate = &now
		}
	case domain.CaseStatusReturned:
		c.DCAID = nil
	}

	if err := s.cases.Update(ctx, c); err != nil {
		c.Status = old
		return nil, apperrors.MapError(err)
	}

	action := domain.AuditActionStatusChange
	if next == domain.CaseStatusEscalated {
		action = domain.AuditActionEscalate
	}
	if err := s.recordAudit(ctx, c.ID, action, actorID,
		map[string]any{"status": old},
		map[string]any{"status": next, "comment": comment},
	); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:   events.EventCaseStatusChanged,
		CaseID: c.ID,
		Actor:  actorFor(actorID),
		Payload: events.CaseStatusChangedPayload{
			OldStatus: old,
			NewStatus: next,
			Comment:   comment,
		},
	})
	return c, nil
}

// RecordFirstContact sets the first-contact timestamp exactly once.
// Subsequent calls are no-ops.
func (s *WorkflowService) RecordFirstContact(ctx context.Context, caseID string, actorID *string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.MapError(err)
	}
	if c.FirstContactDate != nil {
		return c, nil
	}
	now := s.now()
	c.FirstContactDate = &now
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}
	return c, nil
}

// ResolveCase moves an in-progress or escalated case to RESOLVED.
func (s *WorkflowService) ResolveCase(ctx context.Context, caseID string, actorID *string, comment string) (*domain.Case, error) {
	return s.UpdateStatus(ctx, caseID, domain.CaseStatusResolved, actorID, comment)
}

func (s *WorkflowService) recordAudit(ctx context.Context, caseID string, action domain.AuditAction, actorID *string, oldValues, newValues map[string]any) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Create(ctx, &domain.AuditLog{
		ID:         uuid.NewString(),
		EntityType: domain.AuditEntityCase,
		EntityID:   caseID,
		Action:     action,
		OldValues:  oldValues,
		NewValues:  newValues,
		ActorID:    actorID,
	})
}

func (s *WorkflowService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(actorID *string) events.Actor {
	if actorID == nil {
		return events.Actor{System: true}
	}
	return events.Actor{UserID: actorID}
}
