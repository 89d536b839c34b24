package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/events"
	"github.com/spec-kit/recovery-service/internal/repository"
	"github.com/spec-kit/recovery-service/internal/service"
)

// warningWindow is how close to a deadline a case counts as WARNING.
const warningWindow = 24 * time.Hour

// escalationGrace is how long past the resolution deadline a case may sit
// before the monitor escalates it.
const escalationGrace = 7 * 24 * time.Hour

// JobSummary reports one monitoring pass. Per-case failures are isolated:
// one bad case never aborts the sweep.
type JobSummary struct {
	Checked int
	Updated int
	Failed  int
}

// SLAMonitor runs the periodic compliance jobs: breach detection, status
// refresh, overdue escalation, cleanup and the daily summary.
type SLAMonitor struct {
	cases      repository.CaseRepository
	breaches   repository.BreachRepository
	workflow   *service.WorkflowService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// MonitorDependencies bundles collaborators.
type MonitorDependencies struct {
	CaseRepo   repository.CaseRepository
	BreachRepo repository.BreachRepository
	Workflow   *service.WorkflowService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(deps MonitorDependencies) *SLAMonitor {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SLAMonitor{
		cases:      deps.CaseRepo,
		breaches:   deps.BreachRepo,
		workflow:   deps.Workflow,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// Classify places a case against its deadlines. Breached wins over warning
// wins over compliant; a case past one deadline but inside the warning
// window of another is BREACHED.
func Classify(c *domain.Case, now time.Time) domain.SLAStatus {
	status := domain.SLAStatusCompliant

	check := func(deadline *time.Time, met bool) {
		if deadline == nil || met {
			return
		}
		if now.After(*deadline) {
			status = domain.SLAStatusBreached
			return
		}
		if status != domain.SLAStatusBreached && deadline.Sub(now) <= warningWindow {
			status = domain.SLAStatusWarning
		}
	}

	check(c.SLAContactDeadline, c.FirstContactDate != nil)
	if status == domain.SLAStatusBreached {
		return status
	}
	check(c.SLAResolutionDeadline, c.ResolvedDate != nil)
	return status
}

// ScanBreaches sweeps for missed contact and resolution deadlines and
// records a breach for each. Recording is idempotent: one open breach per
// case and type, so re-running a sweep never duplicates.
func (m *SLAMonitor) ScanBreaches(ctx context.Context) (JobSummary, error) {
	now := m.now()
	var summary JobSummary

	contact, err := m.cases.ListContactOverdue(ctx, now)
	if err != nil {
		return summary, err
	}
	for i := range contact {
		summary.Checked++
		created, err := m.recordBreach(ctx, &contact[i], domain.BreachTypeContact, contact[i].SLAContactDeadline, now)
		switch {
		case err != nil && ctx.Err() != nil:
			return summary, ctx.Err()
		case err != nil:
			summary.Failed++
		case created:
			summary.Updated++
		}
	}

	resolution, err := m.cases.ListResolutionOverdue(ctx, now)
	if err != nil {
		return summary, err
	}
	for i := range resolution {
		summary.Checked++
		created, err := m.recordBreach(ctx, &resolution[i], domain.BreachTypeResolution, resolution[i].SLAResolutionDeadline, now)
		switch {
		case err != nil && ctx.Err() != nil:
			return summary, ctx.Err()
		case err != nil:
			summary.Failed++
		case created:
			summary.Updated++
		}
	}

	m.logger.Info("sla breach scan complete",
		zap.Int("checked", summary.Checked),
		zap.Int("new_breaches", summary.Updated),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// recordBreach reports true only when a new breach row was inserted.
func (m *SLAMonitor) recordBreach(ctx context.Context, c *domain.Case, breachType domain.BreachType, deadline *time.Time, now time.Time) (bool, error) {
	if deadline == nil {
		return false, nil
	}
	created, err := m.breaches.CreateIfAbsent(ctx, &domain.SLABreach{
		ID:           uuid.NewString(),
		CaseID:       c.ID,
		BreachType:   breachType,
		Deadline:     *deadline,
		DetectedAt:   now,
		HoursOverdue: now.Sub(*deadline).Hours(),
	})
	if err != nil {
		m.logger.Warn("breach record failed",
			zap.String("case_id", c.ID),
			zap.String("breach_type", string(breachType)),
			zap.Error(err))
		return false, err
	}
	if !created {
		return false, nil
	}
	if m.dispatcher != nil {
		_ = m.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSLABreachDetected,
			CaseID:    c.ID,
			Actor:     events.Actor{System: true},
			Timestamp: now,
			Payload: events.SLABreachPayload{
				BreachType:   breachType,
				Deadline:     *deadline,
				HoursOverdue: now.Sub(*deadline).Hours(),
				DCAID:        c.DCAID,
			},
		})
	}
	return true, nil
}

// RefreshStatuses classifies the whole active book against its deadlines.
// SLA status is derived, not stored, so the sweep's output is the logged
// breakdown; Updated counts cases currently off compliant.
func (m *SLAMonitor) RefreshStatuses(ctx context.Context) (JobSummary, error) {
	now := m.now()
	var summary JobSummary

	active, err := m.listActive(ctx)
	if err != nil {
		return summary, err
	}

	var breached, warning int
	for i := range active {
		summary.Checked++
		switch Classify(&active[i], now) {
		case domain.SLAStatusBreached:
			breached++
			summary.Updated++
		case domain.SLAStatusWarning:
			warning++
			summary.Updated++
		}
	}

	m.logger.Info("sla status refresh complete",
		zap.Int("active", summary.Checked),
		zap.Int("breached", breached),
		zap.Int("warning", warning),
		zap.Int("compliant", summary.Checked-breached-warning))
	return summary, nil
}

// activeBookLimit caps how many cases one classification sweep loads.
const activeBookLimit = 50000

func (m *SLAMonitor) listActive(ctx context.Context) ([]domain.Case, error) {
	return m.cases.ListWithFilter(ctx, repository.CaseFilter{
		Statuses: []domain.CaseStatus{
			domain.CaseStatusNew,
			domain.CaseStatusAllocated,
			domain.CaseStatusInProgress,
			domain.CaseStatusEscalated,
		},
		Limit: activeBookLimit,
	})
}

// EscalateOverdue escalates active cases sitting more than seven days past
// their resolution deadline. Already-escalated cases are left alone.
func (m *SLAMonitor) EscalateOverdue(ctx context.Context) (JobSummary, error) {
	now := m.now()
	var summary JobSummary

	overdue, err := m.cases.ListOverdueForEscalation(ctx, now.Add(-escalationGrace))
	if err != nil {
		return summary, err
	}
	for i := range overdue {
		c := &overdue[i]
		summary.Checked++
		if c.Status != domain.CaseStatusInProgress && c.Status != domain.CaseStatusAllocated {
			continue
		}
		// ALLOCATED must pass through IN_PROGRESS before escalating
		if c.Status == domain.CaseStatusAllocated {
			if _, err := m.workflow.Transition(ctx, c, domain.CaseStatusInProgress, nil, "auto-escalation"); err != nil {
				summary.Failed++
				m.logger.Warn("escalation pre-transition failed", zap.String("case_id", c.ID), zap.Error(err))
				continue
			}
		}
		if _, err := m.workflow.Transition(ctx, c, domain.CaseStatusEscalated, nil, "resolution deadline exceeded"); err != nil {
			summary.Failed++
			m.logger.Warn("escalation failed", zap.String("case_id", c.ID), zap.Error(err))
			continue
		}
		summary.Updated++

		if m.dispatcher != nil && c.SLAResolutionDeadline != nil {
			_ = m.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventCaseEscalated,
				CaseID:    c.ID,
				Actor:     events.Actor{System: true},
				Timestamp: now,
				Payload: events.CaseEscalatedPayload{
					DCAID:       c.DCAID,
					Deadline:    *c.SLAResolutionDeadline,
					DaysOverdue: int(now.Sub(*c.SLAResolutionDeadline).Hours() / 24),
				},
			})
		}
	}

	m.logger.Info("escalation sweep complete",
		zap.Int("checked", summary.Checked),
		zap.Int("escalated", summary.Updated),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// CleanupResolvedBreaches closes open breaches whose underlying obligation
// has since been met. Idempotent: already-closed breaches are untouched.
func (m *SLAMonitor) CleanupResolvedBreaches(ctx context.Context) (JobSummary, error) {
	now := m.now()
	var summary JobSummary

	open, err := m.breaches.ListOpen(ctx)
	if err != nil {
		return summary, err
	}

	byCase := make(map[string][]domain.SLABreach)
	for _, b := range open {
		byCase[b.CaseID] = append(byCase[b.CaseID], b)
	}

	for caseID, caseBreaches := range byCase {
		summary.Checked += len(caseBreaches)
		c, err := m.cases.GetByID(ctx, caseID)
		if err != nil {
			summary.Failed += len(caseBreaches)
			m.logger.Warn("breach cleanup fetch failed", zap.String("case_id", caseID), zap.Error(err))
			continue
		}
		if !m.breachesSatisfied(c, caseBreaches) {
			continue
		}
		resolved, err := m.breaches.ResolveOpenForCase(ctx, caseID, now)
		if err != nil {
			summary.Failed += len(caseBreaches)
			m.logger.Warn("breach cleanup failed", zap.String("case_id", caseID), zap.Error(err))
			continue
		}
		summary.Updated += resolved
	}

	m.logger.Info("breach cleanup complete",
		zap.Int("checked", summary.Checked),
		zap.Int("resolved", summary.Updated))
	return summary, nil
}

// breachesSatisfied reports whether every open breach on the case has had
// its obligation met since detection.
func (m *SLAMonitor) breachesSatisfied(c *domain.Case, open []domain.SLABreach) bool {
	for _, b := range open {
		switch b.BreachType {
		case domain.BreachTypeContact:
			if c.FirstContactDate == nil {
				return false
			}
		case domain.BreachTypeResolution:
			if c.ResolvedDate == nil && c.Status != domain.CaseStatusClosed {
				return false
			}
		}
	}
	return true
}

// ComplianceReport is the daily summary payload plus the SLA status
// breakdown of the active book.
type ComplianceReport struct {
	ReportDate     string
	CasesCreated   int
	CasesResolved  int
	NewBreaches    int
	OpenBreaches   int
	Breached       int
	Warning        int
	Compliant      int
	ComplianceRate float64
}

// DailyReport aggregates the previous 24 hours and emits the summary
// event.
func (m *SLAMonitor) DailyReport(ctx context.Context) (*ComplianceReport, error) {
	now := m.now()
	from := now.Add(-24 * time.Hour)

	created, err := m.cases.CountCreatedBetween(ctx, from, now)
	if err != nil {
		return nil, err
	}
	resolved, err := m.cases.CountResolvedBetween(ctx, from, now)
	if err != nil {
		return nil, err
	}
	newBreaches, err := m.breaches.CountDetectedBetween(ctx, from, now)
	if err != nil {
		return nil, err
	}
	openBreaches, err := m.breaches.CountOpen(ctx)
	if err != nil {
		return nil, err
	}

	report := &ComplianceReport{
		ReportDate:    now.Format("2006-01-02"),
		CasesCreated:  created,
		CasesResolved: resolved,
		NewBreaches:   newBreaches,
		OpenBreaches:  openBreaches,
	}

	active, err := m.listActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range active {
		switch Classify(&active[i], now) {
		case domain.SLAStatusBreached:
			report.Breached++
		case domain.SLAStatusWarning:
			report.Warning++
		default:
			report.Compliant++
		}
	}
	if total := len(active); total > 0 {
		report.ComplianceRate = float64(total-report.Breached) / float64(total)
	} else {
		report.ComplianceRate = 1.0
	}

	if m.dispatcher != nil {
		_ = m.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventDailySummary,
			Actor:     events.Actor{System: true},
			Timestamp: now,
			Payload: events.DailySummaryPayload{
				ReportDate:     report.ReportDate,
				CasesCreated:   report.CasesCreated,
				CasesResolved:  report.CasesResolved,
				NewBreaches:    report.NewBreaches,
				OpenBreaches:   report.OpenBreaches,
				ComplianceRate: report.ComplianceRate,
			},
		})
	}

	m.logger.Info("daily compliance report",
		zap.String("report_date", report.ReportDate),
		zap.Int("cases_created", report.CasesCreated),
		zap.Int("cases_resolved", report.CasesResolved),
		zap.Int("new_breaches", report.NewBreaches),
		zap.Float64("compliance_rate", report.ComplianceRate))
	return report, nil
}

// StatusFor classifies one case on demand, with its open breaches.
func (m *SLAMonitor) StatusFor(ctx context.Context, caseID string) (domain.SLAStatus, []domain.SLABreach, error) {
	c, err := m.cases.GetByID(ctx, caseID)
	if err != nil {
		return "", nil, fmt.Errorf("case %s: %w", caseID, err)
	}
	breaches, err := m.breaches.ListByCase(ctx, caseID)
	if err != nil {
		return "", nil, err
	}
	return Classify(c, m.now()), breaches, nil
}
