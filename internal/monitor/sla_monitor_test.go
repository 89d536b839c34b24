package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/service"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newMonitor(cases *fakeCaseRepo, breaches *fakeBreachRepo) *SLAMonitor {
	clock := func() time.Time { return testNow }
	workflow := service.NewWorkflowService(service.WorkflowDependencies{
		CaseRepo: cases,
		Logger:   zap.NewNop(),
		Now:      clock,
	})
	return NewSLAMonitor(MonitorDependencies{
		CaseRepo:   cases,
		BreachRepo: breaches,
		Workflow:   workflow,
		Logger:     zap.NewNop(),
		Now:        clock,
	})
}

func timePtr(t time.Time) *time.Time { return &t }

func monitoredCase(id string, status domain.CaseStatus, contactIn, resolutionIn time.Duration) *domain.Case {
	return &domain.Case{
		ID:                    id,
		AccountID:             "acct-" + id,
		DebtorName:            "Debtor " + id,
		OriginalAmount:        5000,
		CurrentAmount:         5000,
		DaysDelinquent:        40,
		DebtType:              domain.DebtTypeOther,
		Status:                status,
		Priority:              domain.CasePriorityMedium,
		SLAContactDeadline:    timePtr(testNow.Add(contactIn)),
		SLAResolutionDeadline: timePtr(testNow.Add(resolutionIn)),
		CreatedAt:             testNow.Add(-48 * time.Hour),
	}
}

func TestClassifyCompliant(t *testing.T) {
	c := monitoredCase("c1", domain.CaseStatusAllocated, 72*time.Hour, 30*24*time.Hour)
	if got := Classify(c, testNow); got != domain.SLAStatusCompliant {
		t.Fatalf("expected COMPLIANT, got %s", got)
	}
}

func TestClassifyWarningInsideWindow(t *testing.T) {
	c := monitoredCase("c1", domain.CaseStatusAllocated, 12*time.Hour, 30*24*time.Hour)
	if got := Classify(c, testNow); got != domain.SLAStatusWarning {
		t.Fatalf("expected WARNING within 24h of deadline, got %s", got)
	}
}

func TestClassifyBreachedPastDeadline(t *testing.T) {
	c := monitoredCase("c1", domain.CaseStatusAllocated, -time.Hour, 30*24*time.Hour)
	if got := Classify(c, testNow); got != domain.SLAStatusBreached {
		t.Fatalf("expected BREACHED past deadline, got %s", got)
	}
}

func TestClassifyBreachedWinsOverWarning(t *testing.T) {
	// contact missed, resolution merely close
	c := monitoredCase("c1", domain.CaseStatusInProgress, -time.Hour, 12*time.Hour)
	if got := Classify(c, testNow); got != domain.SLAStatusBreached {
		t.Fatalf("breached must win over warning, got %s", got)
	}
}

func TestClassifyMetObligationsIgnored(t *testing.T) {
	c := monitoredCase("c1", domain.CaseStatusInProgress, -time.Hour, 30*24*time.Hour)
	c.FirstContactDate = timePtr(testNow.Add(-2 * time.Hour))
	if got := Classify(c, testNow); got != domain.SLAStatusCompliant {
		t.Fatalf("met contact deadline must not breach, got %s", got)
	}

	c.SLAResolutionDeadline = timePtr(testNow.Add(-time.Hour))
	c.ResolvedDate = timePtr(testNow.Add(-2 * time.Hour))
	if got := Classify(c, testNow); got != domain.SLAStatusCompliant {
		t.Fatalf("resolved case must not breach, got %s", got)
	}
}

func TestScanBreachesIdempotent(t *testing.T) {
	cases := newFakeCaseRepo(
		monitoredCase("late", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour),
		monitoredCase("fine", domain.CaseStatusAllocated, 72*time.Hour, 30*24*time.Hour),
	)
	breaches := &fakeBreachRepo{}
	m := newMonitor(cases, breaches)

	first, err := m.ScanBreaches(context.Background())
	if err != nil {
		t.Fatalf("ScanBreaches: %v", err)
	}
	if first.Updated != 1 {
		t.Fatalf("expected 1 new breach, got %d", first.Updated)
	}

	second, err := m.ScanBreaches(context.Background())
	if err != nil {
		t.Fatalf("second ScanBreaches: %v", err)
	}
	if second.Updated != 0 {
		t.Fatalf("rescan must not duplicate breaches, got %d new", second.Updated)
	}

	open, _ := breaches.ListOpen(context.Background())
	if len(open) != 1 {
		t.Fatalf("expected exactly 1 open breach, got %d", len(open))
	}
	if open[0].CaseID != "late" || open[0].BreachType != domain.BreachTypeContact {
		t.Fatalf("unexpected breach %+v", open[0])
	}
	if open[0].HoursOverdue != 48 {
		t.Fatalf("expected 48 hours overdue, got %v", open[0].HoursOverdue)
	}
}

func TestScanBreachesBothDeadlines(t *testing.T) {
	cases := newFakeCaseRepo(
		monitoredCase("doubly-late", domain.CaseStatusAllocated, -72*time.Hour, -24*time.Hour),
	)
	breaches := &fakeBreachRepo{}
	m := newMonitor(cases, breaches)

	summary, err := m.ScanBreaches(context.Background())
	if err != nil {
		t.Fatalf("ScanBreaches: %v", err)
	}
	if summary.Updated != 2 {
		t.Fatalf("expected contact and resolution breaches, got %d", summary.Updated)
	}
}

func TestEscalateOverdue(t *testing.T) {
	overdue := monitoredCase("overdue", domain.CaseStatusAllocated, -10*24*time.Hour, -8*24*time.Hour)
	inGrace := monitoredCase("in-grace", domain.CaseStatusInProgress, -2*24*time.Hour, -2*24*time.Hour)
	cases := newFakeCaseRepo(overdue, inGrace)
	m := newMonitor(cases, &fakeBreachRepo{})

	summary, err := m.EscalateOverdue(context.Background())
	if err != nil {
		t.Fatalf("EscalateOverdue: %v", err)
	}
	if summary.Updated != 1 || summary.Failed != 0 {
		t.Fatalf("expected exactly 1 escalation, got %+v", summary)
	}

	escalated, _ := cases.GetByID(context.Background(), "overdue")
	if escalated.Status != domain.CaseStatusEscalated {
		t.Fatalf("allocated case 8 days overdue should be ESCALATED, got %s", escalated.Status)
	}
	untouched, _ := cases.GetByID(context.Background(), "in-grace")
	if untouched.Status != domain.CaseStatusInProgress {
		t.Fatalf("case inside the grace period must be untouched, got %s", untouched.Status)
	}
}

func TestEscalateOverdueIdempotent(t *testing.T) {
	cases := newFakeCaseRepo(
		monitoredCase("overdue", domain.CaseStatusInProgress, -10*24*time.Hour, -8*24*time.Hour),
	)
	m := newMonitor(cases, &fakeBreachRepo{})

	if _, err := m.EscalateOverdue(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	second, err := m.EscalateOverdue(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.Checked != 0 || second.Updated != 0 {
		t.Fatalf("escalated cases must leave the sweep, got %+v", second)
	}
}

func TestCleanupResolvedBreaches(t *testing.T) {
	contacted := monitoredCase("contacted", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour)
	silent := monitoredCase("silent", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour)
	cases := newFakeCaseRepo(contacted, silent)
	breaches := &fakeBreachRepo{}
	m := newMonitor(cases, breaches)

	if _, err := m.ScanBreaches(context.Background()); err != nil {
		t.Fatalf("ScanBreaches: %v", err)
	}

	// contact happens after detection
	contacted.FirstContactDate = timePtr(testNow)
	if err := cases.Update(context.Background(), contacted); err != nil {
		t.Fatalf("Update: %v", err)
	}

	summary, err := m.CleanupResolvedBreaches(context.Background())
	if err != nil {
		t.Fatalf("CleanupResolvedBreaches: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("expected 1 breach resolved, got %+v", summary)
	}

	open, _ := breaches.ListOpen(context.Background())
	if len(open) != 1 || open[0].CaseID != "silent" {
		t.Fatalf("only the uncontacted case should keep its breach, got %+v", open)
	}

	again, err := m.CleanupResolvedBreaches(context.Background())
	if err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if again.Updated != 0 {
		t.Fatalf("cleanup must be idempotent, got %+v", again)
	}
}

func TestCleanupClosedCaseSatisfiesResolutionBreach(t *testing.T) {
	closed := monitoredCase("closed", domain.CaseStatusInProgress, 72*time.Hour, -24*time.Hour)
	closed.FirstContactDate = timePtr(testNow.Add(-72 * time.Hour))
	cases := newFakeCaseRepo(closed)
	breaches := &fakeBreachRepo{}
	m := newMonitor(cases, breaches)

	if _, err := m.ScanBreaches(context.Background()); err != nil {
		t.Fatalf("ScanBreaches: %v", err)
	}

	closed.Status = domain.CaseStatusClosed
	if err := cases.Update(context.Background(), closed); err != nil {
		t.Fatalf("Update: %v", err)
	}

	summary, err := m.CleanupResolvedBreaches(context.Background())
	if err != nil {
		t.Fatalf("CleanupResolvedBreaches: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("closed case should satisfy its resolution breach, got %+v", summary)
	}
}

func TestCleanupIsolatesMissingCase(t *testing.T) {
	contacted := monitoredCase("contacted", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour)
	cases := newFakeCaseRepo(contacted)
	breaches := &fakeBreachRepo{}
	m := newMonitor(cases, breaches)

	if _, err := m.ScanBreaches(context.Background()); err != nil {
		t.Fatalf("ScanBreaches: %v", err)
	}
	// orphan breach referencing a case the repo no longer serves
	if _, err := breaches.CreateIfAbsent(context.Background(), &domain.SLABreach{
		ID:         "orphan",
		CaseID:     "vanished",
		BreachType: domain.BreachTypeContact,
		Deadline:   testNow.Add(-time.Hour),
		DetectedAt: testNow,
	}); err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}

	contacted.FirstContactDate = timePtr(testNow)
	if err := cases.Update(context.Background(), contacted); err != nil {
		t.Fatalf("Update: %v", err)
	}

	summary, err := m.CleanupResolvedBreaches(context.Background())
	if err != nil {
		t.Fatalf("CleanupResolvedBreaches: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("orphan breach should count as failed, got %+v", summary)
	}
	if summary.Updated != 1 {
		t.Fatalf("healthy case must still be cleaned despite the orphan, got %+v", summary)
	}
}

func TestDailyReport(t *testing.T) {
	breached := monitoredCase("breached", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour)
	warning := monitoredCase("warning", domain.CaseStatusInProgress, 12*time.Hour, 30*24*time.Hour)
	compliant := monitoredCase("compliant", domain.CaseStatusAllocated, 72*time.Hour, 30*24*time.Hour)
	compliant.CreatedAt = testNow.Add(-2 * time.Hour)
	resolved := monitoredCase("resolved", domain.CaseStatusResolved, 72*time.Hour, 30*24*time.Hour)
	resolved.ResolvedDate = timePtr(testNow.Add(-3 * time.Hour))
	cases := newFakeCaseRepo(breached, warning, compliant, resolved)
	breaches := &fakeBreachRepo{}
	m := newMonitor(cases, breaches)

	if _, err := breaches.CreateIfAbsent(context.Background(), &domain.SLABreach{
		ID:         "b1",
		CaseID:     "breached",
		BreachType: domain.BreachTypeContact,
		Deadline:   testNow.Add(-48 * time.Hour),
		DetectedAt: testNow.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}

	report, err := m.DailyReport(context.Background())
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if report.ReportDate != "2026-03-10" {
		t.Fatalf("report date = %s", report.ReportDate)
	}
	if report.CasesCreated != 1 {
		t.Fatalf("expected 1 case created in window, got %d", report.CasesCreated)
	}
	if report.CasesResolved != 1 {
		t.Fatalf("expected 1 case resolved in window, got %d", report.CasesResolved)
	}
	if report.NewBreaches != 1 || report.OpenBreaches != 1 {
		t.Fatalf("expected 1 new and 1 open breach, got %d/%d", report.NewBreaches, report.OpenBreaches)
	}
	if report.Breached != 1 || report.Warning != 1 || report.Compliant != 1 {
		t.Fatalf("classification counts off: %+v", report)
	}
	// 3 active cases, 1 breached
	want := 2.0 / 3.0
	if report.ComplianceRate != want {
		t.Fatalf("compliance rate = %v, want %v", report.ComplianceRate, want)
	}
}

func TestRefreshStatusesCountsBook(t *testing.T) {
	cases := newFakeCaseRepo(
		monitoredCase("breached", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour),
		monitoredCase("warning", domain.CaseStatusInProgress, 12*time.Hour, 30*24*time.Hour),
		monitoredCase("compliant", domain.CaseStatusAllocated, 72*time.Hour, 30*24*time.Hour),
	)
	m := newMonitor(cases, &fakeBreachRepo{})

	summary, err := m.RefreshStatuses(context.Background())
	if err != nil {
		t.Fatalf("RefreshStatuses: %v", err)
	}
	if summary.Checked != 3 {
		t.Fatalf("expected 3 active cases checked, got %d", summary.Checked)
	}
	if summary.Updated != 2 {
		t.Fatalf("expected 2 off-compliant cases, got %d", summary.Updated)
	}
}

func TestDailyReportEmptyBook(t *testing.T) {
	m := newMonitor(newFakeCaseRepo(), &fakeBreachRepo{})
	report, err := m.DailyReport(context.Background())
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if report.ComplianceRate != 1.0 {
		t.Fatalf("empty book should report full compliance, got %v", report.ComplianceRate)
	}
}

func TestStatusFor(t *testing.T) {
	late := monitoredCase("late", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour)
	cases := newFakeCaseRepo(late)
	breaches := &fakeBreachRepo{}
	m := newMonitor(cases, breaches)

	if _, err := m.ScanBreaches(context.Background()); err != nil {
		t.Fatalf("ScanBreaches: %v", err)
	}

	status, caseBreaches, err := m.StatusFor(context.Background(), "late")
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if status != domain.SLAStatusBreached {
		t.Fatalf("expected BREACHED, got %s", status)
	}
	if len(caseBreaches) != 1 {
		t.Fatalf("expected 1 breach, got %d", len(caseBreaches))
	}

	if _, _, err := m.StatusFor(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown case")
	}
}

func TestScanBreachesCountsInsertFailures(t *testing.T) {
	cases := newFakeCaseRepo(
		monitoredCase("late", domain.CaseStatusAllocated, -48*time.Hour, 30*24*time.Hour),
	)
	breaches := &fakeBreachRepo{createErr: errors.New("connection reset")}
	m := newMonitor(cases, breaches)

	summary, err := m.ScanBreaches(context.Background())
	if err != nil {
		t.Fatalf("ScanBreaches: %v", err)
	}
	if summary.Checked != 1 || summary.Updated != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Failed != 1 {
		t.Fatalf("insert failure must be counted, got Failed=%d", summary.Failed)
	}

	breaches.createErr = nil
	retry, err := m.ScanBreaches(context.Background())
	if err != nil {
		t.Fatalf("retry ScanBreaches: %v", err)
	}
	if retry.Failed != 0 || retry.Updated != 1 {
		t.Fatalf("recovered scan should record the breach, got %+v", retry)
	}
}
