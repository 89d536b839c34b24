package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/repository"
)

// fakeCaseRepo is an in-memory CaseRepository mirroring the SQL semantics
// closely enough for service tests.
type fakeCaseRepo struct {
	mu     sync.Mutex
	cases  map[string]*domain.Case
	avgAge map[string]float64
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{cases: map[string]*domain.Case{}, avgAge: map[string]float64{}}
}

func copyCase(c *domain.Case) *domain.Case {
	dup := *c
	return &dup
}

func (r *fakeCaseRepo) Create(_ context.Context, c *domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cases[c.ID]; exists {
		return fmt.Errorf("duplicate case %s", c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	r.cases[c.ID] = copyCase(c)
	return nil
}

func (r *fakeCaseRepo) Update(_ context.Context, c *domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cases[c.ID]; !exists {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	r.cases[c.ID] = copyCase(c)
	return nil
}

func (r *fakeCaseRepo) GetByID(_ context.Context, id string) (*domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyCase(c), nil
}

func (r *fakeCaseRepo) ListWithFilter(_ context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Case
	for _, c := range r.cases {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			continue
		}
		if filter.DCAID != nil && (c.DCAID == nil || *c.DCAID != *filter.DCAID) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func containsStatus(list []domain.CaseStatus, s domain.CaseStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *fakeCaseRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Case
	for _, id := range ids {
		if c, ok := r.cases[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCaseRepo) CountActiveForDCA(_ context.Context, dcaID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.cases {
		if c.DCAID != nil && *c.DCAID == dcaID && c.IsActive() {
			count++
		}
	}
	return count, nil
}

func (r *fakeCaseRepo) AvgActiveCaseAgeDays(_ context.Context, dcaID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.avgAge[dcaID], nil
}

func (r *fakeCaseRepo) ListContactOverdue(_ context.Context, now time.Time) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Case
	for _, c := range r.cases {
		if (c.Status == domain.CaseStatusNew || c.Status == domain.CaseStatusAllocated) &&
			c.SLAContactDeadline != nil && c.SLAContactDeadline.Before(now) &&
			c.FirstContactDate == nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCaseRepo) ListResolutionOverdue(_ context.Context, now time.Time) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Case
	for _, c := range r.cases {
		switch c.Status {
		case domain.CaseStatusNew, domain.CaseStatusAllocated, domain.CaseStatusInProgress:
		default:
			continue
		}
		if c.SLAResolutionDeadline != nil && c.SLAResolutionDeadline.Before(now) && c.ResolvedDate == nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCaseRepo) ListOverdueForEscalation(_ context.Context, threshold time.Time) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Case
	for _, c := range r.cases {
		if c.Status != domain.CaseStatusAllocated && c.Status != domain.CaseStatusInProgress {
			continue
		}
		contactLate := c.SLAContactDeadline != nil && c.SLAContactDeadline.Before(threshold)
		resolutionLate := c.SLAResolutionDeadline != nil && c.SLAResolutionDeadline.Before(threshold)
		if contactLate || resolutionLate {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCaseRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.cases {
		if !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakeCaseRepo) CountResolvedBetween(_ context.Context, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.cases {
		if c.ResolvedDate != nil && !c.ResolvedDate.Before(from) && c.ResolvedDate.Before(to) {
			count++
		}
	}
	return count, nil
}

// fakeAuditRepo records entries in memory.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType domain.AuditEntityType, entityID string, _, _ int) ([]domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditLog
	for _, e := range r.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) actions(entityID string) []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditAction
	for _, e := range r.entries {
		if e.EntityID == entityID {
			out = append(out, e.Action)
		}
	}
	return out
}

// fakeDCARepo serves a fixed agency list.
type fakeDCARepo struct {
	mu   sync.Mutex
	dcas map[string]*domain.DCA
}

func newFakeDCARepo(dcas ...*domain.DCA) *fakeDCARepo {
	r := &fakeDCARepo{dcas: map[string]*domain.DCA{}}
	for _, d := range dcas {
		r.dcas[d.ID] = d
	}
	return r
}

func (r *fakeDCARepo) Create(_ context.Context, dca *domain.DCA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.dcas[dca.ID]; exists {
		return fmt.Errorf("duplicate dca %s", dca.ID)
	}
	r.dcas[dca.ID] = dca
	return nil
}

func (r *fakeDCARepo) Update(_ context.Context, dca *domain.DCA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.dcas[dca.ID]; !exists {
		return pgx.ErrNoRows
	}
	r.dcas[dca.ID] = dca
	return nil
}

func (r *fakeDCARepo) GetByID(_ context.Context, id string) (*domain.DCA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dcas[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (r *fakeDCARepo) List(_ context.Context) ([]domain.DCA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DCA
	for _, d := range r.dcas {
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDCARepo) ListAvailable(_ context.Context) ([]domain.DCA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DCA
	for _, d := range r.dcas {
		if d.IsActive && d.IsAcceptingCases {
			out = append(out, *d)
		}
	}
	return out, nil
}
