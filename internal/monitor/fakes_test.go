package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/recovery-service/internal/domain"
	"github.com/spec-kit/recovery-service/internal/repository"
)

type fakeCaseRepo struct {
	mu    sync.Mutex
	cases map[string]*domain.Case
}

func newFakeCaseRepo(cases ...*domain.Case) *fakeCaseRepo {
	r := &fakeCaseRepo{cases: map[string]*domain.Case{}}
	for _, c := range cases {
		r.cases[c.ID] = c
	}
	return r
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
	r.cases[c.ID] = copyCase(c)
	return nil
}

func (r *fakeCaseRepo) Update(_ context.Context, c *domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cases[c.ID]; !exists {
		return pgx.ErrNoRows
	}
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
		match := len(filter.Statuses) == 0
		for _, s := range filter.Statuses {
			if c.Status == s {
				match = true
				break
			}
		}
		if match {
			out = append(out, *c)
		}
	}
	return out, nil
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

func (r *fakeCaseRepo) AvgActiveCaseAgeDays(context.Context, string) (float64, error) {
	return 0, nil
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

// fakeBreachRepo enforces the one-open-breach-per-(case,type) rule the
// partial unique index provides in Postgres.
type fakeBreachRepo struct {
	mu        sync.Mutex
	breaches  []domain.SLABreach
	createErr error
}

func (r *fakeBreachRepo) CreateIfAbsent(_ context.Context, breach *domain.SLABreach) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return false, r.createErr
	}
	for _, b := range r.breaches {
		if b.CaseID == breach.CaseID && b.BreachType == breach.BreachType && b.ResolvedAt == nil {
			return false, nil
		}
	}
	r.breaches = append(r.breaches, *breach)
	return true, nil
}

func (r *fakeBreachRepo) ListOpen(context.Context) ([]domain.SLABreach, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SLABreach
	for _, b := range r.breaches {
		if b.ResolvedAt == nil {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBreachRepo) ListByCase(_ context.Context, caseID string) ([]domain.SLABreach, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SLABreach
	for _, b := range r.breaches {
		if b.CaseID == caseID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBreachRepo) ResolveOpenForCase(_ context.Context, caseID string, resolvedAt time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resolved := 0
	for i := range r.breaches {
		if r.breaches[i].CaseID == caseID && r.breaches[i].ResolvedAt == nil {
			at := resolvedAt
			r.breaches[i].ResolvedAt = &at
			resolved++
		}
	}
	return resolved, nil
}

func (r *fakeBreachRepo) CountOpen(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, b := range r.breaches {
		if b.ResolvedAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeBreachRepo) CountDetectedBetween(_ context.Context, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, b := range r.breaches {
		if !b.DetectedAt.Before(from) && b.DetectedAt.Before(to) {
			count++
		}
	}
	return count, nil
}
