package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// BreachRepository stores SLA breach records. CreateIfAbsent backs the
// monitor's idempotence guarantee: at most one open record per
// (case, breach type), enforced by a partial unique index.
type BreachRepository interface {
	CreateIfAbsent(ctx context.Context, breach *domain.SLABreach) (bool, error)
	ListOpen(ctx context.Context) ([]domain.SLABreach, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.SLABreach, error)
	ResolveOpenForCase(ctx context.Context, caseID string, resolvedAt time.Time) (int, error)
	CountOpen(ctx context.Context) (int, error)
	CountDetectedBetween(ctx context.Context, from, to time.Time) (int, error)
}

type breachRepository struct {
	pool *pgxpool.Pool
}

// NewBreachRepository instantiates repository.
func NewBreachRepository(pool *pgxpool.Pool) BreachRepository {
	return &breachRepository{pool: pool}
}

const breachColumns = `id, case_id, breach_type, deadline, detected_at, hours_overdue, resolved_at`

// CreateIfAbsent inserts the breach unless an open record for the same
// (case, breach type) already exists. Returns true only on a real insert,
// so duplicate-insert races collapse to a single notification.
func (r *breachRepository) CreateIfAbsent(ctx context.Context, breach *domain.SLABreach) (bool, error) {
	const query = `
        INSERT INTO sla_breaches (id, case_id, breach_type, deadline, detected_at, hours_overdue)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (case_id, breach_type) WHERE resolved_at IS NULL DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query,
		breach.ID,
		breach.CaseID,
		breach.BreachType,
		breach.Deadline,
		breach.DetectedAt,
		breach.HoursOverdue,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *breachRepository) ListOpen(ctx context.Context) ([]domain.SLABreach, error) {
	query := `SELECT ` + breachColumns + ` FROM sla_breaches WHERE resolved_at IS NULL ORDER BY detected_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBreaches(rows)
}

func (r *breachRepository) ListByCase(ctx context.Context, caseID string) ([]domain.SLABreach, error) {
	query := `SELECT ` + breachColumns + ` FROM sla_breaches WHERE case_id=$1 ORDER BY detected_at ASC`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBreaches(rows)
}

// ResolveOpenForCase closes all open breach records of a case. Already
// resolved records are untouched, so repeated cleanup runs are idempotent.
func (r *breachRepository) ResolveOpenForCase(ctx context.Context, caseID string, resolvedAt time.Time) (int, error) {
	const query = `UPDATE sla_breaches SET resolved_at=$1 WHERE case_id=$2 AND resolved_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, resolvedAt, caseID)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *breachRepository) CountOpen(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM sla_breaches WHERE resolved_at IS NULL`
	var count int
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func (r *breachRepository) CountDetectedBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM sla_breaches WHERE detected_at >= $1 AND detected_at < $2`
	var count int
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&count)
	return count, err
}

func scanBreaches(rows pgx.Rows) ([]domain.SLABreach, error) {
	var result []domain.SLABreach
	for rows.Next() {
		var b domain.SLABreach
		if err := rows.Scan(
			&b.ID,
			&b.CaseID,
			&b.BreachType,
			&b.Deadline,
			&b.DetectedAt,
			&b.HoursOverdue,
			&b.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
