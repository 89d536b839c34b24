package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// CaseFilter captures listing parameters.
type CaseFilter struct {
	Statuses    []domain.CaseStatus
	Priorities  []domain.CasePriority
	DCAID       *string
	DebtType    *domain.DebtType
	MinAmount   *float64
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// CaseRepository encapsulates case persistence. Deadline queries exist so
// the SLA monitor never scans the full table client-side.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Case, error)
	CountActiveForDCA(ctx context.Context, dcaID string) (int, error)
	AvgActiveCaseAgeDays(ctx context.Context, dcaID string) (float64, error)
	ListContactOverdue(ctx context.Context, now time.Time) ([]domain.Case, error)
	ListResolutionOverdue(ctx context.Context, now time.Time) ([]domain.Case, error)
	ListOverdueForEscalation(ctx context.Context, threshold time.Time) ([]domain.Case, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	CountResolvedBetween(ctx context.Context, from, to time.Time) (int, error)
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

const caseColumns = `id, account_id, debtor_name, debtor_email, debtor_phone,
       original_amount, current_amount, days_delinquent, debt_type, notes, status,
       priority, recovery_score, recovery_band, dca_id,
       sla_contact_deadline, sla_resolution_deadline,
       first_contact_date, resolved_date, created_at, updated_at`

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (id, account_id, debtor_name, debtor_email, debtor_phone,
            original_amount, current_amount, days_delinquent, debt_type, notes, status,
            priority, recovery_score, recovery_band, dca_id,
            sla_contact_deadline, sla_resolution_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		c.ID,
		c.AccountID,
		c.DebtorName,
		c.DebtorEmail,
		c.DebtorPhone,
		c.OriginalAmount,
		c.CurrentAmount,
		c.DaysDelinquent,
		c.DebtType,
		c.Notes,
		c.Status,
		c.Priority,
		c.RecoveryScore,
		c.RecoveryBand,
		c.DCAID,
		c.SLAContactDeadline,
		c.SLAResolutionDeadline,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *caseRepository) Update(ctx context.Context, c *domain.Case) error {
	const query = `
        UPDATE cases SET current_amount=$1, days_delinquent=$2, notes=$3, status=$4, priority=$5,
            recovery_score=$6, recovery_band=$7, dca_id=$8,
            sla_contact_deadline=$9, sla_resolution_deadline=$10,
            first_contact_date=$11, resolved_date=$12, updated_at=NOW()
        WHERE id=$13`
	cmd, err := r.pool.Exec(ctx, query,
		c.CurrentAmount,
		c.DaysDelinquent,
		c.Notes,
		c.Status,
		c.Priority,
		c.RecoveryScore,
		c.RecoveryBand,
		c.DCAID,
		c.SLAContactDeadline,
		c.SLAResolutionDeadline,
		c.FirstContactDate,
		c.ResolvedDate,
		c.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id=$1`, caseColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanCase(row)
}

func (r *caseRepository) ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DCAID != nil {
		args = append(args, *filter.DCAID)
		clauses = append(clauses, fmt.Sprintf("dca_id=$%d", len(args)))
	}
	if filter.DebtType != nil {
		args = append(args, *filter.DebtType)
		clauses = append(clauses, fmt.Sprintf("debt_type=$%d", len(args)))
	}
	if filter.MinAmount != nil {
		args = append(args, *filter.MinAmount)
		clauses = append(clauses, fmt.Sprintf("original_amount >= $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		caseColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Case, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = ANY($1) ORDER BY created_at ASC`, caseColumns)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) CountActiveForDCA(ctx context.Context, dcaID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM cases
        WHERE dca_id=$1 AND status IN ('ALLOCATED','IN_PROGRESS')`
	var count int
	err := r.pool.QueryRow(ctx, query, dcaID).Scan(&count)
	return count, err
}

func (r *caseRepository) AvgActiveCaseAgeDays(ctx context.Context, dcaID string) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (NOW() - created_at)) / 86400), 0)
        FROM cases
        WHERE dca_id=$1 AND status IN ('ALLOCATED','IN_PROGRESS')`
	var avg float64
	err := r.pool.QueryRow(ctx, query, dcaID).Scan(&avg)
	return avg, err
}

func (r *caseRepository) ListContactOverdue(ctx context.Context, now time.Time) ([]domain.Case, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM cases
        WHERE status IN ('NEW','ALLOCATED')
          AND sla_contact_deadline IS NOT NULL AND sla_contact_deadline < $1
          AND first_contact_date IS NULL`, caseColumns)
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) ListResolutionOverdue(ctx context.Context, now time.Time) ([]domain.Case, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM cases
        WHERE status IN ('NEW','ALLOCATED','IN_PROGRESS')
          AND sla_resolution_deadline IS NOT NULL AND sla_resolution_deadline < $1
          AND resolved_date IS NULL`, caseColumns)
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) ListOverdueForEscalation(ctx context.Context, threshold time.Time) ([]domain.Case, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM cases
        WHERE status IN ('ALLOCATED','IN_PROGRESS')
          AND ((sla_contact_deadline IS NOT NULL AND sla_contact_deadline < $1)
            OR (sla_resolution_deadline IS NOT NULL AND sla_resolution_deadline < $1))`, caseColumns)
	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM cases WHERE created_at >= $1 AND created_at < $2`
	var count int
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&count)
	return count, err
}

func (r *caseRepository) CountResolvedBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM cases WHERE resolved_date >= $1 AND resolved_date < $2`
	var count int
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&count)
	return count, err
}

func scanCase(row pgx.Row) (*domain.Case, error) {
	var c domain.Case
	if err := row.Scan(
		&c.ID,
		&c.AccountID,
		&c.DebtorName,
		&c.DebtorEmail,
		&c.DebtorPhone,
		&c.OriginalAmount,
		&c.CurrentAmount,
		&c.DaysDelinquent,
		&c.DebtType,
		&c.Notes,
		&c.Status,
		&c.Priority,
		&c.RecoveryScore,
		&c.RecoveryBand,
		&c.DCAID,
		&c.SLAContactDeadline,
		&c.SLAResolutionDeadline,
		&c.FirstContactDate,
		&c.ResolvedDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCases(rows pgx.Rows) ([]domain.Case, error) {
	var result []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}
