package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// DCARepository encapsulates agency persistence.
type DCARepository interface {
	Create(ctx context.Context, dca *domain.DCA) error
	Update(ctx context.Context, dca *domain.DCA) error
	GetByID(ctx context.Context, id string) (*domain.DCA, error)
	List(ctx context.Context) ([]domain.DCA, error)
	ListAvailable(ctx context.Context) ([]domain.DCA, error)
}

type dcaRepository struct {
	pool *pgxpool.Pool
}

// NewDCARepository instantiates repository.
func NewDCARepository(pool *pgxpool.Pool) DCARepository {
	return &dcaRepository{pool: pool}
}

const dcaColumns = `id, name, code, contact_person, email, performance_score,
       recovery_rate, max_concurrent_cases, is_active, is_accepting_cases,
       specializations, created_at, updated_at`

func (r *dcaRepository) Create(ctx context.Context, dca *domain.DCA) error {
	const query = `
        INSERT INTO dcas (id, name, code, contact_person, email, performance_score,
            recovery_rate, max_concurrent_cases, is_active, is_accepting_cases, specializations)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		dca.ID,
		dca.Name,
		dca.Code,
		dca.ContactPerson,
		dca.Email,
		dca.PerformanceScore,
		dca.RecoveryRate,
		dca.MaxConcurrentCases,
		dca.IsActive,
		dca.IsAcceptingCases,
		dca.Specializations,
	).Scan(&dca.CreatedAt, &dca.UpdatedAt)
}

func (r *dcaRepository) Update(ctx context.Context, dca *domain.DCA) error {
	const query = `
        UPDATE dcas SET name=$1, contact_person=$2, email=$3, performance_score=$4,
            recovery_rate=$5, max_concurrent_cases=$6, is_active=$7,
            is_accepting_cases=$8, specializations=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		dca.Name,
		dca.ContactPerson,
		dca.Email,
		dca.PerformanceScore,
		dca.RecoveryRate,
		dca.MaxConcurrentCases,
		dca.IsActive,
		dca.IsAcceptingCases,
		dca.Specializations,
		dca.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *dcaRepository) GetByID(ctx context.Context, id string) (*domain.DCA, error) {
	query := `SELECT ` + dcaColumns + ` FROM dcas WHERE id=$1`
	return scanDCA(r.pool.QueryRow(ctx, query, id))
}

func (r *dcaRepository) List(ctx context.Context) ([]domain.DCA, error) {
	query := `SELECT ` + dcaColumns + ` FROM dcas ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDCAs(rows)
}

// ListAvailable returns active agencies currently accepting cases, in
// stable creation order so allocation tie-breaks are deterministic.
func (r *dcaRepository) ListAvailable(ctx context.Context) ([]domain.DCA, error) {
	query := `SELECT ` + dcaColumns + ` FROM dcas
        WHERE is_active AND is_accepting_cases ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDCAs(rows)
}

func scanDCA(row pgx.Row) (*domain.DCA, error) {
	var dca domain.DCA
	if err := row.Scan(
		&dca.ID,
		&dca.Name,
		&dca.Code,
		&dca.ContactPerson,
		&dca.Email,
		&dca.PerformanceScore,
		&dca.RecoveryRate,
		&dca.MaxConcurrentCases,
		&dca.IsActive,
		&dca.IsAcceptingCases,
		&dca.Specializations,
		&dca.CreatedAt,
		&dca.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dca, nil
}

func scanDCAs(rows pgx.Rows) ([]domain.DCA, error) {
	var result []domain.DCA
	for rows.Next() {
		dca, err := scanDCA(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *dca)
	}
	return result, rows.Err()
}
