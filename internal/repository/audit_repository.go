package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recovery-service/internal/domain"
)

// AuditRepository stores immutable audit trail entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByEntity(ctx context.Context, entityType domain.AuditEntityType, entityID string, limit, offset int) ([]domain.AuditLog, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (id, entity_type, entity_id, action, old_values, new_values, actor_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING timestamp`
	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.OldValues,
		entry.NewValues,
		entry.ActorID,
	).Scan(&entry.Timestamp)
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType domain.AuditEntityType, entityID string, limit, offset int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, entity_type, entity_id, action, old_values, new_values, actor_id, timestamp
        FROM audit_logs WHERE entity_type=$1 AND entity_id=$2
        ORDER BY timestamp DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.OldValues,
			&entry.NewValues,
			&entry.ActorID,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
