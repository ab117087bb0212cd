package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

type AuditRepositoryInterface interface {
	Insert(ctx context.Context, entry *model.AuditEntry) error
}

type AuditRepository struct {
	DB *sql.DB
}

// Insert appends one entry to the audit trail. There is no update or
// delete path.
func (r *AuditRepository) Insert(ctx context.Context, entry *model.AuditEntry) error {
	entry.CreatedAt = time.Now()
	query := `
        INSERT INTO audit_log (action, entity_type, entity_id, details, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		entry.Action, entry.EntityType, entry.EntityID, entry.Details, entry.CreatedAt,
	).Scan(&entry.ID)
}
