package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

// ProspectRepositoryInterface defines the prospect persistence methods used
// by the pipeline and services.
type ProspectRepositoryInterface interface {
	Create(ctx context.Context, p *model.Prospect) error
	GetByID(ctx context.Context, id int) (*model.Prospect, error)
	List(ctx context.Context, offset, limit int, campaignID int, status string) ([]model.Prospect, int, error)
	TransitionStatus(ctx context.Context, id int, from []model.ProspectStatus, to model.ProspectStatus) (bool, error)
	MarkConverted(ctx context.Context, id int) error
	SoftDelete(ctx context.Context, id int) error
	Restore(ctx context.Context, id int) error
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context, campaignID int) (map[string]int, error)
}

type ProspectRepository struct {
	DB *sql.DB
}

const prospectColumns = `id, campaign_id, url, domain, kind, status, quality_score, deleted_at, created_at, updated_at`

func scanProspect(row interface{ Scan(...any) error }) (*model.Prospect, error) {
	var p model.Prospect
	err := row.Scan(
		&p.ID, &p.CampaignID, &p.URL, &p.Domain, &p.Kind, &p.Status,
		&p.QualityScore, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProspectRepository) Create(ctx context.Context, p *model.Prospect) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = model.ProspectNew
	}
	query := `
        INSERT INTO prospects (campaign_id, url, domain, kind, status, quality_score, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		p.CampaignID, p.URL, p.Domain, p.Kind, p.Status, p.QualityScore,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *ProspectRepository) GetByID(ctx context.Context, id int) (*model.Prospect, error) {
	query := `SELECT ` + prospectColumns + ` FROM prospects WHERE id = $1 AND deleted_at IS NULL`
	p, err := scanProspect(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *ProspectRepository) List(ctx context.Context, offset, limit int, campaignID int, status string) ([]model.Prospect, int, error) {
	query := `
        SELECT ` + prospectColumns + `, COUNT(*) OVER ()
        FROM prospects
        WHERE deleted_at IS NULL
          AND ($1 = 0 OR campaign_id = $1)
          AND ($2 = '' OR status = $2)
        ORDER BY quality_score DESC, created_at DESC
        OFFSET $3 LIMIT $4
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	prospects := []model.Prospect{}
	total := 0
	for rows.Next() {
		var p model.Prospect
		if err := rows.Scan(
			&p.ID, &p.CampaignID, &p.URL, &p.Domain, &p.Kind, &p.Status,
			&p.QualityScore, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		prospects = append(prospects, p)
	}
	return prospects, total, rows.Err()
}

// TransitionStatus moves a prospect from one of the expected statuses to
// the target status. It reports false when the prospect was not in an
// expected state, which callers treat as a stale-job no-op.
func (r *ProspectRepository) TransitionStatus(ctx context.Context, id int, from []model.ProspectStatus, to model.ProspectStatus) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}
	query := `
        UPDATE prospects
        SET status = $1, updated_at = now()
        WHERE id = $2 AND status = ANY($3) AND deleted_at IS NULL
    `
	res, err := r.DB.ExecContext(ctx, query, to, id, pq.Array(fromStrs))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkConverted sets the prospect to converted from any non-converted
// state. Re-running a link check after conversion never regresses the
// status.
func (r *ProspectRepository) MarkConverted(ctx context.Context, id int) error {
	query := `
        UPDATE prospects
        SET status = $1, updated_at = now()
        WHERE id = $2 AND status <> $1 AND deleted_at IS NULL
    `
	_, err := r.DB.ExecContext(ctx, query, model.ProspectConverted, id)
	return err
}

func (r *ProspectRepository) SoftDelete(ctx context.Context, id int) error {
	query := `UPDATE prospects SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

func (r *ProspectRepository) Restore(ctx context.Context, id int) error {
	query := `UPDATE prospects SET deleted_at = NULL, updated_at = now() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

// PurgeTrashedBefore physically removes prospects soft-deleted before the
// cutoff. Dependent rows are removed first so the foreign keys hold.
func (r *ProspectRepository) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	deps := []string{
		`DELETE FROM link_checks WHERE prospect_id IN (SELECT id FROM prospects WHERE deleted_at < $1)`,
		`DELETE FROM followups WHERE sequence_id IN (SELECT id FROM sequences WHERE prospect_id IN (SELECT id FROM prospects WHERE deleted_at < $1))`,
		`DELETE FROM responses WHERE prospect_id IN (SELECT id FROM prospects WHERE deleted_at < $1)`,
		`DELETE FROM sequences WHERE prospect_id IN (SELECT id FROM prospects WHERE deleted_at < $1)`,
		`DELETE FROM emails WHERE prospect_id IN (SELECT id FROM prospects WHERE deleted_at < $1)`,
		`DELETE FROM contacts WHERE prospect_id IN (SELECT id FROM prospects WHERE deleted_at < $1)`,
	}
	for _, q := range deps {
		if _, err := tx.ExecContext(ctx, q, cutoff); err != nil {
			return 0, err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM prospects WHERE deleted_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// CountByStatus returns prospect counts grouped by status for one campaign,
// plus a "total" key.
func (r *ProspectRepository) CountByStatus(ctx context.Context, campaignID int) (map[string]int, error) {
	query := `
        SELECT status, COUNT(*)
        FROM prospects
        WHERE campaign_id = $1 AND deleted_at IS NULL
        GROUP BY status
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"total": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}
