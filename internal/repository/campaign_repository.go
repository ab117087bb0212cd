package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

// CampaignRepositoryInterface defines the campaign persistence methods used
// by services.
type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	List(ctx context.Context, offset, limit int, status string) ([]model.Campaign, int, error)
	UpdateStatus(ctx context.Context, id int, status string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO campaigns (name, target_url, anchor_text, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		c.Name, c.TargetURL, c.AnchorText, c.Status, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `
        SELECT id, name, target_url, anchor_text, status, created_at, updated_at
        FROM campaigns
        WHERE id = $1
    `
	var c model.Campaign
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.TargetURL, &c.AnchorText, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context, offset, limit int, status string) ([]model.Campaign, int, error) {
	query := `
        SELECT id, name, target_url, anchor_text, status, created_at, updated_at,
               COUNT(*) OVER ()
        FROM campaigns
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        OFFSET $2 LIMIT $3
    `
	rows, err := r.DB.QueryContext(ctx, query, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	total := 0
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(
			&c.ID, &c.Name, &c.TargetURL, &c.AnchorText, &c.Status,
			&c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	query := `UPDATE campaigns SET status = $1, updated_at = now() WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, status, id)
	return err
}
