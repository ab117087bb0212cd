package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

type LinkCheckRepositoryInterface interface {
	Create(ctx context.Context, lc *model.LinkCheck) error
	ListByEmail(ctx context.Context, emailID int) ([]model.LinkCheck, error)
}

type LinkCheckRepository struct {
	DB *sql.DB
}

func (r *LinkCheckRepository) Create(ctx context.Context, lc *model.LinkCheck) error {
	lc.CheckedAt = time.Now()
	query := `
        INSERT INTO link_checks (email_id, prospect_id, target_url, found, http_status, error, checked_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		lc.EmailID, lc.ProspectID, lc.TargetURL, lc.Found, lc.HTTPStatus, lc.Error, lc.CheckedAt,
	).Scan(&lc.ID)
}

func (r *LinkCheckRepository) ListByEmail(ctx context.Context, emailID int) ([]model.LinkCheck, error) {
	query := `
        SELECT id, email_id, prospect_id, target_url, found, http_status, error, checked_at
        FROM link_checks
        WHERE email_id = $1
        ORDER BY checked_at DESC
    `
	rows, err := r.DB.QueryContext(ctx, query, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checks := []model.LinkCheck{}
	for rows.Next() {
		var lc model.LinkCheck
		if err := rows.Scan(
			&lc.ID, &lc.EmailID, &lc.ProspectID, &lc.TargetURL, &lc.Found,
			&lc.HTTPStatus, &lc.Error, &lc.CheckedAt,
		); err != nil {
			return nil, err
		}
		checks = append(checks, lc)
	}
	return checks, rows.Err()
}
