package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

type ResponseRepositoryInterface interface {
	Create(ctx context.Context, resp *model.Response) error
	GetByID(ctx context.Context, id int) (*model.Response, error)
	SetClassification(ctx context.Context, id int, category model.Classification, sentiment string, confidence float64, summary string) error
	MarkHandled(ctx context.Context, id int) error
	ClearHandled(ctx context.Context, id int) error
}

type ResponseRepository struct {
	DB *sql.DB
}

func (r *ResponseRepository) Create(ctx context.Context, resp *model.Response) error {
	now := time.Now()
	resp.CreatedAt = now
	resp.UpdatedAt = now
	query := `
        INSERT INTO responses (email_id, prospect_id, contact_id, body, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		resp.EmailID, resp.ProspectID, resp.ContactID, resp.Body, resp.CreatedAt, resp.UpdatedAt,
	).Scan(&resp.ID)
}

func (r *ResponseRepository) GetByID(ctx context.Context, id int) (*model.Response, error) {
	query := `
        SELECT id, email_id, prospect_id, contact_id, body, category, sentiment,
               confidence, summary, handled, created_at, updated_at
        FROM responses
        WHERE id = $1
    `
	var resp model.Response
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&resp.ID, &resp.EmailID, &resp.ProspectID, &resp.ContactID, &resp.Body,
		&resp.Category, &resp.Sentiment, &resp.Confidence, &resp.Summary,
		&resp.Handled, &resp.CreatedAt, &resp.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &resp, nil
}

func (r *ResponseRepository) SetClassification(ctx context.Context, id int, category model.Classification, sentiment string, confidence float64, summary string) error {
	query := `
        UPDATE responses
        SET category = $1, sentiment = $2, confidence = $3, summary = $4, updated_at = now()
        WHERE id = $5
    `
	_, err := r.DB.ExecContext(ctx, query, category, sentiment, confidence, summary, id)
	return err
}

func (r *ResponseRepository) MarkHandled(ctx context.Context, id int) error {
	query := `UPDATE responses SET handled = TRUE, updated_at = now() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}

// ClearHandled reopens a response so a reclassification job will process it.
func (r *ResponseRepository) ClearHandled(ctx context.Context, id int) error {
	query := `UPDATE responses SET handled = FALSE, updated_at = now() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}
