package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

// LinkCheckCandidate is one sent email claimed by the link-check sweep,
// joined with the page to fetch and the link to look for.
type LinkCheckCandidate struct {
	EmailID     int
	ProspectID  int
	ProspectURL string
	TargetURL   string
}

type EmailRepositoryInterface interface {
	Create(ctx context.Context, e *model.Email) error
	GetByID(ctx context.Context, id int) (*model.Email, error)
	ListPendingReview(ctx context.Context, offset, limit int) ([]model.Email, int, error)
	Approve(ctx context.Context, id int, editedSubject, editedBody *string, reviewer, note string) (bool, error)
	Reject(ctx context.Context, id int, reviewer, note string) (bool, error)
	MarkSent(ctx context.Context, id int, providerMessageID string) (bool, error)
	CountSentSince(ctx context.Context, since time.Time) (int, error)
	ClaimDueForLinkChecks(ctx context.Context, now time.Time, minAge, recheckAfter time.Duration) ([]LinkCheckCandidate, error)
}

type EmailRepository struct {
	DB *sql.DB
}

const emailColumns = `id, prospect_id, contact_id, campaign_id, subject, body,
    edited_subject, edited_body, status, reviewed_by, review_note, reviewed_at,
    provider_message_id, sent_at, open_count, click_count, last_opened_at,
    last_clicked_at, link_check_requested_at, created_at, updated_at`

func scanEmail(row interface{ Scan(...any) error }) (*model.Email, error) {
	var e model.Email
	err := row.Scan(
		&e.ID, &e.ProspectID, &e.ContactID, &e.CampaignID, &e.Subject, &e.Body,
		&e.EditedSubject, &e.EditedBody, &e.Status, &e.ReviewedBy, &e.ReviewNote, &e.ReviewedAt,
		&e.ProviderMessageID, &e.SentAt, &e.OpenCount, &e.ClickCount, &e.LastOpenedAt,
		&e.LastClickedAt, &e.LinkCheckRequestedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EmailRepository) Create(ctx context.Context, e *model.Email) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = model.EmailPendingReview
	}
	query := `
        INSERT INTO emails (prospect_id, contact_id, campaign_id, subject, body, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		e.ProspectID, e.ContactID, e.CampaignID, e.Subject, e.Body, e.Status,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *EmailRepository) GetByID(ctx context.Context, id int) (*model.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE id = $1`
	e, err := scanEmail(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EmailRepository) ListPendingReview(ctx context.Context, offset, limit int) ([]model.Email, int, error) {
	query := `
        SELECT ` + emailColumns + `, COUNT(*) OVER ()
        FROM emails
        WHERE status = $1
        ORDER BY created_at ASC
        OFFSET $2 LIMIT $3
    `
	rows, err := r.DB.QueryContext(ctx, query, model.EmailPendingReview, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	emails := []model.Email{}
	total := 0
	for rows.Next() {
		var e model.Email
		if err := rows.Scan(
			&e.ID, &e.ProspectID, &e.ContactID, &e.CampaignID, &e.Subject, &e.Body,
			&e.EditedSubject, &e.EditedBody, &e.Status, &e.ReviewedBy, &e.ReviewNote, &e.ReviewedAt,
			&e.ProviderMessageID, &e.SentAt, &e.OpenCount, &e.ClickCount, &e.LastOpenedAt,
			&e.LastClickedAt, &e.LinkCheckRequestedAt, &e.CreatedAt, &e.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		emails = append(emails, e)
	}
	return emails, total, rows.Err()
}

// Approve marks a pending-review email approved, storing the reviewer's
// edits. It reports false when the email was not pending review.
func (r *EmailRepository) Approve(ctx context.Context, id int, editedSubject, editedBody *string, reviewer, note string) (bool, error) {
	query := `
        UPDATE emails
        SET status = $1, edited_subject = $2, edited_body = $3,
            reviewed_by = $4, review_note = $5, reviewed_at = now(), updated_at = now()
        WHERE id = $6 AND status = $7
    `
	res, err := r.DB.ExecContext(ctx, query,
		model.EmailApproved, editedSubject, editedBody, reviewer, note,
		id, model.EmailPendingReview,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EmailRepository) Reject(ctx context.Context, id int, reviewer, note string) (bool, error) {
	query := `
        UPDATE emails
        SET status = $1, reviewed_by = $2, review_note = $3, reviewed_at = now(), updated_at = now()
        WHERE id = $4 AND status = $5
    `
	res, err := r.DB.ExecContext(ctx, query,
		model.EmailRejected, reviewer, note, id, model.EmailPendingReview,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkSent transitions an approved email to sent and stores the provider
// message id in the same statement, so the transition happens exactly once.
// A redelivered send job sees zero rows affected and no-ops.
func (r *EmailRepository) MarkSent(ctx context.Context, id int, providerMessageID string) (bool, error) {
	query := `
        UPDATE emails
        SET status = $1, provider_message_id = $2, sent_at = now(), updated_at = now()
        WHERE id = $3 AND status = $4
    `
	res, err := r.DB.ExecContext(ctx, query,
		model.EmailSent, providerMessageID, id, model.EmailApproved,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EmailRepository) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM emails WHERE status = $1 AND sent_at >= $2`
	var n int
	err := r.DB.QueryRowContext(ctx, query, model.EmailSent, since).Scan(&n)
	return n, err
}

// ClaimDueForLinkChecks stamps and returns sent emails old enough for link
// verification that have not been checked recently. The stamp lives in the
// same UPDATE as the selection, so re-running the sweep within one due
// interval claims nothing new.
func (r *EmailRepository) ClaimDueForLinkChecks(ctx context.Context, now time.Time, minAge, recheckAfter time.Duration) ([]LinkCheckCandidate, error) {
	query := `
        UPDATE emails e
        SET link_check_requested_at = $1, updated_at = $1
        FROM prospects p, campaigns c
        WHERE p.id = e.prospect_id
          AND c.id = e.campaign_id
          AND p.deleted_at IS NULL
          AND e.status = $2
          AND e.sent_at <= $3
          AND (e.link_check_requested_at IS NULL OR e.link_check_requested_at <= $4)
        RETURNING e.id, p.id, p.url, c.target_url
    `
	rows, err := r.DB.QueryContext(ctx, query,
		now, model.EmailSent, now.Add(-minAge), now.Add(-recheckAfter),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []LinkCheckCandidate{}
	for rows.Next() {
		var c LinkCheckCandidate
		if err := rows.Scan(&c.EmailID, &c.ProspectID, &c.ProspectURL, &c.TargetURL); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
