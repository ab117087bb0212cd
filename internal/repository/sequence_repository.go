package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

type SequenceRepositoryInterface interface {
	Create(ctx context.Context, s *model.Sequence) (bool, error)
	GetByID(ctx context.Context, id int) (*model.Sequence, error)
	Advance(ctx context.Context, id int, nextDue time.Time) (step, maxSteps int, advanced bool, err error)
	Complete(ctx context.Context, id int) (bool, error)
	Stop(ctx context.Context, id int, status model.SequenceStatus, reason string) (bool, error)
	StopActiveByProspect(ctx context.Context, prospectID int, status model.SequenceStatus, reason string) (int64, error)
	ClaimDueFollowups(ctx context.Context, now time.Time) ([]int, error)
	ReleaseFollowupClaims(ctx context.Context, ids []int) error
	GetByEmail(ctx context.Context, emailID int) (*model.Sequence, error)
	CreateFollowup(ctx context.Context, f *model.Followup) error
	ListFollowups(ctx context.Context, sequenceID int) ([]model.Followup, error)
}

type SequenceRepository struct {
	DB *sql.DB
}

const sequenceColumns = `id, email_id, prospect_id, contact_id, current_step, max_steps,
    next_due_at, status, stop_reason, followups_enqueued_at, created_at, updated_at`

// Create inserts a new active sequence for a sent email. The unique
// constraint on email_id makes the insert idempotent: a redelivered send
// job cannot create a second schedule. It reports false when a sequence
// already existed.
func (r *SequenceRepository) Create(ctx context.Context, s *model.Sequence) (bool, error) {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = model.SequenceActive
	}
	query := `
        INSERT INTO sequences (email_id, prospect_id, contact_id, current_step, max_steps, next_due_at, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (email_id) DO NOTHING
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query,
		s.EmailID, s.ProspectID, s.ContactID, s.CurrentStep, s.MaxSteps,
		s.NextDueAt, s.Status, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SequenceRepository) GetByID(ctx context.Context, id int) (*model.Sequence, error) {
	query := `SELECT ` + sequenceColumns + ` FROM sequences WHERE id = $1`
	var s model.Sequence
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.EmailID, &s.ProspectID, &s.ContactID, &s.CurrentStep, &s.MaxSteps,
		&s.NextDueAt, &s.Status, &s.StopReason, &s.FollowupsEnqueuedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Advance increments current_step and sets the next due time, guarded on
// the sequence still being active and under its step cap. advanced is false
// when the guard failed, which callers treat as a no-op.
func (r *SequenceRepository) Advance(ctx context.Context, id int, nextDue time.Time) (int, int, bool, error) {
	query := `
        UPDATE sequences
        SET current_step = current_step + 1, next_due_at = $1, updated_at = now()
        WHERE id = $2 AND status = $3 AND current_step < max_steps
        RETURNING current_step, max_steps
    `
	var step, maxSteps int
	err := r.DB.QueryRowContext(ctx, query, nextDue, id, model.SequenceActive).Scan(&step, &maxSteps)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return step, maxSteps, true, nil
}

// Complete moves an active sequence to completed. Terminal sequences are
// never updated.
func (r *SequenceRepository) Complete(ctx context.Context, id int) (bool, error) {
	query := `
        UPDATE sequences
        SET status = $1, next_due_at = NULL, updated_at = now()
        WHERE id = $2 AND status = $3
    `
	res, err := r.DB.ExecContext(ctx, query, model.SequenceCompleted, id, model.SequenceActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Stop moves an active sequence to the given terminal status with a reason.
func (r *SequenceRepository) Stop(ctx context.Context, id int, status model.SequenceStatus, reason string) (bool, error) {
	query := `
        UPDATE sequences
        SET status = $1, stop_reason = $2, next_due_at = NULL, updated_at = now()
        WHERE id = $3 AND status = $4
    `
	res, err := r.DB.ExecContext(ctx, query, status, reason, id, model.SequenceActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// StopActiveByProspect terminates whatever active sequence the prospect has.
// A prospect carries at most one active sequence, so this is how the action
// dispatcher stops follow-ups after a reply.
func (r *SequenceRepository) StopActiveByProspect(ctx context.Context, prospectID int, status model.SequenceStatus, reason string) (int64, error) {
	query := `
        UPDATE sequences
        SET status = $1, stop_reason = $2, next_due_at = NULL, updated_at = now()
        WHERE prospect_id = $3 AND status = $4
    `
	res, err := r.DB.ExecContext(ctx, query, status, reason, prospectID, model.SequenceActive)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClaimDueFollowups stamps and returns the ids of active sequences whose
// next follow-up is due. The stamp makes the follow-up sweep safe to invoke
// repeatedly: a sequence already claimed for the current due time is
// skipped until the worker pushes next_due_at forward.
func (r *SequenceRepository) ClaimDueFollowups(ctx context.Context, now time.Time) ([]int, error) {
	query := `
        UPDATE sequences
        SET followups_enqueued_at = $1, updated_at = $1
        WHERE status = $2 AND next_due_at <= $1
          AND (followups_enqueued_at IS NULL OR followups_enqueued_at < next_due_at)
        RETURNING id
    `
	rows, err := r.DB.QueryContext(ctx, query, now, model.SequenceActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReleaseFollowupClaims clears the enqueue stamp on the given sequences so
// the next sweep claims them again. The sweep calls it for claims whose job
// never made it onto the queue; without the release the stamp would satisfy
// the claim predicate forever and the follow-up would never be retried.
func (r *SequenceRepository) ReleaseFollowupClaims(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
        UPDATE sequences
        SET followups_enqueued_at = NULL, updated_at = now()
        WHERE id = ANY($1)
    `
	_, err := r.DB.ExecContext(ctx, query, pq.Array(ids))
	return err
}

// GetByEmail returns the follow-up schedule attached to an email, or nil
// when the email never went out.
func (r *SequenceRepository) GetByEmail(ctx context.Context, emailID int) (*model.Sequence, error) {
	query := `SELECT ` + sequenceColumns + ` FROM sequences WHERE email_id = $1`
	var s model.Sequence
	err := r.DB.QueryRowContext(ctx, query, emailID).Scan(
		&s.ID, &s.EmailID, &s.ProspectID, &s.ContactID, &s.CurrentStep, &s.MaxSteps,
		&s.NextDueAt, &s.Status, &s.StopReason, &s.FollowupsEnqueuedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SequenceRepository) CreateFollowup(ctx context.Context, f *model.Followup) error {
	f.SentAt = time.Now()
	query := `
        INSERT INTO followups (sequence_id, email_id, step, subject, body, provider_message_id, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		f.SequenceID, f.EmailID, f.Step, f.Subject, f.Body, f.ProviderMessageID, f.SentAt,
	).Scan(&f.ID)
}

func (r *SequenceRepository) ListFollowups(ctx context.Context, sequenceID int) ([]model.Followup, error) {
	query := `
        SELECT id, sequence_id, email_id, step, subject, body, provider_message_id, sent_at
        FROM followups
        WHERE sequence_id = $1
        ORDER BY step ASC
    `
	rows, err := r.DB.QueryContext(ctx, query, sequenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	followups := []model.Followup{}
	for rows.Next() {
		var f model.Followup
		if err := rows.Scan(
			&f.ID, &f.SequenceID, &f.EmailID, &f.Step, &f.Subject, &f.Body, &f.ProviderMessageID, &f.SentAt,
		); err != nil {
			return nil, err
		}
		followups = append(followups, f)
	}
	return followups, rows.Err()
}
