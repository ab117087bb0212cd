// internal/pipeline/followup.go
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
	"github.com/unclebandit/linkreach-backend/internal/sending"
)

// FollowupWorker consumes the followup queue. Stopping a sequence does not
// recall an already-enqueued job, so the worker re-verifies the sequence is
// still active and treats a stale job as a successful no-op.
type FollowupWorker struct {
	Sequences repository.SequenceRepositoryInterface
	Emails    repository.EmailRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Blocklist repository.BlocklistRepositoryInterface
	Generator ContentGenerator
	Transport sending.Transport
	Audit     *audit.Trail
	Logger    *slog.Logger

	Interval time.Duration
}

func (w *FollowupWorker) Handle(ctx context.Context, job FollowupJob) error {
	seq, err := w.Sequences.GetByID(ctx, job.SequenceID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if seq == nil {
		return apperrors.NewValidation("sequence", job.SequenceID)
	}
	if seq.Status.Terminal() {
		w.Logger.Debug("followup for inactive sequence",
			slog.Int("sequence_id", seq.ID),
			slog.String("status", string(seq.Status)),
		)
		return nil
	}
	if seq.CurrentStep >= seq.MaxSteps {
		// All steps already went out; close the schedule.
		if _, err := w.Sequences.Complete(ctx, seq.ID); err != nil {
			return apperrors.Transient(err)
		}
		return nil
	}

	email, err := w.Emails.GetByID(ctx, seq.EmailID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if email == nil {
		return apperrors.NewValidation("email", seq.EmailID)
	}
	contact, err := w.Contacts.GetByID(ctx, seq.ContactID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if contact == nil {
		return apperrors.NewValidation("contact", seq.ContactID)
	}

	blocked, err := w.Blocklist.Contains(ctx, contact.Email)
	if err != nil {
		return apperrors.Transient(err)
	}
	if blocked {
		if _, err := w.Sequences.Stop(ctx, seq.ID, model.SequenceStopped, "recipient blocklisted"); err != nil {
			return apperrors.Transient(err)
		}
		w.Audit.Record(ctx, "sequence_stopped", "sequence", seq.ID, map[string]any{
			"reason": "recipient blocklisted",
		})
		return nil
	}

	step := seq.CurrentStep + 1
	draft, err := w.Generator.GenerateFollowup(ctx,
		email.OutboundSubject(), email.OutboundBody(), contact.Name, step)
	if err != nil {
		return apperrors.Transient(err)
	}

	result, err := w.Transport.Send(ctx, contact.Email, draft.Subject, draft.Body)
	if err != nil {
		return apperrors.Transient(err)
	}

	followup := &model.Followup{
		SequenceID:        seq.ID,
		EmailID:           seq.EmailID,
		Step:              step,
		Subject:           draft.Subject,
		Body:              draft.Body,
		ProviderMessageID: &result.ProviderMessageID,
	}
	if err := w.Sequences.CreateFollowup(ctx, followup); err != nil {
		return apperrors.Transient(err)
	}

	nextDue := time.Now().Add(w.Interval)
	newStep, maxSteps, advanced, err := w.Sequences.Advance(ctx, seq.ID, nextDue)
	if err != nil {
		return apperrors.Transient(err)
	}
	if !advanced {
		// Stopped between the send and the bookkeeping; the message went
		// out, the schedule stays terminal.
		w.Logger.Debug("sequence no longer advanceable", slog.Int("sequence_id", seq.ID))
		return nil
	}
	if newStep >= maxSteps {
		if _, err := w.Sequences.Complete(ctx, seq.ID); err != nil {
			return apperrors.Transient(err)
		}
	}

	w.Audit.Record(ctx, "followup_sent", "sequence", seq.ID, map[string]any{
		"step":                step,
		"of":                  maxSteps,
		"provider_message_id": result.ProviderMessageID,
	})
	return nil
}
