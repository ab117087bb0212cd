// internal/pipeline/email_sender.go
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

// EmailSender consumes the email-sender queue. It is the only stage gated
// by the rate governor: a send slot is reserved before the provider call,
// and cap exhaustion surfaces as a retryable error so the job backs off
// instead of being dropped.
type EmailSender struct {
	Emails    repository.EmailRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Prospects repository.ProspectRepositoryInterface
	Sequences repository.SequenceRepositoryInterface
	Blocklist repository.BlocklistRepositoryInterface
	Governor  *sending.Governor
	Transport sending.Transport
	Audit     *audit.Trail
	Logger    *slog.Logger

	FollowupMaxSteps int
	FollowupInterval time.Duration
}

func (s *EmailSender) Handle(ctx context.Context, job EmailSenderJob) error {
	email, err := s.Emails.GetByID(ctx, job.EmailID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if email == nil {
		return apperrors.NewValidation("email", job.EmailID)
	}
	if email.Status == model.EmailSent {
		// A prior attempt completed the send; the redelivery is a no-op.
		s.Logger.Debug("email already sent", slog.Int("email_id", email.ID))
		return nil
	}
	if email.Status != model.EmailApproved {
		s.Logger.Debug("email sender skipping email",
			slog.Int("email_id", email.ID),
			slog.String("status", string(email.Status)),
		)
		return nil
	}

	contact, err := s.Contacts.GetByID(ctx, email.ContactID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if contact == nil {
		return apperrors.NewValidation("contact", email.ContactID)
	}

	blocked, err := s.Blocklist.Contains(ctx, contact.Email)
	if err != nil {
		return apperrors.Transient(err)
	}
	if blocked {
		s.Audit.Record(ctx, "send_skipped_blocklisted", "email", email.ID, map[string]any{
			"contact_email": contact.Email,
		})
		return nil
	}

	if err := s.Governor.Reserve(ctx); err != nil {
		return err
	}

	result, err := s.Transport.Send(ctx, contact.Email, email.OutboundSubject(), email.OutboundBody())
	if err != nil {
		if relErr := s.Governor.Release(ctx); relErr != nil {
			s.Logger.Warn("failed to release send slot", slog.Any("error", relErr))
		}
		return apperrors.Transient(err)
	}

	marked, err := s.Emails.MarkSent(ctx, email.ID, result.ProviderMessageID)
	if err != nil {
		// The provider accepted the message but the status update failed.
		// The retry re-sends: the recipient can get a duplicate, though the
		// email row still moves to sent exactly once.
		return apperrors.Transient(err)
	}
	if !marked {
		// Lost a race with a concurrent redelivery that sent first. The
		// provider call above did go out; flag it rather than hide it.
		s.Logger.Warn("email sent concurrently by another worker",
			slog.Int("email_id", email.ID))
		return nil
	}

	nextDue := time.Now().Add(s.FollowupInterval)
	seq := &model.Sequence{
		EmailID:     email.ID,
		ProspectID:  email.ProspectID,
		ContactID:   email.ContactID,
		CurrentStep: 0,
		MaxSteps:    s.FollowupMaxSteps,
		NextDueAt:   &nextDue,
		Status:      model.SequenceActive,
	}
	created, err := s.Sequences.Create(ctx, seq)
	if err != nil {
		return apperrors.Transient(err)
	}
	if !created {
		s.Logger.Debug("sequence already exists", slog.Int("email_id", email.ID))
	}

	if _, err := s.Prospects.TransitionStatus(ctx, email.ProspectID,
		[]model.ProspectStatus{model.ProspectApproved, model.ProspectEmailGenerated},
		model.ProspectSent); err != nil {
		return apperrors.Transient(err)
	}

	s.Audit.Record(ctx, "email_sent", "email", email.ID, map[string]any{
		"prospect_id":         email.ProspectID,
		"contact_email":       contact.Email,
		"provider_message_id": result.ProviderMessageID,
	})
	return nil
}
