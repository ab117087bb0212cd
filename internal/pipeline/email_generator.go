// internal/pipeline/email_generator.go
package pipeline

import (
	"context"
	"log/slog"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// EmailGenerator consumes the email-generator queue: it drafts the outreach
// message for a prospect's primary contact and parks it for human review.
type EmailGenerator struct {
	Prospects repository.ProspectRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Campaigns repository.CampaignRepositoryInterface
	Emails    repository.EmailRepositoryInterface
	Generator ContentGenerator
	Audit     *audit.Trail
	Logger    *slog.Logger
}

func (g *EmailGenerator) Handle(ctx context.Context, job EmailGeneratorJob) error {
	prospect, err := g.Prospects.GetByID(ctx, job.ProspectID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if prospect == nil {
		return apperrors.NewValidation("prospect", job.ProspectID)
	}
	if prospect.Status != model.ProspectContactFound {
		g.Logger.Debug("email generator skipping prospect",
			slog.Int("prospect_id", prospect.ID),
			slog.String("status", string(prospect.Status)),
		)
		return nil
	}

	contact, err := g.Contacts.GetByID(ctx, job.ContactID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if contact == nil {
		return apperrors.NewValidation("contact", job.ContactID)
	}

	pc := ProspectContext{
		ProspectURL:  prospect.URL,
		Domain:       prospect.Domain,
		Kind:         prospect.Kind,
		ContactName:  contact.Name,
		ContactEmail: contact.Email,
	}
	campaign, err := g.Campaigns.GetByID(ctx, prospect.CampaignID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if campaign != nil {
		pc.CampaignName = campaign.Name
		pc.TargetURL = campaign.TargetURL
		pc.AnchorText = campaign.AnchorText
	}

	draft, err := g.Generator.GenerateOutreachEmail(ctx, pc)
	if err != nil {
		return apperrors.Transient(err)
	}

	email := &model.Email{
		ProspectID: prospect.ID,
		ContactID:  contact.ID,
		CampaignID: prospect.CampaignID,
		Subject:    draft.Subject,
		Body:       draft.Body,
		Status:     model.EmailPendingReview,
	}
	if err := g.Emails.Create(ctx, email); err != nil {
		return apperrors.Transient(err)
	}

	if _, err := g.Prospects.TransitionStatus(ctx, prospect.ID,
		[]model.ProspectStatus{model.ProspectContactFound}, model.ProspectEmailGenerated); err != nil {
		return apperrors.Transient(err)
	}

	g.Audit.Record(ctx, "email_generated", "email", email.ID, map[string]any{
		"prospect_id": prospect.ID,
		"contact_id":  contact.ID,
		"subject":     draft.Subject,
	})

	// Review is a human step; the sender queue is fed by the approve
	// operation, not here.
	return nil
}
