// internal/pipeline/contact_finder.go
package pipeline

import (
	"context"
	"log/slog"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// ContactFinder consumes the contact-finder queue: it asks the discovery
// service for addresses at the prospect's domain, stores them, and hands the
// prospect to the email generator.
type ContactFinder struct {
	Prospects  repository.ProspectRepositoryInterface
	Contacts   repository.ContactRepositoryInterface
	Discoverer ContactDiscoverer
	Queue      queue.Queue
	Audit      *audit.Trail
	Logger     *slog.Logger
}

func (f *ContactFinder) Handle(ctx context.Context, job ContactFinderJob) error {
	prospect, err := f.Prospects.GetByID(ctx, job.ProspectID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if prospect == nil {
		return apperrors.NewValidation("prospect", job.ProspectID)
	}
	if prospect.Status != model.ProspectNew {
		// A prior attempt (or another worker) already moved it on.
		f.Logger.Debug("contact finder skipping prospect",
			slog.Int("prospect_id", prospect.ID),
			slog.String("status", string(prospect.Status)),
		)
		return nil
	}

	discovered, err := f.Discoverer.Discover(ctx, prospect.Domain, prospect.URL)
	if err != nil {
		return apperrors.Transient(err)
	}

	if len(discovered) == 0 {
		if _, err := f.Prospects.TransitionStatus(ctx, prospect.ID,
			[]model.ProspectStatus{model.ProspectNew}, model.ProspectNoContact); err != nil {
			return apperrors.Transient(err)
		}
		f.Audit.Record(ctx, "contact_finding_empty", "prospect", prospect.ID, map[string]any{
			"domain": prospect.Domain,
		})
		return nil
	}

	var primary *model.Contact
	for i, dc := range discovered {
		contact := &model.Contact{
			ProspectID: prospect.ID,
			Email:      dc.Email,
			Name:       dc.Name,
			Role:       dc.Role,
			Confidence: dc.Confidence,
			IsPrimary:  i == 0,
		}
		if err := f.Contacts.Create(ctx, contact); err != nil {
			return apperrors.Transient(err)
		}
		if i == 0 {
			primary = contact
		}
	}

	moved, err := f.Prospects.TransitionStatus(ctx, prospect.ID,
		[]model.ProspectStatus{model.ProspectNew}, model.ProspectContactFound)
	if err != nil {
		return apperrors.Transient(err)
	}
	if !moved {
		f.Logger.Debug("prospect moved concurrently, not enqueueing generator",
			slog.Int("prospect_id", prospect.ID))
		return nil
	}

	f.Audit.Record(ctx, "contact_found", "prospect", prospect.ID, map[string]any{
		"contact_id": primary.ID,
		"email":      primary.Email,
		"count":      len(discovered),
	})

	next := EmailGeneratorJob{
		ProspectID: prospect.ID,
		ContactID:  primary.ID,
		CampaignID: prospect.CampaignID,
	}
	if err := f.Queue.Enqueue(ctx, QueueEmailGenerator, next); err != nil {
		return apperrors.Transient(err)
	}
	return nil
}
