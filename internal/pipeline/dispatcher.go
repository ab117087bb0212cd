// internal/pipeline/dispatcher.go
package pipeline

import (
	"context"
	"log/slog"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// Dispatcher maps a classified reply onto its side effects: stopping the
// prospect's follow-up sequence, advancing the prospect, and blocklisting
// hostile senders. The switch is exhaustive over the closed classification
// enum; a new category has to be handled here to compile into behavior.
type Dispatcher struct {
	Sequences repository.SequenceRepositoryInterface
	Prospects repository.ProspectRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Blocklist repository.BlocklistRepositoryInterface
	Audit     *audit.Trail
	Logger    *slog.Logger
}

func (d *Dispatcher) Apply(ctx context.Context, resp *model.Response, category model.Classification, sentiment string) error {
	switch category {
	case model.ClassificationPositive:
		stopped, err := d.Sequences.StopActiveByProspect(ctx, resp.ProspectID,
			model.SequenceCompleted, "positive reply")
		if err != nil {
			return apperrors.Transient(err)
		}
		if _, err := d.Prospects.TransitionStatus(ctx, resp.ProspectID,
			[]model.ProspectStatus{model.ProspectSent}, model.ProspectResponded); err != nil {
			return apperrors.Transient(err)
		}
		d.Audit.Record(ctx, "reply_positive", "response", resp.ID, map[string]any{
			"prospect_id":       resp.ProspectID,
			"sequences_stopped": stopped,
		})

	case model.ClassificationDeclined, model.ClassificationBounce:
		stopped, err := d.Sequences.StopActiveByProspect(ctx, resp.ProspectID,
			model.SequenceStopped, string(category)+" reply")
		if err != nil {
			return apperrors.Transient(err)
		}
		d.Audit.Record(ctx, "reply_"+string(category), "response", resp.ID, map[string]any{
			"prospect_id":       resp.ProspectID,
			"sequences_stopped": stopped,
		})

	case model.ClassificationNegative:
		stopped, err := d.Sequences.StopActiveByProspect(ctx, resp.ProspectID,
			model.SequenceStopped, "negative reply")
		if err != nil {
			return apperrors.Transient(err)
		}
		details := map[string]any{
			"prospect_id":       resp.ProspectID,
			"sequences_stopped": stopped,
			"sentiment":         sentiment,
		}
		if sentiment == model.SentimentNegative {
			contact, err := d.Contacts.GetByID(ctx, resp.ContactID)
			if err != nil {
				return apperrors.Transient(err)
			}
			if contact != nil {
				if err := d.Blocklist.Add(ctx, contact.Email, "hostile reply",
					"blocklisted by response dispatcher"); err != nil {
					return apperrors.Transient(err)
				}
				details["blocklisted"] = contact.Email
			}
		}
		d.Audit.Record(ctx, "reply_negative", "response", resp.ID, details)

	case model.ClassificationNeutral, model.ClassificationOutOfOffice:
		// Sequence keeps running; the next follow-up may still land.
		d.Logger.Debug("reply requires no action",
			slog.Int("response_id", resp.ID),
			slog.String("category", string(category)),
		)
	}
	return nil
}
