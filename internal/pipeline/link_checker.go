// internal/pipeline/link_checker.go
package pipeline

import (
	"context"
	"log/slog"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// LinkChecker consumes the link-checker queue: it fetches the prospect page
// and scans it for the campaign's target link. Finding it means the
// outreach converted.
type LinkChecker struct {
	Emails     repository.EmailRepositoryInterface
	Prospects  repository.ProspectRepositoryInterface
	LinkChecks repository.LinkCheckRepositoryInterface
	Fetcher    LinkFetcher
	Audit      *audit.Trail
	Logger     *slog.Logger
}

func (l *LinkChecker) Handle(ctx context.Context, job LinkCheckerJob) error {
	email, err := l.Emails.GetByID(ctx, job.EmailID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if email == nil {
		return apperrors.NewValidation("email", job.EmailID)
	}
	if email.Status != model.EmailSent {
		l.Logger.Debug("link check for unsent email", slog.Int("email_id", email.ID))
		return nil
	}

	html, status, err := l.Fetcher.Fetch(ctx, job.ProspectURL)
	if err != nil {
		// The failed fetch is itself a check result; the queue retries
		// within the attempt cap.
		check := &model.LinkCheck{
			EmailID:    email.ID,
			ProspectID: email.ProspectID,
			TargetURL:  job.TargetURL,
			Found:      false,
			HTTPStatus: status,
			Error:      err.Error(),
		}
		if createErr := l.LinkChecks.Create(ctx, check); createErr != nil {
			l.Logger.Warn("failed to store failed link check", slog.Any("error", createErr))
		}
		return apperrors.Transient(err)
	}

	found := ContainsLink(html, job.TargetURL)
	check := &model.LinkCheck{
		EmailID:    email.ID,
		ProspectID: email.ProspectID,
		TargetURL:  job.TargetURL,
		Found:      found,
		HTTPStatus: status,
	}
	if err := l.LinkChecks.Create(ctx, check); err != nil {
		return apperrors.Transient(err)
	}

	if found {
		if err := l.Prospects.MarkConverted(ctx, email.ProspectID); err != nil {
			return apperrors.Transient(err)
		}
		l.Audit.Record(ctx, "link_verified", "prospect", email.ProspectID, map[string]any{
			"email_id":   email.ID,
			"target_url": job.TargetURL,
		})
	}
	return nil
}
