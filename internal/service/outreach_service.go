// internal/service/outreach_service.go
package service

import (
	"context"
	"fmt"

	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/pipeline"
	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// OutreachService is the API-facing entry point into the pipeline: it
// enqueues stage jobs, runs sweeps on demand, and handles the human review
// actions that gate sending.
type OutreachService struct {
	ProspectRepo  repository.ProspectRepositoryInterface
	EmailRepo     repository.EmailRepositoryInterface
	ResponseRepo  repository.ResponseRepositoryInterface
	SequenceRepo  repository.SequenceRepositoryInterface
	LinkCheckRepo repository.LinkCheckRepositoryInterface
	Queue         queue.Queue
	Sweeps        *pipeline.Sweeps
	Audit         *audit.Trail
}

// EnqueueContactFinding kicks off the pipeline for a prospect.
func (s *OutreachService) EnqueueContactFinding(ctx context.Context, prospectID int) error {
	p, err := s.ProspectRepo.GetByID(ctx, prospectID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("prospect not found")
	}
	if p.Status != model.ProspectNew {
		return fmt.Errorf("contact finding requires status new, prospect is %s", p.Status)
	}
	return s.Queue.Enqueue(ctx, pipeline.QueueContactFinder, pipeline.ContactFinderJob{ProspectID: prospectID})
}

type ReviewDecision struct {
	Reviewer      string  `json:"reviewer"`
	Note          string  `json:"note"`
	EditedSubject *string `json:"edited_subject"`
	EditedBody    *string `json:"edited_body"`
}

// ApproveEmail approves a pending-review email, stores the reviewer's
// edits, moves the prospect along, and enqueues the send job. Sending
// itself stays asynchronous so the rate governor can pace it.
func (s *OutreachService) ApproveEmail(ctx context.Context, emailID int, decision ReviewDecision) (*model.Email, error) {
	e, err := s.EmailRepo.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("email not found")
	}

	ok, err := s.EmailRepo.Approve(ctx, emailID, decision.EditedSubject, decision.EditedBody, decision.Reviewer, decision.Note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("email cannot be approved in status: %s", e.Status)
	}

	if _, err := s.ProspectRepo.TransitionStatus(ctx, e.ProspectID,
		[]model.ProspectStatus{model.ProspectEmailGenerated}, model.ProspectApproved); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, "email_approved", "email", emailID, map[string]any{
		"reviewer": decision.Reviewer,
		"edited":   decision.EditedSubject != nil || decision.EditedBody != nil,
	})

	if err := s.Queue.Enqueue(ctx, pipeline.QueueEmailSender, pipeline.EmailSenderJob{EmailID: emailID}); err != nil {
		return nil, fmt.Errorf("email approved but send job not enqueued: %w", err)
	}

	return s.EmailRepo.GetByID(ctx, emailID)
}

// RejectEmail rejects a pending-review email and parks the prospect in the
// rejected state. Nothing is enqueued; rejection ends the pipeline for this
// email.
func (s *OutreachService) RejectEmail(ctx context.Context, emailID int, decision ReviewDecision) (*model.Email, error) {
	e, err := s.EmailRepo.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("email not found")
	}

	ok, err := s.EmailRepo.Reject(ctx, emailID, decision.Reviewer, decision.Note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("email cannot be rejected in status: %s", e.Status)
	}

	if _, err := s.ProspectRepo.TransitionStatus(ctx, e.ProspectID,
		[]model.ProspectStatus{model.ProspectEmailGenerated}, model.ProspectRejected); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, "email_rejected", "email", emailID, map[string]any{
		"reviewer": decision.Reviewer,
		"note":     decision.Note,
	})

	return s.EmailRepo.GetByID(ctx, emailID)
}

// ListPendingReview returns the review inbox, oldest first.
func (s *OutreachService) ListPendingReview(ctx context.Context, page, pageSize int) ([]model.Email, map[string]int, error) {
	offset, pageSize, page := paginate(page, pageSize)
	emails, total, err := s.EmailRepo.ListPendingReview(ctx, offset, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return emails, pagination(page, pageSize, total), nil
}

// EmailDetails is an email plus everything that happened after it went out:
// its follow-up schedule and the link verification history.
type EmailDetails struct {
	model.Email
	Sequence   *model.Sequence   `json:"sequence,omitempty"`
	Followups  []model.Followup  `json:"followups"`
	LinkChecks []model.LinkCheck `json:"link_checks"`
}

func (s *OutreachService) GetEmailDetails(ctx context.Context, emailID int) (*EmailDetails, error) {
	e, err := s.EmailRepo.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("email not found")
	}

	details := &EmailDetails{Email: *e}

	details.Sequence, err = s.SequenceRepo.GetByEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if details.Sequence != nil {
		details.Followups, err = s.SequenceRepo.ListFollowups(ctx, details.Sequence.ID)
		if err != nil {
			return nil, err
		}
	}

	details.LinkChecks, err = s.LinkCheckRepo.ListByEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// RecordResponse stores an inbound reply against the email it answers and
// enqueues classification.
func (s *OutreachService) RecordResponse(ctx context.Context, emailID int, body string) (*model.Response, error) {
	e, err := s.EmailRepo.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("email not found")
	}
	if e.Status != model.EmailSent {
		return nil, fmt.Errorf("responses can only be recorded against sent emails")
	}

	resp := &model.Response{
		EmailID:    emailID,
		ProspectID: e.ProspectID,
		ContactID:  e.ContactID,
		Body:       body,
	}
	if err := s.ResponseRepo.Create(ctx, resp); err != nil {
		return nil, err
	}

	if err := s.Queue.Enqueue(ctx, pipeline.QueueResponseClassifier,
		pipeline.ResponseClassifierJob{ResponseID: resp.ID}); err != nil {
		return nil, fmt.Errorf("response recorded but classification not enqueued: %w", err)
	}
	return resp, nil
}

// EnqueueReclassification reopens a handled response and queues it for
// classification again, for when a human disagrees with the verdict.
func (s *OutreachService) EnqueueReclassification(ctx context.Context, responseID int) error {
	resp, err := s.ResponseRepo.GetByID(ctx, responseID)
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("response not found")
	}
	if err := s.ResponseRepo.ClearHandled(ctx, responseID); err != nil {
		return err
	}
	return s.Queue.Enqueue(ctx, pipeline.QueueResponseClassifier,
		pipeline.ResponseClassifierJob{ResponseID: responseID})
}

// RunFollowupSweepNow triggers the follow-up sweep outside its schedule.
func (s *OutreachService) RunFollowupSweepNow(ctx context.Context) (int, error) {
	return s.Sweeps.EnqueueDueFollowups(ctx)
}

// RunLinkCheckSweepNow triggers the link-check sweep outside its schedule.
func (s *OutreachService) RunLinkCheckSweepNow(ctx context.Context) (int, error) {
	return s.Sweeps.EnqueueDueLinkChecks(ctx)
}

// QueueHealth reports per-queue depths for the ops endpoint.
func (s *OutreachService) QueueHealth(ctx context.Context) ([]queue.Depth, error) {
	return s.Queue.Depths(ctx)
}
