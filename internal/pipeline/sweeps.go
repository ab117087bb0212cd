// internal/pipeline/sweeps.go
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// Sweeps are the time-triggered scans that find due work and turn it into
// jobs. Both claim rows with a conditional update in the same statement
// that selects them, so invoking a sweep twice within one due interval
// enqueues nothing extra. The trigger itself (cron, HTTP, a test) lives
// outside this type.
type Sweeps struct {
	Sequences repository.SequenceRepositoryInterface
	Emails    repository.EmailRepositoryInterface
	Queue     queue.Queue
	Logger    *slog.Logger

	LinkCheckMinAge  time.Duration
	LinkCheckRecheck time.Duration
}

// EnqueueDueFollowups claims every active sequence whose next follow-up is
// due and enqueues a followup job for it. Claims whose enqueue fails are
// released so the next sweep picks them up again; a claimed sequence with no
// job on the queue would otherwise never be retried. Returns the number
// enqueued.
func (s *Sweeps) EnqueueDueFollowups(ctx context.Context) (int, error) {
	ids, err := s.Sequences.ClaimDueFollowups(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	enqueued := 0
	var failed []int
	for _, id := range ids {
		if err := s.Queue.Enqueue(ctx, QueueFollowup, FollowupJob{SequenceID: id}); err != nil {
			s.Logger.Error("failed to enqueue followup",
				slog.Int("sequence_id", id), slog.Any("error", err))
			failed = append(failed, id)
			continue
		}
		enqueued++
	}
	if len(failed) > 0 {
		if err := s.Sequences.ReleaseFollowupClaims(ctx, failed); err != nil {
			return enqueued, err
		}
	}
	if enqueued > 0 {
		s.Logger.Info("followup sweep enqueued jobs", slog.Int("count", enqueued))
	}
	return enqueued, nil
}

// EnqueueDueLinkChecks claims sent emails old enough for link verification
// and enqueues a link-checker job per email.
func (s *Sweeps) EnqueueDueLinkChecks(ctx context.Context) (int, error) {
	candidates, err := s.Emails.ClaimDueForLinkChecks(ctx, time.Now(), s.LinkCheckMinAge, s.LinkCheckRecheck)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, c := range candidates {
		job := LinkCheckerJob{
			EmailID:     c.EmailID,
			ProspectURL: c.ProspectURL,
			TargetURL:   c.TargetURL,
		}
		if err := s.Queue.Enqueue(ctx, QueueLinkChecker, job); err != nil {
			s.Logger.Error("failed to enqueue link check",
				slog.Int("email_id", c.EmailID), slog.Any("error", err))
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		s.Logger.Info("link check sweep enqueued jobs", slog.Int("count", enqueued))
	}
	return enqueued, nil
}
