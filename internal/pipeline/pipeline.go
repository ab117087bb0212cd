// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/queue"
)

// Subscriptions holds the per-queue worker settings. Sending and link
// checking get a lower attempt cap: a duplicate retry there risks a
// duplicate external side effect, where the other stages only redo reads
// and drafts.
var Subscriptions = map[string]queue.SubscribeConfig{
	QueueContactFinder:      {Concurrency: 2, PerMinute: 30, MaxAttempts: 3},
	QueueEmailGenerator:     {Concurrency: 2, PerMinute: 20, MaxAttempts: 3},
	QueueEmailSender:        {Concurrency: 1, PerMinute: 30, MaxAttempts: 2},
	QueueFollowup:           {Concurrency: 2, PerMinute: 30, MaxAttempts: 3},
	QueueResponseClassifier: {Concurrency: 2, PerMinute: 30, MaxAttempts: 3},
	QueueLinkChecker:        {Concurrency: 4, PerMinute: 60, MaxAttempts: 2},
}

// Pipeline bundles the six stage workers and their sweeps.
type Pipeline struct {
	ContactFinder      *ContactFinder
	EmailGenerator     *EmailGenerator
	EmailSender        *EmailSender
	FollowupWorker     *FollowupWorker
	ResponseClassifier *ResponseClassifier
	LinkChecker        *LinkChecker
	Sweeps             *Sweeps
}

// Register subscribes every stage to its queue.
func (p *Pipeline) Register(q queue.Queue) error {
	subs := []struct {
		queue   string
		handler queue.Handler
	}{
		{QueueContactFinder, decode(p.ContactFinder.Handle)},
		{QueueEmailGenerator, decode(p.EmailGenerator.Handle)},
		{QueueEmailSender, decode(p.EmailSender.Handle)},
		{QueueFollowup, decode(p.FollowupWorker.Handle)},
		{QueueResponseClassifier, decode(p.ResponseClassifier.Handle)},
		{QueueLinkChecker, decode(p.LinkChecker.Handle)},
	}
	for _, sub := range subs {
		if err := q.Subscribe(sub.queue, Subscriptions[sub.queue], sub.handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", sub.queue, err)
		}
	}
	return nil
}

// decode adapts a typed stage handler into a raw queue handler. A payload
// that does not unmarshal is fatal: retrying cannot fix it.
func decode[T any](h func(context.Context, T) error) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		var job T
		if err := json.Unmarshal(body, &job); err != nil {
			return apperrors.Fatal(fmt.Errorf("malformed job payload: %w", err))
		}
		return h(ctx, job)
	}
}
