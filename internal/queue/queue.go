// internal/queue/queue.go
package queue

import (
	"context"
	"sync"
	"time"
)

// Handler processes one job body. Returning nil acks the job. Errors marked
// fatal by apperrors dead-letter the job immediately; any other error is
// retried with exponential backoff up to the subscription's attempt cap.
// Handlers must be idempotent: jobs can be redelivered.
type Handler func(ctx context.Context, body []byte) error

// SubscribeConfig controls one queue subscription.
type SubscribeConfig struct {
	// Concurrency is the number of handler invocations that may run at once.
	Concurrency int
	// PerMinute caps handler starts per rolling minute to protect downstream
	// third-party APIs. Zero means unlimited.
	PerMinute int
	// MaxAttempts is the total number of tries before the job is moved to
	// the failed queue.
	MaxAttempts int
}

// EnqueueOptions are assembled from EnqueueOption values.
type EnqueueOptions struct {
	Delay time.Duration
}

type EnqueueOption func(*EnqueueOptions)

// WithDelay makes the job invisible until the delay elapses. Used for
// scheduled follow-ups and link checks.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.Delay = d
	}
}

// Depth is a point-in-time health snapshot of one queue.
type Depth struct {
	Queue        string `json:"queue"`
	Ready        int    `json:"ready"`
	Delayed      int    `json:"delayed"`
	Failed       int    `json:"failed"`
	Consumers    int    `json:"consumers"`
	Completed24h int    `json:"completed_24h"`
}

// Queue is the durable, named, multi-producer/multi-consumer job queue the
// pipeline runs on.
type Queue interface {
	Enqueue(ctx context.Context, queue string, payload any, opts ...EnqueueOption) error
	Subscribe(queue string, cfg SubscribeConfig, h Handler) error
	Depths(ctx context.Context) ([]Depth, error)
	Close() error
}

// completionRing remembers the timestamps of the last completed jobs for
// one queue. Acked AMQP messages are gone from the broker, so this ring is
// what backs the "completed recently" figure in the health snapshot.
type completionRing struct {
	mu      sync.Mutex
	entries []time.Time
	next    int
	full    bool
}

const completionRingSize = 1000

func newCompletionRing() *completionRing {
	return &completionRing{entries: make([]time.Time, completionRingSize)}
}

func (r *completionRing) record(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = t
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

func (r *completionRing) countSince(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit := r.next
	if r.full {
		limit = len(r.entries)
	}
	count := 0
	for i := 0; i < limit; i++ {
		if r.entries[i].After(cutoff) {
			count++
		}
	}
	return count
}
