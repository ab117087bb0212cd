// internal/queue/amqp.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
)

const (
	retrySuffix  = ".retry"
	failedSuffix = ".failed"

	// Failed jobs are retained for a week for inspection, then the broker
	// expires them.
	failedRetention = 7 * 24 * time.Hour

	backoffBase = 30 * time.Second
	backoffMax  = 15 * time.Minute

	attemptsHeader = "x-attempts"
	errorHeader    = "x-error"
)

// AMQPQueue implements Queue on RabbitMQ. Every logical queue is a trio of
// broker queues: the durable work queue, a retry queue whose dead-letter
// target is the work queue (per-message TTL carries both scheduled delays
// and retry backoff), and a failed queue holding dead-lettered jobs for a
// week.
//
// The retry queue releases expired messages only from its head, so a long
// delay parked in front of a short one postpones the short one. Outreach
// cadences are measured in minutes to days, which tolerates that.
type AMQPQueue struct {
	conn   *amqp.Connection
	logger *slog.Logger

	// Publishing shares one channel; amqp channels are not safe for
	// concurrent use.
	pub   *amqp.Channel
	pubMu sync.Mutex

	mu          sync.Mutex
	declared    []string
	completions map[string]*completionRing
}

// NewAMQP dials the broker and opens the shared publish channel.
func NewAMQP(url string, logger *slog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	return &AMQPQueue{
		conn:        conn,
		logger:      logger,
		pub:         ch,
		completions: make(map[string]*completionRing),
	}, nil
}

// Declare sets up the broker topology for the named queues. Publishers and
// subscribers both call it; declaration is idempotent on the broker side.
func (q *AMQPQueue) Declare(names ...string) error {
	for _, name := range names {
		if err := q.declareTrio(name); err != nil {
			return err
		}
	}
	return nil
}

func (q *AMQPQueue) declareTrio(name string) error {
	q.mu.Lock()
	for _, d := range q.declared {
		if d == name {
			q.mu.Unlock()
			return nil
		}
	}
	q.mu.Unlock()

	q.pubMu.Lock()
	defer q.pubMu.Unlock()

	if _, err := q.pub.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": name,
	}
	if _, err := q.pub.QueueDeclare(name+retrySuffix, true, false, false, false, retryArgs); err != nil {
		return fmt.Errorf("declare queue %s: %w", name+retrySuffix, err)
	}
	failedArgs := amqp.Table{
		"x-message-ttl": int64(failedRetention / time.Millisecond),
	}
	if _, err := q.pub.QueueDeclare(name+failedSuffix, true, false, false, false, failedArgs); err != nil {
		return fmt.Errorf("declare queue %s: %w", name+failedSuffix, err)
	}

	q.mu.Lock()
	q.declared = append(q.declared, name)
	q.completions[name] = newCompletionRing()
	q.mu.Unlock()
	return nil
}

// Enqueue appends a job, visible immediately or after the configured delay.
func (q *AMQPQueue) Enqueue(ctx context.Context, queueName string, payload any, opts ...EnqueueOption) error {
	var options EnqueueOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := q.declareTrio(queueName); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	pub := amqp.Publishing{
		MessageId:    uuid.NewString(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      amqp.Table{attemptsHeader: int32(0)},
		Body:         body,
	}

	target := queueName
	if options.Delay > 0 {
		target = queueName + retrySuffix
		pub.Expiration = strconv.FormatInt(int64(options.Delay/time.Millisecond), 10)
	}

	return q.publish(target, pub)
}

func (q *AMQPQueue) publish(routingKey string, pub amqp.Publishing) error {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	return q.pub.Publish("", routingKey, false, false, pub)
}

// Subscribe starts cfg.Concurrency workers draining the queue, never
// exceeding cfg.PerMinute handler starts per rolling minute.
func (q *AMQPQueue) Subscribe(queueName string, cfg SubscribeConfig, h Handler) error {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if err := q.declareTrio(queueName); err != nil {
		return err
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	if err := ch.Qos(cfg.Concurrency, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queueName, err)
	}

	var limiter *rate.Limiter
	if cfg.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PerMinute)), 1)
	}

	for i := 0; i < cfg.Concurrency; i++ {
		go func() {
			for d := range deliveries {
				q.handle(queueName, cfg, h, limiter, d)
			}
		}()
	}

	q.logger.Info("subscribed",
		slog.String("queue", queueName),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Int("per_minute", cfg.PerMinute),
		slog.Int("max_attempts", cfg.MaxAttempts),
	)
	return nil
}

func (q *AMQPQueue) handle(queueName string, cfg SubscribeConfig, h Handler, limiter *rate.Limiter, d amqp.Delivery) {
	ctx := context.Background()
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			_ = d.Nack(false, true)
			return
		}
	}

	err := h(ctx, d.Body)
	if err == nil {
		q.recordCompletion(queueName)
		_ = d.Ack(false)
		return
	}

	attempts := attemptsFrom(d.Headers) + 1

	if apperrors.IsFatal(err) {
		q.logger.Error("job failed permanently",
			slog.String("queue", queueName),
			slog.Int("attempts", attempts),
			slog.Any("error", err),
		)
		q.deadLetter(queueName, d, attempts, err)
		return
	}

	if attempts >= cfg.MaxAttempts {
		q.logger.Error("job exhausted retries",
			slog.String("queue", queueName),
			slog.Int("attempts", attempts),
			slog.Any("error", err),
		)
		q.deadLetter(queueName, d, attempts, err)
		return
	}

	delay := Backoff(attempts)
	q.logger.Warn("job failed, retrying",
		slog.String("queue", queueName),
		slog.Int("attempt", attempts),
		slog.Duration("backoff", delay),
		slog.Any("error", err),
	)

	pub := amqp.Publishing{
		MessageId:    d.MessageId,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      amqp.Table{attemptsHeader: int32(attempts)},
		Expiration:   strconv.FormatInt(int64(delay/time.Millisecond), 10),
		Body:         d.Body,
	}
	if err := q.publish(queueName+retrySuffix, pub); err != nil {
		// Could not park the retry; requeue the original so it is not lost.
		q.logger.Error("failed to schedule retry, requeueing", slog.Any("error", err))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (q *AMQPQueue) deadLetter(queueName string, d amqp.Delivery, attempts int, cause error) {
	pub := amqp.Publishing{
		MessageId:    d.MessageId,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			attemptsHeader: int32(attempts),
			errorHeader:    cause.Error(),
		},
		Body: d.Body,
	}
	if err := q.publish(queueName+failedSuffix, pub); err != nil {
		q.logger.Error("failed to dead-letter job, requeueing", slog.Any("error", err))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (q *AMQPQueue) recordCompletion(queueName string) {
	q.mu.Lock()
	ring := q.completions[queueName]
	q.mu.Unlock()
	if ring != nil {
		ring.record(time.Now())
	}
}

// Depths reports the current state of every declared queue.
func (q *AMQPQueue) Depths(ctx context.Context) ([]Depth, error) {
	q.mu.Lock()
	names := append([]string(nil), q.declared...)
	q.mu.Unlock()
	sort.Strings(names)

	cutoff := time.Now().Add(-24 * time.Hour)
	depths := make([]Depth, 0, len(names))
	for _, name := range names {
		q.pubMu.Lock()
		work, err := q.pub.QueueInspect(name)
		if err != nil {
			q.pubMu.Unlock()
			return nil, fmt.Errorf("inspect %s: %w", name, err)
		}
		retry, err := q.pub.QueueInspect(name + retrySuffix)
		if err != nil {
			q.pubMu.Unlock()
			return nil, fmt.Errorf("inspect %s: %w", name+retrySuffix, err)
		}
		failed, err := q.pub.QueueInspect(name + failedSuffix)
		q.pubMu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", name+failedSuffix, err)
		}

		depth := Depth{
			Queue:     name,
			Ready:     work.Messages,
			Delayed:   retry.Messages,
			Failed:    failed.Messages,
			Consumers: work.Consumers,
		}
		q.mu.Lock()
		if ring := q.completions[name]; ring != nil {
			depth.Completed24h = ring.countSince(cutoff)
		}
		q.mu.Unlock()
		depths = append(depths, depth)
	}
	return depths, nil
}

// Close shuts the broker connection down; consumer goroutines drain and
// exit as their delivery channels close.
func (q *AMQPQueue) Close() error {
	return q.conn.Close()
}

// Backoff returns the retry delay before the given attempt number's
// redelivery: 30s, 1m, 2m, ... capped at 15m.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := backoffBase << (attempt - 1)
	if d > backoffMax || d <= 0 {
		return backoffMax
	}
	return d
}

func attemptsFrom(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
