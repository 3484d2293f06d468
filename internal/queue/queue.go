package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/unclebandit/hoperise-backend/internal/logger"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"go.uber.org/zap"
)

// TopicEscrowEvents carries a model.EscrowEvent for every committed
// operation.
const TopicEscrowEvents = "escrow.events"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers to in-process subscribers with retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   *zap.Logger
	backoff  time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		logger:   logger.OrNop(log),
		backoff:  500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			q.logger.Debug("job processed", zap.String("topic", topic))
			return // ACK
		}

		job.RetryCount++
		q.logger.Warn("job failed",
			zap.String("topic", topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)

		if job.RetryCount > job.MaxRetries {
			q.logger.Error("job permanently failed", zap.String("topic", topic), zap.Int("attempts", job.RetryCount))
			return // No requeue
		}

		// Linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// EventJob carries one escrow event to a consumer. The consumer reports the
// outcome on Result, which is buffered.
type EventJob struct {
	Event  model.EscrowEvent
	Result chan error
}

// Done reports the outcome of the job.
func (j EventJob) Done(err error) {
	j.Result <- err
}

// StartActivitySubscriber hands every escrow event on q to jobs and waits for
// the consumer's result, so a failed job is retried or redelivered by q.
// Payloads arrive as model.EscrowEvent in process and as JSON from AMQP.
func StartActivitySubscriber(ctx context.Context, q Queue, jobs chan<- EventJob, log *zap.Logger) error {
	log = logger.OrNop(log)
	return q.Subscribe(TopicEscrowEvents, func(payload any) error {
		evt, err := DecodeEvent(payload)
		if err != nil {
			log.Warn("dropping malformed escrow event", zap.Error(err))
			return nil // no retry
		}
		job := EventJob{Event: evt, Result: make(chan error, 1)}
		select {
		case jobs <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case err := <-job.Result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// DecodeEvent accepts the payload shapes a Queue may deliver.
func DecodeEvent(payload any) (model.EscrowEvent, error) {
	switch p := payload.(type) {
	case model.EscrowEvent:
		return p, nil
	case *model.EscrowEvent:
		if p == nil {
			return model.EscrowEvent{}, fmt.Errorf("nil escrow event")
		}
		return *p, nil
	case []byte:
		var evt model.EscrowEvent
		if err := json.Unmarshal(p, &evt); err != nil {
			return model.EscrowEvent{}, fmt.Errorf("decode escrow event: %w", err)
		}
		return evt, nil
	default:
		return model.EscrowEvent{}, fmt.Errorf("unexpected payload type %T", payload)
	}
}
