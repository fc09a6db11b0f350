package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/AnkitChadoker/micro-chat/pkg/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Options retry policy of one job
type Options struct {
	Attempts int
	Backoff  time.Duration
}

// Handler processes one job payload. Delivery is at least once, handlers must
// be idempotent.
type Handler func(ctx context.Context, payload []byte) error

// publisher is the subset of *amqp.Channel used to publish
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// envelope job wire format
type envelope struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	Attempts  int             `json:"attempts"`
	BackoffMS int64           `json:"backoffMs"`
}

// Queue durable job queue on RabbitMQ. Jobs are published persistent to one
// durable queue per kind and consumed with manual ack. A failed attempt is
// re-published with an incremented attempt counter after an exponential
// backoff; once attempts are exhausted the job lands on "<kind>.failed" for
// operator inspection.
type Queue struct {
	channel  *amqp.Channel
	pub      publisher
	pubMu    sync.Mutex
	defaults Options

	handlers map[Kind]Handler
}

// New create a Queue on an open channel
func New(ch *amqp.Channel, defaults Options) *Queue {
	if defaults.Attempts <= 0 {
		defaults.Attempts = 3
	}
	if defaults.Backoff <= 0 {
		defaults.Backoff = 2 * time.Second
	}
	return &Queue{
		channel:  ch,
		pub:      ch,
		defaults: defaults,
		handlers: map[Kind]Handler{},
	}
}

func failedQueueName(kind Kind) string {
	return string(kind) + ".failed"
}

// Declare declare the durable queue of a kind and its failed queue
func (q *Queue) Declare(kind Kind) error {
	if _, err := q.channel.QueueDeclare(string(kind), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", kind, err)
	}
	if _, err := q.channel.QueueDeclare(failedQueueName(kind), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", failedQueueName(kind), err)
	}
	return nil
}

// Enqueue durably record a job. Returns only after the broker accepted the
// publish; the caller never waits for the job to run.
func (q *Queue) Enqueue(ctx context.Context, kind Kind, payload interface{}, opts *Options) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	o := q.defaults
	if opts != nil {
		if opts.Attempts > 0 {
			o.Attempts = opts.Attempts
		}
		if opts.Backoff > 0 {
			o.Backoff = opts.Backoff
		}
	}

	env := envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   body,
		Attempt:   1,
		Attempts:  o.Attempts,
		BackoffMS: o.Backoff.Milliseconds(),
	}
	return q.publish(string(kind), env)
}

func (q *Queue) publish(routingKey string, env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	return q.pub.Publish("", routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Body:         body,
	})
}

// publishRaw park an opaque body, used for deliveries that never parsed
func (q *Queue) publishRaw(routingKey string, body []byte) error {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	return q.pub.Publish("", routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Register declare one handler per job kind
func (q *Queue) Register(kind Kind, h Handler) {
	q.handlers[kind] = h
}

// Start declare registered queues and run one consumer loop per kind until
// ctx is cancelled
func (q *Queue) Start(ctx context.Context) error {
	for kind, handler := range q.handlers {
		if err := q.Declare(kind); err != nil {
			return err
		}

		msgs, err := q.channel.Consume(string(kind), "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", kind, err)
		}

		go q.consumeLoop(ctx, kind, handler, msgs)
	}
	return nil
}

func (q *Queue) consumeLoop(ctx context.Context, kind Kind, handler Handler, msgs <-chan amqp.Delivery) {
	logger.Log.Info(fmt.Sprintf("worker started for queue[%s]", kind))
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn(fmt.Sprintf("queue[%s] consume channel closed", kind))
				return
			}
			q.process(ctx, kind, handler, d)
		case <-ctx.Done():
			logger.Log.Info(fmt.Sprintf("worker for queue[%s] stopping", kind))
			return
		}
	}
}

// process run the handler for one delivery and settle it
func (q *Queue) process(ctx context.Context, kind Kind, handler Handler, d amqp.Delivery) {
	var env envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		// not a job envelope, nothing will ever parse it; park the raw body
		// where operators can inspect it
		logger.Log.Errorf(fmt.Sprintf("queue[%s] unparsable job:", kind), err)
		if pubErr := q.publishRaw(failedQueueName(kind), d.Body); pubErr != nil {
			logger.Log.Errorf("publish to failed queue:", pubErr)
			if err := d.Nack(false, false); err != nil {
				logger.Log.Errorf("nack failed:", err)
			}
			return
		}
		if err := d.Ack(false); err != nil {
			logger.Log.Errorf("ack failed:", err)
		}
		return
	}

	err := handler(ctx, env.Payload)
	if err == nil {
		if err := d.Ack(false); err != nil {
			logger.Log.Errorf("ack failed:", err)
		}
		logger.Log.Info(fmt.Sprintf("job %s[%s] completed (attempt %d)", kind, env.ID, env.Attempt))
		return
	}

	logger.Log.Errorf(fmt.Sprintf("job %s[%s] failed (attempt %d/%d):", kind, env.ID, env.Attempt, env.Attempts), err)

	if env.Attempt >= env.Attempts {
		// exhausted, keep it visible for operators
		if pubErr := q.publish(failedQueueName(kind), env); pubErr != nil {
			logger.Log.Errorf("publish to failed queue:", pubErr)
			if err := d.Nack(false, true); err != nil {
				logger.Log.Errorf("nack failed:", err)
			}
			return
		}
		if err := d.Ack(false); err != nil {
			logger.Log.Errorf("ack failed:", err)
		}
		logger.Log.Error(fmt.Sprintf("job %s[%s] moved to %s after %d attempts", kind, env.ID, failedQueueName(kind), env.Attempt))
		return
	}

	select {
	case <-time.After(retryDelay(env)):
	case <-ctx.Done():
		// shutting down mid backoff, hand the delivery back unchanged
		if err := d.Nack(false, true); err != nil {
			logger.Log.Errorf("nack failed:", err)
		}
		return
	}

	env.Attempt++
	if pubErr := q.publish(string(kind), env); pubErr != nil {
		logger.Log.Errorf("republish for retry:", pubErr)
		if err := d.Nack(false, true); err != nil {
			logger.Log.Errorf("nack failed:", err)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		logger.Log.Errorf("ack failed:", err)
	}
}

// retryDelay exponential backoff: base * 2^(attempt-1)
func retryDelay(env envelope) time.Duration {
	base := time.Duration(env.BackoffMS) * time.Millisecond
	return base << uint(env.Attempt-1)
}
