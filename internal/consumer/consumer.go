package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/sungwon/email-dispatch/internal/config"
)

const maxConnectAttempts = 5

// Consumer owns the RabbitMQ connection and the blocking consume loop.
// It processes one message at a time: prefetch is pinned to 1 so no message
// is fetched while the previous one is unresolved. Horizontal throughput
// comes from running more consumer processes, not more prefetch slots.
type Consumer struct {
	cfg       config.QueueConfig
	processor *Processor
	log       zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// New creates a Consumer for the configured work queue.
func New(cfg config.QueueConfig, processor *Processor, log zerolog.Logger) *Consumer {
	return &Consumer{
		cfg:       cfg,
		processor: processor,
		log:       log,
	}
}

// connect dials the broker with up to 5 attempts, backing off exponentially
// from 1s and capping at 10s between attempts (1, 2, 4, 8, 10...).
func (c *Consumer) connect(ctx context.Context) (*amqp.Connection, error) {
	backoff := 1 * time.Second
	var lastErr error

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		conn, err := amqp.Dial(c.cfg.URL)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		c.log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", maxConnectAttempts).
			Msg("queue connection attempt failed")

		if attempt == maxConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 10*time.Second)
	}

	return nil, fmt.Errorf("connect to queue after %d attempts: %w", maxConnectAttempts, lastErr)
}

// setupQueues declares the durable work queue with dead-letter routing to
// the durable failed queue via the default exchange. Rejected messages land
// on the failed queue for manual inspection or replay tooling.
func (c *Consumer) setupQueues(ch *amqp.Channel) error {
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": c.cfg.FailedQueue,
	}

	if _, err := ch.QueueDeclare(c.cfg.WorkQueue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare work queue: %w", err)
	}

	if _, err := ch.QueueDeclare(c.cfg.FailedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare failed queue: %w", err)
	}

	return nil
}

// Start connects to the broker, declares the queues and consumes messages
// until the context is cancelled or the delivery channel closes. It blocks
// for the lifetime of the consumer and returns the connection error when the
// broker could not be reached.
func (c *Consumer) Start(ctx context.Context) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer c.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := c.setupQueues(ch); err != nil {
		return err
	}

	// Prefetch 1: at most one unacknowledged message in flight.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.WorkQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.Info().Str("queue", c.cfg.WorkQueue).Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("consumer stopping")
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.processor.Handle(ctx, msg)
		}
	}
}

// Close closes the queue connection if open. Idempotent and safe to call
// multiple times.
func (c *Consumer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			c.log.Error().Err(err).Msg("failed to close queue connection")
		}
	}
}
