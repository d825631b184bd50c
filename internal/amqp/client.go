package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// ErrPermanent marks a handler failure that redelivery cannot fix. Such
// messages are dropped instead of requeued.
var ErrPermanent = errors.New("permanent failure")

// MonthClosedHandler processes one decoded message.
type MonthClosedHandler func(ctx context.Context, msg *MonthClosedMessage) error

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	cbMu         sync.Mutex
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

// connect dials the broker and declares the topology. Callers hold c.mu or
// own the client exclusively.
func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn, c.channel = conn, channel
	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on the direct exchange.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// ensureChannel returns an open channel, reconnecting when needed.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c.channel, nil
}

func (c *Client) resetConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// isCircuitOpen reports whether publishing is suspended. An open circuit
// moves to half-open once openTimeout has passed since the last failure.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.cbMu.Lock()
	last := c.lastFailure
	c.cbMu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.cbMu.Lock()
	c.lastFailure = time.Now()
	c.cbMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// PublishMonthClosed publishes a month-closed event as a persistent message.
func (c *Client) PublishMonthClosed(ctx context.Context, msg *MonthClosedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, skipping publish of %s", msg.Name)
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("get channel: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.EventID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.resetConnection()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published month closed message",
		"event_id", msg.EventID,
		"month_name", msg.Name,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeMonthClosed delivers month-closed messages to handler until ctx is
// done. Malformed messages are dropped; handler errors requeue the message.
// Lost connections are re-established with exponential backoff.
func (c *Client) ConsumeMonthClosed(ctx context.Context, handler MonthClosedHandler) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		c.resetConnection()
		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting",
			"error", err, "attempt", attempt, "backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler MonthClosedHandler, connected func()) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()

	slog.InfoContext(ctx, "Started consuming month closed messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}

			settle(ctx, delivery.Body, &delivery, handler)
		}
	}
}

// acknowledger is the part of a delivery settle answers through.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// settle decodes body, runs handler and acks or nacks. Malformed messages
// and ErrPermanent failures are dropped; other failures are requeued.
func settle(ctx context.Context, body []byte, d acknowledger, handler MonthClosedHandler) {
	msg, err := MonthClosedMessageFromJSON(body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"event_id", msg.EventID,
			"month_name", msg.Name,
			"requeue", requeue)
		_ = d.Nack(false, requeue)
		return
	}

	_ = d.Ack(false)
	slog.InfoContext(ctx, "Processed month closed message",
		"event_id", msg.EventID,
		"month_name", msg.Name)
}

// Ping reports whether the broker connection is open.
func (c *Client) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("amqp connection closed")
	}
	return nil
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

// exponentialBackoff returns 1s, 2s, 4s ... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel closed", "dial"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
