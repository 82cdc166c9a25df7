// Package service publishes domain events to RabbitMQ.  Publish errors are
// logged and returned so callers can ignore them without interrupting the
// request that caused the event.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sigmmar-api/internal/queue"
)

// Publisher delivers change events.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ChangeEvent) error
	Close() error
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ChangeEvent) error { return nil }
func (NopPublisher) Close() error                                     { return nil }

// ErrBrokerUnavailable is returned while a failed dial is being backed off.
var ErrBrokerUnavailable = errors.New("message broker unavailable")

const (
	dialTimeout  = 3 * time.Second
	redialPeriod = 5 * time.Second
)

// AMQPPublisher keeps one connection and channel open and re-dials lazily
// after the broker drops them.  Dialling happens outside mu; while a dial is
// in flight, or for redialPeriod after a failed one, publishes fail fast
// with ErrBrokerUnavailable.
type AMQPPublisher struct {
	url   string
	queue string
	dial  func(url, queue string) (*amqp.Connection, *amqp.Channel, error)

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
	dialing bool
	closed  bool
}

func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queueName, dial: connect}
}

// connect dials the broker and declares the durable event queue.
func connect(url, queueName string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	return conn, ch, nil
}

// channel returns an open channel, dialling when needed.  It is called
// with mu held and returns with mu held.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if p.closed || p.dialing || time.Now().Before(p.retryAt) {
		return nil, ErrBrokerUnavailable
	}

	p.dialing = true
	p.mu.Unlock()
	conn, ch, err := p.dial(p.url, p.queue)
	p.mu.Lock()
	p.dialing = false

	if err != nil {
		p.retryAt = time.Now().Add(redialPeriod)
		return nil, err
	}
	if p.closed {
		_ = ch.Close()
		_ = conn.Close()
		return nil, ErrBrokerUnavailable
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Publish sends ev as a persistent JSON message on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: connect failed")
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.reset()
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}
