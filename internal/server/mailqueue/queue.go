// Package mailqueue moves outgoing e-mail through RabbitMQ: the API process
// publishes rendered messages, and a worker process consumes and delivers them.
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/logging"
	"github.com/dmitrijs2005/gophevents/internal/server/notify"
)

const publishTimeout = 5 * time.Second

// Channel is the part of *amqp.Channel the queue uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type Queue struct {
	ch     Channel
	conn   io.Closer
	name   string
	logger logging.Logger
}

// Dial connects to the broker at url and declares the durable queue name.
func Dial(url, name string, l logging.Logger) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := New(ch, name, l)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	q.conn = conn
	return q, nil
}

// New declares the queue on an already open channel.
func New(ch Channel, name string, l logging.Logger) (*Queue, error) {
	decl, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue %q: %w", name, err)
	}
	return &Queue{ch: ch, name: decl.Name, logger: l.With("module", "mailqueue", "queue", decl.Name)}, nil
}

// Send publishes msg as a persistent JSON message. It satisfies notify.Sender.
func (q *Queue) Send(ctx context.Context, msg notify.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encoding message: %v", common.ErrDelivery, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = q.ch.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: publish: %v", common.ErrDelivery, err)
	}

	q.logger.Debug(ctx, "mail queued", "to", msg.To)
	return nil
}

// Consume delivers queued messages through sender until ctx is cancelled or
// the broker closes the channel. A message that fails delivery is requeued
// once; a second failure, or a payload that does not decode, drops it.
func (q *Queue) Consume(ctx context.Context, sender notify.Sender) error {
	if err := q.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := q.ch.Consume(q.name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	q.logger.Info(ctx, "consumer started")

	for {
		select {
		case <-ctx.Done():
			q.logger.Info(ctx, "consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			q.handle(ctx, d, sender)
		}
	}
}

func (q *Queue) handle(ctx context.Context, d amqp.Delivery, sender notify.Sender) {
	var msg notify.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		q.logger.Error(ctx, "dropping undecodable message", "error", err)
		if err := d.Nack(false, false); err != nil {
			q.logger.Error(ctx, "nack failed", "error", err)
		}
		return
	}

	if err := sender.Send(ctx, msg); err != nil {
		requeue := !d.Redelivered
		q.logger.Warn(ctx, "delivery failed", "to", msg.To, "requeue", requeue, "error", err)
		if err := d.Nack(false, requeue); err != nil {
			q.logger.Error(ctx, "nack failed", "error", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		q.logger.Error(ctx, "ack failed", "error", err)
		return
	}
	q.logger.Info(ctx, "mail delivered", "to", msg.To)
}

func (q *Queue) Close() error {
	err := q.ch.Close()
	if q.conn != nil {
		if cerr := q.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
