// Package rabbitmq mirrors floor events onto a fanout exchange so services
// outside the process (dashboards, printers) can follow the floor.
package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/metrics"
	"github.com/yeremiapane/restaurant-floor/utils"
)

const (
	queueSize      = 256
	publishTimeout = 5 * time.Second
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher is a kds.Broadcaster backed by AMQP. Publish only enqueues; a
// single goroutine sends in order and drops events when the queue is full.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string

	queue chan kds.Message
	done  chan struct{}
	once  sync.Once
}

// Dial connects to url and declares a durable fanout exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	p := newPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	p := &Publisher{
		ch:       ch,
		exchange: exchange,
		queue:    make(chan kds.Message, queueSize),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) Publish(event string, data interface{}) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.queue <- kds.Message{Event: event, Data: data}:
	default:
		utils.ErrorLogger.WithField("event", event).Warn("amqp queue full, dropping event")
	}
}

func (p *Publisher) run() {
	for {
		select {
		case msg := <-p.queue:
			p.send(msg)
		case <-p.done:
			return
		}
	}
}

func (p *Publisher) send(msg kds.Message) {
	body, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", msg.Event).Error("failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		msg.Event, // routing key, ignored by fanout but useful when rebinding
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         msg.Event,
			Body:         body,
		},
	)
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", msg.Event).Error("amqp publish failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues("amqp", msg.Event).Inc()
}

// Close stops the sender and closes the channel and connection. Queued events
// that have not been sent yet are discarded.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.done)
		if p.ch != nil {
			p.ch.Close()
		}
		if p.conn != nil {
			p.conn.Close()
		}
	})
}
