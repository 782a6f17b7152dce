package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

const OrderExchange = "order_exchange"

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher emits order lifecycle events on a topic exchange, routed
// by event type (order.created, order.status_changed, order.cancelled).
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *logrus.Entry
}

var _ port.OrderEventPublisher = (*RabbitMQPublisher)(nil)

// NewRabbitMQPublisher dials url with a short retry loop and declares the exchange.
func NewRabbitMQPublisher(url, exchange string, log *logrus.Entry) (*RabbitMQPublisher, error) {
	if exchange == "" {
		exchange = OrderExchange
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		retry := time.Duration(i*i)*time.Second + time.Second
		log.WithError(err).WithField("retry_in", retry.String()).Warn("failed to connect to RabbitMQ")
		time.Sleep(retry)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, exchange, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log *logrus.Entry) (*RabbitMQPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitMQPublisher{ch: ch, exchange: exchange, log: log}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		MessageId:    event.OrderID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.exchange, err)
	}

	p.log.WithFields(logrus.Fields{
		"order_id":    event.OrderID,
		"routing_key": event.Type,
	}).Debug("order event published")
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
