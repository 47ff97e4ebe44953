package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hiryo-backoffice/config"
	"hiryo-backoffice/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const (
	PriorityHigh   uint8 = 9
	PriorityNormal uint8 = 5
)

var highValueOrder = decimal.NewFromInt(1000)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config

	ch channel
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open channel: %w", err), conn.Close())
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
		ch:      ch,
	}, nil
}

func deadLetterExchange(cfg *config.Config) string {
	return cfg.DeadLetterQueue + "_exchange"
}

// SetupQueues declares the order fanout exchange, its priority queue, and
// the dead-letter pair that rejected events land in.
func (r *RabbitMQ) SetupQueues() error {
	dlx := deadLetterExchange(r.Cfg)
	if err := r.ch.ExchangeDeclare(
		dlx,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare %s: %w", dlx, err)
	}

	if _, err := r.ch.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return fmt.Errorf("declare %s: %w", r.Cfg.DeadLetterQueue, err)
	}

	if err := r.ch.QueueBind(r.Cfg.DeadLetterQueue, r.Cfg.DeadLetterQueue, dlx, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", r.Cfg.DeadLetterQueue, err)
	}

	if err := r.ch.ExchangeDeclare(
		r.Cfg.OrderExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare %s: %w", r.Cfg.OrderExchange, err)
	}

	if _, err := r.ch.QueueDeclare(
		r.Cfg.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    dlx,
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return fmt.Errorf("declare %s: %w", r.Cfg.OrderQueue, err)
	}

	if err := r.ch.QueueBind(r.Cfg.OrderQueue, "", r.Cfg.OrderExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", r.Cfg.OrderQueue, err)
	}
	return nil
}

// EventPriority ranks cancellations and large orders ahead of routine events.
func EventPriority(event models.OrderEvent) uint8 {
	if event.Status == string(models.StatusCancelled) || event.Total.GreaterThan(highValueOrder) {
		return PriorityHigh
	}
	return PriorityNormal
}

func newPublishing(event models.OrderEvent) (amqp.Publishing, error) {
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode order event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Occurred,
		ContentType:  "application/json",
		Type:         event.Type,
		Body:         body,
		Priority:     EventPriority(event),
	}, nil
}

// PublishOrderEvent sends an order lifecycle event to the order exchange.
func (r *RabbitMQ) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}
	if err := r.ch.PublishWithContext(ctx, r.Cfg.OrderExchange, "", false, false, msg); err != nil {
		return fmt.Errorf("publish %s event for order %d: %w", event.Type, event.OrderID, err)
	}
	return nil
}

// DecodeOrderEvent parses a message body written by PublishOrderEvent.
func DecodeOrderEvent(body []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("decode order event: %w", err)
	}
	if event.Type == "" {
		return event, errors.New("decode order event: missing type")
	}
	return event, nil
}

func (r *RabbitMQ) Close() error {
	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
	}
	if r.Conn != nil {
		errs = append(errs, r.Conn.Close())
	}
	return errors.Join(errs...)
}
