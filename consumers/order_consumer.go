package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hiryo-backoffice/config"
	"hiryo-backoffice/middlewares"
	"hiryo-backoffice/models"
	"hiryo-backoffice/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
)

// cacheInvalidator drops derived data that an order event makes stale.
type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type OrderConsumer struct {
	cache  cacheInvalidator
	logger *slog.Logger
}

// NewOrderConsumer returns a consumer that keeps the dashboard cache in step
// with order events. cache may be nil when Redis is not configured.
func NewOrderConsumer(cache cacheInvalidator, logger *slog.Logger) *OrderConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderConsumer{cache: cache, logger: logger}
}

// Start registers on the order queue and its dead-letter queue and handles
// deliveries until ctx is done or the channel closes.
func (oc *OrderConsumer) Start(ctx context.Context, ch *amqp.Channel, cfg *config.Config) error {
	msgs, err := ch.ConsumeWithContext(ctx,
		cfg.OrderQueue,
		"hiryo-backoffice", // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.OrderQueue, err)
	}

	dlqMsgs, err := ch.ConsumeWithContext(ctx,
		cfg.DeadLetterQueue,
		"hiryo-backoffice-dlq",
		false, false, false, false, nil,
	)
	if err != nil {
		oc.logger.Warn("Failed to register dead-letter consumer", "queue", cfg.DeadLetterQueue, "error", err)
	}

	go func() {
		for msg := range msgs {
			oc.HandleOrderMessage(ctx, msg)
		}
		oc.logger.Info("Order consumer stopped")
	}()

	if dlqMsgs != nil {
		go func() {
			for msg := range dlqMsgs {
				oc.HandleDeadLetter(msg)
			}
		}()
	}
	return nil
}

// HandleOrderMessage processes one order event. Undecodable bodies are
// rejected without requeue so they move to the dead-letter queue.
func (oc *OrderConsumer) HandleOrderMessage(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			oc.logger.Error("Recovered from panic in order message", "panic", r)
			_ = msg.Nack(false, false)
		}
	}()

	event, err := rabbitmq.DecodeOrderEvent(msg.Body)
	if err != nil {
		oc.logger.Warn("Invalid order event", "error", err, "body", string(msg.Body))
		middlewares.RecordOrderOperation("consume", false)
		if err := msg.Nack(false, false); err != nil {
			oc.logger.Error("Failed to nack order event", "error", err)
		}
		return
	}

	oc.logger.Info("Processing order event",
		"order_id", event.OrderID, "type", event.Type, "status", event.Status, "priority", msg.Priority)

	switch event.Type {
	case models.EventOrderCreated, models.EventStatusUpdated, models.EventFinalized:
		oc.invalidate(ctx)
	case models.EventAnnouncement:
	default:
		oc.logger.Warn("Unknown order event type", "type", event.Type)
	}

	middlewares.RecordOrderOperation("consume", true)
	if err := msg.Ack(false); err != nil {
		oc.logger.Error("Failed to ack order event", "order_id", event.OrderID, "error", err)
	}
}

func (oc *OrderConsumer) invalidate(ctx context.Context) {
	if oc.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := oc.cache.Invalidate(ctx)
	middlewares.RecordStatsInvalidation(err == nil)
	if err != nil {
		oc.logger.Warn("Failed to invalidate dashboard cache", "error", err)
	}
}

// HandleDeadLetter records a rejected event and acknowledges it.
func (oc *OrderConsumer) HandleDeadLetter(msg amqp.Delivery) {
	oc.logger.Error("Received dead-lettered order event", "body", string(msg.Body), "headers", msg.Headers)
	if err := msg.Ack(false); err != nil {
		oc.logger.Error("Failed to ack dead letter", "error", err)
	}
}
