// publisher.go
package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"voice-order-service/internal/dto"
)

const (
	ExchangeOrderPlaced        = "order_placed"
	ExchangeOrderStatusChanged = "order_status_changed"
	ExchangeOrderProgress      = "order_progress"
	ExchangeDrinkOrderUpdated  = "drink_order_updated"

	progressQueue = "voice_orders_progress"
)

// publishChannel es la parte de *amqp091.Channel que usa Publisher.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher implementa service.EventPublisher y tools.DrinkEventPublisher
// sobre exchanges fanout.
type Publisher struct {
	ch publishChannel
}

func NewPublisher(ch publishChannel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev dto.OrderPlacedEvent) error {
	return p.publish(ctx, ExchangeOrderPlaced, ev.CorrelationID, ev)
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, ev dto.StatusChangedEvent) error {
	return p.publish(ctx, ExchangeOrderStatusChanged, ev.CorrelationID, ev)
}

func (p *Publisher) PublishDrinkUpdated(ctx context.Context, ev dto.DrinkOrderUpdatedEvent) error {
	return p.publish(ctx, ExchangeDrinkOrderUpdated, ev.CorrelationID, ev)
}

func (p *Publisher) publish(ctx context.Context, exchange, correlationID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", exchange, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, exchange, "", false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", exchange, err)
	}
	return nil
}
