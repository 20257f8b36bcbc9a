// setup.go
package rabbit

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeclareExchanges crea los exchanges fanout que usa el servicio.
func DeclareExchanges(ch *amqp091.Channel) error {
	for _, name := range []string{ExchangeOrderPlaced, ExchangeOrderStatusChanged, ExchangeOrderProgress, ExchangeDrinkOrderUpdated} {
		if err := ch.ExchangeDeclare(name, "fanout", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declaring exchange %s: %w", name, err)
		}
	}
	return nil
}

// SetupConsumers suscribe el servicio a order_progress. El consumo corre en
// una goroutine hasta que se cierre el canal o se cancele ctx.
func SetupConsumers(ctx context.Context, ch *amqp091.Channel, svc Advancer, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	consumer := NewProgressOrderConsumer(svc, log)

	// 1. Declarar la queue
	q, err := ch.QueueDeclare(
		progressQueue, // cola exclusiva para este servicio
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring queue: %w", err)
	}

	// 2. Bindear al exchange fanout
	if err := ch.QueueBind(q.Name, "", ExchangeOrderProgress, false, nil); err != nil {
		return fmt.Errorf("binding queue: %w", err)
	}

	// 3. Consumir con ack manual
	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming queue: %w", err)
	}

	go consume(ctx, msgs, consumer, log)

	log.Info("subscribed to exchange", zap.String("exchange", ExchangeOrderProgress), zap.String("queue", q.Name))
	return nil
}

// acknowledger es la parte de amqp091.Delivery que usa consume.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func consume(ctx context.Context, msgs <-chan amqp091.Delivery, consumer *ProgressOrderConsumer, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				log.Warn("order_progress delivery channel closed")
				return
			}
			settle(m, consumer.Handle(ctx, m.Body), log)
		}
	}
}

func settle(d acknowledger, err error, log *zap.Logger) {
	var ackErr error
	if err == nil {
		ackErr = d.Ack(false)
	} else {
		ackErr = d.Nack(false, requeue(err))
	}
	if ackErr != nil {
		log.Warn("settling delivery", zap.Error(ackErr))
	}
}
