package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"voice-order-service/internal/dto"
	"voice-order-service/internal/model"
)

var ErrMissingOrderID = fmt.Errorf("mensaje sin orderId: %w", model.ErrValidation)

// Advancer es lo que el consumer necesita del servicio de órdenes.
type Advancer interface {
	Advance(ctx context.Context, orderID, explicitStatus string) (*model.Order, error)
}

type ProgressOrderConsumer struct {
	Service Advancer
	log     *zap.Logger
}

func NewProgressOrderConsumer(s Advancer, log *zap.Logger) *ProgressOrderConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProgressOrderConsumer{Service: s, log: log}
}

// Handle procesa un mensaje order_progress. Devuelve error si el mensaje no
// se pudo aplicar; quien consume decide si lo descarta.
func (c *ProgressOrderConsumer) Handle(ctx context.Context, msg []byte) error {
	var event dto.ProgressOrderMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		c.log.Warn("parsing order_progress message", zap.Error(err))
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	if event.Message.OrderID == "" {
		c.log.Warn("order_progress message without orderId", zap.String("correlation_id", event.CorrelationID))
		return ErrMissingOrderID
	}

	o, err := c.Service.Advance(ctx, event.Message.OrderID, event.Message.Status)
	if err != nil {
		c.log.Error("advancing order from message",
			zap.String("correlation_id", event.CorrelationID),
			zap.String("order_id", event.Message.OrderID),
			zap.Error(err))
		return err
	}

	c.log.Info("order advanced from message",
		zap.String("correlation_id", event.CorrelationID),
		zap.String("order_id", o.ID),
		zap.String("status", o.Status))
	return nil
}

// requeue: solo los errores que no son de datos vale la pena reintentar.
func requeue(err error) bool {
	return !errors.Is(err, model.ErrValidation) &&
		!errors.Is(err, model.ErrNotFound) &&
		!errors.Is(err, model.ErrInvalidState)
}
