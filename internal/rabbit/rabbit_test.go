package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voice-order-service/internal/dto"
	"voice-order-service/internal/model"
	"voice-order-service/internal/service"
)

// MockAdvancer es mock de Advancer
type MockAdvancer struct {
	mock.Mock
}

func (m *MockAdvancer) Advance(ctx context.Context, orderID, explicitStatus string) (*model.Order, error) {
	args := m.Called(ctx, orderID, explicitStatus)
	if o, ok := args.Get(0).(*model.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	args := m.Called(exchange, key, msg)
	return args.Error(0)
}

type MockAck struct {
	mock.Mock
}

func (m *MockAck) Ack(multiple bool) error {
	return m.Called(multiple).Error(0)
}

func (m *MockAck) Nack(multiple, requeue bool) error {
	return m.Called(multiple, requeue).Error(0)
}

func TestProgressOrderConsumer_Advances(t *testing.T) {
	ctx := context.Background()
	svc := new(MockAdvancer)
	svc.On("Advance", ctx, "order_Ana_20251124100001", "").
		Return(&model.Order{ID: "order_Ana_20251124100001", Status: model.StatusPreparing}, nil).Once()

	c := NewProgressOrderConsumer(svc, nil)
	err := c.Handle(ctx, []byte(`{"correlation_id":"abc","exchange":"order_progress","routing_key":"","message":{"orderId":"order_Ana_20251124100001"}}`))

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestProgressOrderConsumer_ExplicitStatus(t *testing.T) {
	ctx := context.Background()
	svc := new(MockAdvancer)
	svc.On("Advance", ctx, "order_Ana", "delivered").
		Return(&model.Order{ID: "order_Ana_20251124100001", Status: model.StatusDelivered}, nil).Once()

	c := NewProgressOrderConsumer(svc, nil)
	require.NoError(t, c.Handle(ctx, []byte(`{"message":{"orderId":"order_Ana","status":"delivered"}}`)))
	svc.AssertExpectations(t)
}

func TestProgressOrderConsumer_BadMessages(t *testing.T) {
	svc := new(MockAdvancer)
	c := NewProgressOrderConsumer(svc, nil)

	err := c.Handle(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, model.ErrValidation)

	err = c.Handle(context.Background(), []byte(`{"message":{}}`))
	assert.ErrorIs(t, err, ErrMissingOrderID)

	svc.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything)
}

func TestProgressOrderConsumer_ServiceError(t *testing.T) {
	svc := new(MockAdvancer)
	svc.On("Advance", mock.Anything, "order_nobody", "").Return(nil, service.ErrOrderNotFound)

	c := NewProgressOrderConsumer(svc, nil)
	err := c.Handle(context.Background(), []byte(`{"message":{"orderId":"order_nobody"}}`))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSettle(t *testing.T) {
	ok := new(MockAck)
	ok.On("Ack", false).Return(nil).Once()
	settle(ok, nil, zap.NewNop())
	ok.AssertExpectations(t)

	dropped := new(MockAck)
	dropped.On("Nack", false, false).Return(nil).Once()
	settle(dropped, service.ErrOrderNotFound, zap.NewNop())
	dropped.AssertExpectations(t)

	retried := new(MockAck)
	retried.On("Nack", false, true).Return(nil).Once()
	settle(retried, errors.New("mongo down"), zap.NewNop())
	retried.AssertExpectations(t)
}

func TestPublisher_OrderPlaced(t *testing.T) {
	ch := new(MockChannel)
	ev := dto.OrderPlacedEvent{
		CorrelationID: "corr-1",
		OrderID:       "order_Ana_20251124100001",
		CustomerName:  "Ana",
		Total:         decimal.RequireFromString("13.50"),
		Items:         []dto.EventItem{{ID: "peanut_butter", Quantity: 3}},
		Timestamp:     time.Date(2025, 11, 24, 10, 0, 1, 0, time.UTC),
	}
	ch.On("PublishWithContext", ExchangeOrderPlaced, "", mock.MatchedBy(func(p amqp091.Publishing) bool {
		var got map[string]any
		if err := json.Unmarshal(p.Body, &got); err != nil {
			return false
		}
		return p.CorrelationId == "corr-1" &&
			p.ContentType == "application/json" &&
			got["orderId"] == "order_Ana_20251124100001" &&
			got["total"] == 13.5
	})).Return(nil).Once()

	require.NoError(t, NewPublisher(ch).PublishOrderPlaced(context.Background(), ev))
	ch.AssertExpectations(t)
}

func TestPublisher_StatusChangedError(t *testing.T) {
	ch := new(MockChannel)
	ch.On("PublishWithContext", ExchangeOrderStatusChanged, "", mock.Anything).Return(amqp091.ErrClosed)

	err := NewPublisher(ch).PublishStatusChanged(context.Background(), dto.StatusChangedEvent{OrderID: "x", NewStatus: "preparing"})
	assert.ErrorIs(t, err, amqp091.ErrClosed)
}

func TestPublisher_DrinkUpdated(t *testing.T) {
	ch := new(MockChannel)
	ev := dto.DrinkOrderUpdatedEvent{
		CorrelationID: "corr-2",
		SessionID:     "cafe-1",
		Field:         "size",
		DrinkType:     "latte",
		Size:          "large",
		Missing:       []string{"milk type", "name"},
	}
	ch.On("PublishWithContext", ExchangeDrinkOrderUpdated, "", mock.MatchedBy(func(p amqp091.Publishing) bool {
		var got map[string]any
		if err := json.Unmarshal(p.Body, &got); err != nil {
			return false
		}
		return p.CorrelationId == "corr-2" &&
			got["sessionId"] == "cafe-1" &&
			got["size"] == "large" &&
			got["saved"] == false
	})).Return(nil).Once()

	require.NoError(t, NewPublisher(ch).PublishDrinkUpdated(context.Background(), ev))
	ch.AssertExpectations(t)
}
