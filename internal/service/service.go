package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"voice-order-service/internal/cart"
	"voice-order-service/internal/dto"
	"voice-order-service/internal/metrics"
	"voice-order-service/internal/model"
	"voice-order-service/internal/repository"
)

// Interfaz que debe implementar repository
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	Save(ctx context.Context, o *model.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	FindIDsByPrefix(ctx context.Context, prefix string) ([]string, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// EventPublisher avisa a otros servicios. Un error al publicar no deshace
// la operación: la orden ya quedó persistida.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev dto.OrderPlacedEvent) error
	PublishStatusChanged(ctx context.Context, ev dto.StatusChangedEvent) error
}

const maxIDAttempts = 100

type OrderService struct {
	repo    OrderRepository
	events  EventPublisher
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*OrderService)

func WithEvents(p EventPublisher) Option {
	return func(s *OrderService) { s.events = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *OrderService) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *OrderService) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(r OrderRepository, opts ...Option) *OrderService {
	s := &OrderService{
		repo: r,
		log:  zap.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout convierte el carrito en una orden "placed", la persiste y vacía
// el carrito. Con el carrito vacío devuelve ErrEmptyCart y no toca nada.
func (s *OrderService) Checkout(ctx context.Context, c *cart.Cart, customerName, address string) (*model.Order, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}

	name := strings.TrimSpace(customerName)
	if name == "" {
		name = model.DefaultCustomerName
	}

	now := s.now().Truncate(time.Millisecond)
	items := c.Snapshot()
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}

	o := &model.Order{
		CustomerName: name,
		Address:      strings.TrimSpace(address),
		Items:        items,
		Total:        total.Round(2),
		Timestamp:    now,
		Status:       model.StatusPlaced,
		StatusHistory: []model.StatusRecord{
			{Status: model.StatusPlaced, Timestamp: now},
		},
	}

	if err := s.create(ctx, o, newOrderID(name, now)); err != nil {
		return nil, err
	}
	c.Clear()

	s.metrics.OrderPlaced()
	s.log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("customer", o.CustomerName),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("lines", len(o.Items)))
	s.publishPlaced(ctx, o)

	return o, nil
}

// create asigna el id; si ya existe una orden con ese id (mismo cliente en el
// mismo segundo) prueba con sufijos -2, -3, ...
func (s *OrderService) create(ctx context.Context, o *model.Order, base string) error {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		o.ID = base
		if attempt > 1 {
			o.ID = fmt.Sprintf("%s-%d", base, attempt)
		}
		err := s.repo.Create(ctx, o)
		if errors.Is(err, repository.ErrOrderAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
		return nil
	}
	return fmt.Errorf("could not allocate an order id for %s", base)
}

// Advance mueve la orden al siguiente estado de la progresión, o al estado
// explícito si se indica. El estado explícito se aplica tal cual, aunque
// rompa el orden de la progresión. Siempre agrega una entrada al historial.
func (s *OrderService) Advance(ctx context.Context, orderID, explicitStatus string) (*model.Order, error) {
	o, err := s.resolve(ctx, orderID)
	if err != nil {
		return nil, err
	}

	old := o.Status
	next, override := nextStatus(old, strings.TrimSpace(explicitStatus))
	now := s.now().Truncate(time.Millisecond)

	o.Status = next
	o.StatusHistory = append(o.StatusHistory, model.StatusRecord{Status: next, Timestamp: now})

	if err := s.repo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}

	fields := []zap.Field{zap.String("order_id", o.ID), zap.String("from", old), zap.String("to", next)}
	if override && !isForward(old, next) {
		s.log.Warn("status override outside progression", fields...)
	} else {
		s.log.Info("order status updated", fields...)
	}
	s.metrics.StatusChanged(next, override)
	s.publishStatusChanged(ctx, o.ID, old, next, override, now)

	return o, nil
}

// AdvanceResult es el resultado de avanzar una orden dentro de AdvanceAll.
type AdvanceResult struct {
	OrderID   string
	NewStatus string
	Err       error
}

// AdvanceAll avanza un paso todas las órdenes guardadas.
func (s *OrderService) AdvanceAll(ctx context.Context) ([]AdvanceResult, error) {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AdvanceResult, 0, len(ids))
	for _, id := range ids {
		res := AdvanceResult{OrderID: id}
		o, err := s.Advance(ctx, id, "")
		if err != nil {
			res.Err = err
		} else {
			res.NewStatus = o.Status
		}
		out = append(out, res)
	}
	return out, nil
}

// Status devuelve el estado actual y el historial.
func (s *OrderService) Status(ctx context.Context, orderID string) (string, []model.StatusRecord, error) {
	o, err := s.resolve(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	return o.Status, o.StatusHistory, nil
}

func (s *OrderService) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return s.resolve(ctx, orderID)
}

func (s *OrderService) ListIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}

// resolve busca por id exacto y, si no existe, por prefijo único.
func (s *OrderService) resolve(ctx context.Context, orderID string) (*model.Order, error) {
	id := NormalizeOrderID(orderID)
	if id == "" {
		return nil, ErrOrderNotFound
	}

	o, err := s.repo.FindByOrderID(ctx, id)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	ids, err := s.repo.FindIDsByPrefix(ctx, id)
	if err != nil {
		return nil, err
	}
	switch len(ids) {
	case 0:
		return nil, ErrOrderNotFound
	case 1:
		return s.repo.FindByOrderID(ctx, ids[0])
	default:
		return nil, &AmbiguousOrderIDError{Prefix: id, Candidates: ids}
	}
}

// NormalizeOrderID acepta también el nombre de archivo (<id>.json).
func NormalizeOrderID(orderID string) string {
	return strings.TrimSuffix(strings.TrimSpace(orderID), ".json")
}

func newOrderID(customerName string, t time.Time) string {
	return fmt.Sprintf("order_%s_%s", model.SafeName(customerName), t.Format("20060102150405"))
}

// nextStatus: min(idx+1, último). Un estado desconocido vuelve a "placed".
func nextStatus(current, explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	idx := slices.Index(model.StatusProgression, current)
	if idx < 0 {
		return model.StatusPlaced, false
	}
	last := len(model.StatusProgression) - 1
	return model.StatusProgression[min(idx+1, last)], false
}

func isForward(from, to string) bool {
	fi := slices.Index(model.StatusProgression, from)
	ti := slices.Index(model.StatusProgression, to)
	return fi >= 0 && ti >= fi
}

func (s *OrderService) publishPlaced(ctx context.Context, o *model.Order) {
	if s.events == nil {
		return
	}
	items := make([]dto.EventItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.EventItem{ID: it.ID, Quantity: it.Quantity})
	}
	ev := dto.OrderPlacedEvent{
		CorrelationID: uuid.NewString(),
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		Address:       o.Address,
		Total:         o.Total,
		Items:         items,
		Timestamp:     o.Timestamp,
	}
	if err := s.events.PublishOrderPlaced(ctx, ev); err != nil {
		s.log.Warn("publishing order_placed failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *OrderService) publishStatusChanged(ctx context.Context, orderID, old, next string, override bool, at time.Time) {
	if s.events == nil {
		return
	}
	ev := dto.StatusChangedEvent{
		CorrelationID: uuid.NewString(),
		OrderID:       orderID,
		OldStatus:     old,
		NewStatus:     next,
		Override:      override,
		Timestamp:     at,
	}
	if err := s.events.PublishStatusChanged(ctx, ev); err != nil {
		s.log.Warn("publishing order_status_changed failed", zap.String("order_id", orderID), zap.Error(err))
	}
}
