// barista.go
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voice-order-service/internal/barista"
	"voice-order-service/internal/dto"
	"voice-order-service/internal/model"
)

// DrinkEventPublisher recibe el estado de la orden del barista después de
// cada cambio (lo implementa rabbit.Publisher).
type DrinkEventPublisher interface {
	PublishDrinkUpdated(ctx context.Context, ev dto.DrinkOrderUpdatedEvent) error
}

type BaristaOption func(*baristaTools)

func WithDrinkClock(now func() time.Time) BaristaOption {
	return func(b *baristaTools) {
		if now != nil {
			b.now = now
		}
	}
}

func WithDrinkEvents(p DrinkEventPublisher) BaristaOption {
	return func(b *baristaTools) {
		b.events = p
	}
}

func WithDrinkLogger(log *zap.Logger) BaristaOption {
	return func(b *baristaTools) {
		if log != nil {
			b.log = log
		}
	}
}

type drinkArgs struct {
	DrinkType string `json:"drink_type"`
}

type sizeArgs struct {
	Size string `json:"size"`
}

type milkArgs struct {
	Milk string `json:"milk"`
}

type extrasArgs struct {
	Extras []string `json:"extras"`
}

type nameArgs struct {
	Name string `json:"name"`
}

// BaristaTools son las tools de la cafetería. La orden en curso está en
// Session.Drink, así que cada conversación tiene la suya.
func BaristaTools(repo barista.Repository, opts ...BaristaOption) []Tool {
	b := &baristaTools{repo: repo, now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return []Tool{
		{
			Name:        "update_drink_type",
			Description: "Set the drink type (latte, cappuccino, americano, espresso, mocha, ...).",
			InputSchema: schema(`{"type":"object","properties":{"drink_type":{"type":"string","minLength":1}},"required":["drink_type"]}`),
			Handler:     Typed(b.updateDrinkType),
		},
		{
			Name:        "update_size",
			Description: "Set the drink size (small, medium, large, tall, grande, venti).",
			InputSchema: schema(`{"type":"object","properties":{"size":{"type":"string","minLength":1}},"required":["size"]}`),
			Handler:     Typed(b.updateSize),
		},
		{
			Name:        "update_milk",
			Description: "Set the milk (whole, skim, almond, oat, soy, coconut or none).",
			InputSchema: schema(`{"type":"object","properties":{"milk":{"type":"string","minLength":1}},"required":["milk"]}`),
			Handler:     Typed(b.updateMilk),
		},
		{
			Name:        "update_extras",
			Description: "Replace the list of extras (e.g. whipped cream, caramel, extra shot). Empty list for none.",
			InputSchema: schema(`{"type":"object","properties":{"extras":{"type":"array","items":{"type":"string"}}},"required":["extras"]}`),
			Handler:     Typed(b.updateExtras),
		},
		{
			Name:        "update_name",
			Description: "Set the customer's name for the order.",
			InputSchema: schema(`{"type":"object","properties":{"name":{"type":"string","minLength":1}},"required":["name"]}`),
			Handler:     Typed(b.updateName),
		},
		{
			Name:        "check_order_complete",
			Description: "Check which order fields are still missing.",
			InputSchema: schema(`{"type":"object","properties":{}}`),
			Handler:     Typed(b.checkOrderComplete),
		},
		{
			Name:        "save_order",
			Description: "Save the completed drink order. Only call when all fields are filled.",
			InputSchema: schema(`{"type":"object","properties":{}}`),
			Handler:     Typed(b.saveOrder),
		},
	}
}

type baristaTools struct {
	repo   barista.Repository
	now    func() time.Time
	events DrinkEventPublisher
	log    *zap.Logger
}

func (b *baristaTools) updateDrinkType(ctx context.Context, s *Session, in drinkArgs) (string, error) {
	v, err := s.Drink.SetDrinkType(in.DrinkType)
	if err != nil {
		return choiceMessage(in.DrinkType, barista.DrinkTypes), nil
	}
	b.publish(ctx, s.ID, "drink_type", s.Drink.Snapshot(), s.Drink.Missing(), false)
	return v + ". What size?", nil
}

func (b *baristaTools) updateSize(ctx context.Context, s *Session, in sizeArgs) (string, error) {
	v, err := s.Drink.SetSize(in.Size)
	if err != nil {
		return choiceMessage(in.Size, barista.Sizes), nil
	}
	b.publish(ctx, s.ID, "size", s.Drink.Snapshot(), s.Drink.Missing(), false)
	return v + ". What milk?", nil
}

func (b *baristaTools) updateMilk(ctx context.Context, s *Session, in milkArgs) (string, error) {
	v, err := s.Drink.SetMilk(in.Milk)
	if err != nil {
		return choiceMessage(in.Milk, barista.Milks), nil
	}
	b.publish(ctx, s.ID, "milk", s.Drink.Snapshot(), s.Drink.Missing(), false)
	return v + ". Any extras?", nil
}

func (b *baristaTools) updateExtras(ctx context.Context, s *Session, in extrasArgs) (string, error) {
	if _, err := s.Drink.SetExtras(in.Extras); err != nil {
		return choiceMessage(strings.Join(in.Extras, ", "), barista.Extras), nil
	}
	b.publish(ctx, s.ID, "extras", s.Drink.Snapshot(), s.Drink.Missing(), false)
	return "Added. Your name?", nil
}

// updateName no guarda la orden; eso lo hace save_order.
func (b *baristaTools) updateName(ctx context.Context, s *Session, in nameArgs) (string, error) {
	v, err := s.Drink.SetName(in.Name)
	if err != nil {
		return "Sorry, what name should I put on the order?", nil
	}
	missing := s.Drink.Missing()
	b.publish(ctx, s.ID, "name", s.Drink.Snapshot(), missing, false)
	if len(missing) > 0 {
		return fmt.Sprintf("Thanks %s. I still need to know your %s.", v, strings.Join(missing, ", ")), nil
	}
	return fmt.Sprintf("Thanks %s. Your order is complete. Shall I save it?", v), nil
}

func (b *baristaTools) checkOrderComplete(_ context.Context, s *Session, _ struct{}) (string, error) {
	if missing := s.Drink.Missing(); len(missing) > 0 {
		return fmt.Sprintf("I still need to know your %s.", strings.Join(missing, ", ")), nil
	}
	return "Your order is complete! Let me save it for you.", nil
}

func (b *baristaTools) saveOrder(ctx context.Context, s *Session, _ struct{}) (string, error) {
	saved, _, err := s.Drink.Save(ctx, b.repo, b.now())
	switch {
	case errors.Is(err, model.ErrInvalidState):
		return "I can't save the order yet. I'm still missing some information.", nil
	case err != nil:
		return "", err
	}
	b.publish(ctx, s.ID, "saved", *saved, nil, true)
	return fmt.Sprintf("Perfect! I've saved your order, %s. Your %s %s with %s is being prepared.",
		saved.Name, saved.Size, saved.DrinkType, saved.Milk), nil
}

// publish avisa el cambio. Un fallo de publicación solo se loguea.
func (b *baristaTools) publish(ctx context.Context, sessionID, field string, o model.DrinkOrder, missing []string, saved bool) {
	if b.events == nil {
		return
	}
	ts := o.Timestamp
	if ts.IsZero() {
		ts = b.now()
	}
	if missing == nil {
		missing = []string{}
	}
	ev := dto.DrinkOrderUpdatedEvent{
		CorrelationID: uuid.NewString(),
		SessionID:     sessionID,
		Field:         field,
		DrinkType:     o.DrinkType,
		Size:          o.Size,
		Milk:          o.Milk,
		Extras:        o.Extras,
		Name:          o.Name,
		Missing:       missing,
		Saved:         saved,
		Timestamp:     ts,
	}
	if err := b.events.PublishDrinkUpdated(ctx, ev); err != nil {
		b.log.Warn("publishing drink_order_updated failed", zap.String("session", sessionID), zap.Error(err))
	}
}

func choiceMessage(got string, options []string) string {
	return fmt.Sprintf("Sorry, we don't have %s. We have %s.", got, strings.Join(options, ", "))
}
