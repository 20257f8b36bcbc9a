// cart_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"voice-order-service/internal/cart"
	"voice-order-service/internal/catalog"
	"voice-order-service/internal/model"
)

// CartService aplica los comandos de una sesión sobre su carrito y lo
// vuelve a guardar. Cada sesión tiene su propio carrito.
type CartService struct {
	catalog *catalog.Catalog
	carts   cart.Store
	orders  *OrderService
	log     *zap.Logger
}

func NewCartService(cat *catalog.Catalog, carts cart.Store, orders *OrderService, log *zap.Logger) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{catalog: cat, carts: carts, orders: orders, log: log}
}

func (s *CartService) Catalog() *catalog.Catalog { return s.catalog }

func (s *CartService) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return s.carts.Load(ctx, sessionID)
}

// AddItem agrega por id exacto de catálogo.
func (s *CartService) AddItem(ctx context.Context, sessionID, itemID string, quantity int) (model.CartEntry, error) {
	item, ok := s.catalog.ByID(itemID)
	if !ok {
		return model.CartEntry{}, catalog.ErrItemNotFound
	}
	var entry model.CartEntry
	_, err := s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		entry = c.Add(item, quantity)
		return nil
	})
	return entry, err
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (model.CartEntry, error) {
	var removed model.CartEntry
	_, err := s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		var err error
		removed, err = c.Remove(itemID)
		return err
	})
	return removed, err
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		return c.SetQuantity(itemID, quantity)
	})
}

func (s *CartService) AddRecipe(ctx context.Context, sessionID, dish string, servings int) ([]model.CatalogItem, *cart.Cart, error) {
	var added []model.CatalogItem
	c, err := s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		var err error
		added, err = c.AddRecipe(s.catalog, dish, servings)
		return err
	})
	return added, c, err
}

// PlaceOrder hace el checkout del carrito de la sesión. Si la orden se
// guardó pero el carrito no, devuelve la orden junto con ErrCartNotCleared.
func (s *CartService) PlaceOrder(ctx context.Context, sessionID, customerName, address string) (*model.Order, error) {
	var order *model.Order
	_, err := s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		var err error
		order, err = s.orders.Checkout(ctx, c, customerName, address)
		return err
	})
	if err != nil && order != nil {
		s.log.Error("order placed but cart not cleared",
			zap.String("session", sessionID), zap.String("order_id", order.ID), zap.Error(err))
		return order, fmt.Errorf("%w: order %s: %w", ErrCartNotCleared, order.ID, err)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// mutate carga el carrito, aplica fn y lo guarda solo si fn no falló.
func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return c, err
	}
	if err := s.carts.Save(ctx, sessionID, c); err != nil {
		s.log.Error("saving cart failed", zap.String("session", sessionID), zap.Error(err))
		return nil, err
	}
	return c, nil
}
