// grocery.go
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"voice-order-service/internal/catalog"
	"voice-order-service/internal/model"
	"voice-order-service/internal/service"
)

type browseArgs struct {
	Category string `json:"category"`
}

type searchArgs struct {
	SearchTerm string `json:"search_term"`
}

type itemArgs struct {
	ItemName string `json:"item_name"`
	Quantity *int   `json:"quantity"`
}

type ingredientsArgs struct {
	Dish     string `json:"dish"`
	Servings *int   `json:"servings"`
}

type placeOrderArgs struct {
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`
}

type orderArgs struct {
	OrderID    string `json:"order_id"`
	NextStatus string `json:"next_status"`
}

// GroceryTools son las tools del asistente de supermercado.
func GroceryTools(carts *service.CartService, orders *service.OrderService) []Tool {
	g := &grocery{carts: carts, orders: orders}
	return []Tool{
		{
			Name:        "greet",
			Description: "Greet the customer and offer help with their grocery order.",
			InputSchema: schema(`{"type":"object","properties":{}}`),
			Handler:     Typed(g.greet),
		},
		{
			Name:        "browse_catalog",
			Description: "Browse the catalog. Optionally filter by category (e.g. 'Groceries', 'Snacks').",
			InputSchema: schema(`{"type":"object","properties":{"category":{"type":"string"}}}`),
			Handler:     Typed(g.browseCatalog),
		},
		{
			Name:        "search_catalog",
			Description: "Search for items in the catalog by name, category or tag.",
			InputSchema: schema(`{"type":"object","properties":{"search_term":{"type":"string","minLength":1}},"required":["search_term"]}`),
			Handler:     Typed(g.searchCatalog),
		},
		{
			Name:        "add_item",
			Description: "Add an item to the shopping cart with the specified quantity.",
			InputSchema: schema(`{"type":"object","properties":{"item_name":{"type":"string","minLength":1},"quantity":{"type":"integer","maximum":999}},"required":["item_name"]}`),
			Handler:     Typed(g.addItem),
		},
		{
			Name:        "remove_item",
			Description: "Remove an item completely from the shopping cart.",
			InputSchema: schema(`{"type":"object","properties":{"item_name":{"type":"string","minLength":1}},"required":["item_name"]}`),
			Handler:     Typed(g.removeItem),
		},
		{
			Name:        "update_quantity",
			Description: "Update the quantity of an item already in the cart. Set to 0 to remove.",
			InputSchema: schema(`{"type":"object","properties":{"item_name":{"type":"string","minLength":1},"quantity":{"type":"integer","maximum":999}},"required":["item_name","quantity"]}`),
			Handler:     Typed(g.updateQuantity),
		},
		{
			Name:        "list_cart",
			Description: "Show the current cart contents with quantities, prices and total.",
			InputSchema: schema(`{"type":"object","properties":{}}`),
			Handler:     Typed(g.listCart),
		},
		{
			Name:        "ingredients_for",
			Description: "Add the ingredients for a known dish to the cart.",
			InputSchema: schema(`{"type":"object","properties":{"dish":{"type":"string","minLength":1},"servings":{"type":"integer","maximum":999}},"required":["dish"]}`),
			Handler:     Typed(g.ingredientsFor),
		},
		{
			Name:        "place_order",
			Description: "Place the order with the customer's name and delivery address. Clears the cart.",
			InputSchema: schema(`{"type":"object","properties":{"customer_name":{"type":"string"},"address":{"type":"string"}}}`),
			Handler:     Typed(g.placeOrder),
		},
		{
			Name:        "check_order_status",
			Description: "Return the current status and history of an order by id or id prefix.",
			InputSchema: schema(`{"type":"object","properties":{"order_id":{"type":"string","minLength":1}},"required":["order_id"]}`),
			Handler:     Typed(g.checkOrderStatus),
		},
		{
			Name:        "mock_progress_order",
			Description: "Advance an order to its next status (placed -> preparing -> out_for_delivery -> delivered) or set one explicitly.",
			InputSchema: schema(`{"type":"object","properties":{"order_id":{"type":"string","minLength":1},"next_status":{"type":"string"}},"required":["order_id"]}`),
			Handler:     Typed(g.mockProgressOrder),
		},
	}
}

type grocery struct {
	carts  *service.CartService
	orders *service.OrderService
}

func (g *grocery) greet(_ context.Context, _ *Session, _ struct{}) (string, error) {
	return "Hello! I can help you order groceries and prepared food. What would you like to buy today?", nil
}

func (g *grocery) browseCatalog(_ context.Context, _ *Session, in browseArgs) (string, error) {
	cat := g.carts.Catalog()
	if cat.Len() == 0 {
		return "I'm sorry, the catalog is not available at the moment. Please try again later.", nil
	}

	items := cat.Items()
	if in.Category != "" {
		items = cat.ByCategory(in.Category)
		if len(items) == 0 {
			return fmt.Sprintf("No items found in category '%s'.", in.Category), nil
		}
	}

	var order []string
	byCategory := make(map[string][]string)
	for _, it := range items {
		c := it.Category
		if c == "" {
			c = "Other"
		}
		if _, ok := byCategory[c]; !ok {
			order = append(order, c)
		}
		byCategory[c] = append(byCategory[c], describe(it))
	}

	parts := make([]string, 0, len(order))
	for _, c := range order {
		parts = append(parts, fmt.Sprintf("%s: %s", c, strings.Join(byCategory[c], ", ")))
	}
	return "Available items: " + strings.Join(parts, "; "), nil
}

func (g *grocery) searchCatalog(_ context.Context, _ *Session, in searchArgs) (string, error) {
	matches := g.carts.Catalog().Search(in.SearchTerm)
	if len(matches) == 0 {
		return fmt.Sprintf("No items found matching '%s'.", in.SearchTerm), nil
	}
	names := make([]string, 0, len(matches))
	for _, it := range matches {
		names = append(names, describe(it))
	}
	return fmt.Sprintf("Found %d item(s): %s", len(matches), strings.Join(names, ", ")), nil
}

func (g *grocery) addItem(ctx context.Context, s *Session, in itemArgs) (string, error) {
	item, err := g.carts.Catalog().Lookup(in.ItemName)
	if err != nil {
		return fmt.Sprintf("I couldn't find %s in the catalog. Can you try another name?", in.ItemName), nil
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	entry, err := g.carts.AddItem(ctx, s.ID, item.ID, qty)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s to your cart. You now have %d x %s.", item.Name, entry.Quantity, item.Name), nil
}

func (g *grocery) removeItem(ctx context.Context, s *Session, in itemArgs) (string, error) {
	item, err := g.carts.Catalog().Lookup(in.ItemName)
	if err != nil {
		return fmt.Sprintf("I couldn't find %s.", in.ItemName), nil
	}
	_, err = g.carts.RemoveItem(ctx, s.ID, item.ID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return fmt.Sprintf("%s wasn't in your cart.", item.Name), nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("Removed %s from the cart.", item.Name), nil
}

func (g *grocery) updateQuantity(ctx context.Context, s *Session, in itemArgs) (string, error) {
	item, err := g.carts.Catalog().Lookup(in.ItemName)
	if err != nil {
		return fmt.Sprintf("I couldn't find %s.", in.ItemName), nil
	}
	qty := 0
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	_, err = g.carts.UpdateQuantity(ctx, s.ID, item.ID, qty)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return fmt.Sprintf("%s is not in your cart.", item.Name), nil
	case err != nil:
		return "", err
	}
	if qty <= 0 {
		return fmt.Sprintf("Removed %s from your cart because the quantity was set to %d.", item.Name, qty), nil
	}
	return fmt.Sprintf("Updated %s quantity to %d.", item.Name, qty), nil
}

func (g *grocery) listCart(ctx context.Context, s *Session, _ struct{}) (string, error) {
	c, err := g.carts.Get(ctx, s.ID)
	if err != nil {
		return "", err
	}
	if c.Len() == 0 {
		return "Your cart is empty.", nil
	}
	parts := make([]string, 0, c.Len())
	for _, e := range c.Entries() {
		parts = append(parts, fmt.Sprintf("%d x %s (%s)", e.Quantity, e.Item.Name, money(e.Item.Price)))
	}
	return fmt.Sprintf("Your cart contains: %s. Total: %s.", strings.Join(parts, ", "), money(c.Total())), nil
}

func (g *grocery) ingredientsFor(ctx context.Context, s *Session, in ingredientsArgs) (string, error) {
	servings := 1
	if in.Servings != nil {
		servings = *in.Servings
	}
	added, _, err := g.carts.AddRecipe(ctx, s.ID, in.Dish, servings)
	switch {
	case errors.Is(err, catalog.ErrRecipeNotFound):
		return fmt.Sprintf("I don't have a recipe for %s. Can I add individual items instead?", in.Dish), nil
	case err != nil:
		return "", err
	}
	if len(added) == 0 {
		return fmt.Sprintf("I know how to make %s, but none of its ingredients are available right now.", in.Dish), nil
	}
	names := make([]string, 0, len(added))
	for _, it := range added {
		names = append(names, it.Name)
	}
	return fmt.Sprintf("I've added ingredients for %s: %s to your cart.", in.Dish, strings.Join(names, ", ")), nil
}

func (g *grocery) placeOrder(ctx context.Context, s *Session, in placeOrderArgs) (string, error) {
	o, err := g.carts.PlaceOrder(ctx, s.ID, in.CustomerName, in.Address)
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return "Your cart is empty. I can't place an empty order.", nil
	case errors.Is(err, service.ErrCartNotCleared):
		return fmt.Sprintf("Order placed for %s. Total: %s. Your order id is %s. Your cart still shows the items, so please don't place it again.",
			o.CustomerName, money(o.Total), o.ID), nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("Order placed for %s. Total: %s. Your order id is %s.", o.CustomerName, money(o.Total), o.ID), nil
}

func (g *grocery) checkOrderStatus(ctx context.Context, _ *Session, in orderArgs) (string, error) {
	o, err := g.orders.Get(ctx, in.OrderID)
	if msg, handled := orderLookupMessage(in.OrderID, err); handled {
		return msg, nil
	}
	if err != nil {
		return "", err
	}

	hist := make([]string, 0, len(o.StatusHistory))
	for _, h := range o.StatusHistory {
		hist = append(hist, fmt.Sprintf("%s (%s)", h.Status, h.Timestamp.Format("2006-01-02 15:04:05")))
	}
	histStr := "no history"
	if len(hist) > 0 {
		histStr = strings.Join(hist, ", ")
	}
	return fmt.Sprintf("Order %s is currently '%s'. Status history: %s.", o.ID, o.Status, histStr), nil
}

func (g *grocery) mockProgressOrder(ctx context.Context, _ *Session, in orderArgs) (string, error) {
	o, err := g.orders.Advance(ctx, in.OrderID, in.NextStatus)
	if msg, handled := orderLookupMessage(in.OrderID, err); handled {
		return msg, nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Order %s status updated to '%s'.", o.ID, o.Status), nil
}

func orderLookupMessage(orderID string, err error) (string, bool) {
	var amb *service.AmbiguousOrderIDError
	switch {
	case errors.As(err, &amb):
		return fmt.Sprintf("Several orders match %s: %s. Which one did you mean?", orderID, strings.Join(amb.Candidates, ", ")), true
	case errors.Is(err, model.ErrNotFound):
		return fmt.Sprintf("I couldn't find an order with id %s.", orderID), true
	}
	return "", false
}

func describe(it model.CatalogItem) string {
	return fmt.Sprintf("%s (%s per %s)", it.Name, money(it.Price), it.Unit)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func schema(s string) json.RawMessage {
	return json.RawMessage(s)
}
