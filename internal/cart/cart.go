package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"voice-order-service/internal/catalog"
	"voice-order-service/internal/model"
)

// MaxQuantity es el tope de unidades por línea.
const MaxQuantity = 999

var (
	ErrItemNotInCart    = fmt.Errorf("el producto no está en el carrito: %w", model.ErrNotFound)
	ErrQuantityTooLarge = fmt.Errorf("la cantidad máxima por producto es %d: %w", MaxQuantity, model.ErrValidation)
)

// Cart es el carrito de una sesión: id de producto -> línea, en orden de
// inserción. Ninguna línea queda con cantidad <= 0.
type Cart struct {
	entries map[string]*model.CartEntry
	order   []string
}

func New() *Cart {
	return &Cart{entries: make(map[string]*model.CartEntry)}
}

// Add suma la cantidad (mínimo 1) y devuelve la línea resultante. La línea
// se satura en MaxQuantity.
func (c *Cart) Add(item model.CatalogItem, quantity int) model.CartEntry {
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxQuantity {
		quantity = MaxQuantity
	}
	e, ok := c.entries[item.ID]
	if !ok {
		e = &model.CartEntry{Item: item}
		c.entries[item.ID] = e
		c.order = append(c.order, item.ID)
	}
	e.Quantity += quantity
	if e.Quantity > MaxQuantity {
		e.Quantity = MaxQuantity
	}
	return *e
}

func (c *Cart) Remove(itemID string) (model.CartEntry, error) {
	e, ok := c.entries[itemID]
	if !ok {
		return model.CartEntry{}, ErrItemNotInCart
	}
	removed := *e
	c.delete(itemID)
	return removed, nil
}

// SetQuantity con quantity <= 0 equivale a Remove.
func (c *Cart) SetQuantity(itemID string, quantity int) error {
	e, ok := c.entries[itemID]
	if !ok {
		return ErrItemNotInCart
	}
	if quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}
	if quantity <= 0 {
		c.delete(itemID)
		return nil
	}
	e.Quantity = quantity
	return nil
}

// AddRecipe agrega `servings` unidades de cada ingrediente del plato.
// Los ingredientes que no están en el catálogo se omiten sin error.
func (c *Cart) AddRecipe(cat *catalog.Catalog, dish string, servings int) ([]model.CatalogItem, error) {
	ids, err := catalog.Recipe(dish)
	if err != nil {
		return nil, err
	}
	var added []model.CatalogItem
	for _, id := range ids {
		item, ok := cat.ByID(id)
		if !ok {
			continue
		}
		c.Add(item, servings)
		added = append(added, item)
	}
	return added, nil
}

func (c *Cart) Get(itemID string) (model.CartEntry, bool) {
	e, ok := c.entries[itemID]
	if !ok {
		return model.CartEntry{}, false
	}
	return *e, true
}

func (c *Cart) Len() int { return len(c.order) }

func (c *Cart) Entries() []model.CartEntry {
	out := make([]model.CartEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.entries[id])
	}
	return out
}

// Total suma las líneas ya redondeadas, igual que la orden.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.entries[id].LineTotal())
	}
	return total.Round(2)
}

// Snapshot copia las líneas con el precio actual. La orden no depende del
// carrito después del checkout.
func (c *Cart) Snapshot() []model.OrderItem {
	out := make([]model.OrderItem, 0, len(c.order))
	for _, id := range c.order {
		e := c.entries[id]
		out = append(out, model.OrderItem{
			ID:        id,
			Name:      e.Item.Name,
			Quantity:  e.Quantity,
			UnitPrice: e.Item.Price,
			LineTotal: e.LineTotal(),
		})
	}
	return out
}

func (c *Cart) Clear() {
	c.entries = make(map[string]*model.CartEntry)
	c.order = nil
}

func (c *Cart) delete(itemID string) {
	delete(c.entries, itemID)
	for i, id := range c.order {
		if id == itemID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

type cartJSON struct {
	Items []model.CartEntry `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartJSON{Items: c.Entries(), Total: c.Total()})
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Clear()
	for _, e := range raw.Items {
		if e.Quantity <= 0 {
			continue
		}
		c.Add(e.Item, e.Quantity)
	}
	return nil
}
