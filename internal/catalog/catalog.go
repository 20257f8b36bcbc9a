package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"voice-order-service/internal/model"
)

var ErrItemNotFound = fmt.Errorf("producto no encontrado en el catálogo: %w", model.ErrNotFound)

// Catalog es de solo lectura durante toda la vida del proceso.
type Catalog struct {
	items []model.CatalogItem
	byID  map[string]int
}

func New(items []model.CatalogItem) *Catalog {
	c := &Catalog{
		items: make([]model.CatalogItem, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	copy(c.items, items)
	for i, it := range c.items {
		if _, dup := c.byID[it.ID]; !dup {
			c.byID[it.ID] = i
		}
	}
	return c
}

// Load lee el catálogo desde un archivo JSON. Si el archivo no existe o está
// mal formado devuelve un catálogo vacío: "sin catálogo" no es un error fatal.
func Load(path string, log *zap.Logger) *Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("catalog file not available", zap.String("path", path), zap.Error(err))
		return New(nil)
	}

	var items []model.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Error("error loading catalog", zap.String("path", path), zap.Error(err))
		return New(nil)
	}

	log.Info("catalog loaded", zap.Int("items", len(items)))
	return New(items)
}

func (c *Catalog) Items() []model.CatalogItem {
	out := make([]model.CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Len() int { return len(c.items) }

func (c *Catalog) ByID(id string) (model.CatalogItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.CatalogItem{}, false
	}
	return c.items[i], true
}

// Lookup busca por id, nombre completo o substring del nombre, sin importar
// mayúsculas. Devuelve la primera coincidencia: si varios nombres comparten
// el substring puede devolver el producto equivocado.
func (c *Catalog) Lookup(name string) (model.CatalogItem, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return model.CatalogItem{}, ErrItemNotFound
	}
	for _, it := range c.items {
		itemName := strings.ToLower(it.Name)
		if q == strings.ToLower(it.ID) || q == itemName || strings.Contains(itemName, q) {
			return it, nil
		}
	}
	return model.CatalogItem{}, ErrItemNotFound
}

// Search busca el término en nombre, categoría y tags.
func (c *Catalog) Search(term string) []model.CatalogItem {
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return nil
	}
	var out []model.CatalogItem
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Category), q) ||
			containsTag(it.Tags, q) {
			out = append(out, it)
		}
	}
	return out
}

func (c *Catalog) ByCategory(category string) []model.CatalogItem {
	var out []model.CatalogItem
	for _, it := range c.items {
		if strings.EqualFold(it.Category, category) {
			out = append(out, it)
		}
	}
	return out
}

// Categories en orden de aparición.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		cat := it.Category
		if cat == "" {
			cat = "Other"
		}
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

func containsTag(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
