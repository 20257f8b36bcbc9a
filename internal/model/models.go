// models.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Los montos se guardan como números JSON, no como strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Progresión lineal de estados de una orden
const (
	StatusPlaced         = "placed"
	StatusPreparing      = "preparing"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
)

var StatusProgression = []string{
	StatusPlaced,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
}

const DefaultCustomerName = "Guest"

// CatalogItem es inmutable una vez cargado el catálogo.
type CatalogItem struct {
	ID       string          `json:"id" bson:"id"`
	Name     string          `json:"name" bson:"name"`
	Price    decimal.Decimal `json:"price" bson:"price"`
	Unit     string          `json:"unit" bson:"unit"`
	Category string          `json:"category" bson:"category"`
	Tags     []string        `json:"tags" bson:"tags"`
}

type CartEntry struct {
	Item     CatalogItem `json:"item"`
	Quantity int         `json:"quantity"`
}

// LineTotal redondeado a 2 decimales, igual que en la orden.
func (e CartEntry) LineTotal() decimal.Decimal {
	return e.Item.Price.Mul(decimal.NewFromInt(int64(e.Quantity))).Round(2)
}

type Order struct {
	ID            string          `bson:"order_id" json:"order_id"`
	CustomerName  string          `bson:"customer_name" json:"customer_name"`
	Address       string          `bson:"address" json:"address"`
	Items         []OrderItem     `bson:"items" json:"items"`
	Total         decimal.Decimal `bson:"total" json:"total"`
	Timestamp     time.Time       `bson:"timestamp" json:"timestamp"`
	Status        string          `bson:"status" json:"status"` // estado actual
	StatusHistory []StatusRecord  `bson:"status_history" json:"status_history"`
}

// OrderItem es una foto de la línea del carrito al momento del checkout.
type OrderItem struct {
	ID        string          `bson:"id" json:"id"`
	Name      string          `bson:"name" json:"name"`
	Quantity  int             `bson:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `bson:"unit_price" json:"unit_price"`
	LineTotal decimal.Decimal `bson:"line_total" json:"line_total"`
}

type StatusRecord struct {
	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// DrinkOrder es la orden de la cafetería (barista).
type DrinkOrder struct {
	DrinkType string    `json:"drinkType"`
	Size      string    `json:"size"`
	Milk      string    `json:"milk"`
	Extras    []string  `json:"extras"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}
