// dto.go
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Requests HTTP

type AddItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"max=999"`
}

type RemoveItemRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type UpdateQuantityRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"max=999"`
}

type IngredientsRequest struct {
	Dish     string `json:"dish" binding:"required"`
	Servings int    `json:"servings" binding:"max=999"`
}

type PlaceOrderRequest struct {
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`
}

// ProgressRequest: status vacío = siguiente estado de la progresión
type ProgressRequest struct {
	Status string `json:"status"`
}

// Responses HTTP

type PlaceOrderResponse struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
	Warning string          `json:"warning,omitempty"`
}

type ProgressResponse struct {
	OrderID   string `json:"order_id"`
	NewStatus string `json:"new_status"`
}

// Eventos publicados en RabbitMQ

type OrderPlacedEvent struct {
	CorrelationID string          `json:"correlation_id"`
	OrderID       string          `json:"orderId"`
	CustomerName  string          `json:"customerName"`
	Address       string          `json:"address"`
	Total         decimal.Decimal `json:"total"`
	Items         []EventItem     `json:"items"`
	Timestamp     time.Time       `json:"timestamp"`
}

type EventItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type StatusChangedEvent struct {
	CorrelationID string    `json:"correlation_id"`
	OrderID       string    `json:"orderId"`
	OldStatus     string    `json:"oldStatus"`
	NewStatus     string    `json:"newStatus"`
	Override      bool      `json:"override"`
	Timestamp     time.Time `json:"timestamp"`
}

// DrinkOrderUpdatedEvent se publica tras cada cambio de la orden del
// barista. Saved indica que la orden se guardó y la sesión quedó vacía.
type DrinkOrderUpdatedEvent struct {
	CorrelationID string    `json:"correlation_id"`
	SessionID     string    `json:"sessionId"`
	Field         string    `json:"field"`
	DrinkType     string    `json:"drinkType"`
	Size          string    `json:"size"`
	Milk          string    `json:"milk"`
	Extras        []string  `json:"extras"`
	Name          string    `json:"name"`
	Missing       []string  `json:"missing"`
	Saved         bool      `json:"saved"`
	Timestamp     time.Time `json:"timestamp"`
}

// DrinkStateResponse es el estado de la orden del barista de una sesión.
type DrinkStateResponse struct {
	SessionID string   `json:"session_id"`
	DrinkType string   `json:"drink_type"`
	Size      string   `json:"size"`
	Milk      string   `json:"milk"`
	Extras    []string `json:"extras"`
	Name      string   `json:"name"`
	Missing   []string `json:"missing"`
	Complete  bool     `json:"complete"`
}

// ProgressOrderMessage llega por el exchange order_progress para avanzar una
// orden. Mismo sobre que usan los demás servicios: correlation_id,
// exchange, routing_key y el payload en message.
type ProgressOrderMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		OrderID string `json:"orderId"`
		// Vacío = siguiente estado de la progresión
		Status string `json:"status"`
	} `json:"message"`
}
