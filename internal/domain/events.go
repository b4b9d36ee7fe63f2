package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AggregateTypeOrder — тип агрегата для событий заказов в outbox.
	AggregateTypeOrder = "order"
	// EventTypeOrderCreated — событие успешного создания заказа.
	EventTypeOrderCreated = "order.created"
)

// OrderCreatedEvent — payload события order.created.
// Контракт для внешних потребителей, поэтому поля сериализуются в JSON.
type OrderCreatedEvent struct {
	OrderID     int64                   `json:"order_id"`
	CustomerID  int64                   `json:"customer_id"`
	TotalAmount decimal.Decimal         `json:"total_amount"`
	Status      OrderStatus             `json:"status"`
	Items       []OrderCreatedEventItem `json:"items"`
	CreatedAt   time.Time               `json:"created_at"`
}

// OrderCreatedEventItem — одна позиция в payload события.
type OrderCreatedEventItem struct {
	ProductID       int64           `json:"product_id"`
	Quantity        int32           `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// NewOrderCreatedEvent собирает payload события из созданного заказа.
func NewOrderCreatedEvent(order Order) OrderCreatedEvent {
	items := make([]OrderCreatedEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderCreatedEventItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		})
	}

	return OrderCreatedEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		Items:       items,
		CreatedAt:   order.OrderDate,
	}
}

// Marshal сериализует payload для записи в outbox.
func (e OrderCreatedEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
