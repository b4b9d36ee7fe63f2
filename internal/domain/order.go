package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает состояние заказа.
// Правила переходов между статусами намеренно не фиксируются:
// хранилище ограничивает только множество допустимых значений.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан; статус по умолчанию.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusProcessing — заказ взят в обработку.
	OrderStatusProcessing OrderStatus = "Processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "Shipped"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "Delivered"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	// Quantity — количество единиц товара, строго положительное.
	Quantity int32
	// PriceAtPurchase — снимок цены товара на момент оформления.
	// После создания заказа не зависит от текущей цены в каталоге.
	PriceAtPurchase decimal.Decimal
}

// Subtotal возвращает стоимость позиции: quantity × price_at_purchase.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order агрегирует заказ и его позиции.
// Заказ и позиции создаются только вместе, в одной транзакции,
// и после создания неизменяемы, кроме смены статуса.
type Order struct {
	ID         int64
	CustomerID int64
	OrderDate  time.Time
	// TotalAmount — производная величина: сумма subtotal по всем позициям.
	TotalAmount decimal.Decimal
	Status      OrderStatus
	Items       []OrderItem
}

// ValidateInvariants проверяет согласованность заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID <= 0 {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrEmptyOrder)
	}
	if o.TotalAmount.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusInvalid)
	}

	// Сверяем сумму заказа с суммой позиций.
	calc := decimal.Zero
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if item.PriceAtPurchase.IsNegative() {
			errs = append(errs, ErrPriceNegative)
		}
		calc = calc.Add(item.Subtotal())
	}
	if !calc.Equal(o.TotalAmount) {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// NewOrderLine — одна строка запроса на создание заказа: товар и количество.
type NewOrderLine struct {
	ProductID int64
	Quantity  int32
}

// NewOrderRequest — входные данные операции создания заказа.
type NewOrderRequest struct {
	CustomerID int64
	// Lines обрабатываются в порядке следования.
	Lines []NewOrderLine
}

// ValidateInvariants проверяет запрос до обращения к хранилищу.
func (r NewOrderRequest) ValidateInvariants() []error {
	var errs []error

	if r.CustomerID <= 0 {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(r.Lines) == 0 {
		errs = append(errs, ErrEmptyOrder)
	}

	seen := make(map[int64]struct{}, len(r.Lines))
	for _, line := range r.Lines {
		if line.ProductID <= 0 {
			errs = append(errs, ErrProductRequired)
		}
		if line.Quantity <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
		// Товар встречается в заказе не более одного раза:
		// зеркалит UNIQUE(order_id, product_id) в схеме.
		if _, dup := seen[line.ProductID]; dup {
			errs = append(errs, ErrDuplicateOrderLine)
		}
		seen[line.ProductID] = struct{}{}
	}

	return errs
}

// HistoryEntry — одна строка истории заказов покупателя
// (проекция представления customer_order_details).
type HistoryEntry struct {
	CustomerID      int64
	FirstName       string
	LastName        string
	OrderID         int64
	OrderDate       time.Time
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	ProductName     string
	Quantity        int32
	PriceAtPurchase decimal.Decimal
}

// ProductSales — агрегат продаж по товару для отчёта о бестселлерах.
type ProductSales struct {
	ProductName       string
	TotalQuantitySold int64
}
