package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type orderRepository struct {
	store *Store
}

// NewOrderRepository возвращает in-memory реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store}
}

// CreateOrder атомарен за счёт общего мьютекса хранилища: проверка
// остатков, списание и вставка заказа происходят под одной блокировкой,
// поэтому конкурентные заказы не могут совместно продать больше, чем
// есть на остатке.
func (r *orderRepository) CreateOrder(_ context.Context, req domain.NewOrderRequest) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.customers[req.CustomerID]; !ok {
		return domain.Order{}, fmt.Errorf("customer %d: %w", req.CustomerID, domain.ErrUnknownReference)
	}

	// Первый проход: проверяем остатки и считаем сумму; до сих пор
	// состояние не меняется, поэтому отказ не требует отката.
	total := decimal.Zero
	seen := make(map[int64]struct{}, len(req.Lines))
	for _, line := range req.Lines {
		if _, dup := seen[line.ProductID]; dup {
			return domain.Order{}, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrConstraintViolation)
		}
		seen[line.ProductID] = struct{}{}

		product, ok := r.store.products[line.ProductID]
		if !ok {
			return domain.Order{}, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrUnknownReference)
		}
		if product.StockQuantity < line.Quantity {
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: product.StockQuantity,
			}
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	// Второй проход: списываем остатки и собираем заказ.
	now := time.Now().UTC()
	r.store.nextOrderID++
	order := domain.Order{
		ID:          r.store.nextOrderID,
		CustomerID:  req.CustomerID,
		OrderDate:   now,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
		Items:       make([]domain.OrderItem, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		product := r.store.products[line.ProductID]
		product.StockQuantity -= line.Quantity
		product.UpdatedAt = now
		r.store.products[line.ProductID] = product

		r.store.nextOrderItemID++
		order.Items = append(order.Items, domain.OrderItem{
			ID:              r.store.nextOrderItemID,
			OrderID:         order.ID,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: product.Price,
		})
	}
	r.store.orders[order.ID] = cloneOrder(order)

	payload, err := domain.NewOrderCreatedEvent(order).Marshal()
	if err != nil {
		// Событие собирается из уже валидного заказа; сбой сериализации
		// означает программную ошибку, заказ при этом не фиксируем.
		delete(r.store.orders, order.ID)
		return domain.Order{}, fmt.Errorf("marshal order created event: %w", err)
	}
	r.store.outbox = append(r.store.outbox, &outboxRecord{
		msg: domain.OutboxMessage{
			ID:            uuid.NewString(),
			AggregateType: domain.AggregateTypeOrder,
			AggregateID:   strconv.FormatInt(order.ID, 10),
			EventType:     domain.EventTypeOrderCreated,
			Payload:       payload,
		},
		status:    "pending",
		createdAt: now,
	})

	return cloneOrder(order), nil
}

func (r *orderRepository) Get(_ context.Context, id int64) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *orderRepository) SetStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return domain.ErrStatusInvalid
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	r.store.orders[id] = order

	return nil
}

func (r *orderRepository) HistoryByCustomer(_ context.Context, customerID int64) ([]domain.HistoryEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	customer, ok := r.store.customers[customerID]
	if !ok {
		// Представление для несуществующего покупателя пусто, это не ошибка.
		return []domain.HistoryEntry{}, nil
	}

	entries := make([]domain.HistoryEntry, 0)
	for _, order := range r.store.orders {
		if order.CustomerID != customerID {
			continue
		}
		for _, item := range order.Items {
			product := r.store.products[item.ProductID]
			entries = append(entries, domain.HistoryEntry{
				CustomerID:      customerID,
				FirstName:       customer.FirstName,
				LastName:        customer.LastName,
				OrderID:         order.ID,
				OrderDate:       order.OrderDate,
				TotalAmount:     order.TotalAmount,
				Status:          order.Status,
				ProductName:     product.Name,
				Quantity:        item.Quantity,
				PriceAtPurchase: item.PriceAtPurchase,
			})
		}
	}

	// Тот же порядок, что у представления customer_order_details.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].OrderDate.Equal(entries[j].OrderDate) {
			return entries[i].OrderDate.After(entries[j].OrderDate)
		}
		if entries[i].OrderID != entries[j].OrderID {
			return entries[i].OrderID < entries[j].OrderID
		}
		return entries[i].ProductName < entries[j].ProductName
	})

	return entries, nil
}

func (r *orderRepository) TopSellingProducts(_ context.Context, limit int) ([]domain.ProductSales, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if limit <= 0 {
		limit = 5
	}

	totals := make(map[string]int64)
	for _, order := range r.store.orders {
		for _, item := range order.Items {
			product := r.store.products[item.ProductID]
			totals[product.Name] += int64(item.Quantity)
		}
	}

	result := make([]domain.ProductSales, 0, len(totals))
	for name, sold := range totals {
		result = append(result, domain.ProductSales{ProductName: name, TotalQuantitySold: sold})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalQuantitySold != result[j].TotalQuantitySold {
			return result[i].TotalQuantitySold > result[j].TotalQuantitySold
		}
		return result[i].ProductName < result[j].ProductName
	})

	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
