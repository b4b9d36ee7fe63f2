package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// txTimeout ограничивает транзакцию создания заказа сверху даже тогда,
// когда вызывающий передал контекст без дедлайна.
const txTimeout = 10 * time.Second

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// CreateOrder выполняет ключевую транзакцию системы:
//  1. по каждой строке заказа условно списывает остаток
//     (stock_quantity >= quantity прямо в WHERE) и тем же запросом
//     снимает цену на момент покупки;
//  2. вставляет заказ с посчитанной суммой и статусом Pending;
//  3. вставляет позиции заказа;
//  4. пишет событие order.created в outbox той же транзакцией.
//
// Любая ошибка на любом шаге приводит к полному откату: частичное
// состояние снаружи транзакции не наблюдаемо никогда.
//
// Условное списание выбрано вместо SELECT ... FOR UPDATE: два
// конкурентных заказа на один товар не могут пройти проверку по
// устаревшему остатку, суммарное списание никогда не превышает
// остаток на входе, и stock_quantity не уходит в минус.
func (r *orderRepository) CreateOrder(ctx context.Context, req domain.NewOrderRequest) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin create order tx: %v: %w", err, domain.ErrConnectivity)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		var price decimal.Decimal
		err = tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $2,
			    updated_at = CURRENT_TIMESTAMP
			WHERE product_id = $1
			  AND stock_quantity >= $2
			RETURNING price
		`, line.ProductID, line.Quantity).Scan(&price)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = r.explainDeductFailure(ctx, tx, line)
				return domain.Order{}, err
			}
			err = mapStoreError("deduct stock", err)
			return domain.Order{}, err
		}

		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, domain.OrderItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: price,
		})
	}

	order := domain.Order{CustomerID: req.CustomerID, TotalAmount: total}
	var statusRaw string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, total_amount)
		VALUES ($1, $2)
		RETURNING order_id, order_date, status
	`, req.CustomerID, total).Scan(&order.ID, &order.OrderDate, &statusRaw)
	if err != nil {
		err = mapStoreError("insert order", err)
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(statusRaw)

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			VALUES ($1, $2, $3, $4)
			RETURNING order_item_id
		`,
			order.ID, items[i].ProductID, items[i].Quantity, items[i].PriceAtPurchase,
		).Scan(&items[i].ID)
		if err != nil {
			err = mapStoreError("insert order item", err)
			return domain.Order{}, err
		}
	}
	order.Items = items

	if err = enqueueOrderCreated(ctx, tx, order); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit create order: %v: %w", err, domain.ErrConnectivity)
		return domain.Order{}, err
	}

	return order, nil
}

// explainDeductFailure различает два случая пустого результата условного
// списания: товара нет вовсе или остатка не хватает. Читает в той же
// транзакции, поэтому видит согласованное состояние.
func (r *orderRepository) explainDeductFailure(ctx context.Context, tx *sql.Tx, line domain.NewOrderLine) error {
	var available int32
	err := tx.QueryRowContext(ctx, `
		SELECT stock_quantity FROM products WHERE product_id = $1
	`, line.ProductID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("product %d: %w", line.ProductID, domain.ErrUnknownReference)
		}
		return mapStoreError("check product stock", err)
	}

	return &domain.InsufficientStockError{
		ProductID: line.ProductID,
		Requested: line.Quantity,
		Available: available,
	}
}

// enqueueOrderCreated пишет строку outbox в транзакции заказа:
// событие существует тогда и только тогда, когда заказ зафиксирован.
func enqueueOrderCreated(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	payload, err := domain.NewOrderCreatedEvent(order).Marshal()
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_messages (
			id, aggregate_type, aggregate_id, event_type, payload, status, attempt_count
		) VALUES ($1, $2, $3, $4, $5, 'pending', 0)
	`,
		uuid.NewString(),
		domain.AggregateTypeOrder,
		strconv.FormatInt(order.ID, 10),
		domain.EventTypeOrderCreated,
		payload,
	)
	if err != nil {
		return mapStoreError("enqueue order created event", err)
	}

	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		order     domain.Order
		statusRaw string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT order_id, customer_id, order_date, total_amount, status
		FROM orders
		WHERE order_id = $1
	`, id).Scan(&order.ID, &order.CustomerID, &order.OrderDate, &order.TotalAmount, &statusRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, mapStoreError("select order", err)
	}
	order.Status = domain.OrderStatus(statusRaw)

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return domain.ErrStatusInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2 WHERE order_id = $1
	`, id, string(status))
	if err != nil {
		return mapStoreError("update order status", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return mapStoreError("update order status rows affected", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// HistoryByCustomer читает готовое представление customer_order_details;
// порядок строк задан самим представлением (order_date DESC, order_id, product_name).
func (r *orderRepository) HistoryByCustomer(ctx context.Context, customerID int64) ([]domain.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT customer_id, first_name, last_name, order_id, order_date,
		       total_amount, status, product_name, quantity, price_at_purchase
		FROM customer_order_details
		WHERE customer_id = $1
	`, customerID)
	if err != nil {
		return nil, mapStoreError("query order history", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry     domain.HistoryEntry
			statusRaw string
		)
		if err := rows.Scan(
			&entry.CustomerID, &entry.FirstName, &entry.LastName,
			&entry.OrderID, &entry.OrderDate, &entry.TotalAmount,
			&statusRaw, &entry.ProductName, &entry.Quantity, &entry.PriceAtPurchase,
		); err != nil {
			return nil, mapStoreError("scan order history row", err)
		}
		entry.Status = domain.OrderStatus(statusRaw)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("iterate order history rows", err)
	}

	return entries, nil
}

func (r *orderRepository) TopSellingProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.product_name, SUM(oi.quantity) AS total_quantity_sold
		FROM products p
		JOIN order_items oi ON p.product_id = oi.product_id
		GROUP BY p.product_name
		ORDER BY total_quantity_sold DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, mapStoreError("query top selling products", err)
	}
	defer rows.Close()

	result := make([]domain.ProductSales, 0, limit)
	for rows.Next() {
		var sales domain.ProductSales
		if err := rows.Scan(&sales.ProductName, &sales.TotalQuantitySold); err != nil {
			return nil, mapStoreError("scan top selling row", err)
		}
		result = append(result, sales)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("iterate top selling rows", err)
	}

	return result, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_item_id, order_id, product_id, quantity, price_at_purchase
		FROM order_items
		WHERE order_id = $1
		ORDER BY order_item_id ASC
	`, orderID)
	if err != nil {
		return nil, mapStoreError("load order items", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, mapStoreError("scan order item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("iterate order items", err)
	}

	return items, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
