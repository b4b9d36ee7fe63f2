package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func TestOrderRepositoryIntegration_CreateOrder(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, products := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo := NewOrderRepository(store)
	order, err := repo.CreateOrder(ctx, domain.NewOrderRequest{
		CustomerID: customerID,
		Lines: []domain.NewOrderLine{
			{ProductID: products["Smartphone X"], Quantity: 1},
			{ProductID: products["Wireless Earbuds Pro"], Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.ID == 0 {
		t.Fatal("expected assigned order id")
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected Pending status, got %s", order.Status)
	}
	wantTotal := decimal.RequireFromString("1397.99")
	if !order.TotalAmount.Equal(wantTotal) {
		t.Fatalf("expected total %s, got %s", wantTotal, order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.ID == 0 || item.OrderID != order.ID {
			t.Fatalf("unexpected item identifiers: %+v", item)
		}
	}

	// Остатки списаны в той же транзакции.
	productRepo := NewProductRepository(store)
	phone, err := productRepo.Get(ctx, products["Smartphone X"])
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if phone.StockQuantity != 99 {
		t.Fatalf("expected smartphone stock 99, got %d", phone.StockQuantity)
	}

	// Позиция хранит снимок цены: смена цены в каталоге не влияет на заказ.
	if _, err := store.DB().ExecContext(ctx,
		`UPDATE products SET price = 1.00 WHERE product_id = $1`,
		products["Smartphone X"],
	); err != nil {
		t.Fatalf("update price: %v", err)
	}
	reloaded, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !reloaded.TotalAmount.Equal(wantTotal) {
		t.Fatalf("expected total to stay %s, got %s", wantTotal, reloaded.TotalAmount)
	}

	// Событие order.created записано в outbox той же транзакцией.
	pending, err := NewOutboxRepository(store).PullPending(10)
	if err != nil {
		t.Fatalf("pull pending outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox message, got %d", len(pending))
	}
	if pending[0].EventType != domain.EventTypeOrderCreated {
		t.Fatalf("expected %s event, got %s", domain.EventTypeOrderCreated, pending[0].EventType)
	}
}

func TestOrderRepositoryIntegration_InsufficientStockRollsBack(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, products := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo := NewOrderRepository(store)

	// Первая строка прошла бы, вторая превышает остаток: откат целиком.
	_, err := repo.CreateOrder(ctx, domain.NewOrderRequest{
		CustomerID: customerID,
		Lines: []domain.NewOrderLine{
			{ProductID: products["Smartphone X"], Quantity: 1},
			{ProductID: products["Laptop Ultra"], Quantity: 100},
		},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var detail *domain.InsufficientStockError
	if !errors.As(err, &detail) {
		t.Fatalf("expected *InsufficientStockError, got %v", err)
	}
	if detail.ProductID != products["Laptop Ultra"] || detail.Requested != 100 || detail.Available != 50 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	productRepo := NewProductRepository(store)
	phone, _ := productRepo.Get(ctx, products["Smartphone X"])
	if phone.StockQuantity != 100 {
		t.Fatalf("expected smartphone stock rolled back to 100, got %d", phone.StockQuantity)
	}
	laptop, _ := productRepo.Get(ctx, products["Laptop Ultra"])
	if laptop.StockQuantity != 50 {
		t.Fatalf("expected laptop stock unchanged at 50, got %d", laptop.StockQuantity)
	}

	var orderCount int
	if err := store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders after rollback, got %d", orderCount)
	}
	pending, _ := NewOutboxRepository(store).PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after rollback, got %d", len(pending))
	}
}

func TestOrderRepositoryIntegration_UnknownReferences(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, products := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo := NewOrderRepository(store)

	_, err := repo.CreateOrder(ctx, domain.NewOrderRequest{
		CustomerID: customerID + 1000,
		Lines:      []domain.NewOrderLine{{ProductID: products["Smartphone X"], Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrUnknownReference) {
		t.Fatalf("expected unknown reference for customer, got %v", err)
	}

	_, err = repo.CreateOrder(ctx, domain.NewOrderRequest{
		CustomerID: customerID,
		Lines:      []domain.NewOrderLine{{ProductID: 99999, Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrUnknownReference) {
		t.Fatalf("expected unknown reference for product, got %v", err)
	}
}

func TestOrderRepositoryIntegration_DuplicateLine(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, products := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := NewOrderRepository(store).CreateOrder(ctx, domain.NewOrderRequest{
		CustomerID: customerID,
		Lines: []domain.NewOrderLine{
			{ProductID: products["Smartphone X"], Quantity: 1},
			{ProductID: products["Smartphone X"], Quantity: 2},
		},
	})
	if !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}

	// Списания первой строки откатились.
	phone, _ := NewProductRepository(store).Get(ctx, products["Smartphone X"])
	if phone.StockQuantity != 100 {
		t.Fatalf("expected stock rolled back to 100, got %d", phone.StockQuantity)
	}
}

func TestOrderRepositoryIntegration_ConcurrentContention(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, _ := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	productRepo := NewProductRepository(store)
	productID, err := productRepo.Add(ctx, domain.Product{
		Name:          "Limited Edition Console",
		Price:         decimal.RequireFromString("499.00"),
		StockQuantity: 5,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	repo := NewOrderRepository(store)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.CreateOrder(ctx, domain.NewOrderRequest{
				CustomerID: customerID,
				Lines:      []domain.NewOrderLine{{ProductID: productID, Quantity: 3}},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case domain.IsInsufficientStock(err):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected 1 success and 1 rejection, got %d/%d", succeeded, rejected)
	}

	product, _ := productRepo.Get(ctx, productID)
	if product.StockQuantity != 2 {
		t.Fatalf("expected remaining stock 2, got %d", product.StockQuantity)
	}
}

func TestOrderRepositoryIntegration_HistoryAndTopSellers(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, products := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo := NewOrderRepository(store)
	for _, req := range []domain.NewOrderRequest{
		{
			CustomerID: customerID,
			Lines: []domain.NewOrderLine{
				{ProductID: products["Smartphone X"], Quantity: 1},
				{ProductID: products["Wireless Earbuds Pro"], Quantity: 2},
			},
		},
		{
			CustomerID: customerID,
			Lines: []domain.NewOrderLine{
				{ProductID: products["Smartphone X"], Quantity: 2},
				{ProductID: products["Laptop Ultra"], Quantity: 1},
			},
		},
	} {
		if _, err := repo.CreateOrder(ctx, req); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	entries, err := repo.HistoryByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 history rows, got %d", len(entries))
	}
	for _, e := range entries {
		if e.CustomerID != customerID || e.FirstName != "Alice" {
			t.Fatalf("unexpected history row: %+v", e)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].OrderDate.After(entries[i-1].OrderDate) {
			t.Fatal("expected history ordered by order date descending")
		}
	}

	// Пустая история для несуществующего покупателя, без ошибки.
	empty, err := repo.HistoryByCustomer(ctx, customerID+1000)
	if err != nil {
		t.Fatalf("history for unknown customer: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty history, got %d rows", len(empty))
	}

	sales, err := repo.TopSellingProducts(ctx, 3)
	if err != nil {
		t.Fatalf("top selling: %v", err)
	}
	if len(sales) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(sales))
	}
	if sales[0].ProductName != "Smartphone X" || sales[0].TotalQuantitySold != 3 {
		t.Fatalf("expected Smartphone X with 3 sold first, got %+v", sales[0])
	}
}

func TestOrderRepositoryIntegration_SetStatus(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, products := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo := NewOrderRepository(store)
	order, err := repo.CreateOrder(ctx, domain.NewOrderRequest{
		CustomerID: customerID,
		Lines:      []domain.NewOrderLine{{ProductID: products["Smartphone X"], Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := repo.SetStatus(ctx, order.ID, domain.OrderStatusProcessing); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected Processing, got %s", got.Status)
	}

	if err := repo.SetStatus(ctx, order.ID, "Lost"); !errors.Is(err, domain.ErrStatusInvalid) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if err := repo.SetStatus(ctx, order.ID+1000, domain.OrderStatusShipped); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}
