// Демонстрационный сценарий магазина: регистрирует покупателей и товары,
// создаёт заказы, показывает откат при нехватке остатков, историю заказов
// и бестселлеры. По умолчанию работает на in-memory хранилище; с
// ECOM_POSTGRES_DSN использует PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/app"
	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/catalog"
	"github.com/vladislavdragonenkov/ecom/internal/service/orders"
)

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.WarnLevel) // в демо пишем через fmt, логи только про ошибки

	cfg := app.DefaultConfig()
	if dsn := os.Getenv("ECOM_POSTGRES_DSN"); dsn != "" {
		cfg.StorageDriver = app.StorageDriverPostgres
		cfg.PostgresDSN = dsn
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps, err := app.NewDependencies(ctx, cfg, log.WithField("component", "demo"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage is unavailable: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	catalogSvc := catalog.NewService(deps.Customers, deps.Products, deps.Logger)
	orderSvc := orders.NewService(deps.Orders, nil, deps.Logger)

	fmt.Println("\n--- Adding Customers ---")
	alice := mustAddCustomer(ctx, catalogSvc, domain.Customer{
		FirstName: "Alice", LastName: "Smith",
		Email: "alice.smith@example.com", Phone: "123-456-7890",
	})
	bob := mustAddCustomer(ctx, catalogSvc, domain.Customer{
		FirstName: "Bob", LastName: "Johnson",
		Email: "bob.j@example.com",
	})

	fmt.Println("\n--- Adding Products ---")
	smartphone := mustAddProduct(ctx, catalogSvc, "Smartphone X", "Latest model smartphone", "999.99", 100)
	earbuds := mustAddProduct(ctx, catalogSvc, "Wireless Earbuds Pro", "Noise-cancelling earbuds", "199.00", 200)
	laptop := mustAddProduct(ctx, catalogSvc, "Laptop Ultra", "High-performance ultrabook", "1499.00", 50)
	mustAddProduct(ctx, catalogSvc, "Smart Watch 2.0", "Fitness and notification watch", "299.00", 75)

	fmt.Println("\n--- Creating Orders ---")
	createOrder(ctx, orderSvc, alice, []domain.NewOrderLine{
		{ProductID: smartphone, Quantity: 1},
		{ProductID: earbuds, Quantity: 2},
	})
	createOrder(ctx, orderSvc, bob, []domain.NewOrderLine{
		{ProductID: smartphone, Quantity: 2},
		{ProductID: laptop, Quantity: 1},
	})

	fmt.Println("\n--- Attempting to create an order with insufficient stock ---")
	// Laptop Ultra: в наличии 50, запрашиваем 100. Заказ целиком откатывается.
	createOrder(ctx, orderSvc, alice, []domain.NewOrderLine{
		{ProductID: laptop, Quantity: 100},
	})
	if p, err := catalogSvc.GetProduct(ctx, laptop); err == nil {
		fmt.Printf("Laptop Ultra stock after rollback: %d\n", p.StockQuantity)
	}

	printHistory(ctx, orderSvc, catalogSvc, alice)
	printHistory(ctx, orderSvc, catalogSvc, bob)

	fmt.Println("\n--- Top Selling Products ---")
	sales, err := orderSvc.TopSellingProducts(ctx, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load top sellers: %v\n", err)
	}
	for i, s := range sales {
		fmt.Printf("  %d. %s — %d units sold\n", i+1, s.ProductName, s.TotalQuantitySold)
	}

	fmt.Println("\n--- Updating Product Stock ---")
	if err := catalogSvc.SetProductStock(ctx, earbuds, 150); err != nil {
		fmt.Fprintf(os.Stderr, "failed to update stock: %v\n", err)
	} else {
		fmt.Println("Wireless Earbuds Pro stock set to 150")
	}
}

func mustAddCustomer(ctx context.Context, svc *catalog.Service, c domain.Customer) int64 {
	id, err := svc.AddCustomer(ctx, c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to add customer %s: %v\n", c.Email, err)
		os.Exit(1)
	}
	fmt.Printf("Customer %s %s added with ID %d\n", c.FirstName, c.LastName, id)
	return id
}

func mustAddProduct(ctx context.Context, svc *catalog.Service, name, description, price string, stock int32) int64 {
	id, err := svc.AddProduct(ctx, domain.Product{
		Name:          name,
		Description:   description,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to add product %s: %v\n", name, err)
		os.Exit(1)
	}
	fmt.Printf("Product %q added with ID %d\n", name, id)
	return id
}

func createOrder(ctx context.Context, svc *orders.Service, customerID int64, lines []domain.NewOrderLine) {
	order, err := svc.CreateOrder(ctx, domain.NewOrderRequest{CustomerID: customerID, Lines: lines})
	if err != nil {
		fmt.Printf("Order failed for customer %d: %v\n", customerID, err)
		return
	}
	fmt.Printf("Order %d created for customer %d, total %s\n",
		order.ID, order.CustomerID, order.TotalAmount.StringFixed(2))
}

func printHistory(ctx context.Context, orderSvc *orders.Service, catalogSvc *catalog.Service, customerID int64) {
	customer, err := catalogSvc.GetCustomer(ctx, customerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load customer %d: %v\n", customerID, err)
		return
	}

	fmt.Printf("\n--- Order History for %s ---\n", customer.FullName())
	entries, err := orderSvc.CustomerOrderHistory(ctx, customerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load history: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("  no orders")
		return
	}
	for _, e := range entries {
		subtotal := e.PriceAtPurchase.Mul(decimal.NewFromInt32(e.Quantity))
		fmt.Printf("  order %d [%s] %s: %d x %s @ %s (subtotal %s)\n",
			e.OrderID, e.Status, e.OrderDate.Format("2006-01-02 15:04"),
			e.Quantity, e.ProductName,
			e.PriceAtPurchase.StringFixed(2), subtotal.StringFixed(2))
	}
}
