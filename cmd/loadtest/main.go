// Нагрузочная проверка транзакции создания заказа: N конкурентных
// покупателей соревнуются за общий остаток одного товара. Проверяет,
// что суммарно продано не больше, чем было на складе, и печатает
// JSON-отчёт с латентностью.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/app"
	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/orders"
)

type config struct {
	total       int
	concurrency int
	stock       int32
	qty         int32
	timeout     time.Duration
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type report struct {
	StartedAt         time.Time      `json:"started_at"`
	DurationSeconds   float64        `json:"duration_seconds"`
	TotalOrders       int64          `json:"total_orders"`
	CreatedOrders     int64          `json:"created_orders"`
	RejectedStock     int64          `json:"rejected_insufficient_stock"`
	FailedOrders      int64          `json:"failed_orders"`
	RPS               float64        `json:"rps"`
	InitialStock      int32          `json:"initial_stock"`
	RemainingStock    int32          `json:"remaining_stock"`
	UnitsSold         int64          `json:"units_sold"`
	OversellDetected  bool           `json:"oversell_detected"`
	CreateLatencyMs   latencySummary `json:"create_latency_ms"`
}

type collector struct {
	mu        sync.Mutex
	latencies []float64
}

func (c *collector) record(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latencies = append(c.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) summary() latencySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summarize(c.latencies)
}

func summarize(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func main() {
	cfg := readFlags()
	_ = godotenv.Load()
	log.SetLevel(log.WarnLevel)

	appCfg := app.DefaultConfig()
	if dsn := os.Getenv("ECOM_POSTGRES_DSN"); dsn != "" {
		appCfg.StorageDriver = app.StorageDriverPostgres
		appCfg.PostgresDSN = dsn
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	deps, err := app.NewDependencies(ctx, appCfg, log.WithField("component", "loadtest"))
	if err != nil {
		fail("storage is unavailable: %v", err)
	}
	defer deps.Close()

	customerID, productID := seed(ctx, deps, cfg)
	orderSvc := orders.NewService(deps.Orders, nil, deps.Logger)

	var (
		created  atomic.Int64
		rejected atomic.Int64
		failed   atomic.Int64
	)
	col := &collector{}

	startedAt := time.Now()
	jobs := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				start := time.Now()
				_, err := orderSvc.CreateOrder(ctx, domain.NewOrderRequest{
					CustomerID: customerID,
					Lines:      []domain.NewOrderLine{{ProductID: productID, Quantity: cfg.qty}},
				})
				col.record(time.Since(start))

				switch {
				case err == nil:
					created.Add(1)
				case domain.IsInsufficientStock(err):
					rejected.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	for i := 0; i < cfg.total; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(startedAt)

	product, err := deps.Products.Get(ctx, productID)
	if err != nil {
		fail("failed to read remaining stock: %v", err)
	}

	unitsSold := created.Load() * int64(cfg.qty)
	rep := report{
		StartedAt:        startedAt.UTC(),
		DurationSeconds:  elapsed.Seconds(),
		TotalOrders:      int64(cfg.total),
		CreatedOrders:    created.Load(),
		RejectedStock:    rejected.Load(),
		FailedOrders:     failed.Load(),
		RPS:              float64(cfg.total) / elapsed.Seconds(),
		InitialStock:     cfg.stock,
		RemainingStock:   product.StockQuantity,
		UnitsSold:        unitsSold,
		OversellDetected: unitsSold+int64(product.StockQuantity) != int64(cfg.stock),
		CreateLatencyMs:  col.summary(),
	}

	writeReport(cfg.outputPath, rep)
	if rep.OversellDetected {
		fail("oversell detected: sold %d units with initial stock %d (remaining %d)",
			unitsSold, cfg.stock, product.StockQuantity)
	}
}

func readFlags() config {
	cfg := config{}
	flag.IntVar(&cfg.total, "total", 200, "total number of orders to attempt")
	flag.IntVar(&cfg.concurrency, "concurrency", 16, "number of concurrent buyers")
	stock := flag.Int("stock", 100, "initial stock of the contested product")
	qty := flag.Int("qty", 1, "quantity per order")
	flag.DurationVar(&cfg.timeout, "timeout", 2*time.Minute, "overall run timeout")
	flag.StringVar(&cfg.outputPath, "output", "", "path for JSON report (default stdout)")
	flag.Parse()

	if cfg.total <= 0 || cfg.concurrency <= 0 || *stock <= 0 || *qty <= 0 {
		fail("total, concurrency, stock and qty must be positive")
	}
	cfg.stock = int32(*stock)
	cfg.qty = int32(*qty)
	return cfg
}

func seed(ctx context.Context, deps *app.Dependencies, cfg config) (customerID, productID int64) {
	var err error
	customerID, err = deps.Customers.Add(ctx, domain.Customer{
		FirstName: "Load",
		LastName:  "Tester",
		Email:     fmt.Sprintf("loadtest+%d@example.com", time.Now().UnixNano()),
	})
	if err != nil {
		fail("failed to seed customer: %v", err)
	}

	productID, err = deps.Products.Add(ctx, domain.Product{
		Name:          fmt.Sprintf("Contested Gadget %d", time.Now().UnixNano()),
		Description:   "single product contested by concurrent buyers",
		Price:         decimal.RequireFromString("49.90"),
		StockQuantity: cfg.stock,
	})
	if err != nil {
		fail("failed to seed product: %v", err)
	}
	return customerID, productID
}

func writeReport(path string, rep report) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fail("failed to marshal report: %v", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, _ = os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fail("failed to write report: %v", err)
	}
	fmt.Printf("report written to %s\n", path)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
