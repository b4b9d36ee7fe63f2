package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказа createOrder для лейбла reason.
const (
	RejectReasonValidation        = "validation"
	RejectReasonInsufficientStock = "insufficient_stock"
	RejectReasonUnknownReference  = "unknown_reference"
	RejectReasonConstraint        = "constraint_violation"
	RejectReasonConnectivity      = "connectivity"
	RejectReasonInternal          = "internal"
)

// OrderMetrics содержит метрики операций над заказами.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	ordersRejected *prometheus.CounterVec

	createDuration prometheus.Histogram
	itemsPerOrder  prometheus.Histogram

	stockDeducted prometheus.Counter
	outboxEvents  prometheus.Counter
}

// NewOrderMetrics создаёт метрики и регистрирует их в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_created_total",
			Help: "Total number of orders created successfully",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_rejected_total",
			Help: "Total number of order creation attempts rejected, by reason",
		}, []string{"reason"}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_create_duration_seconds",
			Help:    "Duration of the order creation transaction in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		itemsPerOrder: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_items_per_order",
			Help:    "Number of line items per created order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		stockDeducted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_stock_units_deducted_total",
			Help: "Total product units deducted from stock by successful orders",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_order_outbox_events_total",
			Help: "Total order events enqueued to the transactional outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated фиксирует успешное создание заказа.
func (m *OrderMetrics) RecordOrderCreated(items int, unitsDeducted int64, duration time.Duration) {
	m.ordersCreated.Inc()
	m.itemsPerOrder.Observe(float64(items))
	m.stockDeducted.Add(float64(unitsDeducted))
	m.outboxEvents.Inc()
	m.createDuration.Observe(duration.Seconds())
}

// RecordOrderRejected фиксирует отказ с указанием причины.
func (m *OrderMetrics) RecordOrderRejected(reason string, duration time.Duration) {
	m.ordersRejected.WithLabelValues(reason).Inc()
	m.createDuration.Observe(duration.Seconds())
}
