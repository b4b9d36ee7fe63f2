package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestOrderMetrics_RecordOrderCreated(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.RecordOrderCreated(2, 3, 150*time.Millisecond)
	m.RecordOrderCreated(1, 1, 50*time.Millisecond)

	if got := counterValue(t, m.ordersCreated); got != 2 {
		t.Fatalf("expected 2 created orders, got %v", got)
	}
	if got := counterValue(t, m.stockDeducted); got != 4 {
		t.Fatalf("expected 4 units deducted, got %v", got)
	}
	if got := counterValue(t, m.outboxEvents); got != 2 {
		t.Fatalf("expected 2 outbox events, got %v", got)
	}
}

func TestOrderMetrics_RecordOrderRejected(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.RecordOrderRejected(RejectReasonInsufficientStock, 10*time.Millisecond)
	m.RecordOrderRejected(RejectReasonInsufficientStock, 20*time.Millisecond)
	m.RecordOrderRejected(RejectReasonConnectivity, 5*time.Millisecond)

	insufficient := m.ordersRejected.WithLabelValues(RejectReasonInsufficientStock)
	if got := counterValue(t, insufficient); got != 2 {
		t.Fatalf("expected 2 insufficient stock rejections, got %v", got)
	}
	connectivity := m.ordersRejected.WithLabelValues(RejectReasonConnectivity)
	if got := counterValue(t, connectivity); got != 1 {
		t.Fatalf("expected 1 connectivity rejection, got %v", got)
	}
	validation := m.ordersRejected.WithLabelValues(RejectReasonValidation)
	if got := counterValue(t, validation); got != 0 {
		t.Fatalf("expected 0 validation rejections, got %v", got)
	}
}

func TestOrderMetrics_RepeatedRegistrationReusesCollectors(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	first := newOrderMetricsWithRegisterer(registry)
	second := newOrderMetricsWithRegisterer(registry)

	first.RecordOrderCreated(1, 1, time.Millisecond)
	second.RecordOrderCreated(1, 1, time.Millisecond)

	if got := counterValue(t, first.ordersCreated); got != 2 {
		t.Fatalf("expected shared counter with value 2, got %v", got)
	}
}
