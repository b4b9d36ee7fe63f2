package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type staticChecker struct {
	status Status
}

func (c staticChecker) Check() Check {
	return Check{Name: "static", Status: c.status}
}

func TestHandler_AllHealthy(t *testing.T) {
	t.Parallel()

	handler := NewHandler("test")
	handler.RegisterChecker("a", staticChecker{status: StatusHealthy})
	handler.RegisterChecker("b", staticChecker{status: StatusHealthy})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", resp.Status)
	}
	if resp.Version != "test" {
		t.Fatalf("expected version test, got %s", resp.Version)
	}
	if len(resp.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(resp.Checks))
	}
}

func TestHandler_UnhealthyWins(t *testing.T) {
	t.Parallel()

	handler := NewHandler("test")
	handler.RegisterChecker("ok", staticChecker{status: StatusHealthy})
	handler.RegisterChecker("bad", staticChecker{status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != 503 {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandler_DegradedKeeps200(t *testing.T) {
	t.Parallel()

	handler := NewHandler("test")
	handler.RegisterChecker("lagging", staticChecker{status: StatusDegraded})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200 for degraded, got %d", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", resp.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	handler := NewHandler("test")
	handler.RegisterChecker("ok", staticChecker{status: StatusHealthy})

	rec := httptest.NewRecorder()
	handler.ReadinessHandler(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 200 {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	handler.RegisterChecker("bad", staticChecker{status: StatusUnhealthy})
	rec = httptest.NewRecorder()
	handler.ReadinessHandler(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 503 {
		t.Fatalf("expected not ready, got %d", rec.Code)
	}
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(_ context.Context) error { return p.err }

func TestDatabaseChecker(t *testing.T) {
	t.Parallel()

	healthy := NewDatabaseChecker("postgres", stubPinger{}, time.Second)
	if check := healthy.Check(); check.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %+v", check)
	}

	broken := NewDatabaseChecker("postgres", stubPinger{err: errors.New("connection refused")}, time.Second)
	check := broken.Check()
	if check.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %+v", check)
	}
	if check.Message == "" {
		t.Fatal("expected error message in check")
	}
}

type stubOutboxStats struct {
	stats domain.OutboxStats
	err   error
}

func (s stubOutboxStats) PullPending(int) ([]domain.OutboxMessage, error) { return nil, nil }
func (s stubOutboxStats) Stats() (domain.OutboxStats, error)              { return s.stats, s.err }
func (s stubOutboxStats) MarkSent(string) error                           { return nil }
func (s stubOutboxStats) MarkFailed(string) error                         { return nil }

func TestOutboxChecker(t *testing.T) {
	t.Parallel()

	empty := NewOutboxChecker("outbox", stubOutboxStats{}, time.Minute)
	if check := empty.Check(); check.Status != StatusHealthy {
		t.Fatalf("expected healthy for empty backlog, got %+v", check)
	}

	fresh := NewOutboxChecker("outbox", stubOutboxStats{
		stats: domain.OutboxStats{PendingCount: 3, OldestPendingAt: time.Now().Add(-time.Second)},
	}, time.Minute)
	if check := fresh.Check(); check.Status != StatusHealthy {
		t.Fatalf("expected healthy for fresh backlog, got %+v", check)
	}

	lagging := NewOutboxChecker("outbox", stubOutboxStats{
		stats: domain.OutboxStats{PendingCount: 3, OldestPendingAt: time.Now().Add(-time.Hour)},
	}, time.Minute)
	if check := lagging.Check(); check.Status != StatusDegraded {
		t.Fatalf("expected degraded for lagging backlog, got %+v", check)
	}

	failing := NewOutboxChecker("outbox", stubOutboxStats{err: errors.New("boom")}, time.Minute)
	if check := failing.Check(); check.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy on stats error, got %+v", check)
	}
}
