package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func createOrderWithEventForIntegrationTest(t *testing.T, store *Store) {
	t.Helper()

	customerID, products := seedCatalogForIntegrationTest(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := NewOrderRepository(store).CreateOrder(ctx, domain.NewOrderRequest{
		CustomerID: customerID,
		Lines:      []domain.NewOrderLine{{ProductID: products["Smartphone X"], Quantity: 1}},
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}
}

func TestOutboxRepositoryIntegration_PullAndMark(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	createOrderWithEventForIntegrationTest(t, store)

	repo := NewOutboxRepository(store)

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}
	msg := pending[0]
	if msg.AggregateType != domain.AggregateTypeOrder || msg.EventType != domain.EventTypeOrderCreated {
		t.Fatalf("unexpected outbox message: %+v", msg)
	}
	if len(msg.Payload) == 0 {
		t.Fatal("expected non-empty payload")
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 1 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	after, _ := repo.PullPending(10)
	if len(after) != 0 {
		t.Fatalf("expected no pending after mark sent, got %d", len(after))
	}
	stats, _ = repo.Stats()
	if stats.PendingCount != 0 {
		t.Fatalf("expected zero pending count, got %d", stats.PendingCount)
	}
}

func TestOutboxRepositoryIntegration_MarkFailed(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	createOrderWithEventForIntegrationTest(t, store)

	repo := NewOutboxRepository(store)
	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if err := repo.MarkFailed(pending[0].ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	after, _ := repo.PullPending(10)
	if len(after) != 0 {
		t.Fatalf("expected failed message to leave pending set, got %d", len(after))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var attempts int
	if err := store.DB().QueryRowContext(ctx,
		`SELECT attempt_count FROM outbox_messages WHERE id = $1`,
		pending[0].ID,
	).Scan(&attempts); err != nil {
		t.Fatalf("read attempt count: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected attempt count 1, got %d", attempts)
	}
}

func TestOutboxRepositoryIntegration_MarkUnknownID(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	repo := NewOutboxRepository(store)
	err := repo.MarkSent("00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrOutboxMessageMissing) {
		t.Fatalf("expected ErrOutboxMessageMissing, got %v", err)
	}
}
