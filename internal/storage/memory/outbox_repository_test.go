package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func createOrderWithEvent(t *testing.T) (*Store, domain.OutboxRepository) {
	t.Helper()

	store, customerID, products := seedStore(t)
	if _, err := NewOrderRepository(store).CreateOrder(context.Background(), domain.NewOrderRequest{
		CustomerID: customerID,
		Lines:      []domain.NewOrderLine{{ProductID: products["Smartphone X"], Quantity: 1}},
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return store, NewOutboxRepository(store)
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	_, repo := createOrderWithEvent(t)

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 1 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.MarkSent(pending[0].ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	after, _ := repo.PullPending(10)
	if len(after) != 0 {
		t.Fatalf("expected no pending messages after mark sent, got %d", len(after))
	}
	stats, _ = repo.Stats()
	if stats.PendingCount != 0 {
		t.Fatalf("expected zero pending count, got %d", stats.PendingCount)
	}
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	_, repo := createOrderWithEvent(t)

	pending, _ := repo.PullPending(10)
	if err := repo.MarkFailed(pending[0].ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	after, _ := repo.PullPending(10)
	if len(after) != 0 {
		t.Fatalf("expected failed message to leave pending set, got %d", len(after))
	}
}

func TestOutboxRepository_MarkUnknownID(t *testing.T) {
	_, repo := createOrderWithEvent(t)

	if err := repo.MarkSent("no-such-id"); !errors.Is(err, ErrOutboxMessageMissing) {
		t.Fatalf("expected ErrOutboxMessageMissing, got %v", err)
	}
}
