package memory

import (
	"errors"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// ErrOutboxMessageMissing возвращается при попытке пометить несуществующее сообщение.
var ErrOutboxMessageMissing = errors.New("outbox message not found")

type outboxRepository struct {
	store *Store
}

// NewOutboxRepository возвращает in-memory реализацию OutboxRepository.
// Записи в очередь добавляет CreateOrder того же Store.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &outboxRepository{store: store}
}

func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	result := make([]domain.OutboxMessage, 0, limit)
	for _, rec := range r.store.outbox {
		if rec.status != "pending" {
			continue
		}
		result = append(result, rec.msg)
		if len(result) >= limit {
			break
		}
	}

	return result, nil
}

func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var stats domain.OutboxStats
	for _, rec := range r.store.outbox {
		if rec.status != "pending" {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.createdAt
		}
	}

	return stats, nil
}

func (r *outboxRepository) MarkSent(id string) error {
	return r.markStatus(id, "sent")
}

func (r *outboxRepository) MarkFailed(id string) error {
	return r.markStatus(id, "failed")
}

func (r *outboxRepository) markStatus(id, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, rec := range r.store.outbox {
		if rec.msg.ID == id {
			rec.status = status
			return nil
		}
	}
	return ErrOutboxMessageMissing
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
