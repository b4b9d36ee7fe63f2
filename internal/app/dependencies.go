package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
	"github.com/vladislavdragonenkov/ecom/internal/storage/postgres"
)

// Dependencies содержит зависимости приложения, собранные по выбранному
// драйверу хранилища.
type Dependencies struct {
	Customers domain.CustomerRepository
	Products  domain.ProductRepository
	Orders    domain.OrderRepository
	Outbox    domain.OutboxRepository
	Logger    *log.Entry

	pgStore *postgres.Store
}

// NewDependencies инициализирует хранилище и репозитории. Для драйвера
// postgres открывается пул подключений и, если разрешено конфигом,
// применяются миграции схемы.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		logger.Info("postgres storage initialized")
		return &Dependencies{
			Customers: postgres.NewCustomerRepository(store),
			Products:  postgres.NewProductRepository(store),
			Orders:    postgres.NewOrderRepository(store),
			Outbox:    postgres.NewOutboxRepository(store),
			Logger:    logger,
			pgStore:   store,
		}, nil

	case StorageDriverMemory:
		store := memory.NewStore()
		logger.Info("in-memory storage initialized")
		return &Dependencies{
			Customers: memory.NewCustomerRepository(store),
			Products:  memory.NewProductRepository(store),
			Orders:    memory.NewOrderRepository(store),
			Outbox:    memory.NewOutboxRepository(store),
			Logger:    logger,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// RegisterHealthCheckers добавляет проверки хранилища и outbox backlog.
func (d *Dependencies) RegisterHealthCheckers(handler *health.Handler, cfg Config) {
	if d.pgStore != nil {
		handler.RegisterChecker("postgres", health.NewDatabaseChecker("postgres", d.pgStore, 0))
	}
	handler.RegisterChecker("outbox", health.NewOutboxChecker("outbox", d.Outbox, cfg.OutboxMaxLag))
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d.pgStore != nil {
		return d.pgStore.Close()
	}
	return nil
}
