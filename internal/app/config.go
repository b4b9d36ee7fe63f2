package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения. Значения читаются из
// переменных окружения с префиксом ECOM_.
type Config struct {
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers     []string
	OrderEventsTopic string
	DLQTopic         string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	OutboxMaxAttempts    int
	OutboxRetryBaseDelay time.Duration
	OutboxMaxLag         time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию: метрики на :9090,
// in-memory хранилище, outbox-воркер с секундным опросом.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:          ":9090",
		StorageDriver:        StorageDriverMemory,
		OrderEventsTopic:     "ecom.order.events",
		DLQTopic:             "ecom.dlq",
		OutboxPollInterval:   time.Second,
		OutboxBatchSize:      100,
		OutboxMaxAttempts:    3,
		OutboxRetryBaseDelay: 50 * time.Millisecond,
		OutboxMaxLag:         5 * time.Minute,
	}
}

// ConfigFromEnv строит конфигурацию из окружения поверх значений по умолчанию.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("ECOM_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ECOM_STORAGE_DRIVER"); v != "" {
		switch v {
		case StorageDriverMemory, StorageDriverPostgres:
			cfg.StorageDriver = v
		default:
			return Config{}, fmt.Errorf("unknown storage driver %q (expected %q or %q)",
				v, StorageDriverMemory, StorageDriverPostgres)
		}
	}
	if v := os.Getenv("ECOM_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if cfg.StorageDriver == StorageDriverPostgres && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("ECOM_POSTGRES_DSN is required for the postgres storage driver")
	}

	var err error
	if cfg.PostgresAutoMigrate, err = envBool("ECOM_POSTGRES_AUTO_MIGRATE", true); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("ECOM_KAFKA_BROKERS"); v != "" {
		for _, broker := range strings.Split(v, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	if v := os.Getenv("ECOM_ORDER_EVENTS_TOPIC"); v != "" {
		cfg.OrderEventsTopic = v
	}
	if v := os.Getenv("ECOM_DLQ_TOPIC"); v != "" {
		cfg.DLQTopic = v
	}

	if cfg.OutboxPollInterval, err = envDuration("ECOM_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.OutboxBatchSize, err = envInt("ECOM_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize); err != nil {
		return Config{}, err
	}
	if cfg.OutboxMaxAttempts, err = envInt("ECOM_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.OutboxRetryBaseDelay, err = envDuration("ECOM_OUTBOX_RETRY_BASE_DELAY", cfg.OutboxRetryBaseDelay); err != nil {
		return Config{}, err
	}
	if cfg.OutboxMaxLag, err = envDuration("ECOM_OUTBOX_MAX_LAG", cfg.OutboxMaxLag); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envBool(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	return parsed, nil
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	return parsed, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	return parsed, nil
}
