// Package backend assembles the ledger service from configuration: the store,
// the event broker, the summary cache and metrics.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/kafka"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the assembled service and what the caller must release.
type Result struct {
	Ledger  *services.LedgerService
	Metrics *metrics.Metrics
	// Cleaner is set when summaries live in the process LRU so the caller can
	// register it with a cache.Janitor.
	Cleaner cache.Cleaner
	Cleanup CleanupFunc
}

// Consumer is a broker subscription feeding ledger events to a handler.
type Consumer interface {
	Consume(ctx context.Context, handler events.Handler) error
	Close() error
}

type Factory struct {
	logger   *slog.Logger
	registry prometheus.Registerer
}

// NewFactory creates a factory registering metrics with reg.
func NewFactory(logger *slog.Logger, reg prometheus.Registerer) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Factory{logger: logger, registry: reg}
}

// Create opens the store and wires the optional side effects. Broker and
// cache connection failures degrade to running without them; a store
// failure is fatal.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	store, err := f.createStore(cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(ctx, cfg)
	if err != nil {
		f.logger.Warn("Failed to initialize event publisher, continuing without events", "broker", cfg.EventBroker, "error", err)
		publisher = events.NoopPublisher{}
	}

	m := metrics.New(f.registry)
	opts := []services.Option{services.WithPublisher(publisher), services.WithMetrics(m)}

	result := &Result{Metrics: m}
	var redisClient *redis.Client

	switch cfg.CacheBackend {
	case config.CacheMemory:
		summaries := cache.NewMemorySummaries(cfg.CacheSize, cfg.CacheTTL)
		opts = append(opts, services.WithSummaryCache(summaries))
		result.Cleaner = summaries
	case config.CacheRedis:
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			f.logger.Warn("Failed to connect to Redis, summaries will not be cached", "error", err)
		} else {
			opts = append(opts, services.WithSummaryCache(cache.NewRedisSummaries(redisClient, cfg.CacheTTL)))
		}
	}

	ledger := services.NewLedgerService(store, opts...)
	result.Ledger = ledger
	result.Cleanup = func() error {
		var errs []error
		if err := ledger.Close(); err != nil {
			errs = append(errs, err)
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized ledger backend",
		"data_backend", cfg.DataBackend,
		"event_broker", cfg.EventBroker,
		"cache_backend", cfg.CacheBackend)

	return result, nil
}

func (f *Factory) createStore(cfg *config.Config) (services.Store, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case config.BackendMemory:
		f.logger.Warn("Using in-memory ledger, entries are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// NewPublisher returns the publisher selected by EVENT_BROKER.
func NewPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, error) {
	switch cfg.EventBroker {
	case config.BrokerNone, "":
		return events.NoopPublisher{}, nil
	case config.BrokerAMQP:
		return amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	case config.BrokerKafka:
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported event broker: %s", cfg.EventBroker)
	}
}

// NewConsumer returns the subscription selected by EVENT_BROKER.
func NewConsumer(ctx context.Context, cfg *config.Config) (Consumer, error) {
	switch cfg.EventBroker {
	case config.BrokerAMQP:
		return amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	case config.BrokerKafka:
		return kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID), nil
	default:
		return nil, fmt.Errorf("event broker %q cannot be consumed", cfg.EventBroker)
	}
}
