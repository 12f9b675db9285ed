package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataBackend:  config.BackendSQLite,
		SQLiteDBPath: filepath.Join(t.TempDir(), "finance.db"),
		CacheBackend: config.CacheMemory,
		CacheSize:    4,
		CacheTTL:     time.Minute,
		EventBroker:  config.BrokerNone,
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil, prometheus.NewRegistry()).Create(ctx, testConfig(t))
	require.NoError(t, err)
	defer res.Cleanup()

	assert.NotNil(t, res.Cleaner)
	assert.NoError(t, res.Ledger.Ping(ctx))

	id, err := res.Ledger.AddExpense(ctx, core.Expense{
		Amount:   decimal.NewFromInt(5),
		Category: "Food",
		Date:     core.NewDate(2024, 3, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestCreateMemoryBackendWithoutCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = config.BackendMemory
	cfg.CacheBackend = config.CacheNone

	res, err := NewFactory(nil, nil).Create(context.Background(), cfg)
	require.NoError(t, err)
	defer res.Cleanup()

	assert.Nil(t, res.Cleaner)
}

func TestCreateRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "sheets"

	_, err := NewFactory(nil, nil).Create(context.Background(), cfg)
	assert.Error(t, err)
}

func TestUnreachableRedisDegradesToNoCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = config.BackendMemory
	cfg.CacheBackend = config.CacheRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0?dial_timeout=100ms&max_retries=-1"

	res, err := NewFactory(nil, nil).Create(context.Background(), cfg)
	require.NoError(t, err)
	defer res.Cleanup()

	_, err = res.Ledger.FinancialSummary(context.Background(), core.Period{Year: 2024, Month: 3})
	assert.NoError(t, err)
}

func TestNewPublisherSelection(t *testing.T) {
	cfg := testConfig(t)

	p, err := NewPublisher(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, events.NoopPublisher{}, p)

	cfg.EventBroker = config.BrokerKafka
	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.KafkaTopic = "ledger-events"
	p, err = NewPublisher(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, p.Close())

	cfg.EventBroker = "nats"
	_, err = NewPublisher(context.Background(), cfg)
	assert.Error(t, err)

	_, err = NewConsumer(context.Background(), &config.Config{EventBroker: config.BrokerNone})
	assert.Error(t, err)
}
