package cache

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() core.FinancialSummary {
	p := core.Period{Year: 2024, Month: 3}
	return core.Summarize(p,
		[]core.Expense{{Amount: decimal.RequireFromString("19.999"), Category: "Food"}},
		[]core.Income{{Amount: decimal.NewFromInt(100), Source: "Gift"}},
	)
}

func TestMemorySummaries(t *testing.T) {
	ctx := context.Background()
	c := NewMemorySummaries(4, time.Minute)
	s := sampleSummary()

	_, ok := c.Get(ctx, s.Period)
	assert.False(t, ok)

	c.Set(ctx, s)
	got, ok := c.Get(ctx, s.Period)
	require.True(t, ok)
	assert.Equal(t, "80.001", got.Balance.String())

	c.Invalidate(ctx, s.Period)
	_, ok = c.Get(ctx, s.Period)
	assert.False(t, ok)

	c.Set(ctx, s)
	c.InvalidateAll(ctx)
	_, ok = c.Get(ctx, s.Period)
	assert.False(t, ok)
}

func TestRedisSummaries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	c := NewRedisSummaries(client, time.Minute)
	s := sampleSummary()

	c.Set(ctx, s)
	assert.True(t, mr.Exists("cache:summary:2024-03"))

	got, ok := c.Get(ctx, s.Period)
	require.True(t, ok)
	assert.Equal(t, "80.001", got.Balance.String())
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "19.999", got.Categories[0].Total.String())

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, s.Period)
	assert.False(t, ok)

	c.Set(ctx, s)
	c.Invalidate(ctx, s.Period)
	_, ok = c.Get(ctx, s.Period)
	assert.False(t, ok)

	c.Set(ctx, s)
	require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())
	c.InvalidateAll(ctx)
	assert.False(t, mr.Exists("cache:summary:2024-03"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisSummariesDegradeToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()

	c := NewRedisSummaries(client, time.Minute)
	_, ok := c.Get(context.Background(), core.Period{Year: 2024, Month: 1})
	assert.False(t, ok)
}
