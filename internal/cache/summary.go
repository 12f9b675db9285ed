package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"

	"github.com/redis/go-redis/v9"
)

func summaryKey(p core.Period) string {
	return "summary:" + p.String()
}

// MemorySummaries caches monthly summaries in the process LRU.
type MemorySummaries struct {
	lru *LRU[core.Period, core.FinancialSummary]
}

func NewMemorySummaries(size int, ttl time.Duration) *MemorySummaries {
	return &MemorySummaries{lru: NewLRU[core.Period, core.FinancialSummary](size, ttl)}
}

func (m *MemorySummaries) Get(_ context.Context, p core.Period) (core.FinancialSummary, bool) {
	return m.lru.Get(p)
}

func (m *MemorySummaries) Set(_ context.Context, s core.FinancialSummary) {
	m.lru.Set(s.Period, s)
}

func (m *MemorySummaries) Invalidate(_ context.Context, p core.Period) {
	m.lru.Delete(p)
}

func (m *MemorySummaries) InvalidateAll(context.Context) {
	m.lru.Purge()
}

// CleanExpired lets a Janitor evict stale months.
func (m *MemorySummaries) CleanExpired() int {
	return m.lru.CleanExpired()
}

// RedisSummaries shares cached summaries between service instances.
// Redis errors degrade to a cache miss; the ledger stays the source of truth.
type RedisSummaries struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func NewRedisSummaries(client *redis.Client, ttl time.Duration) *RedisSummaries {
	return &RedisSummaries{client: client, prefix: "cache:", ttl: ttl}
}

func (r *RedisSummaries) Get(ctx context.Context, p core.Period) (core.FinancialSummary, bool) {
	raw, err := r.client.Get(ctx, r.prefix+summaryKey(p)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "Redis cache read failed", "error", err, "period", p.String())
		}
		return core.FinancialSummary{}, false
	}
	var s core.FinancialSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		slog.WarnContext(ctx, "Discarding unreadable cached summary", "error", err, "period", p.String())
		return core.FinancialSummary{}, false
	}
	return s, true
}

func (r *RedisSummaries) Set(ctx context.Context, s core.FinancialSummary) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.prefix+summaryKey(s.Period), raw, r.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache write failed", "error", err, "period", s.Period.String())
	}
}

func (r *RedisSummaries) Invalidate(ctx context.Context, p core.Period) {
	if err := r.client.Del(ctx, r.prefix+summaryKey(p)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache invalidation failed", "error", err, "period", p.String())
	}
}

func (r *RedisSummaries) InvalidateAll(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"summary:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache invalidation failed", "error", err)
	}
}
