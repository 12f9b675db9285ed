// Package cache holds computed monthly summaries, in process or in Redis.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is a cache with entries that expire and must be swept.
type Cleaner interface {
	CleanExpired() int
}

// Janitor sweeps registered caches on a fixed interval.
type Janitor struct {
	interval time.Duration
	logger   *slog.Logger
	caches   []Cleaner
}

func NewJanitor(interval time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{interval: interval, logger: logger}
}

// Register adds a cache. Call before Run.
func (j *Janitor) Register(c Cleaner) {
	if c != nil {
		j.caches = append(j.caches, c)
	}
}

// Sweep cleans every registered cache once and returns the number of evicted entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps until ctx is cancelled. It returns immediately when nothing is registered.
func (j *Janitor) Run(ctx context.Context) {
	if len(j.caches) == 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("Evicted expired cache entries", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
