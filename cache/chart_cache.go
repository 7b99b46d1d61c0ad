package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gojam/logger"
	"gojam/model"

	"github.com/go-redis/redis/v8"
)

// ChartCache keeps the most recently served chart pages in Redis so chart
// browsing degrades to stale data during a recognition-service outage.
type ChartCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewChartCache creates a ChartCache with the given TTL.
func NewChartCache(rdb *redis.Client, ttl time.Duration) *ChartCache {
	return &ChartCache{rdb: rdb, ttl: ttl}
}

func chartKey(country, genre string) string {
	if genre == "" {
		return fmt.Sprintf("charts:%s", country)
	}
	return fmt.Sprintf("charts:%s:%s", country, genre)
}

// Get returns the cached chart page, if any.
func (c *ChartCache) Get(ctx context.Context, country, genre string) ([]model.ChartEntry, bool) {
	data, err := c.rdb.Get(ctx, chartKey(country, genre)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Chart cache read failed", logger.ErrorField(err))
		}
		return nil, false
	}

	var entries []model.ChartEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("Chart cache entry corrupt, dropping", logger.ErrorField(err))
		c.rdb.Del(ctx, chartKey(country, genre))
		return nil, false
	}
	return entries, true
}

// Set stores a chart page. Failures only cost the next outage a cache hit.
func (c *ChartCache) Set(ctx context.Context, country, genre string, entries []model.ChartEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		logger.Warn("Chart cache marshal failed", logger.ErrorField(err))
		return
	}
	if err := c.rdb.Set(ctx, chartKey(country, genre), data, c.ttl).Err(); err != nil {
		logger.Warn("Chart cache write failed", logger.ErrorField(err))
	}
}
