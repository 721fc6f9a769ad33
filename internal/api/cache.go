package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"tenant-api/internal/cache"
	"tenant-api/internal/logger"
	"tenant-api/internal/metrics"
)

// 文档注释：两级响应缓存（进程内 LRU → Redis）
// 背景：归属计算为 O(n²)，相同图层与参数的请求直接复用已编码响应体。
// 约束：Redis 不可用时仅记录日志，不影响主流程；Redis 命中时回填 LRU。
type responseCache struct {
	lru *cache.LRU
	rc  *redis.Client
	ttl time.Duration
}

func (c *responseCache) get(ctx context.Context, key string) ([]byte, string) {
	if c.lru != nil {
		if b, ok := c.lru.Get(key); ok {
			metrics.CacheHitsTotal.WithLabelValues("lru").Inc()
			return b, "lru"
		}
	}
	if c.rc != nil {
		b, err := c.rc.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
			if c.lru != nil {
				c.lru.Set(key, b)
			}
			return b, "redis"
		case err != redis.Nil:
			logger.L().Warn("redis_get_error", "key", key, "err", err)
		}
	}
	metrics.CacheMissesTotal.Inc()
	return nil, ""
}

func (c *responseCache) set(ctx context.Context, key string, b []byte) {
	if c.lru != nil {
		c.lru.Set(key, b)
	}
	if c.rc != nil {
		if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
			logger.L().Warn("redis_set_error", "key", key, "err", err)
		}
	}
}
