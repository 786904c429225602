// Package cache provides an optional Redis-backed cache for metric results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/moniepoint/analytics/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPrefix = "analytics:metric:"

// MetricCache stores serialized metric results with a short TTL. Imports
// invalidate the whole namespace after commit, so cached entries never
// outlive a store change by more than the TTL.
type MetricCache interface {
	Get(ctx context.Context, metric string, dest any) bool
	Set(ctx context.Context, metric string, value any)
	Invalidate(ctx context.Context)
}

var Module = fx.Module("cache",
	fx.Provide(NewMetricCache),
)

// NewMetricCache returns a Redis-backed cache, or a no-op when disabled.
func NewMetricCache(cfg config.Config, log *zap.Logger) (MetricCache, error) {
	cacheCfg := cfg.Cache
	if !cacheCfg.Enabled {
		return noopCache{}, nil
	}

	addr := strings.TrimSpace(cacheCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("metric cache redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cacheCfg.RedisPassword,
		DB:       cacheCfg.RedisDB,
	})

	ttl := time.Duration(cacheCfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &redisCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("cache.metric"),
	}, nil
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func (c *redisCache) Get(ctx context.Context, metric string, dest any) bool {
	payload, err := c.client.Get(ctx, keyPrefix+metric).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("metric cache read failed", zap.String("metric", metric), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		c.log.Warn("metric cache payload corrupt", zap.String("metric", metric), zap.Error(err))
		return false
	}
	return true
}

func (c *redisCache) Set(ctx context.Context, metric string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("metric cache encode failed", zap.String("metric", metric), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyPrefix+metric, payload, c.ttl).Err(); err != nil {
		c.log.Warn("metric cache write failed", zap.String("metric", metric), zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn("metric cache invalidation failed", zap.Error(err))
			return
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("metric cache scan failed", zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) bool { return false }
func (noopCache) Set(context.Context, string, any)      {}
func (noopCache) Invalidate(context.Context)            {}
