// Package redis provides the Redis-backed style sample cache
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "nutriplan:sample:"

// Config holds Redis connection settings
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TTL          time.Duration
}

// SampleCache stores approved style samples keyed by sample size
type SampleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ outbound.SampleCache = (*SampleCache)(nil)

// NewClient creates a Redis client and verifies the connection
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// NewSampleCache wraps client. A zero ttl keeps entries until invalidated.
func NewSampleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SampleCache {
	return &SampleCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("sample-cache"),
	}
}

func sampleKey(limit int) string {
	return fmt.Sprintf("%s%d", keyPrefix, limit)
}

// GetSample returns the cached sample for limit. The bool is false on a miss.
func (c *SampleCache) GetSample(ctx context.Context, limit int) ([]recipe.Summary, bool, error) {
	data, err := c.client.Get(ctx, sampleKey(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		c.logger.Debug("Cache get failed", zap.Int("limit", limit), zap.Error(err))
		return nil, false, err
	}

	var sample []recipe.Summary
	if err := json.Unmarshal(data, &sample); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next set
		c.logger.Warn("Discarding undecodable sample", zap.Int("limit", limit), zap.Error(err))
		return nil, false, nil
	}

	return sample, true, nil
}

// SetSample stores sample under limit
func (c *SampleCache) SetSample(ctx context.Context, limit int, sample []recipe.Summary) error {
	if sample == nil {
		sample = []recipe.Summary{}
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}

	if err := c.client.Set(ctx, sampleKey(limit), data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.Int("limit", limit), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate drops every cached sample
func (c *SampleCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan sample keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Cache invalidate failed", zap.Int("keys", len(keys)), zap.Error(err))
		return err
	}

	c.logger.Debug("Style samples invalidated", zap.Int("keys", len(keys)))
	return nil
}

// HealthCheck pings Redis
func (c *SampleCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
