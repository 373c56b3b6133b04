// Package memory provides the in-process style sample cache
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/ports/outbound"
)

// CacheItem represents a cached sample
type CacheItem struct {
	Sample    []recipe.Summary
	ExpiresAt time.Time
}

// SampleCache keeps approved style samples in memory, keyed by sample size.
// Expired entries are dropped lazily on read.
type SampleCache struct {
	data  map[int]CacheItem
	ttl   time.Duration
	now   func() time.Time
	mutex sync.RWMutex
}

var _ outbound.SampleCache = (*SampleCache)(nil)

// NewSampleCache creates an in-memory sample cache. A zero ttl keeps
// entries until invalidated.
func NewSampleCache(ttl time.Duration) *SampleCache {
	return &SampleCache{
		data: make(map[int]CacheItem),
		ttl:  ttl,
		now:  time.Now,
	}
}

// GetSample returns a copy of the cached sample for limit
func (c *SampleCache) GetSample(ctx context.Context, limit int) ([]recipe.Summary, bool, error) {
	c.mutex.RLock()
	item, exists := c.data[limit]
	c.mutex.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if c.expired(item) {
		c.mutex.Lock()
		delete(c.data, limit)
		c.mutex.Unlock()
		return nil, false, nil
	}

	return append([]recipe.Summary(nil), item.Sample...), true, nil
}

// SetSample stores a copy of sample under limit
func (c *SampleCache) SetSample(ctx context.Context, limit int, sample []recipe.Summary) error {
	item := CacheItem{Sample: append([]recipe.Summary{}, sample...)}
	if c.ttl > 0 {
		item.ExpiresAt = c.now().Add(c.ttl)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[limit] = item
	return nil
}

// Invalidate drops every cached sample
func (c *SampleCache) Invalidate(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[int]CacheItem)
	return nil
}

func (c *SampleCache) expired(item CacheItem) bool {
	return !item.ExpiresAt.IsZero() && c.now().After(item.ExpiresAt)
}
