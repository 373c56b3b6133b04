//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/recipe"
	redisCache "github.com/nutriplan/planner/internal/infrastructure/persistence/redis"
	"github.com/nutriplan/planner/pkg/healthcheck"
	"github.com/nutriplan/planner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisSampleCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container tests in short mode")
	}
	client := testutils.SetupTestRedis(t)
	ctx := context.Background()

	cache := redisCache.NewSampleCache(client, time.Minute, zap.NewNop())
	sample := []recipe.Summary{
		{ID: uuid.New(), Title: "Sopa de lentejas", Kcal: 320},
		{ID: uuid.New(), Title: "Tacos de frijol", Kcal: 450},
	}

	t.Run("miss then hit", func(t *testing.T) {
		_, ok, err := cache.GetSample(ctx, 20)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.SetSample(ctx, 20, sample))

		got, ok, err := cache.GetSample(ctx, 20)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, sample, got)

		ttl, err := client.TTL(ctx, "nutriplan:sample:20").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("empty sample is a hit", func(t *testing.T) {
		require.NoError(t, cache.SetSample(ctx, 5, nil))

		got, ok, err := cache.GetSample(ctx, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("corrupt entry is a miss", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "nutriplan:sample:7", "not json", 0).Err())

		_, ok, err := cache.GetSample(ctx, 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalidate drops every size", func(t *testing.T) {
		require.NoError(t, cache.SetSample(ctx, 20, sample))
		require.NoError(t, cache.SetSample(ctx, 10, sample[:1]))
		require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())

		require.NoError(t, cache.Invalidate(ctx))

		for _, limit := range []int{5, 10, 20} {
			_, ok, err := cache.GetSample(ctx, limit)
			require.NoError(t, err)
			assert.False(t, ok, "limit %d", limit)
		}
		assert.Equal(t, "keep", client.Get(ctx, "unrelated").Val())
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, cache.HealthCheck(ctx))
		res := healthcheck.RedisPing(client).Check(ctx)
		assert.Equal(t, healthcheck.StatusHealthy, res.Status)
	})
}
