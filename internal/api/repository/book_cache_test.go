package repository

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisBookCache_RoundTrip(t *testing.T) {
	cache := NewBookCache(startRedis(t), time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []models.BookSummary{{ID: "1", Title: "T", Author: "A", IsPremium: true, PreviewContent: "p"}}
	require.NoError(t, cache.Set(ctx, want))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopBookCache(t *testing.T) {
	cache := NewNoopBookCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, []models.BookSummary{{ID: "1"}}))
	_, ok, err := cache.Get(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
}
