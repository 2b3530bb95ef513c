package repository

import (
	"context"
	"ctchen222/bookshelf/internal/api/models"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const catalogCacheKey = "catalog:books"

// BookCache holds the public catalog listing between requests.
type BookCache interface {
	// Get returns the cached listing; ok is false on a miss.
	Get(ctx context.Context) (books []models.BookSummary, ok bool, err error)
	Set(ctx context.Context, books []models.BookSummary) error
	Invalidate(ctx context.Context) error
}

type redisBookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBookCache creates a Redis-backed BookCache whose entries expire after
// ttl. A zero ttl keeps the listing until invalidated.
func NewBookCache(rdb *redis.Client, ttl time.Duration) BookCache {
	return &redisBookCache{rdb: rdb, ttl: ttl}
}

func (c *redisBookCache) Get(ctx context.Context) ([]models.BookSummary, bool, error) {
	ctx, span := tracer.Start(ctx, "BookCache.Get")
	defer span.End()

	data, err := c.rdb.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to read catalog from redis: %w", err)
	}

	var books []models.BookSummary
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached catalog: %w", err)
	}
	return books, true, nil
}

func (c *redisBookCache) Set(ctx context.Context, books []models.BookSummary) error {
	ctx, span := tracer.Start(ctx, "BookCache.Set")
	defer span.End()

	data, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := c.rdb.Set(ctx, catalogCacheKey, data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write catalog to redis: %w", err)
	}
	return nil
}

func (c *redisBookCache) Invalidate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "BookCache.Invalidate")
	defer span.End()

	return c.rdb.Del(ctx, catalogCacheKey).Err()
}

type noopBookCache struct{}

// NewNoopBookCache returns a BookCache that never holds anything. It is
// used when no Redis address is configured.
func NewNoopBookCache() BookCache {
	return noopBookCache{}
}

func (noopBookCache) Get(context.Context) ([]models.BookSummary, bool, error) { return nil, false, nil }
func (noopBookCache) Set(context.Context, []models.BookSummary) error        { return nil }
func (noopBookCache) Invalidate(context.Context) error                       { return nil }
