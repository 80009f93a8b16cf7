package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPageCacheTTL is how long extracted pages stay cached.
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// CacheStore is the key-value collaborator behind the page cache.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements CacheStore on a Redis client.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// GetJSON reads and decodes a JSON value. A missing key reports ok=false.
func GetJSON[T any](ctx context.Context, store CacheStore, key string) (value T, ok bool, err error) {
	data, ok, err := store.Get(ctx, key)
	if err != nil {
		return value, false, fmt.Errorf("%w: get %s: %w", ErrCacheUnavailable, key, err)
	}
	if !ok {
		return value, false, nil
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return value, true, nil
}

// SetJSON encodes value as JSON and stores it with the given expiry.
func SetJSON[T any](ctx context.Context, store CacheStore, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrCacheUnavailable, key, err)
	}
	return nil
}

// PageCache stores the ordered page texts of extracted books.
type PageCache struct {
	store CacheStore
	ttl   time.Duration
}

// NewPageCache returns a cache writing entries with ttl, or
// DefaultPageCacheTTL when ttl is not positive.
func NewPageCache(store CacheStore, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	return &PageCache{store: store, ttl: ttl}
}

func (c *PageCache) TTL() time.Duration {
	return c.ttl
}

func (c *PageCache) GetPages(ctx context.Context, key string) ([]string, bool, error) {
	return GetJSON[[]string](ctx, c.store, key)
}

func (c *PageCache) SetPages(ctx context.Context, key string, pages []string) error {
	if pages == nil {
		pages = []string{}
	}
	return SetJSON(ctx, c.store, key, pages, c.ttl)
}
