package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestPageCache_RoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewPageCache(NewRedisStore(client), 0)
	ctx := context.Background()

	_, ok, err := cache.GetPages(ctx, "book_content_md_phb.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	pages := []string{"# Sleep\nYou cause a creature to fall asleep.", "second page"}
	require.NoError(t, cache.SetPages(ctx, "book_content_md_phb.pdf", pages))

	got, ok, err := cache.GetPages(ctx, "book_content_md_phb.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pages, got)

	assert.Equal(t, DefaultPageCacheTTL, mr.TTL("book_content_md_phb.pdf"))
}

func TestPageCache_Expiry(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewPageCache(NewRedisStore(client), time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.SetPages(ctx, "k", []string{"a"}))
	mr.FastForward(time.Hour + time.Second)

	_, ok, err := cache.GetPages(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPageCache_EmptyDocumentStoredAsEmptyList(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewPageCache(NewRedisStore(client), 0)
	ctx := context.Background()

	require.NoError(t, cache.SetPages(ctx, "blank", nil))

	raw, err := mr.Get("blank")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	got, ok, err := cache.GetPages(ctx, "blank")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestPageCache_StoreFailureIsSurfaced(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewPageCache(NewRedisStore(client), 0)
	mr.Close()

	_, _, err := cache.GetPages(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	err = cache.SetPages(context.Background(), "k", []string{"a"})
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestGetJSON_CorruptValue(t *testing.T) {
	mr, client := newTestRedis(t)
	require.NoError(t, mr.Set("bad", "{not json"))

	_, ok, err := GetJSON[[]string](context.Background(), NewRedisStore(client), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NotErrorIs(t, err, ErrCacheUnavailable)
}
