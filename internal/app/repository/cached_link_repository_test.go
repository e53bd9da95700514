package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedRepo(t *testing.T) (*CachedLinkRepository, LinkRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := NewLinkRepository(newTestDB(t))
	return NewCachedLinkRepository(inner, client, time.Minute, nil), inner, mr
}

func TestCachedLinkRepository_ReadThrough(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	link := createLink(t, inner, "abcde")

	got, err := repo.GetByKey(ctx, "abcde")
	require.NoError(t, err)
	assert.Equal(t, link.TargetURL, got.TargetURL)
	assert.True(t, mr.Exists(cacheKeyPrefix+"abcde"))

	cached, err := repo.GetByKey(ctx, "abcde")
	require.NoError(t, err)
	assert.Equal(t, link.ID, cached.ID)
	assert.Equal(t, link.TargetURL, cached.TargetURL)
	assert.True(t, cached.IsActive)

	ttl := mr.TTL(cacheKeyPrefix + "abcde")
	assert.Equal(t, time.Minute, ttl)
}

func TestCachedLinkRepository_SetActiveEvicts(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	createLink(t, inner, "abcde")

	got, err := repo.GetByKey(ctx, "abcde")
	require.NoError(t, err)
	require.True(t, mr.Exists(cacheKeyPrefix+"abcde"))

	require.NoError(t, repo.SetActive(ctx, got, false))
	assert.False(t, mr.Exists(cacheKeyPrefix+"abcde"))

	_, err = repo.GetByKey(ctx, "abcde")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestCachedLinkRepository_StaleHitCannotCountClick(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	createLink(t, inner, "abcde")

	cached, err := repo.GetByKey(ctx, "abcde")
	require.NoError(t, err)

	// Deactivate behind the cache's back.
	require.NoError(t, inner.SetActive(ctx, cached, false))
	stale, err := repo.GetByKey(ctx, "abcde")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.IncrementClicks(ctx, stale), ErrLinkNotFound)
	assert.False(t, mr.Exists(cacheKeyPrefix+"abcde"))
}

func TestCachedLinkRepository_RedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	inner := NewLinkRepository(newTestDB(t))
	repo := NewCachedLinkRepository(inner, client, time.Minute, nil)
	ctx := context.Background()
	link := createLink(t, inner, "abcde")

	got, err := repo.GetByKey(ctx, "abcde")
	require.NoError(t, err)
	assert.Equal(t, link.TargetURL, got.TargetURL)

	require.NoError(t, repo.IncrementClicks(ctx, got))
	assert.EqualValues(t, 1, got.Clicks)

	require.NoError(t, repo.SetActive(ctx, got, false))
}
