package storage_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/storage"
)

func newRedisRepository(t *testing.T) (*storage.RedisRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return storage.NewRedisRepository(client), mr
}

func TestRedisRepository_ApplyDeltas(t *testing.T) {
	t.Parallel()

	repo, mr := newRedisRepository(t)
	ctx := context.Background()

	thumbs, err := repo.ApplyDeltas(ctx, []domain.Delta{
		{Slug: "alpha", Up: 2},
		{Slug: "beta", Down: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Thumb{
		{Slug: "alpha", UpCount: 2},
		{Slug: "beta", DownCount: 1},
	}, thumbs)

	thumbs, err = repo.ApplyDeltas(ctx, []domain.Delta{{Slug: "alpha", Up: 1, Down: 4}})
	require.NoError(t, err)
	assert.Equal(t, domain.Thumb{Slug: "alpha", UpCount: 3, DownCount: 4}, thumbs[0])

	assert.Equal(t, "3", mr.HGet("thumbs:alpha", "up"))
	members, err := mr.Members("thumbs:slugs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, members)
}

func TestRedisRepository_Read(t *testing.T) {
	t.Parallel()

	repo, mr := newRedisRepository(t)
	ctx := context.Background()

	mr.HSet("thumbs:zeta", "up", "5", "down", "2")
	mr.HSet("thumbs:alpha", "up", "1")
	_, err := mr.SAdd("thumbs:slugs", "zeta", "alpha", "orphan")
	require.NoError(t, err)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Thumb{
		{Slug: "alpha", UpCount: 1},
		{Slug: "zeta", UpCount: 5, DownCount: 2},
	}, all)

	got, err := repo.BySlug(ctx, "zeta")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.DownCount)

	missing, err := repo.BySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.NoError(t, repo.Ping(ctx))
}

func TestRedisRepository_CorruptCounter(t *testing.T) {
	t.Parallel()

	repo, mr := newRedisRepository(t)
	mr.HSet("thumbs:bad", "up", "many")

	_, err := repo.BySlug(context.Background(), "bad")
	assert.Error(t, err)
}
