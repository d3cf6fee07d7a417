package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/storage"
)

func TestMemoryRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := storage.NewMemoryRepository(domain.Thumb{Slug: "seeded", UpCount: 4, DownCount: 1})

	missing, err := repo.BySlug(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := repo.ApplyDeltas(ctx, []domain.Delta{
		{Slug: "new-post", Up: 2},
		{Slug: "seeded", Up: 1, Down: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Thumb{
		{Slug: "new-post", UpCount: 2},
		{Slug: "seeded", UpCount: 5, DownCount: 4},
	}, updated)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new-post", all[0].Slug)

	got, err := repo.BySlug(ctx, "seeded")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.UpCount)
	assert.NoError(t, repo.Ping(ctx))
}
