package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/jameskolean/blog-thumbs/internal/domain"
)

// MemoryRepository keeps counters in process. Used for local runs and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	thumbs map[string]domain.Thumb
}

// NewMemoryRepository returns an empty repository, optionally seeded.
func NewMemoryRepository(seed ...domain.Thumb) *MemoryRepository {
	r := &MemoryRepository{thumbs: make(map[string]domain.Thumb, len(seed))}
	for _, t := range seed {
		r.thumbs[t.Slug] = t
	}
	return r
}

func (r *MemoryRepository) All(_ context.Context) ([]domain.Thumb, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	thumbs := make([]domain.Thumb, 0, len(r.thumbs))
	for _, t := range r.thumbs {
		thumbs = append(thumbs, t)
	}
	slices.SortFunc(thumbs, func(a, b domain.Thumb) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	return thumbs, nil
}

func (r *MemoryRepository) BySlug(_ context.Context, slug string) (*domain.Thumb, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.thumbs[slug]
	if !ok {
		return nil, nil //nolint:nilnil // absent rating is not an error
	}
	return &t, nil
}

func (r *MemoryRepository) ApplyDeltas(_ context.Context, deltas []domain.Delta) ([]domain.Thumb, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated []domain.Thumb
	for _, d := range deltas {
		t := r.thumbs[d.Slug]
		t.Slug = d.Slug
		t.UpCount += d.Up
		t.DownCount += d.Down
		r.thumbs[d.Slug] = t
		updated = append(updated, t)
	}
	return updated, nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}
