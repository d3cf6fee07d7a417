// Package storage persists thumb counters and aggregates incoming votes
// into batched counter updates.
package storage

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/jameskolean/blog-thumbs/internal/domain"
)

// ErrBufferFull is returned when a vote cannot be queued.
var ErrBufferFull = errors.New("vote buffer full")

// Repository stores per-slug counters.
type Repository interface {
	// All returns every stored rating ordered by slug.
	All(ctx context.Context) ([]domain.Thumb, error)
	// BySlug returns nil, nil when the slug has never been voted on.
	BySlug(ctx context.Context, slug string) (*domain.Thumb, error)
	// ApplyDeltas adds the deltas atomically and returns the new totals
	// for the touched slugs, ordered by slug.
	ApplyDeltas(ctx context.Context, deltas []domain.Delta) ([]domain.Thumb, error)
	Ping(ctx context.Context) error
}

// Aggregate folds votes into one delta per slug, ordered by slug.
func Aggregate(votes []domain.Vote) []domain.Delta {
	if len(votes) == 0 {
		return nil
	}

	bySlug := make(map[string]*domain.Delta, len(votes))
	for i := range votes {
		d, ok := bySlug[votes[i].Slug]
		if !ok {
			d = &domain.Delta{Slug: votes[i].Slug}
			bySlug[votes[i].Slug] = d
		}
		d.Add(votes[i].Direction)
	}

	deltas := make([]domain.Delta, 0, len(bySlug))
	for _, d := range bySlug {
		deltas = append(deltas, *d)
	}
	slices.SortFunc(deltas, func(a, b domain.Delta) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	return deltas
}
