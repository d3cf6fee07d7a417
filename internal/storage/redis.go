package storage

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/jameskolean/blog-thumbs/internal/domain"
)

const (
	redisKeyPrefix = "thumbs:"
	redisSlugIndex = "thumbs:slugs"
	fieldUp        = "up"
	fieldDown      = "down"
)

// RedisRepository keeps one hash per slug plus a set of known slugs.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a repository backed by client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func redisKey(slug string) string {
	return redisKeyPrefix + slug
}

// All reads every indexed slug in one pipeline.
func (r *RedisRepository) All(ctx context.Context) ([]domain.Thumb, error) {
	slugs, err := r.client.SMembers(ctx, redisSlugIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	slices.Sort(slugs)

	cmds := make([]*redis.MapStringStringCmd, len(slugs))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, slug := range slugs {
			cmds[i] = pipe.HGetAll(ctx, redisKey(slug))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read thumbs: %w", err)
	}

	thumbs := make([]domain.Thumb, 0, len(slugs))
	for i, slug := range slugs {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		thumb, parseErr := parseThumb(slug, fields)
		if parseErr != nil {
			return nil, parseErr
		}
		thumbs = append(thumbs, thumb)
	}

	return thumbs, nil
}

// BySlug returns nil when the hash does not exist.
func (r *RedisRepository) BySlug(ctx context.Context, slug string) (*domain.Thumb, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(slug)).Result()
	if err != nil {
		return nil, fmt.Errorf("read thumb %s: %w", slug, err)
	}
	if len(fields) == 0 {
		return nil, nil //nolint:nilnil // absent rating is not an error
	}

	thumb, err := parseThumb(slug, fields)
	if err != nil {
		return nil, err
	}
	return &thumb, nil
}

// ApplyDeltas increments all counters inside one MULTI/EXEC.
func (r *RedisRepository) ApplyDeltas(ctx context.Context, deltas []domain.Delta) ([]domain.Thumb, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	ups := make([]*redis.IntCmd, len(deltas))
	downs := make([]*redis.IntCmd, len(deltas))

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, d := range deltas {
			key := redisKey(d.Slug)
			pipe.SAdd(ctx, redisSlugIndex, d.Slug)
			ups[i] = pipe.HIncrBy(ctx, key, fieldUp, d.Up)
			downs[i] = pipe.HIncrBy(ctx, key, fieldDown, d.Down)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply deltas: %w", err)
	}

	thumbs := make([]domain.Thumb, len(deltas))
	for i, d := range deltas {
		thumbs[i] = domain.Thumb{
			Slug:      d.Slug,
			UpCount:   ups[i].Val(),
			DownCount: downs[i].Val(),
		}
	}
	return thumbs, nil
}

// Ping checks the Redis connection.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func parseThumb(slug string, fields map[string]string) (domain.Thumb, error) {
	thumb := domain.Thumb{Slug: slug}
	for field, dst := range map[string]*int64{fieldUp: &thumb.UpCount, fieldDown: &thumb.DownCount} {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Thumb{}, fmt.Errorf("parse %s for %s: %w", field, slug, err)
		}
		*dst = n
	}
	return thumb, nil
}
