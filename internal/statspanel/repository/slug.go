package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
)

const slugHashKey = "Slug"

// SlugRepository persists Slug aggregates, keyed by (course URL, name).
type SlugRepository interface {
	FindByCourseUrlAndName(ctx context.Context, courseUrl string, name string) (*domain.Slug, error)
	Save(ctx context.Context, slug *domain.Slug) error
	FindAll(ctx context.Context) ([]*domain.Slug, error)
}

type RedisSlugRepository struct {
	db redis.UniversalClient
}

func NewRedisSlugRepository(db redis.UniversalClient) *RedisSlugRepository {
	return &RedisSlugRepository{db: db}
}

func (r *RedisSlugRepository) FindByCourseUrlAndName(ctx context.Context, courseUrl string, name string) (*domain.Slug, error) {
	key := domain.SlugKey(courseUrl, name)
	data, err := r.db.HGet(ctx, slugHashKey, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading slug %s", key)
	}
	slug := &domain.Slug{}
	if err := json.Unmarshal([]byte(data), slug); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling slug %s", key)
	}
	return slug, nil
}

func (r *RedisSlugRepository) Save(ctx context.Context, slug *domain.Slug) error {
	data, err := json.Marshal(slug)
	if err != nil {
		return errors.Wrapf(err, "marshalling slug %s", slug.Key())
	}
	return errors.Wrapf(r.db.HSet(ctx, slugHashKey, slug.Key(), data).Err(), "saving slug %s", slug.Key())
}

func (r *RedisSlugRepository) FindAll(ctx context.Context) ([]*domain.Slug, error) {
	values, err := r.db.HVals(ctx, slugHashKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading slugs")
	}
	slugs := make([]*domain.Slug, 0, len(values))
	for _, value := range values {
		slug := &domain.Slug{}
		if err := json.Unmarshal([]byte(value), slug); err != nil {
			return nil, errors.Wrap(err, "unmarshalling slug")
		}
		slugs = append(slugs, slug)
	}
	return slugs, nil
}
