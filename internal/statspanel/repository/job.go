package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
)

const jobListKey = "Job"

// JobRepository appends the denormalized full copy of each processed event.
type JobRepository interface {
	Save(ctx context.Context, job *domain.Job) error
	FindRecent(ctx context.Context, limit int) ([]*domain.Job, error)
}

type RedisJobRepository struct {
	db redis.UniversalClient
}

func NewRedisJobRepository(db redis.UniversalClient) *RedisJobRepository {
	return &RedisJobRepository{db: db}
}

func (r *RedisJobRepository) Save(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrapf(err, "marshalling job %s", job.Hash)
	}
	return errors.Wrapf(r.db.RPush(ctx, jobListKey, data).Err(), "saving job %s", job.Hash)
}

func (r *RedisJobRepository) FindRecent(ctx context.Context, limit int) ([]*domain.Job, error) {
	values, err := r.db.LRange(ctx, jobListKey, int64(-limit), -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading recent jobs")
	}
	jobs := make([]*domain.Job, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		job := &domain.Job{}
		if err := json.Unmarshal([]byte(values[i]), job); err != nil {
			return nil, errors.Wrap(err, "unmarshalling job")
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
