package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
)

const courseHashKey = "Course"

// CourseRepository persists Course aggregates, keyed by test repository URL.
// FindByGitUrl returns (nil, nil) when no course exists yet; aggregates are
// lazily created by the engine on the first event that references them.
type CourseRepository interface {
	FindByGitUrl(ctx context.Context, gitUrl string) (*domain.Course, error)
	Save(ctx context.Context, course *domain.Course) error
	FindAll(ctx context.Context) ([]*domain.Course, error)
}

type RedisCourseRepository struct {
	db redis.UniversalClient
}

func NewRedisCourseRepository(db redis.UniversalClient) *RedisCourseRepository {
	return &RedisCourseRepository{db: db}
}

func (r *RedisCourseRepository) FindByGitUrl(ctx context.Context, gitUrl string) (*domain.Course, error) {
	data, err := r.db.HGet(ctx, courseHashKey, gitUrl).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading course %s", gitUrl)
	}
	course := &domain.Course{}
	if err := json.Unmarshal([]byte(data), course); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling course %s", gitUrl)
	}
	return course, nil
}

func (r *RedisCourseRepository) Save(ctx context.Context, course *domain.Course) error {
	data, err := json.Marshal(course)
	if err != nil {
		return errors.Wrapf(err, "marshalling course %s", course.Key())
	}
	return errors.Wrapf(r.db.HSet(ctx, courseHashKey, course.Key(), data).Err(), "saving course %s", course.Key())
}

func (r *RedisCourseRepository) FindAll(ctx context.Context) ([]*domain.Course, error) {
	values, err := r.db.HVals(ctx, courseHashKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading courses")
	}
	courses := make([]*domain.Course, 0, len(values))
	for _, value := range values {
		course := &domain.Course{}
		if err := json.Unmarshal([]byte(value), course); err != nil {
			return nil, errors.Wrap(err, "unmarshalling course")
		}
		courses = append(courses, course)
	}
	return courses, nil
}
