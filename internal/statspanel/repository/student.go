package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
)

const (
	studentHashKey     = "Student"
	slugStudentHashKey = "SlugStudent"
)

// StudentRepository persists Student aggregates, keyed by university id.
type StudentRepository interface {
	FindByUniid(ctx context.Context, uniid string) (*domain.Student, error)
	Save(ctx context.Context, student *domain.Student) error
	FindAll(ctx context.Context) ([]*domain.Student, error)
}

// SlugStudentRepository persists per-assignment-per-student progress records.
type SlugStudentRepository interface {
	FindBySlugAndUniid(ctx context.Context, slug string, uniid string) (*domain.SlugStudent, error)
	Save(ctx context.Context, record *domain.SlugStudent) error
	FindAll(ctx context.Context) ([]*domain.SlugStudent, error)
}

type RedisStudentRepository struct {
	db redis.UniversalClient
}

func NewRedisStudentRepository(db redis.UniversalClient) *RedisStudentRepository {
	return &RedisStudentRepository{db: db}
}

func (r *RedisStudentRepository) FindByUniid(ctx context.Context, uniid string) (*domain.Student, error) {
	data, err := r.db.HGet(ctx, studentHashKey, uniid).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading student %s", uniid)
	}
	student := &domain.Student{}
	if err := json.Unmarshal([]byte(data), student); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling student %s", uniid)
	}
	return student, nil
}

func (r *RedisStudentRepository) Save(ctx context.Context, student *domain.Student) error {
	data, err := json.Marshal(student)
	if err != nil {
		return errors.Wrapf(err, "marshalling student %s", student.Key())
	}
	return errors.Wrapf(r.db.HSet(ctx, studentHashKey, student.Key(), data).Err(), "saving student %s", student.Key())
}

func (r *RedisStudentRepository) FindAll(ctx context.Context) ([]*domain.Student, error) {
	values, err := r.db.HVals(ctx, studentHashKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading students")
	}
	students := make([]*domain.Student, 0, len(values))
	for _, value := range values {
		student := &domain.Student{}
		if err := json.Unmarshal([]byte(value), student); err != nil {
			return nil, errors.Wrap(err, "unmarshalling student")
		}
		students = append(students, student)
	}
	return students, nil
}

type RedisSlugStudentRepository struct {
	db redis.UniversalClient
}

func NewRedisSlugStudentRepository(db redis.UniversalClient) *RedisSlugStudentRepository {
	return &RedisSlugStudentRepository{db: db}
}

func (r *RedisSlugStudentRepository) FindBySlugAndUniid(ctx context.Context, slug string, uniid string) (*domain.SlugStudent, error) {
	key := domain.SlugStudentKey(slug, uniid)
	data, err := r.db.HGet(ctx, slugStudentHashKey, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading slug student %s", key)
	}
	record := &domain.SlugStudent{}
	if err := json.Unmarshal([]byte(data), record); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling slug student %s", key)
	}
	return record, nil
}

func (r *RedisSlugStudentRepository) Save(ctx context.Context, record *domain.SlugStudent) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "marshalling slug student %s", record.Key())
	}
	return errors.Wrapf(r.db.HSet(ctx, slugStudentHashKey, record.Key(), data).Err(), "saving slug student %s", record.Key())
}

func (r *RedisSlugStudentRepository) FindAll(ctx context.Context) ([]*domain.SlugStudent, error) {
	values, err := r.db.HVals(ctx, slugStudentHashKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading slug students")
	}
	records := make([]*domain.SlugStudent, 0, len(values))
	for _, value := range values {
		record := &domain.SlugStudent{}
		if err := json.Unmarshal([]byte(value), record); err != nil {
			return nil, errors.Wrap(err, "unmarshalling slug student")
		}
		records = append(records, record)
	}
	return records, nil
}
