package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
)

const submissionListKey = "Submission"

// SubmissionRepository appends audit records of processed events. Submissions
// are write-once; FindRecent returns the newest records first.
type SubmissionRepository interface {
	Save(ctx context.Context, submission *domain.Submission) error
	FindRecent(ctx context.Context, limit int) ([]*domain.Submission, error)
}

type RedisSubmissionRepository struct {
	db redis.UniversalClient
}

func NewRedisSubmissionRepository(db redis.UniversalClient) *RedisSubmissionRepository {
	return &RedisSubmissionRepository{db: db}
}

func (r *RedisSubmissionRepository) Save(ctx context.Context, submission *domain.Submission) error {
	data, err := json.Marshal(submission)
	if err != nil {
		return errors.Wrapf(err, "marshalling submission %s", submission.Hash)
	}
	return errors.Wrapf(r.db.RPush(ctx, submissionListKey, data).Err(), "saving submission %s", submission.Hash)
}

func (r *RedisSubmissionRepository) FindRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	values, err := r.db.LRange(ctx, submissionListKey, int64(-limit), -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading recent submissions")
	}
	// LRange returns oldest first within the window; reverse to newest first.
	submissions := make([]*domain.Submission, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		submission := &domain.Submission{}
		if err := json.Unmarshal([]byte(values[i]), submission); err != nil {
			return nil, errors.Wrap(err, "unmarshalling submission")
		}
		submissions = append(submissions, submission)
	}
	return submissions, nil
}
