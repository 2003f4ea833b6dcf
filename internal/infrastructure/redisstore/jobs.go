package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

const defaultJobTTL = 7 * 24 * time.Hour

// JobStore keeps job records as JSON strings that expire after ttl.
type JobStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.JobStore = (*JobStore)(nil)

// NewJobStore builds a Redis-backed job store.
func NewJobStore(client *redis.Client, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = defaultJobTTL
	}
	return &JobStore{client: client, ttl: ttl}
}

// SaveJob writes the whole record and refreshes its expiry.
func (s *JobStore) SaveJob(ctx context.Context, job domain.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob loads a record; unknown or expired ids yield domain.ErrNotFound.
func (s *JobStore) GetJob(ctx context.Context, id string) (domain.Job, error) {
	payload, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("get job %s: %w", id, err)
	}

	var job domain.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return domain.Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

func jobKey(id string) string {
	return keyPrefix + "job:" + id
}
