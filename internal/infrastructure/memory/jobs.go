package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

// JobStore keeps job records in a map; records live as long as the process.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

var _ ports.JobStore = (*JobStore)(nil)

// NewJobStore returns an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]domain.Job)}
}

// SaveJob inserts or replaces the record for job.ID.
func (s *JobStore) SaveJob(_ context.Context, job domain.Job) error {
	job.ArticleIDs = slices.Clone(job.ArticleIDs)
	job.Results = slices.Clone(job.Results)

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return nil
}

// GetJob returns a copy of the stored record.
func (s *JobStore) GetJob(_ context.Context, id string) (domain.Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	job.ArticleIDs = slices.Clone(job.ArticleIDs)
	job.Results = slices.Clone(job.Results)
	return job, nil
}
