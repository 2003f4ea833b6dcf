package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/logging"
	"ContentRefresher/internal/ports"
)

var (
	// ErrQueueFull is returned by Submit when the job queue has no room left.
	ErrQueueFull = errors.New("job queue full")
	// ErrRunnerClosed is returned by Submit after Close.
	ErrRunnerClosed = errors.New("job runner closed")
)

// JobRunnerDeps wires the background job runner.
type JobRunnerDeps struct {
	Batch     *BatchRunner
	Store     ports.JobStore
	Notifier  ports.Notifier
	Metrics   ports.RefreshMetrics
	Logger    *slog.Logger
	QueueSize int
}

// JobRunner drains a buffered queue of batch jobs with a single worker so
// background batches never overlap each other.
type JobRunner struct {
	batch    *BatchRunner
	store    ports.JobStore
	notifier ports.Notifier
	metrics  ports.RefreshMetrics
	logger   *slog.Logger

	queue chan domain.Job
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool

	now func() time.Time
}

// NewJobRunner constructs a runner; call Start to launch the worker.
func NewJobRunner(deps JobRunnerDeps) *JobRunner {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	size := deps.QueueSize
	if size <= 0 {
		size = 16
	}
	return &JobRunner{
		batch:    deps.Batch,
		store:    deps.Store,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger.With("component", "jobs"),
		queue:    make(chan domain.Job, size),
		now:      time.Now,
	}
}

// Start launches the worker. It stops when ctx is done or after Close drains the queue.
func (r *JobRunner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-r.queue:
				if !ok {
					return
				}
				r.run(ctx, job)
			}
		}
	}()
}

// Close stops accepting jobs and waits for the worker to finish.
func (r *JobRunner) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// SubmitAll queues a refresh of every article.
func (r *JobRunner) SubmitAll(ctx context.Context) (domain.Job, error) {
	return r.submit(ctx, domain.Job{Kind: domain.JobRefreshAll})
}

// SubmitByStatus queues a refresh of the articles in status.
func (r *JobRunner) SubmitByStatus(ctx context.Context, status domain.Status) (domain.Job, error) {
	if !status.Valid() {
		return domain.Job{}, fmt.Errorf("unknown status %q", status)
	}
	return r.submit(ctx, domain.Job{Kind: domain.JobRefreshByStatus, Status: status})
}

// SubmitMany queues a refresh of ids.
func (r *JobRunner) SubmitMany(ctx context.Context, ids []int64) (domain.Job, error) {
	return r.submit(ctx, domain.Job{Kind: domain.JobRefreshMany, ArticleIDs: ids})
}

// Job returns the current record of a submitted job.
func (r *JobRunner) Job(ctx context.Context, id string) (domain.Job, error) {
	return r.store.GetJob(ctx, id)
}

func (r *JobRunner) submit(ctx context.Context, job domain.Job) (domain.Job, error) {
	job.ID = uuid.NewString()
	job.State = domain.JobPending
	job.CreatedAt = r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.Job{}, ErrRunnerClosed
	}

	if err := r.store.SaveJob(ctx, job); err != nil {
		return domain.Job{}, fmt.Errorf("save job: %w", err)
	}

	select {
	case r.queue <- job:
	default:
		job.State = domain.JobFailed
		job.Error = ErrQueueFull.Error()
		r.save(context.WithoutCancel(ctx), job)
		return domain.Job{}, ErrQueueFull
	}

	r.logger.Info("job queued", "job_id", job.ID, "kind", job.Kind)
	return job, nil
}

func (r *JobRunner) run(ctx context.Context, job domain.Job) {
	started := r.now().UTC()
	job.State = domain.JobRunning
	job.StartedAt = &started
	r.save(ctx, job)
	r.logger.Info("job started", "job_id", job.ID, "kind", job.Kind)

	var (
		results []domain.RefreshResult
		err     error
	)
	switch job.Kind {
	case domain.JobRefreshAll:
		results, err = r.batch.RefreshAll(ctx)
	case domain.JobRefreshByStatus:
		results, err = r.batch.RefreshByStatus(ctx, job.Status)
	case domain.JobRefreshMany:
		results = r.batch.RefreshMany(ctx, job.ArticleIDs)
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	finished := r.now().UTC()
	job.FinishedAt = &finished
	job.Results = results
	job.State = domain.JobCompleted
	if err != nil {
		job.State = domain.JobFailed
		job.Error = err.Error()
	}
	// the record must land even when shutdown cancelled ctx mid-batch
	r.save(context.WithoutCancel(ctx), job)

	if r.metrics != nil {
		r.metrics.ObserveJob(job.Kind, job.State)
	}
	r.logger.Info("job finished",
		"job_id", job.ID,
		"state", job.State,
		"succeeded", domain.CountSucceeded(results),
		"total", len(results))
	r.notify(context.WithoutCancel(ctx), job)
}

func (r *JobRunner) save(ctx context.Context, job domain.Job) {
	if err := r.store.SaveJob(ctx, job); err != nil {
		r.logger.Error("failed to save job", "job_id", job.ID, "error", err)
	}
}

func (r *JobRunner) notify(ctx context.Context, job domain.Job) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.PublishDigest(ctx, JobSummary(job)); err != nil {
		r.logger.Warn("job notification failed", "job_id", job.ID, "error", err)
	}
}

// JobSummary renders the one-line notice posted when a job finishes.
func JobSummary(job domain.Job) string {
	target := string(job.Kind)
	if job.Kind == domain.JobRefreshByStatus {
		target += " " + string(job.Status)
	}
	if job.State == domain.JobFailed {
		return fmt.Sprintf("Content refresh %s failed: %s", target, job.Error)
	}
	return fmt.Sprintf("Content refresh %s finished: updated %d/%d",
		target, domain.CountSucceeded(job.Results), len(job.Results))
}
