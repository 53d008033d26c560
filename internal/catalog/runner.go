package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coclip/coclip-agent/internal/logging"
)

const defaultPollInterval = 2 * time.Second

// Runner polls for pending jobs and executes them one at a time.
type Runner struct {
	service      *Service
	repo         Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

type RunnerOption func(*Runner)

func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func NewRunner(service *Service, repo Repository, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Runner{
		service:      service,
		repo:         repo,
		logger:       logging.WithComponent(logger, "runner"),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}
	defer r.running.Store(false)

	r.logger.Info("job runner started", "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Drain processes pending jobs until none remain, including jobs queued by
// scans along the way. It returns the number of jobs executed.
// A job that stays pending after execution stops the drain.
func (r *Runner) Drain(ctx context.Context) int {
	seen := make(map[string]bool)
	for ctx.Err() == nil {
		id := r.processNextJob(ctx)
		if id == "" || seen[id] {
			break
		}
		seen[id] = true
	}
	return len(seen)
}

// processNextJob runs the oldest pending job and returns its id, or "" when
// the queue is empty.
func (r *Runner) processNextJob(ctx context.Context) string {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return ""
	}
	if len(jobs) == 0 {
		return ""
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeScan:
		if err := r.service.ExecuteScan(ctx, job); err != nil {
			r.logger.Error("scan failed", "job_id", job.ID, "error", err)
		}
	case JobTypeImport:
		if err := r.service.ExecuteImport(ctx, job); err != nil {
			r.logger.Error("import failed", "job_id", job.ID, "error", err)
		}
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
	return job.ID
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning || j.Status == JobStatusPending {
			count++
		}
	}
	return count
}
