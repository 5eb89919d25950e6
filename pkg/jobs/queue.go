// Package jobs executes queued planning runs on a bounded worker pool.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunJob is one queued timetable-generation run.
type RunJob struct {
	RunID    string
	Attempt  int
	Enqueued time.Time
}

// RunHandler executes a queued run. Handlers must tolerate replays: a retried
// job can arrive after an earlier attempt already finished the run.
type RunHandler func(context.Context, RunJob) error

// RunnerConfig sizes the worker pool and its retry behaviour.
type RunnerConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Runner drains queued planning runs with a fixed set of workers, retrying
// failed runs after a delay until the retry budget is spent.
type Runner struct {
	handler RunHandler

	workers    int
	bufferSize int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan RunJob
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRunner builds a runner around the given handler.
func NewRunner(handler RunHandler, cfg RunnerConfig) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Runner{
		handler:    handler,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan RunJob, cfg.BufferSize),
	}
}

// Start launches the workers. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.started = true
	r.logger.Sugar().Infow("run queue started", "workers", r.workers)
}

// Stop cancels the workers and waits for them to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Sugar().Infow("run queue stopped")
}

// EnqueueRun queues a planning run for background execution.
func (r *Runner) EnqueueRun(runID string) error {
	return r.enqueue(RunJob{RunID: runID, Enqueued: time.Now().UTC()})
}

func (r *Runner) enqueue(job RunJob) error {
	r.mu.Lock()
	ctx := r.ctx
	started := r.started
	r.mu.Unlock()

	if !started {
		return fmt.Errorf("run queue not started")
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("run queue stopped: %w", ctx.Err())
	case r.jobs <- job:
		return nil
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case job := <-r.jobs:
			if err := r.handler(r.ctx, job); err != nil {
				r.retry(job, err)
			}
		}
	}
}

func (r *Runner) retry(job RunJob, err error) {
	job.Attempt++
	if job.Attempt > r.maxRetries {
		r.logger.Sugar().Errorw("planning run exceeded retries", "run_id", job.RunID, "error", err)
		return
	}
	r.logger.Sugar().Warnw("planning run failed, retrying", "run_id", job.RunID, "attempt", job.Attempt, "error", err)

	go func(j RunJob) {
		timer := time.NewTimer(r.retryDelay)
		defer timer.Stop()
		select {
		case <-r.ctx.Done():
			return
		case <-timer.C:
			if err := r.enqueue(j); err != nil {
				r.logger.Sugar().Errorw("failed to requeue planning run", "run_id", j.RunID, "error", err)
			}
		}
	}(job)
}
