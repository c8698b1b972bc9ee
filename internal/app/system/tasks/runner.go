// Package tasks runs the periodic maintenance jobs of the editing
// sessions: pending-delete sweeps and idle-session eviction.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name nothing registered.
var ErrUnknownJob = errors.New("tasks: unknown job")

// Job represents a scheduled background task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run only ends with the runner.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Observer is told the outcome of every run, including runs that panicked.
type Observer func(job string, err error)

// Runner schedules registered jobs, one goroutine per job.
type Runner struct {
	logger  *zap.Logger
	observe Observer
	jobs    []Job
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	mu     sync.Mutex
	active map[string]time.Time // job name -> start of the current run
}

// New creates a new task runner. observe may be nil.
func New(logger *zap.Logger, observe Observer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger:  logger,
		observe: observe,
		active:  make(map[string]time.Time),
	}
}

// Register adds a job to the runner. Jobs with a non-positive interval are
// rejected with a warning.
func (r *Runner) Register(job Job) {
	if job.Interval <= 0 {
		r.logger.Warn("job not registered: interval must be positive", zap.String("job", job.Name))
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns the registered job names.
func (r *Runner) Jobs() []string {
	names := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		names = append(names, j.Name)
	}
	return names
}

// Start launches every registered job. Each runs once immediately.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}

	r.logger.Info("background task runner started",
		zap.Strings("jobs", r.Jobs()))
}

// Stop cancels every job and waits for them within ctx's deadline.
// It returns ctx.Err() if jobs are still running when ctx ends.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", r.Active()))
		return ctx.Err()
	}
}

// Active returns the names of jobs mid-run, sorted.
func (r *Runner) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.active))
	for name := range r.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loop runs job once at start and then on every tick.
func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("job stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

// execute runs job once, then logs and reports the outcome.
func (r *Runner) execute(ctx context.Context, job Job) {
	start := time.Now()
	r.mu.Lock()
	r.active[job.Name] = start
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.active, job.Name)
		r.mu.Unlock()
	}()

	err := r.call(ctx, job)

	switch {
	case err != nil && ctx.Err() != nil:
		// shutdown, not a failure
		r.logger.Debug("job cancelled during shutdown",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
		return
	case err != nil:
		r.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	default:
		r.logger.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
	}
	if r.observe != nil {
		r.observe(job.Name, err)
	}
}

// call applies the job timeout and turns a panic into an error.
func (r *Runner) call(ctx context.Context, job Job) (err error) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
	}()
	return job.Run(ctx)
}

// RunOnce executes a registered job immediately, outside its schedule.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return r.call(ctx, job)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}
