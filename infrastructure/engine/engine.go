// Package engine provides the local processing context: a long-lived handle
// that runs jobs on a fixed number of worker slots.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"tsanomaly/domain/processing"
	"tsanomaly/infrastructure/logging"
)

// ErrContextStopped is returned when a job is submitted after Stop.
var ErrContextStopped = errors.New("processing context stopped")

// Task is a unit of work executed on a worker slot.
type Task func(ctx context.Context) error

// JobObserver is notified after every job.
type JobObserver func(name string, tasks int, d time.Duration, err error)

// Options holds optional collaborators for a Context.
type Options struct {
	Logger        *slog.Logger
	OnJobFinished JobObserver
}

// Stats is a snapshot of the context's counters.
type Stats struct {
	Jobs        int64
	Tasks       int64
	FailedTasks int64
}

// Context is a handle to the running processing environment.
type Context struct {
	conf      processing.Config
	target    processing.Target
	logger    *slog.Logger
	observer  JobObserver
	startTime time.Time

	slots *semaphore.Weighted

	// Lifecycle
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
	stopped  bool
	inFlight sync.WaitGroup

	jobs        atomic.Int64
	tasks       atomic.Int64
	failedTasks atomic.Int64
}

// New validates cfg and builds a processing context.
func New(cfg *processing.Config, opts *Options) (*Context, error) {
	if cfg == nil {
		cfg = processing.DefaultConfig()
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.L()
	}

	target, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("failed to build processing context: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Context{
		conf:      *cfg,
		target:    target,
		logger:    opts.Logger.With("app", cfg.AppName, "master", cfg.Master),
		observer:  opts.OnJobFinished,
		startTime: time.Now(),
		slots:     semaphore.NewWeighted(int64(target.Workers)),
		ctx:       ctx,
		cancel:    cancel,
	}

	c.logger.Info("Processing context started", "workers", target.Workers)
	return c, nil
}

// AppName returns the configured application name.
func (c *Context) AppName() string { return c.conf.AppName }

// Master returns the configured execution target string.
func (c *Context) Master() string { return c.conf.Master }

// Workers returns the number of worker slots.
func (c *Context) Workers() int { return c.target.Workers }

// Target returns the decoded execution target.
func (c *Context) Target() processing.Target { return c.target }

// Conf returns a copy of the configuration the context was built with.
func (c *Context) Conf() processing.Config { return c.conf }

// StartTime returns when the context was built.
func (c *Context) StartTime() time.Time { return c.startTime }

// IsStopped reports whether Stop has been called.
func (c *Context) IsStopped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopped
}

// Stats returns a snapshot of the job counters.
func (c *Context) Stats() Stats {
	return Stats{
		Jobs:        c.jobs.Load(),
		Tasks:       c.tasks.Load(),
		FailedTasks: c.failedTasks.Load(),
	}
}

// RunJob executes tasks with at most Workers() of them running at once
// across all jobs. The first failing task cancels the remaining ones and its
// error is returned.
func (c *Context) RunJob(ctx context.Context, name string, tasks ...Task) error {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.inFlight.Done()

	start := time.Now()
	c.jobs.Add(1)

	// Stop cancels every running job.
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := context.AfterFunc(c.ctx, cancel)
	defer stopWatch()

	// Tasks log through logging.From(ctx) and get the job name attached.
	jobCtx = logging.WithAttrs(logging.With(jobCtx, c.logger), "job", name)

	g, gctx := errgroup.WithContext(jobCtx)
	for i, task := range tasks {
		if err := c.slots.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer c.slots.Release(1)
			c.tasks.Add(1)
			if err := c.runTask(logging.WithAttrs(gctx, "task", i), task); err != nil {
				c.failedTasks.Add(1)
				return fmt.Errorf("job %s: task %d: %w", name, i, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = jobCtx.Err()
	}
	if err != nil && c.ctx.Err() != nil {
		err = fmt.Errorf("job %s: %w", name, ErrContextStopped)
	}

	d := time.Since(start)
	if err != nil {
		c.logger.Warn("Job failed", "job", name, "tasks", len(tasks), "duration", d, "error", err)
	} else {
		c.logger.Debug("Job finished", "job", name, "tasks", len(tasks), "duration", d)
	}
	if c.observer != nil {
		c.observer(name, len(tasks), d, err)
	}

	return err
}

// runTask converts a task panic into an error so one task cannot take the
// worker pool down.
func (c *Context) runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			logging.From(ctx).Error("Task panicked", "panic", r)
		}
	}()
	return task(ctx)
}

func (c *Context) enter() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return ErrContextStopped
	}
	c.inFlight.Add(1)
	return nil
}

// Stop cancels running jobs and waits for them to return. Safe to call more than once.
func (c *Context) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.inFlight.Wait()

	stats := c.Stats()
	c.logger.Info("Processing context stopped",
		"uptime", time.Since(c.startTime).Round(time.Millisecond),
		"jobs", stats.Jobs, "tasks", stats.Tasks, "failed_tasks", stats.FailedTasks)
}
