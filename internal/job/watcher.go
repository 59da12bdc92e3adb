// Package job polls a Girder job until it reaches a terminal status.
package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/histoqcview/internal/girder"
)

// DefaultInterval is the delay between status polls.
const DefaultInterval = 2 * time.Second

// ErrBusy is returned by Start while a previous task is still polling.
var ErrBusy = errors.New("a job is already being watched")

// StatusFetcher fetches the current state of a job. *girder.Client
// implements it.
type StatusFetcher interface {
	JobStatus(ctx context.Context, jobID string) (girder.Job, error)
}

// Handler receives poll results. JobUpdated runs for every successful poll,
// including the terminal one; JobFinished runs exactly once, after the final
// JobUpdated. Both are called from the task's goroutine.
type Handler interface {
	JobUpdated(job girder.Job)
	JobFinished(job girder.Job)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Updated  func(girder.Job)
	Finished func(girder.Job)
}

func (h HandlerFuncs) JobUpdated(job girder.Job) {
	if h.Updated != nil {
		h.Updated(job)
	}
}

func (h HandlerFuncs) JobFinished(job girder.Job) {
	if h.Finished != nil {
		h.Finished(job)
	}
}

// State is the lifecycle of a polling task.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateTerminal
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminal:
		return "terminal"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Watcher starts polling tasks. At most one task per watcher runs at a time.
type Watcher struct {
	fetcher  StatusFetcher
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	active *Task
}

// NewWatcher builds a Watcher polling every interval (DefaultInterval when
// zero or negative).
func NewWatcher(fetcher StatusFetcher, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{fetcher: fetcher, interval: interval, logger: logger}
}

// Interval returns the poll cadence.
func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Busy reports whether a task is currently polling.
func (w *Watcher) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active != nil && w.active.State() == StateRunning
}

// Start polls jobID until it is terminal, ctx is cancelled, or the returned
// task is cancelled. It returns immediately.
func (w *Watcher) Start(ctx context.Context, jobID string, h Handler) (*Task, error) {
	if w.fetcher == nil {
		return nil, errors.New("watcher has no status fetcher")
	}
	if h == nil {
		h = HandlerFuncs{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active != nil && w.active.State() == StateRunning {
		return nil, ErrBusy
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		jobID:  jobID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	t.state.Store(int32(StateRunning))
	w.active = t

	go t.run(taskCtx, w.fetcher, w.interval, h, w.logger.With("job_id", jobID))
	return t, nil
}

// Task is one running poll loop.
type Task struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32
	polls  atomic.Int64
}

// JobID returns the job being watched.
func (t *Task) JobID() string { return t.jobID }

// State returns the current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// Polls returns the number of status requests issued so far.
func (t *Task) Polls() int64 { return t.polls.Load() }

// Done is closed once the poll loop exits.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel stops polling. Safe to call more than once and after completion.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task exits or ctx is done, returning the final state.
func (t *Task) Wait(ctx context.Context) (State, error) {
	select {
	case <-t.done:
		return t.State(), nil
	case <-ctx.Done():
		return t.State(), ctx.Err()
	}
}

func (t *Task) run(ctx context.Context, fetcher StatusFetcher, interval time.Duration, h Handler, logger *slog.Logger) {
	defer close(t.done)
	defer t.cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Debug("job poll started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			t.state.CompareAndSwap(int32(StateRunning), int32(StateCancelled))
			logger.Debug("job poll cancelled", "polls", t.Polls())
			return
		case <-ticker.C:
		}

		t.polls.Add(1)
		job, err := fetcher.JobStatus(ctx, t.jobID)
		if ctx.Err() != nil {
			continue
		}
		if err != nil {
			logger.Warn("job status poll failed", "error", err)
			continue
		}

		h.JobUpdated(job)
		if job.Status.Terminal() {
			t.state.Store(int32(StateTerminal))
			logger.Info("job finished", "status", job.Status.String(), "polls", t.Polls())
			h.JobFinished(job)
			return
		}
	}
}
