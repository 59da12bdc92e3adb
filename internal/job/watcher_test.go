package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/histoqcview/internal/girder"
)

const testInterval = 5 * time.Millisecond

type scriptedFetcher struct {
	mu    sync.Mutex
	steps []girder.Job
	errs  map[int]error
	calls int
}

func (f *scriptedFetcher) JobStatus(_ context.Context, jobID string) (girder.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if err, ok := f.errs[idx]; ok {
		return girder.Job{}, err
	}
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	job := f.steps[idx]
	job.ID = jobID
	return job, nil
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingHandler struct {
	mu       sync.Mutex
	updates  []girder.Job
	finished []girder.Job
}

func (h *recordingHandler) JobUpdated(job girder.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, job)
}

func (h *recordingHandler) JobFinished(job girder.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = append(h.finished, job)
}

func (h *recordingHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.updates), len(h.finished)
}

func waitDone(t *testing.T, task *Task) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := task.Wait(ctx)
	require.NoError(t, err, "task did not finish in time")
	return state
}

func TestWatcher_StopsAfterTerminalStatus(t *testing.T) {
	sequences := [][]girder.JobStatus{
		{girder.JobSuccess},
		{girder.JobQueued, girder.JobRunning, girder.JobSuccess},
		{girder.JobInactive, girder.JobError},
		{girder.JobRunning, girder.JobRunning, girder.JobCancelled},
	}

	for _, seq := range sequences {
		fetcher := &scriptedFetcher{}
		for _, st := range seq {
			fetcher.steps = append(fetcher.steps, girder.Job{Status: st})
		}
		h := &recordingHandler{}
		w := NewWatcher(fetcher, testInterval, nil)

		task, err := w.Start(context.Background(), "abc", h)
		require.NoError(t, err)

		assert.Equal(t, StateTerminal, waitDone(t, task))
		updates, finished := h.counts()
		assert.Equal(t, len(seq), updates, "sequence %v", seq)
		assert.Equal(t, 1, finished, "sequence %v", seq)

		calls := fetcher.Calls()
		time.Sleep(5 * testInterval)
		assert.Equal(t, calls, fetcher.Calls(), "poller kept requesting after terminal status")
		assert.False(t, w.Busy())
	}
}

func TestWatcher_KeepsPollingWhileRunning(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []girder.Job{
		{Status: girder.JobInactive},
		{Status: girder.JobQueued},
		{Status: girder.JobRunning},
	}}
	h := &recordingHandler{}
	w := NewWatcher(fetcher, testInterval, nil)

	task, err := w.Start(context.Background(), "abc", h)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return fetcher.Calls() >= 6 }, 2*time.Second, testInterval)
	assert.Equal(t, StateRunning, task.State())
	assert.True(t, w.Busy())

	task.Cancel()
	assert.Equal(t, StateCancelled, waitDone(t, task))
	_, finished := h.counts()
	assert.Zero(t, finished)
}

func TestWatcher_ErrorsDoNotStopPolling(t *testing.T) {
	fetcher := &scriptedFetcher{
		steps: []girder.Job{{Status: girder.JobRunning}, {Status: girder.JobRunning}, {Status: girder.JobSuccess}},
		errs:  map[int]error{0: errors.New("connection reset"), 1: &girder.RequestError{StatusCode: 502}},
	}
	h := &recordingHandler{}
	task, err := NewWatcher(fetcher, testInterval, nil).Start(context.Background(), "abc", h)
	require.NoError(t, err)

	assert.Equal(t, StateTerminal, waitDone(t, task))
	updates, finished := h.counts()
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, finished)
	assert.EqualValues(t, 3, task.Polls())
}

func TestWatcher_RejectsSecondStartWhileBusy(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []girder.Job{{Status: girder.JobRunning}}}
	w := NewWatcher(fetcher, testInterval, nil)

	first, err := w.Start(context.Background(), "a", nil)
	require.NoError(t, err)

	_, err = w.Start(context.Background(), "b", nil)
	assert.ErrorIs(t, err, ErrBusy)

	first.Cancel()
	waitDone(t, first)

	second, err := w.Start(context.Background(), "b", nil)
	require.NoError(t, err)
	second.Cancel()
	waitDone(t, second)
}

func TestWatcher_ParentContextCancels(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []girder.Job{{Status: girder.JobRunning}}}
	ctx, cancel := context.WithCancel(context.Background())
	task, err := NewWatcher(fetcher, testInterval, nil).Start(ctx, "abc", nil)
	require.NoError(t, err)

	cancel()
	assert.Equal(t, StateCancelled, waitDone(t, task))
	task.Cancel()
}

func TestNewWatcher_DefaultInterval(t *testing.T) {
	w := NewWatcher(&scriptedFetcher{}, 0, nil)
	assert.Equal(t, DefaultInterval, w.Interval())
}
