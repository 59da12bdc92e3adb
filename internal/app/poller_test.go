package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 15 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 15 * time.Second},
		{"negative failures", -1, 15 * time.Second},
		{"one failure", 1, 30 * time.Second},
		{"two failures", 2, 60 * time.Second},
		{"three failures", 3, 2 * time.Minute},
		{"four failures capped", 4, 2 * time.Minute}, // Would be 4m, capped to 2m
		{"many failures capped", 10, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 80; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
	busy  bool
	err   error
	seen  chan struct{}
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.mu.Lock()
	r.calls++
	err := r.err
	r.mu.Unlock()
	select {
	case r.seen <- struct{}{}:
	default:
	}
	return err
}

func (r *countingRefresher) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestStartRefresher_RefreshesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &countingRefresher{seen: make(chan struct{}, 1)}
	StartRefresher(ctx, r, 5*time.Millisecond, nil)

	for range 2 {
		select {
		case <-r.seen:
		case <-time.After(time.Second):
			t.Fatalf("refresher did not run; calls = %d", r.count())
		}
	}
	cancel()
}

func TestStartRefresher_SkipsWhileBusy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &countingRefresher{busy: true, err: errors.New("unused"), seen: make(chan struct{}, 1)}
	StartRefresher(ctx, r, 5*time.Millisecond, nil)

	time.Sleep(50 * time.Millisecond)
	if got := r.count(); got != 0 {
		t.Fatalf("Refresh called %d times while busy, want 0", got)
	}
}
