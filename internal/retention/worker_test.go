package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakeCleaner) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func (f *fakeCleaner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunOnceUsesRetentionWindow(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 3}
	w := NewWorker(cleaner, 48*time.Hour, time.Hour)
	w.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

	deleted, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
	require.Len(t, cleaner.cutoffs, 1)
	assert.Equal(t, time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC), cleaner.cutoffs[0])
}

func TestRunOncePropagatesError(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("store down")}
	w := NewWorker(cleaner, time.Hour, time.Hour)

	_, err := w.RunOnce(context.Background())
	assert.EqualError(t, err, "store down")
}

func TestRunDisabled(t *testing.T) {
	cleaner := &fakeCleaner{}
	w := NewWorker(cleaner, 0, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, w.Run(ctx))
	assert.Zero(t, cleaner.calls())
}

func TestRunCleansUpImmediately(t *testing.T) {
	cleaner := &fakeCleaner{}
	w := NewWorker(cleaner, time.Hour, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return cleaner.calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, cleaner.calls())
}

func TestRunTicksUntilCancelled(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("transient")}
	w := NewWorker(cleaner, time.Hour, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return cleaner.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
