package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"podlearn/internal/db"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name  string
		state State
		event Event
		want  State
	}{
		{"start begins polling", StateIdle, EventStart, StatePolling},
		{"idle ignores ticks", StateIdle, EventStillProcessing, StateIdle},
		{"polling stays on processing", StatePolling, EventStillProcessing, StatePolling},
		{"polling stays on transient error", StatePolling, EventTransientError, StatePolling},
		{"polling completes", StatePolling, EventCompleted, StateCompleted},
		{"polling fails", StatePolling, EventFailed, StateFailed},
		{"completed is terminal", StateCompleted, EventFailed, StateCompleted},
		{"completed ignores restart", StateCompleted, EventStart, StateCompleted},
		{"failed is terminal", StateFailed, EventCompleted, StateFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Transition(tc.state, tc.event))
		})
	}
}

func TestNextDelay(t *testing.T) {
	assert.Equal(t, 3*time.Second, NextDelay(2*time.Second))
	assert.Equal(t, 4500*time.Millisecond, NextDelay(3*time.Second))

	// The interval never exceeds the ceiling.
	d := InitialDelay
	for i := 0; i < 20; i++ {
		d = NextDelay(d)
		assert.LessOrEqual(t, d, MaxDelay)
	}
	assert.Equal(t, MaxDelay, d)
	assert.Equal(t, MaxDelay, NextDelay(MaxDelay))
}

func newFastWatcher(episodeID int64, reconcile ReconcileFunc, onDone func(int64, State)) *Watcher {
	w := NewWatcher(episodeID, reconcile, onDone)
	w.InitialDelay = time.Millisecond
	w.MaxDelay = 5 * time.Millisecond
	return w
}

func TestWatcherCompletes(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	done := make(chan State, 1)

	reconcile := func(ctx context.Context, episodeID int64) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		ticks++
		if ticks < 3 {
			return db.StatusProcessing, nil
		}
		return db.StatusCompleted, nil
	}

	w := newFastWatcher(42, reconcile, func(id int64, final State) {
		done <- final
	})
	w.Start()

	select {
	case final := <-done:
		assert.Equal(t, StateCompleted, final)
	case <-time.After(time.Second):
		t.Fatal("watcher did not finish")
	}
	assert.Equal(t, StateCompleted, w.State())
	assert.Equal(t, 100, w.Progress())
}

func TestWatcherSurvivesTransientErrors(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	done := make(chan State, 1)

	reconcile := func(ctx context.Context, episodeID int64) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		ticks++
		switch ticks {
		case 1, 2:
			return "", errors.New("connection refused")
		default:
			return db.StatusFailed, nil
		}
	}

	w := newFastWatcher(42, reconcile, func(id int64, final State) {
		done <- final
	})
	w.Start()

	select {
	case final := <-done:
		assert.Equal(t, StateFailed, final)
	case <-time.After(time.Second):
		t.Fatal("watcher did not finish")
	}
	mu.Lock()
	assert.Equal(t, 3, ticks)
	mu.Unlock()
}

func TestWatcherProgressIsMonotonicAndCapped(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	done := make(chan State, 1)

	reconcile := func(ctx context.Context, episodeID int64) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		ticks++
		if ticks < 40 {
			return db.StatusProcessing, nil
		}
		return db.StatusCompleted, nil
	}

	w := newFastWatcher(42, reconcile, func(id int64, final State) {
		done <- final
	})
	w.Start()

	last := 0
	for {
		select {
		case <-done:
			assert.Equal(t, 100, w.Progress())
			return
		case <-time.After(time.Millisecond):
			p := w.Progress()
			assert.GreaterOrEqual(t, p, last)
			assert.LessOrEqual(t, p, 95)
			last = p
		}
	}
}

func TestWatcherStopDiscardsLateResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	doneCalled := make(chan struct{}, 1)

	reconcile := func(ctx context.Context, episodeID int64) (string, error) {
		close(started)
		<-release
		return db.StatusCompleted, nil
	}

	w := newFastWatcher(42, reconcile, func(id int64, final State) {
		doneCalled <- struct{}{}
	})
	w.Start()

	<-started
	w.Stop()
	close(release)

	select {
	case <-doneCalled:
		t.Fatal("completion callback ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, StatePolling, w.State())
}

func TestWatcherStopBeforeFirstTick(t *testing.T) {
	called := make(chan struct{}, 1)
	reconcile := func(ctx context.Context, episodeID int64) (string, error) {
		called <- struct{}{}
		return db.StatusProcessing, nil
	}

	w := NewWatcher(42, reconcile, nil)
	w.InitialDelay = 20 * time.Millisecond
	w.Start()
	w.Stop()

	select {
	case <-called:
		t.Fatal("tick ran after Stop cleared the timer")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRegistryReplacesWatcher(t *testing.T) {
	block := make(chan struct{})
	reconcile := func(ctx context.Context, episodeID int64) (string, error) {
		<-block
		return db.StatusProcessing, nil
	}

	r := NewRegistry(reconcile)
	r.Watch(42)
	_, ok := r.Progress(42)
	assert.True(t, ok)

	// A restarted transcription replaces the watcher and resets its progress.
	r.Watch(42)
	p, ok := r.Progress(42)
	assert.True(t, ok)
	assert.Equal(t, 0, p)

	r.StopAll()
	close(block)
	_, ok = r.Progress(42)
	assert.False(t, ok)
}
