// Package poller watches an in-flight transcription and converges its local
// status with provider state. The watch loop is an explicit state machine
// driven by a cancellable timer; transitions and backoff are pure functions so
// the loop's behavior is testable without real timers.
package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"podlearn/internal/db"
)

type State int

const (
	StateIdle State = iota
	StatePolling
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Event int

const (
	EventStart Event = iota
	EventStillProcessing
	EventCompleted
	EventFailed
	EventTransientError
)

// Transition is the pure transition function of the watch state machine.
// Terminal states absorb every event; transient errors keep the loop polling.
func Transition(s State, e Event) State {
	switch s {
	case StateIdle:
		if e == EventStart {
			return StatePolling
		}
		return StateIdle
	case StatePolling:
		switch e {
		case EventCompleted:
			return StateCompleted
		case EventFailed:
			return StateFailed
		default:
			return StatePolling
		}
	default:
		return s
	}
}

const (
	// InitialDelay is the first polling interval after a job is submitted.
	InitialDelay = 2 * time.Second
	// MaxDelay caps the interval growth.
	MaxDelay = 30 * time.Second

	backoffFactor = 1.5

	progressStep = 3
	// maxProgress is held until segments are actually stored; 100 is reserved
	// for true completion.
	maxProgress = 95

	tickTimeout = 30 * time.Second
)

// NextDelay grows the polling interval multiplicatively up to MaxDelay.
func NextDelay(d time.Duration) time.Duration {
	return nextDelayCapped(d, MaxDelay)
}

func nextDelayCapped(d, max time.Duration) time.Duration {
	next := time.Duration(float64(d) * backoffFactor)
	if next > max {
		next = max
	}
	return next
}

// ReconcileFunc performs one reconciliation step for an episode and returns
// the resulting transcription status.
type ReconcileFunc func(ctx context.Context, episodeID int64) (string, error)

type Watcher struct {
	EpisodeID int64

	// Overridable in tests; set to package defaults by NewWatcher.
	InitialDelay time.Duration
	MaxDelay     time.Duration

	reconcile ReconcileFunc
	onDone    func(episodeID int64, final State)

	mu       sync.Mutex
	state    State
	delay    time.Duration
	progress int
	stopped  bool
	timer    *time.Timer
}

func NewWatcher(episodeID int64, reconcile ReconcileFunc, onDone func(int64, State)) *Watcher {
	return &Watcher{
		EpisodeID:    episodeID,
		InitialDelay: InitialDelay,
		MaxDelay:     MaxDelay,
		reconcile:    reconcile,
		onDone:       onDone,
		state:        StateIdle,
	}
}

func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.state != StateIdle {
		return
	}
	w.state = Transition(w.state, EventStart)
	w.delay = w.InitialDelay
	w.timer = time.AfterFunc(w.delay, w.tick)
}

// Stop cancels the watch cooperatively. A tick already in flight discards its
// result instead of mutating state after cancellation.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) Progress() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

func (w *Watcher) tick() {
	w.mu.Lock()
	if w.stopped || w.state != StatePolling {
		w.mu.Unlock()
		return
	}
	episodeID := w.EpisodeID
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	status, err := w.reconcile(ctx, episodeID)
	cancel()

	var event Event
	switch {
	case err != nil:
		// Transient fetch errors self-heal on the next tick.
		log.Printf("Transcription watch tick failed for episode %d: %v", episodeID, err)
		event = EventTransientError
	case status == db.StatusCompleted:
		event = EventCompleted
	case status == db.StatusFailed:
		event = EventFailed
	default:
		event = EventStillProcessing
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.state = Transition(w.state, event)

	if w.state == StatePolling {
		if w.progress < maxProgress {
			w.progress += progressStep
			if w.progress > maxProgress {
				w.progress = maxProgress
			}
		}
		w.delay = nextDelayCapped(w.delay, w.MaxDelay)
		w.timer = time.AfterFunc(w.delay, w.tick)
		w.mu.Unlock()
		return
	}

	if w.state == StateCompleted {
		w.progress = 100
	}
	final := w.state
	done := w.onDone
	w.stopped = true
	w.mu.Unlock()

	if done != nil {
		done(episodeID, final)
	}
}
