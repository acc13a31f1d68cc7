package poller

import (
	"log"
	"sync"
)

// Registry tracks one active watcher per episode. Starting a watch for an
// episode that already has one replaces it, which also resets the backoff for
// a restarted transcription.
type Registry struct {
	mu        sync.Mutex
	reconcile ReconcileFunc
	watchers  map[int64]*Watcher
}

func NewRegistry(reconcile ReconcileFunc) *Registry {
	return &Registry{
		reconcile: reconcile,
		watchers:  make(map[int64]*Watcher),
	}
}

func (r *Registry) Watch(episodeID int64) {
	r.mu.Lock()
	if existing, ok := r.watchers[episodeID]; ok {
		existing.Stop()
	}
	w := NewWatcher(episodeID, r.reconcile, r.remove)
	r.watchers[episodeID] = w
	r.mu.Unlock()

	w.Start()
}

func (r *Registry) remove(episodeID int64, final State) {
	log.Printf("Transcription watch for episode %d finished: %s", episodeID, final)
	r.mu.Lock()
	delete(r.watchers, episodeID)
	r.mu.Unlock()
}

// Progress reports the watcher-local progress percentage, if a watch is
// active for the episode.
func (r *Registry) Progress(episodeID int64) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watchers[episodeID]
	if !ok {
		return 0, false
	}
	return w.Progress(), true
}

func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.watchers {
		w.Stop()
	}
	r.watchers = make(map[int64]*Watcher)
}
