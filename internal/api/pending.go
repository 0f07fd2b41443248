package api

import (
	"net/http"
	"sort"
	"sync"
	"time"
)

// PendingRequest is an HTTP call that has not completed yet.
type PendingRequest struct {
	Method  string
	Path    string
	Started time.Time
}

// PendingTracker records in-flight requests. Requests run on command goroutines
// while the UI reads the tracker, so access is locked.
type PendingTracker struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]PendingRequest
}

func NewPendingTracker() *PendingTracker {
	return &PendingTracker{pending: map[uint64]PendingRequest{}}
}

// Begin registers a request and returns the func that completes it.
func (t *PendingTracker) Begin(method, path string) func() {
	if t == nil {
		return func() {}
	}
	t.mu.Lock()
	t.next++
	id := t.next
	t.pending[id] = PendingRequest{Method: method, Path: path, Started: time.Now()}
	t.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.pending, id)
			t.mu.Unlock()
		})
	}
}

// Pending returns the in-flight requests, oldest first.
func (t *PendingTracker) Pending() []PendingRequest {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	out := make([]PendingRequest, 0, len(t.pending))
	for _, p := range t.pending {
		out = append(out, p)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}

// HasMutating reports whether any in-flight request is not a GET.
func (t *PendingTracker) HasMutating() bool {
	for _, p := range t.Pending() {
		if p.Method != http.MethodGet {
			return true
		}
	}
	return false
}
