package loadstatus

import (
	"strings"
	"sync"
	"time"
)

// Form names used by the storefront handlers.
const (
	FormLogin    = "login"
	FormRegister = "register"
)

// Registry scopes trackers to a UI session. Each (session, form) pair owns exactly one Tracker.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]map[string]*Tracker
	now      func() time.Time
}

// NewRegistry constructs an empty registry. A nil clock defaults to time.Now.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[string]map[string]*Tracker),
		now:      now,
	}
}

// For returns the tracker for form within sessionID, creating an idle one when absent.
func (r *Registry) For(sessionID, form string) *Tracker {
	sessionID = strings.TrimSpace(sessionID)
	form = strings.ToLower(strings.TrimSpace(form))

	r.mu.Lock()
	defer r.mu.Unlock()

	forms, ok := r.sessions[sessionID]
	if !ok {
		forms = make(map[string]*Tracker)
		r.sessions[sessionID] = forms
	}
	tracker, ok := forms[form]
	if !ok {
		tracker = &Tracker{status: StatusIdle, updated: r.now(), now: r.now}
		forms[form] = tracker
	}
	return tracker
}

// Lookup returns the tracker without creating it.
func (r *Registry) Lookup(sessionID, form string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	forms, ok := r.sessions[strings.TrimSpace(sessionID)]
	if !ok {
		return nil, false
	}
	tracker, ok := forms[strings.ToLower(strings.TrimSpace(form))]
	return tracker, ok
}

// Forget drops every tracker owned by sessionID, typically on logout or session expiry.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, strings.TrimSpace(sessionID))
}

// Sweep removes sessions whose trackers have all been untouched for longer than idle.
// It returns the number of sessions removed.
func (r *Registry) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, forms := range r.sessions {
		stale := true
		for _, tracker := range forms {
			if tracker.UpdatedAt().After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports how many sessions currently own trackers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
