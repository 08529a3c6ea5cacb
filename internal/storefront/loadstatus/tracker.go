package loadstatus

import (
	"sync"
	"time"
)

// Status enumerates the lifecycle of a single form submission.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Tracker holds the current Status of one form. The zero value is idle and ready to use.
//
// Setters never guard against overlapping submissions: a second SetLoading
// before the first submission resolves simply overwrites the state.
type Tracker struct {
	mu      sync.RWMutex
	status  Status
	updated time.Time
	now     func() time.Time
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{status: StatusIdle}
}

// SetLoading marks a submission as in flight.
func (t *Tracker) SetLoading() { t.set(StatusLoading) }

// SetSuccess marks the latest submission as resolved successfully.
func (t *Tracker) SetSuccess() { t.set(StatusSuccess) }

// SetError marks the latest submission as failed.
func (t *Tracker) SetError() { t.set(StatusError) }

// Reset returns the tracker to idle.
func (t *Tracker) Reset() { t.set(StatusIdle) }

// Status returns the active state.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.status == "" {
		return StatusIdle
	}
	return t.status
}

func (t *Tracker) IsIdle() bool    { return t.Status() == StatusIdle }
func (t *Tracker) IsLoading() bool { return t.Status() == StatusLoading }
func (t *Tracker) IsSuccess() bool { return t.Status() == StatusSuccess }
func (t *Tracker) IsError() bool   { return t.Status() == StatusError }

// UpdatedAt reports when the status last changed hands. Zero for a pristine tracker.
func (t *Tracker) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updated
}

func (t *Tracker) set(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	if t.now != nil {
		t.updated = t.now()
	} else {
		t.updated = time.Now()
	}
}
