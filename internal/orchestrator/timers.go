package orchestrator

import (
	"sync"
	"time"
)

// Deferred-action purposes. One slot per purpose: arming a purpose again
// replaces the prior timer, it never stacks.
const (
	purposeRelock     = "relock"
	purposeAlertClear = "alert_clear"
)

// timerSet holds the orchestrator's named cancellable deferred actions.
// After Close, no callback fires.
type timerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func newTimerSet() *timerSet {
	return &timerSet{timers: make(map[string]*time.Timer)}
}

// Arm schedules fn after d, replacing any outstanding timer of the same purpose
func (t *timerSet) Arm(purpose string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if prev, ok := t.timers[purpose]; ok {
		prev.Stop()
	}

	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.closed || t.timers[purpose] != tm {
			t.mu.Unlock()
			return
		}
		delete(t.timers, purpose)
		t.mu.Unlock()
		fn()
	})
	t.timers[purpose] = tm
}

// Cancel consumes an outstanding timer; reports whether one was armed
func (t *timerSet) Cancel(purpose string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tm, ok := t.timers[purpose]
	if !ok {
		return false
	}
	tm.Stop()
	delete(t.timers, purpose)
	return true
}

// Close cancels every outstanding timer and blocks further arming
func (t *timerSet) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for purpose, tm := range t.timers {
		tm.Stop()
		delete(t.timers, purpose)
	}
}
