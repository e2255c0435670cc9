/*
debounce.go - Coalescing rapid filter changes

PURPOSE:
  Interactive callers fire a criteria change on every keystroke. Debouncer
  coalesces a burst of triggers into a single execution after a quiet
  period, so only the final criteria are evaluated.
*/
package inventory

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a trigger fires.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs the most recent function once no trigger has arrived for
// the configured delay. Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer. delay <= 0 uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet period, cancelling any pending run.
// fn executes on a timer goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
