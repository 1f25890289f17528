// Package debounce delays an action until a quiet period has elapsed since
// the last triggering event, coalescing bursts into a single invocation.
package debounce

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending timer. Schedule arms the timer with the
// configured delay, cancelling any previously armed one; only the last
// scheduled function fires. Downstream work started by a fired function is
// not cancelled by later Schedule calls.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New constructs a Debouncer with the given quiet-period delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arms (or re-arms) the single pending timer to run fn after the
// delay. A Schedule racing the expiry may be superseded silently; the
// guarantee is at most one live timer, not exactly-once delivery.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		_ = d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Stop cancels the pending timer, if any. It does not wait for a function
// that has already begun running.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		_ = d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a timer is currently armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
