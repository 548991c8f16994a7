package lifecycle

import (
	"sync"
	"time"
)

const DefaultDebounce = 250 * time.Millisecond

// Debouncer coalesces bursts of triggers into a single trailing call.
type Debouncer struct {
	mu       sync.Mutex
	clock    Clock
	duration time.Duration
	timer    Timer
}

func NewDebouncer(d time.Duration, clock Clock) *Debouncer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Debouncer{
		clock:    clock,
		duration: d,
	}
}

// Trigger re-arms the timer. Only the function given by the last trigger of
// a burst runs, once the burst has been quiet for the debounce duration.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	var t Timer
	t = d.clock.AfterFunc(d.duration, func() {
		d.mu.Lock()
		if d.timer != t {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	d.timer = t
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
