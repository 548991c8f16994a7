package lifecycle

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending call that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred calls.
type Clock interface {
	AfterFunc(time.Duration, func()) Timer
}

type realClock struct{}

// SystemClock returns a clock backed by the time package.
func SystemClock() Clock {
	return realClock{}
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ManualClock only moves when told to. Timers fire synchronously from Advance.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

type manualTimer struct {
	clock *ManualClock
	when  time.Duration
	seq   int
	fn    func()
	done  bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (c *ManualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{
		clock: c,
		when:  c.now + d,
		seq:   c.seq,
		fn:    fn,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and runs every timer due in the meantime,
// in the order they were due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	keep := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.done:
		case t.when <= c.now:
			t.done = true
			due = append(due, t)
		default:
			keep = append(keep, t)
		}
	}
	c.timers = keep
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].when == due[j].when {
			return due[i].seq < due[j].seq
		}
		return due[i].when < due[j].when
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of timers not yet fired nor stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}
