// Package timer implements the C2 timer service: two independent countdown
// timers (bit timer, edge timer) ticking at ~8MHz, each invoking a callback
// on expiry. Both timers are software countdowns on time.AfterFunc, used
// the same way by the daemon, the tools and the tests.
package timer

import (
	"sync"
	"time"

	"github.com/samoyed-dali/dali-link/internal/timing"
)

// ExpiryFunc is invoked when a Timer's countdown reaches zero. It runs on
// whatever goroutine/interrupt drives the timer and must not block.
type ExpiryFunc func()

// Timer is one of the two countdown timers the LSM depends on (bit timer,
// edge timer). It is armed with a tick count and fires ExpiryFunc exactly
// once unless disarmed first.
type Timer struct {
	name   string
	onFire ExpiryFunc

	mu      sync.Mutex
	armedAt time.Time
	ticks   int64
	running *time.Timer
	gen     uint64 // generation counter to ignore stale fires after Disarm
}

// New creates a Timer that calls onFire on expiry. name is used only for
// diagnostics.
func New(name string, onFire ExpiryFunc) *Timer {
	return &Timer{name: name, onFire: onFire}
}

// Arm (re)starts the countdown for the given number of 8MHz ticks,
// replacing any countdown already running.
func (t *Timer) Arm(ticks int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running != nil {
		t.running.Stop()
	}
	t.gen++
	gen := t.gen
	t.ticks = ticks
	t.armedAt = time.Now()
	d := timing.AsDuration(ticks)
	if d <= 0 {
		d = time.Nanosecond
	}
	t.running = time.AfterFunc(d, func() {
		t.mu.Lock()
		fire := gen == t.gen
		if fire {
			t.running = nil
		}
		t.mu.Unlock()
		if fire && t.onFire != nil {
			t.onFire()
		}
	})
}

// Disarm cancels any pending expiry. It is safe to call when already
// disarmed.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running != nil {
		t.running.Stop()
		t.running = nil
	}
	t.gen++
}

// Armed reports whether a countdown is currently running, backing
// invariant 3 (either the bit timer or the edge timer is armed whenever
// the LSM is not Idle).
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running != nil
}

// Now returns ticks elapsed since the timer was last armed or reset.
func (t *Timer) Now() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.armedAt)
	return int64(elapsed * timing.TickRate / time.Second)
}

// Reset rebases the elapsed-time origin to now without touching any
// pending expiry, used by the edge timer to timestamp a just-seen edge
// before it is re-armed for the next one.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armedAt = time.Now()
}
