package bridge

import (
	"sync"
	"time"
)

// Watchdog fires onIdle when no reset has happened for a full timeout period.
// The elapsed time is rechecked when the timer fires, so a reset that lands
// just before expiry defers the nudge instead of being lost to a stale
// closure. A zero or negative timeout disables the watchdog entirely.
type Watchdog struct {
	timeout time.Duration
	onIdle  func()

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64
	lastReset time.Time
	started   bool
	stopped   bool
}

func NewWatchdog(timeout time.Duration, onIdle func()) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		onIdle:  onIdle,
	}
}

// Start arms the watchdog. No-op when the timeout is disabled.
func (w *Watchdog) Start() {
	if w.timeout <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	w.lastReset = time.Now()
	w.schedule(w.timeout)
}

// Reset records activity and pushes the next fire out by a full timeout.
func (w *Watchdog) Reset() {
	if w.timeout <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || w.stopped {
		return
	}
	w.lastReset = time.Now()
	w.gen++
	w.timer.Stop()
	w.schedule(w.timeout)
}

// Stop cancels the watchdog permanently.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// schedule arms the single live timer chain. The generation token invalidates
// any fire that was already in flight when Reset or Stop replaced the chain.
// Callers must hold w.mu.
func (w *Watchdog) schedule(d time.Duration) {
	gen := w.gen
	w.timer = time.AfterFunc(d, func() { w.fire(gen) })
}

func (w *Watchdog) fire(gen uint64) {
	w.mu.Lock()
	if w.stopped || gen != w.gen {
		w.mu.Unlock()
		return
	}
	// A reset may have landed between scheduling and firing; if so, wait out
	// the remainder instead of nudging early.
	elapsed := time.Since(w.lastReset)
	if elapsed < w.timeout {
		w.schedule(w.timeout - elapsed)
		w.mu.Unlock()
		return
	}
	w.lastReset = time.Now()
	w.schedule(w.timeout)
	w.mu.Unlock()

	w.onIdle()
}
