package editor

import (
	"sync"
	"time"
)

// DefaultAutosaveDelay is the quiet period before an automatic save.
const DefaultAutosaveDelay = 2000 * time.Millisecond

// Autosaver debounces save requests: each Trigger restarts the delay, and
// fire runs once the triggers stop for that long. A non-positive delay
// disables it.
type Autosaver struct {
	delay time.Duration
	fire  func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func NewAutosaver(delay time.Duration, fire func()) *Autosaver {
	return &Autosaver{delay: delay, fire: fire}
}

// Trigger (re)starts the debounce window.
func (a *Autosaver) Trigger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped || a.delay <= 0 {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		// A Stop that raced with expiry leaves a stale callback behind.
		if gen != a.gen || a.stopped {
			a.mu.Unlock()
			return
		}
		a.timer = nil
		a.mu.Unlock()
		a.fire()
	})
}

// Cancel drops a pending fire without disabling future triggers.
func (a *Autosaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()
}

// Stop cancels any pending fire and ignores all later triggers.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()
	a.stopped = true
}

// Pending reports whether a fire is scheduled.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

func (a *Autosaver) Delay() time.Duration { return a.delay }

func (a *Autosaver) cancelLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}
