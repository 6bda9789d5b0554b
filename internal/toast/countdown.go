package toast

import (
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
)

// DefaultFrameInterval is how often progress is recomputed while running.
const DefaultFrameInterval = 50 * time.Millisecond

// State is the countdown state of a single toast.
type State int

const (
	StateRunning State = iota
	StatePaused
	StateExpired
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Status is the display-facing view of a countdown.
type Status struct {
	State     State
	Remaining time.Duration // Zero for persistent toasts
	Progress  float64       // 0-100
}

// CountdownOptions configures a Countdown.
type CountdownOptions struct {
	Duration      time.Duration // Zero or negative disables auto-dismiss
	FrameInterval time.Duration
	OnExpire      func() // Called once, without locks held, when the countdown runs out
	OnFrame       func() // Called after every progress recomputation
}

// Countdown is the per-toast timer state machine.
//
// It owns two scheduled handles, the expiry timer and the frame step, and
// cancels both whenever it leaves the running state. Callbacks that were
// already in flight are discarded through a generation check.
type Countdown struct {
	mu    sync.Mutex
	clock clock.Clock

	duration      time.Duration
	frameInterval time.Duration
	onExpire      func()
	onFrame       func()

	// Bookkeeping
	state     State
	remaining time.Duration
	lastStart time.Time
	gen       uint64
	stopped   bool
	expiry    clock.Timer
	frame     clock.Timer

	// Display
	progress float64
}

// NewCountdown creates a countdown in the running state. Timers are not
// scheduled until Start is called.
func NewCountdown(c clock.Clock, opts CountdownOptions) *Countdown {
	if c == nil {
		c = clock.New()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	duration := opts.Duration
	if duration < 0 {
		duration = 0
	}

	return &Countdown{
		clock:         c,
		duration:      duration,
		frameInterval: opts.FrameInterval,
		onExpire:      opts.OnExpire,
		onFrame:       opts.OnFrame,
		state:         StateRunning,
		remaining:     duration,
		progress:      100,
	}
}

// Persistent reports whether the countdown never expires on its own.
func (c *Countdown) Persistent() bool {
	return c.duration <= 0
}

// Start begins counting down from the full duration.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.state != StateRunning {
		return
	}
	c.lastStart = c.clock.Now()
	c.scheduleLocked()
}

// FocusEnter pauses the countdown. Repeated calls without an intervening
// FocusLeave have no further effect.
func (c *Countdown) FocusEnter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.state != StateRunning {
		return false
	}

	if !c.Persistent() {
		elapsed := c.clock.Now().Sub(c.lastStart)
		c.remaining = max(0, c.remaining-elapsed)
		c.updateProgressLocked(c.remaining)
	}
	c.cancelLocked()
	c.state = StatePaused
	return true
}

// FocusLeave resumes a paused countdown. When the paused budget is already
// used up the countdown expires immediately instead of rescheduling.
func (c *Countdown) FocusLeave() bool {
	c.mu.Lock()

	if c.stopped || c.state != StatePaused {
		c.mu.Unlock()
		return false
	}

	if !c.Persistent() && c.remaining <= 0 {
		c.expireLocked()
		cb := c.onExpire
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
		return true
	}

	c.state = StateRunning
	c.lastStart = c.clock.Now()
	c.scheduleLocked()
	c.mu.Unlock()
	return true
}

// Stop tears the countdown down and cancels all pending callbacks.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.cancelLocked()
}

// Status returns the current state, live remaining budget and the last
// computed progress.
func (c *Countdown) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.remaining
	if c.state == StateRunning && !c.Persistent() {
		remaining = max(0, remaining-c.clock.Now().Sub(c.lastStart))
	}
	return Status{
		State:     c.state,
		Remaining: remaining,
		Progress:  c.progress,
	}
}

// scheduleLocked arms the expiry timer and frame step for the current
// generation. Caller must hold the lock.
func (c *Countdown) scheduleLocked() {
	if c.Persistent() {
		return
	}

	c.gen++
	gen := c.gen
	c.expiry = c.clock.AfterFunc(c.remaining, func() { c.handleExpiry(gen) })
	c.frame = c.clock.AfterFunc(c.frameInterval, func() { c.handleFrame(gen) })
}

// cancelLocked stops both handles and invalidates in-flight callbacks.
// Caller must hold the lock.
func (c *Countdown) cancelLocked() {
	c.gen++
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
	if c.frame != nil {
		c.frame.Stop()
		c.frame = nil
	}
}

// expireLocked moves to the terminal state. Caller must hold the lock.
func (c *Countdown) expireLocked() {
	c.cancelLocked()
	c.state = StateExpired
	c.remaining = 0
	c.progress = 0
}

func (c *Countdown) handleExpiry(gen uint64) {
	c.mu.Lock()
	if c.stopped || c.gen != gen || c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	c.expireLocked()
	cb := c.onExpire
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (c *Countdown) handleFrame(gen uint64) {
	c.mu.Lock()
	if c.stopped || c.gen != gen || c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	remaining := max(0, c.remaining-c.clock.Now().Sub(c.lastStart))
	c.updateProgressLocked(remaining)
	c.frame = c.clock.AfterFunc(c.frameInterval, func() { c.handleFrame(gen) })
	cb := c.onFrame
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// updateProgressLocked lowers the displayed progress to match remaining.
// Progress never increases. Caller must hold the lock.
func (c *Countdown) updateProgressLocked(remaining time.Duration) {
	if c.Persistent() {
		return
	}
	p := float64(remaining) / float64(c.duration) * 100
	p = min(max(p, 0), 100)
	if p < c.progress {
		c.progress = p
	}
}
