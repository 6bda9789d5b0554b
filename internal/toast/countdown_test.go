package toast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/clock"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// manualClock never fires callbacks; tests move time by hand.
type manualClock struct {
	now time.Time
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) AfterFunc(time.Duration, func()) clock.Timer { return noopTimer{} }

func newTestCountdown(clk clock.Clock, d time.Duration, expired *int) *Countdown {
	return NewCountdown(clk, CountdownOptions{
		Duration:      d,
		FrameInterval: 50 * time.Millisecond,
		OnExpire:      func() { *expired++ },
	})
}

func TestCountdown_ExpiresAfterDuration(t *testing.T) {
	clk := clock.NewFake(epoch)
	expired := 0
	c := newTestCountdown(clk, time.Second, &expired)
	c.Start()

	clk.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, expired)
	assert.Equal(t, StateRunning, c.Status().State)

	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, expired)

	status := c.Status()
	assert.Equal(t, StateExpired, status.State)
	assert.Equal(t, time.Duration(0), status.Remaining)
	assert.Equal(t, 0.0, status.Progress)
	assert.Equal(t, 0, clk.Pending(), "no callbacks remain after expiry")
}

func TestCountdown_PersistentNeverExpires(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		clk := clock.NewFake(epoch)
		expired := 0
		c := newTestCountdown(clk, d, &expired)
		c.Start()

		assert.True(t, c.Persistent())
		assert.Equal(t, 0, clk.Pending(), "persistent countdowns schedule nothing")

		clk.Advance(24 * time.Hour)
		assert.Equal(t, 0, expired)
		assert.Equal(t, StateRunning, c.Status().State)
		assert.Equal(t, 100.0, c.Status().Progress)
	}
}

func TestCountdown_PersistentFocusTogglesState(t *testing.T) {
	clk := clock.NewFake(epoch)
	expired := 0
	c := newTestCountdown(clk, 0, &expired)
	c.Start()

	assert.True(t, c.FocusEnter())
	assert.Equal(t, StatePaused, c.Status().State)

	assert.True(t, c.FocusLeave())
	assert.Equal(t, StateRunning, c.Status().State)
	assert.Equal(t, 0, expired)
}

func TestCountdown_PauseIsIdempotent(t *testing.T) {
	clk := clock.NewFake(epoch)
	expired := 0
	c := newTestCountdown(clk, 2*time.Second, &expired)
	c.Start()

	clk.Advance(500 * time.Millisecond)
	require.True(t, c.FocusEnter())
	assert.Equal(t, 1500*time.Millisecond, c.Status().Remaining)

	clk.Advance(300 * time.Millisecond)
	assert.False(t, c.FocusEnter())
	assert.Equal(t, 1500*time.Millisecond, c.Status().Remaining)
	assert.Equal(t, StatePaused, c.Status().State)
	assert.Equal(t, 0, clk.Pending(), "pausing cancels both handles")
}

func TestCountdown_PauseResumePreservesBudget(t *testing.T) {
	tests := []struct {
		name      string
		pauseAt   time.Duration
		pauseFor  time.Duration
		remaining time.Duration
	}{
		{"short pause", 500 * time.Millisecond, 100 * time.Millisecond, 1500 * time.Millisecond},
		{"long pause", 500 * time.Millisecond, time.Hour, 1500 * time.Millisecond},
		{"pause at start", 0, 10 * time.Second, 2 * time.Second},
		{"pause near end", 1990 * time.Millisecond, time.Second, 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewFake(epoch)
			expired := 0
			c := newTestCountdown(clk, 2*time.Second, &expired)
			c.Start()

			clk.Advance(tt.pauseAt)
			c.FocusEnter()
			clk.Advance(tt.pauseFor)
			assert.Equal(t, 0, expired)

			c.FocusLeave()
			clk.Advance(tt.remaining - time.Millisecond)
			assert.Equal(t, 0, expired, "must not expire before the paused budget is spent")

			clk.Advance(time.Millisecond)
			assert.Equal(t, 1, expired)
		})
	}
}

func TestCountdown_ProgressBoundsAndMonotonic(t *testing.T) {
	clk := clock.NewFake(epoch)
	var samples []float64
	var c *Countdown
	c = NewCountdown(clk, CountdownOptions{
		Duration:      time.Second,
		FrameInterval: 50 * time.Millisecond,
		OnFrame:       func() { samples = append(samples, c.Status().Progress) },
	})

	assert.Equal(t, 100.0, c.Status().Progress)
	c.Start()

	clk.Advance(500 * time.Millisecond)
	assert.InDelta(t, 50.0, c.Status().Progress, 0.001)

	clk.Advance(time.Second)
	assert.Equal(t, 0.0, c.Status().Progress)

	require.NotEmpty(t, samples)
	prev := 100.0
	for _, p := range samples {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
		assert.LessOrEqual(t, p, prev)
		prev = p
	}
}

func TestCountdown_ProgressFrozenWhilePaused(t *testing.T) {
	clk := clock.NewFake(epoch)
	expired := 0
	c := newTestCountdown(clk, time.Second, &expired)
	c.Start()

	clk.Advance(300 * time.Millisecond)
	c.FocusEnter()
	frozen := c.Status().Progress
	assert.InDelta(t, 70.0, frozen, 0.001)

	clk.Advance(5 * time.Second)
	assert.Equal(t, frozen, c.Status().Progress)
	assert.Equal(t, 700*time.Millisecond, c.Status().Remaining)

	c.FocusLeave()
	clk.Advance(350 * time.Millisecond)
	assert.InDelta(t, 35.0, c.Status().Progress, 0.001)
}

func TestCountdown_LeaveWithNoBudgetExpiresImmediately(t *testing.T) {
	clk := &manualClock{now: epoch}
	expired := 0
	c := newTestCountdown(clk, time.Second, &expired)
	c.Start()

	// The expiry callback is late; the pause observes an exhausted budget.
	clk.now = epoch.Add(1500 * time.Millisecond)
	require.True(t, c.FocusEnter())
	assert.Equal(t, time.Duration(0), c.Status().Remaining)
	assert.Equal(t, 0, expired)

	require.True(t, c.FocusLeave())
	assert.Equal(t, 1, expired)
	assert.Equal(t, StateExpired, c.Status().State)
}

func TestCountdown_StopCancelsCallbacks(t *testing.T) {
	clk := clock.NewFake(epoch)
	expired := 0
	c := newTestCountdown(clk, time.Second, &expired)
	c.Start()

	clk.Advance(200 * time.Millisecond)
	c.Stop()
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Minute)
	assert.Equal(t, 0, expired)

	assert.False(t, c.FocusEnter())
	assert.False(t, c.FocusLeave())
}

func TestCountdown_IgnoresFocusAfterExpiry(t *testing.T) {
	clk := clock.NewFake(epoch)
	expired := 0
	c := newTestCountdown(clk, 100*time.Millisecond, &expired)
	c.Start()
	clk.Advance(time.Second)
	require.Equal(t, 1, expired)

	assert.False(t, c.FocusEnter())
	assert.False(t, c.FocusLeave())
	assert.Equal(t, 1, expired)
}

func TestCountdown_LeaveWhileRunningIsNoop(t *testing.T) {
	clk := clock.NewFake(epoch)
	expired := 0
	c := newTestCountdown(clk, time.Second, &expired)
	c.Start()

	assert.False(t, c.FocusLeave())
	clk.Advance(time.Second)
	assert.Equal(t, 1, expired)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "paused", StatePaused.String())
	assert.Equal(t, "expired", StateExpired.String())
	assert.Equal(t, "unknown", State(42).String())
}
