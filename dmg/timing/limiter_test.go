package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
}

func newTestLimiter() (*SleepLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := &SleepLimiter{frameTime: FrameDuration, now: clock.now, sleep: clock.sleep}
	l.Reset()
	return l, clock
}

func TestFrameDuration(t *testing.T) {
	assert.InDelta(t, 16.74, float64(FrameDuration)/float64(time.Millisecond), 0.01)
}

func TestSleepLimiter(t *testing.T) {
	t.Run("sleeps the rest of the frame", func(t *testing.T) {
		l, clock := newTestLimiter()

		clock.t = clock.t.Add(4 * time.Millisecond) // emulation work
		l.WaitForNextFrame()

		assert.Equal(t, []time.Duration{FrameDuration - 4*time.Millisecond}, clock.sleeps)
		assert.Equal(t, time.Unix(0, 0).Add(FrameDuration), clock.t)
	})

	t.Run("a slow frame is made up by the next", func(t *testing.T) {
		l, clock := newTestLimiter()

		clock.t = clock.t.Add(FrameDuration + 2*time.Millisecond)
		l.WaitForNextFrame()
		assert.Empty(t, clock.sleeps)

		l.WaitForNextFrame()
		assert.Equal(t, []time.Duration{FrameDuration - 2*time.Millisecond}, clock.sleeps)
	})

	t.Run("falling far behind restarts the schedule", func(t *testing.T) {
		l, clock := newTestLimiter()

		clock.t = clock.t.Add(time.Second)
		l.WaitForNextFrame()
		assert.Empty(t, clock.sleeps)

		l.WaitForNextFrame()
		assert.Equal(t, []time.Duration{FrameDuration}, clock.sleeps)
	})
}

func TestNoOpLimiter(t *testing.T) {
	l := NewNoOpLimiter()
	start := time.Now()
	for i := 0; i < 100; i++ {
		l.WaitForNextFrame()
	}
	l.Reset()
	assert.Less(t, time.Since(start), FrameDuration)
}
