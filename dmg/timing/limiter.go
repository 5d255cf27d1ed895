// Package timing paces emulation to the speed of the real hardware.
package timing

import (
	"time"

	"github.com/valerio/go-dmg/dmg/video"
)

// ClockSpeed is the DMG master clock in Hz.
const ClockSpeed = 4194304

// FrameDuration is the real time length of one frame, about 16.74ms.
const FrameDuration = time.Second * video.FrameCycles / ClockSpeed

// maxLag is how far behind schedule the limiter may fall before it stops
// trying to catch up and restarts from the current time.
const maxLag = 5 * FrameDuration

// Limiter controls frame rate timing for emulation.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset restarts the schedule, e.g. after a pause.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}

// SleepLimiter schedules frames at fixed deadlines and sleeps until each
// one, so short sleeps that overshoot are absorbed by the next frame.
type SleepLimiter struct {
	frameTime time.Duration
	next      time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewSleepLimiter creates a limiter running at the hardware frame rate.
func NewSleepLimiter() *SleepLimiter {
	l := &SleepLimiter{
		frameTime: FrameDuration,
		now:       time.Now,
		sleep:     time.Sleep,
	}
	l.Reset()
	return l
}

func (l *SleepLimiter) WaitForNextFrame() {
	l.next = l.next.Add(l.frameTime)

	wait := l.next.Sub(l.now())
	switch {
	case wait > 0:
		l.sleep(wait)
	case -wait > maxLag:
		// too slow to catch up, e.g. the host was suspended
		l.next = l.now()
	}
}

func (l *SleepLimiter) Reset() {
	l.next = l.now()
}
