package memory

import (
	"time"

	"github.com/valerio/go-dmg/dmg/bit"
)

// Clock is the time source of the MBC3 real time clock.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

const (
	rtcSeconds uint8 = 0x08 + iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh

	rtcLastRegister = rtcDaysHigh
)

const (
	rtcHaltBit  = 6
	rtcCarryBit = 7
	maxRTCDays  = 512
)

// RTC is the MBC3 clock: seconds, minutes, hours and a 9-bit day counter
// with halt and day-overflow flags. Reads observe the values copied by the
// last latch.
type RTC struct {
	clock    Clock
	last     time.Time
	elapsed  int64 // seconds counted since day 0
	halted   bool
	carry    bool
	latched  [5]uint8
	residual time.Duration
}

// NewRTC creates a clock starting at day 0, 00:00:00.
func NewRTC(clock Clock) *RTC {
	return &RTC{clock: clock, last: clock.Now()}
}

func (r *RTC) update() {
	now := r.clock.Now()
	delta := now.Sub(r.last) + r.residual
	r.last = now
	if r.halted || delta <= 0 {
		r.residual = 0
		return
	}

	secs := int64(delta / time.Second)
	r.residual = delta - time.Duration(secs)*time.Second
	r.elapsed += secs
	if r.elapsed >= maxRTCDays*86400 {
		r.elapsed %= maxRTCDays * 86400
		r.carry = true
	}
}

// Latch copies the running clock into the readable registers.
func (r *RTC) Latch() {
	r.update()
	days := r.elapsed / 86400
	r.latched[0] = uint8(r.elapsed % 60)
	r.latched[1] = uint8(r.elapsed / 60 % 60)
	r.latched[2] = uint8(r.elapsed / 3600 % 24)
	r.latched[3] = uint8(days)

	dh := uint8(days>>8) & 0x01
	dh = bit.SetTo(rtcHaltBit, dh, r.halted)
	dh = bit.SetTo(rtcCarryBit, dh, r.carry)
	r.latched[4] = dh
}

// Read returns a latched register, reg is the RAM bank number 0x08-0x0C.
func (r *RTC) Read(reg uint8) uint8 {
	return r.latched[reg-rtcSeconds]
}

// Write sets a register of the running clock.
func (r *RTC) Write(reg uint8, value uint8) {
	r.update()
	secs := r.elapsed % 60
	mins := r.elapsed / 60 % 60
	hours := r.elapsed / 3600 % 24
	days := r.elapsed / 86400

	switch reg {
	case rtcSeconds:
		secs = int64(value % 60)
		r.residual = 0
	case rtcMinutes:
		mins = int64(value % 60)
	case rtcHours:
		hours = int64(value % 24)
	case rtcDaysLow:
		days = days&0x100 | int64(value)
	case rtcDaysHigh:
		days = days&0xFF | int64(value&0x01)<<8
		r.halted = bit.IsSet(rtcHaltBit, value)
		r.carry = bit.IsSet(rtcCarryBit, value)
	}

	r.elapsed = days*86400 + hours*3600 + mins*60 + secs
	r.latched[reg-rtcSeconds] = value
}
