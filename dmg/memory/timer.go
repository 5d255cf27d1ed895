package memory

import (
	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// tacLookup maps TAC input clock select (bits 1-0) to the bit position
// of the 16-bit internal divider (systemCounter) used as the timer's
// clock source. The timer increments on falling edges of this selected
// bit when the timer is enabled (TAC bit 2 = 1).
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint8{9, 3, 5, 7}

// timaReloadDelay is how long TIMA reads 0 after overflowing, before it is
// reloaded from TMA and the interrupt is raised.
const timaReloadDelay = 4

// Timer encapsulates the DIV/TIMA/TMA/TAC behavior.
type Timer struct {
	systemCounter uint16 // DIV is the upper 8 bits
	lastTimerBit  bool   // previous value of (enabled && selected bit) for edge detection
	reloadDelay   int

	tima byte
	tma  byte
	tac  byte
}

// SetSeed initializes the internal divider counter, e.g. to the value it
// holds when the boot ROM hands over to the cartridge.
func (t *Timer) SetSeed(seed uint16) {
	t.systemCounter = seed
	t.lastTimerBit = t.timerBit()
	t.reloadDelay = 0
}

// Tick advances the timer by the given number of cycles and returns the
// timer interrupt if TIMA was reloaded in the meantime.
func (t *Timer) Tick(cycles int) addr.Interrupt {
	var irq addr.Interrupt
	for range cycles {
		if t.reloadDelay > 0 {
			t.reloadDelay--
			if t.reloadDelay == 0 {
				t.tima = t.tma
				irq |= addr.TimerInterrupt
			}
		}

		t.systemCounter++
		t.detectEdge()
	}
	return irq
}

func (t *Timer) timerBit() bool {
	return bit.IsSet(2, t.tac) && bit.IsSet16(tacLookup[t.tac&0x03], t.systemCounter)
}

// detectEdge increments TIMA on a falling edge of the selected divider bit.
// Resetting DIV or changing TAC can produce such an edge too, as on hardware.
func (t *Timer) detectEdge() {
	current := t.timerBit()
	if t.lastTimerBit && !current {
		t.incrementTIMA()
	}
	t.lastTimerBit = current
}

func (t *Timer) incrementTIMA() {
	if t.tima == 0xFF {
		t.reloadDelay = timaReloadDelay
	}
	t.tima++
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return byte(t.systemCounter >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.systemCounter = 0
		t.detectEdge()
	case addr.TIMA:
		// a write during the reload delay cancels the reload
		t.tima = value
		t.reloadDelay = 0
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value & 0x07
		t.detectEdge()
	}
}
