package memory

import (
	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// JoypadKey represents a key on the joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

func (k JoypadKey) String() string {
	switch k {
	case JoypadRight:
		return "Right"
	case JoypadLeft:
		return "Left"
	case JoypadUp:
		return "Up"
	case JoypadDown:
		return "Down"
	case JoypadA:
		return "A"
	case JoypadB:
		return "B"
	case JoypadSelect:
		return "Select"
	case JoypadStart:
		return "Start"
	default:
		return "Unknown"
	}
}

// Joypad models the P1 register. The register is a selector (bits 4-5)
// that controls which group of keys is mapped to the low bits (0-3):
//   - bit 4 clear selects the d-pad directions
//   - bit 5 clear selects A, B, Select, Start
//   - if both are clear, the groups are ANDed together
//   - if neither is, the low bits read 0x0F
//
// 1 means released, 0 means pressed. Bits 6-7 always read as 1.
type Joypad struct {
	buttons   uint8
	dpad      uint8
	selection uint8
	pending   addr.Interrupt
}

// NewJoypad creates a joypad with every key released.
func NewJoypad() *Joypad {
	return &Joypad{
		buttons:   0x0F,
		dpad:      0x0F,
		selection: 0x30,
	}
}

func (j *Joypad) Read() uint8 {
	result := uint8(0b11000000) | j.selection
	low := uint8(0x0F)
	if !bit.IsSet(4, j.selection) {
		low &= j.dpad
	}
	if !bit.IsSet(5, j.selection) {
		low &= j.buttons
	}
	return result | low
}

// Write sets the selection bits, the only writable part of P1.
func (j *Joypad) Write(value uint8) {
	j.selection = value & 0b00110000
}

// Press marks a key as held. A key going from released to pressed requests
// the joypad interrupt.
func (j *Joypad) Press(key JoypadKey) {
	group, index := j.locate(key)
	if bit.IsSet(index, *group) {
		j.pending |= addr.JoypadInterrupt
	}
	*group = bit.Reset(index, *group)
}

// Release marks a key as no longer held.
func (j *Joypad) Release(key JoypadKey) {
	group, index := j.locate(key)
	*group = bit.Set(index, *group)
}

// Tick returns and clears the interrupts raised since the last call.
func (j *Joypad) Tick() addr.Interrupt {
	irq := j.pending
	j.pending = 0
	return irq
}

func (j *Joypad) locate(key JoypadKey) (*uint8, uint8) {
	if key >= JoypadA {
		return &j.buttons, uint8(key - JoypadA)
	}
	return &j.dpad, uint8(key)
}
