package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// flatBus is 64KiB of plain RAM, IE and IF included.
type flatBus [0x10000]byte

func (b *flatBus) Read(address uint16) byte {
	return b[address]
}

func (b *flatBus) Write(address uint16, value byte) {
	b[address] = value
}

// newTestCPU loads program at 0xC000 and points PC at it.
func newTestCPU(program ...uint8) (*CPU, *flatBus) {
	bus := &flatBus{}
	copy(bus[0xC000:], program)
	c := New(bus)
	c.pc = 0xC000
	c.sp = 0xD000
	return c, bus
}

func TestCPU_stack(t *testing.T) {
	c, bus := newTestCPU()

	c.pushStack(0xBEEF)
	assert.Equal(t, uint16(0xCFFE), c.sp)
	assert.Equal(t, uint8(0xBE), bus[0xCFFF])
	assert.Equal(t, uint8(0xEF), bus[0xCFFE])

	assert.Equal(t, uint16(0xBEEF), c.popStack())
	assert.Equal(t, uint16(0xD000), c.sp)
}

func TestCPU_alu(t *testing.T) {
	tests := []struct {
		name    string
		a       uint8
		carry   bool
		op      func(c *CPU, v uint8)
		value   uint8
		resultA uint8
		flags   uint8
	}{
		{"add zero half carry carry", 0x3A, false, (*CPU).addToA, 0xC6, 0x00, 0xB0},
		{"add half carry carry", 0x3C, false, (*CPU).addToA, 0xFF, 0x3B, 0x30},
		{"add no flags", 0x3C, false, (*CPU).addToA, 0x12, 0x4E, 0x00},
		{"adc with carry in", 0xE1, true, func(c *CPU, v uint8) { c.adc(v, c.flagToBit(carryFlag)) }, 0x0F, 0xF1, 0x20},
		{"adc overflow to zero", 0xE1, true, func(c *CPU, v uint8) { c.adc(v, c.flagToBit(carryFlag)) }, 0x1E, 0x00, 0xB0},
		{"sub equal", 0x3E, false, (*CPU).sub, 0x3E, 0x00, 0xC0},
		{"sub half borrow", 0x3E, false, (*CPU).sub, 0x0F, 0x2F, 0x60},
		{"sub borrow", 0x3E, false, (*CPU).sub, 0x40, 0xFE, 0x50},
		{"sbc no borrow", 0x3B, true, (*CPU).sbc, 0x2A, 0x10, 0x40},
		{"sbc full borrow", 0x3B, true, (*CPU).sbc, 0x4F, 0xEB, 0x70},
		{"and", 0x5A, false, (*CPU).and, 0x3F, 0x1A, 0x20},
		{"and zero", 0x5A, true, (*CPU).and, 0x00, 0x00, 0xA0},
		{"xor self", 0x5A, true, (*CPU).xor, 0x5A, 0x00, 0x80},
		{"or", 0x5A, true, (*CPU).or, 0x03, 0x5B, 0x00},
		{"cp keeps A", 0x3C, false, (*CPU).cp, 0x2F, 0x3C, 0x60},
		{"cp equal", 0x3C, false, (*CPU).cp, 0x3C, 0x3C, 0xC0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU()
			c.a = tt.a
			c.setFlagToCondition(carryFlag, tt.carry)

			tt.op(c, tt.value)

			assert.Equal(t, tt.resultA, c.a)
			assert.Equal(t, tt.flags, c.f)
		})
	}
}

func TestCPU_incDec(t *testing.T) {
	tests := []struct {
		name   string
		inc    bool
		value  uint8
		result uint8
		flags  uint8
	}{
		{"inc", true, 0x01, 0x02, 0x10},
		{"inc half carry", true, 0x0F, 0x10, 0x30},
		{"inc wraps", true, 0xFF, 0x00, 0xB0},
		{"dec to zero", false, 0x01, 0x00, 0xD0},
		{"dec half borrow", false, 0x10, 0x0F, 0x70},
		{"dec wraps", false, 0x00, 0xFF, 0x70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU()
			// carry must be left untouched
			c.setFlag(carryFlag)
			value := tt.value

			if tt.inc {
				c.inc(&value)
			} else {
				c.dec(&value)
			}

			assert.Equal(t, tt.result, value)
			assert.Equal(t, tt.flags, c.f)
		})
	}
}

func TestCPU_shifts(t *testing.T) {
	tests := []struct {
		name   string
		op     func(c *CPU, v uint8) uint8
		carry  bool
		value  uint8
		result uint8
		flags  uint8
	}{
		{"rlc", (*CPU).rlc, false, 0x85, 0x0B, 0x10},
		{"rlc zero", (*CPU).rlc, false, 0x00, 0x00, 0x80},
		{"rl through carry", (*CPU).rl, true, 0x95, 0x2B, 0x10},
		{"rl to zero", (*CPU).rl, false, 0x80, 0x00, 0x90},
		{"rrc", (*CPU).rrc, false, 0x3B, 0x9D, 0x10},
		{"rr through carry", (*CPU).rr, true, 0x8A, 0xC5, 0x00},
		{"sla", (*CPU).sla, false, 0xFF, 0xFE, 0x10},
		{"sra keeps sign", (*CPU).sra, false, 0x8A, 0xC5, 0x00},
		{"srl", (*CPU).srl, false, 0x01, 0x00, 0x90},
		{"swap", (*CPU).swap, true, 0xF0, 0x0F, 0x00},
		{"swap zero", (*CPU).swap, false, 0x00, 0x00, 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU()
			c.setFlagToCondition(carryFlag, tt.carry)

			assert.Equal(t, tt.result, tt.op(c, tt.value))
			assert.Equal(t, tt.flags, c.f)
		})
	}
}

func TestCPU_bit(t *testing.T) {
	c, _ := newTestCPU()
	c.setFlag(carryFlag)

	c.bit(7, 0x80)
	assert.Equal(t, uint8(0x30), c.f, "Z clear, H set, C kept")

	c.bit(0, 0x80)
	assert.Equal(t, uint8(0xB0), c.f)
}

func TestCPU_addToHL(t *testing.T) {
	c, _ := newTestCPU()
	c.setFlag(zeroFlag)
	c.setHL(0x8A23)

	c.addToHL(0x0605)
	assert.Equal(t, uint16(0x9028), c.getHL())
	assert.Equal(t, uint8(0xA0), c.f, "Z is preserved")

	c.setHL(0x8A23)
	c.addToHL(0x8A23)
	assert.Equal(t, uint16(0x1446), c.getHL())
	assert.Equal(t, uint8(0xB0), c.f)
}

func TestCPU_addSPSigned(t *testing.T) {
	tests := []struct {
		name   string
		sp     uint16
		offset uint8
		result uint16
		flags  uint8
	}{
		{"positive", 0xFFF8, 0x02, 0xFFFA, 0x00},
		{"carries from low byte", 0x00FF, 0x01, 0x0100, 0x30},
		{"negative", 0x0000, 0xFF, 0xFFFF, 0x00},
		{"negative with carries", 0x0001, 0xFF, 0x0000, 0x30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU(tt.offset)
			c.sp = tt.sp
			c.setFlag(zeroFlag)

			assert.Equal(t, tt.result, c.addSPSigned())
			assert.Equal(t, tt.flags, c.f)
			assert.Equal(t, uint16(0xC001), c.pc)
		})
	}
}

func TestCPU_daa(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		a       uint8
		result  uint8
		flags   uint8
	}{
		{"after add", []uint8{0xC6, 0x38, 0x27}, 0x45, 0x83, 0x00},
		{"after add wrapping", []uint8{0xC6, 0x01, 0x27}, 0x99, 0x00, 0x90},
		{"after sub", []uint8{0xD6, 0x38, 0x27}, 0x83, 0x45, 0x40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU(tt.program...)
			c.a = tt.a

			for range 2 {
				_, err := c.Step()
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.result, c.a)
			assert.Equal(t, tt.flags, c.f)
		})
	}
}
