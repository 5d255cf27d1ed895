package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-dmg/dmg/addr"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name           string
		program        []uint8
		expectedOpcode uint16
	}{
		{"NOP", []uint8{0x00}, 0x00},
		{"INC B", []uint8{0x04}, 0x04},
		{"CB BIT 0,B", []uint8{0xCB, 0x40}, 0xCB40},
		{"CB SET 7,A", []uint8{0xCB, 0xFF}, 0xCBFF},
		{"LD B,0xCB (not CB prefix)", []uint8{0x06, 0xCB}, 0x06},
		{"HALT", []uint8{0x76}, 0x76},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU(tt.program...)

			opcode := Decode(c)

			assert.Equal(t, uint16(0xC000), c.pc, "PC should not change")
			assert.Equal(t, tt.expectedOpcode, c.currentOpcode)
			assert.NotNil(t, opcode)
		})
	}
}

func TestOpcodeTablesComplete(t *testing.T) {
	for op := range 256 {
		if op == 0xCB {
			continue
		}
		assert.NotNil(t, opcodes[op], "opcode 0x%02X", op)
		assert.NotNil(t, opcodesCB[op], "opcode 0xCB%02X", op)
	}
}

func TestCPU_Step_cycles(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		zero    bool
		cycles  int
	}{
		{"NOP", []uint8{0x00}, false, 4},
		{"LD B, n", []uint8{0x06, 0x12}, false, 8},
		{"LD BC, nn", []uint8{0x01, 0x34, 0x12}, false, 12},
		{"LD B, C", []uint8{0x41}, false, 4},
		{"LD B, (HL)", []uint8{0x46}, false, 8},
		{"LD (HL), B", []uint8{0x70}, false, 8},
		{"LD (HL), n", []uint8{0x36, 0x01}, false, 12},
		{"INC (HL)", []uint8{0x34}, false, 12},
		{"ADD A, B", []uint8{0x80}, false, 4},
		{"ADD A, (HL)", []uint8{0x86}, false, 8},
		{"CP n", []uint8{0xFE, 0x01}, false, 8},
		{"JP nn", []uint8{0xC3, 0x00, 0xC1}, false, 16},
		{"JP (HL)", []uint8{0xE9}, false, 4},
		{"JR n", []uint8{0x18, 0x02}, false, 12},
		{"JR NZ taken", []uint8{0x20, 0x02}, false, 12},
		{"JR Z not taken", []uint8{0x28, 0x02}, false, 8},
		{"JP Z taken", []uint8{0xCA, 0x00, 0xC1}, true, 16},
		{"JP NZ not taken", []uint8{0xC2, 0x00, 0xC1}, true, 12},
		{"CALL nn", []uint8{0xCD, 0x00, 0xC1}, false, 24},
		{"CALL NZ not taken", []uint8{0xC4, 0x00, 0xC1}, true, 12},
		{"RET", []uint8{0xC9}, false, 16},
		{"RET Z taken", []uint8{0xC8}, true, 20},
		{"RET NZ not taken", []uint8{0xC0}, true, 8},
		{"PUSH BC", []uint8{0xC5}, false, 16},
		{"POP BC", []uint8{0xC1}, false, 12},
		{"RST 0x38", []uint8{0xFF}, false, 16},
		{"LD (nn), SP", []uint8{0x08, 0x00, 0xC1}, false, 20},
		{"ADD SP, n", []uint8{0xE8, 0x01}, false, 16},
		{"LD HL, SP+n", []uint8{0xF8, 0x01}, false, 12},
		{"LDH (n), A", []uint8{0xE0, 0x80}, false, 12},
		{"LD A, (nn)", []uint8{0xFA, 0x00, 0xC1}, false, 16},
		{"CB RLC B", []uint8{0xCB, 0x00}, false, 8},
		{"CB RLC (HL)", []uint8{0xCB, 0x06}, false, 16},
		{"CB BIT 0, (HL)", []uint8{0xCB, 0x46}, false, 12},
		{"CB SET 0, (HL)", []uint8{0xCB, 0xC6}, false, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU(tt.program...)
			c.setHL(0xC100)
			c.setFlagToCondition(zeroFlag, tt.zero)

			cycles, err := c.Step()

			require.NoError(t, err)
			assert.Equal(t, tt.cycles, cycles)
			assert.Equal(t, uint64(tt.cycles), c.Cycles())
		})
	}
}

func TestCPU_Step_pcAdvance(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		pc      uint16
	}{
		{"one byte", []uint8{0x00}, 0xC001},
		{"byte immediate", []uint8{0x3E, 0x42}, 0xC002},
		{"word immediate", []uint8{0x21, 0x42, 0x00}, 0xC003},
		{"CB prefix", []uint8{0xCB, 0x37}, 0xC002},
		{"STOP skips padding", []uint8{0x10, 0x00}, 0xC002},
		{"JR backwards", []uint8{0x18, 0xFE}, 0xC000},
		{"RST", []uint8{0xEF}, 0x0028},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCPU(tt.program...)

			_, err := c.Step()

			require.NoError(t, err)
			assert.Equal(t, tt.pc, c.pc)
		})
	}
}

func TestCPU_popAFMasksFlags(t *testing.T) {
	c, bus := newTestCPU(0xF1)
	bus[0xD000] = 0xFF
	bus[0xD001] = 0x12

	_, err := c.Step()

	require.NoError(t, err)
	assert.Equal(t, uint16(0x12F0), c.getAF())
}

func TestCPU_ResetPostBoot(t *testing.T) {
	c := New(&flatBus{})
	c.ResetPostBoot()

	assert.Equal(t, Registers{AF: 0x01B0, BC: 0x0013, DE: 0x00D8, HL: 0x014D, SP: 0xFFFE, PC: 0x0100}, c.Registers())
	assert.False(t, c.InterruptsEnabled())
}

func TestInterruptHandling(t *testing.T) {
	t.Run("interrupts disabled by default", func(t *testing.T) {
		c, bus := newTestCPU(0x00)
		bus[addr.IF] = 0x01
		bus[addr.IE] = 0x01

		cycles, err := c.Step()

		require.NoError(t, err)
		assert.Equal(t, 4, cycles)
		assert.Equal(t, uint16(0xC001), c.pc)
		assert.Equal(t, uint8(0x01), bus[addr.IF])
	})

	t.Run("priority order", func(t *testing.T) {
		c, bus := newTestCPU(0x00)
		c.interruptsEnabled = true
		bus[addr.IF] = uint8(addr.VBlankInterrupt | addr.TimerInterrupt)
		bus[addr.IE] = 0x1F

		cycles, err := c.Step()

		require.NoError(t, err)
		assert.Equal(t, 20, cycles)
		assert.Equal(t, uint16(0x40), c.pc)
		assert.Equal(t, uint8(addr.TimerInterrupt), bus[addr.IF])
		assert.False(t, c.interruptsEnabled)
		assert.Equal(t, uint16(0xC000), c.popStack())
	})

	t.Run("masked by IE", func(t *testing.T) {
		c, bus := newTestCPU(0x00)
		c.interruptsEnabled = true
		bus[addr.IF] = uint8(addr.VBlankInterrupt | addr.TimerInterrupt)
		bus[addr.IE] = uint8(addr.TimerInterrupt)

		_, err := c.Step()

		require.NoError(t, err)
		assert.Equal(t, uint16(0x50), c.pc)
		assert.Equal(t, uint8(addr.VBlankInterrupt), bus[addr.IF])
	})

	t.Run("EI takes effect after the next instruction", func(t *testing.T) {
		c, bus := newTestCPU(0xFB, 0x00, 0x00)
		bus[addr.IF] = 0x01
		bus[addr.IE] = 0x01

		_, err := c.Step()
		require.NoError(t, err)
		assert.False(t, c.interruptsEnabled)

		_, err = c.Step()
		require.NoError(t, err)
		assert.True(t, c.interruptsEnabled)
		assert.Equal(t, uint16(0xC002), c.pc)

		cycles, err := c.Step()
		require.NoError(t, err)
		assert.Equal(t, 20, cycles)
		assert.Equal(t, uint16(0x40), c.pc)
	})

	t.Run("DI cancels a pending EI", func(t *testing.T) {
		c, _ := newTestCPU(0xFB, 0xF3, 0x00)

		for range 3 {
			_, err := c.Step()
			require.NoError(t, err)
		}

		assert.False(t, c.interruptsEnabled)
	})

	t.Run("RETI enables interrupts and returns", func(t *testing.T) {
		c, _ := newTestCPU(0xD9)
		c.pushStack(0x150)

		_, err := c.Step()

		require.NoError(t, err)
		assert.True(t, c.interruptsEnabled)
		assert.Equal(t, uint16(0x150), c.pc)
	})
}

func TestCPU_halt(t *testing.T) {
	t.Run("wakes into the handler", func(t *testing.T) {
		c, bus := newTestCPU(0x76, 0x00)
		c.interruptsEnabled = true
		bus[addr.IE] = 0x01

		_, err := c.Step()
		require.NoError(t, err)
		assert.True(t, c.Halted())

		cycles, err := c.Step()
		require.NoError(t, err)
		assert.Equal(t, 4, cycles)
		assert.True(t, c.Halted())
		assert.Equal(t, uint16(0xC001), c.pc)

		bus[addr.IF] = 0x01
		cycles, err = c.Step()
		require.NoError(t, err)
		assert.Equal(t, 20, cycles)
		assert.False(t, c.Halted())
		assert.Equal(t, uint16(0x40), c.pc)
		assert.Equal(t, uint16(0xC001), c.popStack())
	})

	t.Run("wakes without dispatch when IME is off", func(t *testing.T) {
		c, bus := newTestCPU(0x76, 0x00)
		bus[addr.IE] = 0x04

		_, err := c.Step()
		require.NoError(t, err)
		assert.True(t, c.Halted())

		bus[addr.IF] = 0x04
		_, err = c.Step()
		require.NoError(t, err)
		assert.False(t, c.Halted())
		assert.Equal(t, uint16(0xC002), c.pc)
		assert.Equal(t, uint8(0x04), bus[addr.IF])
	})

	t.Run("halt bug repeats the next byte", func(t *testing.T) {
		// HALT; INC A
		c, bus := newTestCPU(0x76, 0x3C)
		bus[addr.IE] = 0x01
		bus[addr.IF] = 0x01

		_, err := c.Step()
		require.NoError(t, err)
		assert.False(t, c.Halted())

		_, err = c.Step()
		require.NoError(t, err)
		assert.Equal(t, uint8(1), c.a)
		assert.Equal(t, uint16(0xC001), c.pc)

		_, err = c.Step()
		require.NoError(t, err)
		assert.Equal(t, uint8(2), c.a)
		assert.Equal(t, uint16(0xC002), c.pc)
	})
}

func TestCPU_stop(t *testing.T) {
	// STOP; INC A
	c, bus := newTestCPU(0x10, 0x00, 0x3C)
	bus[addr.DIV] = 0x55

	_, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), bus[addr.DIV])

	cycles, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0xC002), c.pc)

	bus[addr.IF] = uint8(addr.JoypadInterrupt)
	_, err = c.Step()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), c.a)
}

func TestCPU_illegalOpcode(t *testing.T) {
	illegal := []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

	for _, op := range illegal {
		c, _ := newTestCPU(0x00, op)

		_, err := c.Step()
		require.NoError(t, err)

		_, err = c.Step()
		var illegalErr *IllegalOpcodeError
		require.ErrorAs(t, err, &illegalErr)
		assert.Equal(t, op, illegalErr.Opcode)
		assert.Equal(t, uint16(0xC001), illegalErr.PC)

		// stays faulted
		cycles, again := c.Step()
		assert.Equal(t, 0, cycles)
		assert.Equal(t, err, again)
	}
}
