package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassembleAt(t *testing.T) {
	tests := []struct {
		name        string
		program     []uint8
		instruction string
		length      int
	}{
		{"nop", []uint8{0x00}, "NOP", 1},
		{"word immediate", []uint8{0x01, 0x34, 0x12}, "LD BC, $1234", 3},
		{"byte immediate", []uint8{0x20, 0xFE}, "JR NZ, $FE", 2},
		{"high page", []uint8{0xE0, 0x40}, "LDH ($FF40), A", 2},
		{"register load", []uint8{0x41}, "LD B, C", 1},
		{"halt", []uint8{0x76}, "HALT", 1},
		{"alu with (HL)", []uint8{0x86}, "ADD A, (HL)", 1},
		{"xor", []uint8{0xAF}, "XOR A", 1},
		{"stop", []uint8{0x10, 0x00}, "STOP", 2},
		{"cb bit", []uint8{0xCB, 0x7C}, "BIT 7, H", 2},
		{"cb swap", []uint8{0xCB, 0x37}, "SWAP A", 2},
		{"illegal", []uint8{0xD3}, "DB $D3", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &flatBus{}
			copy(bus[0x0150:], tt.program)

			line := DisassembleAt(0x0150, bus)

			assert.Equal(t, tt.instruction, line.Instruction)
			assert.Equal(t, tt.length, line.Length)
			assert.Equal(t, uint16(0x0150), line.Address)
		})
	}
}

func TestDisassembleRange(t *testing.T) {
	bus := &flatBus{}
	copy(bus[0x0100:], []uint8{0x00, 0xC3, 0x50, 0x01})

	lines := DisassembleRange(0x0100, 2, bus)

	assert.Equal(t, []string{"0x0100: NOP", "0x0101: JP $0150"}, []string{lines[0].String(), lines[1].String()})
}
