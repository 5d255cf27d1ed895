package cpu

import (
	"fmt"
	"strings"

	"github.com/valerio/go-dmg/dmg/bit"
)

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

func (l DisassemblyLine) String() string {
	return fmt.Sprintf("0x%04X: %s", l.Address, l.Instruction)
}

var operandNames = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

// templates for the irregular opcodes, immediates are formatted in place:
// %02X for a byte operand and %04X for a word.
var instructionTemplates = map[uint8]string{
	0x00: "NOP", 0x01: "LD BC, $%04X", 0x02: "LD (BC), A", 0x03: "INC BC",
	0x04: "INC B", 0x05: "DEC B", 0x06: "LD B, $%02X", 0x07: "RLCA",
	0x08: "LD ($%04X), SP", 0x09: "ADD HL, BC", 0x0A: "LD A, (BC)", 0x0B: "DEC BC",
	0x0C: "INC C", 0x0D: "DEC C", 0x0E: "LD C, $%02X", 0x0F: "RRCA",
	0x10: "STOP", 0x11: "LD DE, $%04X", 0x12: "LD (DE), A", 0x13: "INC DE",
	0x14: "INC D", 0x15: "DEC D", 0x16: "LD D, $%02X", 0x17: "RLA",
	0x18: "JR $%02X", 0x19: "ADD HL, DE", 0x1A: "LD A, (DE)", 0x1B: "DEC DE",
	0x1C: "INC E", 0x1D: "DEC E", 0x1E: "LD E, $%02X", 0x1F: "RRA",
	0x20: "JR NZ, $%02X", 0x21: "LD HL, $%04X", 0x22: "LD (HL+), A", 0x23: "INC HL",
	0x24: "INC H", 0x25: "DEC H", 0x26: "LD H, $%02X", 0x27: "DAA",
	0x28: "JR Z, $%02X", 0x29: "ADD HL, HL", 0x2A: "LD A, (HL+)", 0x2B: "DEC HL",
	0x2C: "INC L", 0x2D: "DEC L", 0x2E: "LD L, $%02X", 0x2F: "CPL",
	0x30: "JR NC, $%02X", 0x31: "LD SP, $%04X", 0x32: "LD (HL-), A", 0x33: "INC SP",
	0x34: "INC (HL)", 0x35: "DEC (HL)", 0x36: "LD (HL), $%02X", 0x37: "SCF",
	0x38: "JR C, $%02X", 0x39: "ADD HL, SP", 0x3A: "LD A, (HL-)", 0x3B: "DEC SP",
	0x3C: "INC A", 0x3D: "DEC A", 0x3E: "LD A, $%02X", 0x3F: "CCF",
	0x76: "HALT",
	0xC0: "RET NZ", 0xC1: "POP BC", 0xC2: "JP NZ, $%04X", 0xC3: "JP $%04X",
	0xC4: "CALL NZ, $%04X", 0xC5: "PUSH BC", 0xC6: "ADD A, $%02X", 0xC7: "RST $00",
	0xC8: "RET Z", 0xC9: "RET", 0xCA: "JP Z, $%04X",
	0xCC: "CALL Z, $%04X", 0xCD: "CALL $%04X", 0xCE: "ADC A, $%02X", 0xCF: "RST $08",
	0xD0: "RET NC", 0xD1: "POP DE", 0xD2: "JP NC, $%04X",
	0xD4: "CALL NC, $%04X", 0xD5: "PUSH DE", 0xD6: "SUB $%02X", 0xD7: "RST $10",
	0xD8: "RET C", 0xD9: "RETI", 0xDA: "JP C, $%04X",
	0xDC: "CALL C, $%04X", 0xDE: "SBC A, $%02X", 0xDF: "RST $18",
	0xE0: "LDH ($FF%02X), A", 0xE1: "POP HL", 0xE2: "LD (C), A",
	0xE5: "PUSH HL", 0xE6: "AND $%02X", 0xE7: "RST $20",
	0xE8: "ADD SP, $%02X", 0xE9: "JP (HL)", 0xEA: "LD ($%04X), A",
	0xEE: "XOR $%02X", 0xEF: "RST $28",
	0xF0: "LDH A, ($FF%02X)", 0xF1: "POP AF", 0xF2: "LD A, (C)", 0xF3: "DI",
	0xF5: "PUSH AF", 0xF6: "OR $%02X", 0xF7: "RST $30",
	0xF8: "LD HL, SP+$%02X", 0xF9: "LD SP, HL", 0xFA: "LD A, ($%04X)", 0xFB: "EI",
	0xFE: "CP $%02X", 0xFF: "RST $38",
}

var (
	aluNames   = [8]string{"ADD A,", "ADC A,", "SUB", "SBC A,", "AND", "XOR", "OR", "CP"}
	shiftNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

	cbTemplates [256]string
)

func init() {
	for op := 0x40; op <= 0xBF; op++ {
		if _, ok := instructionTemplates[uint8(op)]; ok {
			continue
		}
		dst, src := (op>>3)&7, op&7
		if op < 0x80 {
			instructionTemplates[uint8(op)] = fmt.Sprintf("LD %s, %s", operandNames[dst], operandNames[src])
		} else {
			instructionTemplates[uint8(op)] = fmt.Sprintf("%s %s", aluNames[dst], operandNames[src])
		}
	}

	for op := range 256 {
		target := operandNames[op&7]
		index := (op >> 3) & 7
		switch op >> 6 {
		case 0:
			cbTemplates[op] = fmt.Sprintf("%s %s", shiftNames[index], target)
		case 1:
			cbTemplates[op] = fmt.Sprintf("BIT %d, %s", index, target)
		case 2:
			cbTemplates[op] = fmt.Sprintf("RES %d, %s", index, target)
		default:
			cbTemplates[op] = fmt.Sprintf("SET %d, %s", index, target)
		}
	}
}

// instructionLength derives the encoded length from the operand in the template.
func instructionLength(template string) int {
	switch {
	case strings.Contains(template, "%04X"):
		return 3
	case strings.Contains(template, "%02X"), strings.HasPrefix(template, "STOP"):
		return 2
	default:
		return 1
	}
}

// DisassembleAt disassembles the instruction at the given program counter.
// Unused opcodes are rendered as data bytes.
func DisassembleAt(pc uint16, bus Bus) DisassemblyLine {
	opcode := bus.Read(pc)

	if opcode == 0xCB {
		return DisassemblyLine{
			Address:     pc,
			Instruction: cbTemplates[bus.Read(pc+1)],
			Length:      2,
		}
	}

	template, ok := instructionTemplates[opcode]
	if !ok {
		return DisassemblyLine{Address: pc, Instruction: fmt.Sprintf("DB $%02X", opcode), Length: 1}
	}

	length := instructionLength(template)
	var instruction string
	switch {
	case length == 3:
		instruction = fmt.Sprintf(template, bit.Combine(bus.Read(pc+2), bus.Read(pc+1)))
	case strings.Contains(template, "%02X"):
		instruction = fmt.Sprintf(template, bus.Read(pc+1))
	default:
		instruction = template
	}

	return DisassemblyLine{
		Address:     pc,
		Instruction: instruction,
		Length:      length,
	}
}

// DisassembleRange disassembles count instructions starting from startPC.
func DisassembleRange(startPC uint16, count int, bus Bus) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC

	for range count {
		line := DisassembleAt(pc, bus)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}

	return lines
}
