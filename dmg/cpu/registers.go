package cpu

import "github.com/valerio/go-dmg/dmg/bit"

func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f) }
func (c *CPU) getBC() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) getDE() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) getHL() uint16 { return bit.Combine(c.h, c.l) }

// setAF keeps the low nibble of F at zero, those bits do not exist.
func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

// Operand encoding used by the regular opcode blocks (LD r, r' / ALU A, r /
// the CB table): B, C, D, E, H, L, (HL), A.
const operandHL = 6

// readOperand returns the value of an encoded 8 bit operand.
func (c *CPU) readOperand(index uint8) uint8 {
	switch index {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case operandHL:
		return c.bus.Read(c.getHL())
	default:
		return c.a
	}
}

// writeOperand stores into an encoded 8 bit operand.
func (c *CPU) writeOperand(index uint8, value uint8) {
	switch index {
	case 0:
		c.b = value
	case 1:
		c.c = value
	case 2:
		c.d = value
	case 3:
		c.e = value
	case 4:
		c.h = value
	case 5:
		c.l = value
	case operandHL:
		c.bus.Write(c.getHL(), value)
	default:
		c.a = value
	}
}
