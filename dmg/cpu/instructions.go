package cpu

import "github.com/valerio/go-dmg/dmg/bit"

func (c *CPU) inc(r *uint8) {
	*r++
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, *r&0x0F == 0)
}

func (c *CPU) dec(r *uint8) {
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, *r&0x0F == 0x0F)
}

func (c *CPU) addToA(value uint8) {
	c.adc(value, 0)
}

func (c *CPU) adc(value, carry uint8) {
	result := uint16(c.a) + uint16(value) + uint16(carry)

	c.setFlagToCondition(zeroFlag, uint8(result) == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (c.a&0x0F)+(value&0x0F)+carry > 0x0F)
	c.setFlagToCondition(carryFlag, result > 0xFF)

	c.a = uint8(result)
}

func (c *CPU) sub(value uint8) {
	c.a = c.subtract(value, 0)
}

func (c *CPU) sbc(value uint8) {
	c.a = c.subtract(value, c.flagToBit(carryFlag))
}

// cp compares A against value, setting flags like SUB without storing.
func (c *CPU) cp(value uint8) {
	c.subtract(value, 0)
}

func (c *CPU) subtract(value, carry uint8) uint8 {
	result := int(c.a) - int(value) - int(carry)

	c.setFlagToCondition(zeroFlag, uint8(result) == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, int(c.a&0x0F)-int(value&0x0F)-int(carry) < 0)
	c.setFlagToCondition(carryFlag, result < 0)

	return uint8(result)
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.f = 0
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := uint32(hl) + uint32(value)

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlagToCondition(carryFlag, result > 0xFFFF)

	c.setHL(uint16(result))
}

// addSPSigned returns SP plus a signed immediate, flags computed on the
// unsigned low byte. Shared by ADD SP, e and LD HL, SP+e.
func (c *CPU) addSPSigned() uint16 {
	offset := c.readImmediate()
	result := c.sp + uint16(int16(int8(offset)))

	c.f = 0
	c.setFlagToCondition(halfCarryFlag, (c.sp&0x0F)+uint16(offset&0x0F) > 0x0F)
	c.setFlagToCondition(carryFlag, (c.sp&0xFF)+uint16(offset) > 0xFF)

	return result
}

// daa adjusts A to a valid BCD value after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	carry := c.isSetFlag(carryFlag)

	if !c.isSetFlag(subFlag) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			a -= 0x06
		}
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

// rotates and shifts, Z is set from the result (the A-only variants clear it)

func (c *CPU) rlc(value uint8) uint8 {
	result := value<<1 | value>>7
	c.setShiftFlags(result, bit.IsSet(7, value))
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.flagToBit(carryFlag)
	c.setShiftFlags(result, bit.IsSet(7, value))
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	result := value>>1 | value<<7
	c.setShiftFlags(result, bit.IsSet(0, value))
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.setShiftFlags(result, bit.IsSet(0, value))
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setShiftFlags(result, bit.IsSet(7, value))
	return result
}

func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setShiftFlags(result, bit.IsSet(0, value))
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setShiftFlags(result, bit.IsSet(0, value))
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setShiftFlags(result, false)
	return result
}

func (c *CPU) setShiftFlags(result uint8, carry bool) {
	c.f = 0
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) bit(index, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// control flow

func (c *CPU) jr() {
	offset := c.readSignedImmediate()
	c.pc = uint16(int32(c.pc) + int32(offset))
}

func (c *CPU) jp() {
	c.pc = c.readImmediateWord()
}

func (c *CPU) call() {
	target := c.readImmediateWord()
	c.pushStack(c.pc)
	c.pc = target
}

func (c *CPU) ret() {
	c.pc = c.popStack()
}

func (c *CPU) rst(vector uint16) {
	c.pushStack(c.pc)
	c.pc = vector
}

// conditional variants: the cost depends on whether the branch is taken

func (c *CPU) jrIf(condition bool) int {
	if condition {
		c.jr()
		return 12
	}
	c.pc++
	return 8
}

func (c *CPU) jpIf(condition bool) int {
	if condition {
		c.jp()
		return 16
	}
	c.pc += 2
	return 12
}

func (c *CPU) callIf(condition bool) int {
	if condition {
		c.call()
		return 24
	}
	c.pc += 2
	return 12
}

func (c *CPU) retIf(condition bool) int {
	if condition {
		c.ret()
		return 20
	}
	return 8
}

func (c *CPU) illegal() int {
	c.fault = &IllegalOpcodeError{Opcode: bit.Low(c.currentOpcode), PC: c.currentPC}
	return 4
}
