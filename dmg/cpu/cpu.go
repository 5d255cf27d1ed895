// Package cpu implements the SM83 instruction set.
package cpu

import (
	"fmt"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/bit"
)

// Bus is the CPU's view of the address space.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

const (
	// interruptCycles is the cost of dispatching to an interrupt handler.
	interruptCycles = 20
	// idleCycles is what a halted or stopped CPU consumes per step.
	idleCycles = 4
)

// IllegalOpcodeError is returned when the CPU fetches one of the unused
// opcodes. Real hardware locks up; the CPU stays faulted from then on.
type IllegalOpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode 0x%02X at 0x%04X", e.Opcode, e.PC)
}

// CPU holds the SM83 state
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// metadata
	interruptsEnabled bool
	eiDelay           int // steps until a pending EI sets IME
	currentOpcode     uint16
	currentPC         uint16
	stopped           bool
	halted            bool
	cycles            uint64

	// haltBug makes the next fetch skip the PC increment. Set by HALT when
	// IME is off and an interrupt is already pending.
	haltBug bool

	fault error
	bus   Bus
}

// New returns a CPU in its power-on state, about to run the boot ROM at 0.
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// ResetPostBoot puts the registers in the state the boot ROM leaves them in
// when it jumps to the cartridge entry point.
func (c *CPU) ResetPostBoot() {
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100
}

// Step runs a single instruction, services an interrupt or idles while
// halted, and returns the cycles consumed.
func (c *CPU) Step() (int, error) {
	if c.fault != nil {
		return 0, c.fault
	}

	if c.stopped {
		if c.bus.Read(addr.IF)&uint8(addr.JoypadInterrupt) == 0 {
			return c.tick(idleCycles), nil
		}
		c.stopped = false
	}

	pending := c.pendingInterrupts()
	if c.halted {
		// HALT ends on any enabled request, even with IME off
		if pending == 0 {
			return c.tick(idleCycles), nil
		}
		c.halted = false
	}

	if c.interruptsEnabled && pending != 0 {
		c.serviceInterrupt(pending)
		return c.tick(interruptCycles), nil
	}

	c.currentPC = c.pc
	instruction := Decode(c)

	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
	}
	if bit.High(c.currentOpcode) == 0xCB {
		c.pc++
	}

	cycles := instruction(c)
	if c.fault != nil {
		return cycles, c.fault
	}

	if c.eiDelay > 0 {
		c.eiDelay--
		if c.eiDelay == 0 {
			c.interruptsEnabled = true
		}
	}

	return c.tick(cycles), nil
}

func (c *CPU) tick(cycles int) int {
	c.cycles += uint64(cycles)
	return cycles
}

func (c *CPU) pendingInterrupts() uint8 {
	return c.bus.Read(addr.IE) & c.bus.Read(addr.IF) & uint8(addr.InterruptMask)
}

// serviceInterrupt jumps to the handler of the highest priority pending
// interrupt (lowest bit), clearing its request and IME.
func (c *CPU) serviceInterrupt(pending uint8) {
	for i := range uint8(5) {
		if !bit.IsSet(i, pending) {
			continue
		}

		c.bus.Write(addr.IF, bit.Reset(i, c.bus.Read(addr.IF)))
		c.interruptsEnabled = false
		c.eiDelay = 0
		c.pushStack(c.pc)
		c.pc = addr.Vector(int(i))
		return
	}
}

// PC returns the program counter.
func (c *CPU) PC() uint16 {
	return c.pc
}

// SP returns the stack pointer.
func (c *CPU) SP() uint16 {
	return c.sp
}

// Halted reports whether the CPU is waiting for an interrupt.
func (c *CPU) Halted() bool {
	return c.halted
}

// InterruptsEnabled returns the interrupt master enable flag.
func (c *CPU) InterruptsEnabled() bool {
	return c.interruptsEnabled
}

// Cycles returns the total cycles consumed since creation.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Registers is a snapshot of the register file.
type Registers struct {
	AF, BC, DE, HL, SP, PC uint16
}

func (r Registers) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X", r.AF, r.BC, r.DE, r.HL, r.SP, r.PC)
}

// Registers returns the current register values.
func (c *CPU) Registers() Registers {
	return Registers{
		AF: c.getAF(),
		BC: c.getBC(),
		DE: c.getDE(),
		HL: c.getHL(),
		SP: c.sp,
		PC: c.pc,
	}
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

// readImmediate acts similarly as its memory counterpart, but it will also increment the program counter.
func (c *CPU) readImmediate() uint8 {
	n := c.bus.Read(c.pc)
	c.pc++
	return n
}

// readImmediateWord reads a little endian word and advances PC past it.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// readSignedImmediate reads an immediate byte as a two's complement offset.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}
