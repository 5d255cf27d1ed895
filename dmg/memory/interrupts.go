package memory

import "github.com/valerio/go-dmg/dmg/addr"

// Interrupts holds the interrupt enable (IE) and request (IF) registers.
type Interrupts struct {
	enable uint8
	flags  uint8
}

// Request raises the request bits of the given interrupts.
func (i *Interrupts) Request(irq addr.Interrupt) {
	i.flags |= uint8(irq & addr.InterruptMask)
}

// Pending returns the interrupts that are both requested and enabled.
func (i *Interrupts) Pending() addr.Interrupt {
	return addr.Interrupt(i.enable&i.flags) & addr.InterruptMask
}

func (i *Interrupts) Read(address uint16) uint8 {
	if address == addr.IE {
		return i.enable
	}
	// upper 3 bits of IF are unused and always read as 1
	return i.flags | 0xE0
}

func (i *Interrupts) Write(address uint16, value uint8) {
	if address == addr.IE {
		i.enable = value
		return
	}
	i.flags = value & uint8(addr.InterruptMask)
}
