package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dmg/dmg/addr"
)

func TestInterrupts(t *testing.T) {
	var irq Interrupts

	assert.Equal(t, uint8(0xE0), irq.Read(addr.IF))

	irq.Request(addr.VBlankInterrupt | addr.TimerInterrupt)
	assert.Equal(t, uint8(0xE5), irq.Read(addr.IF))
	assert.Zero(t, irq.Pending())

	irq.Write(addr.IE, uint8(addr.TimerInterrupt))
	assert.Equal(t, addr.TimerInterrupt, irq.Pending())

	irq.Write(addr.IF, 0xFF)
	assert.Equal(t, uint8(0xFF), irq.Read(addr.IF))
	irq.Write(addr.IF, 0x00)
	assert.Equal(t, uint8(0xE0), irq.Read(addr.IF))
}
