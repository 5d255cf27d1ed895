package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/serial"
	"github.com/valerio/go-dmg/dmg/video"
)

// BootROMSize is the size of the DMG boot program mapped at 0x0000.
const BootROMSize = 0x100

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations only see reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int) addr.Interrupt
}

// MMU allows access to all memory mapped I/O and data/registers. It owns
// every device on the bus.
type MMU struct {
	regionMap [256]memRegion

	boot       []byte
	bootMapped bool

	wram [addr.WRAMEnd - addr.WRAMStart + 1]byte
	hram [addr.HRAMEnd - addr.HRAMStart + 1]byte
	apu  [addr.AudioEnd - addr.AudioStart + 1]byte

	cart       *Cartridge
	gpu        *video.GPU
	timer      Timer
	joypad     *Joypad
	serial     SerialPort
	interrupts Interrupts

	logger *slog.Logger
}

// MMUOption configures an MMU.
type MMUOption func(*MMU)

// WithBootROM maps a 256 byte boot program over the start of the cartridge
// until it is disabled through 0xFF50.
func WithBootROM(boot []byte) MMUOption {
	return func(m *MMU) {
		m.boot = boot
		m.bootMapped = len(boot) == BootROMSize
	}
}

// WithSerialPort replaces the default serial log sink.
func WithSerialPort(port SerialPort) MMUOption {
	return func(m *MMU) { m.serial = port }
}

// WithLogger sets the logger used for bus diagnostics.
func WithLogger(logger *slog.Logger) MMUOption {
	return func(m *MMU) { m.logger = logger }
}

// NewMMU creates a bus with the given cartridge inserted. RAM, VRAM and
// OAM start zeroed and the LCD is off, as at power on.
func NewMMU(cart *Cartridge, opts ...MMUOption) *MMU {
	m := &MMU{
		cart:   cart,
		gpu:    video.NewGPU(),
		joypad: NewJoypad(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.serial == nil {
		m.serial = serial.NewLogSink(serial.WithLogger(m.logger))
	}
	initRegionMap(m)
	return m
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, unusable: 0xFEA0-0xFEFF
	m.regionMap[0xFE] = regionOAM
	// IO + HRAM + IE: 0xFF00-0xFFFF
	m.regionMap[0xFF] = regionIO
}

// SetPostBootState writes the IO register values the boot ROM leaves
// behind, for starting directly at the cartridge entry point.
func (m *MMU) SetPostBootState() {
	m.bootMapped = false

	m.Write(addr.P1, 0xCF)
	m.Write(addr.TIMA, 0x00)
	m.Write(addr.TMA, 0x00)
	m.Write(addr.TAC, 0x00)
	m.Write(addr.SCY, 0x00)
	m.Write(addr.SCX, 0x00)
	m.Write(addr.LYC, 0x00)
	m.Write(addr.BGP, 0xFC)
	m.Write(addr.OBP0, 0xFF)
	m.Write(addr.OBP1, 0xFF)
	m.Write(addr.WY, 0x00)
	m.Write(addr.WX, 0x00)
	m.Write(addr.IE, 0x00)

	m.Write(addr.NR10, 0x80)
	m.Write(addr.NR11, 0xBF)
	m.Write(addr.NR12, 0xF3)
	m.Write(addr.NR14, 0xBF)
	m.Write(addr.NR21, 0x3F)
	m.Write(addr.NR22, 0x00)
	m.Write(addr.NR24, 0xBF)
	m.Write(addr.NR30, 0x7F)
	m.Write(addr.NR31, 0xFF)
	m.Write(addr.NR32, 0x9F)
	m.Write(addr.NR34, 0xBF)
	m.Write(addr.NR41, 0xFF)
	m.Write(addr.NR44, 0xBF)
	m.Write(addr.NR50, 0x77)
	m.Write(addr.NR51, 0xF3)
	m.Write(addr.NR52, 0xF1)

	m.gpu.SetPostBootState()
	m.timer.SetSeed(0xABCC)
}

// Tick advances the devices clocked by the bus and returns the interrupts
// they raised. The GPU is ticked separately by its owner.
func (m *MMU) Tick(cycles int) addr.Interrupt {
	irq := m.timer.Tick(cycles)
	irq |= m.serial.Tick(cycles)
	irq |= m.joypad.Tick()
	return irq
}

// RequestInterrupt sets the request bits (IF) of the given interrupts.
func (m *MMU) RequestInterrupt(irq addr.Interrupt) {
	m.interrupts.Request(irq)
}

// GPU returns the pixel processing unit on the bus.
func (m *MMU) GPU() *video.GPU {
	return m.gpu
}

// Cartridge returns the inserted cartridge.
func (m *MMU) Cartridge() *Cartridge {
	return m.cart
}

// Joypad returns the joypad matrix behind P1.
func (m *MMU) Joypad() *Joypad {
	return m.joypad
}

// BootROMMapped reports whether reads from 0x0000-0x00FF hit the boot ROM.
func (m *MMU) BootROMMapped() bool {
	return m.bootMapped
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.bootMapped && address <= addr.BootROMEnd {
			return m.boot[address]
		}
		return m.cart.Read(address)
	case regionVRAM:
		return m.gpu.ReadVRAM(address)
	case regionExtRAM:
		return m.cart.Read(address)
	case regionWRAM:
		return m.wram[address-addr.WRAMStart]
	case regionEcho:
		return m.wram[address-addr.EchoStart]
	case regionOAM:
		if address <= addr.OAMEnd {
			return m.gpu.ReadOAM(address)
		}
		return 0xFF
	default:
		return m.readIO(address)
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		m.cart.Write(address, value)
	case regionVRAM:
		m.gpu.WriteVRAM(address, value)
	case regionWRAM:
		m.wram[address-addr.WRAMStart] = value
	case regionEcho:
		m.wram[address-addr.EchoStart] = value
	case regionOAM:
		if address <= addr.OAMEnd {
			m.gpu.WriteOAM(address, value)
		}
	default:
		m.writeIO(address, value)
	}
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.joypad.Read()
	case address == addr.SB || address == addr.SC:
		return m.serial.Read(address)
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address)
	case address == addr.IF || address == addr.IE:
		return m.interrupts.Read(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.apu[address-addr.AudioStart]
	case address >= addr.LCDC && address <= addr.WX:
		return m.gpu.ReadRegister(address)
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		return m.hram[address-addr.HRAMStart]
	default:
		// unmapped IO, including 0xFF50
		return 0xFF
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.SB || address == addr.SC:
		m.serial.Write(address, value)
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
	case address == addr.IF || address == addr.IE:
		m.interrupts.Write(address, value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.apu[address-addr.AudioStart] = value
	case address == addr.DMA:
		m.gpu.WriteRegister(address, value)
		m.dmaTransfer(value)
	case address >= addr.LCDC && address <= addr.WX:
		m.gpu.WriteRegister(address, value)
	case address == addr.BootDisable:
		if value != 0 && m.bootMapped {
			m.bootMapped = false
			m.logger.Debug("boot ROM unmapped")
		}
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		m.hram[address-addr.HRAMStart] = value
	default:
		m.logger.Debug("write to unmapped IO register", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	}
}

// dmaTransfer copies 160 bytes from value<<8 into OAM, ignoring the PPU lock.
func (m *MMU) dmaTransfer(value uint8) {
	source := uint16(value) << 8
	for i := range uint16(0xA0) {
		m.gpu.WriteOAMDirect(int(i), m.Read(source+i))
	}
}
