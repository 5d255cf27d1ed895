package memory

import (
	"fmt"
	"time"
)

// MBCKind identifies the memory bank controller soldered on a cartridge.
type MBCKind uint8

const (
	NoMBC MBCKind = iota
	MBC1
	MBC2
	MBC3
	MBC5
)

func (k MBCKind) String() string {
	switch k {
	case NoMBC:
		return "ROM ONLY"
	case MBC1:
		return "MBC1"
	case MBC2:
		return "MBC2"
	case MBC3:
		return "MBC3"
	case MBC5:
		return "MBC5"
	default:
		return fmt.Sprintf("MBCKind(%d)", uint8(k))
	}
}

// mbc2RAMSize is the number of 4-bit cells built into the MBC2 chip.
const mbc2RAMSize = 512

// Cartridge is the ROM image plus the banking state of its controller.
// The controller is selected by kind and every access is translated by the
// functions in mbc.go.
type Cartridge struct {
	header   Header
	kind     MBCKind
	features cartridgeFeatures

	rom      []byte
	ram      []byte
	romBanks int
	ramBanks int

	ramEnabled bool
	romBank    uint16 // MBC1: low 5 bits, MBC3: 7 bits, MBC5: 9 bits
	bankHigh   uint8  // MBC1 secondary 2-bit register
	ramBank    uint8
	mode       uint8 // MBC1 banking mode
	latchArmed bool  // MBC3 saw a 0 written to the latch register

	rtc *RTC
}

type cartridgeConfig struct {
	skipChecksum bool
	clock        Clock
}

// CartridgeOption customizes how a cartridge is loaded.
type CartridgeOption func(*cartridgeConfig)

// WithSkipChecksum accepts images whose header checksum does not match,
// which is common for homebrew and test ROMs.
func WithSkipChecksum() CartridgeOption {
	return func(c *cartridgeConfig) { c.skipChecksum = true }
}

// WithClock sets the time source used by the MBC3 real time clock.
func WithClock(clock Clock) CartridgeOption {
	return func(c *cartridgeConfig) { c.clock = clock }
}

// NewCartridge validates a ROM image and sets up its banking controller.
// The image is copied, later changes to rom are not observed.
func NewCartridge(rom []byte, opts ...CartridgeOption) (*Cartridge, error) {
	cfg := cartridgeConfig{clock: ClockFunc(time.Now)}
	for _, opt := range opts {
		opt(&cfg)
	}

	header, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	if !cfg.skipChecksum {
		if sum := HeaderChecksum(rom); sum != header.HeaderChecksum {
			return nil, fmt.Errorf("%w: computed 0x%02X, header has 0x%02X", ErrHeaderChecksum, sum, header.HeaderChecksum)
		}
	}

	features, err := header.features()
	if err != nil {
		return nil, err
	}

	c := &Cartridge{
		header:   header,
		kind:     features.kind,
		features: features,
		rom:      make([]byte, header.ROMBanks*romBankSize),
		romBanks: header.ROMBanks,
		romBank:  1,
	}
	copy(c.rom, rom)

	switch {
	case features.kind == MBC2:
		c.ram = make([]byte, mbc2RAMSize)
	case features.ram && header.RAMBanks > 0:
		c.ramBanks = header.RAMBanks
		c.ram = make([]byte, c.ramBanks*ramBankSize)
	}

	if features.timer {
		c.rtc = NewRTC(cfg.clock)
	}

	return c, nil
}

// Header returns the parsed cartridge header.
func (c *Cartridge) Header() Header {
	return c.header
}

// Kind returns the banking controller of the cartridge.
func (c *Cartridge) Kind() MBCKind {
	return c.kind
}

// HasBattery reports whether the cartridge RAM survives power off.
func (c *Cartridge) HasBattery() bool {
	return c.features.battery
}

// RAM returns the external RAM backing store, nil when the cartridge has
// none. The slice aliases the live RAM.
func (c *Cartridge) RAM() []byte {
	return c.ram
}

// LoadRAM replaces the content of the external RAM, typically with a
// battery save read back from storage.
func (c *Cartridge) LoadRAM(data []byte) error {
	if len(data) != len(c.ram) {
		return fmt.Errorf("save size mismatch: got %d bytes, cartridge has %d", len(data), len(c.ram))
	}
	copy(c.ram, data)
	return nil
}

// Read reads from the cartridge ROM (0x0000-0x7FFF) or RAM (0xA000-0xBFFF).
func (c *Cartridge) Read(address uint16) uint8 {
	switch c.kind {
	case MBC1:
		return c.readMBC1(address)
	case MBC2:
		return c.readMBC2(address)
	case MBC3:
		return c.readMBC3(address)
	case MBC5:
		return c.readMBC5(address)
	default:
		return c.readNoMBC(address)
	}
}

// Write forwards a bus write to the controller: writes to the ROM area
// update banking registers, writes to the RAM area store data when enabled.
func (c *Cartridge) Write(address uint16, value uint8) {
	switch c.kind {
	case MBC1:
		c.writeMBC1(address, value)
	case MBC2:
		c.writeMBC2(address, value)
	case MBC3:
		c.writeMBC3(address, value)
	case MBC5:
		c.writeMBC5(address, value)
	default:
		c.writeNoMBC(address, value)
	}
}

// readROM reads from a 16KB ROM bank, the bank index wraps around the number
// of banks in the image.
func (c *Cartridge) readROM(bank int, address uint16) uint8 {
	bank %= c.romBanks
	return c.rom[bank*romBankSize+int(address&0x3FFF)]
}

func (c *Cartridge) readRAM(bank int, address uint16) uint8 {
	if !c.ramEnabled || c.ramBanks == 0 {
		return 0xFF
	}
	bank %= c.ramBanks
	return c.ram[bank*ramBankSize+int(address&0x1FFF)]
}

func (c *Cartridge) writeRAM(bank int, address uint16, value uint8) {
	if !c.ramEnabled || c.ramBanks == 0 {
		return
	}
	bank %= c.ramBanks
	c.ram[bank*ramBankSize+int(address&0x1FFF)] = value
}
